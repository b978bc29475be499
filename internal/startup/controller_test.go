package startup

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gvillage/startupapp/internal/conf"
	"github.com/gvillage/startupapp/internal/platform"
)

var demoEntryPoint = EntryPoint{Package: "demo", Module: "dump", Class: "App"}

const demoConfig = `{"umpkg": "demo", "umname": "dump", "umclass": "App"}`

type fakeFacts struct {
	facts conf.ConfigMap
	err   error
}

func (f fakeFacts) Collect() (conf.ConfigMap, []*platform.PartialFactError, error) {
	return f.facts, nil, f.err
}

func linuxFacts() fakeFacts {
	return fakeFacts{facts: conf.NewConfigMap(
		conf.ConfigEntry{Key: conf.KeyUserName, Value: "Jane", Origin: conf.Platform},
		conf.ConfigEntry{Key: conf.KeyPlatformID, Value: "linux", Origin: conf.Platform},
	)}
}

// runner implements only Application.
type runner struct {
	code  int
	err   error
	panic any
	calls *[]string
}

func (r *runner) Run(ctx context.Context, cfg conf.ConfigMap) (int, error) {
	*r.calls = append(*r.calls, "run")
	if r.panic != nil {
		panic(r.panic)
	}
	return r.code, r.err
}

// lifecycle implements Application, Starter and Stopper.
type lifecycle struct {
	runner
	startup  int
	shutdown int
}

func (l *lifecycle) Startup(ctx context.Context, cfg conf.ConfigMap) (int, error) {
	*l.calls = append(*l.calls, "startup")
	return l.startup, nil
}

func (l *lifecycle) Shutdown(ctx context.Context) (int, error) {
	*l.calls = append(*l.calls, "shutdown")
	return l.shutdown, nil
}

type harness struct {
	dir     string
	stdout  bytes.Buffer
	stderr  bytes.Buffer
	notices []string
	opts    Options
}

func newHarness(t *testing.T, app Application) *harness {
	t.Helper()
	h := &harness{dir: t.TempDir()}
	reg := NewRegistry()
	if app != nil {
		reg.Register(demoEntryPoint, func() Application { return app })
	}
	h.opts = Options{
		ConfigDir: h.dir,
		Environ:   map[string]string{},
		Facts:     linuxFacts(),
		Registry:  reg,
		Stdout:    &h.stdout,
		Stderr:    &h.stderr,
		Notify:    func(state string) { h.notices = append(h.notices, state) },
	}
	return h
}

func (h *harness) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(h.dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func (h *harness) run(t *testing.T, argv ...string) (*Controller, int, error) {
	t.Helper()
	c := New(h.opts)
	code, err := c.Run(context.Background(), argv)
	return c, code, err
}

func TestRunApplication(t *testing.T) {
	type test struct {
		description string
		app         func(calls *[]string) Application
		config      string
		wantCode    int
		wantErr     bool
		wantState   State
		wantCalls   []string
	}

	tests := []test{
		{
			description: "run only",
			app:         func(calls *[]string) Application { return &runner{calls: calls} },
			wantState:   Done,
			wantCalls:   []string{"run"},
		},
		{
			description: "positive run code passed through",
			app:         func(calls *[]string) Application { return &runner{code: 7, calls: calls} },
			wantCode:    7,
			wantState:   Done,
			wantCalls:   []string{"run"},
		},
		{
			description: "full lifecycle",
			app: func(calls *[]string) Application {
				return &lifecycle{runner: runner{calls: calls}}
			},
			wantState: Done,
			wantCalls: []string{"startup", "run", "shutdown"},
		},
		{
			description: "startup failure skips run and shutdown",
			app: func(calls *[]string) Application {
				return &lifecycle{runner: runner{calls: calls}, startup: 1}
			},
			wantCode:  1,
			wantState: Failed,
			wantCalls: []string{"startup"},
		},
		{
			description: "shutdown code above run code",
			app: func(calls *[]string) Application {
				return &lifecycle{runner: runner{code: 3, calls: calls}, shutdown: 5}
			},
			wantCode:  5,
			wantState: Done,
			wantCalls: []string{"startup", "run", "shutdown"},
		},
		{
			description: "run code above shutdown code",
			app: func(calls *[]string) Application {
				return &lifecycle{runner: runner{code: 4, calls: calls}, shutdown: 1}
			},
			wantCode:  4,
			wantState: Done,
			wantCalls: []string{"startup", "run", "shutdown"},
		},
		{
			description: "interrupt is a clean stop",
			app: func(calls *[]string) Application {
				return &lifecycle{runner: runner{err: ErrInterrupted, calls: calls}}
			},
			wantState: Done,
			wantCalls: []string{"startup", "run"},
		},
		{
			description: "wrapped interrupt",
			app: func(calls *[]string) Application {
				return &runner{err: errors.Join(errors.New("stopping"), ErrInterrupted), calls: calls}
			},
			wantState: Done,
			wantCalls: []string{"run"},
		},
		{
			description: "application error",
			app: func(calls *[]string) Application {
				return &lifecycle{runner: runner{err: errors.New("boom"), calls: calls}}
			},
			wantCode:  ExitApplication,
			wantState: Failed,
			wantCalls: []string{"startup", "run"},
		},
		{
			description: "application error with debug",
			app: func(calls *[]string) Application {
				return &runner{err: errors.New("boom"), calls: calls}
			},
			config:    `{"umpkg": "demo", "umname": "dump", "umclass": "App", "debug": true}`,
			wantCode:  ExitApplication,
			wantErr:   true,
			wantState: Failed,
			wantCalls: []string{"run"},
		},
		{
			description: "application panic",
			app: func(calls *[]string) Application {
				return &runner{panic: "bad state", calls: calls}
			},
			wantCode:  ExitApplication,
			wantState: Failed,
			wantCalls: []string{"run"},
		},
		{
			description: "negative code",
			app:         func(calls *[]string) Application { return &runner{code: -1, calls: calls} },
			wantCode:    ExitApplication,
			wantState:   Done,
			wantCalls:   []string{"run"},
		},
	}

	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			var calls []string
			h := newHarness(t, test.app(&calls))
			config := test.config
			if config == "" {
				config = demoConfig
			}
			h.write(t, "user.json", config)

			c, code, err := h.run(t)

			if test.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
			} else if err != nil {
				t.Fatal(err)
			}
			if code != test.wantCode {
				t.Errorf("exit code: want %d, got %d", test.wantCode, code)
			}
			if c.State() != test.wantState {
				t.Errorf("state: want %v, got %v", test.wantState, c.State())
			}
			if diff := cmp.Diff(test.wantCalls, calls); diff != "" {
				t.Errorf("calls mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRunStates(t *testing.T) {
	var calls []string
	h := newHarness(t, &lifecycle{runner: runner{calls: &calls}})
	h.write(t, "user.json", demoConfig)

	c, _, err := h.run(t)
	if err != nil {
		t.Fatal(err)
	}

	want := []State{Init, ConfigResolved, LoggingReady, PlatformValidated, ApplicationLoaded, Running, ShuttingDown, Done}
	if diff := cmp.Diff(want, c.History()); diff != "" {
		t.Errorf("History() mismatch (-want +got):\n%s", diff)
	}
	wantNotices := []string{"READY=1", "STOPPING=1"}
	if diff := cmp.Diff(wantNotices, h.notices); diff != "" {
		t.Errorf("notices mismatch (-want +got):\n%s", diff)
	}
}

func TestRunPanicWithDebug(t *testing.T) {
	var calls []string
	h := newHarness(t, &runner{panic: "bad state", calls: &calls})
	h.write(t, "user.json", demoConfig)

	defer func() {
		if r := recover(); r != "bad state" {
			t.Errorf("want re-raised panic %q, got %v", "bad state", r)
		}
	}()
	_, _, _ = h.run(t, "--debug")
	t.Error("expected a panic")
}

func TestRunSetupFailures(t *testing.T) {
	type test struct {
		description string
		facts       FactSource
		config      string
		argv        []string
		wantCode    int
		wantOutput  string
	}

	tests := []test{
		{
			description: "unsupported platform id",
			facts: fakeFacts{facts: conf.NewConfigMap(
				conf.ConfigEntry{Key: conf.KeyPlatformID, Value: "plan9", Origin: conf.Platform},
			)},
			config:     demoConfig,
			wantCode:   ExitSetup,
			wantOutput: "operating system plan9 is not supported",
		},
		{
			description: "no fact routine",
			facts:       fakeFacts{err: &platform.UnsupportedError{GOOS: "plan9"}},
			config:      demoConfig,
			wantCode:    ExitSetup,
			wantOutput:  `operating system "plan9" is not supported`,
		},
		{
			description: "entry point not configured",
			config:      `{"umpkg": "demo"}`,
			wantCode:    ExitSetup,
			wantOutput:  "missing umname, umclass",
		},
		{
			description: "entry point not registered",
			config:      `{"umpkg": "demo", "umname": "dump", "umclass": "Other"}`,
			wantCode:    ExitSetup,
			wantOutput:  "demo/dump.Other is not registered",
		},
		{
			description: "noconfig ignores files",
			config:      demoConfig,
			argv:        []string{"--noconfig"},
			wantCode:    ExitSetup,
			wantOutput:  "missing umpkg, umname, umclass",
		},
		{
			description: "unknown argument",
			config:      demoConfig,
			argv:        []string{"--bogus"},
			wantCode:    ExitApplication,
			wantOutput:  "startupapp - unknown argument --bogus\n             for help use the --help application command line flag\n",
		},
		{
			description: "verbosity out of range",
			config:      demoConfig,
			argv:        []string{"-vvvv"},
			wantCode:    ExitApplication,
			wantOutput:  "verbose is 4, must be between 0 and 3",
		},
	}

	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			var calls []string
			h := newHarness(t, &runner{calls: &calls})
			if test.facts != nil {
				h.opts.Facts = test.facts
			}
			h.write(t, "user.json", test.config)

			c, code, err := h.run(t, test.argv...)
			if err != nil {
				t.Fatal(err)
			}
			if code != test.wantCode {
				t.Errorf("exit code: want %d, got %d", test.wantCode, code)
			}
			if c.State() != Failed {
				t.Errorf("state: want %v, got %v", Failed, c.State())
			}
			if len(calls) != 0 {
				t.Errorf("application called: %v", calls)
			}
			if !strings.Contains(h.stderr.String(), test.wantOutput) {
				t.Errorf("stderr %q does not contain %q", h.stderr.String(), test.wantOutput)
			}
		})
	}
}

func TestRunVersionAndHelp(t *testing.T) {
	type test struct {
		description string
		program     Program
		argv        []string
		wantOutput  string
	}

	tests := []test{
		{
			description: "embedded version",
			argv:        []string{"--version"},
			wantOutput:  "startupapp 0.1.0\n",
		},
		{
			description: "program version",
			program:     Program{Name: "demo", Version: "2.0"},
			argv:        []string{"-V"},
			wantOutput:  "demo 2.0\n",
		},
		{
			description: "help",
			argv:        []string{"--help"},
			wantOutput:  "--verbose",
		},
	}

	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			var calls []string
			h := newHarness(t, &runner{calls: &calls})
			h.opts.Program = test.program

			c, code, err := h.run(t, test.argv...)
			if err != nil {
				t.Fatal(err)
			}
			if code != ExitOK {
				t.Errorf("exit code: want %d, got %d", ExitOK, code)
			}
			if c.State() != Done {
				t.Errorf("state: want %v, got %v", Done, c.State())
			}
			if len(calls) != 0 {
				t.Errorf("application called: %v", calls)
			}
			if !strings.Contains(h.stdout.String(), test.wantOutput) {
				t.Errorf("stdout %q does not contain %q", h.stdout.String(), test.wantOutput)
			}
		})
	}
}

func TestRunResolvedConfig(t *testing.T) {
	var calls []string
	h := newHarness(t, &runner{calls: &calls})
	h.write(t, "user.json", demoConfig)
	extra := filepath.Join(t.TempDir(), "extra.toml")
	if err := os.WriteFile(extra, []byte("color = \"blue\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	h.opts.Environ = map[string]string{"STARTUPAPP_LOGSYS": "golog"}

	c, code, err := h.run(t, "-vv", "--config", extra, "input.txt")
	if err != nil {
		t.Fatal(err)
	}
	if code != ExitOK {
		t.Fatalf("exit code: want %d, got %d", ExitOK, code)
	}

	cfg := c.Config()
	type want struct {
		key    string
		value  any
		origin conf.SourceTag
	}
	for _, w := range []want{
		{conf.KeyVerbose, 2, conf.CommandLine},
		{conf.KeyLogSys, "golog", conf.Environment},
		{"color", "blue", conf.File(extra)},
		{conf.KeyEntryPackage, "demo", conf.File(filepath.Join(h.dir, "user.json"))},
		{conf.KeyUserName, "Jane", conf.Platform},
		{conf.KeyArgs, []string{"input.txt"}, conf.CommandLine},
	} {
		entry, ok := cfg.Get(w.key)
		if !ok {
			t.Errorf("%s: missing", w.key)
			continue
		}
		if !cmp.Equal(entry.Value, w.value) || entry.Origin != w.origin {
			t.Errorf("%s: want %v from %v, got %v from %v", w.key, w.value, w.origin, entry.Value, entry.Origin)
		}
	}
	if cfg.String(conf.KeyRunID) == "" {
		t.Error("runid not set")
	}
}

func TestRunConfigDirFromEnvironment(t *testing.T) {
	var calls []string
	h := newHarness(t, &runner{calls: &calls})
	h.write(t, "conf.d/10-app.yaml", "umpkg: demo\numname: dump\numclass: App\n")
	h.opts.Environ = map[string]string{"STARTUPAPP_CONFIG_DIR": h.dir}
	h.opts.ConfigDir = t.TempDir()

	_, code, err := h.run(t)
	if err != nil {
		t.Fatal(err)
	}
	if code != ExitOK {
		t.Errorf("exit code: want %d, got %d", ExitOK, code)
	}
	if !cmp.Equal(calls, []string{"run"}) {
		t.Errorf("application not run: %v", calls)
	}
}

func TestRunReportsBrokenFile(t *testing.T) {
	var calls []string
	h := newHarness(t, &runner{calls: &calls})
	h.write(t, "supplier.json", "{ not json")
	h.write(t, "user.json", demoConfig)

	_, code, err := h.run(t)
	if err != nil {
		t.Fatal(err)
	}
	if code != ExitOK {
		t.Errorf("exit code: want %d, got %d", ExitOK, code)
	}
	if !strings.Contains(h.stderr.String(), "supplier.json") {
		t.Errorf("stderr %q does not name the broken file", h.stderr.String())
	}
	if !strings.Contains(h.stderr.String(), "1 configuration file could not be loaded") {
		t.Errorf("stderr %q does not count the broken file", h.stderr.String())
	}
}

func TestRunReportsBrokenFileOnSetupFailure(t *testing.T) {
	var calls []string
	h := newHarness(t, &runner{calls: &calls})
	h.write(t, "supplier.json", "{ not json")
	h.write(t, "site.json", "[1, 2]")
	h.write(t, "user.json", demoConfig)

	c, code, err := h.run(t, "--bogus")
	if err != nil {
		t.Fatal(err)
	}
	if code != ExitApplication || c.State() != Failed {
		t.Fatalf("want exit %d in %v, got %d in %v", ExitApplication, Failed, code, c.State())
	}
	for _, want := range []string{"supplier.json", "site.json", "2 configuration files could not be loaded", "unknown argument --bogus"} {
		if !strings.Contains(h.stderr.String(), want) {
			t.Errorf("stderr %q does not contain %q", h.stderr.String(), want)
		}
	}
}

func TestRunHelpOperand(t *testing.T) {
	var calls []string
	h := newHarness(t, &runner{calls: &calls})
	h.write(t, "user.json", demoConfig)

	c, code, err := h.run(t, "help")
	if err != nil {
		t.Fatal(err)
	}
	if code != ExitOK {
		t.Errorf("exit code: want %d, got %d", ExitOK, code)
	}
	if diff := cmp.Diff([]string{"run"}, calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"help"}, c.Config().Strings(conf.KeyArgs)); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestRunLockAtDefaultValue(t *testing.T) {
	var calls []string
	h := newHarness(t, &runner{calls: &calls})
	h.write(t, "user.json", demoConfig)
	site := h.write(t, "site.json", `{"debug": false, "_final": ["debug"]}`)

	c, _, err := h.run(t, "-d")
	if err != nil {
		t.Fatal(err)
	}

	got, _ := c.Config().Get(conf.KeyDebug)
	want := conf.ConfigEntry{Key: conf.KeyDebug, Value: false, Origin: conf.File(site)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("debug entry mismatch (-want +got):\n%s", diff)
	}
}

func TestStateString(t *testing.T) {
	if got := ShuttingDown.String(); got != "shutting down" {
		t.Errorf("want %q, got %q", "shutting down", got)
	}
	if got := State(42).String(); got != "state(42)" {
		t.Errorf("want %q, got %q", "state(42)", got)
	}
	if !Failed.Terminal() || Running.Terminal() {
		t.Error("wrong terminal states")
	}
}
