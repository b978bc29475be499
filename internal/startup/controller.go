package startup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"time"

	"dario.cat/mergo"
	"github.com/briandowns/spinner"
	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/google/uuid"

	"github.com/gvillage/startupapp/internal/args"
	"github.com/gvillage/startupapp/internal/conf"
	"github.com/gvillage/startupapp/internal/l10n"
	"github.com/gvillage/startupapp/internal/logging"
	"github.com/gvillage/startupapp/internal/platform"
)

// defaultName is used in diagnostics written before the configuration names
// the program.
const defaultName = "startupapp"

// FactSource collects the platform facts layer.
type FactSource interface {
	Collect() (conf.ConfigMap, []*platform.PartialFactError, error)
}

// Program describes the program being started.
type Program struct {
	// Name overrides the pname of the embedded defaults.
	Name string
	// Version overrides the version of the embedded defaults.
	Version string
	// Usage is the one-line description shown by --help.
	Usage string
	// Platform is the only plid the program runs on. Defaults to "linux".
	Platform string
}

func defaultProgram() Program {
	return Program{
		Usage:    l10n.T("layered configuration bootstrapper"),
		Platform: "linux",
	}
}

// Options configure a Controller. The zero value is usable.
type Options struct {
	Program Program
	// ConfigDir is the configuration root, used unless the configdir key is
	// set. Defaults to conf.DefaultDir().
	ConfigDir string
	// Environ replaces the process environment when not nil.
	Environ map[string]string
	// Facts defaults to a platform.Provider for the running system.
	Facts FactSource
	// Registry holds the applications that can be started.
	Registry *Registry
	// Specs are application options accepted in addition to
	// args.StandardSpecs.
	Specs []args.Spec
	// Stdout receives help and version output. Defaults to os.Stdout.
	Stdout io.Writer
	// Stderr receives diagnostics. Defaults to os.Stderr.
	Stderr io.Writer
	// Progress shows a spinner on Stderr while the configuration resolves.
	Progress bool
	// Notify reports state changes to the service manager. Defaults to
	// sd_notify.
	Notify func(state string)
}

// Controller drives the startup sequence of one invocation.
type Controller struct {
	opts    Options
	state   State
	history []State
	cfg     conf.ConfigMap
	log     *logging.Facade

	// Diagnostics gathered before logging is configured.
	warnings     []string
	loadFailures int
	notes        []conf.ConflictNote
}

// New returns a controller in the Init state.
func New(opts Options) *Controller {
	if err := mergo.Merge(&opts.Program, defaultProgram()); err != nil {
		slog.Error("cannot apply program defaults", "error", err)
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Notify == nil {
		opts.Notify = func(state string) {
			_, _ = daemon.SdNotify(false, state)
		}
	}
	c := &Controller{opts: opts}
	if c.opts.Facts == nil {
		c.opts.Facts = &platform.Provider{Warnf: c.warnf}
	}
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// History returns every state entered, in order.
func (c *Controller) History() []State {
	return append([]State(nil), c.history...)
}

// Config returns the resolved configuration. It is empty until the
// ConfigResolved state.
func (c *Controller) Config() conf.ConfigMap {
	return c.cfg
}

// Run resolves the configuration from argv (without the program name),
// configures logging, validates the platform and runs the configured
// application. It returns the process exit code.
//
// Failures are logged and turned into an exit code. Run returns a non-nil
// error only for an application failure while debug or testrun is set; an
// application panic is then re-raised.
func (c *Controller) Run(ctx context.Context, argv []string) (int, error) {
	c.enter(Init)
	c.log = &logging.Facade{Name: c.opts.Program.Name, Out: c.opts.Stderr}
	if c.log.Name == "" {
		c.log.Name = defaultName
	}

	stop := c.progress()
	cfg, err := c.resolve(argv)
	stop()
	if err != nil {
		if errors.Is(err, args.ErrHelp) {
			c.enter(Done)
			return ExitOK, nil
		}
		return c.fail(setupCode(err), err)
	}
	c.cfg = cfg
	c.enter(ConfigResolved)

	if cfg.Bool(args.ShowVersionKey) {
		fmt.Fprintf(c.opts.Stdout, "%s %s\n", cfg.String(conf.KeyProgramName), cfg.String(conf.KeyVersion))
		c.enter(Done)
		return ExitOK, nil
	}

	c.log = logging.New(cfg, c.opts.Stderr)
	c.enter(LoggingReady)
	c.report()

	if id := cfg.String(conf.KeyPlatformID); id != c.opts.Program.Platform {
		return c.fail(ExitSetup, &UnsupportedPlatformError{ID: id, Supported: c.opts.Program.Platform})
	}
	c.enter(PlatformValidated)

	app, err := c.opts.Registry.Resolve(cfg)
	if err != nil {
		return c.fail(ExitSetup, err)
	}
	c.enter(ApplicationLoaded)

	return c.run(ctx, app, cfg)
}

// resolve gathers every layer and merges them. Files are skipped when
// noconfig is set by the environment or on the command line.
func (c *Controller) resolve(argv []string) (conf.ConfigMap, error) {
	defaults, err := conf.DefaultLayer()
	if err != nil {
		return conf.ConfigMap{}, err
	}
	facts, partial, err := c.opts.Facts.Collect()
	if err != nil {
		return conf.ConfigMap{}, err
	}
	for _, p := range partial {
		c.warnf("%v", p)
	}
	environment, err := conf.EnvironmentLayer(c.opts.Environ)
	if err != nil {
		return conf.ConfigMap{}, err
	}

	base := []conf.ConfigMap{defaults, c.programLayer(), facts}
	stack := func(files []conf.ConfigMap, top ...conf.ConfigMap) []conf.ConfigMap {
		layers := append([]conf.ConfigMap(nil), base...)
		layers = append(layers, files...)
		return append(layers, top...)
	}

	early, _ := conf.Merge(stack(nil, environment)...)
	noconfig := early.Bool(conf.KeyNoConfig)

	var files []conf.ConfigMap
	if !noconfig {
		files = c.readFiles(early)
	}

	pre, _ := conf.Merge(stack(files, environment)...)
	cmdline, err := c.parse(argv, pre)
	if err != nil {
		return conf.ConfigMap{}, err
	}
	if !noconfig && cmdline.Bool(conf.KeyNoConfig) {
		noconfig = true
		files = nil
		pre, _ = conf.Merge(stack(nil, environment)...)
		if cmdline, err = c.parse(argv, pre); err != nil {
			return conf.ConfigMap{}, err
		}
	}

	if path := cmdline.String(conf.KeyCmdFile); path != "" && !noconfig {
		layer, err := conf.LoadFile(path)
		if err != nil {
			c.loadFailures++
			c.warnf("%v", conf.LoadError{Path: path, Err: err})
		} else {
			files = append(files, layer)
		}
	}

	cfg, notes := conf.Merge(stack(files, environment, cmdline)...)
	c.notes = notes
	return cfg, nil
}

// programLayer holds the values set by the program itself rather than by a
// file.
func (c *Controller) programLayer() conf.ConfigMap {
	var m conf.ConfigMap
	set := func(key string, value any) {
		m.Set(conf.ConfigEntry{Key: key, Value: value, Origin: conf.Default, Overridable: true})
	}
	if c.opts.Program.Name != "" {
		set(conf.KeyProgramName, c.opts.Program.Name)
	}
	if c.opts.Program.Version != "" {
		set(conf.KeyVersion, c.opts.Program.Version)
	}
	set(conf.KeyRunID, uuid.New().String())
	return m
}

func (c *Controller) readFiles(cfg conf.ConfigMap) []conf.ConfigMap {
	dir := cfg.String(conf.KeyConfigDir)
	if dir == "" {
		dir = c.opts.ConfigDir
	}
	if dir == "" {
		dir = conf.DefaultDir()
	}
	layers, errs := conf.NewConfigSource(dir).Read()
	c.loadFailures += len(errs)
	for _, err := range errs {
		c.warnf("%v", err)
	}
	return layers
}

func (c *Controller) parse(argv []string, defaults conf.ConfigMap) (conf.ConfigMap, error) {
	if defaults.Bool(conf.KeyNoArgs) {
		return conf.ConfigMap{}, nil
	}
	r := &args.Resolver{
		Name:   defaults.String(conf.KeyProgramName),
		Usage:  c.opts.Program.Usage,
		Specs:  append(args.StandardSpecs(), c.opts.Specs...),
		Writer: c.opts.Stdout,
	}
	return r.Parse(argv, defaults)
}

// report hands the diagnostics gathered while resolving to the configured
// façade.
func (c *Controller) report() {
	c.flush()
	for _, n := range c.notes {
		c.log.Debugf("%s", n)
	}
	c.log.Infof("%s", l10n.T("configuration resolved, %d entries", c.cfg.Len()))
}

// run drives the application through Running and ShuttingDown. The first
// interrupt cancels ctx; a second one gets the default handling.
func (c *Controller) run(parent context.Context, app Application, cfg conf.ConfigMap) (int, error) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()
	context.AfterFunc(ctx, stop)
	interrupted := func(err error) bool {
		if errors.Is(err, ErrInterrupted) {
			return true
		}
		return errors.Is(err, context.Canceled) && ctx.Err() != nil && parent.Err() == nil
	}

	c.enter(Running)
	c.opts.Notify(daemon.SdNotifyReady)

	if s, ok := app.(Starter); ok {
		code, err := call(func() (int, error) { return s.Startup(ctx, cfg) })
		if err != nil {
			return c.abort(cfg, err, interrupted(err))
		}
		if code = c.exitCode(code); code > 0 {
			c.log.Errorf("%s", l10n.T("application startup failed with code %d", code))
			c.enter(Failed)
			return code, nil
		}
	}

	code, err := call(func() (int, error) { return app.Run(ctx, cfg) })
	if err != nil {
		return c.abort(cfg, err, interrupted(err))
	}
	code = c.exitCode(code)

	c.enter(ShuttingDown)
	c.opts.Notify(daemon.SdNotifyStopping)
	if s, ok := app.(Stopper); ok {
		down, err := call(func() (int, error) { return s.Shutdown(context.WithoutCancel(ctx)) })
		if err != nil {
			return c.abort(cfg, err, false)
		}
		code = max(code, c.exitCode(down))
	}
	c.enter(Done)
	return code, nil
}

// abort ends a run that stopped with err. An interruption is a clean stop.
func (c *Controller) abort(cfg conf.ConfigMap, err error, interrupted bool) (int, error) {
	if interrupted {
		c.log.Infof("%s", l10n.T("interrupted"))
		c.enter(ShuttingDown)
		c.opts.Notify(daemon.SdNotifyStopping)
		c.enter(Done)
		return ExitOK, nil
	}

	c.enter(Failed)
	c.log.Emit(l10n.T("application failed"), err)
	if !cfg.Bool(conf.KeyDebug) && !cfg.Bool(conf.KeyTestRun) {
		return ExitApplication, nil
	}
	var p *PanicError
	if errors.As(err, &p) {
		panic(p.Value)
	}
	return ExitApplication, err
}

// exitCode maps a negative application code to ExitApplication.
func (c *Controller) exitCode(code int) int {
	if code < 0 {
		c.log.Warnf("%s", l10n.T("application returned invalid exit code %d", code))
		return ExitApplication
	}
	return code
}

// fail ends the sequence before the application runs.
func (c *Controller) fail(code int, err error) (int, error) {
	c.enter(Failed)
	c.flush()
	c.log.Emit("", err)
	return code, nil
}

// flush writes the pending warnings once.
func (c *Controller) flush() {
	for _, w := range c.warnings {
		c.log.Warnf("%s", w)
	}
	if n := c.loadFailures; n > 0 {
		c.log.Warnf("%s", l10n.TN("%d configuration file could not be loaded",
			"%d configuration files could not be loaded", uint32(n), n))
	}
	c.warnings, c.loadFailures = nil, 0
}

func (c *Controller) enter(s State) {
	c.state = s
	c.history = append(c.history, s)
	slog.Debug("startup state", "state", s.String())
}

// warnf keeps a warning until logging is configured.
func (c *Controller) warnf(format string, a ...any) {
	c.warnings = append(c.warnings, fmt.Sprintf(format, a...))
}

func (c *Controller) progress() func() {
	if !c.opts.Progress {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond,
		spinner.WithWriter(c.opts.Stderr),
		spinner.WithSuffix(" "+l10n.T("resolving configuration")))
	s.Start()
	return s.Stop
}

// setupCode is the exit code of a failure while resolving the
// configuration.
func setupCode(err error) int {
	var (
		unknown *args.UnknownArgumentError
		bounds  *args.RangeError
		syntax  *args.SyntaxError
	)
	if errors.As(err, &unknown) || errors.As(err, &bounds) || errors.As(err, &syntax) {
		return ExitApplication
	}
	return ExitSetup
}

// call runs f, turning a panic into *PanicError.
func call(f func() (int, error)) (code int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return f()
}
