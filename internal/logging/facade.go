package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/gvillage/startupapp/internal/conf"
	"github.com/gvillage/startupapp/internal/l10n"
)

// Level orders diagnostics by severity.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarn:
		return "warning"
	case LevelInfo:
		return "info"
	default:
		return "debug"
	}
}

// Logger is an external logging system the façade can hand diagnostics to.
type Logger interface {
	// Init prepares the logger. A logger whose Init fails is not used.
	Init() error
	// Log records one diagnostic. err may be nil.
	Log(level Level, msg string, err error)
}

// Facade writes diagnostics either to a stream, prefixed with the program
// name, or to an external Logger. It never fails: problems writing
// diagnostics are ignored.
type Facade struct {
	// Name prefixes every line written directly.
	Name string
	// Out receives direct writes.
	Out io.Writer
	// Logger, when set, receives everything and Out is not written.
	Logger Logger
	// Verbose is the configured verbosity, 0 to 3. Direct writes of info
	// messages need 1, debug messages 2.
	Verbose int
}

// New builds the façade described by cfg. Diagnostics go directly to out
// unless cfg names a logging system in logsys and nologging is false. A
// logging system that is unknown or fails to initialize is reported on out
// and replaced by direct writes.
func New(cfg conf.ConfigMap, out io.Writer) *Facade {
	verbose, _ := cfg.Int(conf.KeyVerbose)
	f := &Facade{
		Name:    cfg.String(conf.KeyProgramName),
		Out:     out,
		Verbose: verbose,
	}
	if cfg.Bool(conf.KeyNoLogging) {
		return f
	}

	var logger Logger
	switch system := cfg.String(conf.KeyLogSys); system {
	case "":
		return f
	case "golog":
		logger = &GoLog{Out: out, Prefix: f.Name + ": ", Verbose: verbose}
	case "journal":
		logger = &Journal{Identifier: f.Name}
	default:
		f.Emit(l10n.T("unknown logging system %q, writing to standard error", system), nil)
		return f
	}

	if err := logger.Init(); err != nil {
		f.Emit(l10n.T("logging system unavailable, writing to standard error"), err)
		return f
	}
	f.Logger = logger
	return f
}

// Emit records msg and, when err is not nil, the failure. Without an
// external logger a failure is followed by a hint to consult --help.
// Emit ignores the verbosity.
func (f *Facade) Emit(msg string, err error) {
	level := LevelInfo
	if err != nil {
		level = LevelError
	}
	f.log(level, msg, err)
}

// Errorf records an error message.
func (f *Facade) Errorf(format string, args ...any) {
	f.log(LevelError, fmt.Sprintf(format, args...), nil)
}

// Warnf records a warning.
func (f *Facade) Warnf(format string, args ...any) {
	f.log(LevelWarn, fmt.Sprintf(format, args...), nil)
}

// Infof records an informational message, written directly from verbosity 1.
func (f *Facade) Infof(format string, args ...any) {
	if f.Logger == nil && f.Verbose < 1 {
		return
	}
	f.log(LevelInfo, fmt.Sprintf(format, args...), nil)
}

// Debugf records a debugging message, written directly from verbosity 2.
func (f *Facade) Debugf(format string, args ...any) {
	if f.Logger == nil && f.Verbose < 2 {
		return
	}
	f.log(LevelDebug, fmt.Sprintf(format, args...), nil)
}

func (f *Facade) log(level Level, msg string, err error) {
	defer func() {
		_ = recover()
	}()

	if f.Logger != nil {
		f.Logger.Log(level, msg, err)
		return
	}
	if f.Out == nil {
		return
	}

	switch {
	case err == nil:
		fmt.Fprintf(f.Out, "%s - %s\n", f.Name, msg)
	case msg == "":
		fmt.Fprintf(f.Out, "%s - %v\n", f.Name, err)
	default:
		fmt.Fprintf(f.Out, "%s - %s: %v\n", f.Name, msg, err)
	}
	if err != nil {
		indent := strings.Repeat(" ", len(f.Name)+3)
		fmt.Fprintf(f.Out, "%s%s\n", indent, l10n.T("for help use the --help application command line flag"))
	}
}
