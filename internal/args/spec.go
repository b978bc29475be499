package args

import (
	"fmt"
	"strconv"

	"github.com/gvillage/startupapp/internal/conf"
)

// Kind is the type of value an option carries.
type Kind int

const (
	// Bool is a switch without a value.
	Bool Kind = iota
	// Count is a switch whose value is the number of times it was given.
	Count
	// String takes one value.
	String
	// Int takes one integer value.
	Int
	// Strings may be repeated; every value is kept.
	Strings
)

// MaxVerbose is the highest accepted verbosity level.
const MaxVerbose = 3

// ShowVersionKey is set when --version was requested.
const ShowVersionKey = "showversion"

// Spec describes one command-line option and the configuration key it
// resolves to.
type Spec struct {
	// Key is the configuration key. It is also the long form unless Long is
	// set.
	Key   string
	Short string
	Long  string
	Kind  Kind
	// Default is used when neither the command line nor the configuration
	// supplies a value.
	Default any
	// Min and Max bound Count and Int values, inclusively. Bounds apply when
	// Max > Min.
	Min, Max int
	Required bool
	Usage    string
}

func (s Spec) name() string {
	if s.Long != "" {
		return s.Long
	}
	return s.Key
}

func (s Spec) aliases() []string {
	if s.Short == "" {
		return nil
	}
	return []string{s.Short}
}

func (s Spec) bounded() bool {
	return (s.Kind == Count || s.Kind == Int) && s.Max > s.Min
}

// zero is the value of an option nobody set.
func (s Spec) zero() any {
	switch s.Kind {
	case Bool:
		return false
	case Count, Int:
		return 0
	case Strings:
		return []string{}
	default:
		return ""
	}
}

// coerce converts a configuration value to the option's type.
func (s Spec) coerce(v any) (any, error) {
	switch s.Kind {
	case Bool:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			return strconv.ParseBool(b)
		}
	case Count, Int:
		m := conf.NewConfigMap(conf.ConfigEntry{Key: s.Key, Value: v})
		if n, ok := m.Int(s.Key); ok {
			return n, nil
		}
	case String:
		if str, ok := v.(string); ok {
			return str, nil
		}
		return fmt.Sprint(v), nil
	case Strings:
		m := conf.NewConfigMap(conf.ConfigEntry{Key: s.Key, Value: v})
		if list := m.Strings(s.Key); list != nil {
			return list, nil
		}
	}
	return nil, fmt.Errorf("cannot use %v (%T) as value for --%s", v, v, s.name())
}

// StandardSpecs returns the options every program accepts.
func StandardSpecs() []Spec {
	return []Spec{
		{
			Key:   conf.KeyVerbose,
			Short: "v",
			Kind:  Count,
			Max:   MaxVerbose,
			Usage: "increase verbosity, up to three times",
		},
		{
			Key:   ShowVersionKey,
			Short: "V",
			Long:  "version",
			Kind:  Bool,
			Usage: "print the version and exit",
		},
		{
			Key:   conf.KeyCmdFile,
			Short: "c",
			Long:  "config",
			Kind:  String,
			Usage: "load `FILE` on top of the configuration hierarchy",
		},
		{
			Key:   conf.KeyDebug,
			Short: "d",
			Kind:  Bool,
			Usage: "let application failures propagate",
		},
		{
			Key:   conf.KeyTestRun,
			Kind:  Bool,
			Usage: "run in test mode; application failures propagate",
		},
		{
			Key:   conf.KeyNoLogging,
			Kind:  Bool,
			Usage: "write diagnostics to standard error only",
		},
		{
			Key:   conf.KeyNoConfig,
			Kind:  Bool,
			Usage: "ignore configuration files",
		},
	}
}
