package args

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/gvillage/startupapp/internal/conf"
)

// undefinedFlag is the prefix of the flag package's error for unknown flags.
const undefinedFlag = "flag provided but not defined: "

// Resolver turns command-line arguments into configuration entries.
type Resolver struct {
	// Name and Usage appear in the help text.
	Name  string
	Usage string
	Specs []Spec
	// Writer receives help output. Defaults to os.Stdout.
	Writer io.Writer
}

// Parse resolves argv (without the program name) against specs. See
// Resolver.Parse.
func Parse(argv []string, specs []Spec, defaults conf.ConfigMap) (conf.ConfigMap, error) {
	r := &Resolver{Specs: specs, Writer: io.Discard}
	return r.Parse(argv, defaults)
}

// Parse resolves argv (without the program name). The result holds one
// entry per spec: values given on the command line are tagged
// conf.CommandLine. The others come from defaults, keeping their origin,
// or else from the spec, tagged conf.Default. Positional arguments are
// stored under conf.KeyArgs, "help" included.
//
// Each option must be given in one form: "-v -v" counts two, "-v --verbose"
// is a *SyntaxError.
//
// An unknown flag yields *UnknownArgumentError, a bounded value out of range
// *RangeError, any other malformed input *SyntaxError. When help was
// requested the usage is written and ErrHelp returned.
func (r *Resolver) Parse(argv []string, defaults conf.ConfigMap) (conf.ConfigMap, error) {
	counts := make(map[string]*int)
	flags := make([]cli.Flag, 0, len(r.Specs))
	for _, s := range r.Specs {
		switch s.Kind {
		case Bool:
			flags = append(flags, &cli.BoolFlag{Name: s.name(), Aliases: s.aliases(), Usage: s.Usage})
		case Count:
			n := new(int)
			counts[s.Key] = n
			flags = append(flags, &cli.BoolFlag{Name: s.name(), Aliases: s.aliases(), Usage: s.Usage, Count: n})
		case String:
			flags = append(flags, &cli.StringFlag{Name: s.name(), Aliases: s.aliases(), Usage: s.Usage})
		case Int:
			flags = append(flags, &cli.IntFlag{Name: s.name(), Aliases: s.aliases(), Usage: s.Usage})
		case Strings:
			flags = append(flags, &cli.StringSliceFlag{Name: s.name(), Aliases: s.aliases(), Usage: s.Usage})
		default:
			return conf.ConfigMap{}, fmt.Errorf("option %s has unknown kind %d", s.Key, s.Kind)
		}
	}

	var (
		result conf.ConfigMap
		ran    bool
	)
	app := &cli.App{
		Name:                   r.name(),
		Usage:                  r.Usage,
		Flags:                  flags,
		HideVersion:            true,
		HideHelpCommand:        true,
		UseShortOptionHandling: true,
		Writer:                 r.writer(),
		ErrWriter:              io.Discard,
		ExitErrHandler:         func(*cli.Context, error) {},
		OnUsageError: func(_ *cli.Context, err error, _ bool) error {
			if token, ok := strings.CutPrefix(err.Error(), undefinedFlag); ok {
				return &UnknownArgumentError{Token: offending(argv, token)}
			}
			return &SyntaxError{Err: err}
		},
		Action: func(c *cli.Context) error {
			ran = true
			m, err := r.collect(c, counts, defaults)
			result = m
			return err
		},
	}

	if err := app.Run(append([]string{r.name()}, argv...)); err != nil {
		return conf.ConfigMap{}, err
	}
	if !ran {
		return conf.ConfigMap{}, ErrHelp
	}
	return result, nil
}

func (r *Resolver) collect(c *cli.Context, counts map[string]*int, defaults conf.ConfigMap) (conf.ConfigMap, error) {
	var m conf.ConfigMap
	for _, s := range r.Specs {
		name := s.name()
		origin := conf.CommandLine

		var value any
		if c.IsSet(name) {
			switch s.Kind {
			case Bool:
				value = c.Bool(name)
			case Count:
				value = *counts[s.Key]
			case String:
				value = c.String(name)
			case Int:
				value = c.Int(name)
			case Strings:
				value = c.StringSlice(name)
			}
		} else {
			v, from, err := r.fallback(s, defaults)
			if err != nil {
				return conf.ConfigMap{}, err
			}
			value, origin = v, from
		}

		if s.bounded() {
			if n := value.(int); n < s.Min || n > s.Max {
				return conf.ConfigMap{}, &RangeError{Key: s.Key, Value: n, Min: s.Min, Max: s.Max}
			}
		}

		m.Set(conf.ConfigEntry{Key: s.Key, Value: value, Origin: origin, Overridable: true})
	}

	positional := c.Args().Slice()
	if positional == nil {
		positional = []string{}
	}
	m.Set(conf.ConfigEntry{Key: conf.KeyArgs, Value: positional, Origin: conf.CommandLine, Overridable: true})
	return m, nil
}

// fallback picks the value of an option absent from the command line and
// the origin it is reported with.
func (r *Resolver) fallback(s Spec, defaults conf.ConfigMap) (any, conf.SourceTag, error) {
	var (
		v      any
		ok     bool
		origin = conf.Default
	)
	if entry, found := defaults.Get(s.Key); found && entry.Value != nil {
		v, ok, origin = entry.Value, true, entry.Origin
	} else if s.Default != nil {
		v, ok = s.Default, true
	}
	if !ok {
		if s.Required {
			return nil, origin, &SyntaxError{Err: errors.New("missing required option --" + s.name())}
		}
		return s.zero(), origin, nil
	}
	coerced, err := s.coerce(v)
	if err != nil {
		return nil, origin, &SyntaxError{Err: err}
	}
	return coerced, origin, nil
}

// offending finds the argument the flag package complained about. The flag
// package reports every flag with a single dash, so "--bogus=1" comes back
// as "-bogus".
func offending(argv []string, reported string) string {
	name := strings.TrimLeft(reported, "-")
	for _, arg := range argv {
		if arg == "--" {
			break
		}
		flag, _, _ := strings.Cut(arg, "=")
		if strings.HasPrefix(flag, "-") && strings.TrimLeft(flag, "-") == name {
			return arg
		}
	}
	return reported
}

func (r *Resolver) name() string {
	if r.Name != "" {
		return r.Name
	}
	return "startupapp"
}

func (r *Resolver) writer() io.Writer {
	if r.Writer != nil {
		return r.Writer
	}
	return os.Stdout
}
