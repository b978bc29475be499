package logging

import (
	"io"
	"os"

	"git.sr.ht/~spc/go-log"
)

// GoLog hands diagnostics to a leveled go-log logger.
type GoLog struct {
	Out     io.Writer
	Prefix  string
	Verbose int

	logger *log.Logger
}

// levelFor maps verbosity 0-3 to the go-log level that lets it through.
func levelFor(verbose int) log.Level {
	switch {
	case verbose <= 0:
		return log.LevelWarn
	case verbose == 1:
		return log.LevelInfo
	case verbose == 2:
		return log.LevelDebug
	default:
		return log.LevelTrace
	}
}

func (g *GoLog) Init() error {
	out := g.Out
	if out == nil {
		out = os.Stderr
	}
	g.logger = log.New(out, g.Prefix, 0, levelFor(g.Verbose))
	return nil
}

func (g *GoLog) Log(level Level, msg string, err error) {
	if g.logger == nil {
		return
	}
	switch level {
	case LevelError:
		g.logger.Error(describe(msg, err))
	case LevelWarn:
		g.logger.Warn(msg)
	case LevelInfo:
		g.logger.Info(msg)
	default:
		g.logger.Debug(msg)
	}
}

// describe joins msg and err the way the direct writer does.
func describe(msg string, err error) string {
	switch {
	case err == nil:
		return msg
	case msg == "":
		return err.Error()
	default:
		return msg + ": " + err.Error()
	}
}
