package logging

import (
	"errors"

	"github.com/coreos/go-systemd/v22/journal"
)

// ErrJournalUnavailable is returned by Journal.Init when the systemd journal
// socket cannot be reached.
var ErrJournalUnavailable = errors.New("systemd journal is not available")

// Journal sends diagnostics to the systemd journal.
type Journal struct {
	// Identifier is recorded as SYSLOG_IDENTIFIER.
	Identifier string
}

func (j *Journal) Init() error {
	if !journal.Enabled() {
		return ErrJournalUnavailable
	}
	return nil
}

func (j *Journal) Log(level Level, msg string, err error) {
	vars := map[string]string{"SYSLOG_IDENTIFIER": j.Identifier}
	if err != nil {
		vars["ERROR"] = err.Error()
		msg = describe(msg, err)
	}
	_ = journal.Send(msg, priority(level), vars)
}

func priority(level Level) journal.Priority {
	switch level {
	case LevelError:
		return journal.PriErr
	case LevelWarn:
		return journal.PriWarning
	case LevelInfo:
		return journal.PriInfo
	default:
		return journal.PriDebug
	}
}
