package startup

import "strconv"

// State is a stage of the startup sequence.
type State int

const (
	Init State = iota
	ConfigResolved
	LoggingReady
	PlatformValidated
	ApplicationLoaded
	Running
	ShuttingDown
	Done
	Failed
)

var stateNames = [...]string{
	Init:              "init",
	ConfigResolved:    "config resolved",
	LoggingReady:      "logging ready",
	PlatformValidated: "platform validated",
	ApplicationLoaded: "application loaded",
	Running:           "running",
	ShuttingDown:      "shutting down",
	Done:              "done",
	Failed:            "failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "state(" + strconv.Itoa(int(s)) + ")"
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == Done || s == Failed
}
