// Package logging is the diagnostic façade used during startup.
//
// By default every line goes to standard error prefixed with the program
// name. The logsys configuration key selects an external system instead:
// "golog" for a leveled go-log logger, "journal" for the systemd journal.
// nologging forces direct writes whatever logsys says.
package logging
