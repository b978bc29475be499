package conf

// Well-known configuration keys. Applications are free to define their own;
// these are the ones the bootstrapper itself reads or writes.
const (
	// Platform facts.
	KeyUserID       = "userid"
	KeyUserName     = "username"
	KeyUID          = "uid"
	KeyGID          = "gid"
	KeyHome         = "home"
	KeyComputerName = "computer_name"
	KeyPlatformID   = "plid"
	KeyOSSystem     = "os.system"
	KeyOSRelease    = "os.release"
	KeyOSVersion    = "os.version"
	KeyOSMachine    = "os.machine"
	KeyOSPrettyName = "os.pretty_name"
	KeyPrettyHost   = "hostname.pretty"

	// Program identity.
	KeyProgramName = "pname"
	KeyVersion     = "version"
	KeyRunID       = "runid"

	// Run-time switches.
	KeyVerbose   = "verbose"
	KeyDebug     = "debug"
	KeyTestRun   = "testrun"
	KeyNoLogging = "nologging"
	KeyNoConfig  = "noconfig"
	KeyNoArgs    = "noargs"
	KeyLogSys    = "logsys"
	KeyCmdFile   = "cmdfile"
	KeyConfigDir = "configdir"
	KeyArgs      = "args"

	// Application entry point.
	KeyEntryModule  = "umname"
	KeyEntryPackage = "umpkg"
	KeyEntryClass   = "umclass"
)

// FinalKey is the reserved top-level key of a configuration file listing the
// flattened keys of that file which later layers may not override.
const FinalKey = "_final"

// Separator joins the keys of nested objects when a file is flattened.
const Separator = "."
