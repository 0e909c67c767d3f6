package launchd

import (
	"io/fs"
	"time"
)

// Directory and file constants
const (
	// UserAgentsSubdir is the per-user agents directory relative to $HOME
	UserAgentsSubdir = "Library/LaunchAgents"

	// DefaultSystemAgentsDir holds agents installed for every user
	DefaultSystemAgentsDir = "/Library/LaunchAgents"

	// DefaultSystemDaemonsDir holds system-wide daemons
	DefaultSystemDaemonsDir = "/Library/LaunchDaemons"

	// PlistExt is the only file extension treated as a job definition
	PlistExt = ".plist"

	// DefaultLaunchctlPath is the default path to the launchctl binary
	DefaultLaunchctlPath = "launchctl"

	// DefaultIDPath is the binary used to resolve the invoking user's uid
	DefaultIDPath = "id"

	// DefaultOpenPath is the binary used for reveal/open shims
	DefaultOpenPath = "open"

	// DefaultTimeout bounds every launchctl invocation
	DefaultTimeout = 10 * time.Second

	// DefaultConcurrency bounds parallel plist parsing in ListJobs
	DefaultConcurrency = 8

	// DefaultWatchDebounce coalesces bursts of filesystem events
	DefaultWatchDebounce = 50 * time.Millisecond
)

// File modes
const (
	// DirMode is the mode for a created agents directory
	DirMode = 0o755

	// FileMode is the mode for written plist files
	FileMode fs.FileMode = 0o644
)

// Operation represents a job-control or codec operation type
type Operation int

const (
	// OpUnknown represents an unknown operation
	OpUnknown Operation = iota
	// OpList lists loaded services
	OpList
	// OpBootstrap loads a job into the gui domain
	OpBootstrap
	// OpBootout unloads a job from the gui domain
	OpBootout
	// OpKickstart forces a loaded job to (re)start
	OpKickstart
	// OpEnable clears the persistent disabled flag
	OpEnable
	// OpDisable sets the persistent disabled flag
	OpDisable
	// OpStart is bootout followed by bootstrap
	OpStart
	// OpStop is a bootout
	OpStop
	// OpRestart is the same sequence as OpStart
	OpRestart
	// OpParse reads a plist file into a JobDefinition
	OpParse
	// OpWrite writes a JobDefinition or raw XML to disk
	OpWrite
	// OpCreate writes a new job into the user agents directory
	OpCreate
	// OpDelete unloads and removes a job file
	OpDelete
	// OpDetail reads one job's definition and runtime state
	OpDetail
	// OpReadLog reads a job's log file
	OpReadLog
	// OpReveal shows a file in Finder or an editor
	OpReveal
	// OpWatch watches job directories
	OpWatch
	// OpUID resolves the invoking user's uid
	OpUID
)

// Operation string constants
const (
	opUnknownStr   = "unknown"
	opListStr      = "list"
	opBootstrapStr = "bootstrap"
	opBootoutStr   = "bootout"
	opKickstartStr = "kickstart"
	opEnableStr    = "enable"
	opDisableStr   = "disable"
	opStartStr     = "start"
	opStopStr      = "stop"
	opRestartStr   = "restart"
	opParseStr     = "parse"
	opWriteStr     = "write"
	opCreateStr    = "create"
	opDeleteStr    = "delete"
	opDetailStr    = "detail"
	opReadLogStr   = "read-log"
	opRevealStr    = "reveal"
	opWatchStr     = "watch"
	opUIDStr       = "uid"
)

// String returns the string representation of an Operation
func (op Operation) String() string {
	switch op {
	case OpList:
		return opListStr
	case OpBootstrap:
		return opBootstrapStr
	case OpBootout:
		return opBootoutStr
	case OpKickstart:
		return opKickstartStr
	case OpEnable:
		return opEnableStr
	case OpDisable:
		return opDisableStr
	case OpStart:
		return opStartStr
	case OpStop:
		return opStopStr
	case OpRestart:
		return opRestartStr
	case OpParse:
		return opParseStr
	case OpWrite:
		return opWriteStr
	case OpCreate:
		return opCreateStr
	case OpDelete:
		return opDeleteStr
	case OpDetail:
		return opDetailStr
	case OpReadLog:
		return opReadLogStr
	case OpReveal:
		return opRevealStr
	case OpWatch:
		return opWatchStr
	case OpUID:
		return opUIDStr
	default:
		return opUnknownStr
	}
}
