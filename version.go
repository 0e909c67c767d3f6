package launchd

// Version is the current version of the go-launchd library
const Version = "1.0.0"

// VersionInfo contains detailed version information
type VersionInfo struct {
	// Version is the semantic version
	Version string
	// Domain is the launchctl session domain family this library targets
	Domain string
}

// GetVersion returns the current version information
func GetVersion() VersionInfo {
	return VersionInfo{
		Version: Version,
		Domain:  "gui/<uid>",
	}
}
