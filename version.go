package grove

// buildVersion is stamped by the build:
//
//	go build -ldflags "-X github.com/leftmike/grove.buildVersion=$(git describe --always)"
var buildVersion = "unknown"

// Version returns the build version string.
func Version() string {
	return "grove_build_version " + buildVersion
}
