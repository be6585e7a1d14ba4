// Package version provides build information for the deck builder binaries.
// Both values can be set at build time using ldflags:
//
//	go build -ldflags "-X github.com/mrheathv/mtg-deck-builder/internal/version.Version=v1.2.3 -X github.com/mrheathv/mtg-deck-builder/internal/version.Commit=abc1234"
package version

import "fmt"

var (
	// Version is the release version. It defaults to "dev".
	Version = "dev"

	// Commit is the source revision the binary was built from.
	Commit = ""
)

// GetVersion returns the current application version.
func GetVersion() string {
	return Version
}

// String returns the version with the commit appended when it is known.
func String() string {
	if Commit == "" {
		return Version
	}
	return fmt.Sprintf("%s (%s)", Version, Commit)
}
