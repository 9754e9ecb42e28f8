// ABOUTME: Version and product identification
// ABOUTME: Reported to monitors and printed by -version
package version

const (
	// Version is the release version
	Version = "0.3.0"
	// Product is the engine name shown to monitors
	Product = "sciaudio"
	// Manufacturer credits the project
	Manufacturer = "sciaudio contributors"
)

// UserAgent identifies monitor connections
func UserAgent() string {
	return Product + "/" + Version
}
