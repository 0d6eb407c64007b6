// Package version reports the build version of the eradiate-pp binary.
//
// Values are set at link time and fall back to the VCS stamp Go embeds:
//
//	go build -ldflags "-X github.com/kbukum/eradiate-pp/version.Version=1.2.0"
package version
