// Package version provides build version information embedding.
//
// Version and git metadata are set at compile time via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/rerun/version.Version=1.0.0"
//
// Missing values are filled from the binary's embedded build info.
package version
