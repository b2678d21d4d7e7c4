// Package version reports the build of an iockit binary.
//
// Version, Commit and BuildTime are set with -ldflags; anything left empty
// is filled from the embedded VCS build info:
//
//	go build -ldflags "-X github.com/kbukum/iockit/version.Version=0.4.0" ./cmd/iocctl
package version
