// Package buildinfo exposes build information of minisocial-cli, injected
// via ldflags and completed from the embedded module build info:
//
//	go build -ldflags "-X github.com/yndnr/minisocial-go/internal/infra/buildinfo.Version=v1.0.0"
package buildinfo
