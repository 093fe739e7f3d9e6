package ports

import (
	"context"

	"go.trai.ch/xbuild/internal/core/domain"
)

// HostInfoProvider describes the machine the build runs on.
//
//go:generate mockgen -source=host.go -destination=mocks/mock_host.go -package=mocks
type HostInfoProvider interface {
	Platform() domain.Platform
	Arch() domain.Arch
	// Name returns the host name.
	Name(ctx context.Context) (string, error)
	// Details returns the operating system name and version.
	Details(ctx context.Context) (string, error)
}
