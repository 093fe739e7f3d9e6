// Package host describes the machine the build runs on.
package host

import (
	"bufio"
	"context"
	"io"
	"strings"

	"go.trai.ch/xbuild/internal/core/domain"
	"go.trai.ch/xbuild/internal/core/ports"
)

// Provider implements ports.HostInfoProvider.
type Provider struct {
	platform  domain.Platform
	arch      domain.Arch
	executor  ports.Executor
	osRelease string
}

var _ ports.HostInfoProvider = (*Provider)(nil)

// NewProvider detects the host platform and architecture.
// It fails with domain.ErrPlatformDetection on unsupported hosts.
func NewProvider(executor ports.Executor) (*Provider, error) {
	platform, err := domain.HostPlatform()
	if err != nil {
		return nil, err
	}
	arch, err := domain.HostArch()
	if err != nil {
		return nil, err
	}
	return &Provider{
		platform:  platform,
		arch:      arch,
		executor:  executor,
		osRelease: "/etc/os-release",
	}, nil
}

// Platform returns the host platform.
func (p *Provider) Platform() domain.Platform { return p.platform }

// Arch returns the host architecture.
func (p *Provider) Arch() domain.Arch { return p.arch }

// Name returns the kernel name reported by uname.
func (p *Provider) Name(ctx context.Context) (string, error) {
	if p.platform == domain.Windows {
		return "Windows", nil
	}
	return p.executor.Output(ctx, domain.NewCommand("uname"))
}

// Details returns the operating system name and kernel release.
func (p *Provider) Details(ctx context.Context) (string, error) {
	return p.details(ctx)
}

// parseOSRelease returns the NAME field of an os-release file.
func parseOSRelease(r io.Reader) string {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), "=")
		if !ok || key != "NAME" {
			continue
		}
		return strings.Trim(value, `"'`)
	}
	return ""
}
