//go:build linux

package host

import (
	"context"
	"os"
	"strings"

	"go.trai.ch/xbuild/internal/core/domain"
)

func (p *Provider) details(ctx context.Context) (string, error) {
	release, err := p.executor.Output(ctx, domain.NewCommand("uname", "-r"))
	if err != nil {
		return "", err
	}

	name := "Linux"
	//nolint:gosec // fixed system path
	if f, err := os.Open(p.osRelease); err == nil {
		defer func() { _ = f.Close() }()
		if n := parseOSRelease(f); n != "" {
			name = n
		}
	}

	return strings.TrimSpace(name + " " + release), nil
}
