//go:build !linux

package host

import (
	"context"
	"runtime"

	"go.trai.ch/xbuild/internal/core/domain"
)

func (p *Provider) details(ctx context.Context) (string, error) {
	if p.platform == domain.Windows {
		return "Windows " + runtime.GOARCH, nil
	}
	name, err := p.Name(ctx)
	if err != nil {
		return "", err
	}
	release, err := p.executor.Output(ctx, domain.NewCommand("uname", "-r"))
	if err != nil {
		return "", err
	}
	return name + " " + release, nil
}
