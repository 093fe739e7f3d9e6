package shell

import (
	"os/exec"

	"go.trai.ch/xbuild/internal/core/domain"
	"go.trai.ch/xbuild/internal/core/ports"
	"go.trai.ch/zerr"
)

// Locator implements ports.ToolLocator by searching PATH.
type Locator struct{}

var _ ports.ToolLocator = Locator{}

// NewLocator creates a new Locator.
func NewLocator() Locator {
	return Locator{}
}

// Locate returns the absolute path of the named executable without running it.
func (Locator) Locate(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", zerr.With(zerr.Wrap(domain.ErrToolNotFound, name+" is not on PATH"), "tool", name)
	}
	return path, nil
}
