package ports

import "go.trai.ch/xbuild/internal/core/domain"

// ConfigLoader loads the project manifest.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load finds the manifest starting at cwd and walking up.
	Load(cwd string) (*domain.Manifest, error)

	// LoadFile reads the manifest at an explicit path.
	LoadFile(path string) (*domain.Manifest, error)
}
