package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"go.trai.ch/xbuild/internal/core/domain"
)

// DefaultCacheDir returns the cache root used when the manifest does not set one.
func DefaultCacheDir() string {
	return filepath.Join(xdg.CacheHome, domain.AppName)
}

// DefaultFlutterRepo returns the checkout location used when the manifest enables
// flutter without naming a repo.
func DefaultFlutterRepo() string {
	return filepath.Join(xdg.DataHome, domain.AppName, "flutter")
}

// defaultAndroidSDK returns the SDK advertised by the environment, if any.
func defaultAndroidSDK() string {
	for _, key := range []string{"ANDROID_HOME", "ANDROID_SDK_ROOT"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}
