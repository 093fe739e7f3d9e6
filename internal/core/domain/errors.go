package domain

import "go.trai.ch/zerr"

var (
	// ErrPlatformDetection is returned when the host operating system or architecture is not supported.
	ErrPlatformDetection = zerr.New("unsupported host platform")

	// ErrInvalidTarget is returned when a platform, architecture or optimization level cannot be parsed.
	ErrInvalidTarget = zerr.New("invalid build target")

	// ErrUnsupportedCombination is returned when the target cannot be built from the current host.
	ErrUnsupportedCombination = zerr.New("unsupported host and target combination")

	// ErrFetch is returned when downloading an artifact fails.
	ErrFetch = zerr.New("failed to fetch artifact")

	// ErrArchive is returned when an archive is malformed or cannot be extracted.
	ErrArchive = zerr.New("failed to extract archive")

	// ErrMissingArtifact is returned when a required engine artifact is not present in the cache.
	ErrMissingArtifact = zerr.New("failed to locate artifact")

	// ErrToolNotFound is returned when an executable cannot be found on PATH.
	ErrToolNotFound = zerr.New("tool not found")

	// ErrToolInvocation is returned when an external tool cannot be started or exits non-zero.
	ErrToolInvocation = zerr.New("tool invocation failed")

	// ErrVersionResolution is returned when a toolchain version cannot be determined.
	ErrVersionResolution = zerr.New("failed to resolve version")

	// ErrInvalidCheckout is returned when the toolchain directory exists but is not a git checkout.
	ErrInvalidCheckout = zerr.New("toolchain directory is not a git checkout")

	// ErrInvalidEnv is returned when the build environment cannot be constructed.
	ErrInvalidEnv = zerr.New("invalid build environment")

	// ErrConfigReadFailed is returned when the manifest cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the manifest cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrConfigNotFound is returned when no manifest is found in the working directory or its parents.
	ErrConfigNotFound = zerr.New("could not find " + ManifestFileName)

	// ErrStoreCreateFailed is returned when the artifact ledger directory cannot be created.
	ErrStoreCreateFailed = zerr.New("failed to create artifact store directory")

	// ErrStoreReadFailed is returned when an artifact record cannot be read.
	ErrStoreReadFailed = zerr.New("failed to read artifact record")

	// ErrStoreUnmarshalFailed is returned when an artifact record cannot be unmarshaled.
	ErrStoreUnmarshalFailed = zerr.New("failed to unmarshal artifact record")

	// ErrStoreMarshalFailed is returned when an artifact record cannot be marshaled.
	ErrStoreMarshalFailed = zerr.New("failed to marshal artifact record")

	// ErrStoreWriteFailed is returned when an artifact record cannot be written.
	ErrStoreWriteFailed = zerr.New("failed to write artifact record")

	// ErrBuildExecutionFailed is returned when a pipeline stage fails.
	ErrBuildExecutionFailed = zerr.New("build execution failed")
)
