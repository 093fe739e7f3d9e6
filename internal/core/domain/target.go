package domain

import (
	"runtime"

	"go.trai.ch/zerr"
)

// Platform is an operating system a bundle can be built for.
type Platform string

// Supported platforms.
const (
	Linux   Platform = "linux"
	Windows Platform = "windows"
	Macos   Platform = "macos"
	Android Platform = "android"
	Ios     Platform = "ios"
)

// Platforms lists every supported platform.
var Platforms = []Platform{Linux, Windows, Macos, Android, Ios}

func (p Platform) String() string {
	return string(p)
}

// IsApple reports whether the platform links snapshots through clang as a dynamic library.
func (p Platform) IsApple() bool {
	return p == Macos || p == Ios
}

// ParsePlatform parses the string form of a platform.
func ParsePlatform(s string) (Platform, error) {
	for _, p := range Platforms {
		if string(p) == s {
			return p, nil
		}
	}
	return "", zerr.With(zerr.Wrap(ErrInvalidTarget, "unknown platform "+s), "platform", s)
}

// HostPlatform returns the platform the build is running on.
func HostPlatform() (Platform, error) {
	return platformForGOOS(runtime.GOOS)
}

func platformForGOOS(goos string) (Platform, error) {
	switch goos {
	case "linux":
		return Linux, nil
	case "windows":
		return Windows, nil
	case "darwin":
		return Macos, nil
	case "android":
		return Android, nil
	case "ios":
		return Ios, nil
	default:
		return "", zerr.With(zerr.Wrap(ErrPlatformDetection, "unsupported os "+goos), "goos", goos)
	}
}

// Arch is a CPU architecture.
type Arch string

// Supported architectures.
const (
	X64   Arch = "x64"
	Arm64 Arch = "arm64"
)

// Archs lists every supported architecture.
var Archs = []Arch{X64, Arm64}

func (a Arch) String() string {
	return string(a)
}

// ClangArch returns the spelling clang expects for -arch.
func (a Arch) ClangArch() string {
	if a == X64 {
		return "x86_64"
	}
	return string(a)
}

// ParseArch parses the string form of an architecture.
func ParseArch(s string) (Arch, error) {
	for _, a := range Archs {
		if string(a) == s {
			return a, nil
		}
	}
	return "", zerr.With(zerr.Wrap(ErrInvalidTarget, "unknown arch "+s), "arch", s)
}

// HostArch returns the architecture the build is running on.
func HostArch() (Arch, error) {
	return archForGOARCH(runtime.GOARCH)
}

func archForGOARCH(goarch string) (Arch, error) {
	switch goarch {
	case "amd64":
		return X64, nil
	case "arm64":
		return Arm64, nil
	default:
		return "", zerr.With(zerr.Wrap(ErrPlatformDetection, "unsupported arch "+goarch), "goarch", goarch)
	}
}

// Opt is the optimization level of a build.
type Opt string

// Optimization levels.
const (
	Debug   Opt = "debug"
	Release Opt = "release"
)

func (o Opt) String() string {
	return string(o)
}

// ParseOpt parses the string form of an optimization level.
func ParseOpt(s string) (Opt, error) {
	switch Opt(s) {
	case Debug, Release:
		return Opt(s), nil
	default:
		return "", zerr.With(zerr.Wrap(ErrInvalidTarget, "unknown opt "+s), "opt", s)
	}
}

// CompileTarget is a single (platform, arch, opt) triple.
// It is comparable and used as a cache key for engine artifacts.
type CompileTarget struct {
	platform Platform
	arch     Arch
	opt      Opt
}

// NewCompileTarget returns the compile target for the given triple.
func NewCompileTarget(platform Platform, arch Arch, opt Opt) CompileTarget {
	return CompileTarget{platform: platform, arch: arch, opt: opt}
}

// HostCompileTarget returns the compile target of the host with the given opt.
func HostCompileTarget(opt Opt) (CompileTarget, error) {
	platform, err := HostPlatform()
	if err != nil {
		return CompileTarget{}, err
	}
	arch, err := HostArch()
	if err != nil {
		return CompileTarget{}, err
	}
	return NewCompileTarget(platform, arch, opt), nil
}

// Platform returns the target platform.
func (t CompileTarget) Platform() Platform { return t.platform }

// Arch returns the target architecture.
func (t CompileTarget) Arch() Arch { return t.arch }

// Opt returns the optimization level.
func (t CompileTarget) Opt() Opt { return t.opt }

// String returns platform-arch-opt.
func (t CompileTarget) String() string {
	return string(t.platform) + "-" + string(t.arch) + "-" + string(t.opt)
}

// BuildTarget is the user's selection: one platform, one or more archs, one opt.
type BuildTarget struct {
	Platform Platform
	Archs    []Arch
	Opt      Opt
}

// CompileTargets expands the selection into one compile target per arch.
func (b BuildTarget) CompileTargets() []CompileTarget {
	targets := make([]CompileTarget, 0, len(b.Archs))
	for _, arch := range b.Archs {
		targets = append(targets, NewCompileTarget(b.Platform, arch, b.Opt))
	}
	return targets
}
