package domain

import "path/filepath"

const (
	// AppName is used for the default cache directory and the tracer name.
	AppName = "xbuild"

	// ManifestFileName is the name of the project configuration file.
	ManifestFileName = "xbuild.yaml"

	// DownloadDirName holds raw downloads before extraction.
	DownloadDirName = "download"

	// EngineDirName holds extracted engine artifacts.
	EngineDirName = "engine"

	// MaterialFontsDirName holds the material icon fonts.
	MaterialFontsDirName = "material_fonts"

	// FrameworkDirName holds unpacked framework bundles.
	FrameworkDirName = "framework"

	// JavaDirName holds jar downloads used for dexing.
	JavaDirName = "java"

	// StoreDirName holds the fetched artifact ledger.
	StoreDirName = "store"

	// WindowsSDKDirName is the extracted Windows SDK.
	WindowsSDKDirName = "Windows.sdk"

	// MacosSDKDirName is the extracted macOS SDK.
	MacosSDKDirName = "MacOSX.sdk"

	// AndroidNDKDirName is the extracted Android NDK.
	AndroidNDKDirName = "Android.ndk"

	// IosSDKDirName is the extracted iOS SDK.
	IosSDKDirName = "iPhoneOS.sdk"

	// KernelBlobName is the compiled kernel file.
	KernelBlobName = "kernel_blob.bin"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// DownloadPath returns where the raw download named name is stored.
func DownloadPath(cacheDir, name string) string {
	return filepath.Join(cacheDir, DownloadDirName, name)
}

// EnginePath returns the engine directory for a version and compile target.
// It joins engine, version, opt, platform and arch.
func EnginePath(cacheDir, version string, target CompileTarget) string {
	return filepath.Join(
		cacheDir,
		EngineDirName,
		version,
		target.Opt().String(),
		target.Platform().String(),
		target.Arch().String(),
	)
}

// MaterialFontsPath returns the material fonts directory for a version.
func MaterialFontsPath(cacheDir, version string) string {
	return filepath.Join(cacheDir, MaterialFontsDirName, version)
}

// FrameworkPath returns the directory framework bundles are unpacked into.
func FrameworkPath(cacheDir string) string {
	return filepath.Join(cacheDir, FrameworkDirName)
}

// JavaPath returns the directory jar downloads are stored in.
func JavaPath(cacheDir string) string {
	return filepath.Join(cacheDir, JavaDirName)
}

// StorePath returns the artifact ledger directory.
func StorePath(cacheDir string) string {
	return filepath.Join(cacheDir, StoreDirName)
}

// KernelBlobPath returns the kernel output for an optimization level.
func KernelBlobPath(buildDir string, opt Opt) string {
	return filepath.Join(buildDir, opt.String(), KernelBlobName)
}

// DepfilePath returns the dependency file written next to a kernel blob.
func DepfilePath(kernelBlob string) string {
	return kernelBlob + ".d"
}

// TargetBuildDir returns the per-target intermediate directory.
func TargetBuildDir(buildDir string, target CompileTarget) string {
	return filepath.Join(buildDir, target.Opt().String(), target.Platform().String(), target.Arch().String())
}
