package pipeline

import (
	"path/filepath"

	"go.trai.ch/xbuild/internal/core/domain"
	"go.trai.ch/xbuild/internal/engine/buildenv"
	"go.trai.ch/zerr"
)

const (
	packageConfig     = ".dart_tool/package_config.json"
	iosMinVersionFlag = "-miphoneos-version-min=9.0"
	d8MainClass       = "com.android.tools.r8.D8"
	emptySourceName   = "empty.c"
)

// KernelCommand returns the frontend server invocation compiling the entry file.
func KernelCommand(env *buildenv.Env) (domain.Command, error) {
	flutter := env.Flutter()
	if flutter == nil {
		return domain.Command{}, zerr.Wrap(domain.ErrInvalidEnv, "no flutter checkout configured")
	}

	dart, err := flutter.Dart()
	if err != nil {
		return domain.Command{}, err
	}
	server, err := flutter.FrontendServer()
	if err != nil {
		return domain.Command{}, err
	}
	opt := env.Target().Opt
	sdk, err := flutter.PatchedSDK(opt)
	if err != nil {
		return domain.Command{}, err
	}

	args := []string{
		server,
		"--target=flutter",
		"--no-print-incremental-dependencies",
		"--packages", packageConfig,
		"--output-dill", env.KernelBlob(),
		"--depfile", env.Depfile(),
		"--sdk-root", sdk,
	}
	if opt == domain.Release {
		args = append(args, "-Ddart.vm.profile=false", "-Ddart.vm.product=true", "--aot", "--tfa")
	} else {
		args = append(args, "-Ddart.vm.profile=false", "-Ddart.vm.product=false", "--track-widget-creation")
	}
	args = append(args, env.Entry())

	return domain.NewCommand(dart, args...).WithDir(env.Root()), nil
}

func genSnapshot(env *buildenv.Env, target domain.CompileTarget, kind string, out string) (domain.Command, error) {
	flutter := env.Flutter()
	if flutter == nil {
		return domain.Command{}, zerr.Wrap(domain.ErrInvalidEnv, "no flutter checkout configured")
	}
	bin, err := flutter.GenSnapshot(target)
	if err != nil {
		return domain.Command{}, err
	}
	return domain.NewCommand(bin,
		"--deterministic",
		"--strip",
		"--snapshot_kind="+kind,
		out,
		env.KernelBlob(),
	).WithDir(env.Root()), nil
}

// ELFSnapshotCommand returns the gen_snapshot invocation writing an ELF library.
func ELFSnapshotCommand(env *buildenv.Env, target domain.CompileTarget) (domain.Command, error) {
	return genSnapshot(env, target, "app-aot-elf", "--elf="+env.Snapshot(target))
}

// AppleSnapshotCommands returns the assemble, compile and link steps producing an Apple
// dynamic library from the kernel blob.
func AppleSnapshotCommands(env *buildenv.Env, target domain.CompileTarget) ([]domain.Command, error) {
	dir := env.TargetBuildDir(target)
	assembly := filepath.Join(dir, "snapshot.S")
	object := filepath.Join(dir, "snapshot.o")
	snapshot := env.Snapshot(target)
	name := filepath.Base(snapshot)
	arch := target.Arch().ClangArch()

	gen, err := genSnapshot(env, target, "app-aot-assembly", "--assembly="+assembly)
	if err != nil {
		return nil, err
	}

	compile := domain.NewCommand("clang", "-c", assembly, "-o", object, "-arch", arch)
	link := domain.NewCommand("clang",
		"-arch", arch,
		"-dynamiclib",
		"-Xlinker", "-rpath", "-Xlinker", "@executable_path/Frameworks",
		"-Xlinker", "-rpath", "-Xlinker", "@loader_path/Frameworks",
		"-install_name", "@rpath/"+name+".framework/"+name,
		"-o", snapshot,
		object,
	)

	if target.Platform() == domain.Ios {
		compile = withIosFlags(compile, env)
		link = withIosFlags(link, env)
	}

	return []domain.Command{gen, compile, link}, nil
}

// EmptyDylibCommand returns the link of a placeholder library used when packaging iOS apps.
func EmptyDylibCommand(env *buildenv.Env, target domain.CompileTarget) domain.Command {
	out := env.EmptyDylib(target)
	cmd := domain.NewCommand("clang",
		"-arch", target.Arch().ClangArch(),
		"-dynamiclib",
		"-install_name", "@rpath/"+filepath.Base(out),
		"-o", out,
		filepath.Join(env.TargetBuildDir(target), emptySourceName),
	)
	return withIosFlags(cmd, env)
}

// DexCommand returns the D8 invocation building classes.dex from the embedding jar.
func DexCommand(env *buildenv.Env) (domain.Command, error) {
	flutter := env.Flutter()
	if flutter == nil {
		return domain.Command{}, zerr.Wrap(domain.ErrInvalidEnv, "no flutter checkout configured")
	}
	version, err := flutter.EngineVersion()
	if err != nil {
		return domain.Command{}, err
	}

	mode := "--debug"
	if env.Target().Opt == domain.Release {
		mode = "--release"
	}

	return domain.NewCommand("java",
		"-cp", env.R8Jar(),
		d8MainClass,
		mode,
		"--lib", env.AndroidJar(),
		"--output", env.DexDir(),
		env.FlutterEmbeddingJar(version),
	), nil
}

func withIosFlags(cmd domain.Command, env *buildenv.Env) domain.Command {
	cmd.Args = append(cmd.Args, iosMinVersionFlag)
	if sdk := env.IosSDKRoot(); sdk != "" {
		cmd.Args = append(cmd.Args, "--sysroot="+sdk)
		cmd = cmd.WithEnv("SDKROOT", sdk)
	}
	return cmd
}
