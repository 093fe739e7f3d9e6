package domain

import "time"

// ArtifactKind identifies what a pipeline stage produced.
type ArtifactKind string

// Artifact kinds.
const (
	KindNone       ArtifactKind = "none"
	KindCheckout   ArtifactKind = "checkout"
	KindPackages   ArtifactKind = "packages"
	KindKernel     ArtifactKind = "kernel"
	KindSnapshot   ArtifactKind = "snapshot"
	KindDex        ArtifactKind = "dex"
	KindDylib      ArtifactKind = "dylib"
	KindPrefetched ArtifactKind = "prefetched"
)

// Artifact is the output of a pipeline stage.
type Artifact struct {
	Kind ArtifactKind
	Path string
}

// ArtifactRecord is the ledger entry written after a successful fetch.
// Digest and Size describe Payload, the downloaded file: the archive in the download
// directory, or Output itself for plain files.
type ArtifactRecord struct {
	URL       string    `json:"url"`
	Output    string    `json:"output"`
	Payload   string    `json:"payload"`
	Digest    string    `json:"digest"`
	Size      int64     `json:"size"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Command describes an external process invocation.
type Command struct {
	Path string
	Args []string
	Dir  string
	Env  map[string]string
}

// NewCommand returns a command for path with args.
func NewCommand(path string, args ...string) Command {
	return Command{Path: path, Args: args}
}

// WithDir sets the working directory.
func (c Command) WithDir(dir string) Command {
	c.Dir = dir
	return c
}

// WithEnv adds an environment override.
func (c Command) WithEnv(key, value string) Command {
	env := make(map[string]string, len(c.Env)+1)
	for k, v := range c.Env {
		env[k] = v
	}
	env[key] = value
	c.Env = env
	return c
}

// Argv returns the path followed by the arguments.
func (c Command) Argv() []string {
	return append([]string{c.Path}, c.Args...)
}
