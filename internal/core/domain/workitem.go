package domain

import (
	"fmt"
	"path"
)

// WorkItem describes one artifact to materialize: where it comes from, where it goes,
// and which archive entries to skip while extracting.
type WorkItem struct {
	url             string
	output          string
	noSymlinks      bool
	noColons        bool
	extractToOutput bool
}

// NewWorkItem returns a work item fetching url into output.
func NewWorkItem(output, url string) WorkItem {
	return WorkItem{url: url, output: output}
}

// GithubRelease returns a work item for a GitHub release asset.
func GithubRelease(output, org, repo, tag, artifact string) WorkItem {
	url := fmt.Sprintf("https://github.com/%s/%s/releases/download/%s/%s", org, repo, tag, artifact)
	return NewWorkItem(output, url)
}

// NoSymlinks skips symlink entries while extracting.
func (w WorkItem) NoSymlinks() WorkItem {
	w.noSymlinks = true
	return w
}

// NoColons skips entries whose path contains a colon.
func (w WorkItem) NoColons() WorkItem {
	w.noColons = true
	return w
}

// ExtractToOutput places the archive contents inside the output directory
// instead of expecting the archive to contain an entry named after it.
func (w WorkItem) ExtractToOutput() WorkItem {
	w.extractToOutput = true
	return w
}

// URL returns the source URL.
func (w WorkItem) URL() string { return w.url }

// Output returns the destination path.
func (w WorkItem) Output() string { return w.output }

// Name returns the final path segment of the URL.
func (w WorkItem) Name() string { return path.Base(w.url) }

// SkipSymlinks reports whether symlink entries are skipped.
func (w WorkItem) SkipSymlinks() bool { return w.noSymlinks }

// SkipColons reports whether colon-named entries are skipped.
func (w WorkItem) SkipColons() bool { return w.noColons }

// IntoOutput reports whether archive contents are extracted inside the output directory.
func (w WorkItem) IntoOutput() bool { return w.extractToOutput }
