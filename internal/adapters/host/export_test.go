package host

import "io"

func ParseOSRelease(r io.Reader) string {
	return parseOSRelease(r)
}

// SetOSReleasePath points the provider at a fixture file.
func (p *Provider) SetOSReleasePath(path string) {
	p.osRelease = path
}
