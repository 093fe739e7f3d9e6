package domain

// DefaultTargetSDKVersion is the Android platform used when the manifest does not set one.
const DefaultTargetSDKVersion = 33

// Manifest is the resolved project configuration.
// All paths are absolute.
type Manifest struct {
	Name             string
	Root             string
	BuildDir         string
	CacheDir         string
	Target           BuildTarget
	FlutterRepo      string
	Entry            string
	AndroidSDK       string
	TargetSDKVersion int
}

// UsesFlutter reports whether a toolchain checkout is configured.
func (m *Manifest) UsesFlutter() bool {
	return m.FlutterRepo != ""
}
