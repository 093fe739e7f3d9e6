package config

// Manifest represents the structure of the xbuild.yaml configuration file.
type Manifest struct {
	Name    string      `yaml:"name"`
	Root    string      `yaml:"root"`
	Build   string      `yaml:"build"`
	Cache   string      `yaml:"cache"`
	Target  TargetDTO   `yaml:"target"`
	Flutter *FlutterDTO `yaml:"flutter"`
	Android *AndroidDTO `yaml:"android"`
}

// TargetDTO selects what to build when no flags override it.
type TargetDTO struct {
	Platform string   `yaml:"platform"`
	Archs    []string `yaml:"archs"`
	Opt      string   `yaml:"opt"`
}

// FlutterDTO configures the toolchain checkout.
type FlutterDTO struct {
	Repo  string `yaml:"repo"`
	Entry string `yaml:"entry"`
}

// AndroidDTO configures the Android SDK.
type AndroidDTO struct {
	SDK              string `yaml:"sdk"`
	TargetSDKVersion int    `yaml:"targetSdkVersion"`
}
