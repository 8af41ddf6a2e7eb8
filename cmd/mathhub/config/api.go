package config

// apiConf holds API-related configuration
type apiConf struct {
	Admin adminAPIConf `yaml:"admin"`
}

type adminAPIConf struct {
	Enabled bool `yaml:"enabled"`
}

var defaultAPIConf = apiConf{
	Admin: adminAPIConf{
		Enabled: true,
	},
}
