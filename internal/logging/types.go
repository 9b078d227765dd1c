package logging

// #region config
// Config selects the logger level and encoding.
type Config struct {
	Level       string   `yaml:"level"`  // debug | info | warn | error
	Format      string   `yaml:"format"` // json | console
	OutputPaths []string `yaml:"output_paths"`
}

// DefaultConfig logs info and above as JSON to stderr.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "json", OutputPaths: []string{"stderr"}}
}

// #endregion config
