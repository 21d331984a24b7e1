package app

import "errors"

// Config holds everything an App needs to run. It is populated once at
// startup and read-only afterwards.
type Config struct {
	// SchemaPath points at the pipeline document (.hcl, .yaml, .yml).
	SchemaPath string

	// StorePath is the artifact store root directory.
	StorePath string

	LogFormat string
	LogLevel  string
	Workers   int
}

// NewConfig validates a Config.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.SchemaPath == "" {
		return nil, errors.New("SchemaPath is required and cannot be empty")
	}
	if cfg.StorePath == "" {
		return nil, errors.New("StorePath is required and cannot be empty")
	}
	return &cfg, nil
}
