package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Analysis struct {
		Quantiles         []float64 `yaml:"quantiles"`
		HistogramBuckets  int       `yaml:"histogram_buckets"`
		DecodeConcurrency int       `yaml:"decode_concurrency"`
	} `yaml:"analysis"`

	S3 struct {
		Region string `yaml:"region"`
	} `yaml:"s3"`
}

// LoadConfig reads the YAML config file. A missing path yields the zero
// config, so the tool runs without one.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &cfg, nil
}
