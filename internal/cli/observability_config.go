package cli

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/okdaichi/sdnctl/observability"
)

// obsFile is the optional on-disk runtime-defaults file consumed by both
// binaries (SPEC_FULL.md §2 "Configuration"). Its absence is not an
// error — a process with no such file simply runs with tracing/metrics
// disabled.
type obsFile struct {
	TraceAddr string `yaml:"trace_addr"`
	LogAddr   string `yaml:"log_addr"`
	Metrics   bool   `yaml:"metrics"`
}

// loadObservabilityConfig reads path (if it exists) and merges it into an
// observability.Config for service. A missing file is not an error; a
// malformed one is, mirroring the teacher's YAML config loaders.
func loadObservabilityConfig(path, service string) (observability.Config, error) {
	cfg := observability.Config{Service: service}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}

	var f obsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return cfg, err
	}
	cfg.TraceAddr = f.TraceAddr
	cfg.LogAddr = f.LogAddr
	cfg.Metrics = f.Metrics
	return cfg, nil
}
