/*
Package schedconfig holds the typed configuration the CLI front end
loads before starting a Scheduler: worker count, the coloring freedom
constant k, and the log level. Values come from an optional YAML file,
then are overridden by environment variables, then by explicit flags,
in that order.
*/
package schedconfig

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DefaultColoringConstantK is the scheduler's own fixed k; overriding
// it is opt-in and documented as breaking bit-reproducibility of
// coloring across otherwise-identical runs.
const DefaultColoringConstantK = 4

// Config is the CLI's typed configuration, loadable from a YAML file
// at -config path.yaml.
type Config struct {
	NumWorkers        int    `yaml:"num_workers"`
	ColoringConstantK int    `yaml:"coloring_constant_k"`
	LogLevel          string `yaml:"log_level"`
}

// Default returns a Config with the library's normal defaults: all
// available CPUs, k=4, info-level logging.
func Default(numCPU int) Config {
	return Config{
		NumWorkers:        numCPU,
		ColoringConstantK: DefaultColoringConstantK,
		LogLevel:          "info",
	}
}

// Load reads a YAML config file at path into a copy of base, leaving
// any field the file omits at base's value.
func Load(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("schedconfig: load %s: %w", path, err)
	}
	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return base, fmt.Errorf("schedconfig: parse %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides cfg's NumWorkers and LogLevel from LPLIB_NPROC and
// LPLIB_LOG_LEVEL, if set, leaving cfg unchanged for any variable that
// is absent or, for LPLIB_NPROC, not a valid positive integer.
func ApplyEnv(cfg Config) Config {
	if v := os.Getenv("LPLIB_NPROC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.NumWorkers = n
		}
	}
	if v := os.Getenv("LPLIB_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	return cfg
}
