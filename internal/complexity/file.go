package complexity

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// LoadConfig reads a complexity configuration from a YAML file. The
// file replaces the defaults wholesale; it is not merged.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, eris.Wrapf(err, "complexity: read config %s", path)
	}

	// The YAML has a top-level "complexity" key.
	var wrapper struct {
		Complexity Config `yaml:"complexity"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return Config{}, eris.Wrapf(err, "complexity: parse config %s", path)
	}

	cfg := wrapper.Complexity
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
