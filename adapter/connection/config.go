package connection

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultDatabase is the database selected when none is configured.
const DefaultDatabase = "test"

// Config holds everything needed to open a connection.
type Config struct {
	// Driver selects the driver implementation: "mongo" (default) or
	// "memory".
	Driver string `yaml:"driver" mapstructure:"driver"`
	// Server is the connection URI, like mongodb://localhost:27017.
	Server string `yaml:"server" mapstructure:"server"`
	// Database is the database name.
	Database string `yaml:"database" mapstructure:"database"`
	// W is the default write acknowledgment level.
	W any `yaml:"w" mapstructure:"w"`
	// J is the default journal flag.
	J bool `yaml:"j" mapstructure:"j"`
	// ReadPreference is the read preference mode, like "primary" or
	// "secondaryPreferred".
	ReadPreference string `yaml:"readPreference" mapstructure:"readPreference"`
	// ReadPreferenceTags restricts eligible members of a replica set.
	ReadPreferenceTags []map[string]string `yaml:"readPreferenceTags" mapstructure:"readPreferenceTags"`
	// Datafile is used by the memory driver to load and save data.
	Datafile string `yaml:"datafile" mapstructure:"datafile"`
	// Options holds driver specific settings.
	Options map[string]any `yaml:"options" mapstructure:"options"`
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var raw map[string]any
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return ConfigFromMap(raw)
}

// ConfigFromMap decodes a config from a generic map, as read from YAML or
// built by the caller. Scalars are converted weakly, so "1" is a valid w.
func ConfigFromMap(m map[string]any) (Config, error) {
	var cfg Config
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		Result:           &cfg,
	})
	if err != nil {
		return Config{}, err
	}
	if err := dec.Decode(m); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	if c.Database == "" {
		c.Database = DefaultDatabase
	}
	if c.Driver == "" {
		c.Driver = "mongo"
	}
	if s, ok := c.W.(string); ok {
		var n int
		if _, err := fmt.Sscanf(s, "%d", &n); err == nil && fmt.Sprint(n) == s {
			c.W = n
		}
	}
	if c.W == nil {
		c.W = 1
	}
}
