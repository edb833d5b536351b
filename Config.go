package tfsmount

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config describes one mount. It can be loaded from a YAML file; command
// line flags override whatever the file sets.
type Config struct {
	// Image is the path of the image file.
	Image string `yaml:"image"`

	// Mountpoint is the directory the image is mounted on.
	Mountpoint string `yaml:"mountpoint"`

	// Debug prints every FUSE request and reply.
	Debug bool `yaml:"debug"`

	// AllowOther permits other users to access the mount. Requires
	// user_allow_other in /etc/fuse.conf.
	AllowOther bool `yaml:"allow_other"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"log_level"`

	AttrTimeout  time.Duration `yaml:"attr_timeout"`
	EntryTimeout time.Duration `yaml:"entry_timeout"`
}

func DefaultConfig() Config {
	return Config{
		LogLevel:     "info",
		AttrTimeout:  time.Second,
		EntryTimeout: time.Second,
	}
}

// LoadConfig reads the YAML file at path on top of DefaultConfig. Unknown
// keys are an error.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return config, err
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return config, fmt.Errorf("parsing %s: %w", path, err)
	}
	return config, nil
}

// Level returns LogLevel as a slog level.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return level, fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

func (c Config) Validate() error {
	if c.Image == "" {
		return errors.New("image path is required")
	}
	if c.Mountpoint == "" {
		return errors.New("mount point is required")
	}
	if c.AttrTimeout < 0 || c.EntryTimeout < 0 {
		return errors.New("timeouts must not be negative")
	}
	_, err := c.Level()
	return err
}
