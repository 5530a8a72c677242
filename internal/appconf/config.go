package appconf

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all the configuration settings for the application. Flags
// populate it first; a YAML file, when given, fills in the rest.
type Config struct {
	Port        int              `yaml:"port" validate:"gte=0,lte=65535"`
	Env         Environment      `yaml:"-"`
	RateLimit   int              `yaml:"rateLimit" validate:"gte=-1"`
	DBPath      string           `yaml:"dbPath"`
	BlobDir     string           `yaml:"blobDir"`
	BlobURL     string           `yaml:"blobUrl"`
	CORSOrigins []string         `yaml:"corsOrigins"`
	Admins      []AdminPrincipal `yaml:"admins" validate:"dive"`
}

// AdminPrincipal is an allow-listed administrator. PasswordHash is a bcrypt
// hash, never a plain password.
type AdminPrincipal struct {
	Username     string `yaml:"username" validate:"required"`
	PasswordHash string `yaml:"passwordHash" validate:"required,startswith=$2"`
}

// LoadFile reads a YAML config file over the given defaults and validates the
// result. Zero values in the file leave the defaults untouched.
func LoadFile(path string, defaults Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return defaults, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data, defaults)
}

func Parse(data []byte, defaults Config) (Config, error) {
	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return defaults, fmt.Errorf("parse config: %w", err)
	}

	cfg := merge(defaults, fileCfg)
	if err := validator.New().Struct(cfg); err != nil {
		return defaults, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func merge(base, override Config) Config {
	if override.Port != 0 {
		base.Port = override.Port
	}
	if override.RateLimit != 0 {
		base.RateLimit = override.RateLimit
	}
	if override.DBPath != "" {
		base.DBPath = override.DBPath
	}
	if override.BlobDir != "" {
		base.BlobDir = override.BlobDir
	}
	if override.BlobURL != "" {
		base.BlobURL = override.BlobURL
	}
	if len(override.CORSOrigins) > 0 {
		base.CORSOrigins = override.CORSOrigins
	}
	if len(override.Admins) > 0 {
		base.Admins = override.Admins
	}
	return base
}
