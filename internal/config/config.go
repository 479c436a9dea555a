// Package config loads the tool configuration from
// $HOME/.mmcfdisk/config.yml.
package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"mmcfdisk/internal/core"
	"mmcfdisk/internal/fdisk"
)

// Config is the on-disk configuration. Sizes use core.ParseSize syntax.
type Config struct {
	DiskStart         string `yaml:"disk-start"`
	System            string `yaml:"system"`
	UserData          string `yaml:"user-data"`
	UserDataRemovable string `yaml:"user-data-removable"`
	Cache             string `yaml:"cache"`

	// Compression is the codec used by backup when none is given.
	Compression string `yaml:"compression"`
}

// Default matches the built-in partition policy.
func Default() Config {
	return Config{
		DiskStart:         "16M",
		System:            "1G",
		UserData:          "1G",
		UserDataRemovable: "300M",
		Cache:             "300M",
		Compression:       "gzip",
	}
}

// Path is the default configuration file location.
func Path() string {
	return filepath.Join(os.Getenv("HOME"), ".mmcfdisk", "config.yml")
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, errors.Wrapf(err, "failed to read %q", path)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "failed to parse %q", path)
	}
	return cfg, nil
}

// Defaults converts the size settings to partition defaults.
func (c Config) Defaults() (fdisk.Defaults, error) {
	var d fdisk.Defaults
	fields := []struct {
		name string
		val  string
		dst  *uint64
	}{
		{"disk-start", c.DiskStart, &d.DiskStart},
		{"system", c.System, &d.System},
		{"user-data", c.UserData, &d.UserData},
		{"user-data-removable", c.UserDataRemovable, &d.UserDataRemovable},
		{"cache", c.Cache, &d.Cache},
	}
	for _, f := range fields {
		v, err := core.ParseSize(f.val)
		if err != nil {
			return d, errors.Wrapf(err, "config %s", f.name)
		}
		*f.dst = v
	}
	return d, nil
}
