// Package config loads user defaults from an optional YAML file and the
// environment.
package config

import (
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "UPIE"
	// EnvConfigFile names an explicit config file. Unlike the default
	// location, an explicit file must exist.
	EnvConfigFile = "UPIE_CONFIG"
)

var reNumber = regexp.MustCompile(`^[0-9.]+$`)

type Config struct {
	Timeout   time.Duration
	Chunks    int
	Boundary  string
	Follow    bool
	Sniff     bool
	LogLevel  string
	UserAgent string

	// Headers are sent with every upload unless given on the command line.
	Headers map[string]string

	// File is the config file that was read, or empty.
	File string
}

func Load() (*Config, error) {
	return load(viper.New(), os.Getenv(EnvConfigFile))
}

func load(v *viper.Viper, cfgFile string) (*Config, error) {
	v.SetDefault("timeout", "0")
	v.SetDefault("chunks", 100)
	v.SetDefault("boundary", "")
	v.SetDefault("follow", false)
	v.SetDefault("sniff", false)
	v.SetDefault("log-level", "warn")
	v.SetDefault("user-agent", "")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			return nil, errors.Wrap(err, "finding home directory")
		}
		v.AddConfigPath(home)
		v.SetConfigName(".upie")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "reading config")
		}
	}

	timeout, err := ParseDuration(v.GetString("timeout"))
	if err != nil {
		return nil, err
	}
	chunks := v.GetInt("chunks")
	if chunks <= 0 {
		return nil, errors.Errorf("chunks must be positive: %d", chunks)
	}

	return &Config{
		Timeout:   timeout,
		Chunks:    chunks,
		Boundary:  v.GetString("boundary"),
		Follow:    v.GetBool("follow"),
		Sniff:     v.GetBool("sniff"),
		LogLevel:  v.GetString("log-level"),
		UserAgent: v.GetString("user-agent"),
		Headers:   v.GetStringMapString("headers"),
		File:      v.ConfigFileUsed(),
	}, nil
}

// ParseDuration accepts a Go duration string or a plain number of seconds.
func ParseDuration(s string) (time.Duration, error) {
	if reNumber.MatchString(s) {
		s += "s"
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Duration(0), errors.Errorf("timeout must be a number or duration string: %v", s)
	}
	return d, nil
}
