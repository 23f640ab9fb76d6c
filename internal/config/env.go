package config

import (
	"errors"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables read by LoadEnv.
const (
	EnvUsername = "HTTP_USERNAME"
	EnvPassword = "HTTP_PASSWORD"
	EnvBaseURL  = "BASE_URL"
)

// DefaultEnvFile is the dotenv file loaded when present.
const DefaultEnvFile = ".env"

// LoadEnv loads the dotenv file, if any, and copies credentials and BASE_URL
// into the config. Variables already set in the process environment win over
// the file. A missing default .env file is not an error; a missing explicit
// one is.
func (c *Config) LoadEnv() error {
	envFile := c.EnvFile
	explicit := envFile != ""
	if !explicit {
		envFile = DefaultEnvFile
	}

	if err := godotenv.Load(envFile); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	if v := strings.TrimSpace(os.Getenv(EnvUsername)); v != "" {
		c.Username = v
	}
	if v := os.Getenv(EnvPassword); v != "" {
		c.Password = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBaseURL)); v != "" {
		base, err := NormalizeBaseURL(v)
		if err != nil {
			return err
		}
		c.BaseURL = base
	}
	return nil
}

// NormalizeBaseURL checks that raw is an http(s) URL with a host and makes
// sure it ends with "/" so relative references join under it.
func NormalizeBaseURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", ErrInvalidBaseURL
	}
	s := u.String()
	if !strings.HasSuffix(s, "/") {
		s += "/"
	}
	return s, nil
}
