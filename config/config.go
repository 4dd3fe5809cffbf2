// Package config loads the generator settings from at-types.config.json.
package config

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"
)

// DefaultFilename is looked up in the current working directory.
const DefaultFilename = "at-types.config.json"

var (
	ErrNotFound  = errors.New("config file not found")
	ErrNoBaseIDs = errors.New("AIRTABLE_BASE_IDS is not set")
	ErrNoBaseID  = errors.New("AIRTABLE_BASE_ID is not set")
)

type Config struct {
	Token   string   `json:"AIRTABLE_TOKEN"`
	BaseID  string   `json:"AIRTABLE_BASE_ID,omitempty"`
	BaseIDs []string `json:"AIRTABLE_BASE_IDS,omitempty"`
}

// ParseError is returned when the config file exists but cannot be decoded.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse config file at %s: %s", e.Path, e.Err)
}

func (e *ParseError) Cause() error {
	return e.Err
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// DefaultPath returns the location of the config file in the current
// working directory.
func DefaultPath() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", errors.Wrap(err, "failed to determine working directory")
	}
	return filepath.Join(wd, DefaultFilename), nil
}

func LoadDefault() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// Load reads the config file at path. Missing keys are not reported here,
// only when the value is needed.
func Load(path string) (*Config, error) {
	buf, err := ioutil.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNotFound, "failed to read config file at %s", path)
		}
		return nil, errors.Wrapf(err, "failed to read config file at %s", path)
	}

	if len(strings.TrimSpace(string(buf))) == 0 {
		return nil, &ParseError{Path: path, Err: errors.New("file is empty")}
	}

	// JSON first: not every JSON document is valid YAML (e.g. the `\/` escape)
	var c Config
	if err := json.Unmarshal(buf, &c); err != nil {
		c = Config{}
		if yerr := yaml.Unmarshal(buf, &c); yerr != nil {
			return nil, &ParseError{Path: path, Err: err}
		}
	}
	return &c, nil
}

// BaseIDList returns the configured base ids, in order.
func (c *Config) BaseIDList() ([]string, error) {
	if len(c.BaseIDs) == 0 {
		return nil, ErrNoBaseIDs
	}
	return c.BaseIDs, nil
}

// SingleBaseID returns AIRTABLE_BASE_ID.
func (c *Config) SingleBaseID() (string, error) {
	if c.BaseID == "" {
		return "", ErrNoBaseID
	}
	return c.BaseID, nil
}

// Placeholder is written by Setup.
var Placeholder = Config{
	Token:  "your_api_key_here",
	BaseID: "your_base_id_here",
}

// Setup creates a config file filled with placeholder values. An existing
// file is left untouched, in which case created is false.
func Setup(path string) (created bool, err error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, errors.Wrapf(err, "failed to stat %s", path)
	}

	buf, err := json.MarshalIndent(Placeholder, "", "  ")
	if err != nil {
		return false, errors.Wrap(err, "failed to encode placeholder config")
	}

	if err := ioutil.WriteFile(path, buf, 0600); err != nil {
		return false, errors.Wrapf(err, "failed to write %s", path)
	}
	return true, nil
}
