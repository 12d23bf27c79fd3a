// Copyright (C) 2025 SAGE-X Project
//
// This file is part of didery-go.
//
// didery-go is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// didery-go is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with didery-go.  If not, see <https://www.gnu.org/licenses/>.

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/sage-x-project/didery-go/pkg/client"
	"github.com/sage-x-project/didery-go/pkg/did"
	"github.com/sage-x-project/didery-go/pkg/logging"
	"github.com/sage-x-project/didery-go/pkg/record"
	"github.com/sage-x-project/didery-go/pkg/types"
	"gopkg.in/yaml.v3"
)

// FieldServers is the config key holding the replica list.
const FieldServers = "servers"

// MsgServersNotList is reported when `servers` is present but not a list.
const MsgServersNotList = `"servers" field must be a list`

// Config holds runtime settings for a didery client.
type Config struct {
	Servers           []string `json:"servers" yaml:"servers"`
	Timeout           Duration `json:"timeout" yaml:"timeout"`
	Method            string   `json:"method" yaml:"method"`
	LogLevel          string   `json:"log_level" yaml:"log_level"`
	MaxInFlight       int      `json:"max_in_flight" yaml:"max_in_flight"`
	RequireSignatures bool     `json:"require_signatures" yaml:"require_signatures"`
}

// Default returns a Config holding the built-in defaults.
func Default() *Config {
	c := &Config{}
	c.LoadDefaults()
	return c
}

// LoadDefaults populates c with the built-in defaults.
func (c *Config) LoadDefaults() {
	c.Servers = append([]string(nil), client.DefaultServers...)
	c.Timeout = Duration(client.DefaultTimeout)
	c.Method = did.DefaultMethod
	c.LogLevel = "info"
	c.MaxInFlight = 0
	c.RequireSignatures = false
}

// LoadFile applies defaults and overlays the file at path. Files ending in
// .yaml or .yml are read as YAML, anything else as JSON. The file must
// carry a `servers` list.
func LoadFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = cfg.overlayYAML(raw)
	default:
		err = cfg.overlayJSON(raw)
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) overlayJSON(raw []byte) error {
	rec, err := record.Parse(raw, FieldServers)
	if err != nil {
		return err
	}

	v, _ := rec.Get(FieldServers)
	if _, ok := v.([]any); !ok {
		return types.NewValidationError(MsgServersNotList)
	}

	if err := json.Unmarshal(raw, c); err != nil {
		return &types.ValidationError{Msg: types.MsgInvalidJSON, Err: err}
	}
	return nil
}

func (c *Config) overlayYAML(raw []byte) error {
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return &types.ValidationError{Msg: "Invalid YAML", Err: err}
	}

	if len(doc) == 0 {
		return types.NewValidationError(types.MsgEmptyBody)
	}

	v, ok := doc[FieldServers]
	if !ok {
		return types.MissingField(FieldServers)
	}
	if _, ok := v.([]any); !ok {
		return types.NewValidationError(MsgServersNotList)
	}

	if err := yaml.Unmarshal(raw, c); err != nil {
		return &types.ValidationError{Msg: "Invalid YAML", Err: err}
	}
	return nil
}

// Validate checks that c can drive a client.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Servers) == 0 {
		errs = append(errs, errors.New("at least one server is required"))
	}

	for _, s := range c.Servers {
		u, err := url.Parse(s)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("invalid server URL %q", s))
		}
	}

	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}

	if c.Method == "" || strings.Contains(c.Method, ":") {
		errs = append(errs, fmt.Errorf("invalid DID method %q", c.Method))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.LogLevel))
	}

	if c.MaxInFlight < 0 {
		errs = append(errs, fmt.Errorf("max_in_flight must not be negative, got %d", c.MaxInFlight))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ClientOptions maps c onto client options using log for diagnostics.
func (c *Config) ClientOptions(log logging.Logger) client.Options {
	return client.Options{
		Servers:           append([]string(nil), c.Servers...),
		Timeout:           c.Timeout.Std(),
		Method:            c.Method,
		Logger:            log,
		RequireSignatures: c.RequireSignatures,
		MaxInFlight:       c.MaxInFlight,
	}
}
