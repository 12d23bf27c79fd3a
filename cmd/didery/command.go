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

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sage-x-project/didery-go/pkg/client"
	"github.com/sage-x-project/didery-go/pkg/config"
	"github.com/sage-x-project/didery-go/pkg/logging"
	"github.com/sage-x-project/didery-go/pkg/record"
)

// EnvConfig names a config file used when -config is not given.
const EnvConfig = "DIDERY_CONFIG"

// errUsage is returned after the flag package has already reported a
// problem to stderr.
var errUsage = errors.New("usage")

// command carries the parsed state shared by the client commands.
type command struct {
	fs     *flag.FlagSet
	cfg    *config.Config
	kind   string
	stdout io.Writer
	stderr io.Writer
}

func newCommand(name string, stdout, stderr io.Writer) *command {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)

	c := &command{fs: fs, cfg: config.Default(), stdout: stdout, stderr: stderr}
	fs.String("config", os.Getenv(EnvConfig), "config file (JSON or YAML)")
	fs.StringVar(&c.kind, "type", string(record.KindHistory), "record type: history or otp")
	return c
}

// parse loads the config file named by -config, then binds the client
// flags on top of it and parses args.
func (c *command) parse(args []string) error {
	if path := configPath(args); path != "" {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return err
		}
		c.cfg = cfg
	}
	c.cfg.RegisterFlags(c.fs)

	if err := c.fs.Parse(args); err != nil {
		return errUsage
	}
	return c.cfg.Validate()
}

func (c *command) recordKind() (record.Kind, error) {
	switch k := record.Kind(strings.ToLower(c.kind)); k {
	case record.KindHistory, record.KindOTP:
		return k, nil
	default:
		return "", fmt.Errorf("unknown record type %q", c.kind)
	}
}

func (c *command) client() (*client.Client, error) {
	kind, err := c.recordKind()
	if err != nil {
		return nil, err
	}
	log := logging.New(c.cfg.LogLevel, c.stderr)
	return client.New(kind, c.cfg.ClientOptions(log))
}

// configPath finds the -config value in args before the flags are parsed,
// falling back to EnvConfig.
func configPath(args []string) string {
	path := os.Getenv(EnvConfig)
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}

		name := strings.TrimLeft(arg, "-")
		if name == arg {
			continue
		}

		switch {
		case name == "config" && i+1 < len(args):
			path = args[i+1]
			i++
		case strings.HasPrefix(name, "config="):
			path = strings.TrimPrefix(name, "config=")
		}
	}
	return path
}
