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
	"flag"
	"strings"
)

// RegisterFlags binds flags on fs that override c when parsed. Call it
// after defaults and the config file have been applied.
//
//	-servers string      comma-separated replica base URLs
//	-timeout duration    fan-out deadline ("10s", or seconds)
//	-method string       DID method
//	-log-level string    debug, info, warn or error
//	-max-in-flight int   concurrent replica requests, 0 for no bound
//	-require-signatures  verify replica envelope signatures before voting
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.Func("servers", "comma-separated replica base URLs", func(s string) error {
		var servers []string
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				servers = append(servers, part)
			}
		}
		c.Servers = servers
		return nil
	})

	fs.Func("timeout", "fan-out deadline, e.g. 10s", func(s string) error {
		return c.Timeout.parse(s)
	})

	fs.StringVar(&c.Method, "method", c.Method, "DID method")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug, info, warn, error")
	fs.IntVar(&c.MaxInFlight, "max-in-flight", c.MaxInFlight, "concurrent replica requests (0 for no bound)")
	fs.BoolVar(&c.RequireSignatures, "require-signatures", c.RequireSignatures, "verify replica envelope signatures before voting")
}
