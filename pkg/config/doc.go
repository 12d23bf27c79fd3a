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

// Package config loads runtime configuration for didery clients.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file (see LoadFile), JSON or YAML by extension.
//  3. Command-line flags (see (*Config).RegisterFlags), which override earlier values.
//
// # File schema
//
// Timeouts can be duration strings or numbers of seconds:
//
//	{
//	  "servers": ["http://localhost:8080", "http://localhost:8000"],
//	  "timeout": "10s",
//	  "method": "dad",
//	  "log_level": "info",
//	  "max_in_flight": 0,
//	  "require_signatures": false
//	}
//
// The same keys apply in YAML. A file must carry a `servers` list; JSON
// files are checked with the same rules as replica responses, so errors
// are *types.ValidationError values with the same messages.
package config
