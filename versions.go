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

// Package didery provides version information for didery-go.
package didery

import "github.com/sage-x-project/didery-go/pkg/did"

const (
	// Version is the current version of didery-go
	Version = "0.1.0"

	// DefaultMethod is the DID method this client resolves by default
	DefaultMethod = did.DefaultMethod

	// CanonicalForm names the serialization signed on writes: insertion-ordered
	// keys with compact separators
	CanonicalForm = "json-compact-insertion-order"
)

// VersionInfo contains detailed version information
type VersionInfo struct {
	DideryVersion string
	DefaultMethod string
	CanonicalForm string
}

// GetVersionInfo returns detailed version information
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		DideryVersion: Version,
		DefaultMethod: DefaultMethod,
		CanonicalForm: CanonicalForm,
	}
}

// UserAgent is the User-Agent header value sent to replicas.
func UserAgent() string {
	return "didery-go/" + Version
}
