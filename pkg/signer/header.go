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

package signer

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedHeader is returned when a Signature header cannot be parsed.
var ErrMalformedHeader = errors.New("malformed signature header")

// FormatHeader renders signatures as `signer="<sig>"` or
// `signer="<sig>"; rotation="<sig2>"`. Other tags are ignored.
func FormatHeader(signatures map[string]string) string {
	var parts []string

	if sig, ok := signatures[TagSigner]; ok {
		parts = append(parts, fmt.Sprintf(`%s="%s"`, TagSigner, sig))
	}

	if sig, ok := signatures[TagRotation]; ok {
		parts = append(parts, fmt.Sprintf(`%s="%s"`, TagRotation, sig))
	}

	return strings.Join(parts, "; ")
}

// ParseHeader splits a Signature header into tag to signature pairs.
func ParseHeader(header string) (map[string]string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, fmt.Errorf("%w: empty", ErrMalformedHeader)
	}

	signatures := make(map[string]string)

	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		tag, value, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMalformedHeader, part)
		}

		tag = strings.TrimSpace(tag)
		value = strings.Trim(strings.TrimSpace(value), `"`)
		if tag == "" || value == "" {
			return nil, fmt.Errorf("%w: %q", ErrMalformedHeader, part)
		}

		signatures[tag] = value
	}

	if len(signatures) == 0 {
		return nil, fmt.Errorf("%w: no signatures", ErrMalformedHeader)
	}

	return signatures, nil
}
