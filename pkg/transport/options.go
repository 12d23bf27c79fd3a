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

package transport

import (
	"net/http"

	"github.com/sage-x-project/didery-go/pkg/logging"
)

// Doer sends a single HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithDoer replaces the HTTP client used for every replica.
//
// Example:
//
//	o := transport.NewOrchestrator(
//	    transport.WithDoer(&http.Client{Transport: myRoundTripper}),
//	)
func WithDoer(d Doer) Option {
	return func(o *Orchestrator) {
		if d != nil {
			o.doer = d
		}
	}
}

// WithLogger sets the logger used for dispatch and failure diagnostics.
func WithLogger(l logging.Logger) Option {
	return func(o *Orchestrator) {
		o.log = logging.OrNop(l)
	}
}

// WithMaxInFlight bounds how many replica requests run at once. Zero or a
// negative value means no bound.
func WithMaxInFlight(n int) Option {
	return func(o *Orchestrator) {
		o.maxInFlight = n
	}
}

// WithMaxBodySize caps how much of each response body is read.
func WithMaxBodySize(n int64) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxBodySize = n
		}
	}
}
