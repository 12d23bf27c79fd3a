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

package client

import (
	"net/http"
	"time"

	"github.com/sage-x-project/didery-go/pkg/did"
	"github.com/sage-x-project/didery-go/pkg/logging"
	"github.com/sage-x-project/didery-go/pkg/signer"
	"github.com/sage-x-project/didery-go/pkg/transport"
	"github.com/sage-x-project/didery-go/pkg/verifier"
)

// DefaultTimeout is the fan-out deadline used when Options.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// DefaultServers are the replicas used when Options.Servers is empty.
var DefaultServers = []string{"http://localhost:8080", "http://localhost:8000"}

// Options configures a Client. The zero value is usable.
type Options struct {
	// Servers are the replica base URLs.
	Servers []string

	// Timeout is the shared deadline of one fan-out call.
	Timeout time.Duration

	// Method is the DID method records must use.
	Method string

	// Logger receives diagnostics. Nil discards them.
	Logger logging.Logger

	// HTTPClient sends replica requests. Nil means a plain *http.Client.
	HTTPClient transport.Doer

	// Signer prepares writes. Nil means signer.NewDefaultRecordSigner().
	Signer signer.RecordSigner

	// Verifier checks signed envelopes when RequireSignatures is set.
	// Nil means verifier.NewDefaultRecordVerifier(nil, Method).
	Verifier verifier.RecordVerifier

	// RequireSignatures drops replicas whose envelope signature does not
	// verify before voting.
	RequireSignatures bool

	// MaxInFlight bounds concurrent replica requests. Zero means no bound.
	MaxInFlight int
}

func (o Options) withDefaults() Options {
	if len(o.Servers) == 0 {
		o.Servers = append([]string(nil), DefaultServers...)
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Method == "" {
		o.Method = did.DefaultMethod
	}
	o.Logger = logging.OrNop(o.Logger)
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{}
	}
	if o.Signer == nil {
		o.Signer = signer.NewDefaultRecordSigner()
	}
	if o.Verifier == nil {
		o.Verifier = verifier.NewDefaultRecordVerifier(nil, o.Method)
	}
	return o
}
