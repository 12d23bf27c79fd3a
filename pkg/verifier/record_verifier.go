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

package verifier

import (
	"context"

	"github.com/sage-x-project/didery-go/pkg/record"
)

// RecordVerifier checks record signatures on both the write path (body plus
// Signature header) and the read path (replica envelopes).
type RecordVerifier interface {
	// VerifyWrite parses body as a record of kind and verifies every
	// signature in header against it. The parsed record is returned.
	VerifyWrite(ctx context.Context, kind record.Kind, body []byte, header string) (*record.Record, error)

	// VerifyEnvelope verifies the signatures served with a record.
	VerifyEnvelope(ctx context.Context, env *record.Envelope) error
}
