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
	"context"
	"crypto/ed25519"
	"time"

	"github.com/sage-x-project/didery-go/pkg/record"
)

const (
	// HeaderName is the HTTP header carrying write signatures.
	HeaderName = "Signature"

	// TagSigner labels the signature made with the current signing key.
	TagSigner = "signer"

	// TagRotation labels the signature made with the rotation key.
	TagRotation = "rotation"

	// TimestampFormat is the layout of the `changed` field.
	TimestampFormat = "2006-01-02T15:04:05.000000+00:00"
)

// RecordSigner prepares records for a replica write.
type RecordSigner interface {
	// Sign stamps `changed` on a copy of rec and signs its canonical form
	// with signingKey.
	Sign(ctx context.Context, rec *record.Record, signingKey ed25519.PrivateKey) (*SignedRecord, error)

	// SignWithRotation is Sign plus a second signature over the same bytes
	// made with rotationKey.
	SignWithRotation(ctx context.Context, rec *record.Record, signingKey, rotationKey ed25519.PrivateKey) (*SignedRecord, error)
}

// SignedRecord is a write payload ready to broadcast.
type SignedRecord struct {
	// Record is the stamped copy. The caller's record is never modified.
	Record *record.Record

	// Body is the canonical serialization of Record and the exact signed bytes.
	Body []byte

	// Signatures maps a tag (TagSigner, TagRotation) to a base64url signature.
	Signatures map[string]string
}

// Header renders the Signature header value for s.
func (s *SignedRecord) Header() string {
	return FormatHeader(s.Signatures)
}

// Timestamp formats t as a `changed` value.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}
