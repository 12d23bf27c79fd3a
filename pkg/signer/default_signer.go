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
	"errors"
	"fmt"
	"time"

	"github.com/sage-x-project/didery-go/pkg/did"
	"github.com/sage-x-project/didery-go/pkg/keys"
	"github.com/sage-x-project/didery-go/pkg/record"
)

// DefaultRecordSigner implements RecordSigner with Ed25519.
type DefaultRecordSigner struct {
	now func() time.Time
}

// NewDefaultRecordSigner creates a signer that stamps records with the
// current UTC time.
func NewDefaultRecordSigner() *DefaultRecordSigner {
	return &DefaultRecordSigner{now: time.Now}
}

// NewDefaultRecordSignerWithClock creates a signer that reads time from now.
func NewDefaultRecordSignerWithClock(now func() time.Time) *DefaultRecordSigner {
	if now == nil {
		now = time.Now
	}
	return &DefaultRecordSigner{now: now}
}

// Sign signs rec with the current signing key
func (s *DefaultRecordSigner) Sign(ctx context.Context, rec *record.Record, signingKey ed25519.PrivateKey) (*SignedRecord, error) {
	return s.sign(ctx, rec, signingKey, nil)
}

// SignWithRotation signs rec with both the current and the rotation key
func (s *DefaultRecordSigner) SignWithRotation(ctx context.Context, rec *record.Record, signingKey, rotationKey ed25519.PrivateKey) (*SignedRecord, error) {
	if len(rotationKey) == 0 {
		return nil, errors.New("rotation key cannot be empty")
	}
	return s.sign(ctx, rec, signingKey, rotationKey)
}

func (s *DefaultRecordSigner) sign(ctx context.Context, rec *record.Record, signingKey, rotationKey ed25519.PrivateKey) (*SignedRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	if rec == nil {
		return nil, errors.New("record cannot be nil")
	}

	if len(signingKey) == 0 {
		return nil, errors.New("signing key cannot be empty")
	}

	stamped := rec.Clone().Set(record.FieldChanged, Timestamp(s.now()))

	body, err := stamped.Canonical()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize record: %w", err)
	}

	sig, err := keys.Sign(body, signingKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}

	signatures := map[string]string{TagSigner: did.EncodeKey(sig)}

	if rotationKey != nil {
		rot, err := keys.Sign(body, rotationKey)
		if err != nil {
			return nil, fmt.Errorf("failed to sign with rotation key: %w", err)
		}
		signatures[TagRotation] = did.EncodeKey(rot)
	}

	return &SignedRecord{
		Record:     stamped,
		Body:       body,
		Signatures: signatures,
	}, nil
}
