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
	"errors"
	"fmt"

	"github.com/sage-x-project/didery-go/pkg/did"
	"github.com/sage-x-project/didery-go/pkg/keys"
	"github.com/sage-x-project/didery-go/pkg/record"
	"github.com/sage-x-project/didery-go/pkg/signer"
)

var (
	// ErrMissingSignature is returned when a required signature is absent.
	ErrMissingSignature = errors.New("missing signature")

	// ErrInvalidSignature is returned when a signature does not verify.
	ErrInvalidSignature = errors.New("invalid signature")
)

// DefaultRecordVerifier implements RecordVerifier with Ed25519.
type DefaultRecordVerifier struct {
	selector KeySelector
	method   string
}

// NewDefaultRecordVerifier creates a verifier for DIDs of method. A nil
// selector means NewDefaultKeySelector(method).
func NewDefaultRecordVerifier(selector KeySelector, method string) *DefaultRecordVerifier {
	if method == "" {
		method = did.DefaultMethod
	}
	if selector == nil {
		selector = NewDefaultKeySelector(method)
	}
	return &DefaultRecordVerifier{
		selector: selector,
		method:   method,
	}
}

// VerifyWrite verifies a write request body
func (v *DefaultRecordVerifier) VerifyWrite(ctx context.Context, kind record.Kind, body []byte, header string) (*record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	if header == "" {
		return nil, fmt.Errorf("%w: no %s header", ErrMissingSignature, signer.HeaderName)
	}

	signatures, err := signer.ParseHeader(header)
	if err != nil {
		return nil, err
	}

	rec, err := record.Parse(body, kind.RequiredFields()...)
	if err != nil {
		return nil, err
	}

	if err := record.Validate(rec, kind, v.method); err != nil {
		return nil, err
	}

	if err := v.verify(ctx, rec, kind, body, signatures); err != nil {
		return nil, err
	}
	return rec, nil
}

// VerifyEnvelope verifies the signatures served next to a record. The
// signed bytes are the record's canonical form. A history record past its
// first key must carry the rotation signature as well.
func (v *DefaultRecordVerifier) VerifyEnvelope(ctx context.Context, env *record.Envelope) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if env == nil || env.Record == nil {
		return errors.New("envelope cannot be empty")
	}

	body, err := env.Record.Canonical()
	if err != nil {
		return fmt.Errorf("failed to serialize record: %w", err)
	}

	return v.verify(ctx, env.Record, env.Kind, body, env.Signatures)
}

// verify checks every signature present. The signer signature is always
// required; a history past its first key also needs the rotation signature
// of the key before it.
func (v *DefaultRecordVerifier) verify(ctx context.Context, rec *record.Record, kind record.Kind, body []byte, signatures map[string]string) error {
	required := []string{signer.TagSigner}
	if kind == record.KindHistory {
		idx, err := SignerIndex(rec)
		if err != nil {
			return fmt.Errorf("failed to select %s key: %w", signer.TagSigner, err)
		}
		if idx > 0 {
			required = append(required, signer.TagRotation)
		}
	}

	for _, tag := range required {
		if _, ok := signatures[tag]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingSignature, tag)
		}
	}

	for _, tag := range []string{signer.TagSigner, signer.TagRotation} {
		sig, ok := signatures[tag]
		if !ok {
			continue
		}

		vk, err := v.selector.SelectKey(ctx, rec, kind, tag)
		if err != nil {
			return fmt.Errorf("failed to select %s key: %w", tag, err)
		}

		raw, err := did.DecodeKey(sig)
		if err != nil || !keys.Verify(raw, body, vk) {
			return fmt.Errorf("%w: %s", ErrInvalidSignature, tag)
		}
	}
	return nil
}
