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
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/sage-x-project/didery-go/pkg/did"
	"github.com/sage-x-project/didery-go/pkg/record"
	"github.com/sage-x-project/didery-go/pkg/signer"
)

// ErrNoKey is returned when a record does not name a usable key.
var ErrNoKey = errors.New("no verification key")

// DefaultKeySelector reads keys out of the record itself.
//
// History records: signers[0] must be the key embedded in the id DID. The
// signer signature checks against signers[signer] and the rotation
// signature against signers[signer-1]. A signer field holding a key string
// instead of an index must equal signers[0] and is treated as index 0.
//
// OTP records: both tags check against the key embedded in the id DID.
type DefaultKeySelector struct {
	method string
}

// NewDefaultKeySelector creates a selector that accepts DIDs of method.
func NewDefaultKeySelector(method string) *DefaultKeySelector {
	if method == "" {
		method = did.DefaultMethod
	}
	return &DefaultKeySelector{method: method}
}

// SelectKey selects the key for tag
func (s *DefaultKeySelector) SelectKey(ctx context.Context, rec *record.Record, kind record.Kind, tag string) (ed25519.PublicKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	if rec == nil {
		return nil, fmt.Errorf("%w: nil record", ErrNoKey)
	}

	switch kind {
	case record.KindHistory:
		return s.selectHistoryKey(rec, tag)
	case record.KindOTP:
		return s.selectDIDKey(rec)
	default:
		return nil, fmt.Errorf("%w: unknown record kind %q", ErrNoKey, kind)
	}
}

func (s *DefaultKeySelector) selectHistoryKey(rec *record.Record, tag string) (ed25519.PublicKey, error) {
	signers, err := Signers(rec)
	if err != nil {
		return nil, err
	}

	_, didKey, err := did.Parse(rec.ID(), s.method)
	if err != nil {
		return nil, err
	}
	if signers[0] != didKey {
		return nil, fmt.Errorf("%w: signers[0] is not the key of %s", ErrNoKey, rec.ID())
	}

	idx, err := SignerIndex(rec)
	if err != nil {
		return nil, err
	}

	switch tag {
	case signer.TagSigner:
	case signer.TagRotation:
		idx--
	default:
		return nil, fmt.Errorf("%w: unknown signature tag %q", ErrNoKey, tag)
	}

	if idx < 0 || idx >= len(signers) {
		return nil, fmt.Errorf("%w: %s index %d out of range", ErrNoKey, tag, idx)
	}
	return decodeVerificationKey(signers[idx])
}

// Signers returns the signers list of a history record. Every entry must
// be a string and the list must not be empty.
func Signers(rec *record.Record) ([]string, error) {
	v, ok := rec.Get(record.FieldSigners)
	if !ok {
		return nil, fmt.Errorf("%w: missing %s field", ErrNoKey, record.FieldSigners)
	}

	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a list", ErrNoKey, record.FieldSigners)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrNoKey, record.FieldSigners)
	}

	out := make([]string, len(list))
	for i, e := range list {
		text, ok := e.(string)
		if !ok {
			return nil, fmt.Errorf("%w: signers[%d] is not a string", ErrNoKey, i)
		}
		out[i] = text
	}
	return out, nil
}

// SignerIndex returns the position of the current key in a history
// record's signers list. A key string signer counts as index 0 and must
// equal signers[0].
func SignerIndex(rec *record.Record) (int, error) {
	raw, ok := rec.Get(record.FieldSigner)
	if !ok {
		return 0, fmt.Errorf("%w: missing %s field", ErrNoKey, record.FieldSigner)
	}

	text, ok := raw.(string)
	if !ok {
		return signerIndex(raw)
	}

	signers, err := Signers(rec)
	if err != nil {
		return 0, err
	}
	if text != signers[0] {
		return 0, fmt.Errorf("%w: key string signer must be signers[0]", ErrNoKey)
	}
	return 0, nil
}

func (s *DefaultKeySelector) selectDIDKey(rec *record.Record) (ed25519.PublicKey, error) {
	_, keyStr, err := did.Parse(rec.ID(), s.method)
	if err != nil {
		return nil, err
	}
	return decodeVerificationKey(keyStr)
}

// signerIndex accepts the numeric forms a decoded or locally built record
// may carry.
func signerIndex(v any) (int, error) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: signer %q is not an integer", ErrNoKey, n)
		}
		return int(i), nil
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%w: signer %v is not an integer", ErrNoKey, n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("%w: signer has type %T", ErrNoKey, v)
	}
}

func decodeVerificationKey(text string) (ed25519.PublicKey, error) {
	b, err := did.DecodeKey(text)
	if err != nil {
		return nil, err
	}
	if len(b) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: key is %d bytes, want %d", ErrNoKey, len(b), ed25519.PublicKeySize)
	}
	return ed25519.PublicKey(b), nil
}
