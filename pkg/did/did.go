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

// Package did converts verification keys to and from their text form and
// builds and parses the DIDs that address records on the replicas.
//
// A DID has the form
//
//	did:<method>:<keystr>
//
// where keystr is the URL-safe, unpadded base64 encoding of an Ed25519
// verification key. The encoding is the multibase "base64url" alphabet
// without its leading 'u' code point.
package did

import (
	"crypto/ed25519"
	"fmt"
	"strings"

	"github.com/multiformats/go-multibase"

	"github.com/sage-x-project/didery-go/pkg/types"
)

const (
	// Prefix is the literal first component of every DID.
	Prefix = "did"

	// DefaultMethod is the method token used by the record store.
	DefaultMethod = "dad"
)

// ed25519MulticodecPrefix is the multicodec varint prefix for Ed25519 public keys (0xed01).
var ed25519MulticodecPrefix = []byte{0xed, 0x01}

// DID is a decentralized identifier string. It is never mutated once built.
type DID string

func (d DID) String() string {
	return string(d)
}

// Method returns the method component, or "" if d is not three parts.
func (d DID) Method() string {
	parts := strings.Split(string(d), ":")
	if len(parts) != 3 {
		return ""
	}
	return parts[1]
}

// KeyString returns the encoded verification key component.
func (d DID) KeyString() string {
	parts := strings.Split(string(d), ":")
	if len(parts) != 3 {
		return ""
	}
	return parts[2]
}

// VerificationKey decodes the key component of d.
func (d DID) VerificationKey() (ed25519.PublicKey, error) {
	raw, err := DecodeKey(d.KeyString())
	if err != nil {
		return nil, err
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, &types.DecodeError{
			Input: d.KeyString(),
			Err:   fmt.Errorf("expected %d key bytes, got %d", ed25519.PublicKeySize, len(raw)),
		}
	}
	return ed25519.PublicKey(raw), nil
}

// EncodeKey returns the URL-safe, padding-free base64 text of b.
func EncodeKey(b []byte) string {
	encoded, err := multibase.Encode(multibase.Base64url, b)
	if err != nil {
		// Base64url is a registered encoding; Encode only fails for unknown ones.
		panic(fmt.Sprintf("did: multibase encode: %v", err))
	}
	return encoded[1:]
}

// DecodeKey is the inverse of EncodeKey. Padding, the standard base64
// alphabet and truncated groups are rejected with a *types.DecodeError.
func DecodeKey(text string) ([]byte, error) {
	enc, decoded, err := multibase.Decode(string(rune(multibase.Base64url)) + text)
	if err != nil {
		return nil, &types.DecodeError{Input: text, Err: err}
	}
	if enc != multibase.Base64url {
		return nil, &types.DecodeError{Input: text, Err: fmt.Errorf("unexpected multibase encoding %c", rune(enc))}
	}
	return decoded, nil
}

// New derives the DID for a verification key under DefaultMethod.
// The result depends on the key bytes only.
func New(verificationKey []byte) DID {
	return NewWithMethod(verificationKey, DefaultMethod)
}

// NewWithMethod derives the DID for a verification key under method.
func NewWithMethod(verificationKey []byte, method string) DID {
	return DID(fmt.Sprintf("%s:%s:%s", Prefix, method, EncodeKey(verificationKey)))
}

// Parse validates text as a DID of the expected method and returns it
// together with its key string. Only the shape is checked; decoding the
// key string is left to the caller.
func Parse(text, method string) (DID, string, error) {
	parts := strings.Split(text, ":")
	if len(parts) != 3 {
		return "", "", types.NewValidationError(types.MsgMalformedDID)
	}

	if parts[0] != Prefix || parts[1] != method {
		return "", "", types.NewValidationError(types.MsgInvalidDID)
	}

	return DID(text), parts[2], nil
}

// ToKeyDID returns the W3C did:key form of d, encoding its verification key
// as multibase base58btc with the Ed25519 multicodec prefix.
func ToKeyDID(d DID) (string, error) {
	vk, err := d.VerificationKey()
	if err != nil {
		return "", fmt.Errorf("did: extract verification key: %w", err)
	}

	prefixed := make([]byte, 0, len(ed25519MulticodecPrefix)+len(vk))
	prefixed = append(prefixed, ed25519MulticodecPrefix...)
	prefixed = append(prefixed, vk...)

	encoded, err := multibase.Encode(multibase.Base58BTC, prefixed)
	if err != nil {
		return "", fmt.Errorf("did: multibase encode: %w", err)
	}

	return "did:key:" + encoded, nil
}
