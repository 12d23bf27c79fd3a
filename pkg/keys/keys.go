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

// Package keys generates Ed25519 key pairs and produces and checks detached
// signatures over raw bytes or over base64url-encoded key text.
package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/sage-x-project/didery-go/pkg/did"
)

// SeedSize is the length of the random seed a key pair is derived from.
const SeedSize = ed25519.SeedSize

// KeyPair holds a verification key and the signing key derived with it.
// The signing key never leaves its owner; only signatures are transmitted.
type KeyPair struct {
	VerificationKey ed25519.PublicKey
	SigningKey      ed25519.PrivateKey
}

// Generate draws a fresh random seed and derives a key pair from it.
func Generate() (*KeyPair, error) {
	seed := make([]byte, SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("keys: read random seed: %w", err)
	}
	return FromSeed(seed)
}

// FromSeed derives a key pair deterministically from seed.
func FromSeed(seed []byte) (*KeyPair, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("keys: invalid seed length %d, want %d", len(seed), SeedSize)
	}

	sk := ed25519.NewKeyFromSeed(seed)
	return &KeyPair{
		VerificationKey: sk.Public().(ed25519.PublicKey),
		SigningKey:      sk,
	}, nil
}

// FromSigningKey rebuilds a key pair from a 64-byte signing key.
func FromSigningKey(sk []byte) (*KeyPair, error) {
	if len(sk) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("keys: invalid signing key length %d, want %d", len(sk), ed25519.PrivateKeySize)
	}
	priv := ed25519.PrivateKey(append([]byte(nil), sk...))
	return &KeyPair{
		VerificationKey: priv.Public().(ed25519.PublicKey),
		SigningKey:      priv,
	}, nil
}

// DID returns the identifier derived from the verification key.
func (kp *KeyPair) DID() did.DID {
	return did.New(kp.VerificationKey)
}

// EncodedVerificationKey returns the base64url text of the verification key.
func (kp *KeyPair) EncodedVerificationKey() string {
	return did.EncodeKey(kp.VerificationKey)
}

// EncodedSigningKey returns the base64url text of the signing key.
func (kp *KeyPair) EncodedSigningKey() string {
	return did.EncodeKey(kp.SigningKey)
}

// Sign returns the detached signature of message under signingKey.
// The message is signed exactly as given; canonical serialization is the
// caller's job.
func Sign(message, signingKey []byte) ([]byte, error) {
	if len(signingKey) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("keys: invalid signing key length %d, want %d", len(signingKey), ed25519.PrivateKeySize)
	}
	return ed25519.Sign(ed25519.PrivateKey(signingKey), message), nil
}

// Verify reports whether signature is valid for message under
// verificationKey. Malformed input yields false; Verify never panics.
func Verify(signature, message, verificationKey []byte) bool {
	if len(verificationKey) != ed25519.PublicKeySize || len(signature) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(verificationKey), message, signature)
}

// SignText signs message with a base64url-encoded signing key and returns
// the base64url-encoded signature, ready for an HTTP header value.
func SignText(message []byte, signingKey string) (string, error) {
	sk, err := did.DecodeKey(signingKey)
	if err != nil {
		return "", fmt.Errorf("keys: decode signing key: %w", err)
	}

	sig, err := Sign(message, sk)
	if err != nil {
		return "", err
	}
	return did.EncodeKey(sig), nil
}

// VerifyText is Verify over base64url-encoded signature and key text.
// Undecodable text yields false.
func VerifyText(signature string, message []byte, verificationKey string) bool {
	sig, err := did.DecodeKey(signature)
	if err != nil {
		return false
	}
	vk, err := did.DecodeKey(verificationKey)
	if err != nil {
		return false
	}
	return Verify(sig, message, vk)
}
