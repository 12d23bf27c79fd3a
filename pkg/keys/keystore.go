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

package keys

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"

	"github.com/sage-x-project/didery-go/pkg/did"
)

// argon2id parameters for sealing signing keys.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	saltSize     = 16
)

// ErrWrongPassphrase is returned when a sealed key cannot be opened.
var ErrWrongPassphrase = errors.New("keys: wrong passphrase or corrupted key file")

// KeyFile is the on-disk form of a key pair. The signing key is stored
// either as plain base64url text or sealed with a passphrase, never both.
type KeyFile struct {
	ID              string      `json:"id"`
	DID             string      `json:"did"`
	VerificationKey string      `json:"verifyKey"`
	SigningKey      string      `json:"signingKey,omitempty"`
	Sealed          *SealedData `json:"sealed,omitempty"`
	Created         string      `json:"created"`
}

// SealedData is an AES-GCM ciphertext under an argon2id-derived key.
type SealedData struct {
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
}

// NewKeyFile builds a KeyFile for kp. With a non-empty passphrase the
// signing key is sealed; otherwise it is stored as text.
func NewKeyFile(kp *KeyPair, passphrase []byte, now time.Time) (*KeyFile, error) {
	kf := &KeyFile{
		ID:              uuid.NewString(),
		DID:             kp.DID().String(),
		VerificationKey: kp.EncodedVerificationKey(),
		Created:         now.UTC().Format(time.RFC3339),
	}

	if len(passphrase) == 0 {
		kf.SigningKey = kp.EncodedSigningKey()
		return kf, nil
	}

	sealed, err := seal(kp.SigningKey, passphrase)
	if err != nil {
		return nil, err
	}
	kf.Sealed = sealed
	return kf, nil
}

// Open returns the key pair stored in kf, unsealing the signing key with
// passphrase when needed.
func (kf *KeyFile) Open(passphrase []byte) (*KeyPair, error) {
	var sk []byte
	switch {
	case kf.Sealed != nil:
		opened, err := unseal(kf.Sealed, passphrase)
		if err != nil {
			return nil, err
		}
		sk = opened
	case kf.SigningKey != "":
		decoded, err := did.DecodeKey(kf.SigningKey)
		if err != nil {
			return nil, fmt.Errorf("keys: decode signing key: %w", err)
		}
		sk = decoded
	default:
		return nil, fmt.Errorf("keys: key file %s has no signing key", kf.ID)
	}

	kp, err := FromSigningKey(sk)
	if err != nil {
		return nil, err
	}

	if kf.VerificationKey != "" && kf.VerificationKey != kp.EncodedVerificationKey() {
		return nil, fmt.Errorf("keys: key file %s: verification key does not match signing key", kf.ID)
	}
	return kp, nil
}

// SaveKeyFile writes kf to path with owner-only permissions.
func SaveKeyFile(path string, kf *KeyFile) error {
	data, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return fmt.Errorf("keys: marshal key file: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("keys: write key file: %w", err)
	}
	return nil
}

// LoadKeyFile reads a KeyFile from path.
func LoadKeyFile(path string) (*KeyFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("keys: read key file: %w", err)
	}

	var kf KeyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("keys: parse key file: %w", err)
	}
	return &kf, nil
}

func deriveKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

func seal(plaintext, passphrase []byte) (*SealedData, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("keys: read salt: %w", err)
	}

	aesgcm, err := newGCM(deriveKey(passphrase, salt))
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aesgcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("keys: read nonce: %w", err)
	}

	return &SealedData{
		Salt:       did.EncodeKey(salt),
		Nonce:      did.EncodeKey(nonce),
		Ciphertext: did.EncodeKey(aesgcm.Seal(nil, nonce, plaintext, nil)),
	}, nil
}

func unseal(s *SealedData, passphrase []byte) ([]byte, error) {
	salt, err := did.DecodeKey(s.Salt)
	if err != nil {
		return nil, fmt.Errorf("keys: decode salt: %w", err)
	}
	nonce, err := did.DecodeKey(s.Nonce)
	if err != nil {
		return nil, fmt.Errorf("keys: decode nonce: %w", err)
	}
	ciphertext, err := did.DecodeKey(s.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("keys: decode ciphertext: %w", err)
	}

	aesgcm, err := newGCM(deriveKey(passphrase, salt))
	if err != nil {
		return nil, err
	}
	if len(nonce) != aesgcm.NonceSize() {
		return nil, ErrWrongPassphrase
	}

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("keys: new cipher: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("keys: new GCM: %w", err)
	}
	return aesgcm, nil
}
