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
	"testing"

	"github.com/sage-x-project/didery-go/pkg/did"
	"github.com/sage-x-project/didery-go/pkg/keys"
	"github.com/sage-x-project/didery-go/pkg/record"
	"github.com/sage-x-project/didery-go/pkg/signer"
	"github.com/sage-x-project/didery-go/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustGenerate(t *testing.T) *keys.KeyPair {
	t.Helper()
	kp, err := keys.Generate()
	require.NoError(t, err)
	return kp
}

func TestDefaultKeySelector_History(t *testing.T) {
	ctx := context.Background()
	first := mustGenerate(t)
	second := mustGenerate(t)
	third := mustGenerate(t)

	signers := []string{
		first.EncodedVerificationKey(),
		second.EncodedVerificationKey(),
		third.EncodedVerificationKey(),
	}

	tests := []struct {
		name    string
		signer  any
		tag     string
		want    ed25519.PublicKey
		wantErr bool
	}{
		{name: "int index", signer: 0, tag: signer.TagSigner, want: first.VerificationKey},
		{name: "json number index", signer: json.Number("2"), tag: signer.TagSigner, want: third.VerificationKey},
		{name: "float index", signer: float64(1), tag: signer.TagSigner, want: second.VerificationKey},
		{name: "rotation is previous key", signer: json.Number("2"), tag: signer.TagRotation, want: second.VerificationKey},
		{name: "rotation at zero", signer: 0, tag: signer.TagRotation, wantErr: true},
		{name: "index out of range", signer: 3, tag: signer.TagSigner, wantErr: true},
		{name: "negative index", signer: -1, tag: signer.TagSigner, wantErr: true},
		{name: "fractional index", signer: 1.5, tag: signer.TagSigner, wantErr: true},
		{name: "non integer json number", signer: json.Number("1.5"), tag: signer.TagSigner, wantErr: true},
		{name: "bool signer", signer: true, tag: signer.TagSigner, wantErr: true},
		{name: "key string signer", signer: first.EncodedVerificationKey(), tag: signer.TagSigner, want: first.VerificationKey},
		{name: "key string signer other than first", signer: second.EncodedVerificationKey(), tag: signer.TagSigner, wantErr: true},
		{name: "key string cannot rotate", signer: first.EncodedVerificationKey(), tag: signer.TagRotation, wantErr: true},
		{name: "unknown tag", signer: 0, tag: "other", wantErr: true},
	}

	sel := NewDefaultKeySelector("")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := record.NewHistory(first.DID(), tt.signer, signers)

			got, err := sel.SelectKey(ctx, rec, record.KindHistory, tt.tag)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultKeySelector_History_BadSigners(t *testing.T) {
	ctx := context.Background()
	kp := mustGenerate(t)
	sel := NewDefaultKeySelector(did.DefaultMethod)

	t.Run("signers not a list", func(t *testing.T) {
		rec := record.New().Set(record.FieldID, kp.DID().String()).Set(record.FieldSigner, 0).Set(record.FieldSigners, "x")
		_, err := sel.SelectKey(ctx, rec, record.KindHistory, signer.TagSigner)
		assert.ErrorIs(t, err, ErrNoKey)
	})

	t.Run("signer entry not a string", func(t *testing.T) {
		rec := record.New().Set(record.FieldID, kp.DID().String()).Set(record.FieldSigner, 0).Set(record.FieldSigners, []any{42})
		_, err := sel.SelectKey(ctx, rec, record.KindHistory, signer.TagSigner)
		assert.ErrorIs(t, err, ErrNoKey)
	})

	t.Run("empty signers", func(t *testing.T) {
		rec := record.NewHistory(kp.DID(), 0, nil)
		_, err := sel.SelectKey(ctx, rec, record.KindHistory, signer.TagSigner)
		assert.ErrorIs(t, err, ErrNoKey)
	})

	t.Run("short key", func(t *testing.T) {
		rec := record.NewHistory(kp.DID(), 1, []string{kp.EncodedVerificationKey(), did.EncodeKey([]byte("short"))})
		_, err := sel.SelectKey(ctx, rec, record.KindHistory, signer.TagSigner)
		assert.ErrorIs(t, err, ErrNoKey)
	})

	t.Run("undecodable key", func(t *testing.T) {
		rec := record.NewHistory(kp.DID(), 1, []string{kp.EncodedVerificationKey(), "not base64!"})
		_, err := sel.SelectKey(ctx, rec, record.KindHistory, signer.TagSigner)
		assert.ErrorIs(t, err, types.ErrDecode)
	})

	t.Run("missing signer", func(t *testing.T) {
		rec := record.New().Set(record.FieldID, kp.DID().String())
		_, err := sel.SelectKey(ctx, rec, record.KindHistory, signer.TagSigner)
		assert.ErrorIs(t, err, ErrNoKey)
	})
}

func TestDefaultKeySelector_History_AnchoredToDID(t *testing.T) {
	ctx := context.Background()
	victim := mustGenerate(t)
	attacker := mustGenerate(t)
	sel := NewDefaultKeySelector(did.DefaultMethod)

	tests := []struct {
		name    string
		signer  any
		signers []string
	}{
		{
			name:    "key string signer outside signers",
			signer:  attacker.EncodedVerificationKey(),
			signers: []string{victim.EncodedVerificationKey()},
		},
		{
			name:    "first signer is not the DID key",
			signer:  0,
			signers: []string{attacker.EncodedVerificationKey()},
		},
		{
			name:    "rotated from a foreign key",
			signer:  1,
			signers: []string{attacker.EncodedVerificationKey(), attacker.EncodedVerificationKey()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := record.NewHistory(victim.DID(), tt.signer, tt.signers)
			for _, tag := range []string{signer.TagSigner, signer.TagRotation} {
				_, err := sel.SelectKey(ctx, rec, record.KindHistory, tag)
				assert.ErrorIs(t, err, ErrNoKey, tag)
			}
		})
	}
}

func TestSignerIndex(t *testing.T) {
	kp := mustGenerate(t)
	vk := kp.EncodedVerificationKey()

	idx, err := SignerIndex(record.NewHistory(kp.DID(), json.Number("3"), []string{vk}))
	require.NoError(t, err)
	assert.Equal(t, 3, idx)

	idx, err = SignerIndex(record.NewHistory(kp.DID(), vk, []string{vk}))
	require.NoError(t, err)
	assert.Zero(t, idx)

	_, err = SignerIndex(record.NewHistory(kp.DID(), mustGenerate(t).EncodedVerificationKey(), []string{vk}))
	assert.ErrorIs(t, err, ErrNoKey)
}

func TestDefaultKeySelector_OTP(t *testing.T) {
	ctx := context.Background()
	kp := mustGenerate(t)
	sel := NewDefaultKeySelector(did.DefaultMethod)

	got, err := sel.SelectKey(ctx, record.NewOTP(kp.DID(), "blob"), record.KindOTP, signer.TagSigner)
	require.NoError(t, err)
	assert.Equal(t, kp.VerificationKey, got)

	other := did.NewWithMethod(kp.VerificationKey, "igo")
	_, err = sel.SelectKey(ctx, record.NewOTP(other, "blob"), record.KindOTP, signer.TagSigner)
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestDefaultKeySelector_Errors(t *testing.T) {
	sel := NewDefaultKeySelector(did.DefaultMethod)

	_, err := sel.SelectKey(context.Background(), nil, record.KindOTP, signer.TagSigner)
	assert.ErrorIs(t, err, ErrNoKey)

	_, err = sel.SelectKey(context.Background(), record.New(), record.Kind("other"), signer.TagSigner)
	assert.ErrorIs(t, err, ErrNoKey)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = sel.SelectKey(ctx, record.New(), record.KindOTP, signer.TagSigner)
	assert.ErrorIs(t, err, context.Canceled)
}
