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

package did

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/didery-go/pkg/types"
)

func TestEncodeDecodeKey_RoundTrip(t *testing.T) {
	for _, size := range []int{ed25519.PublicKeySize, ed25519.PrivateKeySize, ed25519.SignatureSize} {
		b := make([]byte, size)
		_, err := rand.Read(b)
		require.NoError(t, err)

		text := EncodeKey(b)
		assert.NotContains(t, text, "=")
		assert.NotContains(t, text, "+")
		assert.NotContains(t, text, "/")

		decoded, err := DecodeKey(text)
		require.NoError(t, err)
		assert.Equal(t, b, decoded)
	}
}

func TestEncodeKey_URLSafeAlphabet(t *testing.T) {
	// 0xfb 0xff encodes to "+/8" in the standard alphabet.
	assert.Equal(t, "-_8", EncodeKey([]byte{0xfb, 0xff}))
}

func TestDecodeKey_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"padding", "-_8="},
		{"standard alphabet", "+/8"},
		{"truncated group", "A"},
		{"garbage", "not base64!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeKey(tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, types.ErrDecode))
		})
	}
}

func TestNew_Deterministic(t *testing.T) {
	vk, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	first := New(vk)
	second := New(append([]byte(nil), vk...))

	assert.Equal(t, first, second)
	assert.True(t, strings.HasPrefix(first.String(), "did:dad:"))
	assert.Equal(t, DefaultMethod, first.Method())
	assert.Equal(t, EncodeKey(vk), first.KeyString())

	decoded, err := first.VerificationKey()
	require.NoError(t, err)
	assert.Equal(t, ed25519.PublicKey(vk), decoded)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		method  string
		wantKey string
		wantMsg string
	}{
		{name: "valid", input: "did:dad:abc", method: "dad", wantKey: "abc"},
		{name: "other method", input: "did:igo:Xq5YqaL6", method: "igo", wantKey: "Xq5YqaL6"},
		{name: "empty key passes shape check", input: "did:dad:", method: "dad", wantKey: ""},
		{name: "two parts", input: "did:dad", method: "dad", wantMsg: types.MsgMalformedDID},
		{name: "four parts", input: "did:dad:abc:def", method: "dad", wantMsg: types.MsgMalformedDID},
		{name: "no colon", input: "diddadabc", method: "dad", wantMsg: types.MsgMalformedDID},
		{name: "wrong prefix", input: "dud:dad:abc", method: "dad", wantMsg: types.MsgInvalidDID},
		{name: "wrong method", input: "did:key:abc", method: "dad", wantMsg: types.MsgInvalidDID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, key, err := Parse(tt.input, tt.method)
			if tt.wantMsg != "" {
				require.Error(t, err)
				assert.True(t, errors.Is(err, types.ErrValidation))
				assert.Equal(t, tt.wantMsg, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, DID(tt.input), d)
			assert.Equal(t, tt.wantKey, key)
		})
	}
}

func TestVerificationKey_WrongLength(t *testing.T) {
	d := NewWithMethod([]byte{1, 2, 3}, DefaultMethod)

	_, err := d.VerificationKey()
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrDecode))
}

func TestToKeyDID(t *testing.T) {
	vk, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	keyDID, err := ToKeyDID(New(vk))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(keyDID, "did:key:z"))

	again, err := ToKeyDID(New(vk))
	require.NoError(t, err)
	assert.Equal(t, keyDID, again)

	_, err = ToKeyDID(DID("did:dad:AQID"))
	assert.Error(t, err)
}
