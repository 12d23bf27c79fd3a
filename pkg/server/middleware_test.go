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

package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sage-x-project/didery-go/pkg/keys"
	"github.com/sage-x-project/didery-go/pkg/record"
	"github.com/sage-x-project/didery-go/pkg/signer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRecordVerifier for testing
type mockRecordVerifier struct {
	rec *record.Record
	err error
}

func (m *mockRecordVerifier) VerifyWrite(ctx context.Context, kind record.Kind, body []byte, header string) (*record.Record, error) {
	return m.rec, m.err
}

func (m *mockRecordVerifier) VerifyEnvelope(ctx context.Context, env *record.Envelope) error {
	return m.err
}

func signedOTP(t *testing.T) (*keys.KeyPair, *signer.SignedRecord) {
	t.Helper()
	kp, err := keys.Generate()
	require.NoError(t, err)

	signed, err := signer.NewDefaultRecordSigner().Sign(context.Background(), record.NewOTP(kp.DID(), "blob"), kp.SigningKey)
	require.NoError(t, err)
	return kp, signed
}

func TestSignatureMiddleware_ValidSignature(t *testing.T) {
	// Setup
	_, signed := signedOTP(t)
	mw := NewSignatureMiddleware(record.KindOTP, "")

	var (
		gotRec  *record.Record
		gotSigs map[string]string
		gotBody []byte
	)
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRec, _ = GetRecordFromContext(r.Context())
		gotSigs, _ = GetSignaturesFromContext(r.Context())
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/otp", bytes.NewReader(signed.Body))
	req.Header.Set(signer.HeaderName, signed.Header())
	rec := httptest.NewRecorder()

	// Execute
	handler.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotRec)
	assert.True(t, gotRec.Equal(signed.Record))
	assert.Equal(t, signed.Signatures, gotSigs)
	assert.Equal(t, signed.Body, gotBody, "body must be restored for the handler")
}

func TestSignatureMiddleware_Rejects(t *testing.T) {
	_, signed := signedOTP(t)
	_, other := signedOTP(t)

	tests := []struct {
		name       string
		body       []byte
		header     string
		wantStatus int
	}{
		{"missing header", signed.Body, "", http.StatusUnauthorized},
		{"malformed header", signed.Body, "nonsense", http.StatusUnauthorized},
		{"foreign signature", signed.Body, other.Header(), http.StatusUnauthorized},
		{"empty body", nil, signed.Header(), http.StatusBadRequest},
		{"not an object", []byte(`[1]`), signed.Header(), http.StatusBadRequest},
		{"missing blob", []byte(`{"id":"did:dad:abc"}`), signed.Header(), http.StatusBadRequest},
	}

	mw := NewSignatureMiddleware(record.KindOTP, "")
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run")
	}))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/otp/x", bytes.NewReader(tt.body))
			if tt.header != "" {
				req.Header.Set(signer.HeaderName, tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestSignatureMiddleware_ReadsPassThrough(t *testing.T) {
	mw := NewSignatureMiddlewareWithVerifier(record.KindOTP, &mockRecordVerifier{err: errors.New("never called")})

	called := false
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		_, ok := GetRecordFromContext(r.Context())
		assert.False(t, ok)
	}))

	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		called = false
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(method, "/otp/x", nil))
		assert.True(t, called, method)
	}
}

func TestSignatureMiddleware_CustomErrorHandler(t *testing.T) {
	mw := NewSignatureMiddlewareWithVerifier(record.KindOTP, &mockRecordVerifier{err: errors.New("nope")})

	var handled error
	mw.SetErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
		handled = err
		w.WriteHeader(http.StatusTeapot)
	})

	handler := mw.Wrap(http.NotFoundHandler())

	req := httptest.NewRequest(http.MethodPost, "/otp", bytes.NewReader([]byte(`{}`)))
	req.Header.Set(signer.HeaderName, `signer="x"`)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.EqualError(t, handled, "nope")
}

func TestGetRecordFromContext_Empty(t *testing.T) {
	_, ok := GetRecordFromContext(context.Background())
	assert.False(t, ok)

	_, ok = GetSignaturesFromContext(context.Background())
	assert.False(t, ok)
}
