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
	"fmt"
	"io"
	"net/http"

	"github.com/sage-x-project/didery-go/pkg/record"
	"github.com/sage-x-project/didery-go/pkg/signer"
	"github.com/sage-x-project/didery-go/pkg/types"
	"github.com/sage-x-project/didery-go/pkg/verifier"
)

type contextKey string

const (
	recordKey     contextKey = "record"
	signaturesKey contextKey = "signatures"
)

// MaxBodySize caps write bodies accepted by the middleware.
const MaxBodySize = 1 << 20

// ErrorHandler handles verification errors
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// SignatureMiddleware verifies the Signature header of record writes
// against the request body before the wrapped handler runs.
type SignatureMiddleware struct {
	kind         record.Kind
	verifier     verifier.RecordVerifier
	errorHandler ErrorHandler
}

// NewSignatureMiddleware creates middleware for writes of kind with DIDs of method.
func NewSignatureMiddleware(kind record.Kind, method string) *SignatureMiddleware {
	return NewSignatureMiddlewareWithVerifier(kind, verifier.NewDefaultRecordVerifier(nil, method))
}

// NewSignatureMiddlewareWithVerifier creates middleware with a custom verifier
func NewSignatureMiddlewareWithVerifier(kind record.Kind, v verifier.RecordVerifier) *SignatureMiddleware {
	return &SignatureMiddleware{
		kind:         kind,
		verifier:     v,
		errorHandler: defaultErrorHandler,
	}
}

// SetErrorHandler sets a custom error handler
func (m *SignatureMiddleware) SetErrorHandler(handler ErrorHandler) {
	m.errorHandler = handler
}

// Wrap wraps an HTTP handler with write signature verification. Reads
// (GET, HEAD, OPTIONS) pass through untouched.
func (m *SignatureMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get(signer.HeaderName)
		if header == "" {
			m.errorHandler(w, r, fmt.Errorf("%w: no %s header", verifier.ErrMissingSignature, signer.HeaderName))
			return
		}

		var body []byte
		if r.Body != nil {
			var err error
			body, err = io.ReadAll(io.LimitReader(r.Body, MaxBodySize))
			r.Body.Close()
			if err != nil {
				m.errorHandler(w, r, fmt.Errorf("failed to read body: %w", err))
				return
			}
		}

		ctx := r.Context()
		rec, err := m.verifier.VerifyWrite(ctx, m.kind, body, header)
		if err != nil {
			m.errorHandler(w, r, err)
			return
		}

		// VerifyWrite already accepted the header.
		signatures, _ := signer.ParseHeader(header)

		ctx = context.WithValue(ctx, recordKey, rec)
		ctx = context.WithValue(ctx, signaturesKey, signatures)

		r = r.WithContext(ctx)
		r.Body = io.NopCloser(bytes.NewReader(body))

		next.ServeHTTP(w, r)
	})
}

// GetRecordFromContext returns the verified record of a write.
func GetRecordFromContext(ctx context.Context) (*record.Record, bool) {
	rec, ok := ctx.Value(recordKey).(*record.Record)
	return rec, ok
}

// GetSignaturesFromContext returns the verified signatures of a write.
func GetSignaturesFromContext(ctx context.Context) (map[string]string, bool) {
	sigs, ok := ctx.Value(signaturesKey).(map[string]string)
	return sigs, ok
}

// defaultErrorHandler answers 400 for malformed records and 401 for
// signature problems.
func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusUnauthorized
	if errors.Is(err, types.ErrValidation) {
		status = http.StatusBadRequest
	}
	writeError(w, status, err.Error())
}
