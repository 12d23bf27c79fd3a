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
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/sage-x-project/didery-go/pkg/did"
	"github.com/sage-x-project/didery-go/pkg/logging"
	"github.com/sage-x-project/didery-go/pkg/record"
	"github.com/sage-x-project/didery-go/pkg/signer"
	"github.com/sage-x-project/didery-go/pkg/verifier"
)

type entry struct {
	rec        *record.Record
	signatures map[string]string
}

// Replica is an in-memory didery replica for one record kind. It keeps
// nothing across restarts.
type Replica struct {
	kind   record.Kind
	method string
	log    logging.Logger

	mu      sync.RWMutex
	entries map[string]entry
}

// NewReplica creates an empty replica serving records of kind.
func NewReplica(kind record.Kind, method string, log logging.Logger) *Replica {
	if method == "" {
		method = did.DefaultMethod
	}
	return &Replica{
		kind:    kind,
		method:  method,
		log:     logging.OrNop(log).With("replica_kind", kind.String()),
		entries: make(map[string]entry),
	}
}

// Handler routes
//
//	GET  /<kind>/{did}
//	POST /<kind>
//	PUT  /<kind>/{did}
//
// with writes behind a SignatureMiddleware.
func (rp *Replica) Handler() http.Handler {
	mw := NewSignatureMiddleware(rp.kind, rp.method)
	prefix := "/" + rp.kind.String()

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+prefix+"/{did}", rp.handleGet)
	mux.Handle("POST "+prefix, mw.Wrap(http.HandlerFunc(rp.handlePost)))
	mux.Handle("PUT "+prefix+"/{did}", mw.Wrap(http.HandlerFunc(rp.handlePut)))
	return mux
}

// Seed stores rec with signatures without any checks, replacing what was
// there. Tests use it to stage stale or tampered replicas.
func (rp *Replica) Seed(rec *record.Record, signatures map[string]string) {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	rp.entries[rec.ID()] = entry{rec: rec.Clone(), signatures: signatures}
}

// Lookup returns a copy of the stored record for id.
func (rp *Replica) Lookup(id string) (*record.Record, bool) {
	rp.mu.RLock()
	defer rp.mu.RUnlock()
	e, ok := rp.entries[id]
	if !ok {
		return nil, false
	}
	return e.rec.Clone(), true
}

// Len returns the number of stored records.
func (rp *Replica) Len() int {
	rp.mu.RLock()
	defer rp.mu.RUnlock()
	return len(rp.entries)
}

func (rp *Replica) handleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("did")
	if _, _, err := did.Parse(id, rp.method); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rp.mu.RLock()
	e, ok := rp.entries[id]
	rp.mu.RUnlock()

	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	sigs := make(map[string]any, len(e.signatures))
	for k, v := range e.signatures {
		sigs[k] = v
	}

	wrapper := record.New().Set(rp.kind.String(), e.rec)
	if len(sigs) > 0 {
		wrapper.Set(record.FieldSignatures, sigs)
	}

	body, err := wrapper.Canonical()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode record")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func (rp *Replica) handlePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rec, _ := GetRecordFromContext(ctx)
	sigs, _ := GetSignaturesFromContext(ctx)

	rp.mu.Lock()
	defer rp.mu.Unlock()

	if _, exists := rp.entries[rec.ID()]; exists {
		writeError(w, http.StatusConflict, "already exists")
		return
	}

	rp.entries[rec.ID()] = entry{rec: rec, signatures: storedSignatures(sigs)}
	rp.log.Info(ctx, "record created", "did", rec.ID())

	writeRecord(w, http.StatusCreated, rec)
}

func (rp *Replica) handlePut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rec, _ := GetRecordFromContext(ctx)
	sigs, _ := GetSignaturesFromContext(ctx)

	id := r.PathValue("did")
	if rec.ID() != id {
		writeError(w, http.StatusBadRequest, "id does not match path")
		return
	}

	rp.mu.Lock()
	defer rp.mu.Unlock()

	prev, ok := rp.entries[id]
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	if rec.Changed() <= prev.rec.Changed() {
		writeError(w, http.StatusConflict, "stale update")
		return
	}

	if rp.kind == record.KindHistory {
		if err := checkRotation(prev.rec, rec); err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
	}

	rp.entries[id] = entry{rec: rec, signatures: storedSignatures(sigs)}
	rp.log.Info(ctx, "record updated", "did", id)

	writeRecord(w, http.StatusOK, rec)
}

// checkRotation ties an update to the stored history. The signers up to
// the stored current key must be unchanged and the signer index may stay
// or advance by one. The middleware has already checked the signer and
// rotation signatures against the new record, so the rotation key is the
// stored current key when the index advances, and the stored previous key
// otherwise.
func checkRotation(prev, next *record.Record) error {
	before, err := verifier.SignerIndex(prev)
	if err != nil {
		return fmt.Errorf("stored history has no current key: %w", err)
	}
	after, err := verifier.SignerIndex(next)
	if err != nil {
		return err
	}

	if after != before && after != before+1 {
		return fmt.Errorf("signer must stay at %d or move to %d, got %d", before, before+1, after)
	}

	stored, err := verifier.Signers(prev)
	if err != nil {
		return fmt.Errorf("stored history has no signers: %w", err)
	}
	signers, err := verifier.Signers(next)
	if err != nil {
		return err
	}

	if len(signers) <= before {
		return errors.New("signers list is shorter than the stored history")
	}
	for i := 0; i <= before; i++ {
		if signers[i] != stored[i] {
			return fmt.Errorf("signers[%d] does not match the stored history", i)
		}
	}
	return nil
}

// storedSignatures keeps the signer and rotation signatures, which readers
// verify against the record.
func storedSignatures(sigs map[string]string) map[string]string {
	out := make(map[string]string, 2)
	for _, tag := range []string{signer.TagSigner, signer.TagRotation} {
		if sig, ok := sigs[tag]; ok {
			out[tag] = sig
		}
	}
	return out
}
func writeRecord(w http.ResponseWriter, status int, rec *record.Record) {
	body, err := rec.Canonical()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode record")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
