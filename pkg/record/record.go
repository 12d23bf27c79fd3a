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

// Package record holds the JSON documents stored on the replicas.
//
// A Record is a JSON object that remembers the order its keys were added
// or decoded in. That order is part of the canonical serialization that
// gets signed, so a record round-trips through Parse and MarshalJSON
// byte-for-byte when it was produced by MarshalJSON.
//
// # Canonical form
//
//   - keys of a Record (top level and nested) in insertion order
//   - keys of plain Go maps sorted, as encoding/json does
//   - compact separators "," and ":", no HTML escaping, no trailing newline
//   - numbers decoded as json.Number and written back verbatim
package record

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/sage-x-project/didery-go/pkg/did"
)

// Well-known record fields.
const (
	FieldID      = "id"
	FieldChanged = "changed"
	FieldSigner  = "signer"
	FieldSigners = "signers"
	FieldBlob    = "blob"
)

// Kind names a record family and the path segment it is served under.
type Kind string

const (
	KindHistory Kind = "history"
	KindOTP     Kind = "otp"
)

// RequiredFields lists the keys a record of kind k must carry.
func (k Kind) RequiredFields() []string {
	switch k {
	case KindHistory:
		return []string{FieldID, FieldSigner, FieldSigners}
	case KindOTP:
		return []string{FieldID, FieldBlob}
	default:
		return []string{FieldID}
	}
}

func (k Kind) String() string {
	return string(k)
}

// Record is an insertion-ordered JSON object. Values are *Record, []any,
// string, json.Number, bool or nil after decoding; builders may also store
// other JSON-marshalable Go values.
//
// A Record fetched from a replica is treated as an immutable snapshot:
// writers Clone before changing anything.
type Record struct {
	keys   []string
	values map[string]any
}

// New returns an empty Record.
func New() *Record {
	return &Record{values: make(map[string]any)}
}

// NewHistory builds a history record for id signed by signer out of signers.
func NewHistory(id did.DID, signer any, signers []string) *Record {
	list := make([]any, len(signers))
	for i, s := range signers {
		list[i] = s
	}
	return New().
		Set(FieldID, id.String()).
		Set(FieldSigner, signer).
		Set(FieldSigners, list)
}

// NewOTP builds a one-time-pad blob record for id.
func NewOTP(id did.DID, blob string) *Record {
	return New().
		Set(FieldID, id.String()).
		Set(FieldBlob, blob)
}

// Set stores v under key. A new key goes to the end; an existing key keeps
// its position. Set returns r so builders can chain.
func (r *Record) Set(key string, v any) *Record {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
	return r
}

// Get returns the value stored under key.
func (r *Record) Get(key string) (any, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r.values[key]
	return v, ok
}

// Has reports whether key is present.
func (r *Record) Has(key string) bool {
	_, ok := r.Get(key)
	return ok
}

// String returns the value under key if it is a string.
func (r *Record) String(key string) (string, bool) {
	v, ok := r.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// ID returns the record's id field, or "" when absent.
func (r *Record) ID() string {
	s, _ := r.String(FieldID)
	return s
}

// Changed returns the record's changed timestamp, or "" when absent.
func (r *Record) Changed() string {
	s, _ := r.String(FieldChanged)
	return s
}

// Delete removes key.
func (r *Record) Delete(key string) {
	if _, ok := r.values[key]; !ok {
		return
	}
	delete(r.values, key)
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i:i], r.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in order.
func (r *Record) Keys() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.keys...)
}

// Len returns the number of keys.
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := &Record{
		keys:   append([]string(nil), r.keys...),
		values: make(map[string]any, len(r.values)),
	}
	for k, v := range r.values {
		c.values[k] = cloneValue(v)
	}
	return c
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case *Record:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// MarshalJSON returns the canonical form of r. Callers going through
// json.Marshal get it re-escaped with HTML escaping on, so those bytes can
// differ from the signed ones; use Canonical for anything that is signed
// or verified.
func (r *Record) MarshalJSON() ([]byte, error) {
	return r.Canonical()
}

// Canonical returns the bytes that are signed: compact, keys in insertion
// order, plain maps key-sorted, no HTML escaping, no trailing newline.
func (r *Record) Canonical() ([]byte, error) {
	var buf bytes.Buffer
	if err := r.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object into r, keeping key order.
func (r *Record) UnmarshalJSON(data []byte) error {
	v, err := decode(data)
	if err != nil {
		return err
	}
	obj, ok := v.(*Record)
	if !ok {
		return fmt.Errorf("record: JSON value is %T, not an object", v)
	}
	*r = *obj
	return nil
}

// Fingerprint returns a key-order independent encoding of r with the
// top-level fields in ignore left out. Two records with equal fingerprints
// hold the same keys and values.
func (r *Record) Fingerprint(ignore ...string) (string, error) {
	if r == nil {
		return "null", nil
	}
	plain := make(map[string]any, r.Len())
	for _, k := range r.keys {
		if contains(ignore, k) {
			continue
		}
		plain[k] = toPlain(r.values[k])
	}

	b, err := json.Marshal(plain)
	if err != nil {
		return "", fmt.Errorf("record: fingerprint: %w", err)
	}
	return string(b), nil
}

// Equal reports whether r and other hold the same keys and values, apart
// from the top-level fields in ignore. Key order is not compared.
func (r *Record) Equal(other *Record, ignore ...string) bool {
	a, err := r.Fingerprint(ignore...)
	if err != nil {
		return false
	}
	b, err := other.Fingerprint(ignore...)
	if err != nil {
		return false
	}
	return a == b
}

func toPlain(v any) any {
	switch t := v.(type) {
	case *Record:
		m := make(map[string]any, t.Len())
		for _, k := range t.keys {
			m[k] = toPlain(t.values[k])
		}
		return m
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = toPlain(e)
		}
		return out
	default:
		return v
	}
}

func contains(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}

func (r *Record) encode(buf *bytes.Buffer) error {
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeScalar(buf, k); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := encodeValue(buf, r.values[k]); err != nil {
			return fmt.Errorf("record: encode %q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

func encodeValue(buf *bytes.Buffer, v any) error {
	switch t := v.(type) {
	case *Record:
		if t == nil {
			buf.WriteString("null")
			return nil
		}
		return t.encode(buf)
	case []any:
		buf.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeValue(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	default:
		return encodeScalar(buf, v)
	}
}

func encodeScalar(buf *bytes.Buffer, v any) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'}))
	return nil
}
