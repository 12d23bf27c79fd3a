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

package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sage-x-project/didery-go/pkg/did"
	"github.com/sage-x-project/didery-go/pkg/types"
)

// FieldSignatures is the envelope key replicas may put signatures under.
const FieldSignatures = "signatures"

var errSyntax = errors.New("malformed JSON")

// Envelope is a replica response: the record found under its kind key and
// any signatures served next to it.
type Envelope struct {
	Kind       Kind
	Record     *Record
	Signatures map[string]string
}

// Parse decodes raw as a JSON object and checks that every required
// top-level key is present. All failures are *types.ValidationError;
// anything not recognized is reported as "Unexpected error".
func Parse(raw []byte, required ...string) (rec *Record, err error) {
	defer func() {
		if p := recover(); p != nil {
			rec, err = nil, &types.ValidationError{Msg: types.MsgUnexpected, Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, types.NewValidationError(types.MsgEmptyBody)
	}

	v, err := decode(raw)
	if err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) || errors.Is(err, errSyntax) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, &types.ValidationError{Msg: types.MsgInvalidJSON, Err: err}
		}
		return nil, &types.ValidationError{Msg: types.MsgUnexpected, Err: err}
	}

	if isEmpty(v) {
		return nil, types.NewValidationError(types.MsgEmptyBody)
	}

	obj, ok := v.(*Record)
	if !ok {
		return nil, types.NewValidationError(types.MsgNotObject)
	}

	for _, field := range required {
		if !obj.Has(field) {
			return nil, types.MissingField(field)
		}
	}

	return obj, nil
}

// ParseEnvelope decodes a replica response of the form
//
//	{"<kind>": {...record...}, "signatures": {"signer": "..."}}
//
// and validates the record for kind; see Extract.
func ParseEnvelope(raw []byte, kind Kind, method string) (*Envelope, error) {
	wrapper, err := Parse(raw, kind.String())
	if err != nil {
		return nil, err
	}

	rec, err := Extract(wrapper, kind, method)
	if err != nil {
		return nil, err
	}

	env := &Envelope{Kind: kind, Record: rec}
	if v, ok := wrapper.Get(FieldSignatures); ok {
		sigs, ok := v.(*Record)
		if !ok {
			return nil, types.NewValidationError(fmt.Sprintf("Invalid %s value", FieldSignatures))
		}
		env.Signatures = make(map[string]string, sigs.Len())
		for _, k := range sigs.Keys() {
			if s, ok := sigs.String(k); ok {
				env.Signatures[k] = s
			}
		}
	}
	return env, nil
}

// ParseKind decodes a {"<kind>": {...}} payload and returns the inner record.
func ParseKind(raw []byte, kind Kind, method string) (*Record, error) {
	env, err := ParseEnvelope(raw, kind, method)
	if err != nil {
		return nil, err
	}
	return env.Record, nil
}

// ParseHistory decodes a {"history": {...}} payload.
func ParseHistory(raw []byte, method string) (*Record, error) {
	return ParseKind(raw, KindHistory, method)
}

// ParseOTP decodes an {"otp": {...}} payload.
func ParseOTP(raw []byte, method string) (*Record, error) {
	return ParseKind(raw, KindOTP, method)
}

// ParseDataFile reads a record file laid out like a replica response.
func ParseDataFile(path string, kind Kind, method string) (*Record, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}
	return ParseKind(raw, kind, method)
}

// Extract pulls the kind record out of wrapper, checks its required fields
// and validates its id as a DID of method.
func Extract(wrapper *Record, kind Kind, method string) (*Record, error) {
	v, ok := wrapper.Get(kind.String())
	if !ok {
		return nil, types.MissingField(kind.String())
	}

	rec, ok := v.(*Record)
	if !ok {
		return nil, types.NewValidationError(types.MsgNotObject)
	}

	if err := Validate(rec, kind, method); err != nil {
		return nil, err
	}
	return rec, nil
}

// Validate checks the required fields of kind and the shape of the id.
func Validate(rec *Record, kind Kind, method string) error {
	for _, field := range kind.RequiredFields() {
		if !rec.Has(field) {
			return types.MissingField(field)
		}
	}

	id, ok := rec.String(FieldID)
	if !ok {
		return types.NewValidationError(types.MsgMalformedDID)
	}
	if _, _, err := did.Parse(id, method); err != nil {
		return err
	}
	return nil
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case *Record:
		return t.Len() == 0
	case []any:
		return len(t) == 0
	case string:
		return t == ""
	case bool:
		return !t
	case json.Number:
		f, err := t.Float64()
		return err == nil && f == 0
	default:
		return false
	}
}

// decode parses exactly one JSON value from data.
func decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}

	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("%w: trailing data", errSyntax)
		}
		return nil, err
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		return decodeObject(dec)
	case '[':
		return decodeArray(dec)
	default:
		return nil, fmt.Errorf("%w: unexpected %q", errSyntax, delim)
	}
}

func decodeObject(dec *json.Decoder) (*Record, error) {
	rec := New()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: object key %v", errSyntax, tok)
		}

		v, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		rec.Set(key, v)
	}

	if err := closeToken(dec); err != nil {
		return nil, err
	}
	return rec, nil
}

func decodeArray(dec *json.Decoder) ([]any, error) {
	out := []any{}
	for dec.More() {
		v, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}

	if err := closeToken(dec); err != nil {
		return nil, err
	}
	return out, nil
}

// closeToken consumes the delimiter ending an object or array.
func closeToken(dec *json.Decoder) error {
	if _, err := dec.Token(); err != nil {
		if err == io.EOF {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	return nil
}
