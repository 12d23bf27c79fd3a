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

// Package signer prepares signed record writes for didery replicas.
//
// A write body is the canonical JSON form of a record whose `changed` field
// has just been stamped with the current UTC time. The body bytes are signed
// as-is, and the signatures travel in the Signature header:
//
//	Signature: signer="<base64url-sig>"
//	Signature: signer="<base64url-sig>"; rotation="<base64url-sig>"
//
// # Signing a write
//
//	s := signer.NewDefaultRecordSigner()
//	signed, err := s.Sign(ctx, rec, kp.SigningKey)
//	if err != nil {
//	    return err
//	}
//
//	req, _ := http.NewRequest("POST", url, bytes.NewReader(signed.Body))
//	req.Header.Set(signer.HeaderName, signed.Header())
//
// # Key rotation
//
// A rotation write carries a second signature over the same bytes, made
// with the rotation key, so a replica can check continuity of identity:
//
//	signed, err := s.SignWithRotation(ctx, rec, currentKey, rotationKey)
//
// The record passed in is never modified; SignedRecord.Record holds the
// stamped copy.
package signer
