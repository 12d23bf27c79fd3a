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

// Package verifier checks Ed25519 signatures on didery records.
//
// Keys are never looked up elsewhere: a record names its own keys. History
// records list them in `signers` and point at the current one with the
// `signer` index; OTP records are verified with the key embedded in their
// id DID.
//
// # Verifying a write
//
// A replica receiving POST or PUT verifies the body against the Signature
// header before storing it:
//
//	v := verifier.NewDefaultRecordVerifier(nil, did.DefaultMethod)
//	rec, err := v.VerifyWrite(ctx, record.KindHistory, body, r.Header.Get(signer.HeaderName))
//	if err != nil {
//	    // reject
//	}
//
// A rotation signature, when present, is checked against signers[signer-1].
//
// # Verifying a read
//
// Replicas may serve stored signatures next to the record:
//
//	{"history": {...}, "signatures": {"signer": "..."}}
//
// VerifyEnvelope checks them against the record's canonical form, so a
// reader can drop replicas serving tampered data before voting.
//
// Verification failures are errors wrapping ErrMissingSignature or
// ErrInvalidSignature. Malformed keys and signatures never panic.
package verifier
