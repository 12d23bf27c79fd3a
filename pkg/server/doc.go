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

// Package server provides the replica side of the didery protocol: write
// signature verification middleware and an in-memory reference replica.
//
// # Basic Usage
//
//	// Create signature middleware for history writes
//	mw := server.NewSignatureMiddleware(record.KindHistory, did.DefaultMethod)
//
//	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	    // Extract the verified record from context
//	    rec, ok := server.GetRecordFromContext(r.Context())
//	    if !ok {
//	        http.Error(w, "Unauthorized", http.StatusUnauthorized)
//	        return
//	    }
//	    fmt.Fprintf(w, "stored %s", rec.ID())
//	})
//
//	http.Handle("/history", mw.Wrap(handler))
//
// Malformed records are rejected with 400, missing or bad signatures with
// 401. Reads pass through.
//
// # Reference replica
//
// Replica implements GET, POST and PUT for one record kind in memory:
//
//	rp := server.NewReplica(record.KindHistory, did.DefaultMethod, log)
//	srv := httptest.NewServer(rp.Handler())
//
// GET answers {"history": {...}, "signatures": {"signer": "...", "rotation": "..."}}
// with the rotation signature present once the history left its first key.
// PUT rejects stale `changed` values. A history update may advance the signer
// index by one at most and must keep the stored signers list as its prefix.
// Nothing is persisted.
package server
