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

// Package client provides the record services of a didery client: history
// and OTP clients that read by consensus and write by signed broadcast.
//
// # Reading
//
// Get fetches the record from every replica at once, under one deadline,
// and returns what a strict plurality of replicas agree on:
//
//	c := client.NewHistoryClient(client.Options{
//	    Servers: []string{"http://localhost:8080", "http://localhost:8000"},
//	    Timeout: 10 * time.Second,
//	})
//
//	res, err := c.Get(ctx, id)
//	if errors.Is(err, consensus.ErrNoConsensus) {
//	    // res.Candidates lists the conflicting answers
//	}
//
// Agreement ignores the `changed` timestamp. GetWithRetry repeats the whole
// read with backoff until replicas agree.
//
// # Writing
//
// Post and Put stamp `changed`, sign the canonical JSON body with Ed25519
// and send the same bytes to every replica:
//
//	rec := record.NewHistory(kp.DID(), 0, []string{kp.EncodedVerificationKey()})
//	w, err := c.Post(ctx, rec, kp.SigningKey)
//
// A key rotation is a Put with the previous signing key as rotationKey.
// Every replica's answer comes back in WriteResult.Outcomes; the client
// does not decide how many accepted writes are enough.
package client
