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

// Command local-replicas starts three in-process replicas, creates a key
// history on all of them, rotates its key, tampers with one replica and
// shows the client still resolving the majority answer.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http/httptest"
	"os"
	"time"

	"github.com/sage-x-project/didery-go/pkg/client"
	"github.com/sage-x-project/didery-go/pkg/keys"
	"github.com/sage-x-project/didery-go/pkg/logging"
	"github.com/sage-x-project/didery-go/pkg/record"
	"github.com/sage-x-project/didery-go/pkg/server"
)

func main() {
	fmt.Println("didery - Local Replicas Example")
	fmt.Println("===============================")

	ctx := context.Background()
	logger := logging.New("info", os.Stderr)

	fmt.Println("\n1. Starting three replicas...")
	var (
		replicas []*server.Replica
		servers  []string
	)
	for i := 0; i < 3; i++ {
		rp := server.NewReplica(record.KindHistory, "", logger.With("replica", i))
		srv := httptest.NewServer(rp.Handler())
		defer srv.Close()

		replicas = append(replicas, rp)
		servers = append(servers, srv.URL)
		fmt.Printf("   replica %d: %s\n", i, srv.URL)
	}

	c := client.NewHistoryClient(client.Options{
		Servers:           servers,
		Timeout:           2 * time.Second,
		Logger:            logger,
		RequireSignatures: true,
	})

	fmt.Println("\n2. Generating keys...")
	first, err := keys.Generate()
	if err != nil {
		log.Fatalf("Failed to generate key pair: %v", err)
	}
	second, err := keys.Generate()
	if err != nil {
		log.Fatalf("Failed to generate key pair: %v", err)
	}
	id := first.DID()
	fmt.Printf("   DID: %s\n", id)

	fmt.Println("\n3. Creating the history...")
	inception := record.NewHistory(id, 0, []string{first.EncodedVerificationKey()})
	res, err := c.Post(ctx, inception, first.SigningKey)
	if err != nil {
		log.Fatalf("Failed to post: %v", err)
	}
	fmt.Printf("   accepted by %d/%d replicas\n", res.Succeeded(), len(servers))

	fmt.Println("\n4. Rotating to a new key...")
	rotated := record.NewHistory(id, 1, []string{first.EncodedVerificationKey(), second.EncodedVerificationKey()})
	res, err = c.Put(ctx, id, rotated, second.SigningKey, first.SigningKey)
	if err != nil {
		log.Fatalf("Failed to put: %v", err)
	}
	fmt.Printf("   accepted by %d/%d replicas\n", res.Succeeded(), len(servers))

	fmt.Println("\n5. Tampering with replica 2...")
	forged := record.NewHistory(id, 0, []string{"forged"}).Set(record.FieldChanged, "2999-01-01T00:00:00.000000+00:00")
	replicas[2].Seed(forged, nil)

	fmt.Println("\n6. Reading with consensus...")
	got, err := c.Get(ctx, id)
	if err != nil {
		log.Fatalf("Failed to get: %v", err)
	}
	body, err := got.Record.Canonical()
	if err != nil {
		log.Fatalf("Failed to encode record: %v", err)
	}
	fmt.Printf("   agreed by %d/%d replicas\n", got.Support(), len(servers))
	fmt.Printf("   %s\n", body)
	for r, reason := range got.Failed {
		fmt.Printf("   rejected %s: %v\n", r, reason)
	}

	fmt.Println("\nDone.")
}
