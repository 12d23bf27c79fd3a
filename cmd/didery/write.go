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

package main

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"io"

	"github.com/sage-x-project/didery-go/pkg/client"
	"github.com/sage-x-project/didery-go/pkg/did"
	"github.com/sage-x-project/didery-go/pkg/record"
)

// errNoReplicaAccepted is returned when every replica rejected a write.
var errNoReplicaAccepted = errors.New("no replica accepted the write")

// runWrite handles post and put. Both sign the record in -data with the
// key in -key; put may add a rotation signature from -rotation-key.
func runWrite(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error {
	cmd := newCommand(name, stdout, stderr)
	dataPath := cmd.fs.String("data", "", "record file, e.g. {\"history\": {...}}")
	keyPath := cmd.fs.String("key", "", "key file of the signer")
	var rotationPath *string
	if name == "put" {
		rotationPath = cmd.fs.String("rotation-key", "", "key file of signers[signer-1], needed past the first key")
	}
	if err := cmd.parse(args); err != nil {
		return err
	}

	if *dataPath == "" || *keyPath == "" {
		fmt.Fprintf(stderr, "usage: didery %s -data <file> -key <file> [flags]\n", name)
		return errUsage
	}

	kind, err := cmd.recordKind()
	if err != nil {
		return err
	}

	rec, err := record.ParseDataFile(*dataPath, kind, cmd.cfg.Method)
	if err != nil {
		return err
	}

	kp, err := loadKeyPair(*keyPath, stderr)
	if err != nil {
		return err
	}

	var rotationKey ed25519.PrivateKey
	if rotationPath != nil && *rotationPath != "" {
		rkp, err := loadKeyPair(*rotationPath, stderr)
		if err != nil {
			return err
		}
		rotationKey = rkp.SigningKey
	}

	c, err := cmd.client()
	if err != nil {
		return err
	}

	var res *client.WriteResult
	if name == "post" {
		res, err = c.Post(ctx, rec, kp.SigningKey)
	} else {
		res, err = c.Put(ctx, did.DID(rec.ID()), rec, kp.SigningKey, rotationKey)
	}
	if err != nil {
		return err
	}

	printWrite(stdout, res)
	if res.Succeeded() == 0 {
		return errNoReplicaAccepted
	}
	return nil
}
