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
	"errors"
	"fmt"
	"io"

	"github.com/sage-x-project/didery-go/pkg/consensus"
	"github.com/sage-x-project/didery-go/pkg/did"
)

func runGet(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cmd := newCommand("get", stdout, stderr)
	retryGet := cmd.fs.Bool("retry", false, "retry until the replicas agree or the retry window closes")
	if err := cmd.parse(args); err != nil {
		return err
	}

	if cmd.fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: didery get [flags] <did>")
		return errUsage
	}
	id := did.DID(cmd.fs.Arg(0))

	c, err := cmd.client()
	if err != nil {
		return err
	}

	var res *consensus.Result
	if *retryGet {
		res, err = c.GetWithRetry(ctx, id, nil)
	} else {
		res, err = c.Get(ctx, id)
	}

	if res != nil {
		printResult(stdout, res, len(c.Servers()))
	}
	if errors.Is(err, consensus.ErrNoConsensus) {
		return fmt.Errorf("%s: %w", id, err)
	}
	return err
}
