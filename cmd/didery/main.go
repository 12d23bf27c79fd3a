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

// Command didery reads and writes DID-addressed records across a set of
// replicas.
//
//	didery keygen [-out key.json] [-seal]
//	didery get    [-type history|otp] [-retry] <did>
//	didery post   [-type history|otp] -data record.json -key key.json
//	didery put    [-type history|otp] -data record.json -key key.json [-rotation-key old.json]
//
// Every command except keygen accepts -config (JSON or YAML) and the
// client flags -servers, -timeout, -method, -log-level, -max-in-flight and
// -require-signatures. Flags override the config file, which overrides the
// built-in defaults. DIDERY_CONFIG names a default config file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	didery "github.com/sage-x-project/didery-go"
)

const usage = `usage: didery <command> [flags]

commands:
  keygen   generate a key pair and its DID
  get      read a record and resolve the replicas' answers
  post     sign and create a record on every replica
  put      sign and update a record on every replica
  version  print version information
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	var err error
	switch cmd, rest := args[0], args[1:]; cmd {
	case "keygen":
		err = runKeygen(rest, stdout, stderr)
	case "get":
		err = runGet(ctx, rest, stdout, stderr)
	case "post":
		err = runWrite(ctx, "post", rest, stdout, stderr)
	case "put":
		err = runWrite(ctx, "put", rest, stdout, stderr)
	case "version":
		info := didery.GetVersionInfo()
		fmt.Fprintf(stdout, "didery %s (method %s, %s)\n", info.DideryVersion, info.DefaultMethod, info.CanonicalForm)
	case "-h", "-help", "--help", "help":
		fmt.Fprint(stdout, usage)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		return 2
	default:
		printError(stderr, err)
		return 1
	}
}
