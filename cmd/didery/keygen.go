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
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sage-x-project/didery-go/pkg/did"
	"github.com/sage-x-project/didery-go/pkg/keys"
	"golang.org/x/term"
)

// readPassword is swapped out in tests so no terminal is needed.
var readPassword = term.ReadPassword

func runKeygen(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("keygen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	out := fs.String("out", "", "write the key pair to this key file")
	seal := fs.Bool("seal", false, "seal the signing key with a passphrase (needs -out)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	if *seal && *out == "" {
		return errors.New("-seal needs -out")
	}

	kp, err := keys.Generate()
	if err != nil {
		return err
	}

	keyDID, err := did.ToKeyDID(kp.DID())
	if err != nil {
		return err
	}

	printField(stdout, "did", kp.DID().String())
	printField(stdout, "did:key", keyDID)
	printField(stdout, "verify key", kp.EncodedVerificationKey())

	if *out == "" {
		printField(stdout, "signing key", kp.EncodedSigningKey())
		return nil
	}

	var passphrase []byte
	if *seal {
		if passphrase, err = newPassphrase(stderr); err != nil {
			return err
		}
	}

	kf, err := keys.NewKeyFile(kp, passphrase, time.Now())
	if err != nil {
		return err
	}
	if err := keys.SaveKeyFile(*out, kf); err != nil {
		return err
	}
	printField(stdout, "key file", *out)
	return nil
}

// loadKeyPair opens the key file at path, prompting for the passphrase
// when the signing key is sealed.
func loadKeyPair(path string, prompt io.Writer) (*keys.KeyPair, error) {
	kf, err := keys.LoadKeyFile(path)
	if err != nil {
		return nil, err
	}

	var passphrase []byte
	if kf.Sealed != nil {
		if passphrase, err = askPassphrase(prompt, fmt.Sprintf("Passphrase for %s: ", path)); err != nil {
			return nil, err
		}
	}
	return kf.Open(passphrase)
}

func newPassphrase(w io.Writer) ([]byte, error) {
	first, err := askPassphrase(w, "New passphrase: ")
	if err != nil {
		return nil, err
	}
	if len(first) == 0 {
		return nil, errors.New("empty passphrase")
	}

	second, err := askPassphrase(w, "Repeat passphrase: ")
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(first, second) {
		return nil, errors.New("passphrases do not match")
	}
	return first, nil
}

func askPassphrase(w io.Writer, prompt string) ([]byte, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}
	return pw, nil
}
