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
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/sage-x-project/didery-go/pkg/keys"
	"github.com/sage-x-project/didery-go/pkg/record"
	"github.com/sage-x-project/didery-go/pkg/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/term"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func startReplicas(t *testing.T, n int) string {
	t.Helper()
	urls := make([]string, n)
	for i := range urls {
		srv := httptest.NewServer(server.NewReplica(record.KindHistory, "", nil).Handler())
		t.Cleanup(srv.Close)
		urls[i] = srv.URL
	}
	return strings.Join(urls, ",")
}

func keygen(t *testing.T, dir, name string) *keys.KeyPair {
	t.Helper()
	path := filepath.Join(dir, name)
	code, out, errOut := runCLI(t, "keygen", "-out", path)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "key file:")

	kf, err := keys.LoadKeyFile(path)
	require.NoError(t, err)
	kp, err := kf.Open(nil)
	require.NoError(t, err)
	return kp
}

func writeData(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestRun_Usage(t *testing.T) {
	code, _, errOut := runCLI(t)
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "usage: didery")

	code, _, errOut = runCLI(t, "frobnicate")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, `unknown command "frobnicate"`)

	code, out, _ := runCLI(t, "version")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "didery ")
}

func TestKeygen_Stdout(t *testing.T) {
	code, out, _ := runCLI(t, "keygen")
	require.Equal(t, 0, code)

	assert.Contains(t, out, "did:dad:")
	assert.Contains(t, out, "did:key:z")
	assert.Contains(t, out, "signing key:")

	code, _, errOut := runCLI(t, "keygen", "-seal")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "-seal needs -out")
}

func TestKeygen_Sealed(t *testing.T) {
	answers := [][]byte{[]byte("hunter2"), []byte("hunter2"), []byte("hunter2")}
	readPassword = func(int) ([]byte, error) {
		if len(answers) == 0 {
			return nil, errors.New("no more input")
		}
		pw := answers[0]
		answers = answers[1:]
		return pw, nil
	}
	t.Cleanup(func() { readPassword = term.ReadPassword })

	path := filepath.Join(t.TempDir(), "sealed.json")
	code, out, errOut := runCLI(t, "keygen", "-out", path, "-seal")
	require.Equal(t, 0, code, errOut)
	assert.NotContains(t, out, "signing key:")

	kf, err := keys.LoadKeyFile(path)
	require.NoError(t, err)
	require.NotNil(t, kf.Sealed)
	assert.Empty(t, kf.SigningKey)

	kp, err := loadKeyPair(path, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, kf.DID, kp.DID().String())
}

func TestKeygen_PassphraseMismatch(t *testing.T) {
	answers := [][]byte{[]byte("one"), []byte("two")}
	readPassword = func(int) ([]byte, error) {
		pw := answers[0]
		answers = answers[1:]
		return pw, nil
	}
	t.Cleanup(func() { readPassword = term.ReadPassword })

	code, _, errOut := runCLI(t, "keygen", "-out", filepath.Join(t.TempDir(), "k.json"), "-seal")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "passphrases do not match")
}

func TestPostGetPut(t *testing.T) {
	dir := t.TempDir()
	servers := startReplicas(t, 3)

	first := keygen(t, dir, "first.json")
	second := keygen(t, dir, "second.json")
	id := first.DID().String()

	inception := writeData(t, dir, "inception.json", fmt.Sprintf(
		`{"history":{"id":%q,"signer":0,"signers":[%q]}}`, id, first.EncodedVerificationKey()))

	code, out, errOut := runCLI(t, "post", "-servers", servers, "-data", inception, "-key", filepath.Join(dir, "first.json"))
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "accepted by 3/3 replicas")

	code, out, errOut = runCLI(t, "get", "-servers", servers, id)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "consensus 3/3")
	assert.Contains(t, out, `"signer":0`)

	rotation := writeData(t, dir, "rotation.json", fmt.Sprintf(
		`{"history":{"id":%q,"signer":1,"signers":[%q,%q]}}`, id, first.EncodedVerificationKey(), second.EncodedVerificationKey()))

	code, out, errOut = runCLI(t, "put", "-servers", servers, "-data", rotation,
		"-key", filepath.Join(dir, "second.json"), "-rotation-key", filepath.Join(dir, "first.json"))
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "accepted by 3/3 replicas")

	code, out, errOut = runCLI(t, "get", "-servers", servers, "-require-signatures", id)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, `"signer":1`)
}

func TestPut_RejectedEverywhere(t *testing.T) {
	dir := t.TempDir()
	servers := startReplicas(t, 2)
	kp := keygen(t, dir, "key.json")

	data := writeData(t, dir, "rec.json", fmt.Sprintf(
		`{"history":{"id":%q,"signer":0,"signers":[%q]}}`, kp.DID(), kp.EncodedVerificationKey()))

	code, out, errOut := runCLI(t, "put", "-servers", servers, "-data", data, "-key", filepath.Join(dir, "key.json"))
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "accepted by 0/2 replicas")
	assert.Contains(t, errOut, errNoReplicaAccepted.Error())
}

func TestGet_NoConsensus(t *testing.T) {
	servers := startReplicas(t, 2)
	kp, err := keys.Generate()
	require.NoError(t, err)

	code, out, errOut := runCLI(t, "get", "-servers", servers, "-timeout", "2s", kp.DID().String())
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "no consensus across 2 replicas")
	assert.Contains(t, errOut, "no consensus")
}

func TestGet_Usage(t *testing.T) {
	code, _, errOut := runCLI(t, "get")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "usage: didery get")

	code, _, errOut = runCLI(t, "get", "-no-such-flag", "did:dad:abc")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "flag provided but not defined")

	code, _, errOut = runCLI(t, "post", "-data", "record.json")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "usage: didery post")

	code, _, _ = runCLI(t, "keygen", "-bogus")
	assert.Equal(t, 2, code)

	code, _, errOut = runCLI(t, "get", "-type", "ledger", "did:dad:abc")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, `unknown record type "ledger"`)
}

func TestGet_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := writeData(t, dir, "didery.yaml", "servers: [\"http://127.0.0.1:1\"]\ntimeout: 1s\n")

	code, out, _ := runCLI(t, "get", "-config", cfg, "did:dad:abc")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "no consensus across 1 replicas")

	code, _, errOut := runCLI(t, "get", "-config", filepath.Join(dir, "missing.yaml"), "did:dad:abc")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "failed to read config")
}

func TestConfigPath(t *testing.T) {
	t.Setenv(EnvConfig, "")

	tests := []struct {
		args []string
		want string
	}{
		{args: nil, want: ""},
		{args: []string{"-config", "a.yaml", "did:dad:x"}, want: "a.yaml"},
		{args: []string{"--config=b.json"}, want: "b.json"},
		{args: []string{"-servers", "x", "--", "-config", "c"}, want: ""},
		{args: []string{"-config"}, want: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, configPath(tt.args), tt.args)
	}

	t.Setenv(EnvConfig, "env.yaml")
	assert.Equal(t, "env.yaml", configPath(nil))
}
