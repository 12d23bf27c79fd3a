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

package client

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sage-x-project/didery-go/pkg/consensus"
	"github.com/sage-x-project/didery-go/pkg/did"
	"github.com/sage-x-project/didery-go/pkg/logging"
	"github.com/sage-x-project/didery-go/pkg/record"
	"github.com/sage-x-project/didery-go/pkg/signer"
	"github.com/sage-x-project/didery-go/pkg/transport"
	"github.com/sage-x-project/didery-go/pkg/types"
	"github.com/sethvargo/go-retry"
)

// ErrDIDMismatch is returned by Put when the record id is not the DID
// being updated, and reported for replicas that answer a Get with another
// DID's record.
var ErrDIDMismatch = errors.New("record id does not match DID")

// Client reads and writes one record kind across a set of replicas.
type Client struct {
	kind record.Kind
	opts Options
	orch *transport.Orchestrator
	log  logging.Logger
}

// WriteResult is the outcome of a broadcast write.
type WriteResult struct {
	// Signed is the stamped, signed payload that was sent.
	Signed *signer.SignedRecord

	// Outcomes holds every replica's raw answer.
	Outcomes map[string]transport.Outcome
}

// Succeeded counts replicas that accepted the write. No quorum is applied.
func (w *WriteResult) Succeeded() int {
	return transport.Succeeded(w.Outcomes)
}

// New creates a client for records of kind.
func New(kind record.Kind, opts Options) (*Client, error) {
	switch kind {
	case record.KindHistory, record.KindOTP:
	default:
		return nil, fmt.Errorf("unsupported record kind %q", kind)
	}

	opts = opts.withDefaults()
	log := opts.Logger.With("kind", kind.String())

	return &Client{
		kind: kind,
		opts: opts,
		orch: transport.NewOrchestrator(
			transport.WithDoer(opts.HTTPClient),
			transport.WithLogger(log),
			transport.WithMaxInFlight(opts.MaxInFlight),
		),
		log: log,
	}, nil
}

// NewHistoryClient creates a client for key history records.
func NewHistoryClient(opts Options) *Client {
	c, _ := New(record.KindHistory, opts)
	return c
}

// NewOTPClient creates a client for one-time-pad blob records.
func NewOTPClient(opts Options) *Client {
	c, _ := New(record.KindOTP, opts)
	return c
}

// Kind returns the record kind this client serves.
func (c *Client) Kind() record.Kind {
	return c.kind
}

// Servers returns the replica base URLs.
func (c *Client) Servers() []string {
	return append([]string(nil), c.opts.Servers...)
}

// Get fetches id from every replica and returns the record a strict
// plurality of them agree on. Without agreement the error wraps
// consensus.ErrNoConsensus and the Result still carries the candidates.
func (c *Client) Get(ctx context.Context, id did.DID) (*consensus.Result, error) {
	if _, _, err := did.Parse(id.String(), c.opts.Method); err != nil {
		return nil, err
	}

	reqs := make(map[string]transport.Request, len(c.opts.Servers))
	for _, server := range c.opts.Servers {
		reqs[server] = transport.Request{
			Method: http.MethodGet,
			URL:    c.endpoint(server, id),
		}
	}

	outcomes := c.orch.FanOut(ctx, reqs, c.opts.Timeout)

	res, err := consensus.Resolve(outcomes, func(body []byte) (*record.Record, error) {
		return c.decode(ctx, id, body)
	})
	if err != nil {
		c.log.Warn(ctx, "no consensus", "did", id.String(), "candidates", len(res.Candidates), "failed", len(res.Failed))
		return res, err
	}

	c.log.Info(ctx, "consensus reached", "did", id.String(), "support", res.Support(), "replicas", len(c.opts.Servers))
	return res, nil
}

// GetWithRetry repeats Get until a consensus is reached, a non-retryable
// error occurs, ctx ends, or backoff gives up. A nil backoff retries with
// exponential delays starting at 100ms, capped at 2s, for up to three
// fan-out timeouts.
func (c *Client) GetWithRetry(ctx context.Context, id did.DID, backoff retry.Backoff) (*consensus.Result, error) {
	if backoff == nil {
		backoff = retry.NewExponential(100 * time.Millisecond)
		backoff = retry.WithCappedDuration(2*time.Second, backoff)
		backoff = retry.WithJitterPercent(10, backoff)
		backoff = retry.WithMaxDuration(3*c.opts.Timeout, backoff)
	}

	var (
		res     *consensus.Result
		attempt int
	)

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++

		var err error
		res, err = c.Get(ctx, id)
		if errors.Is(err, consensus.ErrNoConsensus) {
			c.log.Debug(ctx, "retrying get", "did", id.String(), "attempt", attempt)
			return retry.RetryableError(err)
		}
		return err
	})
	return res, err
}

// Post signs rec with signingKey and creates it on every replica.
func (c *Client) Post(ctx context.Context, rec *record.Record, signingKey ed25519.PrivateKey) (*WriteResult, error) {
	if err := c.validate(rec); err != nil {
		return nil, err
	}

	signed, err := c.opts.Signer.Sign(ctx, rec, signingKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign record: %w", err)
	}

	return c.broadcast(ctx, http.MethodPost, "", signed), nil
}

// Put signs rec and updates id on every replica. With a rotationKey the
// write carries a second signature made with it. History records past
// their first key need one: it is the signing key of signers[signer-1].
func (c *Client) Put(ctx context.Context, id did.DID, rec *record.Record, signingKey, rotationKey ed25519.PrivateKey) (*WriteResult, error) {
	if _, _, err := did.Parse(id.String(), c.opts.Method); err != nil {
		return nil, err
	}

	if err := c.validate(rec); err != nil {
		return nil, err
	}

	if rec.ID() != id.String() {
		return nil, fmt.Errorf("%w: %s != %s", ErrDIDMismatch, rec.ID(), id)
	}

	var (
		signed *signer.SignedRecord
		err    error
	)
	if rotationKey != nil {
		signed, err = c.opts.Signer.SignWithRotation(ctx, rec, signingKey, rotationKey)
	} else {
		signed, err = c.opts.Signer.Sign(ctx, rec, signingKey)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to sign record: %w", err)
	}

	return c.broadcast(ctx, http.MethodPut, id, signed), nil
}

func (c *Client) broadcast(ctx context.Context, method string, id did.DID, signed *signer.SignedRecord) *WriteResult {
	header := http.Header{}
	header.Set(signer.HeaderName, signed.Header())
	header.Set("Content-Type", "application/json")

	reqs := make(map[string]transport.Request, len(c.opts.Servers))
	for _, server := range c.opts.Servers {
		reqs[server] = transport.Request{
			Method: method,
			URL:    c.endpoint(server, id),
			Header: header,
			Body:   signed.Body,
		}
	}

	outcomes := c.orch.FanOut(ctx, reqs, c.opts.Timeout)
	res := &WriteResult{Signed: signed, Outcomes: outcomes}

	c.log.Info(ctx, "write broadcast",
		"method", method,
		"did", signed.Record.ID(),
		"succeeded", res.Succeeded(),
		"replicas", len(outcomes),
	)
	return res
}

func (c *Client) decode(ctx context.Context, id did.DID, body []byte) (*record.Record, error) {
	env, err := record.ParseEnvelope(body, c.kind, c.opts.Method)
	if err != nil {
		return nil, err
	}

	if env.Record.ID() != id.String() {
		return nil, fmt.Errorf("%w: replica served %s", ErrDIDMismatch, env.Record.ID())
	}

	if c.opts.RequireSignatures {
		if err := c.opts.Verifier.VerifyEnvelope(ctx, env); err != nil {
			return nil, err
		}
	}
	return env.Record, nil
}

func (c *Client) validate(rec *record.Record) error {
	if rec == nil {
		return types.NewValidationError(types.MsgEmptyBody)
	}
	return record.Validate(rec, c.kind, c.opts.Method)
}

// endpoint builds <server>/<kind> or <server>/<kind>/<did>.
func (c *Client) endpoint(server string, id did.DID) string {
	url := strings.TrimRight(server, "/") + "/" + c.kind.String()
	if id != "" {
		url += "/" + id.String()
	}
	return url
}
