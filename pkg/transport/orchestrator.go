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

package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sage-x-project/didery-go"
	"github.com/sage-x-project/didery-go/pkg/logging"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxBodySize caps response bodies read from a replica.
const DefaultMaxBodySize = 1 << 20

// HeaderRequestID correlates the requests of one fan-out call.
const HeaderRequestID = "X-Request-ID"

// Orchestrator sends one request per replica concurrently and collects
// every replica's Outcome under a single shared deadline.
type Orchestrator struct {
	doer        Doer
	log         logging.Logger
	maxInFlight int
	maxBodySize int64
}

// NewOrchestrator creates an Orchestrator. Without WithDoer it uses an
// *http.Client with no client-level timeout; the fan-out deadline bounds
// every request instead.
func NewOrchestrator(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		doer:        &http.Client{},
		log:         logging.NewNop(),
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type result struct {
	key     string
	outcome Outcome
}

// FanOut dispatches every request in reqs and returns when all of them have
// completed or the deadline has elapsed, whichever is first. The returned
// map has exactly one entry per key of reqs. Replicas still pending at the
// deadline get a timeout Outcome and their connections are torn down.
// A deadline of zero or less means only ctx bounds the call.
func (o *Orchestrator) FanOut(ctx context.Context, reqs map[string]Request, deadline time.Duration) map[string]Outcome {
	outcomes := make(map[string]Outcome, len(reqs))
	if len(reqs) == 0 {
		return outcomes
	}

	if deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, deadline)
		defer cancel()
	}

	requestID := uuid.NewString()
	log := o.log.With("request_id", requestID)
	started := time.Now()

	results := make(chan result, len(reqs))

	go func() {
		var g errgroup.Group
		if o.maxInFlight > 0 {
			g.SetLimit(o.maxInFlight)
		}

		for key, req := range reqs {
			g.Go(func() error {
				results <- result{key: key, outcome: o.do(ctx, log, requestID, req)}
				return nil
			})
		}

		_ = g.Wait()
		close(results)
	}()

collect:
	for len(outcomes) < len(reqs) {
		select {
		case r, ok := <-results:
			if !ok {
				break collect
			}
			outcomes[r.key] = r.outcome
		case <-ctx.Done():
			drain(results, outcomes)
			break collect
		}
	}

	timeouts := 0
	for key := range reqs {
		out, ok := outcomes[key]
		if !ok {
			out = timeoutOutcome()
			outcomes[key] = out
		}

		switch {
		case out.TimedOut():
			timeouts++
			log.Warn(ctx, "replica timed out", "replica", key)
		case out.Err != nil:
			log.Warn(ctx, "replica request failed", "replica", key, "error", out.Err)
		}
	}

	log.Debug(ctx, "fan-out complete",
		"replicas", len(reqs),
		"succeeded", Succeeded(outcomes),
		"timeouts", timeouts,
		"elapsed", time.Since(started),
	)

	return outcomes
}

// drain takes results that were already delivered when the deadline fired.
func drain(results <-chan result, outcomes map[string]Outcome) {
	for {
		select {
		case r, ok := <-results:
			if !ok {
				return
			}
			outcomes[r.key] = r.outcome
		default:
			return
		}
	}
}

func (o *Orchestrator) do(ctx context.Context, log logging.Logger, requestID string, r Request) Outcome {
	var body io.Reader
	if len(r.Body) > 0 {
		body = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return errorOutcome(fmt.Errorf("failed to create HTTP request: %w", err))
	}

	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	req.Header.Set("Accept", "application/json")
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", didery.UserAgent())
	req.Header.Set(HeaderRequestID, requestID)
	req.Close = true

	log.Debug(ctx, "dispatching replica request", "method", r.Method, "url", r.URL)

	resp, err := o.doer.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return timeoutOutcome()
		}
		return errorOutcome(fmt.Errorf("HTTP request failed: %w", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, o.maxBodySize))
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
			return timeoutOutcome()
		}
		return errorOutcome(fmt.Errorf("failed to read response body: %w", err))
	}

	return Outcome{Status: resp.StatusCode, Body: data}
}
