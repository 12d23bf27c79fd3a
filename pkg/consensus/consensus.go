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

// Package consensus reduces independent replica answers to one trusted
// record by plurality vote.
//
// Replica records are grouped by structural equality with the `changed`
// timestamp left out, since every write stamps a fresh one. The largest
// group wins only when it is strictly larger than every other group. Ties,
// or no decodable replica at all, give ErrNoConsensus together with the
// evidence so callers can report the conflicting candidates.
package consensus

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sage-x-project/didery-go/pkg/record"
	"github.com/sage-x-project/didery-go/pkg/transport"
)

// ErrNoConsensus is returned when no record is supported by a strict plurality.
var ErrNoConsensus = errors.New("no consensus")

// Decoder turns a replica response body into a validated record.
type Decoder func(body []byte) (*record.Record, error)

// Candidate is a group of replicas that served the same record.
type Candidate struct {
	// Record is the member with the latest `changed` value.
	Record *record.Record

	// Replicas are the keys of the replicas in this group, sorted.
	Replicas []string

	fingerprint string
}

// Support is the number of replicas in the group.
func (c Candidate) Support() int {
	return len(c.Replicas)
}

// Result is the outcome of a vote.
type Result struct {
	// Record is the agreed record, nil without consensus.
	Record *record.Record

	// Replicas are the replicas that agreed on Record.
	Replicas []string

	// Candidates lists every group, largest first.
	Candidates []Candidate

	// Failed maps each replica that took no part in the vote to the reason.
	Failed map[string]error
}

// Support is the number of replicas backing the agreed record.
func (r *Result) Support() int {
	return len(r.Replicas)
}

// Resolve decodes every 2xx outcome with decode and votes over the
// decoded records. Timeouts, transport failures, non-2xx answers and
// undecodable bodies are recorded in Result.Failed. The Result is returned
// even when the error is ErrNoConsensus.
func Resolve(outcomes map[string]transport.Outcome, decode Decoder) (*Result, error) {
	records := make(map[string]*record.Record, len(outcomes))
	failed := make(map[string]error)

	for key, out := range outcomes {
		switch {
		case out.Err != nil:
			failed[key] = out.Err
		case !out.OK():
			failed[key] = fmt.Errorf("status %d: %s", out.Status, out.Body)
		default:
			rec, err := decode(out.Body)
			if err != nil {
				failed[key] = err
				continue
			}
			records[key] = rec
		}
	}

	res, err := Vote(records)
	for key, reason := range failed {
		res.Failed[key] = reason
	}
	return res, err
}

// Vote groups records by content, ignoring `changed`, and picks the strict
// plurality. Records that cannot be fingerprinted are reported in
// Result.Failed and take no part in the vote.
func Vote(records map[string]*record.Record) (*Result, error) {
	groups := make(map[string]*Candidate)
	failed := make(map[string]error)

	for _, key := range sortedKeys(records) {
		rec := records[key]
		if rec == nil {
			continue
		}

		fp, err := rec.Fingerprint(record.FieldChanged)
		if err != nil {
			failed[key] = fmt.Errorf("failed to fingerprint record: %w", err)
			continue
		}

		g, ok := groups[fp]
		if !ok {
			g = &Candidate{Record: rec, fingerprint: fp}
			groups[fp] = g
		} else if rec.Changed() > g.Record.Changed() {
			g.Record = rec
		}
		g.Replicas = append(g.Replicas, key)
	}

	candidates := make([]Candidate, 0, len(groups))
	for _, g := range groups {
		candidates = append(candidates, *g)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Support() != candidates[j].Support() {
			return candidates[i].Support() > candidates[j].Support()
		}
		return candidates[i].fingerprint < candidates[j].fingerprint
	})

	res := &Result{Candidates: candidates, Failed: failed}

	if len(candidates) == 0 {
		return res, fmt.Errorf("%w: no replica returned a usable record", ErrNoConsensus)
	}

	if len(candidates) > 1 && candidates[0].Support() == candidates[1].Support() {
		return res, fmt.Errorf("%w: %d candidates tied at %d replicas", ErrNoConsensus, countTied(candidates), candidates[0].Support())
	}

	res.Record = candidates[0].Record
	res.Replicas = candidates[0].Replicas
	return res, nil
}

func countTied(candidates []Candidate) int {
	n := 1
	for n < len(candidates) && candidates[n].Support() == candidates[0].Support() {
		n++
	}
	return n
}

func sortedKeys(m map[string]*record.Record) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
