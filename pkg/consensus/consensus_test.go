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

package consensus

import (
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sage-x-project/didery-go/pkg/did"
	"github.com/sage-x-project/didery-go/pkg/record"
	"github.com/sage-x-project/didery-go/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testDID  = "did:dad:Qt27fThWoNZsa88VrTkep6H-4HA8tr54sHON1vWl6FE"
	otherKey = "Xq5YqaL6L48pf0fu7IUhL0JRaU2_RxFP0AL43wYn148"
)

func historyBody(signers []string, changed string) string {
	rec := record.NewHistory(did.DID(testDID), 0, signers).Set(record.FieldChanged, changed)
	body, err := record.New().Set(record.KindHistory.String(), rec).Canonical()
	if err != nil {
		panic(err)
	}
	return string(body)
}

func ok(body string) transport.Outcome {
	return transport.Outcome{Status: http.StatusOK, Body: []byte(body)}
}

func decodeHistory(body []byte) (*record.Record, error) {
	return record.ParseHistory(body, did.DefaultMethod)
}

func TestResolve(t *testing.T) {
	agreed := historyBody([]string{"Qt27fThWoNZsa88VrTkep6H-4HA8tr54sHON1vWl6FE"}, "2025-01-01T00:00:00.000000+00:00")
	agreedLater := historyBody([]string{"Qt27fThWoNZsa88VrTkep6H-4HA8tr54sHON1vWl6FE"}, "2025-01-02T00:00:00.000000+00:00")
	divergent := historyBody([]string{otherKey}, "2025-01-01T00:00:00.000000+00:00")
	third := historyBody([]string{otherKey, otherKey}, "2025-01-01T00:00:00.000000+00:00")
	timeout := transport.Outcome{Body: []byte(transport.TimeoutBody), Err: transport.ErrTimeout}

	tests := []struct {
		name         string
		outcomes     map[string]transport.Outcome
		wantErr      bool
		wantSupport  int
		wantReplicas []string
		wantChanged  string
		wantFailed   []string
	}{
		{
			name:         "three agree",
			outcomes:     map[string]transport.Outcome{"a": ok(agreed), "b": ok(agreed), "c": ok(agreed)},
			wantSupport:  3,
			wantReplicas: []string{"a", "b", "c"},
			wantChanged:  "2025-01-01T00:00:00.000000+00:00",
		},
		{
			name:         "two against one",
			outcomes:     map[string]transport.Outcome{"a": ok(agreed), "b": ok(divergent), "c": ok(agreed)},
			wantSupport:  2,
			wantReplicas: []string{"a", "c"},
			wantChanged:  "2025-01-01T00:00:00.000000+00:00",
		},
		{
			name:         "changed ignored and latest reported",
			outcomes:     map[string]transport.Outcome{"a": ok(agreed), "b": ok(agreedLater), "c": ok(divergent)},
			wantSupport:  2,
			wantReplicas: []string{"a", "b"},
			wantChanged:  "2025-01-02T00:00:00.000000+00:00",
		},
		{
			name:         "timeout does not vote",
			outcomes:     map[string]transport.Outcome{"a": ok(agreed), "b": timeout},
			wantSupport:  1,
			wantReplicas: []string{"a"},
			wantChanged:  "2025-01-01T00:00:00.000000+00:00",
			wantFailed:   []string{"b"},
		},
		{
			name:       "all divergent",
			outcomes:   map[string]transport.Outcome{"a": ok(agreed), "b": ok(divergent), "c": ok(third)},
			wantErr:    true,
			wantFailed: []string{},
		},
		{
			name:       "all timed out",
			outcomes:   map[string]transport.Outcome{"a": timeout, "b": timeout, "c": timeout},
			wantErr:    true,
			wantFailed: []string{"a", "b", "c"},
		},
		{
			name:       "two-two tie",
			outcomes:   map[string]transport.Outcome{"a": ok(agreed), "b": ok(agreed), "c": ok(divergent), "d": ok(divergent)},
			wantErr:    true,
			wantFailed: []string{},
		},
		{
			name: "error statuses and bad bodies do not vote",
			outcomes: map[string]transport.Outcome{
				"a": ok(agreed),
				"b": {Status: http.StatusNotFound, Body: []byte(`{"history":{}}`)},
				"c": ok(`[]`),
				"d": ok(`{"otp":{}}`),
			},
			wantSupport:  1,
			wantReplicas: []string{"a"},
			wantChanged:  "2025-01-01T00:00:00.000000+00:00",
			wantFailed:   []string{"b", "c", "d"},
		},
		{
			name:       "no replicas",
			outcomes:   map[string]transport.Outcome{},
			wantErr:    true,
			wantFailed: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Resolve(tt.outcomes, decodeHistory)
			require.NotNil(t, res)

			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoConsensus)
				assert.Nil(t, res.Record)
				assert.Zero(t, res.Support())
			} else {
				require.NoError(t, err)
				require.NotNil(t, res.Record)
				assert.Equal(t, tt.wantSupport, res.Support())
				assert.Equal(t, tt.wantReplicas, res.Replicas)
				assert.Equal(t, tt.wantChanged, res.Record.Changed())
			}

			if tt.wantFailed != nil {
				failed := make([]string, 0, len(res.Failed))
				for k := range res.Failed {
					failed = append(failed, k)
				}
				assert.ElementsMatch(t, tt.wantFailed, failed)
			}
		})
	}
}

func TestVote_CandidatesOrderedBySupport(t *testing.T) {
	a := record.NewOTP(did.DID(testDID), "one")
	b := record.NewOTP(did.DID(testDID), "two")

	res, err := Vote(map[string]*record.Record{
		"r1": a,
		"r2": b,
		"r3": a.Clone(),
		"r4": nil,
	})
	require.NoError(t, err)

	require.Len(t, res.Candidates, 2)
	assert.Equal(t, 2, res.Candidates[0].Support())
	assert.Equal(t, 1, res.Candidates[1].Support())

	got := []string{}
	for _, c := range res.Candidates {
		blob, _ := c.Record.String(record.FieldBlob)
		got = append(got, blob)
	}
	if diff := cmp.Diff([]string{"one", "two"}, got); diff != "" {
		t.Errorf("candidate order mismatch (-want +got):\n%s", diff)
	}
}

func TestVote_TieReportsAllCandidates(t *testing.T) {
	res, err := Vote(map[string]*record.Record{
		"r1": record.NewOTP(did.DID(testDID), "one"),
		"r2": record.NewOTP(did.DID(testDID), "two"),
	})

	assert.ErrorIs(t, err, ErrNoConsensus)
	assert.ErrorContains(t, err, "2 candidates tied at 1 replicas")
	assert.Len(t, res.Candidates, 2)
}

func TestVote_KeyOrderIgnored(t *testing.T) {
	// Records are compared on content, not on key order.
	a := record.New().Set("id", testDID).Set("blob", "x")
	b := record.New().Set("blob", "x").Set("id", testDID)

	res, err := Vote(map[string]*record.Record{"r1": a, "r2": b})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Support())
}

func TestVote_UnencodableRecordIsFailed(t *testing.T) {
	good := record.NewOTP(did.DID(testDID), "one")
	broken := record.NewOTP(did.DID(testDID), "one").Set("extra", make(chan int))

	res, err := Vote(map[string]*record.Record{
		"r1": good,
		"r2": good.Clone(),
		"r3": broken,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r2"}, res.Replicas)

	require.Contains(t, res.Failed, "r3")
	assert.ErrorContains(t, res.Failed["r3"], "failed to fingerprint record")
}
