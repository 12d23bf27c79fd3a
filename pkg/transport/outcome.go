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
	"encoding/json"
	"errors"
	"net/http"
)

// TimeoutBody is the body of a replica that missed the deadline.
const TimeoutBody = `{"error":"request timeout"}`

// ErrTimeout marks a replica that did not answer before the deadline.
var ErrTimeout = errors.New("request timeout")

// Request describes one replica request.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Outcome is one replica's result. Completed requests carry the HTTP status
// and body. Timeouts and transport failures carry status 0, a JSON
// {"error": "..."} body and a non-nil Err.
type Outcome struct {
	Status int
	Body   []byte
	Err    error
}

// TimedOut reports whether the replica missed the deadline.
func (o Outcome) TimedOut() bool {
	return errors.Is(o.Err, ErrTimeout)
}

// OK reports whether the replica answered with a 2xx status.
func (o Outcome) OK() bool {
	return o.Err == nil && o.Status >= 200 && o.Status < 300
}

func timeoutOutcome() Outcome {
	return Outcome{Body: []byte(TimeoutBody), Err: ErrTimeout}
}

func errorOutcome(err error) Outcome {
	body, merr := json.Marshal(map[string]string{"error": err.Error()})
	if merr != nil {
		body = []byte(`{"error":"request failed"}`)
	}
	return Outcome{Body: body, Err: err}
}

// Succeeded counts the outcomes with a 2xx status. Writes are not checked
// against a quorum; callers compare this count with their own threshold.
func Succeeded(outcomes map[string]Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.OK() {
			n++
		}
	}
	return n
}
