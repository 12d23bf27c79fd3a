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

// Package transport fans requests out to didery replicas.
//
// One fan-out call sends one request per replica, all concurrently, and
// waits under a single shared deadline:
//
//	o := transport.NewOrchestrator(transport.WithLogger(log))
//
//	outcomes := o.FanOut(ctx, map[string]transport.Request{
//	    "http://localhost:8080": {Method: http.MethodGet, URL: "http://localhost:8080/history/" + id},
//	    "http://localhost:8000": {Method: http.MethodGet, URL: "http://localhost:8000/history/" + id},
//	}, 10*time.Second)
//
// The result has exactly one Outcome per replica. A slow or dead replica
// never holds the call past the deadline: it is reported as a timeout
// Outcome with status 0 and the body {"error":"request timeout"}, and its
// connection is closed. Transport failures are reported the same way with
// the failure message in the body. Neither is returned as an error, so one
// bad replica cannot abort the others.
//
// Every request carries Accept: application/json, Connection: close, a
// didery-go User-Agent and an X-Request-ID shared by the whole call.
//
// FanOut never retries. Retrying is a caller concern across separate calls.
package transport
