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
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	"github.com/sage-x-project/didery-go/pkg/client"
	"github.com/sage-x-project/didery-go/pkg/consensus"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	failColor = color.New(color.FgRed)
	keyColor  = color.New(color.FgCyan)
)

func printField(w io.Writer, name, value string) {
	fmt.Fprintf(w, "%s %s\n", keyColor.Sprintf("%-12s", name+":"), value)
}

func printError(w io.Writer, err error) {
	failColor.Fprintf(w, "error: %v\n", err)
}

// printResult shows the agreed record followed by every replica that
// disagreed or failed.
func printResult(w io.Writer, res *consensus.Result, replicas int) {
	if res.Record != nil {
		body, err := res.Record.Canonical()
		if err != nil {
			printError(w, err)
			return
		}
		okColor.Fprintf(w, "consensus %d/%d\n", res.Support(), replicas)
		fmt.Fprintln(w, string(body))
	} else {
		failColor.Fprintf(w, "no consensus across %d replicas\n", replicas)
	}

	for i, cand := range res.Candidates {
		if res.Record != nil && i == 0 {
			continue
		}
		for _, r := range cand.Replicas {
			warnColor.Fprintf(w, "  %s disagrees (group of %d)\n", r, cand.Support())
		}
	}

	for _, r := range sortedKeys(res.Failed) {
		failColor.Fprintf(w, "  %s failed: %v\n", r, res.Failed[r])
	}
}

// printWrite lists each replica's answer to a write.
func printWrite(w io.Writer, res *client.WriteResult) {
	for _, r := range sortedKeys(res.Outcomes) {
		o := res.Outcomes[r]
		switch {
		case o.OK():
			okColor.Fprintf(w, "  %s %d\n", r, o.Status)
		case o.TimedOut():
			warnColor.Fprintf(w, "  %s timeout\n", r)
		default:
			failColor.Fprintf(w, "  %s %d %s\n", r, o.Status, o.Body)
		}
	}
	fmt.Fprintf(w, "accepted by %d/%d replicas\n", res.Succeeded(), len(res.Outcomes))
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
