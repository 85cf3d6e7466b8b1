package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/jwebster45206/dialogue-engine/pkg/validation"
)

func filterReport(r validation.Report, characterID string) validation.Report {
	out := validation.Report{Graphs: make(map[string]validation.Result)}
	if res, ok := r.Graphs[characterID]; ok {
		out.Graphs[characterID] = res
	}
	for _, iss := range r.PatternUnlockIssues {
		if iss.CharacterID == characterID {
			out.PatternUnlockIssues = append(out.PatternUnlockIssues, iss)
		}
	}
	for _, iss := range r.AlignmentIssues {
		if iss.CharacterID == characterID {
			out.AlignmentIssues = append(out.AlignmentIssues, iss)
		}
	}

	out.Valid = !validation.HasErrors(out.PatternUnlockIssues) && !validation.HasErrors(out.AlignmentIssues)
	for _, res := range out.Graphs {
		out.Valid = out.Valid && res.Valid
	}
	return out
}

func printReport(w io.Writer, r validation.Report, warnings bool) {
	ids := make([]string, 0, len(r.Graphs))
	for id := range r.Graphs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		res := r.Graphs[id]
		s := res.Summary
		status := "ok"
		if !res.Valid {
			status = "FAIL"
		}
		fmt.Fprintf(w, "%s [%s] %d nodes, %d choices, %d gated choices, %d errors, %d warnings\n",
			id, status, s.TotalNodes, s.TotalChoices, s.GatedChoices, s.Errors, s.Warnings)
		for _, iss := range res.GatingIssues {
			if iss.Severity == validation.SeverityWarning && !warnings {
				continue
			}
			fmt.Fprintf(w, "  %-7s %-22s %s: %s\n", iss.Severity, iss.Type, iss.NodeID, iss.Message)
		}
	}

	if len(r.PatternUnlockIssues) > 0 {
		fmt.Fprintln(w, "pattern unlocks:")
		for _, iss := range r.PatternUnlockIssues {
			fmt.Fprintf(w, "  %-7s %-22s %s: %s\n", iss.Severity, iss.Type, iss.CharacterID, iss.Message)
		}
	}
	if len(r.AlignmentIssues) > 0 {
		fmt.Fprintln(w, "registry alignment:")
		for _, iss := range r.AlignmentIssues {
			fmt.Fprintf(w, "  %-7s %-22s %s: %s\n", iss.Severity, iss.Type, iss.CharacterID, iss.Message)
		}
	}

	if r.Valid {
		fmt.Fprintln(w, "Content is valid.")
	} else {
		fmt.Fprintln(w, "Content has errors.")
	}
}
