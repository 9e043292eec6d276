package app

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/PeladoCollado/requester/types"
)

func printSummary(out io.Writer, report types.RunReport) {
	snapshot := report.Snapshot
	fmt.Fprintf(out, "Total requests: %d\n", snapshot.Total)
	fmt.Fprintf(out, "Response codes: %s\n", formatCodes(snapshot.Codes))
	if len(snapshot.Failures) > 0 {
		fmt.Fprintf(out, "Transport failures: %s\n", formatFailures(snapshot.Failures))
	}
	if snapshot.Latency.Count > 0 {
		l := snapshot.Latency
		fmt.Fprintf(out, "Latency ms: min=%.2f p50=%.2f p90=%.2f p99=%.2f max=%.2f mean=%.2f\n",
			l.MinMillis, l.P50Millis, l.P90Millis, l.P99Millis, l.MaxMillis, l.MeanMillis)
	}
	if report.Threads > 0 && report.ActiveWorkers < report.Threads {
		fmt.Fprintf(out, "Active workers: %d of %d\n", report.ActiveWorkers, report.Threads)
	}
	if report.AbandonedWorkers > 0 {
		fmt.Fprintf(out, "Abandoned workers: %d\n", report.AbandonedWorkers)
	}
}

// formatCodes renders the histogram in ascending code order, e.g.
// {0: 2, 200: 10}. Code 0 counts requests that got no response.
func formatCodes(codes map[uint16]uint64) string {
	keys := make([]uint16, 0, len(codes))
	for code := range codes {
		keys = append(keys, code)
	}
	slices.Sort(keys)
	parts := make([]string, 0, len(keys))
	for _, code := range keys {
		parts = append(parts, fmt.Sprintf("%d: %d", code, codes[code]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func formatFailures(failures map[types.FailureKind]uint64) string {
	kinds := make([]string, 0, len(failures))
	for kind := range failures {
		kinds = append(kinds, string(kind))
	}
	slices.Sort(kinds)
	parts := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		parts = append(parts, fmt.Sprintf("%s=%d", kind, failures[types.FailureKind(kind)]))
	}
	return strings.Join(parts, " ")
}
