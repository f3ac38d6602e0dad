package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/hupe1980/distkmeans"
)

func formatVector(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.FormatFloat(x, 'f', 6, 64)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// printResult writes the shared part of a result plus the timings.
func printResult(w io.Writer, res *distkmeans.Result, load, run time.Duration) {
	fmt.Fprintf(w, "state:       %s\n", res.State)
	fmt.Fprintf(w, "iterations:  %d\n", res.Iterations)
	fmt.Fprintf(w, "shift:       %g\n", res.Shift)
	fmt.Fprintf(w, "load time:   %s\n", load.Round(time.Microsecond))
	fmt.Fprintf(w, "run time:    %s\n", run.Round(time.Microsecond))
	if res.Iterations > 0 {
		fmt.Fprintf(w, "per iter:    %s\n", (run / time.Duration(res.Iterations)).Round(time.Microsecond))
	}
	fmt.Fprintln(w, "centroids:")
	for c := range res.K {
		fmt.Fprintf(w, "  %2d  n=%-10d %s\n", c, res.Counts[c], formatVector(res.Centroid(c)))
	}
}
