package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"goreplicate/domain/stats"
)

// PrintConsole mirrors the saved table on w, followed by per-sample
// observation and subject counts, log-likelihoods and the p-values of the
// comparison tests.
func PrintConsole(w io.Writer, table *stats.ResultTable, decimals int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "%s model\n\n", table.Model)
	g := DisplayGrid(table, decimals)
	fmt.Fprintln(tw, strings.Join(g.Headers, "\t"))
	for _, row := range g.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	fmt.Fprintln(tw)

	for _, r := range table.Results {
		name := r.Sample.String()
		if name == "" {
			name = "sample"
		}
		fmt.Fprintf(tw, "%s:\tN=%d\tsubjects=%d\tlog-likelihood=%s\tconverged=%t (%s)\n",
			name, r.N, r.J, fToStr(r.LogLik, 2), r.Fit.Converged, r.Fit.Status)
		if r.Summary.Excluded > 0 {
			fmt.Fprintf(tw, "\texcluded subjects=%d\n", r.Summary.Excluded)
		}
	}

	if len(table.Comparisons) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "equality across samples\tz\tp")
		for _, c := range table.Comparisons {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Name, fToStr(c.Z, decimals), fToStr(c.P, decimals))
		}
	}
	if j := table.Joint; j != nil {
		fmt.Fprintln(tw)
		fmt.Fprintf(tw, "joint equality (LR)\tchi2(%d)=%s\tp=%s\n", j.DF, fToStr(j.Statistic, decimals), fToStr(j.P, decimals))
	}
	return tw.Flush()
}
