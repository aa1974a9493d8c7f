package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/stackaudit/stackaudit/pkg/analysis"
	"github.com/stackaudit/stackaudit/pkg/audit"
)

// writeTextReport renders the audit result and analyzer output as a
// human-readable report.
func writeTextReport(w io.Writer, result *audit.Result, report *analysis.Report) error {
	fmt.Fprintf(w, "Audit %s\n", result.ID)
	fmt.Fprintf(w, "  Dependencies:    %d\n", result.TotalDependencies)
	fmt.Fprintf(w, "  Vulnerabilities: %d (critical %d, high %d, medium %d, low %d)\n",
		result.TotalVulnerabilities,
		result.CriticalCount, result.HighCount, result.MediumCount, result.LowCount)

	if result.TotalVulnerabilities == 0 {
		fmt.Fprintln(w, "\nNo known vulnerabilities found.")
		return nil
	}

	if len(report.CriticalPaths) > 0 {
		fmt.Fprintln(w, "\nCritical paths:")
		for _, cp := range report.CriticalPaths {
			fmt.Fprintf(w, "  [%s] %s\n", strings.ToUpper(cp.Risk), cp.Path)
			fmt.Fprintf(w, "         %s: %s\n", cp.CVEID, cp.Resolution)
		}
	}

	if len(report.QuickWins) > 0 {
		fmt.Fprintln(w, "\nQuick wins:")
		for _, qw := range report.QuickWins {
			fmt.Fprintf(w, "  %s: %s (%s effort)\n", qw.Package, qw.Impact, qw.Effort)
			if qw.Command != "" {
				fmt.Fprintf(w, "    $ %s\n", qw.Command)
			}
		}
	}

	if len(report.Conflicts) > 0 {
		fmt.Fprintln(w, "\nVersion conflicts:")
		for _, c := range report.Conflicts {
			fmt.Fprintf(w, "  %s required at %s by %s (%s risk)\n",
				c.Package,
				strings.Join(c.RequiredVersions, ", "),
				strings.Join(c.AffectedParents, ", "),
				c.RiskLevel)
		}
	}

	if len(result.Errors) > 0 {
		fmt.Fprintln(w, "\nWarnings:")
		for _, e := range result.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
	return nil
}
