package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/DarwinOsingo/Afrigene/internal/domain/model"
)

// emit prints v as JSON when --json or --query is set, and otherwise runs
// text against an aligned tab writer.
func emit(cmdCtx *commandContext, v any, text func(w *tabwriter.Writer)) error {
	if cmdCtx.Opts.JSON || cmdCtx.Opts.Query != "" {
		return writeJSON(cmdCtx, v)
	}
	tw := tabwriter.NewWriter(cmdCtx.IO.out, 0, 4, 2, ' ', 0)
	text(tw)
	return tw.Flush()
}

func writeJSON(cmdCtx *commandContext, v any) error {
	out := v
	if q := strings.TrimSpace(cmdCtx.Opts.Query); q != "" {
		projected, err := project(v, q)
		if err != nil {
			return err
		}
		out = projected
	}
	enc := json.NewEncoder(cmdCtx.IO.out)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// project applies a JMESPath expression to the JSON form of v.
func project(v any, expr string) (any, error) {
	if _, err := jmespath.Compile(expr); err != nil {
		return nil, fmt.Errorf("%w: invalid --query: %v", errUsage, err)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	res, err := jmespath.Search(expr, doc)
	if err != nil {
		return nil, fmt.Errorf("evaluate --query: %w", err)
	}
	return res, nil
}

func writeResults(w *tabwriter.Writer, res model.SampleResults) {
	writef(w, "Sample:\t%s\n", res.SampleID)
	writef(w, "Status:\t%s\n", res.SampleStatus)
	if res.ResultsComputedAt != nil {
		writef(w, "Computed:\t%s\n", formatTime(*res.ResultsComputedAt))
	}
	if res.Disclaimer != "" {
		writef(w, "Disclaimer:\t%s\n", res.Disclaimer)
	}

	if a := res.Ancestry; a != nil && len(a.PrimaryPopulations) > 0 {
		writef(w, "\nANCESTRY\tESTIMATE\tINTERVAL\tREFERENCE\n")
		for _, p := range a.PrimaryPopulations {
			writef(w, "%s\t%.1f%%\t%.0f-%.0f%%\t%s (n=%d)\n",
				p.PopulationGroup, p.Percentage,
				p.ConfidenceInterval.Lower, p.ConfidenceInterval.Upper,
				dash(p.ReferenceDataset), p.SampleSizeReference)
		}
		if a.Methodology != "" {
			writef(w, "\nMethodology:\t%s\n", a.Methodology)
		}
		for _, lim := range a.Limitations {
			writef(w, "Limitation:\t%s\n", lim)
		}
	} else {
		writef(w, "\nNo ancestry data available.\n")
	}

	if len(res.HealthMarkers) == 0 {
		writef(w, "\nNo health markers identified.\n")
		return
	}
	writef(w, "\nGENE\tVARIANT\tGENOTYPE\tPHENOTYPE\tSIGNIFICANCE\n")
	for _, m := range res.HealthMarkers {
		writef(w, "%s\t%s\t%s\t%s\t%s\n", m.Gene, m.Variant, dash(m.Genotype), dash(m.Phenotype), dash(m.ClinicalSignificance))
	}
	writef(w, "\nResearch use only. These results are not diagnostic.\n")
}

func writePageFooter(w *tabwriter.Writer, offset, n, total int) {
	if total <= n && offset == 0 {
		return
	}
	writef(w, "\nShowing %d-%d of %d\n", offset+1, offset+n, total)
}

func formatTime(ts model.Timestamp) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.UTC().Format(time.DateTime)
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
