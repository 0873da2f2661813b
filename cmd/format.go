package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"

	"github.com/sells-group/constituent-twin/internal/model"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

func checkFormat(f string) error {
	if f != formatTable && f != formatJSON {
		return eris.Errorf("unknown format %q (want table or json)", f)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "encode output")
}

func formatProfile(w io.Writer, p *model.DemographicProfile) {
	fmt.Fprintf(w, "Region:         %s\n", p.RegionID)
	fmt.Fprintf(w, "Source:         %s\n", p.Source)
	if p.FallbackReason != "" {
		fmt.Fprintf(w, "Fallback:       %s\n", p.FallbackReason)
	}
	fmt.Fprintf(w, "Population:     %d\n", p.Population)
	fmt.Fprintf(w, "Median income:  $%d\n", p.MedianIncome)
	if p.MedianAge > 0 {
		fmt.Fprintf(w, "Median age:     %.1f\n", p.MedianAge)
	}
	if len(p.ZIPCodes) > 0 {
		fmt.Fprintf(w, "ZIP codes:      %s\n", strings.Join(p.ZIPCodes, ", "))
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\nCATEGORY\tKEY\tPCT")
	writeWeights(tw, "age", model.AgeBrackets, p.AgeGroups)
	writeWeights(tw, "race", model.RaceCategories, p.RaceEthnicity)
	writeWeights(tw, "education", model.EducationLevels, p.EducationLevels)
	writeWeights(tw, "occupation", model.OccupationCategories, p.OccupationCategories)
	_ = tw.Flush()
}

func writeWeights(w io.Writer, category string, order []string, m map[string]int) {
	for _, k := range order {
		if v, ok := m[k]; ok {
			fmt.Fprintf(w, "%s\t%s\t%d\n", category, k, v)
		}
	}
	// Keys outside the canonical order, if any, in stable order.
	var extra []string
	for k := range m {
		if !slices.Contains(order, k) {
			extra = append(extra, k)
		}
	}
	slices.Sort(extra)
	for _, k := range extra {
		fmt.Fprintf(w, "%s\t%s\t%d\n", category, k, m[k])
	}
}

func formatPersonas(w io.Writer, b *model.PersonaBatch) {
	cached := ""
	if b.Cached {
		cached = " (cached)"
	}
	fmt.Fprintf(w, "%d personas for %s from %s, profile %s%s\n\n",
		len(b.Personas), b.RegionID, b.Source, b.ProfileSource, cached)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tAGE\tRACE\tEDUCATION\tOCCUPATION\tINCOME")
	for _, p := range b.Personas {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t$%d\n",
			p.ID, p.Age, p.RaceEthnicityLabel, p.EducationLevel, p.OccupationLabel, p.AnnualIncome)
	}
	_ = tw.Flush()

	for _, p := range b.Personas {
		fmt.Fprintf(w, "\n%s: %s\n", p.DisplayName, p.Narrative)
	}
}

func formatSummary(w io.Writer, s *model.PolicySummary) {
	fmt.Fprintf(w, "%s\n", s.Title)
	fmt.Fprintf(w, "(%d words, %s, %s)\n\n", s.WordCount, s.Source, s.ContentHash)
	fmt.Fprintln(w, s.Summary)
	if len(s.KeyPoints) > 0 {
		fmt.Fprintln(w)
		for _, kp := range s.KeyPoints {
			fmt.Fprintf(w, "  - %s\n", kp)
		}
	}
}

func formatStats(w io.Writer, stats map[string]int) {
	kinds := make([]string, 0, len(stats))
	total := 0
	for k, n := range stats {
		kinds = append(kinds, k)
		total += n
	}
	slices.Sort(kinds)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tENTRIES")
	for _, k := range kinds {
		fmt.Fprintf(tw, "%s\t%d\n", k, stats[k])
	}
	fmt.Fprintf(tw, "total\t%d\n", total)
	_ = tw.Flush()
}
