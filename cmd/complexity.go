package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/odaworks/delivery-cli/internal/complexity"
	"github.com/odaworks/delivery-cli/internal/estimate"
)

var complexityCmd = &cobra.Command{
	Use:   "complexity",
	Short: "Compute the delivery complexity multiplier for a selection",
	Long: `Resolve a selection of project characteristics (customer types,
product mix, access technologies, channels, deployment, NFR tiers, and
integration scope) against the scoring configuration.

The overall multiplier is the product of all resolved factors; delivery
services are reported separately and never fold into the overall value.
Unknown ids degrade to 1.0 and are listed as unresolved.

Examples:
  # Inline selection
  complexity --customer-types enterprise --product-mixes fiber \
    --deployment cloud --api-count 2 --legacy

  # Selection from file, with effort estimate
  complexity --selection project.yaml --effort

  # Machine-readable output
  complexity --selection project.yaml --format json`,
	RunE: runComplexity,
}

func init() {
	addComplexityFlags(complexityCmd)
	rootCmd.AddCommand(complexityCmd)
}

func addComplexityFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("selection", "", "YAML selection file")
	f.String("customer-types", "", "comma-separated customer type ids")
	f.String("product-mixes", "", "comma-separated product mix ids")
	f.String("access-technologies", "", "comma-separated access technology ids")
	f.String("channels", "", "comma-separated channel ids")
	f.String("deployment", "", "deployment id")
	f.StringSlice("nfr", nil, "NFR tier selection as dimension=tier (repeatable)")
	f.Int("api-count", 0, "number of integrated APIs")
	f.Bool("legacy", false, "integration requires legacy compatibility")
	f.String("services", "", "comma-separated delivery services to enable (default: all)")
	f.Bool("effort", false, "include the effort breakdown")
	f.String("format", "table", "output format: table, csv, or json")
	f.String("output", "", "output file path (default: stdout)")
}

func runComplexity(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("format")
	if format != "table" && format != "csv" && format != "json" {
		return eris.Errorf("complexity: --format must be table, csv, or json (got %q)", format)
	}

	sel, err := buildSelection(cmd)
	if err != nil {
		return err
	}

	scoringCfg, err := loadComplexityConfig()
	if err != nil {
		return err
	}

	result := complexity.Compute(sel, scoringCfg)

	withEffort, _ := cmd.Flags().GetBool("effort")
	var breakdown *estimate.Breakdown
	if withEffort {
		b := estimate.ComputeBreakdown(result, estimate.DefaultBaseline())
		breakdown = &b
	}

	outputPath, _ := cmd.Flags().GetString("output")
	var w *os.File
	if outputPath != "" {
		w, err = os.Create(outputPath)
		if err != nil {
			return eris.Wrapf(err, "complexity: create output file %s", outputPath)
		}
		defer w.Close() //nolint:errcheck
	} else {
		w = os.Stdout
	}

	if format == "json" {
		out := struct {
			Result complexity.Result   `json:"result"`
			Effort *estimate.Breakdown `json:"effort,omitempty"`
		}{result, breakdown}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(out), "complexity: write JSON")
	}

	if format == "csv" {
		return writeComplexityCSV(w, result, breakdown)
	}

	printComplexityTable(w, result)
	if breakdown != nil {
		printEffortTable(w, *breakdown)
	}
	return nil
}

// buildSelection assembles the selection from a file and/or flags.
// Flags override the file's values.
func buildSelection(cmd *cobra.Command) (complexity.Selection, error) {
	var sel complexity.Selection

	if path, _ := cmd.Flags().GetString("selection"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return sel, eris.Wrapf(err, "complexity: read selection %s", path)
		}
		var wrapper struct {
			Selection complexity.Selection `yaml:"selection"`
		}
		if err := yaml.Unmarshal(data, &wrapper); err != nil {
			return sel, eris.Wrapf(err, "complexity: parse selection %s", path)
		}
		sel = wrapper.Selection
	}

	if v, _ := cmd.Flags().GetString("customer-types"); v != "" {
		sel.CustomerTypeIDs = splitAndTrim(v)
	}
	if v, _ := cmd.Flags().GetString("product-mixes"); v != "" {
		sel.ProductMixIDs = splitAndTrim(v)
	}
	if v, _ := cmd.Flags().GetString("access-technologies"); v != "" {
		sel.AccessTechnologyIDs = splitAndTrim(v)
	}
	if v, _ := cmd.Flags().GetString("channels"); v != "" {
		sel.ChannelIDs = splitAndTrim(v)
	}
	if v, _ := cmd.Flags().GetString("deployment"); v != "" {
		sel.DeploymentID = v
	}
	if v, _ := cmd.Flags().GetString("services"); v != "" {
		sel.DeliveryServicesEnabled = splitAndTrim(v)
	}
	if v, _ := cmd.Flags().GetInt("api-count"); v != 0 {
		sel.Integration.APICount = v
	}
	if v, _ := cmd.Flags().GetBool("legacy"); v {
		sel.Integration.RequiresLegacyCompatibility = true
	}

	nfrFlags, _ := cmd.Flags().GetStringSlice("nfr")
	if len(nfrFlags) > 0 {
		if sel.NFRSelections == nil {
			sel.NFRSelections = make(map[complexity.NFRDimension]string, len(nfrFlags))
		}
		for _, pair := range nfrFlags {
			dim, tier, ok := strings.Cut(pair, "=")
			if !ok {
				return sel, eris.Errorf("complexity: --nfr must be dimension=tier (got %q)", pair)
			}
			sel.NFRSelections[complexity.NFRDimension(strings.TrimSpace(dim))] = strings.TrimSpace(tier)
		}
	}

	return sel, nil
}

func printComplexityTable(w *os.File, res complexity.Result) {
	fmt.Fprintln(w, "Category factors:")
	for _, key := range []string{
		complexity.CategoryCustomerType,
		complexity.CategoryProductMix,
		complexity.CategoryAccessTechnology,
		complexity.CategoryChannel,
		complexity.CategoryDeployment,
	} {
		cat := res.Categories[key]
		fmt.Fprintf(w, "  %-20s %-45s x%.4f\n", key, cat.Label, cat.Multiplier)
	}

	fmt.Fprintln(w, "\nNFR factors:")
	for _, dim := range complexity.AllNFRDimensions() {
		r := res.NFRs[dim]
		if r == nil {
			fmt.Fprintf(w, "  %-20s %-45s x%.4f\n", dim, "Not selected", 1.0)
			continue
		}
		fmt.Fprintf(w, "  %-20s %-45s x%.4f\n", dim, r.Label, r.Multiplier)
	}

	fmt.Fprintf(w, "\nIntegration:           %-45s x%.4f\n", res.Integration.Label, res.Integration.Multiplier)
	fmt.Fprintf(w, "\nOverall multiplier:    %.4f\n", res.OverallMultiplier)

	fmt.Fprintln(w, "\nStage multipliers:")
	for _, stage := range complexity.DeliveryStages {
		if mul, ok := res.StageMultipliers[stage]; ok {
			fmt.Fprintf(w, "  %-20s x%.4f\n", stage, mul)
		}
	}

	if len(res.DeliveryServiceMultipliers) > 0 {
		fmt.Fprintln(w, "\nDelivery services:")
		services := make([]string, 0, len(res.DeliveryServiceMultipliers))
		for svc := range res.DeliveryServiceMultipliers {
			services = append(services, svc)
		}
		sort.Strings(services)
		for _, svc := range services {
			fmt.Fprintf(w, "  %-20s x%.4f\n", svc, res.DeliveryServiceMultipliers[svc])
		}
	}

	if len(res.UnresolvedIDs) > 0 {
		fmt.Fprintf(w, "\nUnresolved ids (treated as 1.0): %s\n", strings.Join(res.UnresolvedIDs, ", "))
	}
}

func printEffortTable(w *os.File, b estimate.Breakdown) {
	fmt.Fprintln(w, "\nEffort estimate:")
	fmt.Fprintf(w, "  %-20s %10s %10s %10s\n", "Stage", "Baseline", "Factor", "Days")
	for _, s := range b.Stages {
		fmt.Fprintf(w, "  %-20s %10s %10.4f %10s\n",
			s.Stage, estimate.FormatDays(s.BaselineDays), s.Multiplier, estimate.FormatDays(s.Days))
	}
	fmt.Fprintf(w, "  %-20s %32s\n", "Stage total", estimate.FormatDays(b.StageTotalDays))

	if len(b.Services) > 0 {
		fmt.Fprintf(w, "\n  %-20s %10s %10s %10s\n", "Service", "Baseline", "Factor", "Days")
		for _, s := range b.Services {
			fmt.Fprintf(w, "  %-20s %10s %10.4f %10s\n",
				s.Service, estimate.FormatDays(s.BaselineDays), s.Multiplier, estimate.FormatDays(s.Days))
		}
		fmt.Fprintf(w, "  %-20s %32s\n", "Service total", estimate.FormatDays(b.ServiceTotalDays))
	}
}

// complexityRow flattens one resolved factor for CSV export. The day
// columns are filled only when the effort breakdown is requested.
type complexityRow struct {
	Kind         string   `csv:"kind"`
	Key          string   `csv:"key"`
	Label        string   `csv:"label"`
	Multiplier   float64  `csv:"multiplier"`
	BaselineDays *float64 `csv:"baseline_days"`
	Days         *float64 `csv:"days"`
}

func complexityRows(res complexity.Result, b *estimate.Breakdown) []complexityRow {
	rows := make([]complexityRow, 0, 16)

	for _, key := range []string{
		complexity.CategoryCustomerType,
		complexity.CategoryProductMix,
		complexity.CategoryAccessTechnology,
		complexity.CategoryChannel,
		complexity.CategoryDeployment,
	} {
		cat := res.Categories[key]
		rows = append(rows, complexityRow{Kind: "category", Key: key, Label: cat.Label, Multiplier: cat.Multiplier})
	}

	for _, dim := range complexity.AllNFRDimensions() {
		row := complexityRow{Kind: "nfr", Key: string(dim), Label: "Not selected", Multiplier: 1.0}
		if r := res.NFRs[dim]; r != nil {
			row.Label = r.Label
			row.Multiplier = r.Multiplier
		}
		rows = append(rows, row)
	}

	rows = append(rows, complexityRow{Kind: "integration", Key: "integration", Label: res.Integration.Label, Multiplier: res.Integration.Multiplier})
	rows = append(rows, complexityRow{Kind: "overall", Key: "overall", Multiplier: res.OverallMultiplier})

	stageEffort := make(map[string]estimate.StageEffort)
	serviceEffort := make(map[string]estimate.ServiceEffort)
	if b != nil {
		for _, s := range b.Stages {
			stageEffort[s.Stage] = s
		}
		for _, s := range b.Services {
			serviceEffort[s.Service] = s
		}
	}

	for _, stage := range complexity.DeliveryStages {
		mul, ok := res.StageMultipliers[stage]
		if !ok {
			continue
		}
		row := complexityRow{Kind: "stage", Key: stage, Multiplier: mul}
		if e, ok := stageEffort[stage]; ok {
			baseline, days := e.BaselineDays, e.Days
			row.BaselineDays, row.Days = &baseline, &days
		}
		rows = append(rows, row)
	}

	services := make([]string, 0, len(res.DeliveryServiceMultipliers))
	for svc := range res.DeliveryServiceMultipliers {
		services = append(services, svc)
	}
	sort.Strings(services)
	for _, svc := range services {
		row := complexityRow{Kind: "service", Key: svc, Multiplier: res.DeliveryServiceMultipliers[svc]}
		if e, ok := serviceEffort[svc]; ok {
			baseline, days := e.BaselineDays, e.Days
			row.BaselineDays, row.Days = &baseline, &days
		}
		rows = append(rows, row)
	}

	for _, id := range res.UnresolvedIDs {
		rows = append(rows, complexityRow{Kind: "unresolved", Key: id, Multiplier: 1.0})
	}

	return rows
}

func writeComplexityCSV(w io.Writer, res complexity.Result, b *estimate.Breakdown) error {
	data, err := csvutil.Marshal(complexityRows(res, b))
	if err != nil {
		return eris.Wrap(err, "complexity: marshal CSV")
	}
	if _, err := w.Write(data); err != nil {
		return eris.Wrap(err, "complexity: write CSV")
	}
	return nil
}
