package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/odaworks/delivery-cli/internal/importer"
	"github.com/odaworks/delivery-cli/internal/model"
)

var matchCmd = &cobra.Command{
	Use:   "match <file>",
	Short: "Map requirement function names onto the reference catalog",
	Long: `Read a requirements file (CSV or XLSX) and map every free-text
function name onto the reference catalog.

Matching runs exact first, then substring within the hinted domain,
then substring across all domains, then word overlap. Each assignment
carries a confidence in [0, 1]; requirements with no qualifying
candidate are counted as unmapped.

Examples:
  # Map a CSV export and print a table
  match requirements.csv

  # Custom column headers
  match reqs.xlsx --id-col "Req ID" --name-col Capability

  # Export assignments to CSV and persist the batch
  match requirements.csv --format csv --output assignments.csv --save`,
	Args: cobra.ExactArgs(1),
	RunE: runMatch,
}

func init() {
	f := matchCmd.Flags()
	f.String("format", "table", "output format: table, csv, or json")
	f.String("output", "", "output file path (default: stdout)")
	f.Bool("save", false, "persist the import batch and assignments to the store")
	f.String("id-col", "", "requirement id column header (default: requirement_id)")
	f.String("name-col", "", "function name column header (default: function_name)")
	f.String("hint-col", "", "domain hint column header (default: domain_hint)")
	f.String("sheet", "", "XLSX sheet name (default: first sheet)")

	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path := args[0]
	format, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")
	save, _ := cmd.Flags().GetBool("save")

	if format != "table" && format != "csv" && format != "json" {
		return eris.Errorf("match: --format must be table, csv, or json (got %q)", format)
	}

	idCol, _ := cmd.Flags().GetString("id-col")
	nameCol, _ := cmd.Flags().GetString("name-col")
	hintCol, _ := cmd.Flags().GetString("hint-col")
	sheet, _ := cmd.Flags().GetString("sheet")

	records, err := importer.ReadFile(path, importer.Options{
		Columns: importer.ColumnMap{
			RequirementID: idCol,
			FunctionName:  nameCol,
			DomainHint:    hintCol,
		},
		SheetName: sheet,
	})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No requirements found.")
		return nil
	}

	source, cleanup, err := catalogSource(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	cat, err := source.Load(ctx)
	if err != nil {
		return err
	}

	m, err := buildMatcher(cfg.Matcher)
	if err != nil {
		return err
	}

	result := m.MapAll(records, cat.Functions)

	if err := outputMatchResult(result, format, outputPath); err != nil {
		return err
	}

	if save {
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		batch, err := st.CreateImportBatch(ctx, path, len(records), result.Unmapped)
		if err != nil {
			return err
		}
		saved, err := st.SaveAssignments(ctx, batch.ID, result.Assignments)
		if err != nil {
			return err
		}
		zap.L().Info("import batch saved",
			zap.String("batch_id", batch.ID),
			zap.Int64("assignments", saved),
		)
		fmt.Printf("Saved batch %s (%d assignments)\n", batch.ID, saved)
	}

	printMatchSummary(result, len(records))
	return nil
}

func outputMatchResult(result model.MappingResult, format, outputPath string) error {
	var w *os.File
	if outputPath != "" {
		var err error
		w, err = os.Create(outputPath)
		if err != nil {
			return eris.Wrapf(err, "match: create output file %s", outputPath)
		}
		defer w.Close() //nolint:errcheck
	} else {
		w = os.Stdout
	}

	switch format {
	case "csv":
		return importer.WriteAssignmentsCSV(w, result.Assignments)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(result), "match: write JSON")
	default:
		return writeMatchTable(w, result.Assignments)
	}
}

func writeMatchTable(w *os.File, assignments []model.Assignment) error {
	header := fmt.Sprintf("%-12s %-10s %-45s %-25s %10s\n",
		"Requirement", "Function", "Function Name", "Domain", "Confidence")
	if _, err := fmt.Fprint(w, header); err != nil {
		return eris.Wrap(err, "match: write table header")
	}
	if _, err := fmt.Fprintln(w, strings.Repeat("-", 106)); err != nil {
		return eris.Wrap(err, "match: write table separator")
	}

	for _, a := range assignments {
		name := a.FunctionName
		if len(name) > 45 {
			name = name[:42] + "..."
		}
		line := fmt.Sprintf("%-12s %-10s %-45s %-25s %10.2f\n",
			a.RequirementID, a.FunctionID, name, a.DomainName, a.Confidence)
		if _, err := fmt.Fprint(w, line); err != nil {
			return eris.Wrap(err, "match: write table row")
		}
	}
	return nil
}

func printMatchSummary(result model.MappingResult, total int) {
	fmt.Printf("\n--- Summary ---\n")
	fmt.Printf("Requirements:  %d\n", total)
	fmt.Printf("Assignments:   %d\n", len(result.Assignments))
	fmt.Printf("Unmapped:      %d\n", result.Unmapped)

	if len(result.CountsByFunction) == 0 {
		return
	}
	type funcCount struct {
		id string
		n  int
	}
	counts := make([]funcCount, 0, len(result.CountsByFunction))
	for id, n := range result.CountsByFunction {
		counts = append(counts, funcCount{id, n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].n != counts[j].n {
			return counts[i].n > counts[j].n
		}
		return counts[i].id < counts[j].id
	})

	fmt.Println("\nTop functions:")
	for i, fc := range counts {
		if i >= 10 {
			break
		}
		fmt.Printf("  %-10s %d\n", fc.id, fc.n)
	}
}
