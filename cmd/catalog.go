package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and manage the reference catalog",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog domains and functions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		source, cleanup, err := catalogSource(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		cat, err := source.Load(ctx)
		if err != nil {
			return err
		}

		funcs := cat.Functions
		if domainFilter, _ := cmd.Flags().GetString("domain"); domainFilter != "" {
			funcs = cat.FunctionsByDomain(domainFilter)
		}

		w := os.Stdout
		fmt.Fprintf(w, "%-10s %-50s %-25s %s\n", "ID", "Function", "Domain", "Levels")
		fmt.Fprintln(w, strings.Repeat("-", 100))
		for _, f := range funcs {
			fmt.Fprintf(w, "%-10s %-50s %-25s %s\n", f.ID, f.Name, f.DomainName, strings.Join(f.LevelTags, ","))
		}
		fmt.Fprintf(w, "\n%d functions in %d domains\n", len(funcs), len(cat.Domains))
		return nil
	},
}

var catalogLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load the configured catalog source into the store",
	Long: `Read the catalog from the configured source (builtin, file, or
http) and replace the store's copy with it. Afterwards the store can
serve as the catalog source for matching.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		source, cleanup, err := catalogSource(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		cat, err := source.Load(ctx)
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.ReplaceCatalog(ctx, cat.Domains, cat.Functions); err != nil {
			return err
		}

		zap.L().Info("catalog loaded into store",
			zap.Int("domains", len(cat.Domains)),
			zap.Int("functions", len(cat.Functions)),
		)
		fmt.Printf("Loaded %d domains and %d functions into the store\n", len(cat.Domains), len(cat.Functions))
		return nil
	},
}

func init() {
	catalogListCmd.Flags().String("domain", "", "filter by domain id or name")
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogLoadCmd)
	rootCmd.AddCommand(catalogCmd)
}
