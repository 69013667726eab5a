package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"venuescraper/internal/store"
)

var exportFlags struct {
	format string
	output string
}

// exportCmd dumps the stored venues to a file or stdout.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored venues as CSV or JSON",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFlags.format, "format", "csv", "export format: csv or json")
	exportCmd.Flags().StringVarP(&exportFlags.output, "output", "o", "-", `output file ("-" = stdout)`)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.DataDir)
	if err != nil {
		return err
	}
	defer db.Close()

	var out io.Writer = os.Stdout
	if exportFlags.output != "-" {
		f, err := os.Create(exportFlags.output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	ctx := context.Background()
	switch exportFlags.format {
	case "csv":
		return db.ExportCSV(ctx, out)
	case "json":
		return db.ExportJSON(ctx, out)
	default:
		return fmt.Errorf("unknown format %q (want csv or json)", exportFlags.format)
	}
}
