package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/David-Botos/sensor-ingress/pkg/ingest"
	"github.com/David-Botos/sensor-ingress/pkg/model"
	"github.com/David-Botos/sensor-ingress/pkg/pipeline"
)

var parsePretty bool

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Decode an export and print the resulting table without storing it",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func init() {
	parseCmd.Flags().BoolVar(&parsePretty, "pretty", false, "indent the JSON output")
	rootCmd.AddCommand(parseCmd)
}

// parseOutput is the printed form of a decoded table
type parseOutput struct {
	Columns []string        `json:"columns"`
	Rows    [][]interface{} `json:"rows"`
	Stats   pipeline.Stats  `json:"stats"`
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	p, _, err := newPipeline(cfg, logger)
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[0], err)
	}
	defer f.Close()

	table, err := ingest.ReadTable(f, filepath.Base(args[0]))
	if err != nil {
		return err
	}

	res, err := p.Run(table, "parse")
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	if parsePretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(newParseOutput(res))
}

func newParseOutput(res *pipeline.Result) parseOutput {
	out := parseOutput{
		Columns: res.Table.Columns,
		Rows:    make([][]interface{}, len(res.Table.Rows)),
		Stats:   res.Stats,
	}
	for i, row := range res.Table.Rows {
		out.Rows[i] = orderedRow(res.Table.Columns, row)
	}
	return out
}

func orderedRow(columns []string, row model.Row) []interface{} {
	values := make([]interface{}, len(columns))
	for i, col := range columns {
		values[i] = row[col]
	}
	return values
}
