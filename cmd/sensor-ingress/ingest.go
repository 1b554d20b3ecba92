package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>...",
	Short: "Decode exports and store their readings",
	Long:  "Decode one or more .csv/.xlsx exports and store their readings, printing one JSON summary per file.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, path := range args {
		if err := ingestFile(ctx, a, enc, path); err != nil {
			return err
		}
	}
	return nil
}

func ingestFile(ctx context.Context, a *app, enc *json.Encoder, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	summary, err := a.manager.Ingest(ctx, f, filepath.Base(path))
	if err != nil {
		return err
	}
	return enc.Encode(summary)
}
