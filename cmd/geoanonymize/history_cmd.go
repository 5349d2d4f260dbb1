// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ManuGH/geoanonymizer/internal/config"
	"github.com/ManuGH/geoanonymizer/internal/history"
	"github.com/ManuGH/geoanonymizer/internal/version"
)

func runHistory(args []string) int {
	fs := flag.NewFlagSet("geoanonymize history", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		limit  int
		file   string
		asJSON bool
	)
	fs.IntVar(&limit, "limit", 20, "number of runs to show, newest first")
	fs.StringVar(&file, "config", "", "path to config file (YAML)")
	fs.BoolVar(&asJSON, "json", false, "print runs as JSON")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	configFile := strings.TrimSpace(file)
	if configFile == "" {
		configFile = resolveDefaultConfigPath()
	}
	loader := config.NewLoader(configFile, version.Version)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return 2
	}

	hist, err := history.Open(cfg.History.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot open run history at %s: %v\n", cfg.History.Path, err)
		return 1
	}
	defer func() { _ = hist.Close() }()

	runs, err := hist.Recent(context.Background(), limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return 0
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(runs); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tMODE\tSTRATEGY\tROWS\tMASKED\tDROPPED\tOUTCOME\tINPUT")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			run.StartedAt.Format(time.RFC3339), run.Mode, run.Strategy,
			run.Rows, run.Masked, run.Dropped, run.Outcome, run.Input)
	}
	_ = w.Flush()
	return 0
}
