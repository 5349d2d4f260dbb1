// SPDX-License-Identifier: MIT

package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/ManuGH/geoanonymizer/spatial/mask"
)

func runStrategies(args []string) int {
	fs := flag.NewFlagSet("geoanonymize strategies", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	if err := fs.Parse(args); err != nil {
		return 2
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, spec := range mask.Specs() {
		fmt.Fprintf(w, "%s\t%s\n", spec.Form, spec.Summary)
	}
	_ = w.Flush()
	fmt.Println()
	fmt.Println("Stages joined with \"+\" are chained left to right, e.g. offset:1,1+round:2.")
	fmt.Println("Distances are decimal degrees unless suffixed with \"m\" for meters.")
	return 0
}
