// =============================================================================
// GSTR-2B to Tally Masters - Main Entry Point
// =============================================================================
//
// This is the main entry point for the tallymasters CLI application. It
// delegates command execution to the cmd package.
//
// USAGE:
//   tallymasters process    - Derive masters for every report in the input directory
//   tallymasters normalize  - Flatten one report into an invoices JSON document
//   tallymasters masters    - Generate masters from an invoices JSON document
//   tallymasters version    - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Report parsing, ledger derivation, rendering and storage
//   - pkg/           : File management and run logs
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/gstr2b-tally-masters/cmd"
)

// main is the entry point of the application.
func main() {
	cmd.Execute()
}
