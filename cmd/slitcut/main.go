// SlitCut: coil slitting optimizer.
//
// Chooses raw coil widths and slitting patterns that meet strip length
// demand at minimum material cost, under a ceiling on distinct knife setups.
//
// Build:
//   go build -o slitcut ./cmd/slitcut
//
// Usage:
//   slitcut solve --job week42.slitjob --out-pdf plan.pdf
//   slitcut solve --orders orders.csv --prices prices.csv --min 1000 --max 1300
//   slitcut compare --job week42.slitjob --baseline-width 1300
//   slitcut serve --listen :8080

package main

import "github.com/piwi3910/SlitCut/cmd/slitcut/commands"

func main() {
	commands.Execute()
}
