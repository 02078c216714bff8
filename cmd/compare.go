package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/rebalance"
	"github.com/etnz/rebalance/renderer"
	"github.com/google/subcommands"
)

type compareCmd struct {
	marketFlag
	scenarioFlag
}

func (*compareCmd) Name() string     { return "compare" }
func (*compareCmd) Synopsis() string { return "backtest several scenarios and rank them" }
func (*compareCmd) Usage() string {
	return `rbs compare [-s <scenarios.yaml>] [-m <market.jsonl>] [scenario...]

  Simulates the named scenarios (all of them by default) against the same
  market data and prints a comparison table ranked by total return, plus the
  best performer on each metric.

Usage Examples:
# Compare all the builtin scenarios.
$ rbs compare

# Compare two policies on the same allocation.
$ rbs compare balanced threshold5

`
}

func (c *compareCmd) SetFlags(f *flag.FlagSet) {
	c.marketFlag.SetFlags(f)
	c.scenarioFlag.SetFlags(f)
}

func (c *compareCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	m, err := c.load()
	if err != nil {
		return fail(err)
	}

	scenarios, err := c.scenarios()
	if err != nil {
		return fail(err)
	}
	if f.NArg() > 0 {
		selected := make([]*rebalance.Scenario, 0, f.NArg())
		for _, name := range f.Args() {
			s, err := c.find(name)
			if err != nil {
				return fail(err)
			}
			selected = append(selected, s)
		}
		scenarios = selected
	}

	var runs []renderer.Run
	for _, s := range scenarios {
		run, err := simulate(s, m)
		if err != nil {
			// keep comparing what can be compared
			fmt.Fprintf(os.Stderr, "skipping %q: %v\n", s.Name, err)
			continue
		}
		runs = append(runs, run)
	}
	if len(runs) == 0 {
		return fail(fmt.Errorf("no scenario could run against %s", c.marketFlag.path))
	}

	printMarkdown(renderer.CompareMarkdown(runs))
	return subcommands.ExitSuccess
}
