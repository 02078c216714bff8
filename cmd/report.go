package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/etnz/rebalance/renderer"
	"github.com/etnz/rebalance/report"
	"github.com/google/subcommands"
)

type reportCmd struct {
	marketFlag
	scenarioFlag
	out string
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "write an HTML comparison report with charts" }
func (*reportCmd) Usage() string {
	return `rbs report [-s <scenarios.yaml>] [-m <market.jsonl>] [-o <dir>] [scenario...]

  Simulates the named scenarios (all of them by default) and writes a static
  HTML report into the output directory: the comparison table and PNG charts
  of the equity curves, cumulative returns and drawdowns.

Usage Examples:
$ rbs report -o report/
$ open report/index.html

`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	c.marketFlag.SetFlags(f)
	c.scenarioFlag.SetFlags(f)
	f.StringVar(&c.out, "o", "report", "output directory")
}

func (c *reportCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	m, err := c.load()
	if err != nil {
		return fail(err)
	}
	scenarios, err := c.scenarios()
	if err != nil {
		return fail(err)
	}
	if f.NArg() > 0 {
		scenarios = scenarios[:0]
		for _, name := range f.Args() {
			s, err := c.find(name)
			if err != nil {
				return fail(err)
			}
			scenarios = append(scenarios, s)
		}
	}

	var runs []renderer.Run
	for _, s := range scenarios {
		run, err := simulate(s, m)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skipping %q: %v\n", s.Name, err)
			continue
		}
		runs = append(runs, run)
	}
	if len(runs) == 0 {
		return fail(fmt.Errorf("no scenario could run against %s", c.marketFlag.path))
	}

	if err := report.Write(c.out, runs); err != nil {
		return fail(err)
	}
	fmt.Fprintf(os.Stderr, "✅ report written to %s\n", filepath.Join(c.out, "index.html"))
	return subcommands.ExitSuccess
}
