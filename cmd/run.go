package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/rebalance/renderer"
	"github.com/google/subcommands"
)

type runCmd struct {
	marketFlag
	scenarioFlag
	name   string
	csv    string
	events bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "backtest one scenario and print its summary" }
func (*runCmd) Usage() string {
	return `rbs run -n <scenario> [-s <scenarios.yaml>] [-m <market.jsonl>] [-csv <out.csv>] [-events]

  Simulates one scenario against the market data and prints its performance
  summary. -csv also writes the full daily path, -events prints every
  rebalancing event.

Usage Examples:
# Run the builtin threshold5 scenario.
$ rbs run -n threshold5

# Run a scenario of your own and keep the daily path.
$ rbs run -s my.yaml -n my-balanced -csv path.csv

`
}

func (c *runCmd) SetFlags(f *flag.FlagSet) {
	c.marketFlag.SetFlags(f)
	c.scenarioFlag.SetFlags(f)
	f.StringVar(&c.name, "n", "", "name of the scenario to run")
	f.StringVar(&c.csv, "csv", "", "write the daily path to this CSV file")
	f.BoolVar(&c.events, "events", false, "print the rebalancing events")
}

func (c *runCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.name == "" && f.NArg() == 1 {
		c.name = f.Arg(0)
	}
	if c.name == "" {
		return fail(fmt.Errorf("no scenario name, use -n (see `rbs scenarios`)"))
	}

	s, err := c.find(c.name)
	if err != nil {
		return fail(err)
	}
	m, err := c.load()
	if err != nil {
		return fail(err)
	}
	run, err := simulate(s, m)
	if err != nil {
		return fail(err)
	}

	if c.csv != "" {
		out, err := os.Create(c.csv)
		if err != nil {
			return fail(err)
		}
		defer out.Close()
		if err := run.Result.WriteCSV(out); err != nil {
			return fail(err)
		}
		fmt.Fprintf(os.Stderr, "wrote daily path to %s\n", c.csv)
	}

	printMarkdown(renderer.SummaryMarkdown(run))
	if c.events {
		printMarkdown(renderer.EventsMarkdown(run.Result))
	}
	return subcommands.ExitSuccess
}
