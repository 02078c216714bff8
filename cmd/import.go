package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/rebalance"
	"github.com/google/subcommands"
)

type importCmd struct {
	marketFlag
	key   string
	label string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "merge a normalized CSV file into the market file" }
func (*importCmd) Usage() string {
	return `rbs import -k <key> [-name <name>] [-m <market.jsonl>] <file.csv>

  Reads a normalized CSV file (Date,Open,Close) and merges it into the
  market file under the given key. New days are added, existing days are
  overwritten.

Usage Examples:
$ rbs import -k sp500 -name "S&P 500" sp500_normalized.csv

`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	c.marketFlag.SetFlags(f)
	f.StringVar(&c.key, "k", "", "market data key to store the index under")
	f.StringVar(&c.label, "name", "", "display name of the index")
}

func (c *importCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.key == "" {
		return fail(fmt.Errorf("no key, use -k"))
	}
	if f.NArg() != 1 {
		return fail(fmt.Errorf("need exactly one CSV file, got %d", f.NArg()))
	}

	in, err := os.Open(f.Arg(0))
	if err != nil {
		return fail(err)
	}
	defer in.Close()
	ix, err := rebalance.ReadIndexCSV(c.key, c.label, in)
	if err != nil {
		return fail(fmt.Errorf("in %s: %w", f.Arg(0), err))
	}

	m, err := c.load()
	if err != nil {
		return fail(err)
	}
	m.Merge(ix)
	if err := c.save(m); err != nil {
		return fail(err)
	}
	fmt.Fprintf(os.Stderr, "✅ %s: %d days merged into %s\n", c.key, ix.Days(), c.marketFlag.path)
	return subcommands.ExitSuccess
}
