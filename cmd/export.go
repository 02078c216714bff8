package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/rebalance"
	"github.com/google/subcommands"
)

type exportCmd struct {
	marketFlag
	key string
	out string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write one index of the market file as normalized CSV" }
func (*exportCmd) Usage() string {
	return `rbs export -k <key> [-o <out.csv>] [-m <market.jsonl>]

  Writes one index of the market file in the normalized CSV form, to stdout
  or to a file.

Usage Examples:
$ rbs export -k sp500 > sp500.csv

`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	c.marketFlag.SetFlags(f)
	f.StringVar(&c.key, "k", "", "market data key of the index to export")
	f.StringVar(&c.out, "o", "", "output file, stdout by default")
}

func (c *exportCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.key == "" {
		return fail(fmt.Errorf("no key, use -k"))
	}
	m, err := c.load()
	if err != nil {
		return fail(err)
	}
	ix := m.Get(c.key)
	if ix == nil {
		return fail(fmt.Errorf("no index %q in %s", c.key, c.marketFlag.path))
	}

	out := os.Stdout
	if c.out != "" {
		out, err = os.Create(c.out)
		if err != nil {
			return fail(err)
		}
		defer out.Close()
	}
	if err := rebalance.WriteIndexCSV(out, ix); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}
