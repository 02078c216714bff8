package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/rebalance"
	"github.com/etnz/rebalance/csindex"
	"github.com/etnz/rebalance/yahoo"
	"github.com/google/subcommands"
)

type normalizeCmd struct {
	format string
	key    string
	label  string
	out    string
}

func (*normalizeCmd) Name() string { return "normalize" }
func (*normalizeCmd) Synopsis() string {
	return "convert a provider CSV export into the normalized form"
}
func (*normalizeCmd) Usage() string {
	return `rbs normalize -f <yahoo|csindex> -k <key> [-o <out.csv>] <export.csv>

  Converts a hand-downloaded CSV export into the normalized Date,Open,Close
  form, ready for "rbs import". yahoo reads yfinance exports, csindex reads
  both dialects of the csindex.com.cn website.

Usage Examples:
$ rbs normalize -f csindex -k csi930955 930955perf.csv -o csi930955.csv
$ rbs import -k csi930955 csi930955.csv

`
}

func (c *normalizeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "f", "", "export format, yahoo or csindex")
	f.StringVar(&c.key, "k", "", "market data key of the index")
	f.StringVar(&c.label, "name", "", "display name of the index")
	f.StringVar(&c.out, "o", "", "output file, stdout by default")
}

func (c *normalizeCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.key == "" {
		return fail(fmt.Errorf("no key, use -k"))
	}
	if f.NArg() != 1 {
		return fail(fmt.Errorf("need exactly one export file, got %d", f.NArg()))
	}

	in, err := os.Open(f.Arg(0))
	if err != nil {
		return fail(err)
	}
	defer in.Close()

	var ix *rebalance.Index
	switch c.format {
	case "yahoo":
		ix, err = yahoo.NormalizeCSV(c.key, c.label, in)
	case "csindex":
		ix, err = csindex.Normalize(c.key, c.label, in)
	case "":
		return fail(fmt.Errorf("no format, use -f yahoo or -f csindex"))
	default:
		return fail(fmt.Errorf("unknown format %q", c.format))
	}
	if err != nil {
		return fail(err)
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
	if c.out != "" {
		fmt.Fprintf(os.Stderr, "✅ %s: %d days written to %s\n", c.key, ix.Days(), c.out)
	}
	return subcommands.ExitSuccess
}
