package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/rebalance"
	"github.com/etnz/rebalance/date"
	"github.com/etnz/rebalance/eastmoney"
	"github.com/etnz/rebalance/yahoo"
	"github.com/google/subcommands"
)

type fetchCmd struct {
	marketFlag
	provider string
	key      string
	symbol   string
	label    string
	from     string
	to       string
}

func (*fetchCmd) Name() string     { return "fetch" }
func (*fetchCmd) Synopsis() string { return "download an index and merge it into the market file" }
func (*fetchCmd) Usage() string {
	return `rbs fetch -p <yahoo|eastmoney> -k <key> [-symbol <symbol>] [-from <date>] [-to <date>] [-m <market.jsonl>]

  Downloads the daily history of an index from a provider and merges it into
  the market file. The builtin keys know their own symbol; any other key
  needs -symbol.

Usage Examples:
# The US indices come from yahoo.
$ rbs fetch -p yahoo -k sp500

# The CSI strategy and ChinaBond indices come from eastmoney.
$ rbs fetch -p eastmoney -k csi930955
$ rbs fetch -p eastmoney -k mydividend -symbol 2.930740

`
}

func (c *fetchCmd) SetFlags(f *flag.FlagSet) {
	c.marketFlag.SetFlags(f)
	f.StringVar(&c.provider, "p", "", "provider, yahoo or eastmoney")
	f.StringVar(&c.key, "k", "", "market data key to store the index under")
	f.StringVar(&c.symbol, "symbol", "", "provider symbol, defaults to the one of the builtin key")
	f.StringVar(&c.label, "name", "", "display name of the index")
	f.StringVar(&c.from, "from", rebalance.DefaultStart.String(), "first day to fetch")
	f.StringVar(&c.to, "to", date.Today().String(), "last day to fetch")
}

func (c *fetchCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.key == "" {
		return fail(fmt.Errorf("no key, use -k"))
	}
	from, err := date.Parse(c.from)
	if err != nil {
		return fail(fmt.Errorf("invalid -from: %w", err))
	}
	to, err := date.Parse(c.to)
	if err != nil {
		return fail(fmt.Errorf("invalid -to: %w", err))
	}
	within := date.NewRange(from, to)

	var ix *rebalance.Index
	switch c.provider {
	case "yahoo":
		symbol := c.symbol
		if symbol == "" {
			symbol = yahoo.Symbols[c.key]
		}
		if symbol == "" {
			return fail(fmt.Errorf("key %q has no yahoo symbol, use -symbol", c.key))
		}
		ix, err = yahoo.Fetch(c.key, c.label, symbol, within)
	case "eastmoney":
		secid := c.symbol
		if secid == "" {
			secid = eastmoney.Secids[c.key]
		}
		if secid == "" {
			return fail(fmt.Errorf("key %q has no eastmoney security id, use -symbol", c.key))
		}
		ix, err = eastmoney.Fetch(c.key, c.label, secid, within)
	case "":
		return fail(fmt.Errorf("no provider, use -p yahoo or -p eastmoney"))
	default:
		return fail(fmt.Errorf("unknown provider %q", c.provider))
	}
	if err != nil {
		return fail(err)
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
