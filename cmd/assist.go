package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/rebalance/agent"
	"github.com/google/subcommands"
	"google.golang.org/genai"
)

type assistCmd struct {
	marketFlag
	scenarioFlag
}

func (*assistCmd) Name() string     { return "assist" }
func (*assistCmd) Synopsis() string { return "start an interactive session with the AI assistant" }
func (*assistCmd) Usage() string {
	return `rbs assist [-s <scenarios.yaml>] [-m <market.jsonl>] [initial question]

  Starts an interactive session with the AI assistant. The assistant can run
  and compare the available scenarios on the local market data, and research
  the indices involved. It needs a Gemini API key in the environment.

`
}

func (c *assistCmd) SetFlags(f *flag.FlagSet) {
	c.marketFlag.SetFlags(f)
	c.scenarioFlag.SetFlags(f)
}

func (c *assistCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	initialPrompt := ""
	if f.NArg() > 0 {
		initialPrompt = strings.Join(f.Args(), " ")
	}

	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error initializing Gemini's client:", err)
		return subcommands.ExitFailure
	}

	quant := agent.NewQuant(c.marketFlag.path, c.scenarioFlag.path)
	researcher := agent.NewResearcher()
	a := agent.New(os.Stdout, os.Stdin, quant, researcher)

	if err := a.Run(ctx, client, initialPrompt); err != nil {
		fmt.Fprintln(os.Stderr, "Agent failed:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
