package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"
)

type scenariosCmd struct {
	scenarioFlag
}

func (*scenariosCmd) Name() string     { return "scenarios" }
func (*scenariosCmd) Synopsis() string { return "list the available scenarios" }
func (*scenariosCmd) Usage() string {
	return `rbs scenarios [-s <scenarios.yaml>]

  Lists the available scenarios: the ones of the scenario file, then the
  builtins, with their policy and target allocation.

`
}

func (c *scenariosCmd) SetFlags(f *flag.FlagSet) {
	c.scenarioFlag.SetFlags(f)
}

func (c *scenariosCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	scenarios, err := c.scenarios()
	if err != nil {
		return fail(err)
	}

	var b strings.Builder
	b.WriteString("# Scenarios\n\n")
	for _, s := range scenarios {
		var assets []string
		for _, a := range s.Assets {
			assets = append(assets, fmt.Sprintf("%s %.1f%%", a.Label(), a.Weight*100))
		}
		fmt.Fprintf(&b, "- **%s**: %s, %s over %s\n", s.Name, s.Policy, strings.Join(assets, ", "), s.Range())
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
