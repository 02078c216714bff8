// Command rbs backtests portfolio rebalancing strategies.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/rebalance/cmd"
	"github.com/google/subcommands"
	"github.com/joho/godotenv"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

func main() {
	// API keys and file overrides can live in a .env next to the data.
	_ = godotenv.Load()

	completion()

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	flag.Parse()

	// Unknown subcommands fall through to rbs-<name> extension binaries.
	if name := flag.Arg(0); name != "" && !known(name) {
		if ran, code := cmd.RunExtension(name, flag.Args()[1:]); ran {
			os.Exit(code)
		}
	}

	os.Exit(int(commander.Execute(context.Background())))
}

// known reports whether name is a registered subcommand.
func known(name string) bool {
	switch name {
	case "help", "flags", "commands":
		return true
	}
	for _, c := range cmd.Commands {
		if c.Name() == name {
			return true
		}
	}
	return false
}

// completion wires shell completion, it only acts when the shell is asking
// (COMP_LINE is set) and returns immediately otherwise.
func completion() {
	sub := make(map[string]*complete.Command, len(cmd.Commands))
	for _, c := range cmd.Commands {
		sub[c.Name()] = &complete.Command{
			Flags: map[string]complete.Predictor{
				"m":   predict.Files("*.jsonl"),
				"s":   predict.Files("*.yaml"),
				"o":   predict.Files("*"),
				"csv": predict.Files("*.csv"),
			},
		}
	}
	(&complete.Command{Sub: sub}).Complete("rbs")
}
