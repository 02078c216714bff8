// Package cmd implements the CLI application to backtest rebalancing
// strategies.
package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/etnz/rebalance"
	"github.com/etnz/rebalance/renderer"
	"github.com/google/subcommands"
)

// Commands lists every subcommand of the application. A main package
// registers them on a commander, and the completion and extension machinery
// walk the list.
var Commands = []subcommands.Command{
	&runCmd{},
	&compareCmd{},
	&reportCmd{},
	&scenariosCmd{},
	&fetchCmd{},
	&normalizeCmd{},
	&importCmd{},
	&exportCmd{},
	&topicCmd{},
	&assistCmd{},
}

// Register the subcommands on a commander.
func Register(c *subcommands.Commander) {
	for _, cmd := range Commands {
		c.Register(cmd, "")
	}
}

// Environment variables honored as flag defaults, and passed down to
// extension binaries.
const (
	EnvMarketFile   = "RBS_MARKET_FILE"
	EnvScenarioFile = "RBS_SCENARIO_FILE"
)

func envDefault(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

// marketFlag carries the -m flag of every command touching market data.
type marketFlag struct{ path string }

func (m *marketFlag) SetFlags(f *flag.FlagSet) {
	f.StringVar(&m.path, "m", envDefault(EnvMarketFile, "market.jsonl"), "market data file (JSONL)")
}

func (m *marketFlag) load() (*rebalance.Market, error) {
	return rebalance.LoadMarket(m.path)
}

func (m *marketFlag) save(market *rebalance.Market) error {
	return rebalance.SaveMarket(m.path, market)
}

// scenarioFlag carries the -s flag of every command running scenarios.
type scenarioFlag struct{ path string }

func (s *scenarioFlag) SetFlags(f *flag.FlagSet) {
	f.StringVar(&s.path, "s", envDefault(EnvScenarioFile, ""), "scenario file (YAML), builtins are always available")
}

// scenarios returns the user scenarios followed by the builtins. A missing
// file is only an error when it was asked for explicitly.
func (s *scenarioFlag) scenarios() ([]*rebalance.Scenario, error) {
	var list []*rebalance.Scenario
	if s.path != "" {
		user, err := rebalance.LoadScenarios(s.path)
		if err != nil && !(errors.Is(err, fs.ErrNotExist) && os.Getenv(EnvScenarioFile) == s.path) {
			return nil, err
		}
		list = append(list, user...)
	}
	return append(list, rebalance.Builtins()...), nil
}

// find returns the scenario with that name, user scenarios shadow builtins.
func (s *scenarioFlag) find(name string) (*rebalance.Scenario, error) {
	scenarios, err := s.scenarios()
	if err != nil {
		return nil, err
	}
	for _, sc := range scenarios {
		if sc.Name == name {
			return sc, nil
		}
	}
	return nil, fmt.Errorf("unknown scenario %q, see `rbs scenarios`", name)
}

// simulate runs one scenario against the market and computes its metrics.
func simulate(s *rebalance.Scenario, m *rebalance.Market) (renderer.Run, error) {
	r, err := rebalance.Simulate(s, m)
	if err != nil {
		return renderer.Run{}, err
	}
	metrics, err := rebalance.ComputeMetrics(r)
	if err != nil {
		return renderer.Run{}, err
	}
	return renderer.Run{Result: r, Metrics: metrics}, nil
}

// fail prints the error and returns the failure status, the common exit of
// every command.
func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}
