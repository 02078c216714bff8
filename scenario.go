package rebalance

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/etnz/rebalance/date"
	"gopkg.in/yaml.v3"
)

// ErrConfig reports a scenario or market configuration the engine refuses to
// run on. It is wrapped in every configuration error.
var ErrConfig = errors.New("invalid configuration")

// Defaults applied to scenario fields left empty.
const (
	DefaultCapital      = 1_000_000.0
	DefaultInitialRatio = 0.20
	DefaultYears        = 2
	DefaultRiskFree     = 0.03
	DefaultCurrency     = "CNY"
)

// Default backtest window applied when a scenario has no start or end date.
var (
	DefaultStart = date.New(2015, 1, 1)
	DefaultEnd   = date.New(2025, 10, 30)
)

// Asset is one index in a scenario, identified by the key of its market data
// series, with its target weight as a fraction of the portfolio.
type Asset struct {
	Key    string
	Name   string
	Weight float64
}

// Label returns the display name of the asset, falling back to its key.
func (a Asset) Label() string {
	if a.Name != "" {
		return a.Name
	}
	return a.Key
}

// Scenario describes one backtest: how much capital goes in, over which
// window, into which assets, and which policy keeps them on target.
//
// Capital enters in two parts: Capital*InitialRatio as a lump sum on the
// first trading day, the rest spread evenly over the trading days of the
// first Years years. RiskFree is the annual rate used by the Sharpe and
// Sortino ratios.
type Scenario struct {
	Name         string
	Capital      float64
	Start        date.Date
	End          date.Date
	InitialRatio float64
	Years        int
	RiskFree     float64
	Currency     string
	Policy       Policy
	Assets       []Asset
}

// Range returns the backtest window, boundaries included.
func (s *Scenario) Range() date.Range { return date.NewRange(s.Start, s.End) }

// Keys returns the market data keys of the scenario assets, in declaration order.
func (s *Scenario) Keys() []string {
	keys := make([]string, len(s.Assets))
	for i, a := range s.Assets {
		keys[i] = a.Key
	}
	return keys
}

// Validate checks the scenario invariants. All errors wrap ErrConfig.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: scenario has no name", ErrConfig)
	}
	if s.Capital <= 0 {
		return fmt.Errorf("%w: scenario %q: capital must be positive, got %g", ErrConfig, s.Name, s.Capital)
	}
	if s.End.Before(s.Start) {
		return fmt.Errorf("%w: scenario %q: end %s is before start %s", ErrConfig, s.Name, s.End, s.Start)
	}
	if s.InitialRatio < 0 || s.InitialRatio > 1 {
		return fmt.Errorf("%w: scenario %q: initial ratio must be in [0,1], got %g", ErrConfig, s.Name, s.InitialRatio)
	}
	if s.Years < 0 {
		return fmt.Errorf("%w: scenario %q: contribution years must not be negative, got %d", ErrConfig, s.Name, s.Years)
	}
	if s.Policy == nil {
		return fmt.Errorf("%w: scenario %q has no policy", ErrConfig, s.Name)
	}
	if len(s.Assets) == 0 {
		return fmt.Errorf("%w: scenario %q has no assets", ErrConfig, s.Name)
	}
	seen := make(map[string]bool, len(s.Assets))
	sum := 0.0
	for _, a := range s.Assets {
		if a.Key == "" {
			return fmt.Errorf("%w: scenario %q: asset %q has no key", ErrConfig, s.Name, a.Name)
		}
		if seen[a.Key] {
			return fmt.Errorf("%w: scenario %q: duplicate asset key %q", ErrConfig, s.Name, a.Key)
		}
		seen[a.Key] = true
		if a.Weight <= 0 {
			return fmt.Errorf("%w: scenario %q: asset %q weight must be positive, got %g", ErrConfig, s.Name, a.Key, a.Weight)
		}
		sum += a.Weight
	}
	if abs(sum-1) > 1e-6 {
		return fmt.Errorf("%w: scenario %q: asset weights sum to %g, want 1", ErrConfig, s.Name, sum)
	}
	return nil
}

// yaml forms. Dates and policies need parsing, so the exported types do not
// carry yaml tags themselves.

type scenarioYaml struct {
	Name         string      `yaml:"name"`
	Capital      float64     `yaml:"capital"`
	Start        string      `yaml:"start"`
	End          string      `yaml:"end"`
	InitialRatio *float64    `yaml:"initial_ratio"`
	Years        *int        `yaml:"years"`
	RiskFree     *float64    `yaml:"risk_free"`
	Currency     string      `yaml:"currency"`
	Policy       *policyYaml `yaml:"policy"`
	Assets       []assetYaml `yaml:"assets"`
}

type policyYaml struct {
	Kind      string  `yaml:"kind"`
	Threshold float64 `yaml:"threshold"`
	Days      int     `yaml:"days"`
}

type assetYaml struct {
	Key    string  `yaml:"key"`
	Name   string  `yaml:"name"`
	Weight float64 `yaml:"weight"`
}

// UnmarshalYAML decodes a scenario, applying the package defaults to absent
// fields. The decoded scenario is validated.
func (s *Scenario) UnmarshalYAML(node *yaml.Node) error {
	var raw scenarioYaml
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("%w: %s", ErrConfig, err)
	}

	s.Name = raw.Name
	s.Capital = raw.Capital
	if s.Capital == 0 {
		s.Capital = DefaultCapital
	}

	s.Start = DefaultStart
	if raw.Start != "" {
		on, err := date.Parse(raw.Start)
		if err != nil {
			return fmt.Errorf("%w: scenario %q: %s", ErrConfig, raw.Name, err)
		}
		s.Start = on
	}
	s.End = DefaultEnd
	if raw.End != "" {
		on, err := date.Parse(raw.End)
		if err != nil {
			return fmt.Errorf("%w: scenario %q: %s", ErrConfig, raw.Name, err)
		}
		s.End = on
	}

	s.InitialRatio = DefaultInitialRatio
	if raw.InitialRatio != nil {
		s.InitialRatio = *raw.InitialRatio
	}
	s.Years = DefaultYears
	if raw.Years != nil {
		s.Years = *raw.Years
	}
	s.RiskFree = DefaultRiskFree
	if raw.RiskFree != nil {
		s.RiskFree = *raw.RiskFree
	}
	s.Currency = raw.Currency
	if s.Currency == "" {
		s.Currency = DefaultCurrency
	}

	s.Policy = Never{}
	if raw.Policy != nil {
		p, err := ParsePolicy(raw.Policy.Kind, raw.Policy.Threshold, raw.Policy.Days)
		if err != nil {
			return fmt.Errorf("scenario %q: %w", raw.Name, err)
		}
		s.Policy = p
	}

	s.Assets = make([]Asset, len(raw.Assets))
	for i, a := range raw.Assets {
		s.Assets[i] = Asset{Key: a.Key, Name: a.Name, Weight: a.Weight}
	}

	return s.Validate()
}

// DecodeScenarios reads scenarios from a YAML stream. A document may hold one
// scenario or a sequence of scenarios, and a stream may hold several
// documents.
func DecodeScenarios(r io.Reader) ([]*Scenario, error) {
	dec := yaml.NewDecoder(r)
	var scenarios []*Scenario
	for {
		var node yaml.Node
		err := dec.Decode(&node)
		if err == io.EOF {
			return scenarios, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrConfig, err)
		}
		// Decode hands back the document node, the payload is its child.
		root := &node
		if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
			root = root.Content[0]
		}
		if root.Kind == yaml.SequenceNode {
			var list []*Scenario
			if err := root.Decode(&list); err != nil {
				return nil, err
			}
			scenarios = append(scenarios, list...)
			continue
		}
		var s Scenario
		if err := root.Decode(&s); err != nil {
			return nil, err
		}
		scenarios = append(scenarios, &s)
	}
}

// LoadScenarios reads scenarios from a YAML file.
func LoadScenarios(path string) ([]*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open scenario file: %w", err)
	}
	defer f.Close()
	scenarios, err := DecodeScenarios(f)
	if err != nil {
		return nil, fmt.Errorf("in %s: %w", path, err)
	}
	return scenarios, nil
}
