package agent

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/etnz/rebalance"
	"github.com/etnz/rebalance/docs"
	"github.com/etnz/rebalance/renderer"
	"google.golang.org/genai"
)

const model = "gemini-2.5-pro"

// newFacilitator creates the expert in charge of the conversation.
func newFacilitator(experts ...*Expert) *Expert {
	return &Expert{
		Name:      "Facilitator",
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(experts)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			As a facilitator you are in charge of the conversation and solving the user's request.

			Learn about the expert's skills that you can get from the Tools to ask them questions.
			They are at your service and 100% dedicated to you, they keep context of your previous questions.

			The user is here to design, run and understand portfolio backtests: which asset mix,
			which rebalancing policy, which funding plan. Ask the Quant to run the numbers, ask
			the Researcher for facts about the indices and markets involved.

			Devise a plan of questions to ask each expert and come up with the best response to
			the user's request. Never invent a figure: every number must come from the Quant.
		`}}},
		},
		Library: NewLibrary(experts),
	}
}

// NewResearcher returns the expert grounding answers in search results.
func NewResearcher() *Expert {
	return &Expert{
		Name: "Researcher",
		Description: `This is an expert of financial markets and indices,
		aware of index methodologies, providers and the latest market news.
		Ask the Researcher whenever you need recent or grounding information.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			You are an expert of financial markets: indices, their methodologies
			(S&P 500, Nasdaq 100, the CSI strategy indices, ChinaBond), funds and
			providers. You leverage Google Search to ground your assertions.
			You can get the latest news too, and you know how to relate them to
			the user's request.
				`}}},
		},
	}
}

// NewQuant returns the expert running backtests on the local engine. It
// reads the market from marketFile and the user scenarios, if any, from
// scenarioFile.
func NewQuant(marketFile, scenarioFile string) *Expert {
	q := &quant{marketFile: marketFile, scenarioFile: scenarioFile}
	lib := []Function{q.listScenarios(), q.runBacktest(), q.compareBacktests()}

	return &Expert{
		Name: "Quant",
		Description: `This is the Quant. He runs portfolio backtests on the local market data
		and computes their performance metrics. He knows the available scenarios, can run one
		by name, and can compare them all. Every figure about a backtest must come from him.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(lib)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
				You are a quantitative analyst in charge of the user's backtests.
				You know how to use the Tools to list the available scenarios, run one,
				and compare them. Answer with the figures the tools return, never from
				memory. The documentation of the metrics you report:

				` + must(docs.GetTopic("metrics")) + `

				And of the rebalancing policies:

				` + must(docs.GetTopic("policies"))}}},
		},
		Library: NewLibrary(lib),
	}
}

// quant holds the file bindings of the Quant's functions.
type quant struct {
	marketFile   string
	scenarioFile string
}

// scenarios returns the user scenarios followed by the builtins.
func (q *quant) scenarios() ([]*rebalance.Scenario, error) {
	var list []*rebalance.Scenario
	if q.scenarioFile != "" {
		user, err := rebalance.LoadScenarios(q.scenarioFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		list = append(list, user...)
	}
	return append(list, rebalance.Builtins()...), nil
}

// run simulates one scenario against the market file.
func (q *quant) run(s *rebalance.Scenario) (renderer.Run, error) {
	m, err := rebalance.LoadMarket(q.marketFile)
	if err != nil {
		return renderer.Run{}, err
	}
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

func (q *quant) listScenarios() Function {
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name: "ListScenarios",
			Description: `ListScenarios lists the available backtest scenarios with their
			target allocation and rebalancing policy. The documentation of the scenario format:

			` + must(docs.GetTopic("scenarios")),
			Parameters: &genai.Schema{Type: genai.TypeObject},
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "A markdown list of the scenarios.",
			},
		},
		Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
			scenarios, err := q.scenarios()
			if err != nil {
				return errResponse(id, "ListScenarios", err)
			}
			var b strings.Builder
			for _, s := range scenarios {
				fmt.Fprintf(&b, "- **%s**: policy %s, assets", s.Name, s.Policy)
				for _, a := range s.Assets {
					fmt.Fprintf(&b, " %s %.0f%%", a.Label(), a.Weight*100)
				}
				b.WriteString("\n")
			}
			return &genai.FunctionResponse{
				ID:       id,
				Name:     "ListScenarios",
				Response: map[string]any{"output": b.String()},
			}
		},
	}
}

func (q *quant) runBacktest() Function {
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name:        "RunBacktest",
			Description: `RunBacktest simulates one scenario by name and reports its performance metrics and rebalancing events.`,
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name": {
						Type:        genai.TypeString,
						Description: "The name of the scenario to run, as returned by ListScenarios.",
					},
				},
				Required: []string{"name"},
			},
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "A markdown summary of the backtest.",
			},
		},
		Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
			name, ok := args["name"].(string)
			if !ok {
				return errResponse(id, "RunBacktest", fmt.Errorf("argument 'name' is not a string but %T", args["name"]))
			}
			scenarios, err := q.scenarios()
			if err != nil {
				return errResponse(id, "RunBacktest", err)
			}
			for _, s := range scenarios {
				if s.Name != name {
					continue
				}
				run, err := q.run(s)
				if err != nil {
					return errResponse(id, "RunBacktest", err)
				}
				return &genai.FunctionResponse{
					ID:       id,
					Name:     "RunBacktest",
					Response: map[string]any{"output": renderer.SummaryMarkdown(run)},
				}
			}
			return errResponse(id, "RunBacktest", fmt.Errorf("unknown scenario %q, use ListScenarios first", name))
		},
	}
}

func (q *quant) compareBacktests() Function {
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name: "CompareBacktests",
			Description: `CompareBacktests simulates every available scenario and ranks them
			by total return, drawdown, Sharpe and Sortino.`,
			Parameters: &genai.Schema{Type: genai.TypeObject},
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "A markdown comparison table with rankings.",
			},
		},
		Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
			scenarios, err := q.scenarios()
			if err != nil {
				return errResponse(id, "CompareBacktests", err)
			}
			var runs []renderer.Run
			var skipped []string
			for _, s := range scenarios {
				run, err := q.run(s)
				if err != nil {
					// a scenario missing market data should not sink the comparison
					skipped = append(skipped, fmt.Sprintf("%s (%v)", s.Name, err))
					continue
				}
				runs = append(runs, run)
			}
			if len(runs) == 0 {
				return errResponse(id, "CompareBacktests", fmt.Errorf("no scenario could run: %s", strings.Join(skipped, "; ")))
			}
			out := renderer.CompareMarkdown(runs)
			if len(skipped) > 0 {
				out += "\nSkipped: " + strings.Join(skipped, "; ") + "\n"
			}
			return &genai.FunctionResponse{
				ID:       id,
				Name:     "CompareBacktests",
				Response: map[string]any{"output": out},
			}
		},
	}
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
