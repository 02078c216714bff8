package cmd

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/etnz/rebalance"
	"github.com/etnz/rebalance/date"
	"github.com/google/subcommands"
)

// testMarket writes a small two-index market file and returns its path.
func testMarket(t *testing.T) string {
	t.Helper()
	start := date.New(2024, 1, 1)
	m := rebalance.NewMarket()
	for key, series := range map[string][]float64{
		"a": {100, 108, 104, 99, 112, 110},
		"b": {100, 95, 101, 103, 98, 99},
	} {
		ix, err := rebalance.NewIndex(key, "")
		if err != nil {
			t.Fatalf("NewIndex() error = %v", err)
		}
		for i, px := range series {
			ix.Append(start.Add(i), px, px)
		}
		if err := m.Add(ix); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "market.jsonl")
	if err := rebalance.SaveMarket(path, m); err != nil {
		t.Fatalf("SaveMarket() error = %v", err)
	}
	return path
}

const testScenarioYaml = `name: testrun
capital: 1000
start: 2024-01-01
end: 2024-01-06
initial_ratio: 1
years: 0
policy: {kind: never}
assets:
  - {key: a, weight: 0.5}
  - {key: b, weight: 0.5}
`

func testScenarioFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenarios.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write scenario file: %v", err)
	}
	return path
}

func execute(t *testing.T, cmd subcommands.Command, args ...string) subcommands.ExitStatus {
	t.Helper()
	f := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	cmd.SetFlags(f)
	if err := f.Parse(args); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}
	return cmd.Execute(context.Background(), f)
}

func TestRunCmd_WritesCSV(t *testing.T) {
	market := testMarket(t)
	scenarios := testScenarioFile(t, testScenarioYaml)
	out := filepath.Join(t.TempDir(), "path.csv")

	status := execute(t, &runCmd{}, "-m", market, "-s", scenarios, "-n", "testrun", "-csv", out)
	if status != subcommands.ExitSuccess {
		t.Fatalf("Expected ExitSuccess, got %v", status)
	}

	content, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("failed to read CSV output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if !strings.HasPrefix(lines[0], "Date,") {
		t.Errorf("CSV header = %q, want a Date column first", lines[0])
	}
	// 6 trading days plus the header
	if len(lines) != 7 {
		t.Errorf("CSV has %d lines, want 7", len(lines))
	}
}

func TestRunCmd_UnknownScenario(t *testing.T) {
	status := execute(t, &runCmd{}, "-m", testMarket(t), "-n", "no-such-scenario")
	if status != subcommands.ExitFailure {
		t.Errorf("Expected ExitFailure, got %v", status)
	}
}

func TestCompareCmd(t *testing.T) {
	market := testMarket(t)
	scenarios := testScenarioFile(t, testScenarioYaml)

	// builtins cannot run on this market, testrun can: compare must survive.
	status := execute(t, &compareCmd{}, "-m", market, "-s", scenarios)
	if status != subcommands.ExitSuccess {
		t.Errorf("Expected ExitSuccess, got %v", status)
	}
}

func TestImportExport_Roundtrip(t *testing.T) {
	tmp := t.TempDir()
	market := filepath.Join(tmp, "market.jsonl")
	csv := "Date,Open,Close\n2024-01-01,100,101\n2024-01-02,101,102\n"
	in := filepath.Join(tmp, "in.csv")
	if err := os.WriteFile(in, []byte(csv), 0644); err != nil {
		t.Fatal(err)
	}

	if status := execute(t, &importCmd{}, "-m", market, "-k", "sp500", in); status != subcommands.ExitSuccess {
		t.Fatalf("import: expected ExitSuccess, got %v", status)
	}

	out := filepath.Join(tmp, "out.csv")
	if status := execute(t, &exportCmd{}, "-m", market, "-k", "sp500", "-o", out); status != subcommands.ExitSuccess {
		t.Fatalf("export: expected ExitSuccess, got %v", status)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != csv {
		t.Errorf("roundtrip mismatch.\nGot:\n%s\nWant:\n%s", got, csv)
	}
}

func TestExportCmd_UnknownKey(t *testing.T) {
	market := filepath.Join(t.TempDir(), "market.jsonl")
	if status := execute(t, &exportCmd{}, "-m", market, "-k", "nope"); status != subcommands.ExitFailure {
		t.Errorf("Expected ExitFailure, got %v", status)
	}
}

func TestNormalizeCmd_Csindex(t *testing.T) {
	tmp := t.TempDir()
	in := filepath.Join(tmp, "930955perf.csv")
	export := "指数代码Index Code,日期Date,开盘Open,收盘Close\n930955,20150105,5000.12,5050.34\n"
	if err := os.WriteFile(in, []byte(export), 0644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(tmp, "out.csv")

	if status := execute(t, &normalizeCmd{}, "-f", "csindex", "-k", "csi930955", "-o", out, in); status != subcommands.ExitSuccess {
		t.Fatalf("Expected ExitSuccess, got %v", status)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	want := "Date,Open,Close\n2015-01-05,5000.12,5050.34\n"
	if string(got) != want {
		t.Errorf("normalize mismatch.\nGot:\n%s\nWant:\n%s", got, want)
	}
}

func TestScenarioFlag_UserShadowsBuiltin(t *testing.T) {
	shadow := strings.Replace(testScenarioYaml, "name: testrun", "name: balanced", 1)
	s := &scenarioFlag{path: testScenarioFile(t, shadow)}

	found, err := s.find("balanced")
	if err != nil {
		t.Fatalf("find() error = %v", err)
	}
	if found.Capital != 1000 {
		t.Errorf("find(balanced) returned the builtin, want the user scenario")
	}
}

func TestScenarioFlag_MissingFile(t *testing.T) {
	s := &scenarioFlag{path: filepath.Join(t.TempDir(), "absent.yaml")}
	if _, err := s.scenarios(); err == nil {
		t.Error("scenarios() on an explicit missing file should fail")
	}
}
