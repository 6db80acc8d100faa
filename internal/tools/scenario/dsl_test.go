package scenario

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestScenarioChainingCreatesSteps(t *testing.T) {
	path := writeScenarioFixture(t, `-- Setup
local scene = Scenario.new("chain")
scene:diagram({nodes = {{kind = "Package", label = "pkg1"}}})

-- Create + expect
scene:create_node({parent = "Package", label = "pkg1", child = "Action"}):expect_refresh({nodes = 2})

return scene
`)

	scenario, err := LoadScenarioFromFile(path)
	if err != nil {
		t.Fatalf("load scenario: %v", err)
	}
	if scenario.Name != "chain" {
		t.Fatalf("name = %q, want chain", scenario.Name)
	}
	if len(scenario.Steps) != 3 {
		t.Fatalf("steps = %d, want %d", len(scenario.Steps), 3)
	}

	create := scenario.Steps[1]
	if create.Kind != StepCreateNode {
		t.Fatalf("step kind = %q, want %q", create.Kind, StepCreateNode)
	}
	if create.Args["child"] != "Action" {
		t.Fatalf("child = %v, want Action", create.Args["child"])
	}

	expect := scenario.Steps[2]
	if expect.Kind != StepExpectRefresh {
		t.Fatalf("step kind = %q, want %q", expect.Kind, StepExpectRefresh)
	}
	if expect.Args["nodes"] != 2 {
		t.Fatalf("nodes = %v (%T), want int 2", expect.Args["nodes"], expect.Args["nodes"])
	}
}

func TestScenarioNestedTablesBecomeListsAndMaps(t *testing.T) {
	scenario, err := LoadScenario("nested.lua", `
local scene = Scenario.new("nested")
scene:diagram({nodes = {"Package", {kind = "PartUsage", label = "part1"}}})
scene:create_node({parent = "Package", label = "package1", child = "Action", variables = {label = "act1", weight = 1.5}})
return scene
`)
	if err != nil {
		t.Fatalf("load scenario: %v", err)
	}

	nodes, ok := scenario.Steps[0].Args["nodes"].([]any)
	if !ok || len(nodes) != 2 {
		t.Fatalf("nodes = %#v, want list of 2", scenario.Steps[0].Args["nodes"])
	}
	if nodes[0] != "Package" {
		t.Fatalf("nodes[0] = %v, want Package", nodes[0])
	}
	seed, ok := nodes[1].(map[string]any)
	if !ok || seed["label"] != "part1" {
		t.Fatalf("nodes[1] = %#v, want part1 table", nodes[1])
	}

	vars, ok := scenario.Steps[1].Args["variables"].(map[string]any)
	if !ok {
		t.Fatalf("variables = %#v, want map", scenario.Steps[1].Args["variables"])
	}
	if vars["weight"] != 1.5 {
		t.Fatalf("weight = %v, want 1.5", vars["weight"])
	}
}

func TestScenarioOptionalTableSteps(t *testing.T) {
	scenario, err := LoadScenario("optional.lua", `
local scene = Scenario.new("optional")
scene:diagram({})
scene:expect_refresh()
scene:expect_quiet({ms = 50})
scene:cancel()
return scene
`)
	if err != nil {
		t.Fatalf("load scenario: %v", err)
	}
	kinds := make([]string, 0, len(scenario.Steps))
	for _, step := range scenario.Steps {
		if step.Args == nil {
			t.Fatalf("step %s args = nil, want empty map", step.Kind)
		}
		kinds = append(kinds, step.Kind)
	}
	want := []string{StepDiagram, StepExpectRefresh, StepExpectQuiet, StepCancel}
	if strings.Join(kinds, ",") != strings.Join(want, ",") {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
}

func TestScenarioNameDefaultsToFileName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "unnamed_flow.lua")
	if err := os.WriteFile(path, []byte("return Scenario.new()\n"), 0o600); err != nil {
		t.Fatalf("write scenario: %v", err)
	}
	scenario, err := LoadScenarioFromFile(path)
	if err != nil {
		t.Fatalf("load scenario: %v", err)
	}
	if scenario.Name != "unnamed_flow" {
		t.Fatalf("name = %q, want unnamed_flow", scenario.Name)
	}
}

func TestScenarioMustBeReturned(t *testing.T) {
	_, err := LoadScenario("noreturn.lua", `local scene = Scenario.new("x")`)
	if err == nil || !strings.Contains(err.Error(), "must return Scenario") {
		t.Fatalf("err = %v, want must return Scenario", err)
	}
}

func TestScenarioSyntaxErrorNamesChunk(t *testing.T) {
	_, err := LoadScenario("broken.lua", `local scene = Scenario.new(`)
	if err == nil || !strings.Contains(err.Error(), "broken.lua:1:") {
		t.Fatalf("err = %v, want chunk name and line in error", err)
	}
}

func TestScenarioStepRequiresTable(t *testing.T) {
	_, err := LoadScenario("bad.lua", `
local scene = Scenario.new("bad")
scene:create_node("pkg1")
return scene
`)
	if err == nil {
		t.Fatal("expected error for non-table argument")
	}
}

func TestLoadScenarioFromFileMissing(t *testing.T) {
	_, err := LoadScenarioFromFile(filepath.Join(t.TempDir(), "missing.lua"))
	if err == nil || !strings.Contains(err.Error(), "read scenario") {
		t.Fatalf("err = %v, want read scenario error", err)
	}
}

func writeScenarioFixture(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.lua")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write scenario: %v", err)
	}
	return path
}
