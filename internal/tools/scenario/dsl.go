package scenario

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/Shopify/go-lua"
)

const scenarioTypeName = "scenario"

// Step kinds produced by the Lua DSL.
const (
	StepDiagram          = "diagram"
	StepConnect          = "connect"
	StepExpectRefresh    = "expect_refresh"
	StepExpectQuiet      = "expect_quiet"
	StepCreateNode       = "create_node"
	StepCreateNodeOnEdge = "create_node_on_edge"
	StepCancel           = "cancel"
)

// Scenario is a parsed scenario script.
type Scenario struct {
	Name  string
	Steps []Step
}

// Step is one DSL call with its table arguments.
type Step struct {
	Kind string
	Args map[string]any
}

// LoadScenarioFromFile runs a Lua scenario script and returns the scenario
// it builds. The script must return the Scenario value.
func LoadScenarioFromFile(path string) (*Scenario, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	scenario, err := LoadScenario(filepath.Base(path), string(content))
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(scenario.Name) == "" {
		scenario.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return scenario, nil
}

// LoadScenario runs Lua source named chunk.
func LoadScenario(chunk, source string) (*Scenario, error) {
	state := lua.NewState()
	lua.OpenLibraries(state)
	registerLuaTypes(state)

	if err := lua.LoadBuffer(state, source, "@"+chunk, ""); err != nil {
		return nil, fmt.Errorf("load lua: %s: %w", popMessage(state), err)
	}
	if err := state.ProtectedCall(0, 1, 0); err != nil {
		return nil, fmt.Errorf("run lua: %w", err)
	}

	if state.TypeOf(-1) != lua.TypeUserData {
		state.Pop(1)
		return nil, fmt.Errorf("scenario script must return Scenario")
	}
	ud := state.ToUserData(-1)
	state.Pop(1)
	scenario, ok := ud.(*Scenario)
	if !ok || scenario == nil {
		return nil, fmt.Errorf("scenario script returned invalid Scenario")
	}
	return scenario, nil
}

// popMessage removes the error message a failed load leaves on the stack.
func popMessage(state *lua.State) string {
	msg, _ := state.ToString(-1)
	state.Pop(1)
	return msg
}

func registerLuaTypes(state *lua.State) {
	lua.NewMetaTable(state, scenarioTypeName)
	state.NewTable()
	lua.SetFunctions(state, scenarioMethods, 0)
	state.SetField(-2, "__index")
	state.Pop(1)

	state.NewTable()
	lua.SetFunctions(state, scenarioConstructor, 0)
	state.SetGlobal("Scenario")
}

var scenarioConstructor = []lua.RegistryFunction{
	{Name: "new", Function: scenarioNew},
}

func scenarioNew(state *lua.State) int {
	name := lua.OptString(state, 1, "")
	scenario := &Scenario{Name: name}
	state.PushUserData(scenario)
	lua.SetMetaTableNamed(state, scenarioTypeName)
	return 1
}

// Every method returns the scenario so calls can be chained.
var scenarioMethods = []lua.RegistryFunction{
	{Name: "diagram", Function: tableStep(StepDiagram)},
	{Name: "connect", Function: tableStep(StepConnect)},
	{Name: "expect_refresh", Function: optionalTableStep(StepExpectRefresh)},
	{Name: "expect_quiet", Function: optionalTableStep(StepExpectQuiet)},
	{Name: "create_node", Function: tableStep(StepCreateNode)},
	{Name: "create_node_on_edge", Function: tableStep(StepCreateNodeOnEdge)},
	{Name: "cancel", Function: optionalTableStep(StepCancel)},
}

func tableStep(kind string) lua.Function {
	return func(state *lua.State) int {
		scenario := checkScenario(state)
		lua.CheckType(state, 2, lua.TypeTable)
		appendStep(scenario, kind, tableToMap(state, 2))
		state.PushValue(1)
		return 1
	}
}

func optionalTableStep(kind string) lua.Function {
	return func(state *lua.State) int {
		scenario := checkScenario(state)
		appendStep(scenario, kind, optionalTable(state, 2))
		state.PushValue(1)
		return 1
	}
}

func checkScenario(state *lua.State) *Scenario {
	ud := lua.CheckUserData(state, 1, scenarioTypeName)
	if scenario, ok := ud.(*Scenario); ok && scenario != nil {
		return scenario
	}
	lua.ArgumentError(state, 1, "scenario expected")
	return nil
}

func appendStep(scenario *Scenario, kind string, data map[string]any) int {
	if scenario == nil {
		return -1
	}
	if data == nil {
		data = map[string]any{}
	}
	scenario.Steps = append(scenario.Steps, Step{Kind: kind, Args: data})
	return len(scenario.Steps) - 1
}

func optionalTable(state *lua.State, index int) map[string]any {
	if state.IsNoneOrNil(index) || state.TypeOf(index) != lua.TypeTable {
		return map[string]any{}
	}
	return tableToMap(state, index)
}

func tableToMap(state *lua.State, index int) map[string]any {
	output := map[string]any{}
	if state.TypeOf(index) != lua.TypeTable {
		return output
	}

	index = state.AbsIndex(index)
	state.PushNil()
	for state.Next(index) {
		if state.TypeOf(-2) == lua.TypeString {
			key, _ := state.ToString(-2)
			output[key] = luaToGo(state, -1)
		}
		state.Pop(1)
	}
	return output
}

func luaToGo(state *lua.State, index int) any {
	switch state.TypeOf(index) {
	case lua.TypeString:
		value, _ := state.ToString(index)
		return value
	case lua.TypeNumber:
		value, _ := state.ToNumber(index)
		return normalizeNumber(value)
	case lua.TypeBoolean:
		return state.ToBoolean(index)
	case lua.TypeTable:
		return tableToGo(state, index)
	default:
		return nil
	}
}

// tableToGo returns a []any for sequence tables and a map otherwise.
func tableToGo(state *lua.State, index int) any {
	if state.TypeOf(index) != lua.TypeTable {
		return nil
	}

	index = state.AbsIndex(index)
	isArray := true
	maxIndex := 0
	count := 0
	state.PushNil()
	for state.Next(index) {
		if isArray {
			if state.TypeOf(-2) != lua.TypeNumber {
				isArray = false
			} else if idx, ok := state.ToInteger(-2); ok && idx > 0 {
				count++
				if idx > maxIndex {
					maxIndex = idx
				}
			} else {
				isArray = false
			}
		}
		state.Pop(1)
	}

	if isArray && count > 0 && maxIndex == count {
		result := make([]any, 0, maxIndex)
		for i := 1; i <= maxIndex; i++ {
			state.RawGetInt(index, i)
			result = append(result, luaToGo(state, -1))
			state.Pop(1)
		}
		return result
	}

	return tableToMap(state, index)
}

func normalizeNumber(value float64) any {
	if math.Mod(value, 1) == 0 {
		return int(value)
	}
	return value
}
