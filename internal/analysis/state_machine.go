package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/steveyegge/probe/internal/types"
)

// StateMachineName is the registry name of the state machine analyzer.
const StateMachineName = "state-machine"

const (
	// StatusField is the entity field whose values form the vocabulary.
	StatusField = "status"

	// UnknownState stands in when the replay cursor has run past the
	// vocabulary.
	UnknownState = "UNKNOWN"

	// ErrInvalidStateTransition labels transitions rejected with 409.
	ErrInvalidStateTransition = "INVALID_STATE_TRANSITION"
)

// Workflow name suffixes stripped to find the governing entity, in order.
var workflowSuffixes = []string{"Flow", "Approval", "Test", "Workflow"}

// StateMachine is the lifecycle automaton inferred from one workflow.
type StateMachine struct {
	Entity               string                `json:"entity"`
	Workflow             string                `json:"workflow"`
	StatusField          string                `json:"status_field"`
	States               []string              `json:"states"`
	InitialState         *string               `json:"initial_state"`
	TerminalStates       []string              `json:"terminal_states"`
	Transitions          []Transition          `json:"transitions"`
	ForbiddenTransitions []ForbiddenTransition `json:"forbidden_transitions"`
	UnknownTransitions   []string              `json:"unknown_transitions"`
}

// Transition is an observed state change.
type Transition struct {
	From     string   `json:"from"`
	To       string   `json:"to"`
	Trigger  string   `json:"trigger"`
	Action   string   `json:"action"`
	Evidence []string `json:"evidence"`
}

// ForbiddenTransition is a state change the workflow shows was rejected.
type ForbiddenTransition struct {
	From     string   `json:"from"`
	Trigger  string   `json:"trigger"`
	Action   string   `json:"action"`
	Error    string   `json:"error"`
	Evidence []string `json:"evidence"`
}

// entityFromWorkflow strips the first matching suffix, once
// (MovementFlow -> Movement). Names that would become empty are kept.
func entityFromWorkflow(workflow string) string {
	for _, suffix := range workflowSuffixes {
		if name, ok := strings.CutSuffix(workflow, suffix); ok {
			if name == "" {
				return workflow
			}
			return name
		}
	}
	return workflow
}

// actionFromPath returns the last non-parameter path segment
// (/documents/{id}/approve -> approve), or the path itself if none.
func actionFromPath(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if s := segments[i]; s != "" && !strings.HasPrefix(s, "{") {
			return s
		}
	}
	return path
}

// statusVocabulary collects, per entity, the enum-like values asserted on
// its status field, in first-seen order.
func statusVocabulary(findings []types.Finding) map[string][]string {
	vocab := make(map[string][]string)
	seen := make(map[string]map[string]bool)

	for _, f := range findings {
		if f.Fact != types.FactBusinessRule {
			continue
		}
		rule, ok := f.Data.(*types.BusinessRule)
		if !ok || !isEqualityMatcher(rule.Matcher) {
			continue
		}
		entity, path, ok := splitEntity(f.Entity)
		if !ok || path != StatusField {
			continue
		}
		value := rule.Expected.String()
		if !enumValueRe.MatchString(value) {
			continue
		}
		if seen[entity] == nil {
			seen[entity] = make(map[string]bool)
		}
		if !seen[entity][value] {
			seen[entity][value] = true
			vocab[entity] = append(vocab[entity], value)
		}
	}
	return vocab
}

func isCreate(step types.WorkflowStep) bool {
	return step.Method == "POST" && (step.StatusCode == 200 || step.StatusCode == 201)
}

func isUpdate(step types.WorkflowStep) bool {
	if step.Method != "PUT" && step.Method != "PATCH" {
		return false
	}
	switch step.StatusCode {
	case 200, 201, 204:
		return true
	}
	return false
}

// replayWorkflow builds the automaton of one workflow against the status
// vocabulary of its entity.
func replayWorkflow(wf *types.BusinessWorkflow, vocab []string) StateMachine {
	steps := make([]types.WorkflowStep, len(wf.Steps))
	copy(steps, wf.Steps)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Order < steps[j].Order })

	m := StateMachine{
		Entity:               entityFromWorkflow(wf.WorkflowName),
		Workflow:             wf.WorkflowName,
		StatusField:          StatusField,
		Transitions:          []Transition{},
		ForbiddenTransitions: []ForbiddenTransition{},
	}

	cursor := 0
	for _, step := range steps {
		trigger := step.Method + " " + step.Path
		evidence := []string{fmt.Sprintf("workflow:%s:step%d", wf.WorkflowName, step.Order)}

		switch {
		case isCreate(step):
			cursor = 0

		case isUpdate(step):
			// No next state: the step is dropped rather than invented.
			if len(vocab) > 0 && cursor < len(vocab)-1 {
				m.Transitions = append(m.Transitions, Transition{
					From:     vocab[cursor],
					To:       vocab[cursor+1],
					Trigger:  trigger,
					Action:   actionFromPath(step.Path),
					Evidence: evidence,
				})
				cursor++
			}

		case step.StatusCode == 409:
			from := UnknownState
			if cursor < len(vocab) {
				from = vocab[cursor]
			}
			m.ForbiddenTransitions = append(m.ForbiddenTransitions, ForbiddenTransition{
				From:     from,
				Trigger:  trigger,
				Action:   actionFromPath(step.Path),
				Error:    ErrInvalidStateTransition,
				Evidence: evidence,
			})
		}
	}

	m.States = realizedStates(m.Transitions, vocab)
	if len(m.States) > 0 {
		initial := m.States[0]
		m.InitialState = &initial
	}
	m.TerminalStates = terminalStates(m.States, m.Transitions)
	m.UnknownTransitions = unknownTransitions(m.States, m.Transitions)
	return m
}

// realizedStates lists transition endpoints in order of first appearance,
// falling back to the vocabulary when nothing was realized.
func realizedStates(transitions []Transition, vocab []string) []string {
	states := []string{}
	seen := make(map[string]bool)
	for _, t := range transitions {
		for _, s := range []string{t.From, t.To} {
			if !seen[s] {
				seen[s] = true
				states = append(states, s)
			}
		}
	}
	if len(states) == 0 {
		states = append(states, vocab...)
	}
	return states
}

// terminalStates returns the states that are never a transition source.
func terminalStates(states []string, transitions []Transition) []string {
	sources := make(map[string]bool, len(transitions))
	for _, t := range transitions {
		sources[t.From] = true
	}
	terminal := []string{}
	for _, s := range states {
		if !sources[s] {
			terminal = append(terminal, s)
		}
	}
	return terminal
}

// unknownTransitions enumerates ordered pairs of distinct states without
// an observed transition, as "A→B" labels.
func unknownTransitions(states []string, transitions []Transition) []string {
	type pair struct{ from, to string }
	tested := make(map[pair]bool, len(transitions))
	for _, t := range transitions {
		tested[pair{t.From, t.To}] = true
	}

	unknown := []string{}
	for _, a := range states {
		for _, b := range states {
			if a != b && !tested[pair{a, b}] {
				unknown = append(unknown, a+"→"+b)
			}
		}
	}
	return unknown
}

// BuildStateMachines produces one machine per workflow finding, in
// finding order. Machines of the same entity are not merged.
func BuildStateMachines(findings []types.Finding) []StateMachine {
	vocab := statusVocabulary(findings)

	machines := []StateMachine{}
	for _, f := range findings {
		if f.Fact != types.FactBusinessWorkflow {
			continue
		}
		wf, ok := f.Data.(*types.BusinessWorkflow)
		if !ok {
			continue
		}
		entity := entityFromWorkflow(wf.WorkflowName)
		machines = append(machines, replayWorkflow(wf, vocab[entity]))
	}
	return machines
}

// StateMachineAnalyzer infers entity lifecycles from ordered workflows.
type StateMachineAnalyzer struct {
	Base
}

// NewStateMachineAnalyzer creates the state machine analyzer.
func NewStateMachineAnalyzer() *StateMachineAnalyzer {
	return &StateMachineAnalyzer{
		Base: Base{
			ID:   StateMachineName,
			Desc: "Infers state machines (states, transitions) from workflows and status assertions",
		},
	}
}

// Analyze implements Analyzer.
func (a *StateMachineAnalyzer) Analyze(findings []types.Finding) (*types.AnalysisResult, error) {
	machines := BuildStateMachines(findings)

	lines := []string{fmt.Sprintf("Machines: %d", len(machines))}
	for _, m := range machines {
		lines = append(lines, fmt.Sprintf("  %s: %d states, %d transitions, %d forbidden",
			m.Entity, len(m.States), len(m.Transitions), len(m.ForbiddenTransitions)))
	}

	return types.NewAnalysisResult(a.Name(),
		map[string]any{"machines": machines},
		strings.Join(lines, "\n"))
}
