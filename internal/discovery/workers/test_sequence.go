package workers

import (
	"context"
	"strconv"
	"strings"

	"github.com/steveyegge/probe/internal/discovery"
	"github.com/steveyegge/probe/internal/discovery/sdk"
	"github.com/steveyegge/probe/internal/types"
)

// TestSequence turns ordered test classes into business workflows.
//
// A class annotated with @TestMethodOrder whose methods carry @Order(N) is
// read as one workflow: each ordered method is a step, described by its
// first literal HTTP call and first literal expected status.
type TestSequence struct{}

// NewTestSequence creates the ra-test-sequence probe.
func NewTestSequence() discovery.Probe {
	return &TestSequence{}
}

// Name implements discovery.Probe.
func (p *TestSequence) Name() string {
	return "ra-test-sequence"
}

// Env implements discovery.Probe.
func (p *TestSequence) Env() string {
	return EnvTest
}

// Scan implements discovery.Probe.
func (p *TestSequence) Scan(ctx context.Context, target string) ([]types.Finding, error) {
	files, err := sdk.LoadSources(ctx, target, sdk.DefaultPatternOptions())
	if err != nil {
		return nil, err
	}

	set := sdk.NewFindingSet(p.Name(), p.Env())
	for _, src := range files {
		if !sdk.HasMethodOrder(src.Content) {
			continue
		}

		ordered := sdk.OrderedMethods(src.Content)
		if len(ordered) == 0 {
			continue
		}

		steps := make([]types.WorkflowStep, 0, len(ordered))
		for _, method := range ordered {
			steps = append(steps, buildStep(method))
		}

		name := workflowName(src.Class)
		set.Add("workflow:"+name, types.FactBusinessWorkflow,
			&types.BusinessWorkflow{
				WorkflowName: name,
				TestClass:    src.Class,
				StepCount:    len(steps),
				Steps:        steps,
			},
			types.WithLocation(src.Rel),
			types.WithTags("workflow", "sequence", "business-process"))
	}
	return set.Build()
}

func buildStep(method sdk.Method) types.WorkflowStep {
	order, _ := method.Order()
	step := types.WorkflowStep{
		Order:      order,
		TestMethod: method.Name,
	}
	if m := httpLiteralRe.FindStringSubmatch(method.Body); m != nil {
		step.Method = strings.ToUpper(m[1])
		step.Path = m[2]
		step.Action = step.Method + " " + step.Path
	}
	if m := statusLiteralRe.FindStringSubmatch(method.Body); m != nil {
		step.StatusCode, _ = strconv.Atoi(m[1])
	}
	return step
}

// workflowName derives a workflow name from a class: MovementFlowTest ->
// MovementFlow.
func workflowName(class string) string {
	if name := strings.TrimSuffix(class, "Test"); name != "" {
		return name
	}
	return class
}
