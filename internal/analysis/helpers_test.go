package analysis

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/steveyegge/probe/internal/types"
)

func rule(t *testing.T, entity, matcher, expected, location string) types.Finding {
	t.Helper()
	field := entity
	if _, path, ok := splitEntity(entity); ok {
		field = path
	}
	f, err := types.NewFinding("ra-assertion-rules", "test", entity, types.FactBusinessRule,
		&types.BusinessRule{Field: field, Matcher: matcher, Expected: types.Literal(expected)},
		types.WithLocation(location))
	require.NoError(t, err)
	return f
}

func endpoint(t *testing.T, method, path string) types.Finding {
	t.Helper()
	f, err := types.NewFinding("ra-endpoint-census", "test", method+" "+path, types.FactEndpointTested,
		&types.EndpointTested{Method: method, Path: path})
	require.NoError(t, err)
	return f
}

func workflow(t *testing.T, name string, steps ...types.WorkflowStep) types.Finding {
	t.Helper()
	f, err := types.NewFinding("ra-test-sequence", "test", "workflow:"+name, types.FactBusinessWorkflow,
		&types.BusinessWorkflow{WorkflowName: name, StepCount: len(steps), Steps: steps})
	require.NoError(t, err)
	return f
}

func step(order int, method, path string, status int) types.WorkflowStep {
	return types.WorkflowStep{
		Order:      order,
		Method:     method,
		Path:       path,
		Action:     method + " " + path,
		StatusCode: status,
	}
}
