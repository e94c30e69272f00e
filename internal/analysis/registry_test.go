package analysis

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/probe/internal/types"
)

// unfinished embeds Base without overriding Analyze.
type unfinished struct {
	Base
}

func TestBase_AnalyzeIsContractViolation(t *testing.T) {
	a := unfinished{Base{ID: "coverage-gaps"}}
	_, err := a.Analyze(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotImplemented))
	assert.Contains(t, err.Error(), "coverage-gaps")
}

func TestDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry()
	assert.Equal(t, []string{EntityModelName, StateMachineName}, reg.Names())

	a, err := reg.New(StateMachineName)
	require.NoError(t, err)
	assert.Equal(t, StateMachineName, a.Name())

	_, err = reg.New("missing")
	assert.ErrorIs(t, err, ErrUnknownAnalyzer)
}

func TestRegistry_RegisterRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("x", func() Analyzer { return NewEntityModelAnalyzer() }))
	assert.Error(t, reg.Register("x", func() Analyzer { return NewEntityModelAnalyzer() }))
	assert.Error(t, reg.Register("", func() Analyzer { return NewEntityModelAnalyzer() }))
}

func TestRegistry_RunAll(t *testing.T) {
	reg := DefaultRegistry()

	results, err := reg.RunAll(nil, []types.Finding{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, EntityModelName, results[0].Analyzer)
	assert.Equal(t, StateMachineName, results[1].Analyzer)
	assert.Equal(t, "Entities: 0", results[0].Summary)

	results, err = reg.RunAll([]string{StateMachineName}, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)

	_, err = reg.RunAll([]string{"nope"}, nil)
	assert.ErrorIs(t, err, ErrUnknownAnalyzer)
}

func TestRegistry_RunAllPropagatesContractViolation(t *testing.T) {
	reg := DefaultRegistry()
	require.NoError(t, reg.Register("unfinished", func() Analyzer {
		return unfinished{Base{ID: "unfinished"}}
	}))

	_, err := reg.RunAll([]string{EntityModelName, "unfinished"}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotImplemented)
}
