package correlator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/probe/internal/types"
)

func newDossier(t *testing.T, findings ...types.Finding) *types.Dossier {
	t.Helper()
	d := types.NewDossier("/projects/warehouse", "test")
	d.ScannedAt = time.Date(2025, 3, 4, 9, 30, 0, 0, time.UTC)
	d.Findings = append(d.Findings, findings...)
	return d
}

func mustFinding(t *testing.T, probe, entity, fact string, data types.Payload, opts ...types.FindingOption) types.Finding {
	t.Helper()
	f, err := types.NewFinding(probe, "test", entity, fact, data, opts...)
	require.NoError(t, err)
	return f
}

func endpoint(t *testing.T, key, testClass string) types.Finding {
	method, path, _ := strings.Cut(key, " ")
	return mustFinding(t, "ra-endpoint-census", key, types.FactEndpointTested,
		&types.EndpointTested{Method: method, Path: path, TestClass: testClass})
}

func auth(t *testing.T, key, role string, public bool) types.Finding {
	fact := types.FactAuthRequired
	if public {
		fact = types.FactPublicEndpoint
	}
	return mustFinding(t, "ra-auth-patterns", key, fact,
		&types.AuthPattern{Role: role, IsPublic: public, TestClass: "SomeTest"})
}

func status(t *testing.T, testClass string, code int) types.Finding {
	return mustFinding(t, "ra-expected-status", testClass+"::m", types.FactExpectedStatus,
		&types.ExpectedStatus{StatusCode: code, TestClass: testClass})
}

func rule(t *testing.T, field, text string) types.Finding {
	return mustFinding(t, "ra-assertion-rules", "Item."+field, types.FactBusinessRule,
		&types.BusinessRule{Field: field, Matcher: "equalTo", Expected: "X", RuleText: text},
		types.WithLocation("RuleTest.java:10"))
}

func workflow(t *testing.T, name string, steps ...types.WorkflowStep) types.Finding {
	return mustFinding(t, "ra-test-sequence", "workflow:"+name, types.FactBusinessWorkflow,
		&types.BusinessWorkflow{WorkflowName: name, TestClass: name + "Test", StepCount: len(steps), Steps: steps},
		types.WithLocation(name+"Test.java"))
}

func TestCorrelate_Header(t *testing.T) {
	out := Correlate(newDossier(t, endpoint(t, "GET /items", "ItemTest")))

	assert.True(t, strings.HasPrefix(out, "# Product Map\n"))
	assert.Contains(t, out, "`/projects/warehouse`")
	assert.Contains(t, out, "- **Environment:** test")
	assert.Contains(t, out, "- **Scanned:** 2025-03-04 09:30 UTC")
	assert.Contains(t, out, "- **Findings:** 1")
	assert.Contains(t, out, "- **Probes:** 1")
}

func TestCorrelate_EmptyDossier(t *testing.T) {
	out := Correlate(newDossier(t))

	assert.Contains(t, out, "# Product Map")
	assert.Contains(t, out, "- **Findings:** 0")
	for _, section := range []string{"## API Surface", "## Business Rules", "## Workflows", "## Role Matrix", "## Probe Statistics"} {
		assert.NotContains(t, out, section)
	}
}

func TestCorrelate_APISurface(t *testing.T) {
	d := newDossier(t,
		endpoint(t, "POST /items", "ItemTest"),
		endpoint(t, "GET /items", "ItemTest"),
		endpoint(t, "GET /reports", "ReportTest"),
		status(t, "ItemTest", 400),
		status(t, "ItemTest", 201),
		status(t, "OtherTest", 500),
		auth(t, "POST /items", "OPERATOR", false),
		auth(t, "POST /items", "ADMIN", false),
		auth(t, "GET /health", "", true),
	)
	out := Correlate(d)

	assert.Contains(t, out, "## API Surface")
	assert.Contains(t, out, "| `GET /health` | public | — |")
	assert.Contains(t, out, "| `GET /items` | — | 201, 400 |")
	assert.Contains(t, out, "| `GET /reports` | — | — |")
	assert.Contains(t, out, "| `POST /items` | ADMIN, OPERATOR | 201, 400 |")
	assert.NotContains(t, out, "500")

	// rows sorted by key
	assert.Less(t, strings.Index(out, "`GET /health`"), strings.Index(out, "`GET /items`"))
	assert.Less(t, strings.Index(out, "`GET /reports`"), strings.Index(out, "`POST /items`"))
}

func TestCorrelate_PublicWinsOverRoles(t *testing.T) {
	d := newDossier(t,
		auth(t, "GET /catalog", "VIEWER", false),
		auth(t, "GET /catalog", "", true),
	)
	out := Correlate(d)
	assert.Contains(t, out, "| `GET /catalog` | public | — |")
}

func TestCorrelate_BusinessRules(t *testing.T) {
	d := newDossier(t,
		rule(t, "status", "status equals CREATED"),
		endpoint(t, "GET /x", "XTest"),
		rule(t, "id", "id is not null"),
	)
	out := Correlate(d)

	assert.Contains(t, out, "## Business Rules")
	assert.Contains(t, out, "- **R01** status equals CREATED (`RuleTest.java:10`)")
	assert.Contains(t, out, "- **R02** id is not null (`RuleTest.java:10`)")
}

func TestCorrelate_BusinessRulesKeepDossierOrder(t *testing.T) {
	d := newDossier(t,
		rule(t, "zeta", "zeta rule"),
		rule(t, "alpha", "alpha rule"),
	)
	out := Correlate(d)
	assert.Contains(t, out, "**R01** zeta rule")
	assert.Contains(t, out, "**R02** alpha rule")
}

func TestCorrelate_RuleTextFallback(t *testing.T) {
	f := mustFinding(t, "ra-assertion-rules", "Stock.quantity", types.FactBusinessRule,
		&types.BusinessRule{Field: "quantity", Matcher: "greaterThan", Expected: "0"})
	out := Correlate(newDossier(t, f))
	assert.Contains(t, out, "- **R01** Stock.quantity greaterThan(0)\n")
}

func TestCorrelate_NoRulesNoSection(t *testing.T) {
	out := Correlate(newDossier(t, endpoint(t, "GET /x", "XTest")))
	assert.NotContains(t, out, "Business Rules")
	assert.NotContains(t, out, "Workflows")
}

func TestCorrelate_Workflows(t *testing.T) {
	d := newDossier(t,
		workflow(t, "ItemFlow",
			types.WorkflowStep{Order: 2, Action: "GET /items/1", Method: "GET", Path: "/items/1", StatusCode: 200, TestMethod: "step2"},
			types.WorkflowStep{Order: 1, Action: "POST /items", Method: "POST", Path: "/items", StatusCode: 201, TestMethod: "step1"},
		),
		workflow(t, "AuditFlow",
			types.WorkflowStep{Order: 1, Action: "GET /audit"},
		),
	)
	out := Correlate(d)

	assert.Contains(t, out, "## Workflows")
	assert.Contains(t, out, "### ItemFlow")
	assert.Contains(t, out, "Test class: `ItemFlowTest`")
	assert.Contains(t, out, "2. GET /items/1 -> 200 (step2)\n1. POST /items -> 201 (step1)\n")
	assert.Contains(t, out, "1. GET /audit\n")

	// workflows in dossier order
	assert.Less(t, strings.Index(out, "### ItemFlow"), strings.Index(out, "### AuditFlow"))
}

func TestCorrelate_RoleMatrix(t *testing.T) {
	d := newDossier(t,
		auth(t, "GET /movements", "OPERATOR", false),
		auth(t, "GET /reports", "MANAGER", false),
		auth(t, "GET /reports", "OPERATOR", false),
		auth(t, "GET /pub", "", true),
	)
	out := Correlate(d)

	assert.Contains(t, out, "## Role Matrix")
	assert.Contains(t, out, "| MANAGER | `GET /reports` |")
	assert.Contains(t, out, "| OPERATOR | `GET /movements`, `GET /reports` |")
	assert.Contains(t, out, "| PUBLIC | `GET /pub` |")
}

func TestCorrelate_NoAuthNoRoleMatrix(t *testing.T) {
	out := Correlate(newDossier(t, endpoint(t, "GET /x", "XTest")))
	assert.NotContains(t, out, "Role Matrix")
}

func TestCorrelate_ProbeStatistics(t *testing.T) {
	d := newDossier(t,
		rule(t, "a", "a"),
		endpoint(t, "GET /x", "XTest"),
		endpoint(t, "GET /y", "XTest"),
		rule(t, "b", "b"),
		rule(t, "c", "c"),
	)
	out := Correlate(d)

	i := strings.Index(out, "## Probe Statistics")
	require.GreaterOrEqual(t, i, 0)
	assert.Equal(t, "## Probe Statistics\n\n- ra-assertion-rules: 3\n- ra-endpoint-census: 2\n", out[i:])
}

func TestCorrelate_SectionOrder(t *testing.T) {
	d := newDossier(t,
		endpoint(t, "GET /x", "XTest"),
		rule(t, "a", "a"),
		workflow(t, "Flow", types.WorkflowStep{Order: 1, Method: "GET", Path: "/x"}),
		auth(t, "GET /x", "USER", false),
	)
	out := Correlate(d)

	headers := []string{"# Product Map", "## API Surface", "## Business Rules", "## Workflows", "## Role Matrix", "## Probe Statistics"}
	last := -1
	for _, h := range headers {
		i := strings.Index(out, h)
		require.GreaterOrEqual(t, i, 0, h)
		assert.Greater(t, i, last, h)
		last = i
	}
}

func TestCorrelate_EscapesPipes(t *testing.T) {
	out := Correlate(newDossier(t, auth(t, "GET /a|b", "R|W", false)))
	assert.Contains(t, out, "| `GET /a\\|b` | R\\|W | — |")
}

func TestWriteProductMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "map.md")
	d := newDossier(t, endpoint(t, "GET /x", "XTest"))

	require.NoError(t, WriteProductMap(d, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Correlate(d), string(data))
	assert.Contains(t, string(data), "Product Map")
}
