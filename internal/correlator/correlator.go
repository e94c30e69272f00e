package correlator

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/steveyegge/probe/internal/format"
	"github.com/steveyegge/probe/internal/logging"
	"github.com/steveyegge/probe/internal/types"
)

// PublicRole is the pseudo-role grouping endpoints reachable without auth.
const PublicRole = "PUBLIC"

const (
	timeLayout  = "2006-01-02 15:04"
	placeholder = "—"
)

// endpointRow accumulates everything known about one "METHOD path" key.
type endpointRow struct {
	key         string
	public      bool
	roles       map[string]bool
	testClasses map[string]bool
}

// Correlate renders the Product Map for a dossier.
//
// Sections appear in a fixed order and are omitted when nothing contributes
// to them. The dossier is only read.
func Correlate(d *types.Dossier) string {
	var b strings.Builder

	writeHeader(&b, d)
	writeAPISurface(&b, d)
	writeBusinessRules(&b, d)
	writeWorkflows(&b, d)
	writeRoleMatrix(&b, d)
	writeProbeStats(&b, d)

	return b.String()
}

// WriteProductMap renders the Product Map and writes it to path, creating
// the parent directory if needed.
func WriteProductMap(d *types.Dossier, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	out := Correlate(d)
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return fmt.Errorf("writing product map: %w", err)
	}
	logging.New("correlator").Debug("product map written", "path", path, "bytes", len(out))
	return nil
}

func writeHeader(b *strings.Builder, d *types.Dossier) {
	b.WriteString("# Product Map\n\n")
	fmt.Fprintf(b, "- **Target:** `%s`\n", d.Target)
	fmt.Fprintf(b, "- **Environment:** %s\n", d.Env)
	fmt.Fprintf(b, "- **Scanned:** %s UTC\n", d.ScannedAt.UTC().Format(timeLayout))
	fmt.Fprintf(b, "- **Findings:** %d\n", len(d.Findings))
	fmt.Fprintf(b, "- **Probes:** %d\n", len(probeCounts(d)))
}

// collectEndpoints unions endpoint_tested facts with auth facts by entity key.
func collectEndpoints(d *types.Dossier) map[string]*endpointRow {
	rows := make(map[string]*endpointRow)
	row := func(key string) *endpointRow {
		r, ok := rows[key]
		if !ok {
			r = &endpointRow{key: key, roles: map[string]bool{}, testClasses: map[string]bool{}}
			rows[key] = r
		}
		return r
	}

	for _, f := range d.Findings {
		switch data := f.Data.(type) {
		case *types.EndpointTested:
			if f.Fact != types.FactEndpointTested {
				continue
			}
			r := row(f.Entity)
			if data.TestClass != "" {
				r.testClasses[data.TestClass] = true
			}
		case *types.AuthPattern:
			if f.Fact != types.FactAuthRequired && f.Fact != types.FactPublicEndpoint {
				continue
			}
			r := row(f.Entity)
			if data.IsPublic || f.Fact == types.FactPublicEndpoint {
				r.public = true
			}
			if data.Role != "" {
				r.roles[data.Role] = true
			}
		}
	}
	return rows
}

// statusesByClass indexes expected_status codes by test class.
func statusesByClass(d *types.Dossier) map[string]map[int]bool {
	idx := make(map[string]map[int]bool)
	for _, f := range d.ByFact(types.FactExpectedStatus) {
		s, ok := f.Data.(*types.ExpectedStatus)
		if !ok || s.TestClass == "" || s.StatusCode == 0 {
			continue
		}
		if idx[s.TestClass] == nil {
			idx[s.TestClass] = map[int]bool{}
		}
		idx[s.TestClass][s.StatusCode] = true
	}
	return idx
}

func writeAPISurface(b *strings.Builder, d *types.Dossier) {
	rows := collectEndpoints(d)
	if len(rows) == 0 {
		return
	}
	statuses := statusesByClass(d)

	tbl := format.NewTable(format.Markdown, "Endpoint", "Auth", "Statuses")
	for _, key := range sortedKeys(rows) {
		r := rows[key]

		auth := placeholder
		switch {
		case r.public:
			auth = "public"
		case len(r.roles) > 0:
			auth = strings.Join(sortedKeys(r.roles), ", ")
		}

		codes := map[int]bool{}
		for class := range r.testClasses {
			for code := range statuses[class] {
				codes[code] = true
			}
		}
		status := placeholder
		if len(codes) > 0 {
			status = joinCodes(codes)
		}

		tbl.Row("`"+r.key+"`", auth, status)
	}

	b.WriteString("\n## API Surface\n\n")
	b.WriteString(tbl.String())
	b.WriteString("\n")
}

func writeBusinessRules(b *strings.Builder, d *types.Dossier) {
	rules := d.ByFact(types.FactBusinessRule)
	if len(rules) == 0 {
		return
	}

	b.WriteString("\n## Business Rules\n\n")
	// Numbered in dossier order.
	for i, f := range rules {
		fmt.Fprintf(b, "- **R%02d** %s", i+1, ruleText(f))
		if f.Location != "" {
			fmt.Fprintf(b, " (`%s`)", f.Location)
		}
		b.WriteString("\n")
	}
}

func ruleText(f types.Finding) string {
	rule, ok := f.Data.(*types.BusinessRule)
	if !ok {
		return f.Entity
	}
	if rule.RuleText != "" {
		return rule.RuleText
	}
	text := f.Entity
	if rule.Matcher != "" {
		text += " " + rule.Matcher + "(" + rule.Expected.String() + ")"
	}
	return text
}

func writeWorkflows(b *strings.Builder, d *types.Dossier) {
	var flows []*types.BusinessWorkflow
	for _, f := range d.ByFact(types.FactBusinessWorkflow) {
		if wf, ok := f.Data.(*types.BusinessWorkflow); ok {
			flows = append(flows, wf)
		}
	}
	if len(flows) == 0 {
		return
	}

	b.WriteString("\n## Workflows\n")
	for _, wf := range flows {
		fmt.Fprintf(b, "\n### %s\n\n", wf.WorkflowName)
		if wf.TestClass != "" {
			fmt.Fprintf(b, "Test class: `%s`\n\n", wf.TestClass)
		}
		for _, s := range wf.Steps {
			b.WriteString(stepLine(s))
			b.WriteString("\n")
		}
	}
}

func stepLine(s types.WorkflowStep) string {
	action := strings.TrimSpace(s.Method + " " + s.Path)
	if action == "" {
		action = s.Action
	}
	line := fmt.Sprintf("%d. %s", s.Order, action)
	if s.StatusCode != 0 {
		line += " -> " + strconv.Itoa(s.StatusCode)
	}
	if s.TestMethod != "" {
		line += " (" + s.TestMethod + ")"
	}
	return line
}

func writeRoleMatrix(b *strings.Builder, d *types.Dossier) {
	matrix := make(map[string]map[string]bool)
	add := func(role, endpoint string) {
		if matrix[role] == nil {
			matrix[role] = map[string]bool{}
		}
		matrix[role][endpoint] = true
	}

	for _, r := range collectEndpoints(d) {
		if r.public {
			add(PublicRole, r.key)
		}
		for role := range r.roles {
			add(role, r.key)
		}
	}
	if len(matrix) == 0 {
		return
	}

	tbl := format.NewTable(format.Markdown, "Role", "Endpoints")
	for _, role := range sortedKeys(matrix) {
		endpoints := sortedKeys(matrix[role])
		for i, e := range endpoints {
			endpoints[i] = "`" + e + "`"
		}
		tbl.Row(role, strings.Join(endpoints, ", "))
	}

	b.WriteString("\n## Role Matrix\n\n")
	b.WriteString(tbl.String())
	b.WriteString("\n")
}

func writeProbeStats(b *strings.Builder, d *types.Dossier) {
	counts := probeCounts(d)
	if len(counts) == 0 {
		return
	}

	b.WriteString("\n## Probe Statistics\n\n")
	for _, probe := range sortedKeys(counts) {
		fmt.Fprintf(b, "- %s: %d\n", probe, counts[probe])
	}
}

func probeCounts(d *types.Dossier) map[string]int {
	counts := make(map[string]int)
	for _, f := range d.Findings {
		counts[f.Probe]++
	}
	return counts
}

func joinCodes(codes map[int]bool) string {
	sorted := make([]int, 0, len(codes))
	for c := range codes {
		sorted = append(sorted, c)
	}
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, c := range sorted {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, ", ")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
