package analysis

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/steveyegge/probe/internal/types"
)

// EntityModelName is the registry name of the entity model analyzer.
const EntityModelName = "entity-model"

// Field types, from least to most specific.
const (
	TypeAuto    = "auto"
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeEnum    = "enum"
)

// SourceURLOnly marks entities known only from endpoint paths.
const SourceURLOnly = "url_only"

var (
	urlSegmentRe = regexp.MustCompile(`/([a-z][a-z0-9-]+)`)
	versionRe    = regexp.MustCompile(`^v\d+$`)
)

// EntityModel is an inferred business entity.
type EntityModel struct {
	Name      string     `json:"name"`
	Fields    []Field    `json:"fields"`
	Relations []Relation `json:"relations"`
	Source    string     `json:"source,omitempty"`
}

// Field is an inferred entity field.
type Field struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Values   []string `json:"values,omitempty"`   // Sorted; only for enum
	Evidence []string `json:"evidence,omitempty"` // First-seen order
}

// Relation links a field named "<x>Id" to entity X.
type Relation struct {
	Field    string   `json:"field"`
	Target   string   `json:"target"`
	Evidence []string `json:"evidence"`
}

// typePriority orders field types; integer and number rank equally.
var typePriority = map[string]int{
	TypeAuto:    0,
	TypeString:  1,
	TypeInteger: 2,
	TypeNumber:  2,
	TypeEnum:    3,
}

// inferType maps one assertion to a field type.
func inferType(matcher, value string) string {
	switch matcher {
	case "notNullValue", "notNull":
		return TypeAuto
	case "greaterThan", "lessThan", "greaterThanOrEqualTo", "lessThanOrEqualTo":
		return TypeInteger
	}
	if !isEqualityMatcher(matcher) {
		return TypeString
	}

	if _, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
		return TypeInteger
	}
	if _, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
		return TypeNumber
	}
	if enumValueRe.MatchString(value) {
		return TypeEnum
	}
	return TypeString
}

// mergeType keeps current unless next has strictly higher priority.
func mergeType(current, next string) string {
	if typePriority[next] > typePriority[current] {
		return next
	}
	return current
}

// fieldAccumulator collects observations for one field.
type fieldAccumulator struct {
	typ      string
	values   map[string]bool
	evidence []string
	seen     map[string]bool
}

func (a *fieldAccumulator) observe(typ, value, location string) {
	a.typ = mergeType(a.typ, typ)
	if typ == TypeEnum && value != "" {
		a.values[value] = true
	}
	if location != "" && !a.seen[location] {
		a.seen[location] = true
		a.evidence = append(a.evidence, location)
	}
}

// fieldName returns the leading segment of a field path
// (items[0].sku -> items).
func fieldName(path string) string {
	if i := strings.IndexAny(path, ".["); i >= 0 {
		return path[:i]
	}
	return path
}

// BuildEntityModels infers entities from business-rule and endpoint
// findings. The result is sorted by entity name, and fields within each
// entity by field name.
func BuildEntityModels(findings []types.Finding) []EntityModel {
	entities := make(map[string]map[string]*fieldAccumulator)

	// Field and type inference from assertions.
	for _, f := range findings {
		if f.Fact != types.FactBusinessRule {
			continue
		}
		rule, ok := f.Data.(*types.BusinessRule)
		if !ok {
			continue
		}
		entity, path, ok := splitEntity(f.Entity)
		if !ok {
			continue
		}
		name := fieldName(path)
		if entity == "" || name == "" {
			continue
		}

		value := rule.Expected.String()
		typ := inferType(rule.Matcher, value)

		fields, ok := entities[entity]
		if !ok {
			fields = make(map[string]*fieldAccumulator)
			entities[entity] = fields
		}
		acc, ok := fields[name]
		if !ok {
			acc = &fieldAccumulator{
				typ:    typ,
				values: make(map[string]bool),
				seen:   make(map[string]bool),
			}
			fields[name] = acc
		}
		acc.observe(typ, value, f.Location)
	}

	models := make([]EntityModel, 0, len(entities))
	for entity, fields := range entities {
		models = append(models, assembleEntity(entity, fields))
	}

	// Entities implied by endpoint paths.
	for _, name := range urlEntities(findings) {
		if _, exists := entities[name]; exists {
			continue
		}
		models = append(models, EntityModel{
			Name:      name,
			Fields:    []Field{},
			Relations: []Relation{},
			Source:    SourceURLOnly,
		})
	}

	sort.Slice(models, func(i, j int) bool { return models[i].Name < models[j].Name })
	return models
}

func assembleEntity(entity string, fields map[string]*fieldAccumulator) EntityModel {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	model := EntityModel{
		Name:      entity,
		Fields:    make([]Field, 0, len(names)),
		Relations: []Relation{},
	}
	for _, name := range names {
		acc := fields[name]
		field := Field{
			Name:     name,
			Type:     acc.typ,
			Evidence: acc.evidence,
		}
		if acc.typ == TypeEnum && len(acc.values) > 0 {
			for v := range acc.values {
				field.Values = append(field.Values, v)
			}
			sort.Strings(field.Values)
		}
		model.Fields = append(model.Fields, field)

		if target, ok := strings.CutSuffix(name, "Id"); ok && target != "" {
			evidence := acc.evidence
			if evidence == nil {
				evidence = []string{}
			}
			model.Relations = append(model.Relations, Relation{
				Field:    name,
				Target:   capitalize(target),
				Evidence: evidence,
			})
		}
	}
	return model
}

// urlEntities returns the distinct entity names implied by tested
// endpoint paths, sorted.
func urlEntities(findings []types.Finding) []string {
	seen := make(map[string]bool)
	for _, f := range findings {
		if f.Fact != types.FactEndpointTested {
			continue
		}
		for _, m := range urlSegmentRe.FindAllStringSubmatch(strings.ToLower(f.Entity), -1) {
			segment := m[1]
			if segment == "api" || versionRe.MatchString(segment) {
				continue
			}
			seen[capitalize(strings.TrimSuffix(segment, "s"))] = true
		}
	}
	delete(seen, "")

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EntityModelAnalyzer infers an entity/field schema from findings.
type EntityModelAnalyzer struct {
	Base
}

// NewEntityModelAnalyzer creates the entity model analyzer.
func NewEntityModelAnalyzer() *EntityModelAnalyzer {
	return &EntityModelAnalyzer{
		Base: Base{
			ID:   EntityModelName,
			Desc: "Infers entities, fields and types from business rules and endpoints",
		},
	}
}

// Analyze implements Analyzer.
func (a *EntityModelAnalyzer) Analyze(findings []types.Finding) (*types.AnalysisResult, error) {
	models := BuildEntityModels(findings)

	lines := []string{fmt.Sprintf("Entities: %d", len(models))}
	for _, m := range models {
		lines = append(lines, fmt.Sprintf("  %s: %d fields", m.Name, len(m.Fields)))
	}

	return types.NewAnalysisResult(a.Name(),
		map[string]any{"entities": models},
		strings.Join(lines, "\n"))
}
