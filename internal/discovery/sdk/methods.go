package sdk

import (
	"regexp"
	"sort"
	"strconv"
)

// Method is a method declaration with a body, found in a source file.
type Method struct {
	Name        string
	Annotations string // Raw annotation text preceding the declaration
	Line        int    // Line of the declaration
	Start       int    // Offset of the opening brace
	End         int    // Offset of the closing brace
	Body        string // Body including both braces
}

var (
	methodDeclRe = regexp.MustCompile(
		`(?:(?:public|private|protected|static|final|synchronized|abstract)\s+)*` +
			`([\w.]+(?:<[^(){};]*?>)?(?:\[\])*)\s+(\w+)\s*\([^(){};]*\)\s*(?:throws\s+[\w.,\s]+?)?\s*\{`)
	testAnnotationRe  = regexp.MustCompile(`@Test\b`)
	orderAnnotationRe = regexp.MustCompile(`@Order\(\s*(\d+)\s*\)`)
	methodOrderRe     = regexp.MustCompile(`@TestMethodOrder\b`)
)

// Statement keywords that the declaration pattern would otherwise accept
// as a return type or a name ("else if (x) {", "new Foo() {").
var notDeclaration = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"synchronized": true, "return": true, "new": true, "else": true,
	"throw": true, "try": true, "do": true,
}

// Methods returns every method declaration with a body, in source order.
// Nested declarations (anonymous classes, lambdas in helper classes) are
// included; EnclosingMethod picks the innermost.
func Methods(content string) []Method {
	var methods []Method
	for _, loc := range methodDeclRe.FindAllStringSubmatchIndex(content, -1) {
		retType := content[loc[2]:loc[3]]
		name := content[loc[4]:loc[5]]
		if notDeclaration[retType] || notDeclaration[name] {
			continue
		}

		open := loc[1] - 1
		end, ok := MatchBalanced(content, open)
		if !ok {
			continue
		}

		methods = append(methods, Method{
			Name:        name,
			Annotations: annotationsBefore(content, loc[0]),
			Line:        LineAt(content, loc[0]),
			Start:       open,
			End:         end,
			Body:        content[open : end+1],
		})
	}
	return methods
}

// annotationsBefore returns the text between the previous statement or
// block boundary and the declaration at start.
func annotationsBefore(content string, start int) string {
	i := start
	depth := 0
	for i > 0 {
		c := content[i-1]
		switch c {
		case ')':
			depth++
		case '(':
			depth--
		case ';', '{', '}':
			if depth == 0 {
				return content[i:start]
			}
		}
		i--
	}
	return content[:start]
}

// TestMethods returns the @Test-annotated methods of a file.
func TestMethods(content string) []Method {
	var tests []Method
	for _, m := range Methods(content) {
		if m.IsTest() {
			tests = append(tests, m)
		}
	}
	return tests
}

// IsTest reports whether the method carries a @Test annotation.
func (m Method) IsTest() bool {
	return testAnnotationRe.MatchString(m.Annotations)
}

// Order returns the value of the method's @Order annotation.
func (m Method) Order() (int, bool) {
	match := orderAnnotationRe.FindStringSubmatch(m.Annotations)
	if match == nil {
		return 0, false
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// OrderedMethods returns the @Order-annotated methods, stably sorted by
// order value.
func OrderedMethods(content string) []Method {
	type ordered struct {
		order  int
		method Method
	}
	var steps []ordered
	for _, m := range Methods(content) {
		if n, ok := m.Order(); ok {
			steps = append(steps, ordered{order: n, method: m})
		}
	}
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].order < steps[j].order })

	methods := make([]Method, len(steps))
	for i, s := range steps {
		methods[i] = s.method
	}
	return methods
}

// HasMethodOrder reports whether the source declares @TestMethodOrder.
func HasMethodOrder(content string) bool {
	return methodOrderRe.MatchString(content)
}

// EnclosingMethod returns the name of the innermost method whose body
// contains offset, or "" when the offset lies outside every method.
func EnclosingMethod(methods []Method, offset int) string {
	name := ""
	best := -1
	for _, m := range methods {
		if offset > m.Start && offset < m.End && m.Start > best {
			name = m.Name
			best = m.Start
		}
	}
	return name
}
