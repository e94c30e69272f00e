package types

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Fact types understood by the analyzers and the correlator.
// Any other fact string is legal and decodes into Opaque.
const (
	FactBusinessRule     = "business_rule"
	FactEndpointTested   = "endpoint_tested"
	FactBusinessWorkflow = "business_workflow"
	FactAuthRequired     = "auth_required"
	FactPublicEndpoint   = "public_endpoint"
	FactExpectedStatus   = "expected_status"
)

// Payload is the fact-specific body of a Finding.
//
// The set of implementations is closed: one struct per known fact type plus
// Opaque for everything else. Callers type-switch on the concrete value.
type Payload interface {
	payload()
}

// BusinessRule is an assertion on a response field (fact business_rule).
type BusinessRule struct {
	Field          string  `json:"field"`
	Matcher        string  `json:"matcher"`
	Expected       Literal `json:"expected"`
	RuleText       string  `json:"rule_text"`
	TestClass      string  `json:"test_class"`
	TestMethod     string  `json:"test_method"`
	IsNegativeTest bool    `json:"is_negative_test"`
}

// EndpointTested is an HTTP call exercised by a test (fact endpoint_tested).
type EndpointTested struct {
	Method        string `json:"method"`
	Path          string `json:"path"`
	HasPathParams bool   `json:"has_path_params"`
	TestClass     string `json:"test_class"`
	TestMethod    string `json:"test_method"`
}

// WorkflowStep is one ordered interaction of a recorded workflow.
type WorkflowStep struct {
	Order      int    `json:"order"`
	TestMethod string `json:"test_method"`
	Action     string `json:"action"`
	Method     string `json:"method"`
	Path       string `json:"path"`
	StatusCode int    `json:"status_code"`
}

// BusinessWorkflow is an ordered sequence of steps (fact business_workflow).
// Steps are stored in the order the producing probe emitted them.
type BusinessWorkflow struct {
	WorkflowName string         `json:"workflow_name"`
	TestClass    string         `json:"test_class"`
	StepCount    int            `json:"step_count"`
	Steps        []WorkflowStep `json:"steps"`
}

// AuthPattern describes the authentication context of an endpoint call
// (facts auth_required and public_endpoint).
type AuthPattern struct {
	AuthType      string `json:"auth_type"`
	Role          string `json:"role"`
	TokenVariable string `json:"token_variable"`
	IsPublic      bool   `json:"is_public"`
	Username      string `json:"username"`
	TestClass     string `json:"test_class"`
	TestMethod    string `json:"test_method"`
	StatusCode    int    `json:"status_code"`
}

// ExpectedStatus is a status code asserted by a test (fact expected_status).
type ExpectedStatus struct {
	StatusCode int    `json:"status_code"`
	IsSuccess  bool   `json:"is_success"`
	TestClass  string `json:"test_class"`
	TestMethod string `json:"test_method"`
	Context    string `json:"context"`
}

// Opaque carries the data of fact types the core does not interpret.
// It is kept only so the finding round-trips.
type Opaque map[string]any

func (*BusinessRule) payload()     {}
func (*EndpointTested) payload()   {}
func (*BusinessWorkflow) payload() {}
func (*AuthPattern) payload()      {}
func (*ExpectedStatus) payload()   {}
func (Opaque) payload()            {}

// Literal is the textual form of an asserted value. It decodes from a JSON
// string, number, boolean or null so that probes may emit either.
type Literal string

// UnmarshalJSON implements json.Unmarshaler.
func (l *Literal) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		*l = ""
	case string:
		*l = Literal(x)
	case bool:
		*l = Literal(strconv.FormatBool(x))
	case float64:
		// Keep the number exactly as written (42 stays "42", not "42.000000").
		*l = Literal(string(b))
	default:
		return fmt.Errorf("expected value must be a scalar, got %T", v)
	}
	return nil
}

// String returns the literal text.
func (l Literal) String() string {
	return string(l)
}

// decodePayload decodes raw data according to the fact type.
func decodePayload(fact string, raw json.RawMessage) (Payload, error) {
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage("{}")
	}

	var p Payload
	switch fact {
	case FactBusinessRule:
		p = &BusinessRule{}
	case FactEndpointTested:
		p = &EndpointTested{}
	case FactBusinessWorkflow:
		p = &BusinessWorkflow{}
	case FactAuthRequired, FactPublicEndpoint:
		p = &AuthPattern{}
	case FactExpectedStatus:
		p = &ExpectedStatus{}
	default:
		var o Opaque
		if err := json.Unmarshal(raw, &o); err != nil {
			return nil, fmt.Errorf("decoding %s data: %w", fact, err)
		}
		return o, nil
	}

	if err := json.Unmarshal(raw, p); err != nil {
		return nil, fmt.Errorf("decoding %s data: %w", fact, err)
	}
	return p, nil
}
