// Package workers provides the built-in probes.
//
// All of them read RestAssured test suites (env "test"):
//
//   - ra-endpoint-census: HTTP calls made by tests (endpoint_tested)
//   - ra-expected-status: status codes tests assert on (expected_status)
//   - ra-assertion-rules: body(path, matcher) assertions (business_rule)
//   - ra-auth-patterns: authentication used per call (auth_required, public_endpoint)
//   - ra-test-sequence: ordered test classes (business_workflow)
//
// Probes are lexical. They understand enough Java to find calls, method
// bodies and annotations, and report less on code they cannot follow.
//
// Usage:
//
//	registry := discovery.NewRegistry()
//	if err := workers.RegisterAll(registry); err != nil {
//		return err
//	}
package workers
