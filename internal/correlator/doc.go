// Package correlator joins findings of different fact types into the
// Product Map, a Markdown overview of a scanned test suite.
//
// The map has a header block followed by the API Surface, Business Rules,
// Workflows, Role Matrix and Probe Statistics sections. A section with no
// contributing findings is left out entirely.
//
// Endpoint statuses are joined indirectly: an endpoint_tested finding names
// the test class that covers it, and every expected_status finding from
// that class contributes its code to the endpoint's row.
package correlator
