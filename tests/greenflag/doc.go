// Package greenflag contains Green-Flag tests that prove the system
// correctly succeeds on safe, well-formed operations. Valid credentials
// sign in, permitted roles reach their endpoints, records round-trip
// through the directory, and absence comes back as an empty answer
// instead of an error.
package greenflag

// This package contains Green-Flag tests organized by component:
// - absence_test.go: absent records are empty answers, not errors
// - directory_test.go: the user directory lifecycle over HTTP
// - membership_test.go: organizations and board memberships
// - auth_test.go: successful authentication flows
// - authorization_test.go: permitted operations for each role
// - readiness_test.go: health and readiness probes
// - observability_test.go: audit coverage of successful requests
// - bootstrap_test.go: workspace seeding
// - retry_test.go: recovery from transient outages
// - cli_test.go: the operator workflow through the client
