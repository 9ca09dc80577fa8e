// Package redflag contains Red-Flag tests that prove the system correctly
// refuses unsafe or invalid operations. Bad credentials, missing grants,
// duplicate records and malformed input must all be rejected with explicit,
// typed errors rather than silently accepted.
package redflag

// This package contains Red-Flag tests organized by component:
// - auth_test.go: Tests for authentication failures
// - authorization_test.go: Tests for permission denials
// - server_test.go: Tests for HTTP request rejection
// - storage_test.go: Tests for store-level conflict rejection
// - audit_persistence_test.go: Tests for audit trail durability
// - bootstrap_test.go: Tests for workspace seed rejection
// - retry_test.go: Tests for non-retryable error classification
// - cli_test.go: Tests for client failures without a usable server
