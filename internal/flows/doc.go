// Package flows contains pure-function orchestrators for the protocol-heavy
// Engine operations: refresh rotation and single-use token consumption.
//
// Each flow function accepts a typed dependency struct and returns a result
// carrying a failure-kind enum; the root package maps kinds onto its error
// taxonomy and HTTP statuses. This design enables exhaustive unit testing
// with function-valued mocks and keeps the Engine type thin.
//
// # Architecture boundaries
//
// Flow functions coordinate the token codec, the revocation store, and the
// principal store through injected dependencies. They do NOT own any of
// these resources - ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import the root package (to avoid import cycles).
//   - Perform I/O directly - all I/O is mediated through dependencies.
package flows
