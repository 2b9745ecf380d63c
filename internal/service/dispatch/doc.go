// Package dispatch implements newsletter delivery: resolving a target
// specification into eligible subscribers, fanning send attempts out to the
// email transport, and recording every outcome in the delivery ledger.
//
// The batch path is settle-all, never fail-fast: one recipient's transport
// failure is recorded and counted but never aborts or delays sibling
// attempts. The service depends only on the repository interfaces defined in
// this package; Postgres implementations live in repository/postgres/.
package dispatch
