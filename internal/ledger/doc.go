// Package ledger is an in-memory account ledger built on the stmkit
// primitives.
//
// Balances are transactional refs validated to stay non-negative, so a
// Transfer either moves the whole amount or changes nothing, and Total
// always sees a state where no transfer is half applied. Deposits commute
// and never retry against each other. Every committed change is appended
// to an audit log held by an I/O-class agent, and a token bucket kept in
// an atomic cell can throttle transfers.
package ledger
