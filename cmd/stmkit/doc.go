// Package main provides the entry point for stmkit.
//
// stmkit drives workloads against the concurrency primitives and checks
// their invariants:
//
//   - counter: concurrent atomic cell increments
//   - transfer: random STM transfers between ledger accounts
//   - contention: alter versus commute on one hot ref
//   - agents: ordering, fail mode, restart and continue mode
//   - soak: paced load with Prometheus metrics and config hot reload
//
// Usage:
//
//	stmkit transfer --accounts 32 --workers 16
//	stmkit -o json contention
//	stmkit --config stmkit.yaml soak --metrics-addr :9464
//
// A check that does not hold exits with status 2. An operation refused by
// a primitive or the ledger exits with 3, and a bad argument with 64.
package main
