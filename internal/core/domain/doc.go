// Package domain defines the error taxonomy for stmkit.
//
// Every error surfaced by the primitives is a *DomainError carrying a
// stable code, so callers compare with errors.Is regardless of the
// details or cause attached at the failure site:
//
//   - STATE: validator rejections (never retried)
//   - TXN: transaction conflict (internal) and retry exhaustion
//   - AGENT, AWAIT: agent failure, restart misuse, shutdown, await timeout
//   - ARG: invalid or missing arguments
//   - ACCT, SYS: ledger call sites
package domain
