// Package output renders stmkit command results as tables, JSON or YAML,
// and draws progress bars for long runs.
package output
