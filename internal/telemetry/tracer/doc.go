// Package tracer configures OpenTelemetry tracing for stmkit.
//
// New installs a global TracerProvider that exports spans to stdout, to
// an OTLP gRPC collector, or nowhere. Transactions and ledger operations
// start their spans through the global provider, so with the "none"
// exporter they cost a no-op span.
package tracer
