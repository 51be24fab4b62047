// Package benchmark provides performance benchmarks for the stmkit
// primitives and the ledger built on them.
//
// Run benchmarks with:
//
//	go test -bench=. -benchmem ./internal/tests/benchmark/...
//
// Compare contention behaviour across core counts:
//
//	go test -bench=Contended -cpu=1,4,16 ./internal/tests/benchmark/...
//
// Compare results:
//
//	benchstat old.txt new.txt
package benchmark
