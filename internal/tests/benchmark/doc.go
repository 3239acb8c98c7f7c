// Package benchmark provides performance benchmarks for the client's hot
// paths: token store reads and writes on every engine, failure
// classification and token sealing.
//
// Run benchmarks with:
//
//	go test -bench=. -benchmem ./internal/tests/benchmark/...
//
// Compare results:
//
//	go test -bench=. -benchmem -count=5 ./internal/tests/benchmark/... | tee new.txt
//	benchstat old.txt new.txt
package benchmark
