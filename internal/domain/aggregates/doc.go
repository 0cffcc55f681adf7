// Package aggregates defines the write boundaries of the job store.
//
// Each contract here names one set of rows whose invariants must hold together:
// a process request's assignment state, a worker's cluster result tree, and a
// stage-2 request with its inputs and seed clusters. Implementations live in
// internal/data/aggregates and own their transactions.
package aggregates
