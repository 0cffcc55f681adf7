package aggregates

import (
	"sort"
	"strings"
)

// Contract names an aggregate and the job store tables its writes cover.
// Rows in these tables are only mutated inside the aggregate's transaction.
type Contract struct {
	Name   string
	Tables []string
	Notes  string
}

// Aggregate is implemented by every write boundary.
type Aggregate interface {
	Contract() Contract
}

// Op builds the operation label used in errors, logs and metrics.
func (c Contract) Op(method string) string {
	method = strings.TrimSpace(method)
	if method == "" {
		return c.Name
	}
	return c.Name + "." + method
}

// Covers reports whether table is written by this aggregate.
func (c Contract) Covers(table string) bool {
	for _, t := range c.Tables {
		if t == table {
			return true
		}
	}
	return false
}

// Contracts lists every aggregate, ordered by name.
func Contracts() []Contract {
	out := []Contract{
		AssignmentAggregateContract,
		ResultsAggregateContract,
		Stage2AggregateContract,
		SubmissionAggregateContract,
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// WritersOf returns the names of aggregates that write table.
func WritersOf(table string) []string {
	var names []string
	for _, c := range Contracts() {
		if c.Covers(table) {
			names = append(names, c.Name)
		}
	}
	return names
}
