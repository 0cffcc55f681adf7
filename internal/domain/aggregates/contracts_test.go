package aggregates

import "testing"

func TestContractOp(t *testing.T) {
	if got := AssignmentAggregateContract.Op("claim"); got != "Processing.Assignment.claim" {
		t.Fatalf("Op: got=%q", got)
	}
	if got := ResultsAggregateContract.Op("  "); got != "Processing.Results" {
		t.Fatalf("blank method: got=%q", got)
	}
}

func TestContractsCoverJobStoreTables(t *testing.T) {
	tables := []string{
		"process_request",
		"process_request_input",
		"process_request_stage2_cluster",
		"cluster",
		"sample_cluster",
		"sample_cluster_parameter",
		"sample_cluster_component",
		"sample_cluster_component_parameter",
	}
	for _, table := range tables {
		if len(WritersOf(table)) == 0 {
			t.Fatalf("no aggregate writes %s", table)
		}
	}
	if got := WritersOf("worker"); len(got) != 0 {
		t.Fatalf("worker rows are admin managed, got writers %v", got)
	}
}

func TestContractsSortedAndUnique(t *testing.T) {
	seen := map[string]bool{}
	prev := ""
	for _, c := range Contracts() {
		if seen[c.Name] {
			t.Fatalf("duplicate contract %s", c.Name)
		}
		seen[c.Name] = true
		if c.Name < prev {
			t.Fatalf("contracts not sorted: %s after %s", c.Name, prev)
		}
		prev = c.Name
		if len(c.Tables) == 0 {
			t.Fatalf("%s covers no tables", c.Name)
		}
	}
	if len(seen) != 4 {
		t.Fatalf("want 4 contracts got %d", len(seen))
	}
}
