package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// aggregate_write_audit reports service methods that write job store tables
// directly instead of going through an aggregate. With -fail it exits non-zero
// when any such write is found.

type repoField struct {
	Name     string `json:"name"`
	RepoType string `json:"repo_type"`
	Area     string `json:"area"`
	Guarded  bool   `json:"guarded"`
}

type methodStats struct {
	StructName               string   `json:"struct_name"`
	Method                   string   `json:"method"`
	File                     string   `json:"file"`
	Line                     int      `json:"line"`
	GuardedRepoWriteCalls    int      `json:"guarded_repo_write_calls"`
	GuardedRepoFieldsWritten []string `json:"guarded_repo_fields_written"`
	AggregateWriteCalls      int      `json:"aggregate_write_calls"`
	AggregateMethods         []string `json:"aggregate_methods"`
}

type auditReport struct {
	GuardedRepoWriteCallsites int           `json:"guarded_repo_write_callsites"`
	AggregateWriteCallsites   int           `json:"aggregate_write_callsites"`
	Violations                []methodStats `json:"violations"`
	AggregateMethods          []methodStats `json:"aggregate_methods"`
	RepoFieldInventory        []repoField   `json:"repo_field_inventory"`
}

type structFields struct {
	RepoFields      map[string]repoField
	AggregateFields map[string]string
}

var repoWriteMethods = map[string]bool{
	"Create":                 true,
	"Delete":                 true,
	"DeleteByIDs":            true,
	"DeleteByRequest":        true,
	"DeleteByClusterIDs":     true,
	"DeleteByComponents":     true,
	"DeleteBySampleClusters": true,
	"ClaimUnassigned":        true,
	"RevokeAssigned":         true,
	"MarkError":              true,
	"MarkCompleted":          true,
	"Touch":                  true,
	"ExpireStale":            true,
	"LockByID":               true,
}

var aggregateWriteMethods = map[string]bool{
	"Transition":          true,
	"CreateCluster":       true,
	"CreateSampleCluster": true,
	"Compose":             true,
	"Submit":              true,
	"Delete":              true,
}

func main() {
	fail := flag.Bool("fail", false, "exit 1 when a service writes a guarded table directly")
	flag.Parse()
	root := "."
	if flag.NArg() > 0 {
		root = flag.Arg(0)
	}

	servicesDir := filepath.Join(root, "internal", "services")
	fset := token.NewFileSet()

	pkgs, err := parser.ParseDir(fset, servicesDir, func(fi os.FileInfo) bool {
		name := fi.Name()
		return strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go")
	}, 0)
	if err != nil {
		exitf("parse dir: %v", err)
	}
	pkg, ok := pkgs["services"]
	if !ok {
		exitf("services package not found in %s", servicesDir)
	}

	fieldsByStruct := map[string]structFields{}
	for _, f := range pkg.Files {
		collectStructFields(f, fieldsByStruct)
	}

	var methods []methodStats
	for filePath, f := range pkg.Files {
		rel, err := filepath.Rel(root, filePath)
		if err != nil {
			rel = filePath
		}
		collectMethodStats(fset, f, rel, fieldsByStruct, &methods)
	}

	report := buildReport(fieldsByStruct, methods)
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		exitf("marshal report: %v", err)
	}
	fmt.Println(string(out))
	if *fail && len(report.Violations) > 0 {
		os.Exit(1)
	}
}

func collectStructFields(file *ast.File, out map[string]structFields) {
	for _, decl := range file.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, spec := range gd.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			st, ok := ts.Type.(*ast.StructType)
			if !ok || st.Fields == nil {
				continue
			}
			sf := structFields{RepoFields: map[string]repoField{}, AggregateFields: map[string]string{}}
			for _, field := range st.Fields.List {
				sel, ok := field.Type.(*ast.SelectorExpr)
				if !ok {
					continue
				}
				pkgIdent, ok := sel.X.(*ast.Ident)
				if !ok {
					continue
				}
				typeName := strings.TrimSpace(sel.Sel.Name)
				for _, n := range field.Names {
					switch {
					case pkgIdent.Name == "repos" && strings.HasSuffix(typeName, "Repo"):
						area, guarded := areaForRepoType(typeName)
						sf.RepoFields[n.Name] = repoField{Name: n.Name, RepoType: typeName, Area: area, Guarded: guarded}
					case pkgIdent.Name == "domainagg" && strings.HasSuffix(typeName, "Aggregate"):
						sf.AggregateFields[n.Name] = typeName
					}
				}
			}
			if len(sf.RepoFields) > 0 || len(sf.AggregateFields) > 0 {
				out[ts.Name.Name] = sf
			}
		}
	}
}

func collectMethodStats(fset *token.FileSet, file *ast.File, relFile string, fieldsByStruct map[string]structFields, out *[]methodStats) {
	for _, decl := range file.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Recv == nil || fd.Body == nil || len(fd.Recv.List) == 0 {
			continue
		}
		recvName, recvType := recvInfo(fd.Recv.List[0])
		if recvType == "" || recvName == "" {
			continue
		}
		sf, ok := fieldsByStruct[recvType]
		if !ok {
			continue
		}

		guardedCalls := 0
		guardedFields := map[string]bool{}
		aggCalls := 0
		aggMethods := map[string]bool{}

		ast.Inspect(fd.Body, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}
			fnSel, ok := call.Fun.(*ast.SelectorExpr)
			if !ok {
				return true
			}
			rcvSel, ok := fnSel.X.(*ast.SelectorExpr)
			if !ok {
				return true
			}
			baseIdent, ok := rcvSel.X.(*ast.Ident)
			if !ok || baseIdent.Name != recvName {
				return true
			}
			field := rcvSel.Sel.Name
			method := fnSel.Sel.Name

			if rf, ok := sf.RepoFields[field]; ok && rf.Guarded && repoWriteMethods[method] {
				guardedCalls++
				guardedFields[field] = true
				return true
			}
			if _, ok := sf.AggregateFields[field]; ok && aggregateWriteMethods[method] {
				aggCalls++
				aggMethods[method] = true
			}
			return true
		})

		*out = append(*out, methodStats{
			StructName:               recvType,
			Method:                   fd.Name.Name,
			File:                     filepath.ToSlash(relFile),
			Line:                     fset.Position(fd.Pos()).Line,
			GuardedRepoWriteCalls:    guardedCalls,
			GuardedRepoFieldsWritten: sortedKeys(guardedFields),
			AggregateWriteCalls:      aggCalls,
			AggregateMethods:         sortedKeys(aggMethods),
		})
	}
}

func buildReport(fieldsByStruct map[string]structFields, methods []methodStats) auditReport {
	sort.Slice(methods, func(i, j int) bool {
		if methods[i].File == methods[j].File {
			return methods[i].Line < methods[j].Line
		}
		return methods[i].File < methods[j].File
	})

	var report auditReport
	for _, m := range methods {
		if m.GuardedRepoWriteCalls > 0 {
			report.GuardedRepoWriteCallsites += m.GuardedRepoWriteCalls
			report.Violations = append(report.Violations, m)
		}
		if m.AggregateWriteCalls > 0 {
			report.AggregateWriteCallsites += m.AggregateWriteCalls
			report.AggregateMethods = append(report.AggregateMethods, m)
		}
	}

	fields := map[string]repoField{}
	for structName, sf := range fieldsByStruct {
		for _, rf := range sf.RepoFields {
			fields[structName+"."+rf.Name] = rf
		}
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		report.RepoFieldInventory = append(report.RepoFieldInventory, fields[k])
	}
	return report
}

func recvInfo(field *ast.Field) (string, string) {
	if field == nil || len(field.Names) == 0 {
		return "", ""
	}
	recvName := field.Names[0].Name
	switch t := field.Type.(type) {
	case *ast.StarExpr:
		if id, ok := t.X.(*ast.Ident); ok {
			return recvName, id.Name
		}
	case *ast.Ident:
		return recvName, t.Name
	}
	return "", ""
}

// areaForRepoType marks the tables whose writes must run inside an aggregate
// transaction. Single-row admin tables (workers, cluster labels) are not guarded.
func areaForRepoType(repoType string) (string, bool) {
	switch {
	case strings.HasPrefix(repoType, "ProcessRequest"), strings.HasPrefix(repoType, "Stage2"):
		return "Requests", true
	case strings.HasPrefix(repoType, "SampleCluster"), repoType == "ClusterRepo":
		return "Results", true
	case repoType == "ClusterLabelRepo", repoType == "WorkerRepo":
		return "Admin", false
	default:
		return "Metadata", false
	}
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
