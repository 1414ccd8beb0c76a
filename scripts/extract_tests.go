// Command extract_tests moves diagnostics tests written in Go into the
// markdown fixture format read by the test command.
//
// A test function is migrated when it checks one tree with mustCheck and
// compares diagnosticStrings of the result against a []string literal, and
// does nothing else that the markdown form cannot express.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

type TestCase struct {
	Name        string
	Input       string
	Diagnostics []string
	SourceFile  string
	FuncName    string
}

type Extractor struct {
	fileSet           *token.FileSet
	cases             []TestCase
	functionsToDelete map[string][]string // filename -> function names
}

func NewExtractor() *Extractor {
	return &Extractor{
		fileSet:           token.NewFileSet(),
		functionsToDelete: make(map[string][]string),
	}
}

func (e *Extractor) extractFromTestFiles(pattern string) error {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return err
	}
	for _, file := range files {
		if err := e.visitFile(file); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to process %s: %v\n", file, err)
		}
	}
	return nil
}

func (e *Extractor) visitFile(filename string) error {
	file, err := parser.ParseFile(e.fileSet, filename, nil, parser.ParseComments)
	if err != nil {
		return err
	}
	for _, decl := range file.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok && strings.HasPrefix(fn.Name.Name, "Test") {
			e.extractFromFunction(fn, filename)
		}
	}
	return nil
}

// extractFromFunction recognizes
//
//	_, result := mustCheck(t, `...`)
//	be.Equal(t, diagnosticStrings(result), []string{...})
//
// as the whole body of fn.
func (e *Extractor) extractFromFunction(fn *ast.FuncDecl, sourceFile string) {
	if len(fn.Body.List) != 2 {
		return
	}

	assign, ok := fn.Body.List[0].(*ast.AssignStmt)
	if !ok || len(assign.Lhs) != 2 || len(assign.Rhs) != 1 {
		return
	}
	if ident, ok := assign.Lhs[0].(*ast.Ident); !ok || ident.Name != "_" {
		return
	}
	result, ok := assign.Lhs[1].(*ast.Ident)
	if !ok {
		return
	}
	check, ok := assign.Rhs[0].(*ast.CallExpr)
	if !ok || !isIdent(check.Fun, "mustCheck") || len(check.Args) != 2 {
		return
	}
	input, ok := stringLiteral(check.Args[1])
	if !ok {
		return
	}

	stmt, ok := fn.Body.List[1].(*ast.ExprStmt)
	if !ok {
		return
	}
	equal, ok := stmt.X.(*ast.CallExpr)
	if !ok || !isSelector(equal.Fun, "be", "Equal") || len(equal.Args) != 3 {
		return
	}
	got, ok := equal.Args[1].(*ast.CallExpr)
	if !ok || !isIdent(got.Fun, "diagnosticStrings") || len(got.Args) != 1 || !isIdent(got.Args[0], result.Name) {
		return
	}
	want, ok := equal.Args[2].(*ast.CompositeLit)
	if !ok {
		return
	}
	var diagnostics []string
	for _, elt := range want.Elts {
		s, ok := stringLiteral(elt)
		if !ok {
			return
		}
		diagnostics = append(diagnostics, s)
	}

	tc := TestCase{
		Name:        generateTestName(fn.Name.Name),
		Input:       strings.TrimSpace(input),
		Diagnostics: diagnostics,
		SourceFile:  sourceFile,
		FuncName:    fn.Name.Name,
	}
	if e.isDuplicate(tc) {
		return
	}
	e.cases = append(e.cases, tc)
	e.functionsToDelete[sourceFile] = append(e.functionsToDelete[sourceFile], fn.Name.Name)
}

func isIdent(expr ast.Expr, name string) bool {
	ident, ok := expr.(*ast.Ident)
	return ok && ident.Name == name
}

func isSelector(expr ast.Expr, pkg, name string) bool {
	sel, ok := expr.(*ast.SelectorExpr)
	return ok && isIdent(sel.X, pkg) && sel.Sel.Name == name
}

func stringLiteral(expr ast.Expr) (string, bool) {
	lit, ok := expr.(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return "", false
	}
	val, err := strconv.Unquote(lit.Value)
	return val, err == nil
}

func (e *Extractor) isDuplicate(tc TestCase) bool {
	for _, existing := range e.cases {
		if existing.Input == tc.Input && slices.Equal(existing.Diagnostics, tc.Diagnostics) {
			return true
		}
	}
	return false
}

// generateTestName turns TestBreakJoinsLoopExit into "break joins loop exit".
func generateTestName(funcName string) string {
	var result []rune
	for i, r := range strings.TrimPrefix(funcName, "Test") {
		if i > 0 && unicode.IsUpper(r) {
			result = append(result, ' ')
		}
		result = append(result, unicode.ToLower(r))
	}
	return string(result)
}

func (e *Extractor) generateSexyMarkdown() string {
	if len(e.cases) == 0 {
		return "# No test cases found\n"
	}

	sort.Slice(e.cases, func(i, j int) bool {
		if e.cases[i].SourceFile != e.cases[j].SourceFile {
			return e.cases[i].SourceFile < e.cases[j].SourceFile
		}
		return e.cases[i].FuncName < e.cases[j].FuncName
	})

	var sb strings.Builder
	sb.WriteString("# Extracted diagnostics tests\n\n")
	sb.WriteString("Generated from existing Go test files.\n\n")

	currentFile := ""
	for _, tc := range e.cases {
		if tc.SourceFile != currentFile {
			currentFile = tc.SourceFile
			fmt.Fprintf(&sb, "## Tests from %s\n\n", filepath.Base(currentFile))
		}
		fmt.Fprintf(&sb, "### Test: %s\n", tc.Name)
		sb.WriteString("```flow-func\n")
		sb.WriteString(tc.Input)
		sb.WriteString("\n```\n")
		sb.WriteString("```diagnostics\n")
		for _, d := range tc.Diagnostics {
			sb.WriteString(d + "\n")
		}
		sb.WriteString("```\n\n")
	}
	return sb.String()
}

func (e *Extractor) deleteExtractedFunctions() error {
	if len(e.functionsToDelete) == 0 {
		fmt.Fprintf(os.Stderr, "No functions to delete\n")
		return nil
	}
	for filename, names := range e.functionsToDelete {
		if err := e.modifyFile(filename, names); err != nil {
			return fmt.Errorf("failed to modify %s: %w", filename, err)
		}
		fmt.Fprintf(os.Stderr, "Deleted %d functions from %s: %v\n", len(names), filename, names)
	}
	return nil
}

func (e *Extractor) modifyFile(filename string, names []string) error {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, nil, parser.ParseComments)
	if err != nil {
		return err
	}

	var decls []ast.Decl
	for _, decl := range file.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok && slices.Contains(names, fn.Name.Name) {
			continue
		}
		decls = append(decls, decl)
	}
	file.Decls = decls

	var buf bytes.Buffer
	if err := format.Node(&buf, fset, file); err != nil {
		return err
	}
	return os.WriteFile(filename, buf.Bytes(), 0o644)
}

func main() {
	pattern := flag.String("files", "*_test.go", "glob of Go test files to read")
	del := flag.Bool("delete", false, "remove migrated test functions from their files")
	flag.Parse()

	extractor := NewExtractor()
	if err := extractor.extractFromTestFiles(*pattern); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Print(extractor.generateSexyMarkdown())

	if *del {
		if err := extractor.deleteExtractedFunctions(); err != nil {
			fmt.Fprintf(os.Stderr, "Error deleting functions: %v\n", err)
			os.Exit(1)
		}
	}
}
