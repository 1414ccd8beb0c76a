package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/strager/flowcheck/sexy"
)

// RunFixture checks the input of a markdown test case and evaluates its
// assertions. It returns one message per failed assertion.
func RunFixture(tc sexy.TestCase, cfg Config) []string {
	program, result, err := CheckSource(tc.Input, cfg)

	var failures []string
	fail := func(a sexy.Assertion, format string, args ...any) {
		failures = append(failures, fmt.Sprintf("line %d: %s assertion: %s", a.Line, a.Type, fmt.Sprintf(format, args...)))
	}

	for _, a := range tc.Assertions {
		if a.Type == sexy.AssertionTypeInputError {
			if err == nil {
				fail(a, "expected an input error, got none")
				continue
			}
			for _, want := range fixtureLines(a.Content) {
				if !strings.Contains(err.Error(), want) {
					fail(a, "error %q does not mention %q", err.Error(), want)
				}
			}
			continue
		}
		if err != nil {
			fail(a, "unexpected input error: %v", err)
			continue
		}
		if internal := result.Err(); internal != nil {
			fail(a, "%v", internal)
			continue
		}

		switch a.Type {
		case sexy.AssertionTypeDiagnostics:
			var got []string
			for _, d := range result.Diagnostics() {
				got = append(got, d.Error())
			}
			want := fixtureLines(a.Content)
			if strings.Join(got, "\n") != strings.Join(want, "\n") {
				fail(a, "diagnostics differ\nwant:\n%s\ngot:\n%s", indent(want), indent(got))
			}

		case sexy.AssertionTypeTypes:
			failures = append(failures, checkTypes(a, program)...)

		case sexy.AssertionTypeTree:
			got, perr := sexy.Parse(ToSExpr(program))
			if perr != nil {
				fail(a, "dumped tree does not parse: %v", perr)
				continue
			}
			if !sexy.Match(a.ParsedSexy, got) {
				fail(a, "tree differs\nwant: %s\ngot:  %s", a.ParsedSexy, got)
			}
		}
	}
	return failures
}

// checkTypes compares the refined type of each labeled reference with the
// type given for its label. A reference that was never reached has the
// empty type, written unreachable. A label reference such as #b# in place
// of a type asks for the same refined type as the reference labeled b.
func checkTypes(a sexy.Assertion, program *ASTNode) []string {
	var failures []string
	fail := func(format string, args ...any) {
		failures = append(failures, fmt.Sprintf("line %d: types assertion: %s", a.Line, fmt.Sprintf(format, args...)))
	}

	if a.ParsedSexy.Type != sexy.NodeMap {
		fail("expected a map from labels to types, got %s", a.ParsedSexy)
		return failures
	}
	tagged := taggedNodes(program)
	reference := func(label string) (*ASTNode, bool) {
		node, ok := tagged[label]
		if !ok {
			fail("no node labeled #%s", label)
			return nil, false
		}
		if node.Kind != NodeIdent {
			fail("#%s labels a %s, not a reference", label, node.Kind)
			return nil, false
		}
		return node, true
	}
	for i, label := range a.ParsedSexy.Keys {
		node, ok := reference(label)
		if !ok {
			continue
		}
		value := a.ParsedSexy.Items[i]
		if value.Type == sexy.NodeLabelRef {
			other, ok := reference(value.Text)
			if ok && node.Refined != other.Refined {
				fail("#%s: want the type of #%s, %s, got %s", label, value.Text, other.Refined, node.Refined)
			}
			continue
		}
		want, err := DecodeType(value)
		if err != nil {
			fail("%s: %v", label, err)
			continue
		}
		if node.Refined != want {
			fail("#%s: want %s, got %s", label, want, node.Refined)
		}
	}
	return failures
}

func taggedNodes(program *ASTNode) map[string]*ASTNode {
	tagged := make(map[string]*ASTNode)
	var visit func(n *ASTNode)
	visit = func(n *ASTNode) {
		if n.Tag != "" {
			tagged[n.Tag] = n
		}
		for _, p := range n.Params {
			visit(p)
		}
		for _, child := range n.Children {
			visit(child)
		}
	}
	visit(program)
	return tagged
}

func fixtureLines(content string) []string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func indent(lines []string) string {
	if len(lines) == 0 {
		return "  (none)"
	}
	return "  " + strings.Join(lines, "\n  ")
}

// RunFixtureFile runs every test case of a markdown suite and returns the
// number of failed cases.
func RunFixtureFile(path string, cfg Config, verbose bool) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	cases, err := sexy.ExtractTestCases(string(content))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}

	failed := 0
	for _, tc := range cases {
		failures := RunFixture(tc, cfg)
		if len(failures) == 0 {
			if verbose {
				fmt.Fprintf(os.Stderr, "PASS %s: %s\n", path, tc.Name)
			}
			continue
		}
		failed++
		fmt.Printf("FAIL %s: %s\n", path, tc.Name)
		for _, f := range failures {
			fmt.Printf("  %s\n", f)
		}
	}
	return failed, nil
}
