package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nalgeon/be"
	"github.com/strager/flowcheck/sexy"
)

func TestSexyAllTests(t *testing.T) {
	// Find all test files in the test/ directory
	testFiles, err := filepath.Glob("test/*_test.md")
	be.Err(t, err, nil)
	be.True(t, len(testFiles) > 0)

	for _, testFile := range testFiles {
		fileName := filepath.Base(testFile)
		testName := strings.TrimSuffix(fileName, ".md")

		t.Run(testName, func(t *testing.T) {
			content, err := os.ReadFile(testFile)
			be.Err(t, err, nil)

			testCases, err := sexy.ExtractTestCases(string(content))
			be.Err(t, err, nil)

			for _, tc := range testCases {
				t.Run(tc.Name, func(t *testing.T) {
					for _, failure := range RunFixture(tc, DefaultConfig()) {
						t.Errorf("%s:%d: %s", testFile, tc.InputLine, failure)
					}
				})
			}
		})
	}
}

func TestRunFixtureReportsFailures(t *testing.T) {
	cases, err := sexy.ExtractTestCases(`## Test: wrong expectations
` + "```flow-func" + `
(func "f" (params (param "x" ^{type: "?number"}))
  (var "s" ^{type: string} #x=(ident "x")))
` + "```" + `
` + "```diagnostics" + `
` + "```" + `
` + "```types" + `
{x: number, missing: string}
` + "```" + `
` + "```input-error" + `
not declared
` + "```")
	be.Err(t, err, nil)
	be.Equal(t, len(cases), 1)

	failures := RunFixture(cases[0], DefaultConfig())
	be.Equal(t, len(failures), 4)
	be.True(t, strings.Contains(failures[0], "diagnostics differ"))
	be.True(t, strings.Contains(failures[1], "#x: want number, got null | number | void"))
	be.True(t, strings.Contains(failures[2], "no node labeled #missing"))
	be.True(t, strings.Contains(failures[3], "expected an input error, got none"))
}

func TestRunFixtureComparesLabelReferences(t *testing.T) {
	cases, err := sexy.ExtractTestCases(`## Test: same type
` + "```flow-func" + `
(func "f" (params (param "x" ^{type: "?number"}))
  #before=(ident "x")
  (if (binary "==" (ident "x") null) (return))
  #after=(ident "x"))
` + "```" + `
` + "```types" + `
{after: #before#, before: #nowhere#}
` + "```")
	be.Err(t, err, nil)
	be.Equal(t, len(cases), 1)

	failures := RunFixture(cases[0], DefaultConfig())
	be.Equal(t, len(failures), 2)
	be.True(t, strings.Contains(failures[0], "#after: want the type of #before, null | number | void, got number"))
	be.True(t, strings.Contains(failures[1], "no node labeled #nowhere"))
}
