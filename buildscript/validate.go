// Package buildscript parses and validates the caller-supplied build
// script before it's handed to the external runner, and expands
// $VAR/${VAR} references against the toolchain environment for
// diagnostics.
package buildscript

import (
	"fmt"
	"os"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"github.com/forgeline/sandboxctl/errors"
)

// Script is a parsed build script.
type Script struct {
	Path string
	ast  *syntax.File
}

// Parse reads and parses path as a POSIX-ish shell script.
func Parse(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close() // nolint: gosec
	ast, err := syntax.NewParser().Parse(f, path)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	return &Script{Path: path, ast: ast}, nil
}

// Validate walks the script, returning one message per call to an external
// command not present in allowed. Calls to functions declared within the
// script itself are always allowed.
func (s *Script) Validate(allowed map[string]bool) []string {
	localFunctions := map[string]bool{}
	syntax.Walk(s.ast, func(node syntax.Node) bool {
		if fn, ok := node.(*syntax.FuncDecl); ok {
			localFunctions[fn.Name.Value] = true
		}
		return true
	})

	var violations []string
	syntax.Walk(s.ast, func(node syntax.Node) bool {
		call, ok := node.(*syntax.CallExpr)
		if !ok || len(call.Args) == 0 {
			return true
		}
		cmd := stringify(call.Args[0])
		if allowed[cmd] || localFunctions[cmd] {
			return true
		}
		violations = append(violations, fmt.Sprintf("%s: unsupported external command: %s", call.Pos(), cmd))
		return true
	})
	return violations
}

func stringify(node syntax.Node) string {
	out := &strings.Builder{}
	syntax.NewPrinter().Print(out, node)
	return out.String()
}
