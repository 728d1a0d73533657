// Package python lowers Python source files into syntax trees using the
// tree-sitter Python grammar.
package python

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	tspython "github.com/alexaandru/go-sitter-forest/python"
	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/codemetrics/pkg/syntax"
)

// ErrParse reports source that the grammar could not parse.
var ErrParse = errors.New("python: syntax error")

var (
	errNoRootNode = errors.New("python: no root node")
	errPoolType   = errors.New("python: pool returned unexpected type")
)

// Parser lowers Python source into syntax trees. It is safe for concurrent
// use; tree-sitter parsers are pooled.
type Parser struct {
	tsParserPool sync.Pool
}

// NewParser creates a Python parser.
func NewParser() *Parser {
	lang := sitter.NewLanguage(tspython.GetLanguage())

	parser := &Parser{}
	parser.tsParserPool = sync.Pool{
		New: func() any {
			tsParser := sitter.NewParser()
			tsParser.SetLanguage(lang)

			return tsParser
		},
	}

	return parser
}

// Extensions returns the file extensions handled by the parser.
func (parser *Parser) Extensions() []string {
	return []string{".py", ".pyi"}
}

// Parse lowers content into a Module node. The module's Path is set to path
// and its Name to the dotted module name derived from it.
func (parser *Parser) Parse(ctx context.Context, path string, content []byte) (*syntax.Node, error) {
	tsParser, ok := parser.tsParserPool.Get().(*sitter.Parser)
	if !ok {
		return nil, errPoolType
	}

	defer parser.tsParserPool.Put(tsParser)

	tree, err := tsParser.ParseString(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("python: failed to parse %s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.IsNull() {
		return nil, errNoRootNode
	}

	if bad, found := firstError(root); found {
		start := bad.StartPoint()

		return nil, fmt.Errorf("%w: %s:%d:%d", ErrParse, path, int(start.Row)+1, int(start.Column)+1)
	}

	lower := &lowerer{source: content}

	module := lower.at(syntax.KindModule, root)
	module.Path = path
	module.Name = ModuleName(path)
	module.AddChildren(syntax.FieldBody, lower.block(root)...)

	return module, nil
}

//nolint:gochecknoglobals // Lazily built shared parser.
var defaultParser = sync.OnceValue(NewParser)

// Parse lowers content with a shared parser.
func Parse(path string, content []byte) (*syntax.Node, error) {
	return defaultParser().Parse(context.Background(), path, content)
}

// ParseString lowers a source snippet that has no file behind it.
func ParseString(source string) (*syntax.Node, error) {
	return Parse("", []byte(source))
}

// ModuleName derives the dotted module name of a file path:
// "pkg/sub/mod.py" becomes "pkg.sub.mod" and a package's "__init__.py"
// names the package itself.
func ModuleName(path string) string {
	if path == "" {
		return ""
	}

	trimmed := filepath.ToSlash(filepath.Clean(path))
	for _, ext := range []string{".py", ".pyi"} {
		trimmed = strings.TrimSuffix(trimmed, ext)
	}

	parts := make([]string, 0, strings.Count(trimmed, "/")+1)

	for part := range strings.SplitSeq(trimmed, "/") {
		if part == "" || part == "." || part == ".." {
			continue
		}

		parts = append(parts, part)
	}

	if len(parts) > 0 && parts[len(parts)-1] == "__init__" {
		parts = parts[:len(parts)-1]
	}

	return strings.Join(parts, ".")
}

// firstError locates the first ERROR or MISSING node of a tree that
// tree-sitter recovered from a syntax error.
func firstError(root sitter.Node) (sitter.Node, bool) {
	if !root.HasError() {
		return sitter.Node{}, false
	}

	if bad, found := findError(root); found {
		return bad, true
	}

	return root, true
}

func findError(tsNode sitter.Node) (sitter.Node, bool) {
	if tsNode.IsError() || tsNode.IsMissing() {
		return tsNode, true
	}

	if !tsNode.HasError() {
		return sitter.Node{}, false
	}

	for idx := range tsNode.ChildCount() {
		if bad, found := findError(tsNode.Child(idx)); found {
			return bad, true
		}
	}

	return sitter.Node{}, false
}
