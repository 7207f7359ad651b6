package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/kgraph-dev/kgindex/internal/graph"
	"github.com/kgraph-dev/kgindex/internal/rangeintern"
)

// definitionCaptures is the capability table spec.md §9 asks for: rather
// than one bespoke extraction function per language, a single dispatch
// loop recognizes this fixed set of capture names and treats any of them
// as a definition. Which subset a given language's query actually emits
// is the per-language grammar's concern (grammars.go); this loop doesn't
// need to know which languages use "getter" vs "property".
var definitionCaptures = map[string]bool{
	"function": true, "method": true, "class": true, "interface": true,
	"struct": true, "enum": true, "enum_entry": true, "constructor": true,
	"property": true, "field": true, "getter": true, "setter": true,
	"lambda": true, "object": true, "constant": true, "trait": true,
	"closure": true, "arrow_lambda": true, "data_class": true,
	"value_class": true, "annotation_class": true, "extension_function": true,
	"extension_method": true, "record": true,
}

func nodeRange(n *sitter.Node) rangeintern.Range {
	start := n.StartPosition()
	end := n.EndPosition()
	return rangeintern.Range{
		StartByte: uint32(n.StartByte()),
		EndByte:   uint32(n.EndByte()),
		StartLine: uint32(start.Row),
		StartCol:  uint32(start.Column),
		EndLine:   uint32(end.Row),
		EndCol:    uint32(end.Column),
	}
}

func nodeText(n *sitter.Node, content []byte) string {
	start, end := n.StartByte(), n.EndByte()
	if start > uint(len(content)) || end > uint(len(content)) || start > end {
		return ""
	}
	return string(content[start:end])
}

// stripQuotes removes a single layer of matching quote characters from a
// string-literal capture, e.g. Go's interpreted_string_literal or JS's
// string node, both of which include the quotes in their text.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') || (first == '`' && last == '`') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// Parse runs lang's registered grammar and query over content and returns
// every definition, import and call capture found. Parse returns
// (nil, false) for an unsupported language — the caller (C7's parse
// phase) still records the FileNode, it just has nothing to analyze.
func Parse(lang graph.Language, content []byte) (*FileProcessingResult, bool) {
	p := ParserFor(lang)
	q := queryFor(lang)
	if p == nil || q == nil {
		return nil, false
	}
	defer p.Close()

	tree := p.Parse(content, nil)
	if tree == nil {
		return nil, false
	}
	defer tree.Close()

	root := tree.RootNode()
	qc := sitter.NewQueryCursor()
	defer qc.Close()

	matches := qc.Matches(q, root, content)
	captureNames := q.CaptureNames()

	result := &FileProcessingResult{}

	for {
		match := matches.Next()
		if match == nil {
			break
		}

		names := make(map[string]string, 4)
		for _, c := range match.Captures {
			name := captureNames[c.Index]
			if strings.HasSuffix(name, ".name") || strings.HasSuffix(name, ".path") ||
				strings.HasSuffix(name, ".callee") || strings.HasSuffix(name, ".receiver") {
				node := c.Node
				names[name] = nodeText(&node, content)
			}
		}

		for _, c := range match.Captures {
			node := c.Node
			capture := captureNames[c.Index]

			switch {
			case capture == "import":
				path := firstNonEmpty(names, capture+".path")
				if path == "" {
					path = nodeText(&node, content)
				}
				result.Imports = append(result.Imports, RawImport{
					Path:  stripQuotes(path),
					Range: nodeRange(&node),
				})

			case capture == "call":
				result.References = append(result.References, RawReference{
					Callee: firstNonEmpty(names, capture+".callee"),
					Range:  nodeRange(&node),
				})

			case definitionCaptures[capture]:
				name := firstNonEmpty(names, capture+".name")
				result.Definitions = append(result.Definitions, RawDefinition{
					Kind:         capture,
					Name:         name,
					Range:        nodeRange(&node),
					ReceiverText: firstNonEmpty(names, capture+".receiver"),
				})
			}
		}
	}

	return result, true
}

func firstNonEmpty(m map[string]string, key string) string {
	if m == nil {
		return ""
	}
	return m[key]
}
