package matchers

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/tobiasbaum/reviewtool-sub002/internal/bundle"
	"github.com/tobiasbaum/reviewtool-sub002/internal/changepart"
	"github.com/tobiasbaum/reviewtool-sub002/internal/ordering"
	"github.com/tobiasbaum/reviewtool-sub002/internal/position"
)

// minNameLength skips names too short to identify a use reliably.
const minNameLength = 3

type language struct {
	grammar *sitter.Language
	decls   map[string]bool
}

var languages = map[string]language{
	".go": {
		grammar: golang.GetLanguage(),
		decls: map[string]bool{
			"function_declaration": true,
			"method_declaration":   true,
			"type_spec":            true,
		},
	},
	".java": {
		grammar: java.GetLanguage(),
		decls: map[string]bool{
			"class_declaration":       true,
			"interface_declaration":   true,
			"enum_declaration":        true,
			"record_declaration":      true,
			"method_declaration":      true,
			"constructor_declaration": true,
		},
	},
	".py": {
		grammar: python.GetLanguage(),
		decls: map[string]bool{
			"function_definition": true,
			"class_definition":    true,
		},
	},
}

// declaration is a named declaration spanning [start, end] (1-based).
type declaration struct {
	name       string
	start, end int
}

// Declaration links a part that changes a declaration with the parts that
// mention the declared name. The declaring part is the center of the group
// and is requested to come first.
type Declaration struct {
	src    changepart.ContentSource
	logger *slog.Logger
}

// NewDeclaration returns a declaration matcher that reads file content from
// src.
func NewDeclaration(src changepart.ContentSource, logger *slog.Logger) *Declaration {
	if logger == nil {
		logger = slog.Default()
	}
	return &Declaration{src: src, logger: logger}
}

func (m *Declaration) Name() string { return "declaration" }

func (m *Declaration) Match(ctx context.Context, parts []Part) ([]Match, error) {
	if m.src == nil {
		return nil, nil
	}
	paths, groups := byPath(parts)
	var out []Match
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lang, ok := languages[path.Ext(p)]
		if !ok {
			continue
		}
		decls, err := m.declarations(ctx, p, lang)
		if err != nil {
			m.logger.Warn("Skipping file for declaration matching", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		for _, part := range groups[p] {
			for _, d := range changedDeclarations(part, decls) {
				if mt, ok := usesOf(d, part, parts); ok {
					out = append(out, mt)
				}
			}
		}
	}
	return out, nil
}

func (m *Declaration) declarations(ctx context.Context, p string, lang language) ([]declaration, error) {
	content, err := m.src.Content(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}
	parser := sitter.NewParser()
	parser.SetLanguage(lang.grammar)
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	defer tree.Close()

	var decls []declaration
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if lang.decls[n.Type()] {
			if name := n.ChildByFieldName("name"); name != nil {
				decls = append(decls, declaration{
					name:  name.Content(content),
					start: int(n.StartPoint().Row) + 1,
					end:   int(n.EndPoint().Row) + 1,
				})
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(tree.RootNode())
	return decls, nil
}

// changedDeclarations returns, per fragment of part, the innermost
// declaration overlapping it.
func changedDeclarations(part Part, decls []declaration) []declaration {
	var out []declaration
	seen := make(map[string]bool)
	for _, f := range part.Fragments {
		lo, hi := f.StartLine, max(f.EndLine, f.StartLine)
		if f.IsDeletion() {
			lo = f.LastLine()
		}
		best := -1
		for i, d := range decls {
			if d.end < lo || d.start > hi {
				continue
			}
			if best < 0 || d.end-d.start < decls[best].end-decls[best].start {
				best = i
			}
		}
		if best >= 0 && !seen[decls[best].name] {
			seen[decls[best].name] = true
			out = append(out, decls[best])
		}
	}
	return out
}

// usesOf builds the star match of the declaring part and every other part
// whose changed lines mention the declared name.
func usesOf(d declaration, decl Part, parts []Part) (Match, bool) {
	if len(d.name) < minNameLength {
		return Match{}, false
	}
	items := []Part{decl}
	for _, p := range parts {
		if p != decl && mentions(p.Lines(), d.name) {
			items = append(items, p)
		}
	}
	if len(items) < 2 {
		return Match{}, false
	}
	set := ordering.NewStarMatchSet(decl, items[1:]...)
	return Match{
		Set: set,
		Positions: []ordering.PositionRequest[Part]{{
			Set:    bundle.NewSet(items...),
			Item:   decl,
			Anchor: position.First,
		}},
		Description: d.name + " and its uses",
	}, true
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func mentions(lines []string, name string) bool {
	for _, l := range lines {
		for _, tok := range strings.FieldsFunc(l, func(r rune) bool { return !isIdentRune(r) }) {
			if tok == name {
				return true
			}
		}
	}
	return false
}
