// Package goregexext is a small, regex-based Go-source extractor: a
// real, runnable collaborator implementing the orchestrator's
// extractor interface so the pipeline and CLI have something to drive
// end-to-end without a full tree-sitter/AST pipeline. It is
// deliberately narrow (one language, declaration-level symbols,
// best-effort call-site references), not a general multi-language
// extractor.
package goregexext

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/symgraph/engine/internal/orchestrator"
	"github.com/symgraph/engine/internal/symtypes"
)

// Extractor implements orchestrator.Extractor for ".go" files using
// line-oriented regular expressions rather than a parser.
//
// Root is the project root. Paths handed to Extract are
// project-relative and resolved against Root at invocation time; the
// emitted symbols keep the relative path so the persisted snapshot
// stays portable.
type Extractor struct {
	Root string
}

var (
	funcDecl   = regexp.MustCompile(`^func\s+(?:\([^)]*\)\s+)?([A-Za-z_]\w*)\s*\(`)
	typeDecl   = regexp.MustCompile(`^type\s+([A-Za-z_]\w*)\s+(struct|interface)\b`)
	typeAlias  = regexp.MustCompile(`^type\s+([A-Za-z_]\w*)\s*=?\s*[A-Za-z\[]`)
	constDecl  = regexp.MustCompile(`^\s*([A-Za-z_]\w*)\s*(?:[A-Za-z_\.\[\]\*]*\s*)?=\s`)
	varBlock   = regexp.MustCompile(`^var\s*\($`)
	constBlock = regexp.MustCompile(`^const\s*\($`)
	callExpr   = regexp.MustCompile(`([A-Za-z_]\w*)\s*\(`)
)

// Extract reads path line by line and emits one Symbol per top-level
// func/type/const/var declaration it recognizes, plus best-effort
// Reference edges from each function body to other symbols in the
// same file whose name appears as a call expression. Output is a pure
// function of file content, so identical input yields identical
// symbols.
func (e Extractor) Extract(ctx context.Context, path, languageHint string) ([]symtypes.Symbol, []orchestrator.ExtractedEdge, error) {
	full := path
	if e.Root != "" && !filepath.IsAbs(path) {
		full = filepath.Join(e.Root, path)
	}
	f, err := os.Open(full)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	var symbols []symtypes.Symbol
	var bodies []fileBody // one per func/method symbol, for the reference pass

	inVarBlock := false
	inConstBlock := false

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	line := 0
	var currentFunc *symtypes.Symbol
	var currentBody strings.Builder
	depth := 0

	flushFunc := func(endLine int) {
		if currentFunc == nil {
			return
		}
		currentFunc.Range.End = symtypes.Position{Line: endLine, Column: 0}
		*currentFunc = currentFunc.Normalize()
		bodies = append(bodies, fileBody{sym: *currentFunc, text: currentBody.String()})
		currentFunc = nil
		currentBody.Reset()
	}

	for scanner.Scan() {
		raw := scanner.Text()
		trimmed := strings.TrimSpace(raw)

		if currentFunc != nil {
			currentBody.WriteString(raw)
			currentBody.WriteByte('\n')
			depth += strings.Count(raw, "{") - strings.Count(raw, "}")
			if depth <= 0 {
				flushFunc(line)
			}
			line++
			continue
		}

		switch {
		case inVarBlock || inConstBlock:
			if trimmed == ")" {
				inVarBlock, inConstBlock = false, false
				break
			}
			if m := constDecl.FindStringSubmatch(trimmed); m != nil {
				kind := symtypes.KindVariable
				if inConstBlock {
					kind = symtypes.KindConstant
				}
				symbols = append(symbols, declSymbol(path, line, m[1], kind))
			}
		case funcDecl.MatchString(trimmed):
			m := funcDecl.FindStringSubmatch(trimmed)
			sym := declSymbol(path, line, m[1], symtypes.KindFunction)
			if strings.HasPrefix(trimmed, "func (") {
				sym.Kind = symtypes.KindMethod
			}
			currentFunc = &sym
			depth = strings.Count(raw, "{") - strings.Count(raw, "}")
			if depth <= 0 && strings.Contains(raw, "{") && strings.Contains(raw, "}") {
				flushFunc(line)
			}
		case typeDecl.MatchString(trimmed):
			m := typeDecl.FindStringSubmatch(trimmed)
			kind := symtypes.KindStruct
			if m[2] == "interface" {
				kind = symtypes.KindInterface
			}
			symbols = append(symbols, declSymbol(path, line, m[1], kind))
		case typeAlias.MatchString(trimmed) && !typeDecl.MatchString(trimmed):
			m := typeAlias.FindStringSubmatch(trimmed)
			symbols = append(symbols, declSymbol(path, line, m[1], symtypes.KindTypeAlias))
		case varBlock.MatchString(trimmed):
			inVarBlock = true
		case constBlock.MatchString(trimmed):
			inConstBlock = true
		}

		line++
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	flushFunc(line)

	for _, b := range bodies {
		symbols = append(symbols, b.sym)
	}

	edges := referenceEdges(symbols, bodies)
	return symbols, edges, nil
}

type fileBody struct {
	sym  symtypes.Symbol
	text string
}

func declSymbol(path string, line int, name string, kind symtypes.SymbolKind) symtypes.Symbol {
	s := symtypes.Symbol{
		Kind:     kind,
		Name:     name,
		FilePath: path,
		Range: symtypes.NewRange(
			symtypes.Position{Line: line, Column: 0},
			symtypes.Position{Line: line + 1, Column: 0},
		),
	}
	return s.Normalize()
}

// referenceEdges scans each function/method body for call expressions
// whose callee name matches another symbol declared in the same file,
// emitting an EdgeReference from the enclosing function to the callee.
func referenceEdges(symbols []symtypes.Symbol, bodies []fileBody) []orchestrator.ExtractedEdge {
	byName := make(map[string][]symtypes.Symbol)
	for _, s := range symbols {
		byName[s.Name] = append(byName[s.Name], s)
	}

	var edges []orchestrator.ExtractedEdge
	for _, b := range bodies {
		seen := make(map[string]bool)
		for _, m := range callExpr.FindAllStringSubmatch(b.text, -1) {
			name := m[1]
			if name == b.sym.Name || seen[name] {
				continue
			}
			targets, ok := byName[name]
			if !ok {
				continue
			}
			seen[name] = true
			for _, t := range targets {
				edges = append(edges, orchestrator.ExtractedEdge{
					FromID: b.sym.ID,
					ToID:   t.ID,
					Kind:   symtypes.EdgeReference,
				})
			}
		}
	}
	return edges
}
