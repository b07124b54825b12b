// Package mcpfacade exposes the engine's query surface
// (find_definition, find_references, call_hierarchy, definition_chain,
// type_relations, dead_code, complexity, full_reindex, update) as
// Model Context Protocol tools. It is an external client of
// internal/facade, not a core component: it translates tool-call JSON
// into facade.Facade calls and facade results back into
// mcp.CallToolResult values.
package mcpfacade

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/symgraph/engine/internal/facade"
	"github.com/symgraph/engine/internal/symtypes"
)

// Server wraps an mcp.Server registered with the engine's query and
// mutation tools over a single facade.Facade.
type Server struct {
	mcp *mcp.Server
	f   *facade.Facade
}

// NewServer builds the tool set and returns a Server ready to Run.
func NewServer(f *facade.Facade) *Server {
	s := &Server{
		mcp: mcp.NewServer(&mcp.Implementation{
			Name:    "symgraph-mcp-server",
			Version: "0.1.0",
		}, nil),
		f: f,
	}
	s.registerTools()
	return s
}

// Run serves the registered tools over stdio until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	s.mcp.AddTool(&mcp.Tool{
		Name:        "find_definition",
		Description: "Go to the symbol whose range contains a file position.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"file":   {Type: "string", Description: "project-relative file path"},
				"line":   {Type: "integer", Description: "zero-based line"},
				"column": {Type: "integer", Description: "zero-based column"},
			},
			Required: []string{"file", "line", "column"},
		},
	}, s.handleFindDefinition)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "find_references",
		Description: "Find every symbol with an outgoing Reference edge targeting a symbol id.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{"id": {Type: "string"}},
			Required:   []string{"id"},
		},
	}, s.handleFindReferences)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "call_hierarchy",
		Description: "Compute outgoing or incoming calls from a function/method symbol, bounded by depth.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"id":        {Type: "string"},
				"direction": {Type: "string", Description: "\"in\" or \"out\""},
				"max_depth": {Type: "integer"},
			},
			Required: []string{"id", "direction"},
		},
	}, s.handleCallHierarchy)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "definition_chain",
		Description: "Follow Definition edges from a symbol id until the chain ends or cycles.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{"id": {Type: "string"}},
			Required:   []string{"id"},
		},
	}, s.handleDefinitionChain)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "type_relations",
		Description: "Collect users/implementations/extensions/members/methods/type-parameters for a type-like symbol.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"id":    {Type: "string"},
				"depth": {Type: "integer"},
			},
			Required: []string{"id"},
		},
	}, s.handleTypeRelations)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "dead_code",
		Description: "List symbols unreachable from any configured entry point.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, s.handleDeadCode)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "complexity",
		Description: "Cyclomatic/cognitive complexity, fan-in/out, and coupling for a function/method symbol.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{"id": {Type: "string"}},
			Required:   []string{"id"},
		},
	}, s.handleComplexity)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "full_reindex",
		Description: "Clear and rebuild the index from scratch.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, s.handleFullReindex)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "update",
		Description: "Run one incremental re-index cycle: detect changes, extract, apply, persist.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, s.handleUpdate)
}

func createJSONResponse(data any) (*mcp.CallToolResult, error) {
	content, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal mcp response: %w", err)
	}
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: string(content)}}}, nil
}

func createErrorResponse(op string, err error) (*mcp.CallToolResult, error) {
	resp, marshalErr := createJSONResponse(map[string]any{
		"success":   false,
		"operation": op,
		"error":     err.Error(),
	})
	if marshalErr != nil {
		return nil, marshalErr
	}
	resp.IsError = true
	return resp, nil
}

type findDefinitionParams struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

func (s *Server) handleFindDefinition(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p findDefinitionParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return createErrorResponse("find_definition", err)
	}
	sym, ok, err := s.f.FindDefinition(p.File, symtypes.Position{Line: p.Line, Column: p.Column})
	if err != nil {
		return createErrorResponse("find_definition", err)
	}
	if !ok {
		return createJSONResponse(map[string]any{"found": false})
	}
	return createJSONResponse(map[string]any{"found": true, "symbol": sym})
}

type idParams struct {
	ID string `json:"id"`
}

func (s *Server) handleFindReferences(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p idParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return createErrorResponse("find_references", err)
	}
	refs, err := s.f.FindReferences(p.ID)
	if err != nil {
		return createErrorResponse("find_references", err)
	}
	return createJSONResponse(refs)
}

type callHierarchyParams struct {
	ID        string `json:"id"`
	Direction string `json:"direction"`
	MaxDepth  int    `json:"max_depth"`
}

func (s *Server) handleCallHierarchy(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p callHierarchyParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return createErrorResponse("call_hierarchy", err)
	}
	depth := p.MaxDepth
	if depth <= 0 {
		depth = 10
	}
	dir := symtypes.DirOutgoing
	if p.Direction == "in" {
		dir = symtypes.DirIncoming
	}
	tree, err := s.f.CallHierarchy(p.ID, dir, depth)
	if err != nil {
		return createErrorResponse("call_hierarchy", err)
	}
	return createJSONResponse(tree)
}

func (s *Server) handleDefinitionChain(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p idParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return createErrorResponse("definition_chain", err)
	}
	chain, err := s.f.DefinitionChain(p.ID)
	if err != nil {
		return createErrorResponse("definition_chain", err)
	}
	return createJSONResponse(chain)
}

type typeRelationsParams struct {
	ID    string `json:"id"`
	Depth int    `json:"depth"`
}

func (s *Server) handleTypeRelations(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p typeRelationsParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return createErrorResponse("type_relations", err)
	}
	depth := p.Depth
	if depth <= 0 {
		depth = 3
	}
	rel, err := s.f.TypeRelations(p.ID, depth)
	if err != nil {
		return createErrorResponse("type_relations", err)
	}
	return createJSONResponse(rel)
}

func (s *Server) handleDeadCode(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dead, err := s.f.DeadCode()
	if err != nil {
		return createErrorResponse("dead_code", err)
	}
	return createJSONResponse(dead)
}

func (s *Server) handleComplexity(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p idParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return createErrorResponse("complexity", err)
	}
	metrics, err := s.f.Complexity(p.ID)
	if err != nil {
		return createErrorResponse("complexity", err)
	}
	return createJSONResponse(metrics)
}

func (s *Server) handleFullReindex(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.f.FullReindex(ctx)
	if err != nil {
		return createErrorResponse("full_reindex", err)
	}
	return createJSONResponse(result)
}

func (s *Server) handleUpdate(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.f.Update(ctx)
	if err != nil {
		return createErrorResponse("update", err)
	}
	return createJSONResponse(result)
}
