// Package mcpserver exposes the report editor to AI agents over the Model
// Context Protocol: every block mutation, drag transition, section
// operation, table fill and export is a tool.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"reports/internal/blocktree"
	"reports/internal/domain"
	"reports/internal/render"
	"reports/internal/service"
)

// Server is the MCP server for the report editor.
type Server struct {
	mcp      *server.MCPServer
	emitter  EventEmitter
	approval *ApprovalQueue
	log      *log.Logger
	reports  *service.ReportService
	pdf      render.PDFOptions

	mu            sync.Mutex
	activeSection string
}

// Deps holds everything the server needs from the caller.
type Deps struct {
	Emitter     EventEmitter
	Reports     *service.ReportService
	Logger      *log.Logger
	PDF         render.PDFOptions
	Approvals   ApprovalStore // enables cross-process approval
	AutoApprove bool
}

// New creates and configures a new MCP server with all tools, resources and
// prompts.
func New(ctx context.Context, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}
	emitter := deps.Emitter
	if emitter == nil {
		emitter = service.LogEmitter{Logger: logger}
	}
	approval := NewApprovalQueue(ctx, emitter)
	if deps.Approvals != nil {
		approval.SetStore(deps.Approvals)
	}
	approval.SetAutoApprove(deps.AutoApprove)

	s := &Server{
		emitter:  emitter,
		approval: approval,
		log:      logger.WithPrefix("mcp"),
		reports:  deps.Reports,
		pdf:      deps.PDF,
	}

	s.mcp = server.NewMCPServer(
		"reports-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerSectionTools()
	s.registerBlockTools()
	s.registerTableTools()
	s.registerImageTools()
	s.registerDragTools()
	s.registerDataTools()
	s.registerExportTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.log.Info("starting stdio server")
	return server.ServeStdio(s.mcp)
}

// Approve forwards a user approval to the approval queue.
func (s *Server) Approve(actionID string) {
	s.approval.Approve(actionID)
}

// Reject forwards a user rejection to the approval queue.
func (s *Server) Reject(actionID string) {
	s.approval.Reject(actionID)
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// toolError turns addressing failures and refusals into an error result the
// agent can read and recover from. Anything else is a protocol error.
func (s *Server) toolError(op string, err error) (*mcp.CallToolResult, error) {
	if domain.IsLocal(err) {
		s.log.Warn("tool refused", "op", op, "err", err)
		res := textResult(fmt.Sprintf("%s refused (%s): %v", op, domain.KindOf(err), err))
		res.IsError = true
		return res, nil
	}
	return nil, fmt.Errorf("%s: %w", op, err)
}

// treeResult reports the outcome of a block mutation.
func (s *Server) treeResult(op, sectionID string, t *blocktree.Tree, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return s.toolError(op, err)
	}
	return jsonResult(map[string]any{
		"sectionId": sectionID,
		"blocks":    outline(t),
	})
}

// resolveSection returns the sectionId argument or the active section.
func (s *Server) resolveSection(req mcp.CallToolRequest) (string, error) {
	if id := req.GetString("sectionId", ""); id != "" {
		return id, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeSection != "" {
		return s.activeSection, nil
	}
	return "", errors.New("no sectionId provided and no active section set (use set_active_section first)")
}

func (s *Server) setActive(id string) {
	s.mu.Lock()
	s.activeSection = id
	s.mu.Unlock()
}
