package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"reports/internal/domain"
)

func (s *Server) registerDragTools() {
	s.mcp.AddTool(mcp.NewTool("drag_start",
		mcp.WithDescription("Begin dragging a block. Follow with drag_over and drop, or cancel_drag."),
		mcp.WithString("sectionId", mcp.Description("Section ID (optional, defaults to active section)")),
		mcp.WithString("blockId", mcp.Description("Block to drag"), mcp.Required()),
	), s.handleDragStart)

	s.mcp.AddTool(mcp.NewTool("drag_over",
		mcp.WithDescription("Hover a drop target: the path of a block (land before it) or one past the end of a list (append). The last hover wins. "+pathHelp),
		mcp.WithString("sectionId", mcp.Description("Section ID (optional, defaults to active section)")),
		mcp.WithString("path", mcp.Description("Target path"), mcp.Required()),
	), s.handleDragOver)

	s.mcp.AddTool(mcp.NewTool("drop",
		mcp.WithDescription("Drop the dragged block on the hovered target. A target that changed since drag_over aborts the drag."),
		mcp.WithString("sectionId", mcp.Description("Section ID (optional, defaults to active section)")),
	), s.handleDrop)

	s.mcp.AddTool(mcp.NewTool("cancel_drag",
		mcp.WithDescription("Abort the drag in progress"),
		mcp.WithString("sectionId", mcp.Description("Section ID (optional, defaults to active section)")),
	), s.handleCancelDrag)
}

func (s *Server) handleDragStart(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := s.resolveSection(req)
	if err != nil {
		return nil, err
	}
	blockID, err := requireString(req, "blockId")
	if err != nil {
		return nil, err
	}
	if err := s.reports.DragStart(ctx, id, blockID); err != nil {
		return s.toolError("drag start", err)
	}
	return s.dragStateResult(id)
}

func (s *Server) handleDragOver(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := s.resolveSection(req)
	if err != nil {
		return nil, err
	}
	p, err := pathArg(req, "path")
	if err != nil {
		return s.toolError("drag over", domain.Addressing("drag over", err))
	}
	if err := s.reports.DragOver(ctx, id, p); err != nil {
		return s.toolError("drag over", err)
	}
	return s.dragStateResult(id)
}

func (s *Server) handleDrop(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := s.resolveSection(req)
	if err != nil {
		return nil, err
	}
	t, err := s.reports.Drop(ctx, id)
	return s.treeResult("drop", id, t, err)
}

func (s *Server) handleCancelDrag(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := s.resolveSection(req)
	if err != nil {
		return nil, err
	}
	s.reports.CancelDrag(ctx, id)
	return s.dragStateResult(id)
}

func (s *Server) dragStateResult(sectionID string) (*mcp.CallToolResult, error) {
	state, source, target := s.reports.DragState(sectionID)
	return jsonResult(map[string]any{
		"state":  state.String(),
		"source": source,
		"target": target.String(),
	})
}
