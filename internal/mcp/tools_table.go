package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"reports/internal/blocktree"
)

func (s *Server) registerTableTools() {
	s.mcp.AddTool(mcp.NewTool("add_row",
		mcp.WithDescription("Append an empty row to a table block"),
		mcp.WithString("sectionId", mcp.Description("Section ID (optional, defaults to active section)")),
		mcp.WithString("blockId", mcp.Description("Table block ID"), mcp.Required()),
	), s.handleAddRow)

	s.mcp.AddTool(mcp.NewTool("remove_row",
		mcp.WithDescription("Remove a table row. The last remaining row cannot be removed."),
		mcp.WithString("sectionId", mcp.Description("Section ID (optional, defaults to active section)")),
		mcp.WithString("blockId", mcp.Description("Table block ID"), mcp.Required()),
		mcp.WithNumber("row", mcp.Description("Row index, 0 is the header"), mcp.Required()),
	), s.handleRemoveRow)

	s.mcp.AddTool(mcp.NewTool("add_column",
		mcp.WithDescription("Append an empty column to a table block"),
		mcp.WithString("sectionId", mcp.Description("Section ID (optional, defaults to active section)")),
		mcp.WithString("blockId", mcp.Description("Table block ID"), mcp.Required()),
	), s.handleAddColumn)

	s.mcp.AddTool(mcp.NewTool("remove_column",
		mcp.WithDescription("Remove a table column. The last remaining column cannot be removed."),
		mcp.WithString("sectionId", mcp.Description("Section ID (optional, defaults to active section)")),
		mcp.WithString("blockId", mcp.Description("Table block ID"), mcp.Required()),
		mcp.WithNumber("column", mcp.Description("Column index"), mcp.Required()),
	), s.handleRemoveColumn)

	s.mcp.AddTool(mcp.NewTool("set_cell",
		mcp.WithDescription("Set one table cell"),
		mcp.WithString("sectionId", mcp.Description("Section ID (optional, defaults to active section)")),
		mcp.WithString("blockId", mcp.Description("Table block ID"), mcp.Required()),
		mcp.WithNumber("row", mcp.Description("Row index"), mcp.Required()),
		mcp.WithNumber("column", mcp.Description("Column index"), mcp.Required()),
		mcp.WithString("value", mcp.Description("Cell text")),
	), s.handleSetCell)
}

// blockOp resolves the section and block arguments shared by table and
// image tools.
func (s *Server) blockOp(req mcp.CallToolRequest, op string, fn func(sectionID, blockID string) (*blocktree.Tree, error)) (*mcp.CallToolResult, error) {
	id, err := s.resolveSection(req)
	if err != nil {
		return nil, err
	}
	blockID, err := requireString(req, "blockId")
	if err != nil {
		return nil, err
	}
	t, err := fn(id, blockID)
	return s.treeResult(op, id, t, err)
}

func (s *Server) handleAddRow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.blockOp(req, "add row", func(sec, blk string) (*blocktree.Tree, error) {
		return s.reports.AddRow(ctx, sec, blk)
	})
}

func (s *Server) handleRemoveRow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	row, err := requireInt(req, "row")
	if err != nil {
		return nil, err
	}
	return s.blockOp(req, "remove row", func(sec, blk string) (*blocktree.Tree, error) {
		return s.reports.RemoveRow(ctx, sec, blk, row)
	})
}

func (s *Server) handleAddColumn(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.blockOp(req, "add column", func(sec, blk string) (*blocktree.Tree, error) {
		return s.reports.AddColumn(ctx, sec, blk)
	})
}

func (s *Server) handleRemoveColumn(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	col, err := requireInt(req, "column")
	if err != nil {
		return nil, err
	}
	return s.blockOp(req, "remove column", func(sec, blk string) (*blocktree.Tree, error) {
		return s.reports.RemoveColumn(ctx, sec, blk, col)
	})
}

func (s *Server) handleSetCell(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	row, err := requireInt(req, "row")
	if err != nil {
		return nil, err
	}
	col, err := requireInt(req, "column")
	if err != nil {
		return nil, err
	}
	value := req.GetString("value", "")
	return s.blockOp(req, "set cell", func(sec, blk string) (*blocktree.Tree, error) {
		return s.reports.SetCell(ctx, sec, blk, row, col, value)
	})
}
