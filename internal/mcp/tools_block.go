package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"reports/internal/domain"
)

const pathHelp = `Paths are dot-separated indices: "2" is the third root block, "2.1.0" is the first block in column 1 of the layout at "2".`

func (s *Server) registerBlockTools() {
	// ── get_tree ───────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_tree",
		mcp.WithDescription("Outline a section's block tree: ids, types, paths and a short summary per block. "+pathHelp),
		mcp.WithString("sectionId", mcp.Description("Section ID (optional, defaults to active section)")),
	), s.handleGetTree)

	// ── get_block ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_block",
		mcp.WithDescription("Return one block in full, by id or by path"),
		mcp.WithString("sectionId", mcp.Description("Section ID (optional, defaults to active section)")),
		mcp.WithString("blockId", mcp.Description("Block ID")),
		mcp.WithString("path", mcp.Description("Block path, used when blockId is omitted")),
	), s.handleGetBlock)

	// ── find_path ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("find_path",
		mcp.WithDescription("Return the current path of a block"),
		mcp.WithString("sectionId", mcp.Description("Section ID (optional, defaults to active section)")),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
	), s.handleFindPath)

	// ── add_block ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_block",
		mcp.WithDescription("Append a new block to the root list or to a layout column. "+pathHelp),
		mcp.WithString("sectionId", mcp.Description("Section ID (optional, defaults to active section)")),
		mcp.WithString("type", mcp.Description("Block type: text, subheader, image_grid, table, layout"), mcp.Required()),
		mcp.WithString("parent", mcp.Description(`Column path such as "0.1" (column 1 of the layout at 0). Omit for the root list.`)),
		mcp.WithString("content", mcp.Description("Initial content for text and subheader blocks (optional)")),
	), s.handleAddBlock)

	// ── update_block ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_block",
		mcp.WithDescription(`Apply a partial update to a block. The patch may set only fields the block owns: content (text, subheader), images and gridColumns (image_grid), cells (table), columns 1-3 (layout).`),
		mcp.WithString("sectionId", mcp.Description("Section ID (optional, defaults to active section)")),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("patch", mcp.Description(`JSON object, e.g. {"content":"<p>Hi</p>"} or {"columns":2}`), mcp.Required()),
	), s.handleUpdateBlock)

	// ── delete_block ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_block",
		mcp.WithDescription("Delete a block. Deleting a layout removes everything inside it."),
		mcp.WithString("sectionId", mcp.Description("Section ID (optional, defaults to active section)")),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
	), s.handleDeleteBlock)

	// ── move_block ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_block",
		mcp.WithDescription("Move a block so it lands before the block at target. An index equal to the list length appends. "+pathHelp),
		mcp.WithString("sectionId", mcp.Description("Section ID (optional, defaults to active section)")),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("target", mcp.Description("Target path"), mcp.Required()),
	), s.handleMoveBlock)
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleGetTree(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := s.resolveSection(req)
	if err != nil {
		return nil, err
	}
	t, err := s.reports.Tree(ctx, id)
	return s.treeResult("get tree", id, t, err)
}

func (s *Server) handleGetBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := s.resolveSection(req)
	if err != nil {
		return nil, err
	}
	t, err := s.reports.Tree(ctx, id)
	if err != nil {
		return nil, err
	}

	var (
		b  domain.Block
		ok bool
	)
	if blockID := req.GetString("blockId", ""); blockID != "" {
		b, ok = t.GetByID(blockID)
	} else {
		p, err := pathArg(req, "path")
		if err != nil {
			return s.toolError("get block", domain.Addressing("get block", err))
		}
		b, ok = t.Get(p)
	}
	if !ok {
		return s.toolError("get block", domain.Addressing("get block", domain.ErrBlockNotFound))
	}
	data, err := domain.MarshalBlock(b)
	if err != nil {
		return nil, err
	}
	p, _ := t.FindPath(b.BlockID())
	return jsonResult(blockNode{ID: b.BlockID(), Type: string(b.Type()), Path: p.String(), Block: data})
}

func (s *Server) handleFindPath(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := s.resolveSection(req)
	if err != nil {
		return nil, err
	}
	blockID, err := requireString(req, "blockId")
	if err != nil {
		return nil, err
	}
	t, err := s.reports.Tree(ctx, id)
	if err != nil {
		return nil, err
	}
	p, ok := t.FindPath(blockID)
	if !ok {
		return s.toolError("find path", domain.Addressing("find path", fmt.Errorf("%w: %s", domain.ErrBlockNotFound, blockID)))
	}
	return textResult(p.String()), nil
}

func (s *Server) handleAddBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := s.resolveSection(req)
	if err != nil {
		return nil, err
	}
	bt, err := requireString(req, "type")
	if err != nil {
		return nil, err
	}
	parent, err := pathArg(req, "parent")
	if err != nil {
		return s.toolError("add block", domain.Addressing("add block", err))
	}

	t, blockID, err := s.reports.AddBlock(ctx, id, domain.BlockType(bt), parent)
	if err != nil {
		return s.toolError("add block", err)
	}
	if content := req.GetString("content", ""); content != "" {
		t, err = s.reports.UpdateBlock(ctx, id, blockID, domain.Patch{Content: &content})
		if err != nil {
			return s.toolError("set content", err)
		}
	}
	p, _ := t.FindPath(blockID)
	return jsonResult(map[string]any{"blockId": blockID, "path": p.String()})
}

func (s *Server) handleUpdateBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := s.resolveSection(req)
	if err != nil {
		return nil, err
	}
	blockID, err := requireString(req, "blockId")
	if err != nil {
		return nil, err
	}
	var patch domain.Patch
	if err := parseJSON(req.GetString("patch", ""), &patch); err != nil {
		return nil, fmt.Errorf("invalid patch: %w", err)
	}
	t, err := s.reports.UpdateBlock(ctx, id, blockID, patch)
	return s.treeResult("update block", id, t, err)
}

func (s *Server) handleDeleteBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := s.resolveSection(req)
	if err != nil {
		return nil, err
	}
	blockID, err := requireString(req, "blockId")
	if err != nil {
		return nil, err
	}
	t, err := s.reports.DeleteBlock(ctx, id, blockID)
	return s.treeResult("delete block", id, t, err)
}

func (s *Server) handleMoveBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := s.resolveSection(req)
	if err != nil {
		return nil, err
	}
	blockID, err := requireString(req, "blockId")
	if err != nil {
		return nil, err
	}
	target, err := pathArg(req, "target")
	if err != nil || target == nil {
		return s.toolError("move block", domain.Addressing("move block", domain.ErrInvalidPath))
	}
	t, err := s.reports.MoveBlock(ctx, id, blockID, target)
	return s.treeResult("move block", id, t, err)
}
