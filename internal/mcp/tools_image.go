package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"reports/internal/blocktree"
)

func (s *Server) registerImageTools() {
	s.mcp.AddTool(mcp.NewTool("add_image",
		mcp.WithDescription("Append an empty image slot to an image_grid block, optionally with a source and caption"),
		mcp.WithString("sectionId", mcp.Description("Section ID (optional, defaults to active section)")),
		mcp.WithString("blockId", mcp.Description("Image grid block ID"), mcp.Required()),
		mcp.WithString("src", mcp.Description("Image path or URL (optional)")),
		mcp.WithString("caption", mcp.Description("Caption (optional)")),
	), s.handleAddImage)

	s.mcp.AddTool(mcp.NewTool("remove_image",
		mcp.WithDescription("Remove an image from a grid. The last image cannot be removed."),
		mcp.WithString("sectionId", mcp.Description("Section ID (optional, defaults to active section)")),
		mcp.WithString("blockId", mcp.Description("Image grid block ID"), mcp.Required()),
		mcp.WithString("imageId", mcp.Description("Image ID"), mcp.Required()),
	), s.handleRemoveImage)

	s.mcp.AddTool(mcp.NewTool("update_image",
		mcp.WithDescription("Set an image's source and caption. An empty src clears the slot."),
		mcp.WithString("sectionId", mcp.Description("Section ID (optional, defaults to active section)")),
		mcp.WithString("blockId", mcp.Description("Image grid block ID"), mcp.Required()),
		mcp.WithString("imageId", mcp.Description("Image ID"), mcp.Required()),
		mcp.WithString("src", mcp.Description("Image path or URL")),
		mcp.WithString("caption", mcp.Description("Caption")),
	), s.handleUpdateImage)
}

func optionalSrc(req mcp.CallToolRequest) *string {
	src := req.GetString("src", "")
	if src == "" {
		return nil
	}
	return &src
}

func (s *Server) handleAddImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := s.resolveSection(req)
	if err != nil {
		return nil, err
	}
	blockID, err := requireString(req, "blockId")
	if err != nil {
		return nil, err
	}
	t, imageID, err := s.reports.AddImage(ctx, id, blockID)
	if err != nil {
		return s.toolError("add image", err)
	}
	src, caption := optionalSrc(req), req.GetString("caption", "")
	if src != nil || caption != "" {
		if t, err = s.reports.UpdateImage(ctx, id, blockID, imageID, src, caption); err != nil {
			return s.toolError("update image", err)
		}
	}
	p, _ := t.FindPath(blockID)
	return jsonResult(map[string]any{"blockId": blockID, "imageId": imageID, "path": p.String()})
}

func (s *Server) handleRemoveImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	imageID, err := requireString(req, "imageId")
	if err != nil {
		return nil, err
	}
	return s.blockOp(req, "remove image", func(sec, blk string) (*blocktree.Tree, error) {
		return s.reports.RemoveImage(ctx, sec, blk, imageID)
	})
}

func (s *Server) handleUpdateImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	imageID, err := requireString(req, "imageId")
	if err != nil {
		return nil, err
	}
	src, caption := optionalSrc(req), req.GetString("caption", "")
	return s.blockOp(req, "update image", func(sec, blk string) (*blocktree.Tree, error) {
		return s.reports.UpdateImage(ctx, sec, blk, imageID, src, caption)
	})
}
