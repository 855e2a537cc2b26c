package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("draft_section",
		mcp.WithPromptDescription("Guide through drafting a report section with headings, text, tables and photos"),
		mcp.WithArgument("topic",
			mcp.ArgumentDescription("What the section covers"),
			mcp.RequiredArgument(),
		),
	), s.handleDraftSectionPrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("summarize_report",
		mcp.WithPromptDescription("Read every section and write the report conclusion"),
	), s.handleSummarizeReportPrompt)
}

func (s *Server) handleDraftSectionPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	topic := req.Params.Arguments["topic"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Draft a section about: %s", topic),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Draft a report section about "%s". Follow these steps:

1. Use create_section with a short title; it becomes the active section
2. Use get_tree to see the starting layout and its column path
3. Add a subheader, then text blocks with add_block (type text, content as simple HTML paragraphs)
4. For figures, add a table block and fill it with fill_table or set_cell, keeping the first row as the header
5. For photos, add an image_grid block and set each slot with update_image
6. To place two blocks side by side, add a layout block, set {"columns":2} with update_block and add blocks to parent "<layout path>.0" and "<layout path>.1"
7. Reorder with move_block; finish with get_tree to check the structure

Keep paragraphs short and factual.`, topic),
				},
			},
		},
	}, nil
}

func (s *Server) handleSummarizeReportPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Summarize the report into its conclusion",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: `Write the conclusion of this report. Follow these steps:

1. Read report://sections, then read report://section/{id} for each section
2. Use get_block for any text or table you need in full
3. Write three to five sentences covering the main findings and open items
4. Store them with set_report_field (key conclusion)
5. Use export_report with format markdown to review the result`,
				},
			},
		},
	}, nil
}
