package mcpserver

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"reports/internal/service"
)

func (s *Server) registerExportTools() {
	s.mcp.AddTool(mcp.NewTool("export_report",
		mcp.WithDescription("Render the whole report without editor controls. Returns the text, or writes a file when path is set. PDF always needs a path."),
		mcp.WithString("format", mcp.Description("markdown, pdf, json or preview"), mcp.Required()),
		mcp.WithString("path", mcp.Description("Output file (optional)")),
	), s.handleExportReport)

	s.mcp.AddTool(mcp.NewTool("save_checkpoint",
		mcp.WithDescription("Store a snapshot of the whole report"),
		mcp.WithString("label", mcp.Description("Label (optional)")),
	), s.handleSaveCheckpoint)

	s.mcp.AddTool(mcp.NewTool("list_checkpoints",
		mcp.WithDescription("List stored report snapshots, newest first"),
	), s.handleListCheckpoints)

	s.mcp.AddTool(mcp.NewTool("restore_checkpoint",
		mcp.WithDescription("🛑 DESTRUCTIVE: Replace the whole report by a snapshot. The current report is saved as a checkpoint first. Requires user approval."),
		mcp.WithString("checkpointId", mcp.Description("Checkpoint ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleRestoreCheckpoint)
}

func (s *Server) handleExportReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	format, err := service.ParseFormat(req.GetString("format", ""))
	if err != nil {
		return nil, err
	}
	path := req.GetString("path", "")
	if format == service.FormatPDF && path == "" {
		return nil, fmt.Errorf("pdf export needs a path")
	}

	var buf bytes.Buffer
	if err := s.reports.Export(ctx, &buf, format, service.ExportOptions{PDF: s.pdf}); err != nil {
		return nil, fmt.Errorf("export report: %w", err)
	}
	if path == "" {
		return textResult(buf.String()), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return nil, fmt.Errorf("write export: %w", err)
	}
	s.log.Info("report exported", "format", format, "path", path, "bytes", buf.Len())
	return textResult(fmt.Sprintf("Wrote %s (%d bytes)", path, buf.Len())), nil
}

func (s *Server) handleSaveCheckpoint(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, err := s.reports.Checkpoint(ctx, req.GetString("label", "mcp"))
	if err != nil {
		return nil, fmt.Errorf("save checkpoint: %w", err)
	}
	return jsonResult(c)
}

func (s *Server) handleListCheckpoints(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.reports.ListCheckpoints(ctx)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	return jsonResult(list)
}

func (s *Server) handleRestoreCheckpoint(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "checkpointId")
	if err != nil {
		return nil, err
	}
	approved, err := s.approval.Request("restore_checkpoint",
		fmt.Sprintf("Replace the report by checkpoint %s", id), fmt.Sprintf(`{"checkpointId":%q}`, id))
	if err != nil || !approved {
		return textResult("Action rejected by user"), nil
	}
	if err := s.reports.RestoreCheckpoint(ctx, id); err != nil {
		return nil, fmt.Errorf("restore checkpoint: %w", err)
	}
	s.setActive("")
	return textResult(fmt.Sprintf("Report restored from checkpoint %s", id)), nil
}
