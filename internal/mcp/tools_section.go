package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"reports/internal/domain"
)

func (s *Server) registerSectionTools() {
	// ── list_sections ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_sections",
		mcp.WithDescription("List the report's sections in order, with lock state and block counts"),
	), s.handleListSections)

	// ── set_active_section ─────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_active_section",
		mcp.WithDescription("Set the active section for subsequent tool calls. Tools that accept sectionId will default to this."),
		mcp.WithString("sectionId", mcp.Description("ID of the section to make active"), mcp.Required()),
	), s.handleSetActiveSection)

	// ── create_section ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_section",
		mcp.WithDescription("Append a new section holding one empty single-column layout. It becomes the active section."),
		mcp.WithString("title", mcp.Description("Section title (optional)")),
	), s.handleCreateSection)

	// ── delete_section (destructive) ───────────────────
	s.mcp.AddTool(mcp.NewTool("delete_section",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete a section and all its blocks. Locked and fixed sections refuse. Requires user approval."),
		mcp.WithString("sectionId", mcp.Description("Section ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteSection)

	// ── lock_section ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("lock_section",
		mcp.WithDescription("Lock or unlock a section. Locked sections refuse every block change and drag."),
		mcp.WithString("sectionId", mcp.Description("Section ID (optional, defaults to active section)")),
		mcp.WithBoolean("locked", mcp.Description("true to lock, false to unlock"), mcp.Required()),
	), s.handleLockSection)

	// ── set_section_title ──────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_section_title",
		mcp.WithDescription("Rename a section"),
		mcp.WithString("sectionId", mcp.Description("Section ID (optional, defaults to active section)")),
		mcp.WithString("title", mcp.Description("New title"), mcp.Required()),
	), s.handleSetSectionTitle)

	// ── set_report_field ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_report_field",
		mcp.WithDescription("Set a report-level field: title, subtitle, clientName, location, preparedBy or conclusion"),
		mcp.WithString("key", mcp.Description("Field name"), mcp.Required()),
		mcp.WithString("value", mcp.Description("Field value")),
	), s.handleSetReportField)

	// ── reset_report (destructive) ─────────────────────
	s.mcp.AddTool(mcp.NewTool("reset_report",
		mcp.WithDescription("🛑 DESTRUCTIVE: Replace the whole report by the starting template. A checkpoint is saved first. Requires user approval."),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleResetReport)
}

func boolPtr(v bool) *bool { return &v }

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleListSections(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	secs, err := s.reports.ListSections(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResult(secs)
}

func (s *Server) handleSetActiveSection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "sectionId")
	if err != nil {
		return nil, err
	}
	if _, err := s.reports.Tree(ctx, id); err != nil {
		return nil, err
	}
	s.setActive(id)
	return textResult(fmt.Sprintf("Active section set to %s", id)), nil
}

func (s *Server) handleCreateSection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sec, err := s.reports.CreateSection(ctx, req.GetString("title", ""))
	if err != nil {
		return nil, fmt.Errorf("create section: %w", err)
	}
	s.setActive(sec.ID)
	return jsonResult(sec)
}

func (s *Server) handleDeleteSection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "sectionId")
	if err != nil {
		return nil, err
	}
	approved, err := s.approval.Request("delete_section",
		fmt.Sprintf("Delete section %s", id), fmt.Sprintf(`{"sectionId":%q}`, id))
	if err != nil || !approved {
		return textResult("Action rejected by user"), nil
	}
	if err := s.reports.DeleteSection(ctx, id); err != nil {
		return s.toolError("delete section", err)
	}
	s.mu.Lock()
	if s.activeSection == id {
		s.activeSection = ""
	}
	s.mu.Unlock()
	return textResult(fmt.Sprintf("Section %s deleted", id)), nil
}

func (s *Server) handleLockSection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := s.resolveSection(req)
	if err != nil {
		return nil, err
	}
	locked := req.GetBool("locked", true)
	if err := s.reports.SetLocked(ctx, id, locked); err != nil {
		return nil, fmt.Errorf("lock section: %w", err)
	}
	state := "unlocked"
	if locked {
		state = "locked"
	}
	return textResult(fmt.Sprintf("Section %s %s", id, state)), nil
}

func (s *Server) handleSetSectionTitle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := s.resolveSection(req)
	if err != nil {
		return nil, err
	}
	title := req.GetString("title", "")
	if err := s.reports.SetSectionTitle(ctx, id, title); err != nil {
		return s.toolError("set section title", err)
	}
	return textResult(fmt.Sprintf("Section %s renamed to %q", id, title)), nil
}

func (s *Server) handleSetReportField(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := requireString(req, "key")
	if err != nil {
		return nil, err
	}
	if err := s.reports.SetMeta(ctx, key, req.GetString("value", "")); err != nil {
		return nil, fmt.Errorf("set %s (known fields: %v): %w", key, domain.MetaFields, err)
	}
	return textResult(fmt.Sprintf("Report field %s updated", key)), nil
}

func (s *Server) handleResetReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	approved, err := s.approval.Request("reset_report", "Replace the whole report by the starting template")
	if err != nil || !approved {
		return textResult("Action rejected by user"), nil
	}
	if _, err := s.reports.Checkpoint(ctx, "before reset"); err != nil {
		return nil, err
	}
	if err := s.reports.Reset(ctx); err != nil {
		return nil, fmt.Errorf("reset report: %w", err)
	}
	s.setActive("")
	return s.handleListSections(ctx, req)
}
