package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"reports/internal/dataset"
	"reports/internal/dataset/sources"
	"reports/internal/service"
)

const transformHelp = `Optional JSON array of transforms applied in order. Each has {type, config}:
- filter: {field, op (eq|neq|gt|lt|contains), value}
- rename: {mapping: {oldName: newName}}
- dedupe: {key}
- sort: {field, direction (asc|desc)}
Example: [{"type":"filter","config":{"field":"status","op":"eq","value":"open"}}]`

func (s *Server) registerDataTools() {
	s.mcp.AddTool(mcp.NewTool("list_sources",
		mcp.WithDescription("List the dataset source types a table can be filled from, with their configuration fields"),
	), s.handleListSources)

	s.mcp.AddTool(mcp.NewTool("preview_source",
		mcp.WithDescription("Read a dataset source and return the rows without changing the report"),
		mcp.WithString("sourceType", mcp.Description("Source type (see list_sources)"), mcp.Required()),
		mcp.WithString("config", mcp.Description("Source configuration as JSON"), mcp.Required()),
		mcp.WithString("columns", mcp.Description(`Optional JSON array of columns to keep, in order`)),
		mcp.WithNumber("limit", mcp.Description("Maximum data rows (default 200)")),
		mcp.WithString("transforms", mcp.Description(transformHelp)),
	), s.handlePreviewSource)

	s.mcp.AddTool(mcp.NewTool("fill_table",
		mcp.WithDescription("Replace a table block's cells by a header row plus rows read from a dataset source"),
		mcp.WithString("sectionId", mcp.Description("Section ID (optional, defaults to active section)")),
		mcp.WithString("blockId", mcp.Description("Table block ID"), mcp.Required()),
		mcp.WithString("sourceType", mcp.Description("Source type (see list_sources)"), mcp.Required()),
		mcp.WithString("config", mcp.Description("Source configuration as JSON"), mcp.Required()),
		mcp.WithString("columns", mcp.Description(`Optional JSON array of columns to keep, in order`)),
		mcp.WithNumber("limit", mcp.Description("Maximum data rows (default 200)")),
		mcp.WithString("transforms", mcp.Description(transformHelp)),
	), s.handleFillTable)

	s.mcp.AddTool(mcp.NewTool("describe_connection",
		mcp.WithDescription("List the tables and columns of a configured database connection, for writing database source queries"),
		mcp.WithString("connection", mcp.Description("Connection name from the config file"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleDescribeConnection)
}

// jsonArg accepts an argument sent either as a JSON string or as raw JSON.
func jsonArg(args map[string]any, key string, target any) error {
	switch v := args[key].(type) {
	case nil:
		return nil
	case string:
		if v == "" {
			return nil
		}
		return parseJSON(v, target)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return json.Unmarshal(b, target)
	}
}

func fillInput(req mcp.CallToolRequest) (service.FillTableInput, error) {
	args := req.GetArguments()
	in := service.FillTableInput{SourceType: req.GetString("sourceType", "")}
	if in.SourceType == "" {
		return in, fmt.Errorf("sourceType is required")
	}
	if err := jsonArg(args, "config", &in.Config); err != nil {
		return in, fmt.Errorf("invalid config: %w", err)
	}
	if err := jsonArg(args, "columns", &in.Options.Columns); err != nil {
		return in, fmt.Errorf("invalid columns: %w", err)
	}
	if err := jsonArg(args, "transforms", &in.Options.Transforms); err != nil {
		return in, fmt.Errorf("invalid transforms: %w", err)
	}
	in.Options.Limit = getInt(args, "limit", 0)
	return in, nil
}

func (s *Server) handleListSources(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.reports.ListSources())
}

func (s *Server) handlePreviewSource(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in, err := fillInput(req)
	if err != nil {
		return nil, err
	}
	frame, err := dataset.Collect(ctx, in.SourceType, in.Config, in.Options)
	if err != nil {
		return nil, fmt.Errorf("preview source: %w", err)
	}
	return jsonResult(frame)
}

func (s *Server) handleFillTable(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := s.resolveSection(req)
	if err != nil {
		return nil, err
	}
	blockID, err := requireString(req, "blockId")
	if err != nil {
		return nil, err
	}
	in, err := fillInput(req)
	if err != nil {
		return nil, err
	}
	_, frame, err := s.reports.FillTable(ctx, id, blockID, in)
	if err != nil {
		return s.toolError("fill table", err)
	}
	return jsonResult(map[string]any{
		"blockId":   blockID,
		"columns":   frame.Columns,
		"rows":      len(frame.Rows),
		"truncated": frame.Truncated,
	})
}

func (s *Server) handleDescribeConnection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := requireString(req, "connection")
	if err != nil {
		return nil, err
	}
	schema, err := sources.Describe(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("describe connection: %w", err)
	}
	return jsonResult(schema)
}
