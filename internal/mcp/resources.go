package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const sectionURIPrefix = "report://section/"

func (s *Server) registerResources() {
	// ── report://sections ──────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		"report://sections",
		"Report Sections",
		mcp.WithMIMEType("application/json"),
	), s.handleSectionsResource)

	// ── report://section/{sectionId} ───────────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			sectionURIPrefix+"{sectionId}",
			"Blocks of a Section",
		),
		s.handleSectionResource,
	)
}

func (s *Server) handleSectionsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	secs, err := s.reports.ListSections(ctx)
	if err != nil {
		return nil, err
	}
	data, _ := json.MarshalIndent(secs, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "report://sections",
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleSectionResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	id := sectionIDFromURI(uri)
	if id == "" {
		return nil, fmt.Errorf("could not extract sectionId from URI: %s", uri)
	}
	t, err := s.reports.Tree(ctx, id)
	if err != nil {
		return nil, err
	}
	data, _ := json.MarshalIndent(outline(t), "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// sectionIDFromURI extracts the id from "report://section/{id}".
func sectionIDFromURI(uri string) string {
	id, ok := strings.CutPrefix(uri, sectionURIPrefix)
	if !ok || strings.Contains(id, "/") {
		return ""
	}
	return id
}
