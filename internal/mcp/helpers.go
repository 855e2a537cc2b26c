package mcpserver

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"reports/internal/blocktree"
	"reports/internal/domain"
)

// parseJSON parses a JSON string into the target type.
func parseJSON(data string, target any) error {
	return json.Unmarshal([]byte(data), target)
}

func getFloat(args map[string]any, key string, fallback float64) float64 {
	if v, ok := args[key].(float64); ok {
		return v
	}
	return fallback
}

// getInt reads a numeric argument. JSON numbers arrive as float64.
func getInt(args map[string]any, key string, fallback int) int {
	return int(getFloat(args, key, float64(fallback)))
}

func requireInt(req mcp.CallToolRequest, key string) (int, error) {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return 0, fmt.Errorf("%s is required", key)
	}
	return int(v), nil
}

func requireString(req mcp.CallToolRequest, key string) (string, error) {
	v := req.GetString(key, "")
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

// pathArg reads a path given as "0.1.2" or as a JSON array of indices.
func pathArg(req mcp.CallToolRequest, key string) (domain.Path, error) {
	switch v := req.GetArguments()[key].(type) {
	case nil:
		return nil, nil
	case string:
		return domain.ParsePath(v)
	case []any:
		p := make(domain.Path, len(v))
		for i, x := range v {
			f, ok := x.(float64)
			if !ok || f < 0 {
				return nil, fmt.Errorf("%s: %w", key, domain.ErrInvalidPath)
			}
			p[i] = int(f)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%s: unsupported path %T", key, v)
	}
}

// blockNode is the outline form of a block returned to agents.
type blockNode struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Path    string          `json:"path"`
	Summary string          `json:"summary,omitempty"`
	Columns [][]blockNode   `json:"columns,omitempty"`
	Block   json.RawMessage `json:"block,omitempty"`
}

// outline lists the tree's blocks with their paths and a short summary.
func outline(t *blocktree.Tree) []blockNode {
	return outlineList(domain.Path{}, t.Blocks())
}

func outlineList(slot domain.Path, list []domain.Block) []blockNode {
	out := make([]blockNode, 0, len(list))
	for i, b := range list {
		p := slot.At(i)
		n := blockNode{ID: b.BlockID(), Type: string(b.Type()), Path: p.String(), Summary: summarize(b)}
		if l, ok := b.(*domain.Layout); ok {
			for j, col := range l.Children {
				n.Columns = append(n.Columns, outlineList(p.Column(j), col))
			}
		}
		out = append(out, n)
	}
	return out
}

func summarize(b domain.Block) string {
	switch b := b.(type) {
	case *domain.Text:
		return truncate(b.Content, 80)
	case *domain.Subheader:
		return truncate(b.Content, 80)
	case *domain.ImageGrid:
		return fmt.Sprintf("%d images, %d per row", len(b.Images), b.Columns)
	case *domain.Table:
		return fmt.Sprintf("%dx%d table", b.Rows(), b.Cols())
	case *domain.Layout:
		return fmt.Sprintf("%d columns", b.Columns)
	}
	return ""
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
