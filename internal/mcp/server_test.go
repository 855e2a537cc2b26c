package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"
	"github.com/mark3labs/mcp-go/mcp"

	"reports/internal/service"
	"reports/internal/storage"
)

func newTestServer(t *testing.T, auto bool) (*Server, *service.MockEmitter) {
	t.Helper()
	mem := storage.NewMemory()
	emitter := &service.MockEmitter{}
	logger := log.New(io.Discard)
	svc := service.NewReportService(service.Stores{Fields: mem, Sections: mem, Checkpoints: mem}, emitter, logger)
	s := New(context.Background(), Deps{Emitter: emitter, Reports: svc, Logger: logger, AutoApprove: auto})
	return s, emitter
}

func call(t *testing.T, fn func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) *mcp.CallToolResult {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := fn(context.Background(), req)
	if err != nil {
		t.Fatalf("tool error: %v", err)
	}
	return res
}

func resultText(res *mcp.CallToolResult) string {
	var b strings.Builder
	for _, c := range res.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

func decode[T any](t *testing.T, res *mcp.CallToolResult) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(resultText(res)), &v); err != nil {
		t.Fatalf("decode %q: %v", resultText(res), err)
	}
	return v
}

type treeResponse struct {
	SectionID string      `json:"sectionId"`
	Blocks    []blockNode `json:"blocks"`
}

func TestBuildSectionThroughTools(t *testing.T) {
	s, _ := newTestServer(t, true)

	sec := decode[service.SectionSummary](t, call(t, s.handleCreateSection, map[string]any{"title": "Findings"}))
	if sec.Title != "Findings" {
		t.Fatalf("section = %+v", sec)
	}

	// The new section holds one layout at path 0; add into its column.
	added := decode[map[string]string](t, call(t, s.handleAddBlock, map[string]any{
		"type": "text", "parent": "0.0", "content": "<p>Leak at valve 3</p>",
	}))
	if added["path"] != "0.0.0" {
		t.Errorf("added path = %q", added["path"])
	}
	call(t, s.handleAddBlock, map[string]any{"type": "subheader"})

	// Drag the text out of the layout to the end of the root list.
	call(t, s.handleDragStart, map[string]any{"blockId": added["blockId"]})
	state := decode[map[string]string](t, call(t, s.handleDragOver, map[string]any{"path": []any{2.0}}))
	if state["state"] != "armed" {
		t.Fatalf("drag state = %v", state)
	}
	tree := decode[treeResponse](t, call(t, s.handleDrop, nil))

	var types []string
	for _, n := range tree.Blocks {
		types = append(types, n.Type)
	}
	if diff := cmp.Diff([]string{"layout", "subheader", "text"}, types); diff != "" {
		t.Errorf("root types (-want +got):\n%s", diff)
	}
	if tree.Blocks[2].Summary != "<p>Leak at valve 3</p>" || len(tree.Blocks[0].Columns[0]) != 0 {
		t.Errorf("tree = %+v", tree.Blocks)
	}

	path := call(t, s.handleFindPath, map[string]any{"blockId": added["blockId"]})
	if resultText(path) != "2" {
		t.Errorf("find_path = %q", resultText(path))
	}
}

func TestRefusalsAreToolErrors(t *testing.T) {
	s, _ := newTestServer(t, true)
	call(t, s.handleCreateSection, nil)
	added := decode[map[string]string](t, call(t, s.handleAddBlock, map[string]any{"type": "table"}))

	res := call(t, s.handleRemoveColumn, map[string]any{"blockId": added["blockId"], "column": 9.0})
	if !res.IsError || !strings.Contains(resultText(res), "addressing") {
		t.Errorf("remove_column out of range = %q", resultText(res))
	}
	res = call(t, s.handleUpdateBlock, map[string]any{"blockId": added["blockId"], "patch": `{"content":"x"}`})
	if !res.IsError || !strings.Contains(resultText(res), "refusal") {
		t.Errorf("mismatched patch = %q", resultText(res))
	}
	res = call(t, s.handleDrop, nil)
	if !res.IsError {
		t.Error("drop while idle should be refused")
	}

	var req mcp.CallToolRequest
	req.Params.Arguments = map[string]any{"type": "chart"}
	if _, err := s.handleAddBlock(context.Background(), req); err == nil {
		t.Error("unknown block type should be a protocol error")
	}
}

func TestToolsNeedASection(t *testing.T) {
	s, _ := newTestServer(t, true)
	var req mcp.CallToolRequest
	if _, err := s.handleGetTree(context.Background(), req); err == nil {
		t.Fatal("expected error without an active section")
	}
}

func TestTableAndImageTools(t *testing.T) {
	s, _ := newTestServer(t, true)
	call(t, s.handleCreateSection, nil)
	tbl := decode[map[string]string](t, call(t, s.handleAddBlock, map[string]any{"type": "table"}))
	call(t, s.handleAddRow, map[string]any{"blockId": tbl["blockId"]})
	call(t, s.handleSetCell, map[string]any{"blockId": tbl["blockId"], "row": 2.0, "column": 1.0, "value": "ok"})

	blk := decode[blockNode](t, call(t, s.handleGetBlock, map[string]any{"blockId": tbl["blockId"]}))
	var table struct {
		Cells [][]string `json:"cells"`
	}
	if err := json.Unmarshal(blk.Block, &table); err != nil {
		t.Fatal(err)
	}
	if len(table.Cells) != 3 || table.Cells[2][1] != "ok" {
		t.Errorf("cells = %v", table.Cells)
	}

	grid := decode[map[string]string](t, call(t, s.handleAddBlock, map[string]any{"type": "image_grid"}))
	img := decode[map[string]string](t, call(t, s.handleAddImage, map[string]any{
		"blockId": grid["blockId"], "src": "photos/pump.jpg", "caption": "Pump",
	}))
	if img["imageId"] == "" {
		t.Fatal("no image id")
	}
	res := call(t, s.handleRemoveImage, map[string]any{"blockId": grid["blockId"], "imageId": img["imageId"]})
	if res.IsError {
		t.Errorf("remove_image = %q", resultText(res))
	}
}

func TestDeleteSectionNeedsApproval(t *testing.T) {
	s, emitter := newTestServer(t, false)
	s.approval.SetTimeout(5 * time.Second)
	sec := decode[service.SectionSummary](t, call(t, s.handleCreateSection, nil))

	// Reject the request as soon as it is emitted.
	done := make(chan *mcp.CallToolResult)
	go func() {
		var req mcp.CallToolRequest
		req.Params.Arguments = map[string]any{"sectionId": sec.ID}
		res, _ := s.handleDeleteSection(context.Background(), req)
		done <- res
	}()
	action := waitForApproval(t, emitter)
	s.Reject(action.ID)
	if res := <-done; resultText(res) != "Action rejected by user" {
		t.Errorf("result = %q", resultText(res))
	}

	secs := decode[[]service.SectionSummary](t, call(t, s.handleListSections, nil))
	if len(secs) != 1 {
		t.Fatalf("section deleted despite rejection")
	}
}

func waitForApproval(t *testing.T, emitter *service.MockEmitter) PendingAction {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if ev := emitter.Named("mcp:approval-required"); len(ev) > 0 {
			return ev[len(ev)-1].Data.(PendingAction)
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("no approval requested")
	return PendingAction{}
}

// memApprovals resolves every approval as soon as it is created.
type memApprovals struct {
	mu      sync.Mutex
	status  map[string]string
	approve bool
}

func (m *memApprovals) CreateApproval(_ context.Context, a *storage.Approval) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.approve {
		m.status[a.ID] = storage.ApprovalApproved
	} else {
		m.status[a.ID] = storage.ApprovalRejected
	}
	return nil
}

func (m *memApprovals) ApprovalStatus(_ context.Context, id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.status[id]
	if !ok {
		return "", storage.ErrApprovalNotFound
	}
	return st, nil
}

func (m *memApprovals) DeleteApproval(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.status, id)
	return nil
}

func TestApprovalStoreMode(t *testing.T) {
	for _, approve := range []bool{true, false} {
		store := &memApprovals{status: map[string]string{}, approve: approve}
		q := NewApprovalQueue(context.Background(), &service.MockEmitter{})
		q.SetStore(store)
		q.poll = time.Millisecond

		ok, err := q.Request("reset_report", "reset")
		if ok != approve || (err == nil) != approve {
			t.Errorf("approve=%v: Request = %v, %v", approve, ok, err)
		}
		if len(store.status) != 0 {
			t.Errorf("approval not cleaned up")
		}
	}
}

func TestExportAndResources(t *testing.T) {
	s, _ := newTestServer(t, true)
	ctx := context.Background()
	if err := s.reports.Reset(ctx); err != nil {
		t.Fatal(err)
	}

	md := resultText(call(t, s.handleExportReport, map[string]any{"format": "markdown"}))
	if !strings.Contains(md, "## Introduction") {
		t.Errorf("markdown = %q", md)
	}
	var req mcp.CallToolRequest
	req.Params.Arguments = map[string]any{"format": "pdf"}
	if _, err := s.handleExportReport(ctx, req); err == nil {
		t.Error("pdf without path should fail")
	}

	var rreq mcp.ReadResourceRequest
	rreq.Params.URI = "report://sections"
	contents, err := s.handleSectionsResource(ctx, rreq)
	if err != nil || len(contents) != 1 {
		t.Fatalf("sections resource = %v, %v", contents, err)
	}

	if got := sectionIDFromURI("report://section/section-1"); got != "section-1" {
		t.Errorf("sectionIDFromURI = %q", got)
	}
	if got := sectionIDFromURI("report://other/x"); got != "" {
		t.Errorf("sectionIDFromURI(other) = %q", got)
	}
}

func TestTruncateKeepsRunes(t *testing.T) {
	got := truncate("Relatório   de consumo – ação", 8)
	if !utf8.ValidString(got) {
		t.Fatalf("truncate produced invalid UTF-8: %q", got)
	}
	if got != "Relatóri…" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("ção", 3); got != "ção" {
		t.Errorf("short input = %q", got)
	}
}
