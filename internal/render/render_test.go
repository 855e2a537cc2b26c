package render_test

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"reports/internal/blocktree"
	"reports/internal/domain"
	"reports/internal/render"
)

func doc() *blocktree.Tree {
	src := "missing/chart.png"
	return blocktree.New([]domain.Block{
		&domain.Subheader{ID: "s", Content: "Consumption"},
		&domain.Layout{ID: "L", Columns: 2, Children: [][]domain.Block{
			{&domain.Text{ID: "t", Content: "Usage rose <b>12%</b>."}},
			{&domain.ImageGrid{ID: "g", Columns: 2, Images: []domain.Image{
				{ID: "i1", Src: &src, Caption: "Monthly kWh"},
				{ID: "i2"},
			}}},
		}},
		&domain.Table{ID: "tb", Cells: [][]string{{"Month", "kWh"}, {"Jan", "1200"}, {"Feb", "1|3"}}},
	})
}

type recorder struct {
	calls []string
}

func (r *recorder) record(format string, args ...any) {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

func (r *recorder) callbacks() render.Callbacks {
	return render.Callbacks{
		OnUpdate:    func(id string, _ domain.Patch) { r.record("update %s", id) },
		OnAdd:       func(t domain.BlockType, parent domain.Path) { r.record("add %s @%s", t, parent.String()) },
		OnDelete:    func(id string) { r.record("delete %s", id) },
		OnDragStart: func(id string) { r.record("dragstart %s", id) },
		OnDragOver:  func(p domain.Path) { r.record("dragover %s", p.String()) },
		OnDrop:      func() { r.record("drop") },
	}
}

func TestRender_MirrorsTree(t *testing.T) {
	root := render.Render(doc(), render.Callbacks{})

	if len(root.Blocks) != 3 || len(root.Path) != 0 {
		t.Fatalf("root = %d blocks at %v", len(root.Blocks), root.Path)
	}
	layout := root.Blocks[1]
	if len(layout.Columns) != 2 {
		t.Fatalf("layout columns = %d", len(layout.Columns))
	}
	for j, col := range layout.Columns {
		if !col.Path.Equal(domain.Path{1, j}) {
			t.Errorf("column %d path = %v", j, col.Path)
		}
	}
	if got := layout.Columns[1].Blocks[0].Path; !got.Equal(domain.Path{1, 1, 0}) {
		t.Errorf("grid path = %v", got)
	}

	var order []string
	render.Walk(root, func(el *render.Element) { order = append(order, el.ID) })
	if diff := cmp.Diff([]string{"s", "L", "t", "g", "tb"}, order); diff != "" {
		t.Errorf("walk order (-want +got):\n%s", diff)
	}
}

func TestRender_CallbacksCarryCurrentPaths(t *testing.T) {
	rec := &recorder{}
	root := render.Render(doc(), rec.callbacks())
	layout := root.Blocks[1]

	layout.Columns[1].Add(domain.BlockTypeTable)
	root.Add(domain.BlockTypeText)
	layout.Columns[0].Blocks[0].DragStart()
	root.Blocks[2].DragOver()
	root.DropEnd()
	root.Drop()
	layout.Columns[0].Blocks[0].Update(domain.Patch{})
	root.Blocks[0].Delete()

	want := []string{
		"add table @1.1",
		"add text @",
		"dragstart t",
		"dragover 2",
		"dragover 3",
		"drop",
		"update t",
		"delete s",
	}
	if diff := cmp.Diff(want, rec.calls); diff != "" {
		t.Errorf("calls (-want +got):\n%s", diff)
	}
}

func TestRender_PrintableAndLocked(t *testing.T) {
	printed := render.Print(doc())
	render.Walk(printed, func(el *render.Element) {
		if el.Update != nil || el.Delete != nil || el.DragStart != nil || el.DragOver != nil || el.Drop != nil {
			t.Errorf("printable element %s has editor affordances", el.ID)
		}
		for _, col := range el.Columns {
			if col.Editable() {
				t.Errorf("printable column of %s is editable", el.ID)
			}
		}
	})
	if printed.Editable() {
		t.Error("printable root is editable")
	}

	locked := render.Render(doc(), (&recorder{}).callbacks(), render.Locked(true))
	el := locked.Blocks[0]
	if el.Update == nil || el.Delete != nil || el.DragStart != nil || locked.Add != nil {
		t.Error("locked render should keep field edits only")
	}
}

func page() *render.Page {
	return render.Report(&domain.Report{
		Meta: map[string]string{
			domain.FieldTitle:      "Energy Audit",
			domain.FieldClient:     "Acme Mills",
			domain.FieldConclusion: "Costs are <b>stable</b>.",
		},
		Sections: []domain.SectionContent{{ID: "sec", Title: "Summary", Blocks: doc().Blocks()}},
	})
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	if err := render.WriteMarkdown(&buf, page()); err != nil {
		t.Fatalf("WriteMarkdown: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"# Energy Audit\n",
		"- **Client:** Acme Mills",
		"## Summary\n",
		"### Consumption\n",
		"Usage rose <b>12%</b>.",
		"![Monthly kWh](missing/chart.png)",
		"| Month | kWh |\n|---|---|\n| Jan | 1200 |\n| Feb | 1\\|3 |\n",
		"## Conclusion\n\nCosts are <b>stable</b>.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q\n%s", want, out)
		}
	}
	// Empty image slots are editor-only.
	if strings.Count(out, "![") != 1 {
		t.Errorf("expected one image, got:\n%s", out)
	}
}

func TestPreview(t *testing.T) {
	out := render.Preview(page(), 160)
	for _, want := range []string{"Energy Audit", "Consumption", "Usage rose 12%.", "Month", "1200", "Monthly kWh"} {
		if !strings.Contains(out, want) {
			t.Errorf("preview missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "<b>") {
		t.Error("preview should strip inline HTML")
	}
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	if err := render.WritePDF(&buf, page(), render.DefaultPDFOptions()); err != nil {
		t.Fatalf("WritePDF: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Errorf("output does not look like a PDF: %q", buf.Bytes()[:min(16, buf.Len())])
	}
}

func TestWritePDF_UnusableImagesFallBackToPlaceholder(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.png"), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(filepath.Join(dir, "chart.png"))
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, image.NewGray(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}
	f.Close()

	srcs := []string{"notes.txt", "broken.png", "chart.png"}
	var images []domain.Image
	for i := range srcs {
		images = append(images, domain.Image{ID: srcs[i], Src: &srcs[i], Caption: srcs[i]})
	}
	pg := render.Report(&domain.Report{
		Meta: map[string]string{domain.FieldTitle: "Images"},
		Sections: []domain.SectionContent{{ID: "sec", Title: "Gallery", Blocks: []domain.Block{
			&domain.ImageGrid{ID: "g", Columns: 3, Images: images},
		}}},
	})

	opts := render.DefaultPDFOptions()
	opts.ImageDir = dir
	var buf bytes.Buffer
	if err := render.WritePDF(&buf, pg, opts); err != nil {
		t.Fatalf("WritePDF: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Errorf("output does not look like a PDF")
	}
}
