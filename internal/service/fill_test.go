package service_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"reports/internal/dataset"
	_ "reports/internal/dataset/sources"
	"reports/internal/domain"
	"reports/internal/service"
)

func TestFillTableFromCSV(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)
	sec := newSection(t, svc)
	_, id, err := svc.AddBlock(ctx, sec, domain.BlockTypeTable, nil)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "readings.csv")
	if err := os.WriteFile(path, []byte("sensor,value\nT1,21.5\nT2,19.0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	tr, frame, err := svc.FillTable(ctx, sec, id, service.FillTableInput{
		SourceType: "csv_file",
		Config:     dataset.SourceConfig{"filePath": path},
	})
	if err != nil {
		t.Fatalf("FillTable: %v", err)
	}
	if len(frame.Rows) != 2 {
		t.Errorf("rows = %d", len(frame.Rows))
	}
	b, _ := tr.GetByID(id)
	want := [][]string{{"sensor", "value"}, {"T1", "21.5"}, {"T2", "19.0"}}
	if diff := cmp.Diff(want, b.(*domain.Table).Cells); diff != "" {
		t.Errorf("cells (-want +got):\n%s", diff)
	}
}

func TestFillTableRefusesOtherBlocks(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)
	sec := newSection(t, svc)
	_, id, _ := svc.AddBlock(ctx, sec, domain.BlockTypeText, nil)

	in := service.FillTableInput{SourceType: "csv_file", Config: dataset.SourceConfig{"filePath": "/does/not/matter"}}
	_, _, err := svc.FillTable(ctx, sec, id, in)
	wantKind(t, err, domain.KindRefusal)

	_, _, err = svc.FillTable(ctx, sec, "ghost", in)
	wantKind(t, err, domain.KindAddressing)
}
