package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/colinfo/colinfo/internal/colinfo"
	"github.com/colinfo/colinfo/internal/config"
	"github.com/colinfo/colinfo/internal/ingest"
	"github.com/colinfo/colinfo/internal/source"
	"github.com/colinfo/colinfo/internal/table"
	"github.com/colinfo/colinfo/internal/target"
	"github.com/colinfo/colinfo/internal/testutil"
)

func ingestFixture(t *testing.T) (*ingest.Ingestor, *source.MockReader) {
	t.Helper()
	reg, err := colinfo.FromColumns([]colinfo.ColumnInfo{
		{Name: "colA", Type: "dt"},
		{Name: "colB", Type: "bool_flag"},
	})
	if err != nil {
		t.Fatal(err)
	}
	tbl, err := table.New([]string{"colA", "colB"}, [][]any{
		{"2020-01-01", "1"},
		{"2020-02-01", nil},
	})
	if err != nil {
		t.Fatal(err)
	}
	return ingest.New(reg), &source.MockReader{Table: tbl}
}

func TestRunIngest_WritesTarget(t *testing.T) {
	in, rd := ingestFixture(t)
	w := &target.MockWriter{}
	cfg := config.Default()
	cfg.Target.Database = "lab"
	cfg.Target.Collection = "readings"

	ingestReplace = true
	t.Cleanup(func() { ingestReplace = false })

	rep, err := runIngest(context.Background(), testutil.NewTestLogger(t), in, rd, w, cfg, "data.csv")
	if err != nil {
		t.Fatalf("runIngest: %v", err)
	}

	if !reflect.DeepEqual(w.Dropped, []string{"readings"}) {
		t.Errorf("Dropped = %v", w.Dropped)
	}
	written := w.Written["readings"]
	if len(written) != 1 {
		t.Fatalf("expected one write, got %d", len(written))
	}
	colB, _ := written[0].Column("colB")
	if want := []any{true, false}; !reflect.DeepEqual(colB, want) {
		t.Errorf("written colB = %v, want %v", colB, want)
	}
	if rep.Target == nil || rep.Target.Documents != 2 || rep.Target.Database != "lab" {
		t.Errorf("Target = %+v", rep.Target)
	}
	if rep.Rows != 2 || len(rep.Coerced) != 2 {
		t.Errorf("report = %+v", rep)
	}
}

func TestRunIngest_NoTarget(t *testing.T) {
	in, rd := ingestFixture(t)

	rep, err := runIngest(context.Background(), testutil.NewTestLogger(t), in, rd, nil, config.Default(), "data.csv")
	if err != nil {
		t.Fatalf("runIngest: %v", err)
	}
	if rep.Target != nil {
		t.Errorf("expected no target summary, got %+v", rep.Target)
	}
}

func TestRunIngest_WriteError(t *testing.T) {
	in, rd := ingestFixture(t)
	w := &target.MockWriter{WriteErr: errors.New("not primary")}
	cfg := config.Default()
	cfg.Target.Collection = "readings"

	if _, err := runIngest(context.Background(), testutil.NewTestLogger(t), in, rd, w, cfg, "data.csv"); err == nil {
		t.Fatal("expected write error")
	}
}

func TestPostgresQuery(t *testing.T) {
	cfg := config.Default()
	cfg.Source.Postgres.Table = "readings"
	if got := postgresQuery(cfg); got != source.TableQuery("", "readings") {
		t.Errorf("postgresQuery() = %q", got)
	}
	cfg.Source.Postgres.Query = "SELECT 1"
	if got := postgresQuery(cfg); got != "SELECT 1" {
		t.Errorf("postgresQuery() = %q", got)
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"abc", "***"},
		{"mongodb://host", "mo**********st"},
	}
	for _, tt := range tests {
		if got := maskSecret(tt.in); got != tt.want {
			t.Errorf("maskSecret(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadRegistry_UsesSourceDelimiter(t *testing.T) {
	path := filepath.Join(t.TempDir(), colinfo.DefaultFile)
	schema := "name;description;units;type\ncolB;Retested;-;bool_flag\ncount;Colony count;cfu;int64\n"
	if err := os.WriteFile(path, []byte(schema), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Schema.Path = path
	cfg.Source.Delimiter = ";"
	cfg.Source.NullValues = []string{"", "-"}

	reg, err := loadRegistry(cfg)
	if err != nil {
		t.Fatalf("loadRegistry: %v", err)
	}
	if want := map[string]string{"colB": "bool", "count": "int64"}; !reflect.DeepEqual(reg.TypeMap(), want) {
		t.Errorf("TypeMap() = %v, want %v", reg.TypeMap(), want)
	}
	if units := reg.Columns()[0].Units; units != "" {
		t.Errorf("null marker should read as empty units, got %q", units)
	}
}
