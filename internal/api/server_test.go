package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/colinfo/colinfo/internal/colinfo"
	"github.com/colinfo/colinfo/internal/ingest"
	"github.com/colinfo/colinfo/internal/source"
	"github.com/colinfo/colinfo/internal/testutil"
	"github.com/colinfo/colinfo/internal/ws"
)

const schemaCSV = `name,description,units,type
colA,Sample date,,dt
colB,Retested,,bool_flag
colC,Note,,
count,Colony count,cfu,int64
`

func testServer(t *testing.T, opts ...Option) (*Server, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), colinfo.DefaultFile)
	if err := os.WriteFile(path, []byte(schemaCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	reg, err := colinfo.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	return New(reg, path, testutil.NewTestLogger(t), 0, opts...), path
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := testServer(t)
	w := do(t, s, "GET", "/api/health", "")

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp map[string]string
	json.NewDecoder(w.Body).Decode(&resp)
	if resp["status"] != "ok" {
		t.Errorf("status = %q, want ok", resp["status"])
	}
}

func TestGetSchema(t *testing.T) {
	s, path := testServer(t)
	w := do(t, s, "GET", "/api/schema", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp SchemaResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Path != path || len(resp.Columns) != 4 {
		t.Errorf("resp = %+v", resp)
	}
	if resp.Types["colB"] != "bool" || !resp.Flags["colB"] {
		t.Errorf("colB type=%q flag=%v", resp.Types["colB"], resp.Flags["colB"])
	}
	if _, ok := resp.Types["colC"]; ok {
		t.Error("colC has no type and should not be listed")
	}
}

func TestIngest(t *testing.T) {
	s, _ := testServer(t)
	body := "colA,colB,colC,count\n2020-01-01,1,x,12\n2020-02-01,,y,3\n"
	w := do(t, s, "POST", "/api/ingest?name=lab.csv", body)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}
	var resp IngestResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Report.Source != "lab.csv" || resp.Report.Rows != 2 {
		t.Errorf("report = %+v", resp.Report)
	}
	if len(resp.Rows) != 2 || resp.Truncated {
		t.Fatalf("rows = %v truncated=%v", resp.Rows, resp.Truncated)
	}
	if resp.Rows[0]["colB"] != true || resp.Rows[1]["colB"] != false {
		t.Errorf("colB = %v, %v", resp.Rows[0]["colB"], resp.Rows[1]["colB"])
	}
	// JSON numbers decode as float64
	if resp.Rows[0]["count"] != float64(12) {
		t.Errorf("count = %#v", resp.Rows[0]["count"])
	}
	if resp.Rows[0]["colA"] != "2020-01-01T00:00:00Z" {
		t.Errorf("colA = %#v", resp.Rows[0]["colA"])
	}
}

func TestIngest_Limit(t *testing.T) {
	s, _ := testServer(t)
	body := "colC\na\nb\nc\n"
	w := do(t, s, "POST", "/api/ingest?limit=1", body)

	var resp IngestResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if len(resp.Rows) != 1 || !resp.Truncated || resp.Report.Rows != 3 {
		t.Errorf("rows=%d truncated=%v report rows=%d", len(resp.Rows), resp.Truncated, resp.Report.Rows)
	}
}

func TestIngest_Errors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		body   string
		want   int
	}{
		{"bad limit", "/api/ingest?limit=-1", "colC\na\n", http.StatusBadRequest},
		{"bad strict", "/api/ingest?strict=maybe", "colC\na\n", http.StatusBadRequest},
		{"empty body", "/api/ingest", "", http.StatusBadRequest},
		{"bad cast", "/api/ingest", "count\ntwelve\n", http.StatusUnprocessableEntity},
		{"bad date", "/api/ingest", "colA\nsometime\n", http.StatusUnprocessableEntity},
		{"strict missing", "/api/ingest?strict=true", "colC\na\n", http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := testServer(t)
			w := do(t, s, "POST", tt.target, tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.want, w.Body)
			}
			var resp ErrorResponse
			json.NewDecoder(w.Body).Decode(&resp)
			if resp.Error == "" {
				t.Error("expected error message")
			}
		})
	}
}

func TestIngest_StrictFromOptions(t *testing.T) {
	s, _ := testServer(t, WithIngestOptions(ingest.WithStrict(true)))

	if w := do(t, s, "POST", "/api/ingest", "colC\na\n"); w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}
	if w := do(t, s, "POST", "/api/ingest?strict=false", "colC\na\n"); w.Code != http.StatusOK {
		t.Errorf("query should override: status = %d", w.Code)
	}
}

func TestReloadSchema(t *testing.T) {
	hub := ws.NewHub(testutil.NewTestLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	s, path := testServer(t, WithHub(hub))
	before := s.Registry()

	if err := os.WriteFile(path, []byte("name,type\nother,str\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	w := do(t, s, "POST", "/api/schema/reload", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}

	var resp SchemaResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if len(resp.Types) != 1 || resp.Types["other"] != "str" {
		t.Errorf("types = %v", resp.Types)
	}
	if s.Registry() == before {
		t.Error("registry was not replaced")
	}
	if _, ok := before.Type("colA"); !ok {
		t.Error("previous registry should be left intact")
	}
}

func TestReloadSchema_CSVOptions(t *testing.T) {
	s, path := testServer(t, WithCSVOptions(source.WithDelimiter(';')))
	if err := os.WriteFile(path, []byte("name;type\nlot;int64\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := do(t, s, "POST", "/api/schema/reload", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}
	if tag, ok := s.Registry().Type("lot"); !ok || tag.Name != "int64" {
		t.Errorf("Type(lot) = %+v, %v", tag, ok)
	}
}

func TestReloadSchema_MissingFile(t *testing.T) {
	s, path := testServer(t)
	before := s.Registry()
	os.Remove(path)

	w := do(t, s, "POST", "/api/schema/reload", "")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", w.Code)
	}
	if s.Registry() != before {
		t.Error("failed reload should keep the current registry")
	}
}

func TestStateJSON(t *testing.T) {
	s, _ := testServer(t)
	data, err := s.StateJSON()
	if err != nil {
		t.Fatal(err)
	}
	var resp SchemaResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Summary != "4 columns described, 3 typed (1 flag, 1 date/time)" {
		t.Errorf("summary = %q", resp.Summary)
	}
}

func TestCORS(t *testing.T) {
	s, _ := testServer(t, WithCORS(true))
	w := do(t, s, "OPTIONS", "/api/schema", "")
	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}

func TestShutdown_NotStarted(t *testing.T) {
	s, _ := testServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}
