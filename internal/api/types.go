package api

import (
	"github.com/colinfo/colinfo/internal/colinfo"
	"github.com/colinfo/colinfo/internal/report"
)

// SchemaResponse is the API response for the current registry.
type SchemaResponse struct {
	Path    string               `json:"path"`
	Columns []colinfo.ColumnInfo `json:"columns"`
	Types   map[string]string    `json:"types"`
	Flags   map[string]bool      `json:"flags"`
	Summary string               `json:"summary"`
}

// IngestResponse is the API response for POST /api/ingest.
type IngestResponse struct {
	Report    *report.IngestReport `json:"report"`
	Rows      []map[string]any     `json:"rows"`
	Truncated bool                 `json:"truncated,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func newSchemaResponse(path string, reg *colinfo.Registry) SchemaResponse {
	return SchemaResponse{
		Path:    path,
		Columns: reg.Columns(),
		Types:   reg.TypeMap(),
		Flags:   reg.FlagMap(),
		Summary: reg.Summary(),
	}
}
