package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"

	"github.com/spf13/cast"

	"github.com/colinfo/colinfo/internal/coerce"
	"github.com/colinfo/colinfo/internal/colinfo"
	"github.com/colinfo/colinfo/internal/ingest"
	"github.com/colinfo/colinfo/internal/report"
	"github.com/colinfo/colinfo/internal/source"
	"github.com/colinfo/colinfo/internal/table"
	"github.com/colinfo/colinfo/internal/ws"
)

const maxUploadBytes = 64 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, newSchemaResponse(s.schemaPath, s.Registry()))
}

// StateJSON encodes the current registry for WebSocket clients.
func (s *Server) StateJSON() ([]byte, error) {
	return json.Marshal(newSchemaResponse(s.schemaPath, s.Registry()))
}

func (s *Server) handleReloadSchema(w http.ResponseWriter, r *http.Request) {
	reg, err := colinfo.Load(s.schemaPath, s.csvOpts...)
	if err != nil {
		s.logger.Error("reloading schema", "path", s.schemaPath, "error", err)
		s.publishError(err)
		errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.setRegistry(reg)
	s.logger.Info("schema reloaded", "path", s.schemaPath, "summary", reg.Summary())

	resp := newSchemaResponse(s.schemaPath, reg)
	if s.hub != nil {
		s.hub.Publish(ws.MsgSchemaReloaded, resp)
	}
	jsonResponse(w, http.StatusOK, resp)
}

// bodyReader decodes a CSV request body as a raw table.
type bodyReader struct {
	csv  *source.CSVReader
	body io.Reader
}

func (b *bodyReader) Read(_ context.Context) (*table.Table, error) {
	return b.csv.Decode(b.body)
}

// handleIngest coerces an uploaded CSV body. Query parameters: name (source
// name for the report), limit (rows returned, default 100) and strict.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := defaultPreviewRows
	if v := q.Get("limit"); v != "" {
		n, err := cast.ToIntE(v)
		if err != nil || n < 0 {
			errorResponse(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	opts := slices.Clone(s.ingestOpts)
	opts = append(opts, ingest.WithLogger(s.logger))
	if v := q.Get("strict"); v != "" {
		strict, err := cast.ToBoolE(v)
		if err != nil {
			errorResponse(w, http.StatusBadRequest, "strict must be a boolean")
			return
		}
		opts = append(opts, ingest.WithStrict(strict))
	}

	name := q.Get("name")
	if name == "" {
		name = "upload.csv"
	}

	in := ingest.New(s.Registry(), opts...)
	res, err := in.Import(r.Context(), &bodyReader{
		csv:  source.NewCSVReader(name, s.csvOpts...),
		body: http.MaxBytesReader(w, r.Body, maxUploadBytes),
	})
	if err != nil {
		s.logger.Warn("ingest failed", "source", name, "error", err)
		if s.hub != nil {
			s.hub.Publish(ws.MsgIngestFailed, map[string]string{"source": name, "error": err.Error()})
		}
		errorResponse(w, ingestErrorStatus(err), err.Error())
		return
	}

	rep := report.New(name, s.schemaPath, res)
	if s.hub != nil {
		s.hub.Publish(ws.MsgIngestCompleted, rep)
	}

	rows := res.Table.Records()
	resp := IngestResponse{Report: rep, Rows: rows}
	if len(rows) > limit {
		resp.Rows, resp.Truncated = rows[:limit], true
	}
	jsonResponse(w, http.StatusOK, resp)
}

func ingestErrorStatus(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, coerce.ErrInvalidCast),
		errors.Is(err, coerce.ErrInvalidDateFormat),
		errors.Is(err, ingest.ErrMissingColumn):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

func (s *Server) publishError(err error) {
	if s.hub != nil {
		s.hub.PublishError(err.Error())
	}
}
