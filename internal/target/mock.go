package target

import (
	"context"

	"github.com/colinfo/colinfo/internal/table"
)

// MockWriter is a test double for the Writer interface.
type MockWriter struct {
	WriteErr error
	DropErr  error

	Written map[string][]*table.Table
	Dropped []string
	Closed  bool
}

func (m *MockWriter) Write(_ context.Context, collection string, t *table.Table) (int64, error) {
	if m.WriteErr != nil {
		return 0, m.WriteErr
	}
	if m.Written == nil {
		m.Written = make(map[string][]*table.Table)
	}
	m.Written[collection] = append(m.Written[collection], t)
	return int64(t.Len()), nil
}

func (m *MockWriter) Drop(_ context.Context, collection string) error {
	if m.DropErr != nil {
		return m.DropErr
	}
	m.Dropped = append(m.Dropped, collection)
	return nil
}

func (m *MockWriter) Close(_ context.Context) error {
	m.Closed = true
	return nil
}
