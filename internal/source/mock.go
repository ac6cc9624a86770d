package source

import (
	"context"

	"github.com/colinfo/colinfo/internal/table"
)

// MockReader is a test double for the Reader interface.
type MockReader struct {
	Table   *table.Table
	ReadErr error

	Reads int
}

func (m *MockReader) Read(_ context.Context) (*table.Table, error) {
	m.Reads++
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	return m.Table, nil
}
