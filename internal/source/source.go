package source

import (
	"context"

	"github.com/colinfo/colinfo/internal/table"
)

// Reader produces a raw, uncoerced table.
type Reader interface {
	Read(ctx context.Context) (*table.Table, error)
}
