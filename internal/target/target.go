package target

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/colinfo/colinfo/internal/table"
)

// Writer stores normalized tables.
type Writer interface {
	// Write inserts every row of t into collection and returns the number of
	// documents written.
	Write(ctx context.Context, collection string, t *table.Table) (int64, error)
	Drop(ctx context.Context, collection string) error
	Close(ctx context.Context) error
}

// Documents converts each row to a document with fields in column order.
// Null cells become BSON nulls.
func Documents(t *table.Table) []bson.D {
	cols := t.Columns()
	docs := make([]bson.D, t.Len())
	for i := range docs {
		row := t.Row(i)
		doc := make(bson.D, len(cols))
		for c, name := range cols {
			doc[c] = bson.E{Key: name, Value: row[c]}
		}
		docs[i] = doc
	}
	return docs
}

// batches splits n items into [start, end) ranges of at most size items.
func batches(n, size int) [][2]int {
	if size <= 0 {
		size = n
	}
	var out [][2]int
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		out = append(out, [2]int{start, end})
	}
	return out
}
