package target

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/colinfo/colinfo/internal/table"
)

// MongoWriter implements Writer using the MongoDB driver.
type MongoWriter struct {
	client    *mongo.Client
	database  string
	batchSize int
}

// NewMongoWriter connects to the given MongoDB instance.
func NewMongoWriter(ctx context.Context, connectionString, database string, batchSize int) (*MongoWriter, error) {
	opts := options.Client().ApplyURI(connectionString)
	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connecting to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging MongoDB: %w", err)
	}

	return &MongoWriter{
		client:    client,
		database:  database,
		batchSize: batchSize,
	}, nil
}

// Write inserts the table's rows in ordered batches.
func (m *MongoWriter) Write(ctx context.Context, collection string, t *table.Table) (int64, error) {
	coll := m.client.Database(m.database).Collection(collection)
	docs := Documents(t)

	var written int64
	for _, b := range batches(len(docs), m.batchSize) {
		res, err := coll.InsertMany(ctx, docs[b[0]:b[1]], options.InsertMany().SetOrdered(true))
		if res != nil {
			written += int64(len(res.InsertedIDs))
		}
		if err != nil {
			return written, fmt.Errorf("inserting rows %d-%d into %s: %w", b[0], b[1]-1, collection, err)
		}
	}
	return written, nil
}

// Drop removes a collection from the target database.
func (m *MongoWriter) Drop(ctx context.Context, collection string) error {
	if err := m.client.Database(m.database).Collection(collection).Drop(ctx); err != nil {
		return fmt.Errorf("dropping collection %s: %w", collection, err)
	}
	return nil
}

// Close disconnects from MongoDB.
func (m *MongoWriter) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
