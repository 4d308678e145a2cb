package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/54b3r/ragbridge/internal/rag"
)

// mongoExtractor pulls documents from a MongoDB collection. The database name
// is taken from the connection URI path, matching the mongodb:// convention.
type mongoExtractor struct {
	params ExtractParams
}

// Extract connects, runs the bounded find, and disconnects before returning.
func (m *mongoExtractor) Extract(ctx context.Context) ([]rag.RawRecord, error) {
	if m.params.Limit <= 0 {
		return nil, nil
	}

	filter, err := parseMongoFilter(m.params.Filter)
	if err != nil {
		return nil, err
	}

	database, err := databaseFromURI(m.params.ConnectionURI)
	if err != nil {
		return nil, err
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(m.params.ConnectionURI))
	if err != nil {
		return nil, rag.WrapError(rag.ErrExtractionFailed, "mongodb extraction", err)
	}
	defer func() { _ = client.Disconnect(ctx) }()

	coll := client.Database(database).Collection(m.params.Collection)

	cursor, err := coll.Find(ctx, filter, options.Find().SetLimit(int64(m.params.Limit)))
	if err != nil {
		return nil, rag.WrapError(rag.ErrExtractionFailed, "mongodb extraction", err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, rag.WrapError(rag.ErrExtractionFailed, "mongodb extraction", err)
	}

	records := make([]rag.RawRecord, 0, len(docs))
	for _, doc := range docs {
		record := make(rag.RawRecord, len(doc))
		for k, v := range doc {
			record[k] = plainBSONValue(v)
		}
		records = append(records, record)
	}
	return records, nil
}

// parseMongoFilter parses an optional JSON filter string into a bson filter.
// An empty filter matches everything; malformed JSON is rag.ErrInvalidFilter,
// never a backend-leaked parse error.
func parseMongoFilter(filter string) (bson.M, error) {
	if filter == "" {
		return bson.M{}, nil
	}
	var parsed bson.M
	if err := bson.UnmarshalExtJSON([]byte(filter), true, &parsed); err != nil {
		return nil, fmt.Errorf("mongodb filter: %w: %v", rag.ErrInvalidFilter, err)
	}
	return parsed, nil
}

// databaseFromURI extracts the database name from a MongoDB connection URI
// ("mongodb://host/db?opts" → "db"). A URI with no database path segment is
// rag.ErrExtractionFailed; the URI itself is never echoed since it may carry
// credentials.
func databaseFromURI(uri string) (string, error) {
	trimmed := uri
	if i := strings.Index(trimmed, "://"); i >= 0 {
		trimmed = trimmed[i+3:]
	}
	if i := strings.Index(trimmed, "?"); i >= 0 {
		trimmed = trimmed[:i]
	}
	_, db, ok := strings.Cut(trimmed, "/")
	if !ok || db == "" {
		return "", fmt.Errorf("mongodb extraction: %w: connection URI names no database", rag.ErrExtractionFailed)
	}
	return db, nil
}

// plainBSONValue reduces BSON-specific values to plain Go types so only
// plain values cross the adapter boundary. Object identifiers and timestamps
// become strings; everything else passes through.
func plainBSONValue(v any) any {
	switch t := v.(type) {
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return t.Time().Format(time.RFC3339)
	case primitive.Binary:
		return fmt.Sprintf("%x", t.Data)
	default:
		return v
	}
}
