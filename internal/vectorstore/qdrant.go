package vectorstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/qdrant/go-client/qdrant"

	"github.com/54b3r/ragbridge/internal/rag"
)

// defaultQdrantPort is the Qdrant gRPC port assumed when the endpoint URL
// carries no port.
const defaultQdrantPort = 6334

// qdrantBackend talks to a self-hosted Qdrant instance over gRPC. The client
// is created and closed within each call — connections are never retained.
type qdrantBackend struct{}

func (q *qdrantBackend) requiresEndpoint() bool { return true }

// newClient parses the endpoint URL and dials Qdrant. Accepts "host:port",
// "http://host:port", and "https://host:port" forms; https enables TLS.
func (q *qdrantBackend) newClient(endpoint, apiKey string) (*qdrant.Client, error) {
	host := endpoint
	port := defaultQdrantPort
	useTLS := false

	if strings.Contains(endpoint, "://") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("qdrant: invalid endpoint %q: %w", endpoint, err)
		}
		host = u.Hostname()
		useTLS = u.Scheme == "https"
		if p := u.Port(); p != "" {
			port, _ = strconv.Atoi(p)
		}
	} else if h, p, ok := strings.Cut(endpoint, ":"); ok {
		host = h
		if n, err := strconv.Atoi(p); err == nil {
			port = n
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: create client: %w", err)
	}
	return client, nil
}

func (q *qdrantBackend) search(ctx context.Context, p SearchParams, vector []float32) ([]rag.Document, error) {
	client, err := q.newClient(p.Endpoint, p.APIKey)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	limit := uint64(p.TopK)
	results, err := client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: p.Collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: search failed: %w", err)
	}

	docs := make([]rag.Document, 0, len(results))
	for _, r := range results {
		payload := make(map[string]any, len(r.Payload))
		for k, v := range r.Payload {
			payload[k] = qdrantValueToAny(v)
		}
		docs = append(docs, normalizeDocument(qdrantPointIDString(r.Id), r.Score, payload))
	}
	return docs, nil
}

// qdrantCollections is the slice of the Qdrant client used to prepare a
// collection before writing. *qdrant.Client satisfies it.
type qdrantCollections interface {
	CollectionExists(ctx context.Context, collection string) (bool, error)
	CreateCollection(ctx context.Context, req *qdrant.CreateCollection) error
}

func (q *qdrantBackend) ensureCollection(ctx context.Context, p UpsertParams) error {
	client, err := q.newClient(p.Endpoint, p.APIKey)
	if err != nil {
		return err
	}
	defer client.Close()

	return ensureQdrantCollection(ctx, client, p.Collection, p.Dimensions)
}

// ensureQdrantCollection creates the collection if it does not exist yet.
// Creation losing a race to another writer counts as success.
func ensureQdrantCollection(ctx context.Context, client qdrantCollections, collection string, dimensions int) error {
	exists, err := client.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("qdrant: check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	err = client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimensions),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return nil
		}
		return fmt.Errorf("qdrant: create collection %q: %w", collection, err)
	}
	return nil
}

func (q *qdrantBackend) upsert(ctx context.Context, p UpsertParams, records []rag.Record) (int, error) {
	client, err := q.newClient(p.Endpoint, p.APIKey)
	if err != nil {
		return 0, err
	}
	defer client.Close()

	points := make([]*qdrant.PointStruct, 0, len(records))
	for _, rec := range records {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(uint64(pointID(rec.ID))),
			Vectors: qdrant.NewVectors(rec.Embedding...),
			Payload: qdrant.NewValueMap(map[string]any{
				"text":     rec.Text,
				"metadata": rec.Metadata,
			}),
		})
	}

	_, err = client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: p.Collection,
		Points:         points,
	})
	if err != nil {
		return 0, fmt.Errorf("qdrant: upsert failed: %w", err)
	}
	return len(points), nil
}

// NewQdrantClient dials Qdrant at the given endpoint using the same URL
// parsing as the search and upsert paths. Callers own the returned client
// and must Close it. Used by readiness probes.
func NewQdrantClient(endpoint, apiKey string) (*qdrant.Client, error) {
	b := &qdrantBackend{}
	return b.newClient(endpoint, apiKey)
}

// qdrantPointIDString renders a point id (numeric or UUID) for document
// title synthesis.
func qdrantPointIDString(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	if u := id.GetUuid(); u != "" {
		return u
	}
	return strconv.FormatUint(id.GetNum(), 10)
}

// qdrantValueToAny converts a Qdrant payload value into a plain Go value so
// only plain values cross the adapter boundary.
func qdrantValueToAny(v *qdrant.Value) any {
	switch k := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return k.StringValue
	case *qdrant.Value_IntegerValue:
		return k.IntegerValue
	case *qdrant.Value_DoubleValue:
		return k.DoubleValue
	case *qdrant.Value_BoolValue:
		return k.BoolValue
	default:
		return v.String()
	}
}
