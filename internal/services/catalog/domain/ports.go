package domain

import (
	"context"
	"encoding/json"
)

// ImporterPort writes consolidated venues to backing storage
type ImporterPort interface {
	ImportBatch(ctx context.Context, recs []Record) (written int64, err error)
}

// QueryPort reads the imported catalog
type QueryPort interface {
	ListVenues(ctx context.Context, q ListQuery) (rows []json.RawMessage, total int, err error)
	AggByCity(ctx context.Context, limit, minVenues int) ([]CityCount, error)
}
