// Package repo provides the Postgres-backed venue catalog repository
package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	perr "localist/internal/platform/errors"
	"localist/internal/platform/logger"
	"localist/internal/platform/store/pg"
	"localist/internal/services/catalog/domain"

	"github.com/google/uuid"
)

// importChunk caps the rows per multi-row INSERT
const importChunk = 500

// Storage is what the catalog service needs from a repository
type Storage interface {
	domain.ImporterPort
	domain.QueryPort
	EnsureSchema(ctx context.Context) error
}

// Postgres implements Storage on a pg.Queryer
type Postgres struct {
	q   pg.Queryer
	log *logger.Logger
}

// NewPostgres binds the repo to a query surface (pool or tx)
func NewPostgres(q pg.Queryer) *Postgres {
	return &Postgres{q: q, log: logger.Named("catalog.repo")}
}

// EnsureSchema creates the venues table if missing so the CLI import is
// self-contained against a fresh database
func (r *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := r.q.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS venues (
			id          BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			batch_id    UUID NOT NULL,
			name        TEXT NOT NULL,
			city_id     TEXT NOT NULL,
			payload     JSONB NOT NULL,
			imported_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (name, city_id)
		)`)
	return perr.WrapIf(err, perr.ErrorCodeDB, "ensure venues schema")
}

// ImportBatch upserts consolidated venues. Conflicts on (name, city_id) are
// ignored so already imported venues keep their first-imported payload,
// matching first-seen-wins on the file side. Returns rows actually written
func (r *Postgres) ImportBatch(ctx context.Context, recs []domain.Record) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	batchID := uuid.New()
	var written int64
	for start := 0; start < len(recs); start += importChunk {
		end := min(start+importChunk, len(recs))
		n, err := r.insertChunk(ctx, batchID, recs[start:end])
		if err != nil {
			return written, err
		}
		written += n
	}

	r.log.Info().Str("batch_id", batchID.String()).Int("records", len(recs)).Int64("written", written).
		Msg("venue import done")
	return written, nil
}

func (r *Postgres) insertChunk(ctx context.Context, batchID uuid.UUID, recs []domain.Record) (int64, error) {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO venues (batch_id, name, city_id, payload) VALUES `)

	args := make([]any, 0, len(recs)*4)
	for i, rec := range recs {
		if i > 0 {
			sb.WriteByte(',')
		}
		base := i*4 + 1
		fmt.Fprintf(&sb, "($%d,$%d,$%d,$%d)", base, base+1, base+2, base+3)
		args = append(args, batchID, rec.Name, rec.CityID, []byte(rec.Raw))
	}
	sb.WriteString(` ON CONFLICT (name, city_id) DO NOTHING`)

	tag, err := r.q.Exec(ctx, sb.String(), args...)
	if err != nil {
		return 0, perr.FromDB(err, "import venues")
	}
	return tag.RowsAffected(), nil
}

// ListVenues returns imported venue payloads in import order plus the total
// matching count
func (r *Postgres) ListVenues(ctx context.Context, q domain.ListQuery) ([]json.RawMessage, int, error) {
	var sb strings.Builder
	var args []any
	arg := func(v any) string { args = append(args, v); return fmt.Sprintf("$%d", len(args)) }

	where := ""
	if q.CityID != "" {
		where = " WHERE city_id = " + arg(q.CityID)
	}

	var total int
	if err := r.q.QueryRow(ctx, "SELECT count(*) FROM venues"+where, args...).Scan(&total); err != nil {
		return nil, 0, perr.FromDB(err, "count venues")
	}

	sb.WriteString("SELECT payload FROM venues" + where)
	sb.WriteString(" ORDER BY id LIMIT " + arg(q.Limit) + " OFFSET " + arg(q.Offset))

	rows, err := r.q.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, 0, perr.FromDB(err, "list venues")
	}
	defer rows.Close()

	var out []json.RawMessage
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, 0, perr.FromDB(err, "scan venue")
		}
		out = append(out, json.RawMessage(payload))
	}
	if err := rows.Err(); err != nil {
		return nil, 0, perr.FromDB(err, "list venues")
	}
	return out, total, nil
}

// AggByCity returns per-city venue counts descending, city id breaking ties
func (r *Postgres) AggByCity(ctx context.Context, limit, minVenues int) ([]domain.CityCount, error) {
	rows, err := r.q.Query(ctx, `
		SELECT city_id, count(*)::int AS venues
		FROM venues
		GROUP BY city_id
		HAVING count(*) >= $1
		ORDER BY venues DESC, city_id
		LIMIT $2`, minVenues, limit)
	if err != nil {
		return nil, perr.FromDB(err, "aggregate venues by city")
	}
	defer rows.Close()

	var out []domain.CityCount
	for rows.Next() {
		var row domain.CityCount
		if err := rows.Scan(&row.CityID, &row.Venues); err != nil {
			return nil, perr.FromDB(err, "scan city row")
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, perr.FromDB(err, "aggregate venues by city")
	}
	return out, nil
}
