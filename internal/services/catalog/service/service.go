// Package service implements venue catalog consolidation
package service

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	perr "localist/internal/platform/errors"
	"localist/internal/platform/logger"
	"localist/internal/services/catalog/domain"
)

// Consolidator merges per-source venue JSON files into one deduplicated catalog.
// A single pass over the directory; no concurrency, no retries
type Consolidator struct {
	log *logger.Logger
	out io.Writer
}

// New constructs a Consolidator. out receives the human-readable progress and
// summary lines; nil means os.Stdout
func New(out io.Writer) *Consolidator {
	if out == nil {
		out = os.Stdout
	}
	return &Consolidator{
		log: logger.Named("consolidate"),
		out: out,
	}
}

// probe extracts just the identity fields from a venue object. Values are kept
// as any because city_id shows up as both strings and bare numbers in source
// exports
type probe struct {
	Name   any `json:"name"`
	CityID any `json:"city_id"`
}

// Consolidate reads every qualifying *.json file under dir, deduplicates
// venues by (name, city_id), and accumulates per-city counts.
//
// Per-file read or parse failures are reported and skipped; a failing file
// contributes no records at all. Only the directory listing itself is fatal
func (c *Consolidator) Consolidate(dir string) (*domain.Result, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeIO, "list venues dir %s", dir)
	}

	res := &domain.Result{Records: []domain.Record{}}
	seen := map[string]struct{}{}
	counts := map[string]int{}

	// os.ReadDir returns entries sorted by filename, which fixes dedup
	// precedence: earlier-sorted files win ties
	for _, ent := range ents {
		name := ent.Name()
		if ent.IsDir() || !strings.HasSuffix(name, ".json") || name == domain.OutputFilename {
			continue
		}

		recs, err := readVenueFile(filepath.Join(dir, name))
		if err != nil {
			res.Failures = append(res.Failures, domain.FileFailure{File: name, Err: err})
			fmt.Fprintf(c.out, "Error processing %s: %v\n", name, err)
			c.log.Warn().Str("file", name).Err(err).Msg("skipping input file")
			continue
		}

		for _, rec := range recs {
			k := rec.Key()
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			res.Records = append(res.Records, rec)
			counts[rec.City()]++
		}
	}

	res.Counts = sortCounts(counts)
	c.log.Info().Str("dir", dir).Int("unique", res.Total()).Int("skipped_files", len(res.Failures)).
		Msg("consolidation pass done")
	return res, nil
}

// readVenueFile decodes one source file into records. Any error means the
// whole file is rejected so a partially valid file never contributes records
func readVenueFile(path string) ([]domain.Record, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(b, &raws); err != nil {
		return nil, err
	}

	recs := make([]domain.Record, 0, len(raws))
	for i, raw := range raws {
		var p probe
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		recs = append(recs, domain.Record{
			Name:   fieldString(p.Name),
			CityID: fieldString(p.CityID),
			Raw:    raw,
		})
	}
	return recs, nil
}

// fieldString renders an identity field the way the exports treat them:
// absent -> "", strings as-is, bare numbers as their literal text
func fieldString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// WriteSummary prints the aggregate report
func (c *Consolidator) WriteSummary(res *domain.Result) {
	fmt.Fprintf(c.out, "Total unique venues: %d\n", res.Total())
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, "By city:")
	for _, row := range res.Counts {
		fmt.Fprintf(c.out, "  %s: %d\n", row.CityID, row.Venues)
	}
}

// WriteCatalog serializes the deduplicated catalog into dir, overwriting any
// previous output, and reports the path
func (c *Consolidator) WriteCatalog(dir string, res *domain.Result) (string, error) {
	raws := make([]json.RawMessage, 0, len(res.Records))
	for _, rec := range res.Records {
		raws = append(raws, rec.Raw)
	}

	// records stay raw all the way through, so original field order survives
	b, err := json.MarshalIndent(raws, "", "  ")
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeJSON, "encode catalog")
	}
	b = append(b, '\n')

	path := filepath.Join(dir, domain.OutputFilename)
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeIO, "write %s", path)
	}

	fmt.Fprintln(c.out)
	fmt.Fprintf(c.out, "Saved to %s\n", path)
	return path, nil
}

// Run is the whole consolidation flow: merge, report, write
func (c *Consolidator) Run(dir string) (*domain.Result, string, error) {
	res, err := c.Consolidate(dir)
	if err != nil {
		return nil, "", err
	}
	c.WriteSummary(res)
	path, err := c.WriteCatalog(dir, res)
	if err != nil {
		return res, "", err
	}
	return res, path, nil
}
