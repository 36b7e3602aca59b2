package service

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	kit "localist/internal/platform/testkit"
	"localist/internal/services/catalog/domain"
)

func TestConsolidateMergesAndDeduplicates(t *testing.T) {
	dir := t.TempDir()
	kit.WriteFile(t, dir, "a.json", `[{"name":"Cafe","city_id":"NYC","source":"a"}]`)
	kit.WriteFile(t, dir, "b.json", `[{"name":"Cafe","city_id":"NYC","source":"b"},{"name":"Bistro","city_id":"LA"}]`)

	var out bytes.Buffer
	res, err := New(&out).Consolidate(dir)
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}
	if res.Total() != 2 {
		t.Fatalf("Total = %d, want 2", res.Total())
	}

	// first-seen wins: the Cafe from a.json survives, b.json's copy is dropped
	var first map[string]any
	if err := json.Unmarshal(res.Records[0].Raw, &first); err != nil {
		t.Fatalf("decode kept record: %v", err)
	}
	if first["source"] != "a" {
		t.Fatalf("kept record came from %v, want a.json", first["source"])
	}
	if res.Records[1].Name != "Bistro" || res.Records[1].CityID != "LA" {
		t.Fatalf("second record = %+v", res.Records[1])
	}

	// city counts report one venue each
	want := map[string]int{"NYC": 1, "LA": 1}
	if len(res.Counts) != 2 {
		t.Fatalf("Counts = %+v", res.Counts)
	}
	for _, row := range res.Counts {
		if want[row.CityID] != row.Venues {
			t.Fatalf("count for %s = %d, want %d", row.CityID, row.Venues, want[row.CityID])
		}
	}
}

func TestConsolidateUniqueIdentityAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	kit.WriteFile(t, dir, "one.json", `[{"name":"A","city_id":"X"},{"name":"B","city_id":"X"},{"name":"A","city_id":"Y"}]`)
	kit.WriteFile(t, dir, "two.json", `[{"name":"A","city_id":"X"},{"name":"C","city_id":"Y"}]`)

	res, err := New(&bytes.Buffer{}).Consolidate(dir)
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}

	seen := map[string]bool{}
	for _, rec := range res.Records {
		k := rec.Key()
		if seen[k] {
			t.Fatalf("duplicate identity %q in output", k)
		}
		seen[k] = true
	}
	if res.Total() != 4 {
		t.Fatalf("Total = %d, want 4 distinct identities", res.Total())
	}
}

func TestConsolidateMalformedFileSkippedEntirely(t *testing.T) {
	dir := t.TempDir()
	// a record slips in before the file turns out malformed at the top level
	kit.WriteFile(t, dir, "bad.json", `[{"name":"Ghost","city_id":"NYC"}`)
	kit.WriteFile(t, dir, "good.json", `[{"name":"Cafe","city_id":"NYC"}]`)

	var out bytes.Buffer
	res, err := New(&out).Consolidate(dir)
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}
	if res.Total() != 1 || res.Records[0].Name != "Cafe" {
		t.Fatalf("records = %+v, want only Cafe", res.Records)
	}
	if len(res.Failures) != 1 || res.Failures[0].File != "bad.json" {
		t.Fatalf("failures = %+v", res.Failures)
	}
	kit.MustContain(t, out.String(), "Error processing bad.json:")
}

func TestConsolidateNonObjectElementRejectsFile(t *testing.T) {
	dir := t.TempDir()
	kit.WriteFile(t, dir, "mixed.json", `[{"name":"Kept?","city_id":"NYC"}, 42]`)

	var out bytes.Buffer
	res, err := New(&out).Consolidate(dir)
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}
	// no partial records from a failing file
	if res.Total() != 0 {
		t.Fatalf("Total = %d, want 0", res.Total())
	}
	kit.MustContain(t, out.String(), "Error processing mixed.json:")
}

func TestConsolidateMissingCityCountsAsUnknown(t *testing.T) {
	dir := t.TempDir()
	kit.WriteFile(t, dir, "v.json", `[{"name":"Nowhere Bar"},{"name":"Empty City","city_id":""}]`)

	res, err := New(&bytes.Buffer{}).Consolidate(dir)
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}
	if len(res.Counts) != 1 || res.Counts[0].CityID != domain.UnknownCity || res.Counts[0].Venues != 2 {
		t.Fatalf("Counts = %+v, want unknown: 2", res.Counts)
	}
}

func TestConsolidateNumericCityID(t *testing.T) {
	dir := t.TempDir()
	kit.WriteFile(t, dir, "v.json", `[{"name":"Pier","city_id":7},{"name":"Pier","city_id":"7"}]`)

	res, err := New(&bytes.Buffer{}).Consolidate(dir)
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}
	// a bare 7 and a "7" render to the same identity text
	if res.Total() != 1 {
		t.Fatalf("Total = %d, want 1", res.Total())
	}
	if res.Records[0].CityID != "7" {
		t.Fatalf("CityID = %q, want 7", res.Records[0].CityID)
	}
}

func TestConsolidateIgnoresOutputFileAndNonJSON(t *testing.T) {
	dir := t.TempDir()
	kit.WriteFile(t, dir, domain.OutputFilename, `[{"name":"Stale","city_id":"OLD"}]`)
	kit.WriteFile(t, dir, "notes.txt", `not json`)
	kit.WriteFile(t, dir, "v.json", `[{"name":"Cafe","city_id":"NYC"}]`)
	if err := os.Mkdir(filepath.Join(dir, "sub.json"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	res, err := New(&bytes.Buffer{}).Consolidate(dir)
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}
	if res.Total() != 1 || res.Records[0].Name != "Cafe" {
		t.Fatalf("records = %+v", res.Records)
	}
	if len(res.Failures) != 0 {
		t.Fatalf("failures = %+v", res.Failures)
	}
}

func TestConsolidateMissingDirIsFatal(t *testing.T) {
	_, err := New(&bytes.Buffer{}).Consolidate(filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatalf("expected error for missing directory")
	}
}

func TestRunWritesCatalogAndSummary(t *testing.T) {
	dir := t.TempDir()
	kit.WriteFile(t, dir, "a.json", `[{"name":"Cafe","city_id":"NYC"}]`)
	kit.WriteFile(t, dir, "b.json", `[{"name":"Cafe","city_id":"NYC"},{"name":"Bistro","city_id":"LA"}]`)

	var out bytes.Buffer
	res, path, err := New(&out).Run(dir)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Total() != 2 {
		t.Fatalf("Total = %d, want 2", res.Total())
	}
	if path != filepath.Join(dir, domain.OutputFilename) {
		t.Fatalf("path = %q", path)
	}

	kit.MustContain(t, out.String(), "Total unique venues: 2")
	kit.MustContain(t, out.String(), "By city:")
	kit.MustContain(t, out.String(), "  NYC: 1")
	kit.MustContain(t, out.String(), "  LA: 1")
	kit.MustContain(t, out.String(), "Saved to "+path)

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read catalog: %v", err)
	}
	var got []map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("catalog is not a JSON array: %v", err)
	}
	if len(got) != 2 || got[0]["name"] != "Cafe" || got[1]["name"] != "Bistro" {
		t.Fatalf("catalog = %+v", got)
	}
	// pretty-printed with 2-space indent
	if !strings.Contains(string(b), "\n  {") {
		t.Fatalf("catalog is not indented:\n%s", b)
	}
}

func TestRunIdempotent(t *testing.T) {
	dir := t.TempDir()
	kit.WriteFile(t, dir, "a.json", `[{"name":"Cafe","city_id":"NYC"},{"name":"Bar","city_id":"SF"}]`)

	if _, _, err := New(&bytes.Buffer{}).Run(dir); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	first, err := os.ReadFile(filepath.Join(dir, domain.OutputFilename))
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	// second pass sees the output file in the dir and must ignore it
	if _, _, err := New(&bytes.Buffer{}).Run(dir); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	second, err := os.ReadFile(filepath.Join(dir, domain.OutputFilename))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("output is not byte-identical across runs")
	}
}

func TestRunEmptyDirectory(t *testing.T) {
	dir := t.TempDir()

	var out bytes.Buffer
	res, path, err := New(&out).Run(dir)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Total() != 0 {
		t.Fatalf("Total = %d, want 0", res.Total())
	}
	kit.MustContain(t, out.String(), "Total unique venues: 0")

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read catalog: %v", err)
	}
	if strings.TrimSpace(string(b)) != "[]" {
		t.Fatalf("empty catalog = %q, want []", b)
	}
}

func TestRunOverwritesPreviousCatalog(t *testing.T) {
	dir := t.TempDir()
	kit.WriteFile(t, dir, domain.OutputFilename, `[{"name":"Stale","city_id":"OLD"}]`)
	kit.WriteFile(t, dir, "a.json", `[{"name":"Fresh","city_id":"NYC"}]`)

	if _, _, err := New(&bytes.Buffer{}).Run(dir); err != nil {
		t.Fatalf("Run: %v", err)
	}
	b, _ := os.ReadFile(filepath.Join(dir, domain.OutputFilename))
	if strings.Contains(string(b), "Stale") {
		t.Fatalf("previous catalog content survived: %s", b)
	}
}

func TestSummaryOrdersByCountDescending(t *testing.T) {
	dir := t.TempDir()
	kit.WriteFile(t, dir, "v.json", `[
		{"name":"A","city_id":"LA"},
		{"name":"B","city_id":"NYC"},
		{"name":"C","city_id":"NYC"},
		{"name":"D","city_id":"NYC"},
		{"name":"E","city_id":"SF"},
		{"name":"F","city_id":"SF"}
	]`)

	var out bytes.Buffer
	if _, _, err := New(&out).Run(dir); err != nil {
		t.Fatalf("Run: %v", err)
	}
	s := out.String()
	nyc, sf, la := strings.Index(s, "NYC: 3"), strings.Index(s, "SF: 2"), strings.Index(s, "LA: 1")
	if nyc < 0 || sf < 0 || la < 0 {
		t.Fatalf("missing count lines:\n%s", s)
	}
	if !(nyc < sf && sf < la) {
		t.Fatalf("cities not in descending count order:\n%s", s)
	}
}

func TestSortCountsStableTieBreak(t *testing.T) {
	in := map[string]int{"lisbon": 2, "berlin": 2, "porto": 5}
	a := sortCounts(in)
	b := sortCounts(in)
	if a[0].CityID != "porto" {
		t.Fatalf("highest count should sort first, got %+v", a)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("tie order unstable: %+v vs %+v", a, b)
		}
	}
	if a[1].CityID != "berlin" || a[2].CityID != "lisbon" {
		t.Fatalf("tie break order = %+v", a)
	}
}

func TestFieldString(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"NYC", "NYC"},
		{float64(7), "7"},
		{7.5, "7.5"},
		{true, "true"},
	}
	for _, c := range cases {
		if got := fieldString(c.in); got != c.want {
			t.Fatalf("fieldString(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}
