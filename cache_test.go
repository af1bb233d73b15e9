package analyzer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
)

func TestReportCacheMemoizes(t *testing.T) {
	r, dir := newTestRepository(t)
	if err := r.CreateArchive(); err != nil {
		t.Fatalf("CreateArchive: %v", err)
	}
	source := filepath.Join(dir, "2024-03-31.xml")
	content := stateReportXML("2024-03-31", position("US1", "Apple", "USD", "10", "100", "10"))
	if err := os.WriteFile(source, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	if err := r.AddEntry(source, "Reports/alpha/2024-03-31.xml"); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}

	cache := NewReportCache(r, NewLogger())
	result, err := cache.GetOrImportState("Reports/alpha/2024-03-31.xml", "broker-xml")
	if err != nil {
		t.Fatalf("GetOrImportState: %v", err)
	}
	if !result.Success || len(result.Entries) != 1 || !result.Entries[0].Count.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("unexpected parse result: %+v", result)
	}

	// Corrupt the report in the archive. A fresh cache over the same
	// repository must serve the memoized result from cache.json, not
	// re-parse the entry.
	garbage := filepath.Join(dir, "garbage.xml")
	if err := os.WriteFile(garbage, []byte("not xml at all"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := r.AddEntry(garbage, "Reports/alpha/2024-03-31.xml"); err != nil {
		t.Fatalf("AddEntry overwrite: %v", err)
	}

	fresh := NewReportCache(r, NewLogger())
	cached, err := fresh.GetOrImportState("Reports/alpha/2024-03-31.xml", "broker-xml")
	if err != nil {
		t.Fatalf("GetOrImportState from cache: %v", err)
	}
	if !cached.Success || len(cached.Entries) != 1 {
		t.Errorf("cache did not serve the memoized result: %+v", cached)
	}
}

func TestReportCacheMissingReport(t *testing.T) {
	r, _ := newTestRepository(t)
	if err := r.CreateArchive(); err != nil {
		t.Fatalf("CreateArchive: %v", err)
	}
	cache := NewReportCache(r, NewLogger())
	if _, err := cache.GetOrImportState("Reports/alpha/missing.xml", "broker-xml"); err == nil {
		t.Error("importing a missing report did not fail")
	}
}

func TestReportCacheCorruptCache(t *testing.T) {
	r, _ := newTestRepository(t)
	if err := r.CreateArchive(); err != nil {
		t.Fatalf("CreateArchive: %v", err)
	}
	// A corrupt cache.json must not block imports.
	if !r.SaveDocument(cacheEntryName, "garbage") {
		t.Fatal("SaveDocument failed")
	}
	cache := NewReportCache(r, NewLogger())
	if _, err := cache.GetOrImportState("Reports/alpha/missing.xml", "broker-xml"); err == nil {
		t.Error("expected a missing-report error, cache corruption must be the only ignored failure")
	}
}
