package analyzer

import (
	"fmt"

	"github.com/grebnev/analyzer/importer"
)

// cacheDocument is the persisted shape of the report cache, stored as
// `cache.json` beside the manifest in the archive.
type cacheDocument struct {
	States     map[string]importer.StateResult      `json:"states"`
	Operations map[string]importer.OperationsResult `json:"operations"`
}

// ReportCache memoizes parsed import results keyed by report path so
// unchanged reports are never re-parsed. Entries are never invalidated:
// removing a report from the manifest is the only way a stale entry
// stops being referenced.
type ReportCache struct {
	repo   *Repository
	logger *Logger
	doc    *cacheDocument
}

// NewReportCache creates a cache backed by the given repository.
func NewReportCache(repo *Repository, logger *Logger) *ReportCache {
	return &ReportCache{repo: repo, logger: logger}
}

// reset drops the in-memory cache document, forcing a reload from the
// archive on next use. Called when the manager switches archives.
func (c *ReportCache) reset() { c.doc = nil }

func (c *ReportCache) load() error {
	if c.doc != nil {
		return nil
	}
	doc := &cacheDocument{
		States:     make(map[string]importer.StateResult),
		Operations: make(map[string]importer.OperationsResult),
	}
	if _, err := c.repo.LoadDocument(cacheEntryName, doc); err != nil {
		// a corrupt cache is only a lost optimization
		c.logger.Printf("report cache unreadable, starting empty: %v", err)
	}
	if doc.States == nil {
		doc.States = make(map[string]importer.StateResult)
	}
	if doc.Operations == nil {
		doc.Operations = make(map[string]importer.OperationsResult)
	}
	c.doc = doc
	return nil
}

// GetOrImportState returns the parsed state report at reportPath,
// parsing and persisting it on a cache miss.
func (c *ReportCache) GetOrImportState(reportPath, format string) (importer.StateResult, error) {
	if err := c.load(); err != nil {
		return importer.StateResult{}, err
	}
	if result, ok := c.doc.States[reportPath]; ok {
		return result, nil
	}
	data, ok, err := c.repo.TryLoadEntry(reportPath)
	if err != nil {
		return importer.StateResult{}, err
	}
	if !ok {
		return importer.StateResult{}, fmt.Errorf("report %q not found in archive", reportPath)
	}
	result := importer.LoadStateByFormat(data, format)
	c.doc.States[reportPath] = result
	c.save()
	return result, nil
}

// GetOrImportOperations returns the parsed operations report at
// reportPath, parsing and persisting it on a cache miss.
func (c *ReportCache) GetOrImportOperations(reportPath, format string) (importer.OperationsResult, error) {
	if err := c.load(); err != nil {
		return importer.OperationsResult{}, err
	}
	if result, ok := c.doc.Operations[reportPath]; ok {
		return result, nil
	}
	data, ok, err := c.repo.TryLoadEntry(reportPath)
	if err != nil {
		return importer.OperationsResult{}, err
	}
	if !ok {
		return importer.OperationsResult{}, fmt.Errorf("report %q not found in archive", reportPath)
	}
	result := importer.LoadOperationsByFormat(data, format)
	c.doc.Operations[reportPath] = result
	c.save()
	return result, nil
}

func (c *ReportCache) save() {
	c.repo.SaveDocument(cacheEntryName, c.doc)
}
