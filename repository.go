package analyzer

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

const (
	manifestEntryName = "state.json"
	cacheEntryName    = "cache.json"
	startupFileName   = "anz.startup.json"
)

var (
	// ErrNoArchivePath is returned when an archive operation runs before
	// a path was pinned.
	ErrNoArchivePath = errors.New("archive path is not set")
	// ErrArchiveNotFound is returned when a read-only operation targets a
	// nonexistent archive.
	ErrArchiveNotFound = errors.New("archive file not found")
)

// Startup is a small JSON document stored beside the executable that
// records the last-used archive path, enabling zero-config relaunch.
type Startup struct {
	FilePath string `json:"filePath"`
}

// Repository is the sole owner of the durable container file: a zip
// archive holding the manifest, the parsed-report cache and raw report
// files.
//
// Every call opens the archive, performs one read or one atomic
// read-mutate-commit cycle, and closes it; no handle is held across
// calls. This relies on the orchestration layer never issuing concurrent
// writes to the same archive.
type Repository struct {
	// FilePath locates the archive. Operations fail with
	// ErrNoArchivePath while it is unset.
	FilePath string

	// StartupDir overrides the directory of the startup config.
	// Defaults to the executable's directory.
	StartupDir string

	logger *Logger
}

// NewRepository creates a repository reporting to the given logger.
func NewRepository(logger *Logger) *Repository {
	return &Repository{logger: logger}
}

// read opens the archive and returns all entries by name.
func (r *Repository) read() (map[string][]byte, error) {
	if r.FilePath == "" {
		return nil, ErrNoArchivePath
	}
	if _, err := os.Stat(r.FilePath); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrArchiveNotFound, r.FilePath)
	}
	zr, err := zip.OpenReader(r.FilePath)
	if err != nil {
		return nil, fmt.Errorf("cannot open archive %q: %w", r.FilePath, err)
	}
	defer zr.Close()

	entries := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("cannot open archive entry %q: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("cannot read archive entry %q: %w", f.Name, err)
		}
		entries[f.Name] = data
	}
	return entries, nil
}

// commit atomically replaces the archive with the given entries: the new
// archive is written to a temporary file first and renamed over the old
// one, so a failed write never corrupts the container.
func (r *Repository) commit(entries map[string][]byte) (err error) {
	if r.FilePath == "" {
		return ErrNoArchivePath
	}
	tmp, err := os.CreateTemp(filepath.Dir(r.FilePath), ".archive-*")
	if err != nil {
		return fmt.Errorf("cannot create temporary archive: %w", err)
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()

	zw := zip.NewWriter(tmp)
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			zw.Close()
			tmp.Close()
			return fmt.Errorf("cannot create archive entry %q: %w", name, err)
		}
		if _, err := w.Write(entries[name]); err != nil {
			zw.Close()
			tmp.Close()
			return fmt.Errorf("cannot write archive entry %q: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		return fmt.Errorf("cannot finalize archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cannot close temporary archive: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.FilePath); err != nil {
		return fmt.Errorf("cannot commit archive %q: %w", r.FilePath, err)
	}
	return nil
}

// update runs one read-mutate-commit transaction against the archive.
// If mutate returns an error the archive is left untouched.
func (r *Repository) update(mutate func(entries map[string][]byte) error) error {
	entries, err := r.read()
	if err != nil {
		return err
	}
	if err := mutate(entries); err != nil {
		return err
	}
	return r.commit(entries)
}

// CreateArchive creates an empty archive at FilePath unless one already
// exists.
func (r *Repository) CreateArchive() error {
	if r.FilePath == "" {
		return ErrNoArchivePath
	}
	if _, err := os.Stat(r.FilePath); err == nil {
		return nil
	}
	return r.commit(map[string][]byte{})
}

// LoadOrCreateManifest reads and deserializes the manifest entry.
// An absent or corrupt entry degrades to an empty manifest (corruption
// is logged, never crashes the caller). A nonexistent archive is a hard
// error.
func (r *Repository) LoadOrCreateManifest() (*Manifest, error) {
	entries, err := r.read()
	if err != nil {
		return nil, err
	}
	data, ok := entries[manifestEntryName]
	if !ok {
		return NewManifest(), nil
	}
	manifest := NewManifest()
	if err := json.Unmarshal(data, manifest); err != nil {
		r.logger.Printf("corrupt manifest in %q, starting empty: %v", r.FilePath, err)
		return NewManifest(), nil
	}
	manifest.normalize()
	return manifest, nil
}

// SaveManifest serializes and overwrites the manifest entry. On failure
// it logs and returns false instead of propagating.
func (r *Repository) SaveManifest(m *Manifest) bool {
	return r.SaveDocument(manifestEntryName, m)
}

// LoadDocument deserializes a JSON document entry into v. Returns false
// if the entry is absent.
func (r *Repository) LoadDocument(entryPath string, v any) (bool, error) {
	entries, err := r.read()
	if err != nil {
		return false, err
	}
	data, ok := entries[entryPath]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("corrupt document %q: %w", entryPath, err)
	}
	return true, nil
}

// SaveDocument serializes v as an indented JSON document entry. On
// failure it logs and returns false.
func (r *Repository) SaveDocument(entryPath string, v any) bool {
	data, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		r.logger.Printf("cannot serialize %q: %v", entryPath, err)
		return false
	}
	err = r.update(func(entries map[string][]byte) error {
		entries[entryPath] = data
		return nil
	})
	if err != nil {
		r.logger.Printf("cannot save %q: %v", entryPath, err)
		return false
	}
	return true
}

// TryLoadEntry returns the bytes of an archive entry, or ok=false if the
// entry is absent.
func (r *Repository) TryLoadEntry(entryPath string) (data []byte, ok bool, err error) {
	entries, err := r.read()
	if err != nil {
		return nil, false, err
	}
	data, ok = entries[entryPath]
	return data, ok, nil
}

// AddEntry copies the bytes of an external file into a new archive
// entry, overwriting a previous entry of the same name.
func (r *Repository) AddEntry(sourcePath, entryPath string) error {
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return fmt.Errorf("cannot read %q: %w", sourcePath, err)
	}
	return r.update(func(entries map[string][]byte) error {
		entries[entryPath] = data
		return nil
	})
}

// DeleteEntry removes an archive entry if present; no-op otherwise.
func (r *Repository) DeleteEntry(entryPath string) error {
	entries, err := r.read()
	if err != nil {
		return err
	}
	if _, ok := entries[entryPath]; !ok {
		return nil
	}
	delete(entries, entryPath)
	return r.commit(entries)
}

// startupPath locates the startup config beside the executable.
func (r *Repository) startupPath() string {
	dir := r.StartupDir
	if dir == "" {
		if exe, err := os.Executable(); err == nil {
			dir = filepath.Dir(exe)
		}
	}
	return filepath.Join(dir, startupFileName)
}

// LoadOrCreateStartup reads the startup config, or returns an empty one
// if the file does not exist or cannot be parsed.
func (r *Repository) LoadOrCreateStartup() *Startup {
	data, err := os.ReadFile(r.startupPath())
	if err != nil {
		return &Startup{}
	}
	var startup Startup
	if err := json.Unmarshal(data, &startup); err != nil {
		r.logger.Printf("corrupt startup config %q, starting empty: %v", r.startupPath(), err)
		return &Startup{}
	}
	return &startup
}

// SaveStartup overwrites the startup config.
func (r *Repository) SaveStartup(startup *Startup) error {
	data, err := json.MarshalIndent(startup, "", "\t")
	if err != nil {
		return fmt.Errorf("cannot serialize startup config: %w", err)
	}
	if err := os.WriteFile(r.startupPath(), data, 0644); err != nil {
		return fmt.Errorf("cannot save startup config: %w", err)
	}
	return nil
}
