package kb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sitesage/internal/adapters/driven/vector/flat"
	"github.com/custodia-labs/sitesage/internal/core/domain"
	"github.com/custodia-labs/sitesage/internal/core/ports/driven"
	"github.com/custodia-labs/sitesage/internal/logger"
)

// Ensure Store implements the interfaces.
var (
	_ driven.KnowledgeBaseStore = (*Store)(nil)
	_ driven.PageManifestStore  = (*Store)(nil)
)

// File and directory names.
const (
	PointerFile   = "CURRENT"
	VersionsDir   = "versions"
	IndexFile     = "embeddings.index"
	DocstoreFile  = "docstore.json"
	ManifestFile  = "manifest.json"
	CrawlReport   = "crawl_report.json"
	stagingPrefix = ".staging-"
)

// KeepVersions is how many published versions survive pruning.
const KeepVersions = 2

// Store reads and writes knowledge base versions under one directory.
type Store struct {
	dir string
	now func() time.Time
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: knowledge base directory is empty", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(filepath.Join(dir, VersionsDir), 0o755); err != nil {
		return nil, fmt.Errorf("create knowledge base directory: %w", err)
	}
	return &Store{dir: dir, now: time.Now}, nil
}

// Dir returns the knowledge base directory.
func (s *Store) Dir() string {
	return s.dir
}

// PointerPath is the file whose replacement signals a new version.
func (s *Store) PointerPath() string {
	return filepath.Join(s.dir, PointerFile)
}

// ==================== Knowledge base ====================

// Publish writes build as a new version and makes it current.
func (s *Store) Publish(ctx context.Context, build *domain.KBBuild) (domain.KBManifest, error) {
	if err := build.Validate(); err != nil {
		return domain.KBManifest{}, err
	}

	builtAt := s.now().UTC()
	manifest := domain.KBManifest{
		Version:    builtAt.Format("20060102T150405Z") + "-" + uuid.NewString()[:8],
		BuiltAt:    builtAt,
		Model:      build.Model,
		Dimensions: build.Dimensions,
		Count:      len(build.Chunks),
	}

	index, err := flat.New(build.Dimensions)
	if err != nil {
		return domain.KBManifest{}, err
	}
	docstore := make(domain.Docstore, len(build.Chunks))
	for i, chunk := range build.Chunks {
		row, err := index.Add(ctx, build.Vectors[i])
		if err != nil {
			return domain.KBManifest{}, fmt.Errorf("index chunk %d: %w", i, err)
		}
		docstore[domain.RowKey(row)] = chunk
	}
	if err := ctx.Err(); err != nil {
		return domain.KBManifest{}, err
	}

	staging := filepath.Join(s.dir, VersionsDir, stagingPrefix+manifest.Version)
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return domain.KBManifest{}, fmt.Errorf("create staging directory: %w", err)
	}
	if err := s.writeVersion(staging, index, docstore, manifest); err != nil {
		os.RemoveAll(staging)
		return domain.KBManifest{}, err
	}

	final := s.versionDir(manifest.Version)
	if err := os.Rename(staging, final); err != nil {
		os.RemoveAll(staging)
		return domain.KBManifest{}, fmt.Errorf("install version: %w", err)
	}
	if err := writeFileAtomic(s.PointerPath(), []byte(manifest.Version+"\n")); err != nil {
		return domain.KBManifest{}, fmt.Errorf("swap current pointer: %w", err)
	}

	logger.Info("Published knowledge base %s (%d chunks, %s)", manifest.Version, manifest.Count, manifest.Model)
	s.prune(manifest.Version)
	return manifest, nil
}

func (s *Store) writeVersion(dir string, index *flat.Index, docstore domain.Docstore, manifest domain.KBManifest) error {
	if err := index.Save(filepath.Join(dir, IndexFile)); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, DocstoreFile), docstore); err != nil {
		return fmt.Errorf("write docstore: %w", err)
	}
	if err := writeJSON(filepath.Join(dir, ManifestFile), manifest); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// Open loads the current version. Without one it returns an empty
// placeholder of the given dimension.
func (s *Store) Open(ctx context.Context, dimensions int) (*driven.KnowledgeBase, error) {
	version, err := s.currentVersion()
	if errors.Is(err, domain.ErrNotFound) {
		index, err := flat.New(max(dimensions, 1))
		if err != nil {
			return nil, err
		}
		return &driven.KnowledgeBase{
			Manifest: domain.KBManifest{Dimensions: dimensions},
			Index:    index,
			Docstore: domain.Docstore{},
		}, nil
	}
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir := s.versionDir(version)
	var manifest domain.KBManifest
	if err := readJSON(filepath.Join(dir, ManifestFile), &manifest); err != nil {
		return nil, fmt.Errorf("read manifest of %s: %w", version, err)
	}
	index, err := flat.Load(filepath.Join(dir, IndexFile))
	if err != nil {
		return nil, fmt.Errorf("load index of %s: %w", version, err)
	}
	var docstore domain.Docstore
	if err := readJSON(filepath.Join(dir, DocstoreFile), &docstore); err != nil {
		return nil, fmt.Errorf("read docstore of %s: %w", version, err)
	}
	if docstore == nil {
		docstore = domain.Docstore{}
	}

	if index.Dimensions() != manifest.Dimensions || index.Len() != manifest.Count {
		return nil, fmt.Errorf("%w: version %s index is %dx%d, manifest says %dx%d",
			domain.ErrMisaligned, version, index.Len(), index.Dimensions(), manifest.Count, manifest.Dimensions)
	}

	return &driven.KnowledgeBase{Manifest: manifest, Index: index, Docstore: docstore}, nil
}

// Current returns the manifest of the current version.
func (s *Store) Current(_ context.Context) (domain.KBManifest, error) {
	version, err := s.currentVersion()
	if err != nil {
		return domain.KBManifest{}, err
	}
	var manifest domain.KBManifest
	if err := readJSON(filepath.Join(s.versionDir(version), ManifestFile), &manifest); err != nil {
		return domain.KBManifest{}, fmt.Errorf("read manifest of %s: %w", version, err)
	}
	return manifest, nil
}

// Versions lists installed versions, oldest first.
func (s *Store) Versions() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, VersionsDir))
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	var versions []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), stagingPrefix) {
			versions = append(versions, e.Name())
		}
	}
	sort.Strings(versions)
	return versions, nil
}

func (s *Store) currentVersion() (string, error) {
	data, err := os.ReadFile(s.PointerPath())
	if errors.Is(err, os.ErrNotExist) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read current pointer: %w", err)
	}
	version := strings.TrimSpace(string(data))
	if version == "" || strings.ContainsAny(version, `/\`) || strings.HasPrefix(version, ".") {
		return "", fmt.Errorf("%w: invalid current pointer %q", domain.ErrInvalidInput, version)
	}
	return version, nil
}

func (s *Store) versionDir(version string) string {
	return filepath.Join(s.dir, VersionsDir, version)
}

// prune removes all but the newest KeepVersions versions, never touching
// current. Failures are logged; a stale directory is harmless.
func (s *Store) prune(current string) {
	versions, err := s.Versions()
	if err != nil {
		logger.Warn("Prune skipped: %v", err)
		return
	}
	if len(versions) <= KeepVersions {
		return
	}
	for _, v := range versions[:len(versions)-KeepVersions] {
		if v == current {
			continue
		}
		if err := os.RemoveAll(s.versionDir(v)); err != nil {
			logger.Warn("Prune %s: %v", v, err)
			continue
		}
		logger.Debug("Pruned knowledge base version %s", v)
	}
}

// ==================== Page manifest ====================

// SavePages replaces crawl_report.json with pages.
func (s *Store) SavePages(_ context.Context, pages []domain.PageRecord) error {
	if pages == nil {
		pages = []domain.PageRecord{}
	}
	data, err := json.MarshalIndent(pages, "", "  ")
	if err != nil {
		return fmt.Errorf("encode page manifest: %w", err)
	}
	return writeFileAtomic(filepath.Join(s.dir, CrawlReport), data)
}

// LoadPages reads crawl_report.json.
func (s *Store) LoadPages(_ context.Context) ([]domain.PageRecord, error) {
	var pages []domain.PageRecord
	err := readJSON(filepath.Join(s.dir, CrawlReport), &pages)
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.ErrNoManifest
	}
	if err != nil {
		return nil, fmt.Errorf("read page manifest: %w", err)
	}
	return pages, nil
}

// ==================== Helpers ====================

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// writeFileAtomic writes to a temp file in the same directory and renames it.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
