package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"media54/types"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/patrickmn/go-cache"
)

// ManifestName is the file name of a collection manifest
const ManifestName = "collection.json"

// DefaultCollectionTitle is the title of a freshly initialised collection
const DefaultCollectionTitle = "New collection"

// CollectionStore interface defines methods for collection persistence
type CollectionStore interface {
	DataRoot() string
	EnsureDataRoot() error
	NextCollectionID() (int, error)
	InitCollection(dirID int) error
	ImportFiles(dirID int, sources []string, opts ...ImportOption) ([]types.ImportedItem, error)
	LoadManifest(dirID int) (*types.CollectionRecord, error)
	SaveManifest(dirID int, record *types.CollectionRecord) error
	ListCollections() ([]types.CollectionSummary, error)
	AssetPath(dirID int, name string) (string, error)
}

// ImportOption configures a single ImportFiles call
type ImportOption func(*importOptions)

type importOptions struct {
	progress func(source string, size int64) io.Writer
}

// WithProgress reports copy progress. fn is called once per source file and
// the returned writer receives every copied byte; it may return nil.
func WithProgress(fn func(source string, size int64) io.Writer) ImportOption {
	return func(o *importOptions) {
		o.progress = fn
	}
}

// collectionStore implements CollectionStore on the local filesystem
type collectionStore struct {
	root      string
	extractor TagExtractor
	ids       *idAllocator
	manifests *cache.Cache

	locks sync.Map // dirID -> *sync.Mutex
}

// NewCollectionStore creates a collection store rooted at root. Manifests read
// from disk are cached for manifestTTL; zero disables caching.
func NewCollectionStore(root string, extractor TagExtractor, manifestTTL time.Duration) CollectionStore {
	if extractor == nil {
		extractor = NewTagExtractor()
	}
	s := &collectionStore{
		root:      filepath.Clean(root),
		extractor: extractor,
		ids:       newIDAllocator(filepath.Clean(root)),
	}
	if manifestTTL > 0 {
		s.manifests = cache.New(manifestTTL, 2*manifestTTL)
	}
	return s
}

func (s *collectionStore) DataRoot() string {
	return s.root
}

func (s *collectionStore) collectionDir(dirID int) string {
	return filepath.Join(s.root, strconv.Itoa(dirID))
}

func (s *collectionStore) lockFor(dirID int) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(dirID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// EnsureDataRoot creates the data root if it does not exist
func (s *collectionStore) EnsureDataRoot() error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return storeErr("ensure data root", -1, s.root, ErrIOFailure, err)
	}
	return nil
}

// NextCollectionID reserves a collection id unique within the data root
func (s *collectionStore) NextCollectionID() (int, error) {
	if err := s.EnsureDataRoot(); err != nil {
		return 0, err
	}
	id, err := s.ids.Next()
	if err != nil {
		return 0, storeErr("allocate id", -1, s.root, ErrIOFailure, err)
	}
	return id, nil
}

// InitCollection creates the collection directory with an empty manifest
func (s *collectionStore) InitCollection(dirID int) error {
	if dirID < 0 {
		return storeErr("init", dirID, "", ErrInvalidRecord, fmt.Errorf("negative collection id"))
	}
	if err := s.EnsureDataRoot(); err != nil {
		return err
	}

	dir := s.collectionDir(dirID)
	if err := os.Mkdir(dir, 0o755); err != nil {
		if os.IsExist(err) {
			return storeErr("init", dirID, dir, ErrAlreadyExists, nil)
		}
		return storeErr("init", dirID, dir, ErrIOFailure, err)
	}

	record := &types.CollectionRecord{Title: DefaultCollectionTitle, Items: []types.CollectionItem{}}
	if err := s.writeManifest(dirID, record); err != nil {
		return storeErr("init", dirID, dir, ErrIOFailure, err)
	}

	log.Printf("Initialised collection %d", dirID)
	return nil
}

// ImportFiles stages copies of sources into the collection directory in input
// order. The first failure aborts the call; files copied before it stay on
// disk.
func (s *collectionStore) ImportFiles(dirID int, sources []string, opts ...ImportOption) ([]types.ImportedItem, error) {
	var o importOptions
	for _, opt := range opts {
		opt(&o)
	}

	dir := s.collectionDir(dirID)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, storeErr("import", dirID, dir, ErrNotFound, err)
	}

	mu := s.lockFor(dirID)
	mu.Lock()
	defer mu.Unlock()

	items := make([]types.ImportedItem, 0, len(sources))
	for _, src := range sources {
		item, err := s.importFile(dirID, dir, src, o)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *collectionStore) importFile(dirID int, dir, src string, o importOptions) (types.ImportedItem, error) {
	itemType := ClassifyFile(src)

	var progress io.Writer
	if o.progress != nil {
		var size int64
		if info, err := os.Stat(src); err == nil {
			size = info.Size()
		}
		progress = o.progress(src, size)
	}

	index, err := countAssets(dir)
	if err != nil {
		return types.ImportedItem{}, storeErr("import", dirID, dir, ErrIOFailure, err)
	}

	var name string
	for {
		name = assetName(index, src)
		err = copyFileExclusive(src, filepath.Join(dir, name), progress)
		if !errors.Is(err, os.ErrExist) {
			break
		}
		// another session staged this index first
		index++
	}
	if err != nil {
		return types.ImportedItem{}, storeErr("import", dirID, src, ErrIOFailure, err)
	}

	item := types.ImportedItem{
		Type:     itemType,
		File:     name,
		Path:     src,
		Filename: filepath.Base(src),
	}
	if itemType.HasTags() {
		tags, err := s.extractor.Extract(src)
		if err != nil {
			return types.ImportedItem{}, storeErr("import", dirID, src, ErrIOFailure, err)
		}
		item.Meta = tags
	}

	log.Printf("Imported %s into collection %d as %s", src, dirID, name)
	return item, nil
}

// assetName builds "<index>.<original extension>"
func assetName(index int, src string) string {
	ext := strings.TrimPrefix(filepath.Ext(src), ".")
	if ext == "" {
		return strconv.Itoa(index)
	}
	return strconv.Itoa(index) + "." + ext
}

// countAssets counts staged files, ignoring the manifest and hidden temp files
func countAssets(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, e := range entries {
		if e.IsDir() || e.Name() == ManifestName || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		count++
	}
	return count, nil
}

// LoadManifest reads and parses the collection manifest
func (s *collectionStore) LoadManifest(dirID int) (*types.CollectionRecord, error) {
	data, err := s.readManifest(dirID)
	if err != nil {
		return nil, err
	}

	var record types.CollectionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		s.forget(dirID)
		return nil, storeErr("load", dirID, s.manifestPath(dirID), ErrCorruptData, err)
	}
	if record.Items == nil {
		record.Items = []types.CollectionItem{}
	}
	return &record, nil
}

func (s *collectionStore) manifestPath(dirID int) string {
	return filepath.Join(s.collectionDir(dirID), ManifestName)
}

// cachedManifest is a manifest's bytes together with the file info they were
// read under
type cachedManifest struct {
	data []byte
	info os.FileInfo
}

// fresh reports whether info still describes the file the entry was read from
func (m cachedManifest) fresh(info os.FileInfo) bool {
	return os.SameFile(m.info, info) &&
		m.info.Size() == info.Size() &&
		m.info.ModTime().Equal(info.ModTime())
}

// readManifest returns the manifest bytes. Cached bytes are only served while
// the file on disk is unchanged, since other processes write manifests too.
func (s *collectionStore) readManifest(dirID int) ([]byte, error) {
	path := s.manifestPath(dirID)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storeErr("load", dirID, path, ErrNotFound, err)
		}
		return nil, storeErr("load", dirID, path, ErrIOFailure, err)
	}

	key := strconv.Itoa(dirID)
	if s.manifests != nil {
		if v, found := s.manifests.Get(key); found {
			if cached := v.(cachedManifest); cached.fresh(info) {
				return cached.data, nil
			}
			s.manifests.Delete(key)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storeErr("load", dirID, path, ErrNotFound, err)
		}
		return nil, storeErr("load", dirID, path, ErrIOFailure, err)
	}

	if s.manifests != nil {
		s.manifests.Set(key, cachedManifest{data: data, info: info}, cache.DefaultExpiration)
	}
	return data, nil
}

func (s *collectionStore) forget(dirID int) {
	if s.manifests != nil {
		s.manifests.Delete(strconv.Itoa(dirID))
	}
}

// SaveManifest overwrites the manifest with record, initialising the
// collection first if needed. A rejected record leaves the disk untouched.
func (s *collectionStore) SaveManifest(dirID int, record *types.CollectionRecord) error {
	if record == nil {
		return storeErr("save", dirID, "", ErrInvalidRecord, fmt.Errorf("nil record"))
	}

	mu := s.lockFor(dirID)
	mu.Lock()
	defer mu.Unlock()

	// a collection that does not exist yet has no staged files, so only
	// records without file references pass
	if err := s.validateRecord(dirID, record); err != nil {
		return err
	}

	if _, err := os.Stat(s.manifestPath(dirID)); os.IsNotExist(err) {
		if err := s.InitCollection(dirID); err != nil && !errors.Is(err, ErrAlreadyExists) {
			return err
		}
	}
	if err := s.writeManifest(dirID, record); err != nil {
		return storeErr("save", dirID, s.manifestPath(dirID), ErrIOFailure, err)
	}
	return nil
}

func (s *collectionStore) writeManifest(dirID int, record *types.CollectionRecord) error {
	out := *record
	if out.Items == nil {
		out.Items = []types.CollectionItem{}
	}

	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return err
	}

	s.forget(dirID)
	if err := writeFileAtomic(s.collectionDir(dirID), ManifestName, data); err != nil {
		return err
	}
	if s.manifests != nil {
		if info, err := os.Stat(s.manifestPath(dirID)); err == nil {
			s.manifests.Set(strconv.Itoa(dirID), cachedManifest{data: data, info: info}, cache.DefaultExpiration)
		}
	}
	return nil
}

// validateRecord checks item types and that every referenced file is staged
// inside the collection directory
func (s *collectionStore) validateRecord(dirID int, record *types.CollectionRecord) error {
	for i, item := range record.Items {
		if !item.Type.Valid() {
			return storeErr("save", dirID, "", ErrInvalidRecord, fmt.Errorf("item %d: unknown type %q", i, item.Type))
		}
		if item.Meta != nil && !item.Type.HasTags() {
			return storeErr("save", dirID, item.File, ErrInvalidRecord, fmt.Errorf("item %d: %s items carry no metadata", i, item.Type))
		}
		if item.File == "" && item.Type == types.ItemTypeLabel {
			continue
		}
		if _, err := s.AssetPath(dirID, item.File); err != nil {
			return storeErr("save", dirID, item.File, ErrInvalidRecord, fmt.Errorf("item %d: %w", i, err))
		}
	}
	return nil
}

// ListCollections returns every readable collection ordered by id.
// Unreadable entries are logged and skipped.
func (s *collectionStore) ListCollections() ([]types.CollectionSummary, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return []types.CollectionSummary{}, nil
		}
		return nil, storeErr("list", -1, s.root, ErrIOFailure, err)
	}

	summaries := make([]types.CollectionSummary, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		id, err := strconv.Atoi(e.Name())
		if err != nil || id < 0 || strconv.Itoa(id) != e.Name() {
			continue
		}

		record, err := s.LoadManifest(id)
		if err != nil {
			log.Printf("Warning: skipping collection %s: %v", e.Name(), err)
			continue
		}
		summaries = append(summaries, types.CollectionSummary{
			ID:    id,
			Title: record.Title,
			Items: len(record.Items),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].ID < summaries[j].ID
	})
	return summaries, nil
}

// AssetPath resolves a staged file name to its path, refusing anything that
// is not a plain file directly inside the collection directory
func (s *collectionStore) AssetPath(dirID int, name string) (string, error) {
	if err := validateAssetName(name); err != nil {
		return "", storeErr("resolve", dirID, name, ErrNotFound, err)
	}

	path := filepath.Join(s.collectionDir(dirID), name)
	info, err := os.Lstat(path)
	if err != nil {
		return "", storeErr("resolve", dirID, name, ErrNotFound, err)
	}
	if !info.Mode().IsRegular() {
		return "", storeErr("resolve", dirID, name, ErrNotFound, fmt.Errorf("not a regular file"))
	}
	return path, nil
}

// validateAssetName checks for path traversal and reserved names
func validateAssetName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("empty file name")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("path separators not allowed")
	}
	if name == ManifestName || strings.HasPrefix(name, ".") {
		return fmt.Errorf("reserved file name")
	}
	return nil
}

// FilterCollections keeps the summaries whose title fuzzily matches query.
// An empty query keeps everything.
func FilterCollections(summaries []types.CollectionSummary, query string) []types.CollectionSummary {
	query = strings.TrimSpace(query)
	if query == "" {
		return summaries
	}
	filtered := make([]types.CollectionSummary, 0, len(summaries))
	for _, c := range summaries {
		if fuzzy.MatchNormalizedFold(query, c.Title) {
			filtered = append(filtered, c)
		}
	}
	return filtered
}
