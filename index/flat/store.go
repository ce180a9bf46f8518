/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package flat implements the local index backend: a JSON records file and a
// binary vector file searched by exact inner product.
package flat

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	iofs "io/fs"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"

	"bennypowers.dev/tokenrag/embedding"
	"bennypowers.dev/tokenrag/fs"
	"bennypowers.dev/tokenrag/index"
	"bennypowers.dev/tokenrag/internal/logger"
	"bennypowers.dev/tokenrag/token"
)

// Backend is the name this store reports in Stats.
const Backend = "flat"

const lockRetryDelay = 50 * time.Millisecond

// Options locates the index files.
type Options struct {
	// IndexPath is the binary vector file.
	IndexPath string

	// RecordsPath is the JSON array of records, aligned with the vectors.
	RecordsPath string

	// LockPath is an advisory lock file on the OS filesystem. Builds hold it
	// exclusively and searches shared. Empty disables locking.
	LockPath string
}

// Store is a flat, exact-search index over local files.
// Position i in the records file corresponds to row i of the vector file.
type Store struct {
	fs       fs.FileSystem
	embedder embedding.Embedder
	opts     Options
}

var _ index.Store = (*Store)(nil)

// New creates a flat store. The embedder may be nil for Stats and Drop.
func New(filesystem fs.FileSystem, embedder embedding.Embedder, opts Options) *Store {
	return &Store{fs: filesystem, embedder: embedder, opts: opts}
}

// Ensure creates the directories holding the index files.
func (s *Store) Ensure(ctx context.Context) error {
	for _, p := range []string{s.opts.IndexPath, s.opts.RecordsPath, s.opts.LockPath} {
		if p == "" {
			continue
		}
		if dir := filepath.Dir(p); dir != "." {
			if err := s.fs.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("cannot create index dir %s: %w", dir, err)
			}
		}
	}
	return nil
}

// Build embeds all records in one batch and replaces both index files.
// Vectors are stored unit length so that search is a plain inner product.
// A record whose vector is all zeros, such as text with no terms known to a
// glove or lexical vocabulary, has no direction to normalize; it is left out
// of the index and counted as failed.
func (s *Store) Build(ctx context.Context, records []token.Record) (index.BuildResult, error) {
	if s.embedder == nil {
		return index.BuildResult{}, fmt.Errorf("flat index: no embedder configured")
	}
	unlock, err := s.lock(ctx, true)
	if err != nil {
		return index.BuildResult{}, err
	}
	defer unlock()

	if records == nil {
		records = []token.Record{}
	}
	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.Text
	}

	vecs, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return index.BuildResult{}, fmt.Errorf("cannot embed records: %w", err)
	}
	if len(vecs) != len(records) {
		return index.BuildResult{}, fmt.Errorf("embedder returned %d vectors for %d records", len(vecs), len(records))
	}

	dim := s.embedder.Dimension()
	vectors := make([]float32, 0, len(records)*dim)
	kept := make([]token.Record, 0, len(records))
	failed := 0
	for i, v := range vecs {
		if len(v) != dim {
			return index.BuildResult{}, fmt.Errorf("%w: %s has %d, expected %d",
				index.ErrDimensionMismatch, records[i].Name, len(v), dim)
		}
		if embedding.Norm(v) == 0 {
			logger.Warn("skipping %s: embedding is a zero vector", records[i].Name)
			failed++
			continue
		}
		vectors = append(vectors, embedding.NormalizeL2(v)...)
		kept = append(kept, records[i])
	}
	records = kept

	recordsData, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return index.BuildResult{}, err
	}
	vectorData, err := encodeVectors(header{
		Dim:     dim,
		Count:   len(records),
		ModelID: s.embedder.ModelID(),
		Digest:  sha256.Sum256(recordsData),
	}, vectors)
	if err != nil {
		return index.BuildResult{}, err
	}

	if err := s.install(recordsData, vectorData); err != nil {
		return index.BuildResult{}, err
	}
	logger.Debug("wrote %d vectors of dimension %d to %s", len(records), dim, s.opts.IndexPath)
	return index.BuildResult{Indexed: len(records), Failed: failed}, nil
}

// install writes both files beside their targets and renames them into place.
// A crash between the two renames leaves a pair whose digests disagree, which
// load reports as corrupt.
func (s *Store) install(recordsData, vectorData []byte) error {
	recordsTmp := s.opts.RecordsPath + ".tmp"
	indexTmp := s.opts.IndexPath + ".tmp"

	if err := s.fs.WriteFile(recordsTmp, recordsData, 0o644); err != nil {
		return fmt.Errorf("cannot write records file: %w", err)
	}
	if err := s.fs.WriteFile(indexTmp, vectorData, 0o644); err != nil {
		_ = s.fs.Remove(recordsTmp)
		return fmt.Errorf("cannot write index file: %w", err)
	}
	if err := s.fs.Rename(recordsTmp, s.opts.RecordsPath); err != nil {
		_ = s.fs.Remove(recordsTmp)
		_ = s.fs.Remove(indexTmp)
		return fmt.Errorf("cannot install records file: %w", err)
	}
	if err := s.fs.Rename(indexTmp, s.opts.IndexPath); err != nil {
		_ = s.fs.Remove(indexTmp)
		return fmt.Errorf("cannot install index file: %w", err)
	}
	return nil
}

// Search embeds query and returns the k records with the highest cosine
// similarity. Ties keep index order.
func (s *Store) Search(ctx context.Context, query string, k int) ([]index.Hit, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("flat index: no embedder configured")
	}
	unlock, err := s.lock(ctx, false)
	if err != nil {
		return nil, err
	}
	defer unlock()

	idx, err := s.load()
	if err != nil {
		return nil, err
	}
	if idx.header.Count == 0 || k <= 0 {
		return []index.Hit{}, nil
	}
	if idx.header.ModelID != s.embedder.ModelID() {
		return nil, fmt.Errorf("%w: built with %s, searching with %s",
			index.ErrModelMismatch, idx.header.ModelID, s.embedder.ModelID())
	}

	q, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("cannot embed query: %w", err)
	}
	if len(q) != idx.header.Dim {
		return nil, fmt.Errorf("%w: query has %d, index has %d", index.ErrDimensionMismatch, len(q), idx.header.Dim)
	}
	q = embedding.NormalizeL2(q)

	dim := idx.header.Dim
	hits := make([]index.Hit, len(idx.records))
	for i, rec := range idx.records {
		hits[i] = index.Hit{
			Record: rec,
			Score:  embedding.Dot(q, idx.vectors[i*dim:(i+1)*dim]),
		}
	}
	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Score > hits[b].Score
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Stats reports the persisted index. A missing index is ErrIndexNotFound.
func (s *Store) Stats(ctx context.Context) (index.Stats, error) {
	unlock, err := s.lock(ctx, false)
	if err != nil {
		return index.Stats{}, err
	}
	defer unlock()

	idx, err := s.load()
	if err != nil {
		return index.Stats{}, err
	}
	return index.Stats{
		Backend:   Backend,
		Location:  s.opts.IndexPath,
		Count:     idx.header.Count,
		Dimension: idx.header.Dim,
		ModelID:   idx.header.ModelID,
	}, nil
}

// Drop removes both index files and any leftovers of an interrupted build.
func (s *Store) Drop(ctx context.Context) error {
	unlock, err := s.lock(ctx, true)
	if err != nil {
		return err
	}
	defer unlock()

	for _, p := range []string{
		s.opts.IndexPath,
		s.opts.RecordsPath,
		s.opts.IndexPath + ".tmp",
		s.opts.RecordsPath + ".tmp",
	} {
		if err := s.fs.Remove(p); err != nil && !fs.IsNotExist(err) {
			return fmt.Errorf("cannot remove %s: %w", p, err)
		}
	}
	return nil
}

type loaded struct {
	header  header
	records []token.Record
	vectors []float32
}

func (s *Store) load() (*loaded, error) {
	recordsData, err := s.fs.ReadFile(s.opts.RecordsPath)
	if fs.IsNotExist(err) {
		return nil, index.ErrIndexNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read records file %s: %w", s.opts.RecordsPath, err)
	}
	vectorData, err := s.fs.ReadFile(s.opts.IndexPath)
	if fs.IsNotExist(err) {
		return nil, index.ErrIndexNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read index file %s: %w", s.opts.IndexPath, err)
	}

	h, vectors, err := decodeVectors(vectorData)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", index.ErrIndexCorrupt, s.opts.IndexPath, err)
	}
	if h.Digest != sha256.Sum256(recordsData) {
		return nil, fmt.Errorf("%w: %s does not belong to %s",
			index.ErrIndexCorrupt, s.opts.RecordsPath, s.opts.IndexPath)
	}

	var records []token.Record
	if err := json.Unmarshal(recordsData, &records); err != nil {
		return nil, fmt.Errorf("%w: invalid records JSON %s: %w", index.ErrIndexCorrupt, s.opts.RecordsPath, err)
	}
	if len(records) != h.Count {
		return nil, fmt.Errorf("%w: %d records for %d vectors", index.ErrIndexCorrupt, len(records), h.Count)
	}
	for i := range records {
		records[i] = records[i].Normalize()
	}

	return &loaded{header: h, records: records, vectors: vectors}, nil
}

// lock takes the advisory lock. A lock whose directory does not exist is
// skipped: there is no index there to protect, and Ensure creates it before a build.
func (s *Store) lock(ctx context.Context, exclusive bool) (func(), error) {
	if s.opts.LockPath == "" {
		return func() {}, nil
	}

	l := flock.New(s.opts.LockPath)
	var (
		locked bool
		err    error
	)
	if exclusive {
		locked, err = l.TryLockContext(ctx, lockRetryDelay)
	} else {
		locked, err = l.TryRLockContext(ctx, lockRetryDelay)
	}
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return func() {}, nil
		}
		return nil, fmt.Errorf("cannot acquire index lock %s: %w", s.opts.LockPath, err)
	}
	if !locked {
		return nil, fmt.Errorf("cannot acquire index lock %s", s.opts.LockPath)
	}
	return func() { _ = l.Unlock() }, nil
}
