// Package tokens caches the backend's semantic tokens per document and answers
// position queries against them.
package tokens

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"agatypes/internal/core/errors"
	"agatypes/internal/engine/types"
	"agatypes/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultCapacity bounds how many documents the index keeps when the caller
// does not say otherwise.
const DefaultCapacity = 256

// Backend produces the tokens of one file. A *types.Diagnostic anywhere in
// the returned error chain marks a structured failure.
type Backend interface {
	Tokens(ctx context.Context, path string) (types.FileTokens, error)
}

// Document is the editor's view of an open file.
type Document struct {
	Path string
	// Version is the editor's change counter. Zero means the editor has none,
	// in which case the content hash alone decides freshness.
	Version int
	// Content returns the current text. It is only called when the version
	// cannot decide freshness on its own.
	Content func() []byte
}

type entry struct {
	tokens  Set
	module  *types.Class
	hash    string
	version int
}

// Index is the per-session token cache. Each document has its own refresh
// lock, so two refreshes of one document never overlap while different
// documents refresh independently.
type Index struct {
	backend Backend
	entries *lruCache[string, *entry]

	mu        sync.Mutex
	locks     map[string]*sync.Mutex
	failures  map[string]error
	onRefresh RefreshFunc
}

// RefreshFunc observes a successful refresh. It runs while the document's
// refresh lock is held and must not call back into the index for the same
// document.
type RefreshFunc func(ctx context.Context, doc Document, set Set)

// OnRefresh registers fn to run after every successful refresh. It is meant
// to be called once, before the index is shared.
func (ix *Index) OnRefresh(fn RefreshFunc) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.onRefresh = fn
}

func NewIndex(backend Backend, capacity int) *Index {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	ix := &Index{
		backend:  backend,
		locks:    make(map[string]*sync.Mutex),
		failures: make(map[string]error),
	}
	ix.entries = newLRUCache(capacity, func(path string, _ *entry) {
		observability.TokenEvictionsTotal.Inc()
		ix.dropIdleLock(path)
		slog.Debug("token cache evicted document", "path", path)
	})
	return ix
}

// acquire locks path's refresh lock. A lock that was dropped from the map
// while the caller waited on it is released and the lookup retried, so at
// most one live lock exists per path.
func (ix *Index) acquire(path string) *sync.Mutex {
	for {
		ix.mu.Lock()
		l, ok := ix.locks[path]
		if !ok {
			l = &sync.Mutex{}
			ix.locks[path] = l
		}
		ix.mu.Unlock()

		l.Lock()
		ix.mu.Lock()
		current := ix.locks[path]
		ix.mu.Unlock()
		if current == l {
			return l
		}
		l.Unlock()
	}
}

// release unlocks l and, when forget is set, drops it from the map first.
func (ix *Index) release(path string, l *sync.Mutex, forget bool) {
	if forget {
		ix.mu.Lock()
		if ix.locks[path] == l {
			delete(ix.locks, path)
		}
		ix.mu.Unlock()
	}
	l.Unlock()
}

// releaseUncached unlocks l and forgets it when path has nothing cached, so
// reads of failing or unknown documents leave no lock behind.
func (ix *Index) releaseUncached(path string, l *sync.Mutex) {
	_, cached := ix.entries.peek(path)
	ix.release(path, l, !cached)
}

// dropIdleLock forgets an evicted document's lock unless a refresh of it is
// in flight.
func (ix *Index) dropIdleLock(path string) {
	ix.mu.Lock()
	l, ok := ix.locks[path]
	ix.mu.Unlock()
	if !ok || !l.TryLock() {
		return
	}
	ix.release(path, l, true)
}

// Read returns the document's tokens sorted by location start, refreshing
// them from the backend when the cache is stale.
//
// A structured backend failure is returned as a BACKEND_FAILURE DomainError
// wrapping the *types.Diagnostic, together with an empty set. Any other
// backend failure is logged and yields an empty set and a nil error. In both
// cases the previously cached tokens stay in place for the next read.
func (ix *Index) Read(ctx context.Context, doc Document) (Set, error) {
	set, _, err := ix.read(ctx, doc)
	return set, err
}

// Refresh reads doc and reports whether the backend was consulted and
// returned tokens. A cache hit and a swallowed backend failure both report
// false.
func (ix *Index) Refresh(ctx context.Context, doc Document) (bool, error) {
	_, refreshed, err := ix.read(ctx, doc)
	return refreshed, err
}

func (ix *Index) read(ctx context.Context, doc Document) (Set, bool, error) {
	lock := ix.acquire(doc.Path)
	defer ix.releaseUncached(doc.Path, lock)

	cached, ok := ix.entries.get(doc.Path)
	refresh, hash := ix.shouldRefresh(cached, ok, doc)
	if !refresh {
		observability.TokenCacheHitsTotal.Inc()
		return cached.tokens, false, nil
	}
	return ix.refresh(ctx, doc, hash)
}

// ShouldRefresh reports whether the next Read of doc would call the backend.
func (ix *Index) ShouldRefresh(doc Document) bool {
	lock := ix.acquire(doc.Path)
	defer ix.releaseUncached(doc.Path, lock)

	cached, ok := ix.entries.peek(doc.Path)
	refresh, _ := ix.shouldRefresh(cached, ok, doc)
	return refresh
}

// shouldRefresh checks the version first and falls back to the content hash.
// A hash match under a new version records the version so the next read
// short-circuits. The returned hash is empty when it was not computed.
func (ix *Index) shouldRefresh(cached *entry, ok bool, doc Document) (bool, string) {
	if !ok {
		return true, ""
	}
	if doc.Version != 0 && cached.version == doc.Version {
		return false, ""
	}
	if doc.Content == nil {
		return true, ""
	}
	hash := HashContent(doc.Content())
	if hash == cached.hash {
		if doc.Version != 0 {
			cached.version = doc.Version
		}
		return false, hash
	}
	return true, hash
}

func (ix *Index) refresh(ctx context.Context, doc Document, hash string) (Set, bool, error) {
	ctx, span := observability.Tracer.Start(ctx, "tokens.Index.refresh", trace.WithAttributes(
		attribute.String("path", doc.Path),
		attribute.Int("version", doc.Version),
	))
	defer span.End()

	if hash == "" && doc.Content != nil {
		hash = HashContent(doc.Content())
	}

	start := time.Now()
	result, err := ix.backend.Tokens(ctx, doc.Path)
	observability.BackendDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		var diag *types.Diagnostic
		if stderrors.As(err, &diag) {
			observability.TokenRefreshTotal.WithLabelValues("diagnostic").Inc()
			wrapped := errors.AddContext(errors.Wrap(diag, errors.CodeBackendFailure, "backend reported a diagnostic"), errors.CtxPath, doc.Path)
			ix.setFailure(doc.Path, wrapped)
			span.RecordError(wrapped)
			return Set{}, false, wrapped
		}
		observability.TokenRefreshTotal.WithLabelValues("failed").Inc()
		ix.setFailure(doc.Path, nil)
		span.RecordError(err)
		slog.Warn("token backend failed", "path", doc.Path, "error", err)
		return Set{}, false, nil
	}

	next := &entry{
		tokens:  sortTokens(normalizeTokens(doc.Path, result.Tokens)),
		module:  result.Module,
		hash:    hash,
		version: doc.Version,
	}
	ix.entries.put(doc.Path, next)
	observability.CachedDocuments.Set(float64(ix.entries.len()))
	ix.setFailure(doc.Path, nil)
	observability.TokenRefreshTotal.WithLabelValues("ok").Inc()
	span.SetAttributes(attribute.Int("tokens", len(next.tokens)))
	slog.Debug("tokens refreshed", "path", doc.Path, "version", doc.Version, "tokens", len(next.tokens))

	ix.mu.Lock()
	hook := ix.onRefresh
	ix.mu.Unlock()
	if hook != nil {
		hook(ctx, doc, next.tokens)
	}
	return next.tokens, true, nil
}

// normalizeTokens drops tokens with inverted locations and demotes original
// declarations whose kind or type does not match.
func normalizeTokens(path string, in []types.SemanticToken) []types.SemanticToken {
	out := make([]types.SemanticToken, 0, len(in))
	for _, tok := range in {
		if err := tok.Validate(); err != nil {
			if !tok.Location.Valid() {
				slog.Debug("dropping token", "path", path, "error", err)
				continue
			}
			slog.Debug("demoting original declaration", "path", path, "error", err)
			tok.IsOriginalDeclaration = false
		}
		out = append(out, tok)
	}
	return out
}

func (ix *Index) setFailure(path string, err error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if err == nil {
		delete(ix.failures, path)
		return
	}
	ix.failures[path] = err
}

// LastError returns the most recent structured failure for path, or nil once
// a later read succeeded.
func (ix *Index) LastError(path string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.failures[path]
}

// FindAt reads doc and returns the first token containing pos.
func (ix *Index) FindAt(ctx context.Context, doc Document, pos types.Position) (types.SemanticToken, bool, error) {
	set, err := ix.Read(ctx, doc)
	tok, ok := set.FindAt(pos)
	return tok, ok, err
}

// FilterAt reads doc and returns every token containing pos.
func (ix *Index) FilterAt(ctx context.Context, doc Document, pos types.Position) ([]types.SemanticToken, error) {
	set, err := ix.Read(ctx, doc)
	return set.FilterAt(pos), err
}

// Module returns the module descriptor cached with path's tokens.
func (ix *Index) Module(path string) (*types.Class, bool) {
	cached, ok := ix.entries.peek(path)
	if !ok || cached.module == nil {
		return nil, false
	}
	return cached.module, true
}

// Clear drops everything cached for path, its refresh lock included. It
// waits for an in-flight refresh of the same document and is safe to call
// repeatedly.
func (ix *Index) Clear(path string) {
	lock := ix.acquire(path)
	defer ix.release(path, lock, true)

	if ix.entries.remove(path) {
		observability.CachedDocuments.Set(float64(ix.entries.len()))
	}
	ix.setFailure(path, nil)
}

// Len returns the number of cached documents.
func (ix *Index) Len() int {
	return ix.entries.len()
}

// HashContent is the content fingerprint used when versions are unavailable.
func HashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func (d Document) String() string {
	return fmt.Sprintf("%s@%d", d.Path, d.Version)
}
