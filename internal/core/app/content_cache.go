package app

import "agatypes/internal/engine/tokens"

func (a *App) contentForPath(path string) []byte {
	a.fileContentMu.RLock()
	defer a.fileContentMu.RUnlock()
	content, ok := a.fileContents[path]
	if !ok {
		return nil
	}
	out := make([]byte, len(content))
	copy(out, content)
	return out
}

func (a *App) cacheContent(path string, content []byte) {
	a.fileContentMu.Lock()
	defer a.fileContentMu.Unlock()
	next := make([]byte, len(content))
	copy(next, content)
	a.fileContents[path] = next
}

// refreshContent replaces the cached text of an open document. Paths that
// were never opened are left alone.
func (a *App) refreshContent(path string, content []byte) {
	a.fileContentMu.Lock()
	defer a.fileContentMu.Unlock()
	if _, ok := a.fileContents[path]; !ok {
		return
	}
	next := make([]byte, len(content))
	copy(next, content)
	a.fileContents[path] = next
}

func (a *App) dropContent(path string) {
	a.fileContentMu.Lock()
	defer a.fileContentMu.Unlock()
	delete(a.fileContents, path)
}

// textOf returns the document's current text, preferring what the editor
// handed over.
func (a *App) textOf(doc tokens.Document) []byte {
	if doc.Content != nil {
		if content := doc.Content(); content != nil {
			return content
		}
	}
	return a.contentForPath(doc.Path)
}
