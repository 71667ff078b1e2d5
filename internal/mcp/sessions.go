package mcpserver

import (
	"strings"
	"sync"

	"coursebook/internal/domain"
	"coursebook/internal/layout"
	"coursebook/internal/tree"
	"coursebook/internal/view"
)

// sessionCache keeps one author session per mind map block so collapse
// state survives between tool calls. It is never persisted.
type sessionCache struct {
	mu       sync.Mutex
	engine   *layout.Engine
	sessions map[string]*view.Session
}

func newSessionCache(engine *layout.Engine) *sessionCache {
	return &sessionCache{engine: engine, sessions: make(map[string]*view.Session)}
}

func sessionKey(docID, blockID string) string { return docID + "/" + blockID }

// get returns the session for a block, bringing it up to date with root
// when the stored tree was changed elsewhere.
func (c *sessionCache) get(docID, blockID string, root domain.TreeNode) *view.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := sessionKey(docID, blockID)
	s, ok := c.sessions[key]
	if !ok {
		s = view.NewSession(root, true, c.engine)
		c.sessions[key] = s
		return s
	}
	if !tree.Equal(s.Root(), root) {
		_ = s.Replace(root)
	}
	return s
}

func (c *sessionCache) drop(docID, blockID string) {
	c.mu.Lock()
	delete(c.sessions, sessionKey(docID, blockID))
	c.mu.Unlock()
}

func (c *sessionCache) dropDocument(docID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := docID + "/"
	for key := range c.sessions {
		if strings.HasPrefix(key, prefix) {
			delete(c.sessions, key)
		}
	}
}

func (c *sessionCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}
