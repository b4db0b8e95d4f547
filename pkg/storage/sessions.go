package storage

import (
	"slices"
	"sync"

	"textot/pkg/edit"
	"textot/pkg/structs"
)

// Session is a site joined to a document. NextIndex is the log index of the
// next edit the site has not been sent yet.
type Session struct {
	SiteID    string
	NextIndex int
}

// Sessions tracks which sites are joined to which documents and how far each
// site has been sent.
type Sessions struct {
	mutex sync.RWMutex
	docs  map[string]map[string]Session
}

func NewSessions() *Sessions {
	return &Sessions{docs: make(map[string]map[string]Session)}
}

func (s *Sessions) Join(docID, siteID string, nextIndex int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	sites, ok := s.docs[docID]
	if !ok {
		sites = make(map[string]Session)
		s.docs[docID] = sites
	}
	sites[siteID] = Session{SiteID: siteID, NextIndex: nextIndex}
}

func (s *Sessions) Leave(docID, siteID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.docs[docID], siteID)
	if len(s.docs[docID]) == 0 {
		delete(s.docs, docID)
	}
}

// Drop forgets every session of a document.
func (s *Sessions) Drop(docID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.docs, docID)
}

func (s *Sessions) Get(docID, siteID string) (Session, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	session, ok := s.docs[docID][siteID]
	return session, ok
}

// Members returns the joined site ids in sorted order.
func (s *Sessions) Members(docID string) []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	members := make([]string, 0, len(s.docs[docID]))
	for id := range s.docs[docID] {
		members = append(members, id)
	}
	slices.Sort(members)
	return members
}

// Advance moves a joined site's NextIndex forward. Older indexes are
// ignored.
func (s *Sessions) Advance(docID, siteID string, nextIndex int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	session, ok := s.docs[docID][siteID]
	if ok && session.NextIndex < nextIndex {
		session.NextIndex = nextIndex
		s.docs[docID][siteID] = session
	}
}

// Recipients resolves the mode of msg to the site ids that should receive
// it. A reply always goes to its source, joined or not.
func (s *Sessions) Recipients(docID string, msg edit.ServerEditMessage) []string {
	if msg.Mode == edit.ReplyToSource {
		return []string{msg.SourceUID}
	}

	members := s.Members(docID)
	if msg.Mode == edit.BroadcastToAll {
		return members
	}
	omit := structs.NewSet(msg.SourceUID)
	return slices.DeleteFunc(members, omit.Contains)
}
