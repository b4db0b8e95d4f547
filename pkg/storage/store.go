package storage

import (
	"log/slog"

	"textot/pkg/clock"
	"textot/pkg/edit"
	"textot/pkg/server"
)

type Option func(*options)

type options struct {
	shards         int
	scaleThreshold int
	logger         *slog.Logger
	clock          *clock.Clock
}

func WithShards(n int) Option          { return func(o *options) { o.shards = n } }
func WithScaleThreshold(n int) Option  { return func(o *options) { o.scaleThreshold = n } }
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }
func WithClock(c *clock.Clock) Option  { return func(o *options) { o.clock = c } }

// Snapshot is what a newly connecting site needs to start editing a
// document.
type Snapshot[S any] struct {
	State       S
	NextIndex   int
	LastUpdated clock.Timestamp
}

// Delivery pairs a server message with one site that should receive it.
type Delivery struct {
	SiteID  string
	Message edit.ServerEditMessage
}

// Store hosts many documents. Calls for one document are serialised; calls
// for different documents run in parallel.
type Store[S any] struct {
	engine   *Engine[S]
	sessions *Sessions
	clock    *clock.Clock
	log      *slog.Logger
}

func NewStore[S any](siteID string, applier edit.Applier[S], opts ...Option) *Store[S] {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.clock == nil {
		o.clock = clock.New(siteID)
	}

	docLog := o.logger.With("component", "document")
	newDoc := func() *server.Document[S] {
		return server.New(applier, server.WithLogger(docLog))
	}
	return &Store[S]{
		engine:   NewEngine(o.shards, o.scaleThreshold, newDoc, o.logger),
		sessions: NewSessions(),
		clock:    o.clock,
		log:      o.logger,
	}
}

func (s *Store[S]) Sessions() *Sessions { return s.sessions }
func (s *Store[S]) Documents() int      { return s.engine.Len() }

// HandleClientEdit commits msg to docID, creating the document if needed.
func (s *Store[S]) HandleClientEdit(docID string, msg edit.ClientEditMessage) ([]edit.ServerEditMessage, error) {
	entry, _ := s.engine.GetOrCreate(docID)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	before := entry.doc.Len()
	out, err := entry.doc.HandleClientEdit(msg)
	if err != nil {
		s.log.Debug("client edit rejected", "doc", docID, "source", msg.SourceUID, "id", msg.Edit.ID, "err", err)
		return nil, err
	}
	if entry.doc.Len() > before {
		entry.lastUpdated = s.clock.Now()
	}
	return out, nil
}

// HandleServerEdits answers a connection request and joins the requesting
// site to the document.
func (s *Store[S]) HandleServerEdits(docID string, req edit.ClientConnectionRequest) ([]edit.ServerEditMessage, error) {
	entry, _ := s.engine.GetOrCreate(docID)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	before := entry.doc.Len()
	out, err := entry.doc.HandleServerEdits(req)
	if err != nil {
		s.log.Debug("connection request rejected", "doc", docID, "source", req.SourceUID, "err", err)
		return nil, err
	}
	if entry.doc.Len() > before {
		entry.lastUpdated = s.clock.Now()
	}
	s.sessions.Join(docID, req.SourceUID, req.NextIndex)
	s.log.Debug("site joined", "doc", docID, "site", req.SourceUID, "next", req.NextIndex)
	return out, nil
}

// Snapshot reports the current state of docID. ok is false for a document
// that was never touched.
func (s *Store[S]) Snapshot(docID string) (Snapshot[S], bool) {
	entry, ok := s.engine.Get(docID)
	if !ok {
		return Snapshot[S]{}, false
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return Snapshot[S]{
		State:       entry.doc.State(),
		NextIndex:   entry.doc.Len(),
		LastUpdated: entry.lastUpdated,
	}, true
}

// Route expands msgs into per-site deliveries and records how far each
// recipient has been sent.
func (s *Store[S]) Route(docID string, msgs []edit.ServerEditMessage) []Delivery {
	var out []Delivery
	for _, m := range msgs {
		for _, site := range s.sessions.Recipients(docID, m) {
			out = append(out, Delivery{SiteID: site, Message: m})
			s.sessions.Advance(docID, site, m.Edit.NextIndex)
		}
	}
	return out
}

func (s *Store[S]) Leave(docID, siteID string) {
	s.sessions.Leave(docID, siteID)
}

// Delete drops a document and its sessions.
func (s *Store[S]) Delete(docID string) bool {
	s.sessions.Drop(docID)
	return s.engine.Delete(docID)
}
