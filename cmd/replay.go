package main

import (
	"fmt"
	"io"
	"log/slog"

	"textot/pkg/client"
	"textot/pkg/clock"
	"textot/pkg/config"
	"textot/pkg/edit"
	"textot/pkg/storage"
	"textot/pkg/structs"
	"textot/pkg/text"
)

// Replayer runs scripts against a fresh store, passing every message through
// the wire encoding the way a network transport would.
type Replayer struct {
	cfg *config.Config
	log *slog.Logger
}

func NewReplayer(cfg *config.Config, logger *slog.Logger) *Replayer {
	return &Replayer{cfg: cfg, log: logger}
}

// Result is the text at every site after a script ran.
type Result struct {
	Document    string
	Server      string
	NextIndex   int
	LastUpdated clock.Timestamp
	Sites       []string
	Texts       map[string]string
	Converged   bool
}

func (r *Result) Print(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "document %s @%d (%s)\n", r.Document, r.NextIndex, r.LastUpdated); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "  %-10s %q\n", "server", r.Server); err != nil {
		return err
	}
	for _, site := range r.Sites {
		if _, err := fmt.Fprintf(w, "  %-10s %q\n", site, r.Texts[site]); err != nil {
			return err
		}
	}
	status := "converged"
	if !r.Converged {
		status = "diverged"
	}
	_, err := fmt.Fprintln(w, status)
	return err
}

type replay struct {
	log     *slog.Logger
	store   *storage.Store[string]
	docID   string
	sites   []string
	clients map[string]*client.Client[string]
	offline structs.Set[string]
	toStore [][]byte
	inbox   map[string][][]byte
}

func (r *Replayer) Run(script *Script) (*Result, error) {
	rp := &replay{
		log: r.log,
		store: storage.NewStore[string](r.cfg.Site.ID, text.Applier{},
			storage.WithShards(r.cfg.Storage.Shards),
			storage.WithScaleThreshold(r.cfg.Storage.ScaleThreshold),
			storage.WithLogger(r.log),
			storage.WithClock(clock.New(r.cfg.Site.ID)),
		),
		docID:   script.Document,
		sites:   script.Sites,
		clients: make(map[string]*client.Client[string], len(script.Sites)),
		offline: structs.NewSet[string](),
		inbox:   make(map[string][][]byte, len(script.Sites)),
	}

	for _, site := range script.Sites {
		rp.clients[site] = client.New(site, text.Applier{}, client.WithLogger(r.log))
		if err := rp.connect(site); err != nil {
			return nil, err
		}
	}

	for i, step := range script.Steps {
		if err := rp.step(step); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}
	if err := rp.drain(); err != nil {
		return nil, err
	}

	res := rp.result()
	if script.Expect != nil && (!res.Converged || res.Server != *script.Expect) {
		return res, fmt.Errorf("expected every site to read %q, server has %q", *script.Expect, res.Server)
	}
	return res, nil
}

func (rp *replay) step(s Step) error {
	c := rp.clients[s.Site]
	switch {
	case s.Text != nil:
		return rp.send(c.PerformEdit(text.Infer(c.State(), *s.Text)))
	case s.Undo:
		return rp.send(c.PerformUndo())
	case s.Redo:
		return rp.send(c.PerformRedo())
	case s.Disconnect:
		rp.offline.Add(s.Site)
		rp.inbox[s.Site] = nil
		rp.store.Leave(rp.docID, s.Site)
		rp.log.Info("site disconnected", "site", s.Site)
		return nil
	case s.Reconnect:
		rp.offline.Remove(s.Site)
		return rp.connect(s.Site)
	case s.Deliver == "all":
		return rp.drain()
	case s.Deliver == "server":
		for len(rp.toStore) > 0 {
			if err := rp.serverStep(); err != nil {
				return err
			}
		}
		return nil
	default:
		return rp.deliver(s.Deliver)
	}
}

func (rp *replay) send(msg *edit.ClientEditMessage, err error) error {
	if err != nil || msg == nil {
		return err
	}
	if rp.offline.Contains(msg.SourceUID) {
		return nil
	}
	data, err := edit.Encode(*msg)
	if err != nil {
		return err
	}
	rp.toStore = append(rp.toStore, data)
	return nil
}

func (rp *replay) connect(site string) error {
	rp.inbox[site] = nil
	req := rp.clients[site].ConnectionRequest()
	data, err := edit.Encode(req)
	if err != nil {
		return err
	}
	decoded, err := edit.Decode(data)
	if err != nil {
		return err
	}
	out, err := rp.store.HandleServerEdits(rp.docID, decoded.(edit.ClientConnectionRequest))
	if err != nil {
		return err
	}
	return rp.route(out)
}

func (rp *replay) route(out []edit.ServerEditMessage) error {
	for _, d := range rp.store.Route(rp.docID, out) {
		if rp.offline.Contains(d.SiteID) {
			continue
		}
		data, err := edit.Encode(d.Message)
		if err != nil {
			return err
		}
		rp.inbox[d.SiteID] = append(rp.inbox[d.SiteID], data)
	}
	return nil
}

func (rp *replay) serverStep() error {
	data := rp.toStore[0]
	rp.toStore = rp.toStore[1:]

	decoded, err := edit.Decode(data)
	if err != nil {
		return err
	}
	msg, ok := decoded.(edit.ClientEditMessage)
	if !ok {
		return fmt.Errorf("%w: %T sent to server", edit.ErrUnknownMessage, decoded)
	}
	out, err := rp.store.HandleClientEdit(rp.docID, msg)
	if err != nil {
		return err
	}
	return rp.route(out)
}

// deliver hands a site every message queued for it. A gap in the log makes
// the site resync instead of failing the replay.
func (rp *replay) deliver(site string) error {
	c := rp.clients[site]
	for len(rp.inbox[site]) > 0 {
		data := rp.inbox[site][0]
		rp.inbox[site] = rp.inbox[site][1:]

		decoded, err := edit.Decode(data)
		if err != nil {
			return err
		}
		msg, ok := decoded.(edit.ServerEditMessage)
		if !ok {
			return fmt.Errorf("%w: %T sent to %s", edit.ErrUnknownMessage, decoded, site)
		}
		out, err := c.Handle(msg)
		if edit.IsOutOfOrder(err) {
			rp.log.Warn("site out of order, resyncing", "site", site, "err", err)
			return rp.connect(site)
		}
		if err := rp.send(out, err); err != nil {
			return err
		}
	}
	return nil
}

func (rp *replay) drain() error {
	for {
		progressed := false
		for _, site := range rp.sites {
			if len(rp.inbox[site]) > 0 {
				if err := rp.deliver(site); err != nil {
					return err
				}
				progressed = true
			}
		}
		if len(rp.toStore) > 0 {
			if err := rp.serverStep(); err != nil {
				return err
			}
			progressed = true
		}
		if !progressed {
			return nil
		}
	}
}

func (rp *replay) result() *Result {
	snap, _ := rp.store.Snapshot(rp.docID)
	res := &Result{
		Document:    rp.docID,
		Server:      snap.State,
		NextIndex:   snap.NextIndex,
		LastUpdated: snap.LastUpdated,
		Sites:       rp.sites,
		Texts:       make(map[string]string, len(rp.sites)),
		Converged:   true,
	}
	for _, site := range rp.sites {
		res.Texts[site] = rp.clients[site].State()
		if res.Texts[site] != snap.State {
			res.Converged = false
		}
	}
	return res
}
