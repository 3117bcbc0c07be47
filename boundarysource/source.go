package boundarysource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/parkwatch/parkcast/boundary"
	"github.com/parkwatch/parkcast/boundarycache"
	"github.com/parkwatch/parkcast/kv"
)

const maxBodySize = 64 * 1000 * 1000 // 64MB

// how long a stale-served dataset stays in memory before the next refetch
// attempt; full ttl here would mask an upstream recovery for hours
const staleRetryTTL = 5 * time.Minute

// Source loads the boundary dataset for one URL. Lookup order is memory,
// then a fresh disk snapshot, then HTTP. A fetch failure falls back to a
// stale snapshot when one exists; with nothing cached it surfaces as an
// error for the caller to map to an empty result.
type Source struct {
	url          string
	name         string
	ttl          time.Duration
	hc           *http.Client
	snapshotFile string
	now          func() time.Time
	log          *slog.Logger

	store kv.KVS[string, boundary.Dataset]
}

func loadOptions(opts ...Option) options {
	o := options{
		name: "boundary",
		ttl:  boundarycache.DefaultTTL,
		hc:   &http.Client{Timeout: 30 * time.Second},
		now:  time.Now,
		log:  slog.Default(),
	}
	for _, opt := range opts {
		opt.apply(&o)
	}
	return o
}

func New(url string, opts ...Option) *Source {
	o := loadOptions(opts...)
	store := o.store
	if store == nil {
		store = kv.NewTTLMap[string, boundary.Dataset](o.ttl, o.now)
	}
	return &Source{
		url:          url,
		name:         o.name,
		ttl:          o.ttl,
		hc:           o.hc,
		snapshotFile: o.snapshotFile,
		now:          o.now,
		log:          o.log,
		store:        store,
	}
}

// Dataset returns the parsed boundary, from cache when possible.
func (s *Source) Dataset(ctx context.Context) (boundary.Dataset, error) {
	if d, ok := s.store.Get(s.url); ok {
		return d, nil
	}

	if snap, ok := s.freshSnapshot(); ok {
		d, err := boundary.ParseDataset(s.name, snap.Boundary)
		if err == nil {
			s.log.Info("boundary served from snapshot",
				"file", s.snapshotFile, "age", snap.Age(s.now()))
			s.store.Set(s.url, d)
			return d, nil
		}
		s.log.Warn("boundary snapshot unreadable, refetching", "error", err)
	}

	data, err := s.fetch(ctx)
	if err != nil {
		if d, ok := s.staleFallback(err); ok {
			return d, nil
		}
		return boundary.Dataset{}, fmt.Errorf("boundary unavailable: %w", err)
	}

	d, err := boundary.ParseDataset(s.name, data)
	if err != nil {
		return boundary.Dataset{}, err
	}

	s.saveSnapshot(data)
	s.store.Set(s.url, d)
	return d, nil
}

// Refresh fetches unconditionally and rewrites the caches.
func (s *Source) Refresh(ctx context.Context) error {
	data, err := s.fetch(ctx)
	if err != nil {
		return fmt.Errorf("boundary unavailable: %w", err)
	}

	d, err := boundary.ParseDataset(s.name, data)
	if err != nil {
		return err
	}

	s.saveSnapshot(data)
	s.store.Set(s.url, d)
	return nil
}

func (s *Source) fetch(ctx context.Context) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := s.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, s.url)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}

func (s *Source) freshSnapshot() (boundarycache.Snapshot, bool) {
	if s.snapshotFile == "" {
		return boundarycache.Snapshot{}, false
	}
	snap, err := boundarycache.LoadFromFile(s.snapshotFile)
	if err != nil || snap.Stale(s.ttl, s.now()) {
		return boundarycache.Snapshot{}, false
	}
	return snap, true
}

func (s *Source) staleFallback(cause error) (boundary.Dataset, bool) {
	if s.snapshotFile == "" {
		return boundary.Dataset{}, false
	}
	snap, err := boundarycache.LoadFromFile(s.snapshotFile)
	if err != nil {
		return boundary.Dataset{}, false
	}
	d, err := boundary.ParseDataset(s.name, snap.Boundary)
	if err != nil {
		return boundary.Dataset{}, false
	}

	s.log.Warn("boundary fetch failed, serving stale snapshot",
		"error", cause, "age", snap.Age(s.now()))
	if ts, ok := s.store.(kv.TTLSetter[string, boundary.Dataset]); ok {
		ts.SetWithTTL(s.url, d, staleRetryTTL)
	} else {
		s.store.Set(s.url, d)
	}
	return d, true
}

func (s *Source) saveSnapshot(data json.RawMessage) {
	if s.snapshotFile == "" {
		return
	}
	snap := boundarycache.Snapshot{FetchedAt: s.now(), Boundary: data}
	if err := boundarycache.SaveToFile(s.snapshotFile, snap, s.log); err != nil {
		s.log.Error("failed to save boundary snapshot", "error", err)
	}
}
