package boundarysource

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/parkwatch/parkcast/boundary"
	"github.com/parkwatch/parkcast/kv"
)

type options struct {
	name         string
	ttl          time.Duration
	hc           *http.Client
	snapshotFile string
	now          func() time.Time
	log          *slog.Logger
	store        kv.KVS[string, boundary.Dataset]
}

type Option interface {
	apply(*options)
}

type nameOption string

func (n nameOption) apply(o *options) { o.name = string(n) }

// WithName sets the name given to the parsed boundary. Default: "boundary".
func WithName(name string) Option { return nameOption(name) }

type ttlOption time.Duration

func (t ttlOption) apply(o *options) { o.ttl = time.Duration(t) }

// WithTTL sets how long fetched boundary data stays fresh, in memory and on
// disk. Default: 3 hours.
func WithTTL(ttl time.Duration) Option { return ttlOption(ttl) }

type httpClientOption struct{ hc *http.Client }

func (c httpClientOption) apply(o *options) { o.hc = c.hc }

func WithHTTPClient(hc *http.Client) Option { return httpClientOption{hc} }

type snapshotFileOption string

func (f snapshotFileOption) apply(o *options) { o.snapshotFile = string(f) }

// WithSnapshotFile enables the disk snapshot at the given path. A .zst
// suffix selects zstd compression.
func WithSnapshotFile(file string) Option { return snapshotFileOption(file) }

type clockOption func() time.Time

func (c clockOption) apply(o *options) { o.now = c }

// WithClock injects the time source used for staleness decisions.
func WithClock(now func() time.Time) Option { return clockOption(now) }

type loggerOption struct{ log *slog.Logger }

func (l loggerOption) apply(o *options) { o.log = l.log }

func WithLogger(log *slog.Logger) Option { return loggerOption{log} }

type storeOption struct {
	store kv.KVS[string, boundary.Dataset]
}

func (s storeOption) apply(o *options) { o.store = s.store }

// WithStore overrides the in-memory dataset store. The default is a
// kv.TTLMap honoring WithTTL; with any other KVS, expiry is the store's
// concern.
func WithStore(store kv.KVS[string, boundary.Dataset]) Option { return storeOption{store} }
