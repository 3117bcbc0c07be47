package boundarycache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/zstd"
)

// DefaultTTL is how long a saved boundary snapshot is considered fresh.
const DefaultTTL = 3 * time.Hour

// Snapshot is the on-disk form of a fetched boundary: the raw GeoJSON plus
// the time it was fetched, so staleness can be judged without refetching.
type Snapshot struct {
	FetchedAt time.Time       `json:"fetched_at"`
	Boundary  json.RawMessage `json:"boundary"`
}

// Age returns how old the snapshot is at the given instant.
func (s Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.FetchedAt)
}

// Stale reports whether the snapshot is older than ttl at the given instant.
func (s Snapshot) Stale(ttl time.Duration, now time.Time) bool {
	return s.Age(now) > ttl
}

func Save(w io.Writer, s Snapshot) error {
	if len(s.Boundary) == 0 {
		return fmt.Errorf("refusing to save snapshot with empty boundary")
	}
	return json.NewEncoder(w).Encode(s)
}

// SaveToFile writes the snapshot to a file, compressed with zstd when the
// name ends in .zst.
func SaveToFile(name string, s Snapshot, log *slog.Logger) error {
	var buf bytes.Buffer
	if err := Save(&buf, s); err != nil {
		return err
	}

	file, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	defer file.Close()

	n := buf.Len()
	if strings.HasSuffix(name, ".zst") {
		enc, err := zstd.NewWriter(file)
		if err != nil {
			return fmt.Errorf("create zstd writer: %w", err)
		}
		if _, err := enc.Write(buf.Bytes()); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("flush zstd writer: %w", err)
		}
	} else if _, err := file.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	log.Info("boundary snapshot saved", "file", name, "size", humanize.Bytes(uint64(n)))
	return nil
}
