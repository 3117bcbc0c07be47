package boundarycache

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

func LoadFromReader(r io.Reader) (Snapshot, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if s.FetchedAt.IsZero() {
		return Snapshot{}, fmt.Errorf("snapshot has no fetched_at timestamp")
	}
	if len(s.Boundary) == 0 {
		return Snapshot{}, fmt.Errorf("snapshot has no boundary data")
	}
	return s, nil
}

func LoadFromFile(name string) (Snapshot, error) {
	reader, err := openReader(name)
	if err != nil {
		return Snapshot{}, err
	}
	defer reader.Close()

	return LoadFromReader(reader)
}

func openReader(name string) (io.ReadCloser, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open snapshot file: %w", err)
	}

	if strings.HasSuffix(name, ".zst") {
		dec, err := zstd.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create zstd reader: %w", err)
		}

		return dec.IOReadCloser(), nil
	}

	return file, nil
}
