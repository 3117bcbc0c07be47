package boundarysource

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/cheggaaa/pb/v3"
	"github.com/sourcegraph/conc/pool"
)

// Prefetch warms disk snapshots for several dataset URLs at once, one
// snapshot file per URL under dir.
func Prefetch(ctx context.Context, urls []string, dir string, opts ...Option) error {
	bar := pb.StartNew(len(urls))
	defer bar.Finish()

	p := pool.New().WithErrors().WithContext(ctx)
	for _, u := range urls {
		p.Go(func(ctx context.Context) error {
			file, err := snapshotName(u)
			if err != nil {
				return err
			}

			src := New(u, append(opts, WithSnapshotFile(filepath.Join(dir, file)))...)
			err = src.Refresh(ctx)
			bar.Increment()
			return err
		})
	}

	return p.Wait()
}

func snapshotName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("bad dataset url %q: %w", rawURL, err)
	}

	name := u.Host + u.Path
	name = strings.Trim(name, "/")
	name = strings.NewReplacer("/", "_", ":", "_").Replace(name)
	if name == "" {
		name = "boundary"
	}
	return name + ".json.zst", nil
}
