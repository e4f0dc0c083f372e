package localdir

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"sync"

	"github.com/Tephenbaay/imagescribeAI/internal/source"
	"github.com/Tephenbaay/imagescribeAI/internal/storage"
)

// Adapter implements source.Source over a directory tree of images. Files
// are listed once, sorted by relative path.
type Adapter struct {
	root string

	once  sync.Once
	items []source.ImageItem
	err   error
}

// NewAdapter creates an adapter rooted at dir.
func NewAdapter(dir string) *Adapter {
	return &Adapter{root: dir}
}

func (a *Adapter) GetSourceID() string {
	return "localdir:" + filepath.Base(a.root)
}

func (a *Adapter) GetDisplayName() string {
	return fmt.Sprintf("Directory (%s)", a.root)
}

// FetchBatch returns the next page of images under the root.
func (a *Adapter) FetchBatch(ctx context.Context, cursor string, limit int) ([]source.ImageItem, string, error) {
	a.once.Do(func() {
		a.items, a.err = a.walk(ctx)
	})
	if a.err != nil {
		return nil, "", fmt.Errorf("failed to list %s: %w", a.root, a.err)
	}
	return source.Page(a.items, cursor, limit)
}

func (a *Adapter) walk(ctx context.Context) ([]source.ImageItem, error) {
	var items []source.ImageItem
	err := filepath.WalkDir(a.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		format := source.FormatOf(path)
		if format == "" {
			return nil
		}
		rel, err := filepath.Rel(a.root, path)
		if err != nil {
			return err
		}
		items = append(items, source.ImageItem{
			SourceID:  filepath.ToSlash(rel),
			Filename:  storage.SafeFilename(d.Name()),
			LocalPath: path,
			Format:    format,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].SourceID < items[j].SourceID
	})
	return items, nil
}
