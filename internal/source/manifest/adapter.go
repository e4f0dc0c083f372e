package manifest

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Tephenbaay/imagescribeAI/internal/logger"
	"github.com/Tephenbaay/imagescribeAI/internal/source"
	"github.com/Tephenbaay/imagescribeAI/internal/storage"
)

// ManifestFileName is the JSON Lines file listing the images of a batch.
const ManifestFileName = "manifest.jsonl"

// Item is one line of the manifest. Filename is relative to the manifest's
// directory; Name overrides the name recorded in the history files.
type Item struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Name     string `json:"name,omitempty"`
}

// Adapter implements source.Source for a curated batch: a directory holding
// manifest.jsonl and the images it names. Items keep manifest order.
type Adapter struct {
	dir    string
	items  []source.ImageItem
	loaded bool
}

// NewAdapter creates a manifest adapter for dir.
func NewAdapter(dir string) *Adapter {
	return &Adapter{dir: dir}
}

func (a *Adapter) GetSourceID() string {
	return "manifest:" + filepath.Base(a.dir)
}

func (a *Adapter) GetDisplayName() string {
	return fmt.Sprintf("Manifest (%s)", a.dir)
}

// FetchBatch fetches a batch of items listed in the manifest.
func (a *Adapter) FetchBatch(ctx context.Context, cursor string, limit int) ([]source.ImageItem, string, error) {
	if !a.loaded {
		if err := a.loadItems(ctx); err != nil {
			return nil, "", fmt.Errorf("failed to load manifest items: %w", err)
		}
		a.loaded = true
	}
	return source.Page(a.items, cursor, limit)
}

// loadItems reads the manifest. Malformed lines and missing or unsupported
// images are skipped with a warning.
func (a *Adapter) loadItems(ctx context.Context) error {
	manifestPath := filepath.Join(a.dir, ManifestFileName)

	file, err := os.Open(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("manifest file not found: %s", manifestPath)
		}
		return fmt.Errorf("failed to open manifest: %w", err)
	}
	defer file.Close()

	a.items = []source.ImageItem{}
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var item Item
		if err := json.Unmarshal([]byte(line), &item); err != nil || item.Filename == "" {
			logger.CtxWarn(ctx, "Skipping manifest line %d of %s", lineNo, manifestPath)
			continue
		}

		localPath := filepath.Join(a.dir, filepath.FromSlash(item.Filename))
		format := source.FormatOf(localPath)
		if format == "" {
			logger.CtxWarn(ctx, "Skipping unsupported file %s", item.Filename)
			continue
		}
		if _, err := os.Stat(localPath); err != nil {
			logger.CtxWarn(ctx, "Skipping missing file %s", item.Filename)
			continue
		}

		id := item.ID
		if id == "" {
			id = item.Filename
		}
		if seen[id] {
			continue
		}
		seen[id] = true

		name := item.Name
		if name == "" {
			name = filepath.Base(localPath)
		}
		a.items = append(a.items, source.ImageItem{
			SourceID:  id,
			Filename:  storage.SafeFilename(name),
			LocalPath: localPath,
			Format:    format,
		})
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading manifest: %w", err)
	}
	return nil
}
