package charts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"slices"
	"strings"
	"time"
)

var filenamePattern = regexp.MustCompile(`^([a-z_]+)_(\d{8}_\d{6})\.png$`)

type File struct {
	Name      string
	Kind      Kind
	CreatedAt time.Time
	Size      int64
}

// List returns the charts in the output directory, newest first. Only names
// matching the chart pattern are reported; there is no manifest.
func (r *Renderer) List() ([]File, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []File{}, nil
		}
		return nil, fmt.Errorf("read output directory: %w", err)
	}

	files := make([]File, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		m := filenamePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		created, err := time.ParseInLocation(timestampLayout, m[2], time.Local)
		if err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", entry.Name(), err)
		}
		files = append(files, File{
			Name:      entry.Name(),
			Kind:      Kind(m[1]),
			CreatedAt: created,
			Size:      info.Size(),
		})
	}

	slices.SortFunc(files, func(a, b File) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return files, nil
}

