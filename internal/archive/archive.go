// Package archive packs serialized artifacts into a single zip blob.
package archive

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/klauspost/compress/zip"

	"report-converter/internal/serialize"
)

var (
	// ErrDuplicatePath is returned when two artifacts share a path.
	ErrDuplicatePath = errors.New("duplicate artifact path")
	// ErrEmptyPath is returned for an artifact without a path.
	ErrEmptyPath = errors.New("empty artifact path")
)

// modTime is stamped on every entry so identical input packs identically.
var modTime = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Pack writes the artifacts into a zip archive, entries ordered by path.
// Packing the same artifacts twice yields identical bytes.
func Pack(artifacts []serialize.Artifact) ([]byte, error) {
	sorted := make([]serialize.Artifact, len(artifacts))
	copy(sorted, artifacts)

	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	for i, a := range sorted {
		if a.Path == "" {
			return nil, ErrEmptyPath
		}

		if i > 0 && sorted[i-1].Path == a.Path {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePath, a.Path)
		}
	}

	var buf bytes.Buffer

	w := zip.NewWriter(&buf)

	for _, a := range sorted {
		fw, err := w.CreateHeader(&zip.FileHeader{
			Name:     a.Path,
			Method:   zip.Deflate,
			Modified: modTime,
		})
		if err != nil {
			return nil, fmt.Errorf("adding %s: %w", a.Path, err)
		}

		if _, err := fw.Write(a.Content); err != nil {
			return nil, fmt.Errorf("writing %s: %w", a.Path, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing archive: %w", err)
	}

	return buf.Bytes(), nil
}
