package serialize

import (
	"fmt"
	"os"
	"path/filepath"
)

// File permission constants.
const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// WriteFiles writes all artifacts under the output directory, creating
// directories as needed.
func WriteFiles(artifacts []Artifact, outputDir string) error {
	err := os.MkdirAll(outputDir, dirPerm)
	if err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	for _, a := range artifacts {
		outputPath := filepath.Join(outputDir, filepath.FromSlash(a.Path))

		err := os.MkdirAll(filepath.Dir(outputPath), dirPerm)
		if err != nil {
			return fmt.Errorf("creating directory for %s: %w", a.Path, err)
		}

		err = os.WriteFile(outputPath, a.Content, filePerm)
		if err != nil {
			return fmt.Errorf("writing file %s: %w", a.Path, err)
		}
	}

	return nil
}
