package serialize

import (
	"strings"

	"github.com/google/uuid"
)

var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("report-converter"))

const nameLength = 20

// objectName derives the short hex name used for pages, visuals and filters.
func objectName(parts ...string) string {
	id := uuid.NewSHA1(namespace, []byte(strings.Join(parts, "\x00")))
	return strings.ReplaceAll(id.String(), "-", "")[:nameLength]
}

// logicalID derives the platform logical ID of a project.
func logicalID(project string) string {
	return uuid.NewSHA1(namespace, []byte("logical\x00"+project)).String()
}

// folderName makes a project name safe for use as a path segment.
func folderName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Report"
	}

	return strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			return '_'
		}

		if r < ' ' {
			return '_'
		}

		return r
	}, name)
}
