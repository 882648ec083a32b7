package serialize

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
)

// Template file names.
const (
	ThemeFile          = "theme.json"
	LocalSettingsFile  = "localSettings.json"
	SemanticLayoutFile = "semanticModelDiagramLayout.json"
)

const defaultThemeName = "CustomTheme"

// ErrInvalidTemplate is returned when a template is not valid JSON.
var ErrInvalidTemplate = errors.New("invalid template")

//go:embed templates/*.json
var builtin embed.FS

// Templates holds the boilerplate files copied into every project.
type Templates struct {
	Theme          []byte
	LocalSettings  []byte
	SemanticLayout []byte
}

// DefaultTemplates returns the built-in templates.
func DefaultTemplates() Templates {
	t, err := readTemplates(builtin, "templates")
	if err != nil {
		panic(fmt.Sprintf("built-in templates: %v", err))
	}

	return t
}

// LoadTemplates reads templates from dir. Files missing from dir fall back
// to the built-in ones.
func LoadTemplates(dir string) (Templates, error) {
	if dir == "" {
		return DefaultTemplates(), nil
	}

	t, err := readTemplates(os.DirFS(dir), ".")
	if err != nil {
		return Templates{}, fmt.Errorf("loading templates from %s: %w", dir, err)
	}

	return t.withDefaults(DefaultTemplates()), nil
}

func readTemplates(fsys fs.FS, dir string) (Templates, error) {
	var t Templates

	for _, f := range []struct {
		name string
		dst  *[]byte
	}{
		{ThemeFile, &t.Theme},
		{LocalSettingsFile, &t.LocalSettings},
		{SemanticLayoutFile, &t.SemanticLayout},
	} {
		data, err := fs.ReadFile(fsys, path.Join(dir, f.name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}

		if err != nil {
			return Templates{}, fmt.Errorf("reading %s: %w", f.name, err)
		}

		if !json.Valid(data) {
			return Templates{}, fmt.Errorf("%w: %s", ErrInvalidTemplate, f.name)
		}

		*f.dst = data
	}

	return t, nil
}

func (t Templates) withDefaults(d Templates) Templates {
	if len(t.Theme) == 0 {
		t.Theme = d.Theme
	}

	if len(t.LocalSettings) == 0 {
		t.LocalSettings = d.LocalSettings
	}

	if len(t.SemanticLayout) == 0 {
		t.SemanticLayout = d.SemanticLayout
	}

	return t
}

// ThemeName returns the name declared by the theme template.
func (t Templates) ThemeName() string {
	var head struct {
		Name string `json:"name"`
	}

	if err := json.Unmarshal(t.Theme, &head); err != nil || strings.TrimSpace(head.Name) == "" {
		return defaultThemeName
	}

	return strings.TrimSpace(head.Name)
}
