package mapping

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const filePerm = 0o644

// ErrUnsupportedFormat is returned by LoadFile for unknown file extensions.
var ErrUnsupportedFormat = errors.New("unsupported mapping file format")

// File is the YAML document form of a mapping table.
type File struct {
	Version  string  `yaml:"version,omitempty"`
	Mappings []Entry `yaml:"mappings"`
}

// Entry maps one source key to its candidates.
type Entry struct {
	Source  string      `yaml:"source"`
	Targets []Candidate `yaml:"targets"`
}

// jsonFile is the column_mappings.json envelope.
type jsonFile struct {
	Mappings json.RawMessage `json:"mappings"`
}

// LoadOptions tune format-specific loading.
type LoadOptions struct {
	// Sheet selects the workbook sheet; empty means the first sheet.
	Sheet string
}

// LoadFile loads a mapping table, choosing the format from the extension.
func LoadFile(path string, opts LoadOptions) (*Table, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return loadWith(path, ParseYAML)
	case ".json":
		return loadWith(path, ParseJSON)
	case ".xlsx":
		return LoadWorkbook(path, opts.Sheet)
	case ".db", ".sqlite", ".sqlite3":
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("failed to open mapping store %s: %w", path, err)
		}

		store, err := OpenStore(path)
		if err != nil {
			return nil, err
		}
		defer store.Close()

		return store.Load()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

func loadWith(path string, parse func([]byte) (*Table, error)) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file %s: %w", path, err)
	}

	return parse(data)
}

// ParseYAML parses YAML data into a Table.
func ParseYAML(data []byte) (*Table, error) {
	var f File

	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse mapping YAML: %w", err)
	}

	t := NewTable()

	for i, e := range f.Mappings {
		if strings.TrimSpace(e.Source) == "" {
			return nil, fmt.Errorf("mapping entry %d: source is required", i+1)
		}

		t.Add(e.Source, e.Targets...)
	}

	return t, nil
}

// twoHopMappings is the column_mappings.json layout that routes each source
// key through a database column: cognos_to_db gives the column, and
// db_to_powerbi lists the column's targets.
type twoHopMappings struct {
	CognosToDB  map[string]string      `json:"cognos_to_db"`
	DBToPowerBI map[string][]Candidate `json:"db_to_powerbi"`
}

// ParseJSON parses mapping JSON into a Table. Two layouts are accepted:
// {"mappings": {key: [targets]}} and the two-hop
// {"mappings": {"cognos_to_db": {key: column}, "db_to_powerbi": {column: [targets]}}}.
// Object keys carry no order in JSON, so keys are added sorted by their
// normalized form; candidates keep their list order.
func ParseJSON(data []byte) (*Table, error) {
	var f jsonFile

	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse mapping JSON: %w", err)
	}

	if len(f.Mappings) == 0 || string(f.Mappings) == "null" {
		return nil, errors.New("failed to parse mapping JSON: missing \"mappings\" object")
	}

	var sections map[string]json.RawMessage
	if err := json.Unmarshal(f.Mappings, &sections); err != nil {
		return nil, fmt.Errorf("failed to parse mapping JSON: %w", err)
	}

	_, hasDB := sections["cognos_to_db"]
	_, hasPBI := sections["db_to_powerbi"]

	if hasDB || hasPBI {
		return parseTwoHop(f.Mappings)
	}

	var flat map[string][]Candidate
	if err := json.Unmarshal(f.Mappings, &flat); err != nil {
		return nil, fmt.Errorf("failed to parse mapping JSON: %w", err)
	}

	t := NewTable()
	for _, k := range sortedKeys(flat) {
		t.Add(k, flat[k]...)
	}

	return t, nil
}

func parseTwoHop(raw json.RawMessage) (*Table, error) {
	var m twoHopMappings
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to parse two-hop mapping JSON: %w", err)
	}

	if m.CognosToDB == nil || m.DBToPowerBI == nil {
		return nil, errors.New("failed to parse two-hop mapping JSON: both \"cognos_to_db\" and \"db_to_powerbi\" are required")
	}

	t := NewTable()

	for _, k := range sortedKeys(m.CognosToDB) {
		column := strings.TrimSpace(m.CognosToDB[k])

		targets, ok := m.DBToPowerBI[column]
		if !ok || len(targets) == 0 {
			// No second hop: the key stays unmapped.
			continue
		}

		t.Add(k, targets...)
	}

	return t, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool {
		a, b := NormalizeKey(keys[i]), NormalizeKey(keys[j])
		if a != b {
			return a < b
		}

		return keys[i] < keys[j]
	})

	return keys
}

// ToFile converts a table into its YAML document form.
func ToFile(t *Table) *File {
	f := &File{Version: "1"}

	for _, key := range t.Keys() {
		f.Mappings = append(f.Mappings, Entry{
			Source:  key,
			Targets: append([]Candidate(nil), t.Lookup(key)...),
		})
	}

	return f
}

// Marshal serializes a Table to YAML.
func Marshal(t *Table) ([]byte, error) {
	return yaml.Marshal(ToFile(t))
}

// WriteFile writes a Table as YAML to the given path.
func WriteFile(t *Table, path string) error {
	data, err := Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}

	if err := os.WriteFile(path, data, filePerm); err != nil {
		return fmt.Errorf("failed to write mapping file %s: %w", path, err)
	}

	return nil
}
