package mapping

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// daxColumnRef matches the 'Table'[Column] notation used by exported column lists.
var daxColumnRef = regexp.MustCompile(`^'(.*?)'\[(.*?)\]$`)

// ParseCandidate parses "'Table'[Column]", "Table[Column]" or "Table.Column".
func ParseCandidate(s string) (Candidate, error) {
	s = strings.TrimSpace(s)

	if m := daxColumnRef.FindStringSubmatch(s); m != nil {
		return newCandidate(m[1], m[2], s)
	}

	if i := strings.Index(s, "["); i > 0 && strings.HasSuffix(s, "]") {
		return newCandidate(s[:i], s[i+1:len(s)-1], s)
	}

	if i := strings.LastIndex(s, "."); i > 0 {
		return newCandidate(s[:i], s[i+1:], s)
	}

	return Candidate{}, fmt.Errorf("invalid target %q: expected Table.Column or 'Table'[Column]", s)
}

func newCandidate(table, column, raw string) (Candidate, error) {
	c := Candidate{Table: strings.TrimSpace(table), Column: strings.TrimSpace(column)}
	if c.IsZero() {
		return Candidate{}, fmt.Errorf("invalid target %q: empty table or column", raw)
	}

	return c, nil
}

// candidateFields is the object form; a separate type avoids recursing into
// the custom unmarshalers.
type candidateFields struct {
	Table  string `yaml:"table" json:"table"`
	Column string `yaml:"column" json:"column"`
}

// UnmarshalYAML implements yaml.Unmarshaler for Candidate.
// Supports both a mapping node {table, column} and a scalar "Table.Column".
func (c *Candidate) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var str string

		if err := node.Decode(&str); err != nil {
			return err
		}

		parsed, err := ParseCandidate(str)
		if err != nil {
			return err
		}

		*c = parsed

		return nil

	case yaml.MappingNode:
		var f candidateFields

		if err := node.Decode(&f); err != nil {
			return err
		}

		*c = Candidate(f)

		return nil

	default:
		return fmt.Errorf("line %d: target must be a string or a {table, column} mapping", node.Line)
	}
}

// UnmarshalJSON accepts {"table": .., "column": ..} or a "Table.Column" string.
func (c *Candidate) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		parsed, err := ParseCandidate(str)
		if err != nil {
			return err
		}

		*c = parsed

		return nil
	}

	var f candidateFields
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("target must be a string or a {table, column} object: %w", err)
	}

	*c = Candidate(f)

	return nil
}
