package convert

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"report-converter/internal/calc"
)

// Choices are the caller's disambiguation decisions.
type Choices struct {
	// Choices maps an item ID to a candidate index.
	Choices map[string]int `yaml:"choices"`
	// Exclude lists NoMapping items to leave out.
	Exclude []string `yaml:"exclude"`
	// ExcludeUnmapped leaves out every NoMapping item.
	ExcludeUnmapped bool `yaml:"exclude_unmapped"`
}

// IsEmpty reports whether c carries no decision.
func (c Choices) IsEmpty() bool {
	return len(c.Choices) == 0 && len(c.Exclude) == 0 && !c.ExcludeUnmapped
}

// ParseChoices decodes a choices document.
func ParseChoices(data []byte) (Choices, error) {
	var c Choices
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Choices{}, fmt.Errorf("parsing choices: %w", err)
	}

	return c, nil
}

// LoadChoices reads a choices file.
func LoadChoices(path string) (Choices, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Choices{}, fmt.Errorf("reading choices file: %w", err)
	}

	return ParseChoices(data)
}

// RequestsFile is the exported list of calculation requests.
type RequestsFile struct {
	Requests []calc.Request `yaml:"requests"`
}

// ResultsFile is the list of calculation results handed back.
type ResultsFile struct {
	Results []calc.Result `yaml:"results"`
}

// MarshalRequests renders requests as YAML.
func MarshalRequests(reqs []calc.Request) ([]byte, error) {
	if reqs == nil {
		reqs = []calc.Request{}
	}

	return yaml.Marshal(RequestsFile{Requests: reqs})
}

// ParseRequests decodes a requests document.
func ParseRequests(data []byte) ([]calc.Request, error) {
	var f RequestsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing requests: %w", err)
	}

	return f.Requests, nil
}

// MarshalResults renders results as YAML.
func MarshalResults(results []calc.Result) ([]byte, error) {
	if results == nil {
		results = []calc.Result{}
	}

	return yaml.Marshal(ResultsFile{Results: results})
}

// ParseResults decodes a results document. JSON input is accepted too.
func ParseResults(data []byte) ([]calc.Result, error) {
	var f ResultsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing results: %w", err)
	}

	return f.Results, nil
}

// LoadResults reads a results file.
func LoadResults(path string) ([]calc.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading results file: %w", err)
	}

	return ParseResults(data)
}
