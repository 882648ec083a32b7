package cli

import (
	"fmt"
	"io"
	"os"

	"report-converter/internal/catalog"
	"report-converter/internal/convert"
	"report-converter/internal/diagnostic"
	"report-converter/internal/mapping"
	"report-converter/internal/serialize"
)

// openSession loads the mapping table, catalog and templates named by the
// configuration, then parses and resolves the report.
func (a *app) openSession(reportPath, choicesPath string, excludeUnmapped bool) (*convert.Session, error) {
	if a.cfg.Mapping.Path == "" {
		return nil, ErrMissingMapping
	}

	table, err := mapping.LoadFile(a.cfg.Mapping.Path, mapping.LoadOptions{Sheet: a.cfg.Mapping.Sheet})
	if err != nil {
		return nil, fmt.Errorf("loading mapping table: %w", err)
	}

	var cat *catalog.Catalog
	if a.cfg.Mapping.CatalogPath != "" {
		if cat, err = catalog.LoadFile(a.cfg.Mapping.CatalogPath); err != nil {
			return nil, fmt.Errorf("loading catalog: %w", err)
		}
	}

	templates, err := serialize.LoadTemplates(a.cfg.Templates.Dir)
	if err != nil {
		return nil, err
	}

	kinds, err := a.cfg.Visuals.Kinds()
	if err != nil {
		return nil, err
	}

	suppress, err := a.cfg.Visuals.Suppressed()
	if err != nil {
		return nil, err
	}

	s := convert.NewSession(table, cat, convert.Options{
		ProjectName: a.cfg.Project.Name,
		TargetKinds: kinds,
		Suppress:    suppress,
		Serializer: serialize.Config{
			ThemeName:        a.cfg.Project.ThemeName,
			ConnectionString: a.cfg.Dataset.ConnectionString,
			Database:         a.cfg.Dataset.Database,
			ModelName:        a.cfg.Dataset.ModelName,
		},
		Templates: templates,
		Logger:    a.logger,
	})

	data, err := os.ReadFile(reportPath)
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}

	if err := s.Parse(data); err != nil {
		return nil, err
	}

	if _, err := s.Resolve(); err != nil {
		return nil, err
	}

	choices := convert.Choices{ExcludeUnmapped: excludeUnmapped}

	if choicesPath != "" {
		loaded, err := convert.LoadChoices(choicesPath)
		if err != nil {
			return nil, err
		}

		choices.Choices = loaded.Choices
		choices.Exclude = loaded.Exclude
		choices.ExcludeUnmapped = choices.ExcludeUnmapped || loaded.ExcludeUnmapped
	}

	if !choices.IsEmpty() {
		if err := s.ApplyChoices(choices); err != nil {
			return s, err
		}
	}

	return s, nil
}

// printDiagnostics writes one line per diagnostic, errors first.
func printDiagnostics(w io.Writer, d diagnostic.Diagnostics) {
	for _, diag := range d.All() {
		fmt.Fprintf(w, "%-7s %-9s %s\n", diag.Severity, diag.Stage, diag)
	}
}
