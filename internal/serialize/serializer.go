package serialize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"

	"report-converter/internal/calc"
	"report-converter/internal/project"
	"report-converter/internal/visual"
)

// Page geometry.
const (
	pageWidth     = 1280.0
	pageMinHeight = 720.0
	margin        = 20.0
	visualHeight  = 300.0
	footerHeight  = 45.0
)

const (
	reportVersion    = "5.59"
	virtualServer    = "sobe_wowvirtualserver"
	connectionName   = "EntityDataSource"
	connectionType   = "pbiServiceXmlaStyleLive"
	platformSchema   = "https://developer.microsoft.com/json-schemas/fabric/gitIntegration/platformProperties/2.0.0/schema.json"
	definitionSchema = "https://developer.microsoft.com/json-schemas/fabric/item/report/definitionProperties/1.0.0/schema.json"
)

// Annotation names marking measures that need manual follow-up.
const (
	AnnotationPending    = "PendingCalculation"
	AnnotationUnverified = "UnverifiedExpression"
)

// ErrNoModel is returned when Serialize is given no model.
var ErrNoModel = errors.New("no project model")

// Config holds serializer settings.
type Config struct {
	// ThemeName overrides the name declared by the theme template.
	ThemeName        string
	ConnectionString string
	Database         string
	// ModelName is shown in each page footer when set.
	ModelName string
}

// Artifact is one output file, addressed by a slash-separated path
// relative to the output root.
type Artifact struct {
	Path    string
	Content []byte
}

// Serializer renders project models.
type Serializer struct {
	config    Config
	templates Templates
}

// NewSerializer creates a serializer.
func NewSerializer(config Config, templates Templates) *Serializer {
	return &Serializer{config: config, templates: templates}
}

type rendered struct {
	path  string
	value any
}

// Serialize renders m into artifacts sorted by path. The template files are
// copied unmodified.
func (s *Serializer) Serialize(m *project.Model) ([]Artifact, error) {
	if m == nil {
		return nil, ErrNoModel
	}

	name := folderName(m.Name)
	reportDir := name + ".Report"
	defDir := path.Join(reportDir, "definition")

	theme := s.config.ThemeName
	if theme == "" {
		theme = s.templates.ThemeName()
	}

	rep, err := reportFile(theme)
	if err != nil {
		return nil, fmt.Errorf("rendering report settings: %w", err)
	}

	files := []rendered{
		{name + ".pbip", pbipFile(reportDir)},
		{path.Join(reportDir, ".platform"), platformFile(m.Name)},
		{path.Join(reportDir, "definition.pbir"), s.pbirFile()},
		{path.Join(defDir, "report.json"), rep},
		{path.Join(defDir, "reportExtensions.json"), extensionsFile(m)},
	}

	order := make([]string, 0, len(m.Pages))

	for i, p := range m.Pages {
		pf, err := s.pageFile(m.Name, i, p)
		if err != nil {
			return nil, err
		}

		order = append(order, pf.Name)
		files = append(files, rendered{path.Join(defDir, "pages", pf.Name, "page.json"), pf})
	}

	files = append(files, rendered{path.Join(defDir, "pages", "pages.json"), pagesFile(order)})

	out := make([]Artifact, 0, len(files)+3)

	for _, f := range files {
		data, err := marshal(f.value)
		if err != nil {
			return nil, fmt.Errorf("rendering %s: %w", f.path, err)
		}

		out = append(out, Artifact{Path: f.path, Content: data})
	}

	for _, t := range []struct {
		path    string
		content []byte
	}{
		{path.Join(reportDir, ".pbi", LocalSettingsFile), s.templates.LocalSettings},
		{path.Join(reportDir, "StaticResources", "SharedResources", "BaseThemes", theme+".json"), s.templates.Theme},
		{path.Join(reportDir, SemanticLayoutFile), s.templates.SemanticLayout},
	} {
		if len(t.content) == 0 {
			continue
		}

		out = append(out, Artifact{Path: t.path, Content: bytes.Clone(t.content)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })

	return out, nil
}

func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// compact renders v as a single-line JSON string, for fields the target
// format stores as embedded JSON text.
func compact(v any) (string, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(v); err != nil {
		return "", err
	}

	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

type pbip struct {
	Version   string         `json:"version"`
	Artifacts []pbipArtifact `json:"artifacts"`
	Settings  pbipSettings   `json:"settings"`
}

type pbipArtifact struct {
	Report struct {
		Path string `json:"path"`
	} `json:"report"`
}

type pbipSettings struct {
	EnableAutoRecovery bool `json:"enableAutoRecovery"`
}

func pbipFile(reportDir string) pbip {
	var a pbipArtifact
	a.Report.Path = reportDir

	return pbip{Version: "1.0", Artifacts: []pbipArtifact{a}, Settings: pbipSettings{EnableAutoRecovery: true}}
}

type platform struct {
	Schema   string `json:"$schema"`
	Metadata struct {
		Type        string `json:"type"`
		DisplayName string `json:"displayName"`
	} `json:"metadata"`
	Config struct {
		Version   string `json:"version"`
		LogicalID string `json:"logicalId"`
	} `json:"config"`
}

func platformFile(name string) platform {
	p := platform{Schema: platformSchema}
	p.Metadata.Type = "Report"
	p.Metadata.DisplayName = name
	p.Config.Version = "2.0"
	p.Config.LogicalID = logicalID(name)

	return p
}

type byConnection struct {
	ConnectionString          string  `json:"connectionString"`
	PbiServiceModelID         *string `json:"pbiServiceModelId"`
	PbiModelVirtualServerName string  `json:"pbiModelVirtualServerName"`
	PbiModelDatabaseName      string  `json:"pbiModelDatabaseName"`
	Name                      string  `json:"name"`
	ConnectionType            string  `json:"connectionType"`
}

type pbir struct {
	Schema           string `json:"$schema"`
	Version          string `json:"version"`
	DatasetReference struct {
		ByConnection byConnection `json:"byConnection"`
	} `json:"datasetReference"`
}

func (s *Serializer) pbirFile() pbir {
	p := pbir{Schema: definitionSchema, Version: "1.0"}
	p.DatasetReference.ByConnection = byConnection{
		ConnectionString:          s.config.ConnectionString,
		PbiModelVirtualServerName: virtualServer,
		PbiModelDatabaseName:      s.config.Database,
		Name:                      connectionName,
		ConnectionType:            connectionType,
	}

	return p
}

type resourceItem struct {
	Type int    `json:"type"`
	Name string `json:"name"`
	Path string `json:"path"`
}

type resourcePackage struct {
	ResourcePackage struct {
		Type  int            `json:"type"`
		Name  string         `json:"name"`
		Items []resourceItem `json:"items"`
	} `json:"resourcePackage"`
}

type report struct {
	Config           string            `json:"config"`
	ResourcePackages []resourcePackage `json:"resourcePackages"`
}

type reportConfig struct {
	Version            string `json:"version"`
	ActiveSectionIndex int    `json:"activeSectionIndex"`
	ThemeCollection    struct {
		BaseTheme struct {
			Name string `json:"name"`
		} `json:"baseTheme"`
	} `json:"themeCollection"`
	Settings map[string]bool `json:"settings"`
	Objects  objects         `json:"objects"`
}

func reportFile(theme string) (report, error) {
	var rc reportConfig
	rc.Version = reportVersion
	rc.ThemeCollection.BaseTheme.Name = theme
	rc.Settings = map[string]bool{
		"useNewFilterPaneExperience":       true,
		"useStylableVisualContainerHeader": true,
	}
	rc.Objects = objects{"section": {props("verticalAlignment", expr("'Top'"))}}

	var pkg resourcePackage
	pkg.ResourcePackage.Type = 2
	pkg.ResourcePackage.Name = "SharedResources"
	pkg.ResourcePackage.Items = []resourceItem{{
		Type: 202,
		Name: theme,
		Path: "StaticResources/SharedResources/BaseThemes/" + theme + ".json",
	}}

	config, err := compact(rc)
	if err != nil {
		return report{}, err
	}

	return report{Config: config, ResourcePackages: []resourcePackage{pkg}}, nil
}

type annotation struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type extensionMeasure struct {
	Name              string `json:"name"`
	DataType          int    `json:"dataType"`
	Expression        string `json:"expression"`
	Hidden            bool   `json:"hidden"`
	FormatInformation struct {
		FormatString string `json:"formatString"`
	} `json:"formatInformation"`
	Annotations []annotation `json:"annotations,omitempty"`
}

type entity struct {
	Name     string             `json:"name"`
	Extends  string             `json:"extends"`
	Measures []extensionMeasure `json:"measures"`
}

type extensions struct {
	Name     string   `json:"name"`
	Entities []entity `json:"entities"`
}

func extensionsFile(m *project.Model) extensions {
	ext := extensions{Name: extensionSchema, Entities: []entity{}}

	for _, mt := range m.MeasureTables() {
		e := entity{Name: mt.Table, Extends: mt.Table}
		for _, ms := range mt.Measures {
			e.Measures = append(e.Measures, extensionMeasure{
				Name:        ms.Name,
				DataType:    ms.DataTypeCode(),
				Expression:  ms.Expression,
				Annotations: measureAnnotations(ms),
			})
		}

		ext.Entities = append(ext.Entities, e)
	}

	return ext
}

func measureAnnotations(ms calc.Measure) []annotation {
	var out []annotation
	if ms.Pending {
		out = append(out, annotation{Name: AnnotationPending, Value: "true"})
	}

	if ms.Unverified {
		out = append(out, annotation{Name: AnnotationUnverified, Value: "true"})
	}

	return out
}

type pages struct {
	PageOrder      []string `json:"pageOrder"`
	ActivePageName string   `json:"activePageName,omitempty"`
}

func pagesFile(order []string) pages {
	p := pages{PageOrder: order}
	if len(order) > 0 {
		p.ActivePageName = order[0]
	}

	return p
}

type position struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Z      float64 `json:"z"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type layout struct {
	ID       int      `json:"id"`
	Position position `json:"position"`
}

type singleVisual struct {
	VisualType              string                  `json:"visualType"`
	Projections             map[string][]projection `json:"projections,omitempty"`
	PrototypeQuery          *prototypeQuery         `json:"prototypeQuery,omitempty"`
	DrillFilterOtherVisuals bool                    `json:"drillFilterOtherVisuals"`
	Objects                 objects                 `json:"objects,omitempty"`
	VCObjects               objects                 `json:"vcObjects,omitempty"`
}

type containerConfig struct {
	Name         string       `json:"name"`
	Layouts      []layout     `json:"layouts"`
	SingleVisual singleVisual `json:"singleVisual"`
}

type visualContainer struct {
	position
	Config  string `json:"config"`
	Filters string `json:"filters"`
}

type page struct {
	Name             string            `json:"name"`
	DisplayName      string            `json:"displayName"`
	DisplayOption    int               `json:"displayOption"`
	Height           float64           `json:"height"`
	Width            float64           `json:"width"`
	VisualContainers []visualContainer `json:"visualContainers"`
	Config           string            `json:"config"`
}

func (s *Serializer) pageFile(projectName string, ordinal int, p project.Page) (page, error) {
	name := objectName(projectName, "page", p.ID)

	display := p.Name
	if display == "" {
		display = fmt.Sprintf("Page %d", ordinal+1)
	}

	out := page{
		Name:             name,
		DisplayName:      display,
		Width:            pageWidth,
		VisualContainers: []visualContainer{},
	}

	y := margin

	for i, cfg := range p.Visuals {
		pos := position{X: margin, Y: y, Z: float64(i * 1000), Width: pageWidth - 2*margin, Height: visualHeight}

		vc, err := visualContainerFor(name, cfg, pos)
		if err != nil {
			return page{}, fmt.Errorf("rendering visual %s: %w", cfg.VisualID, err)
		}

		out.VisualContainers = append(out.VisualContainers, vc)
		y += visualHeight + margin
	}

	if s.config.ModelName != "" {
		pos := position{X: margin, Y: y, Z: float64(len(p.Visuals) * 1000), Width: pageWidth / 2, Height: footerHeight}

		vc, err := container(objectName(name, "footer"), pos, singleVisual{
			VisualType:              "textbox",
			DrillFilterOtherVisuals: true,
			Objects:                 footerObjects(s.config.ModelName),
		}, nil)
		if err != nil {
			return page{}, fmt.Errorf("rendering footer: %w", err)
		}

		out.VisualContainers = append(out.VisualContainers, vc)
		y += footerHeight + margin
	}

	out.Height = max(pageMinHeight, y)

	config, err := compact(struct {
		Objects objects `json:"objects"`
	}{pageObjects()})
	if err != nil {
		return page{}, err
	}

	out.Config = config

	return out, nil
}

func visualContainerFor(pageName string, cfg visual.Config, pos position) (visualContainer, error) {
	name := objectName(pageName, "visual", cfg.VisualID)

	var projected []visual.Field
	for _, w := range cfg.Wells {
		projected = append(projected, w.Fields...)
	}

	q := buildQuery(projected)

	sv := singleVisual{
		VisualType:              cfg.VisualType,
		Projections:             buildProjections(cfg),
		PrototypeQuery:          &q,
		DrillFilterOtherVisuals: true,
		Objects:                 kindObjects(cfg.Kind),
		VCObjects:               containerObjects(),
	}

	return container(name, pos, sv, buildFilters(name, cfg.Filters))
}

func container(name string, pos position, sv singleVisual, filters []filterEntry) (visualContainer, error) {
	config, err := compact(containerConfig{
		Name:         name,
		Layouts:      []layout{{ID: 0, Position: pos}},
		SingleVisual: sv,
	})
	if err != nil {
		return visualContainer{}, err
	}

	if filters == nil {
		filters = []filterEntry{}
	}

	filterText, err := compact(filters)
	if err != nil {
		return visualContainer{}, err
	}

	return visualContainer{position: pos, Config: config, Filters: filterText}, nil
}
