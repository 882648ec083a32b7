package serialize

import (
	"report-converter/internal/visual"
)

type object struct {
	Properties map[string]any `json:"properties"`
}

// objects is a visual's formatting, keyed by object name.
type objects map[string][]object

func expr(value string) map[string]any {
	return map[string]any{"expr": map[string]any{"Literal": map[string]any{"Value": value}}}
}

func solid(color string) map[string]any {
	return map[string]any{"solid": map[string]any{"color": expr(color)}}
}

func props(kv ...any) object {
	p := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		p[kv[i].(string)] = kv[i+1]
	}

	return object{Properties: p}
}

func containerObjects() objects {
	return objects{
		"stylePreset": {props("name", expr("'None'"))},
		"background": {props(
			"show", expr("true"),
			"color", solid("'#FFFFFF'"),
			"transparency", expr("0D"),
		)},
	}
}

// kindObjects returns the formatting applied to a target kind, or nil.
func kindObjects(kind visual.Kind) objects {
	switch kind {
	case visual.KindTable:
		return objects{
			"grid":          {props("gridHorizontal", expr("false"))},
			"columnHeaders": {props("bold", expr("true"), "fontSize", expr("12D"))},
			"values":        {props("fontSize", expr("12D"))},
		}
	case visual.KindMatrix:
		return objects{
			"grid":          {props("gridHorizontal", expr("false"))},
			"columnHeaders": {props("bold", expr("true"), "fontSize", expr("12D"))},
			"rowHeaders":    {props("fontSize", expr("10D"))},
			"values":        {props("fontSize", expr("12D"))},
			"general":       {props("layout", expr("'Tabular'"))},
		}
	default:
		return nil
	}
}

func pageObjects() objects {
	return objects{
		"background": {props("color", solid("'#E6E6E6'"))},
		"wallpaper":  {props("color", solid("'#FFFFFF'"), "transparency", expr("0D"))},
	}
}

func footerObjects(modelName string) objects {
	runs := []any{
		map[string]any{
			"value":     " Source: ",
			"textStyle": map[string]any{"fontWeight": "bold", "fontSize": "12pt", "fontFamily": "Segoe UI"},
		},
		map[string]any{
			"value":     modelName,
			"textStyle": map[string]any{"fontSize": "12pt", "fontFamily": "Segoe UI"},
		},
	}

	return objects{
		"general": {props("paragraphs", []any{map[string]any{"textRuns": runs}})},
	}
}
