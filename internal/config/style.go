package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ignoredStyleKeys are accepted in style documents but have no effect.
var ignoredStyleKeys = map[string]struct{}{
	"color_palette": {},
	"bg_color":      {},
}

// ApplyStyleDocument overlays a JSON or YAML style document on base. Keys that
// are present replace the matching field; absent keys keep the base value.
// Unrecognized keys are returned sorted so callers can log them.
func ApplyStyleDocument(base Style, data []byte) (Style, []string, error) {
	style := base
	style.FontPath = append([]string(nil), base.FontPath...)

	if len(strings.TrimSpace(string(data))) == 0 {
		return style, nil, nil
	}

	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return base, nil, fmt.Errorf("parse style document: %w", err)
	}

	var unknown []string
	for key, node := range doc {
		var err error
		switch key {
		case "font_path":
			style.FontPath, err = decodeFontPaths(&node)
		case "font_size":
			err = node.Decode(&style.FontSize)
		case "text_color":
			err = node.Decode(&style.TextColor)
		case "stroke_color":
			err = node.Decode(&style.StrokeColor)
		case "stroke_width":
			err = node.Decode(&style.StrokeWidth)
		case "vertical_align":
			err = node.Decode(&style.VerticalAlign)
		case "horizontal_align":
			err = node.Decode(&style.HorizontalAlign)
		case "use_fade_and_scale":
			err = node.Decode(&style.UseFadeAndScale)
		case "fade_duration":
			err = node.Decode(&style.FadeDuration)
		case "scale_effect_intensity":
			err = node.Decode(&style.ScaleEffectIntensity)
		case "word_count":
			err = node.Decode(&style.WordCount)
		case "line_spacing":
			err = node.Decode(&style.LineSpacing)
		case "caption_width_ratio":
			err = node.Decode(&style.CaptionWidthRatio)
		case "highlight_text":
			err = node.Decode(&style.HighlightText)
		case "highlight_text_color":
			err = node.Decode(&style.HighlightTextColor)
		case "highlight_bg_color":
			err = node.Decode(&style.HighlightBGColor)
		case "highlight_padding":
			style.HighlightPadding, err = decodePadding(&node)
		case "output_path":
			err = node.Decode(&style.OutputPath)
		default:
			if _, ok := ignoredStyleKeys[key]; !ok {
				unknown = append(unknown, key)
			}
		}
		if err != nil {
			return base, nil, fmt.Errorf("style.%s: %w", key, err)
		}
	}
	sort.Strings(unknown)

	style.normalize()
	if err := style.Validate(); err != nil {
		return base, unknown, err
	}
	return style, unknown, nil
}

// LoadStyleDocument reads a style document from disk and applies it to base.
func LoadStyleDocument(base Style, path string) (Style, []string, error) {
	expanded, err := expandPath(path)
	if err != nil {
		return base, nil, err
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return base, nil, fmt.Errorf("read style document: %w", err)
	}
	return ApplyStyleDocument(base, data)
}

// A single string is accepted as shorthand for a one-entry list.
func decodeFontPaths(node *yaml.Node) ([]string, error) {
	if node.Kind == yaml.ScalarNode {
		var single string
		if err := node.Decode(&single); err != nil {
			return nil, err
		}
		return []string{single}, nil
	}
	var paths []string
	if err := node.Decode(&paths); err != nil {
		return nil, err
	}
	return paths, nil
}

func decodePadding(node *yaml.Node) ([2]int, error) {
	var values []int
	if err := node.Decode(&values); err != nil {
		return [2]int{}, err
	}
	if len(values) != 2 {
		return [2]int{}, errors.New("expected two values [x, y]")
	}
	return [2]int{values[0], values[1]}, nil
}
