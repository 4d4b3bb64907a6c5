package batch

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MeKo-Tech/qrscan/internal/extract"
	"gopkg.in/yaml.v3"
)

// FormatResults formats the batch result as text, json or yaml.
func (r *Result) FormatResults(format string) (string, error) {
	switch format {
	case "json":
		b, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return string(b) + "\n", nil
	case "yaml":
		b, err := yaml.Marshal(r)
		if err != nil {
			return "", fmt.Errorf("failed to marshal YAML: %w", err)
		}
		return string(b), nil
	default:
		return formatText(r), nil
	}
}

// formatText prints one line per file followed by its feature values.
func formatText(r *Result) string {
	var sb strings.Builder
	for _, it := range r.Items {
		if it.Error != "" {
			fmt.Fprintf(&sb, "%s: error: %s\n", it.Path, it.Error)
			continue
		}
		if it.Result == nil {
			continue
		}
		fmt.Fprintf(&sb, "%s: %s (%s, %d images)\n",
			it.Path, it.Result.Status, it.Result.Strategy, it.Result.ImagesProcessed)
		for _, f := range it.Result.Features {
			if f.Name == extract.FeatureDataRaw || f.Name == extract.FeatureURI || f.Name == extract.FeatureEmail {
				fmt.Fprintf(&sb, "  %s: %s\n", f.Name, f.Value)
			}
		}
	}
	return sb.String()
}
