package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/qrscan/internal/extract"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

const (
	outputFormatJSON = "json"
	outputFormatYAML = "yaml"
)

// fileResult is the serialized form of one analyzed file.
type fileResult struct {
	File       string          `json:"file" yaml:"file"`
	Result     *extract.Result `json:"result" yaml:"result"`
	EventFiles []eventFile     `json:"event_files,omitempty" yaml:"event_files,omitempty"`
}

// eventFile references an event attachment stored on disk.
type eventFile struct {
	Path  string            `json:"path" yaml:"path"`
	Kind  extract.EventKind `json:"kind" yaml:"kind"`
	Label string            `json:"label,omitempty" yaml:"label,omitempty"`
	Size  int               `json:"size" yaml:"size"`
}

// formatResult renders res. When files is non-empty the events have been
// written to disk and only their references are printed.
func formatResult(format, path string, res *extract.Result, files []eventFile) (string, error) {
	obj := fileResult{File: path, Result: res, EventFiles: files}
	switch format {
	case outputFormatJSON:
		b, err := json.MarshalIndent(obj, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return string(b) + "\n", nil
	case outputFormatYAML:
		b, err := yaml.Marshal(obj)
		if err != nil {
			return "", fmt.Errorf("failed to marshal YAML: %w", err)
		}
		return string(b), nil
	default:
		return formatText(path, res, files), nil
	}
}

// statusTitle renders a status label for humans, e.g. "Completed With Errors".
func statusTitle(s extract.Status) string {
	title := cases.Title(language.English).String(strings.ReplaceAll(string(s.Label), "_", " "))
	if s.Message != "" {
		title += " (" + s.Message + ")"
	}
	return title
}

func formatText(path string, res *extract.Result, files []eventFile) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s\n", path, statusTitle(res.Status))
	fmt.Fprintf(&sb, "  strategy: %s, images processed: %d\n", res.Strategy, res.ImagesProcessed)
	if len(res.Features) == 0 {
		sb.WriteString("  no QR codes found\n")
	}
	for _, f := range res.Features {
		fmt.Fprintf(&sb, "  %s: %s\n", f.Name, f.Value)
	}
	for i, ev := range res.Events {
		fmt.Fprintf(&sb, "  event %d: %s\n", i+1, eventSummary(ev.Kind, ev.Label, eventContent(ev)))
	}
	for i, f := range files {
		fmt.Fprintf(&sb, "  event %d: %s, written to %s\n", i+1, eventSummary(f.Kind, f.Label, f.Size), f.Path)
	}
	return sb.String()
}

func eventSummary(kind extract.EventKind, label string, size int) string {
	if kind == extract.EventText {
		return fmt.Sprintf("text, %d bytes", size)
	}
	return fmt.Sprintf("data (%s), %d bytes", label, size)
}

func eventContent(ev extract.Event) int {
	if ev.Kind == extract.EventText {
		return len(ev.Text)
	}
	return len(ev.Data)
}

// eventFileName names the attachment for the i-th event (zero based).
func eventFileName(i int, ev extract.Event) string {
	ext := ".bin"
	if ev.Kind == extract.EventText {
		ext = ".txt"
	}
	return fmt.Sprintf("event-%d%s", i+1, ext)
}

// storeEvents writes the events of res to dir and replaces them with file
// references.
func storeEvents(dir string, res *extract.Result) ([]eventFile, error) {
	paths, err := writeEvents(dir, res.Events)
	if err != nil {
		return nil, err
	}
	files := make([]eventFile, 0, len(paths))
	for i, p := range paths {
		ev := res.Events[i]
		files = append(files, eventFile{Path: p, Kind: ev.Kind, Label: ev.Label, Size: eventContent(ev)})
	}
	res.Events = nil
	return files, nil
}

// writeEvents stores every event attachment in dir and returns the written paths.
func writeEvents(dir string, events []extract.Event) ([]string, error) {
	if len(events) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create events directory: %w", err)
	}

	paths := make([]string, 0, len(events))
	for i, ev := range events {
		p := filepath.Join(dir, eventFileName(i, ev))
		content := ev.Data
		if ev.Kind == extract.EventText {
			content = []byte(ev.Text)
		}
		if err := os.WriteFile(p, content, 0o600); err != nil {
			return paths, fmt.Errorf("failed to write event %d: %w", i+1, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}
