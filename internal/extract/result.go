// Package extract finds QR codes in the raster images embedded in office
// documents, PDF files and bare images, and turns every decoded symbol into
// feature values and event attachments.
package extract

import (
	"fmt"
	"os"
	"time"
)

// FeatureName identifies one of the emitted feature keys.
type FeatureName string

const (
	FeatureDataRaw     FeatureName = "qr_code_data_raw"
	FeatureType        FeatureName = "qr_code_type"
	FeatureRect        FeatureName = "qr_code_rect"
	FeaturePolygon     FeatureName = "qr_code_polygon"
	FeatureQuality     FeatureName = "qr_code_quality"
	FeatureOrientation FeatureName = "qr_code_orientation"
	FeatureURI         FeatureName = "qr_code_uri"
	FeatureEmail       FeatureName = "qr_code_email"
)

// FeatureNames lists every feature key in declaration order.
var FeatureNames = []FeatureName{
	FeatureDataRaw,
	FeatureType,
	FeatureRect,
	FeaturePolygon,
	FeatureQuality,
	FeatureOrientation,
	FeatureURI,
	FeatureEmail,
}

// Description returns a human readable description of the feature.
func (n FeatureName) Description() string {
	switch n {
	case FeatureDataRaw:
		return "Raw data extracted from the qr code"
	case FeatureType:
		return "The type of qr code"
	case FeatureRect:
		return "The rectangle bounds of the qr code"
	case FeaturePolygon:
		return "The polygon bounds of the qr code"
	case FeatureQuality:
		return "The quality of the qr code"
	case FeatureOrientation:
		return "The orientation of the qr code"
	case FeatureURI:
		return "URIs found within the qr code"
	case FeatureEmail:
		return "Email addresses found within the qr code"
	default:
		return ""
	}
}

// ValueType is the declared type of a feature value.
type ValueType string

const (
	ValueTypeString ValueType = "string"
	ValueTypeURI    ValueType = "uri"
)

// ValueType returns the declared value type of the feature.
func (n FeatureName) ValueType() ValueType {
	if n == FeatureURI {
		return ValueTypeURI
	}
	return ValueTypeString
}

// Feature is a single emitted feature value.
type Feature struct {
	Name  FeatureName `json:"name" yaml:"name"`
	Value string      `json:"value" yaml:"value"`
	Type  ValueType   `json:"type" yaml:"type"`
}

// EventKind distinguishes binary from textual attachments.
type EventKind string

const (
	EventData EventKind = "data"
	EventText EventKind = "text"
)

// Event is a side-channel attachment carrying payload content too large or
// too irregular to be a feature value.
type Event struct {
	Kind         EventKind         `json:"kind" yaml:"kind"`
	Label        string            `json:"label,omitempty" yaml:"label,omitempty"`
	Relationship map[string]string `json:"relationship,omitempty" yaml:"relationship,omitempty"`
	Data         []byte            `json:"data,omitempty" yaml:"data,omitempty"`
	Text         string            `json:"text,omitempty" yaml:"text,omitempty"`
}

// StatusLabel is the terminal state of an execution.
type StatusLabel string

const (
	StatusCompleted           StatusLabel = "completed"
	StatusCompletedWithErrors StatusLabel = "completed_with_errors"
	StatusOptOut              StatusLabel = "opt_out"
)

// Status is the terminal status reported for a document.
type Status struct {
	Label   StatusLabel `json:"label" yaml:"label"`
	Message string      `json:"message,omitempty" yaml:"message,omitempty"`
}

// Completed is the normal terminal status.
func Completed() Status { return Status{Label: StatusCompleted} }

// CompletedWithErrors reports a partial result.
func CompletedWithErrors(msg string) Status {
	return Status{Label: StatusCompletedWithErrors, Message: msg}
}

// OptOut reports that the document could not be handled at all.
func OptOut(msg string) Status { return Status{Label: StatusOptOut, Message: msg} }

func (s Status) String() string {
	if s.Message == "" {
		return string(s.Label)
	}
	return fmt.Sprintf("%s: %s", s.Label, s.Message)
}

// Result collects everything produced for one document.
type Result struct {
	Features        []Feature     `json:"features" yaml:"features"`
	Events          []Event       `json:"events,omitempty" yaml:"events,omitempty"`
	Status          Status        `json:"status" yaml:"status"`
	ImagesProcessed int           `json:"images_processed" yaml:"images_processed"`
	Strategy        string        `json:"strategy" yaml:"strategy"`
	Duration        time.Duration `json:"duration_ns" yaml:"duration_ns"`
}

// FeatureValues returns the values emitted under name, in emission order.
func (r *Result) FeatureValues(name FeatureName) []string {
	var out []string
	for _, f := range r.Features {
		if f.Name == name {
			out = append(out, f.Value)
		}
	}
	return out
}

func (r *Result) addFeature(name FeatureName, value string) {
	r.Features = append(r.Features, Feature{Name: name, Value: value, Type: name.ValueType()})
}

func (r *Result) addEvent(ev Event) {
	r.Events = append(r.Events, ev)
}

// Document is the input to one execution. Data takes precedence over Path
// when both are set.
type Document struct {
	Path   string
	Data   []byte
	Format string
}

func (d Document) bytes() ([]byte, error) {
	if d.Data != nil {
		return d.Data, nil
	}
	if d.Path == "" {
		return nil, fmt.Errorf("document has neither path nor data")
	}
	data, err := os.ReadFile(d.Path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return data, nil
}

// name is used in log attributes.
func (d Document) name() string {
	if d.Path != "" {
		return d.Path
	}
	return fmt.Sprintf("<%d bytes>", len(d.Data))
}
