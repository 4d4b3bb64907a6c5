package extract

import (
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/MeKo-Tech/qrscan/internal/barcode"
)

// DefaultMaxValueLength is the longest payload emitted verbatim as
// qr_code_data_raw.
const DefaultMaxValueLength = 10000

// truncationMarker is appended to shortened qr_code_data_raw values.
const truncationMarker = "..."

// nonSpace excludes every Unicode whitespace rune. RE2's \S only excludes
// ASCII whitespace.
const nonSpace = `[^\s\v\x1c-\x1f\x{85}\p{Z}]`

var (
	uriPattern = regexp.MustCompile(nonSpace + `+://` + nonSpace + `+`)
	// emailPattern runs on text masked by maskWordRunes, which makes its
	// ASCII \b behave like a Unicode word boundary.
	emailPattern = regexp.MustCompile(`(?i)\b[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}\b`)
)

// Normalizer converts decoded symbols into feature values and event
// attachments.
type Normalizer struct {
	MaxValueLength int
}

// NewNormalizer returns a Normalizer truncating values above maxValueLength
// bytes. Values of 3 or less fall back to DefaultMaxValueLength.
func NewNormalizer(maxValueLength int) *Normalizer {
	if maxValueLength <= len(truncationMarker) {
		maxValueLength = DefaultMaxValueLength
	}
	return &Normalizer{MaxValueLength: maxValueLength}
}

// Normalize appends the features and events derived from sym to res.
func (n *Normalizer) Normalize(sym barcode.Symbol, res *Result) {
	text, ok := decodeStrict(sym.Payload)
	if !ok {
		slog.Error("QR payload is not valid UTF-8", "bytes", len(sym.Payload))
		res.addEvent(Event{
			Kind:         EventData,
			Label:        "text",
			Relationship: map[string]string{"action": "extracted_qr_code"},
			Data:         append([]byte(nil), sym.Payload...),
		})
	} else {
		for _, candidate := range findURIs(text) {
			res.addFeature(FeatureURI, candidate)
		}
	}

	for _, email := range findEmails(sym.Payload) {
		res.addFeature(FeatureEmail, email)
	}

	if ok {
		if len(sym.Payload) > n.MaxValueLength {
			res.addEvent(Event{Kind: EventText, Text: text})
			res.addFeature(FeatureDataRaw, truncateRunes(text, n.MaxValueLength-len(truncationMarker))+truncationMarker)
		} else {
			res.addFeature(FeatureDataRaw, text)
		}
	}

	n.addOptional(res, FeatureType, func() (string, bool) {
		s := sym.Type.String()
		return s, s != ""
	})
	n.addOptional(res, FeatureRect, func() (string, bool) {
		if sym.Rect == nil || sym.Rect.IsZero() {
			return "", false
		}
		return sym.Rect.String(), true
	})
	n.addOptional(res, FeaturePolygon, func() (string, bool) {
		if len(sym.Polygon) == 0 {
			return "", false
		}
		return sym.Polygon.String(), true
	})
	n.addOptional(res, FeatureQuality, func() (string, bool) {
		if sym.Quality == nil || *sym.Quality == 0 {
			return "", false
		}
		return strconv.Itoa(*sym.Quality), true
	})
	n.addOptional(res, FeatureOrientation, func() (string, bool) {
		if sym.Orientation == nil {
			return "", false
		}
		s := sym.Orientation.String()
		return s, s != ""
	})
}

// addOptional emits a single optional field. A panic while rendering the
// value drops that field only.
func (n *Normalizer) addOptional(res *Result, name FeatureName, render func() (string, bool)) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("Failed to render QR field", "feature", string(name), "error", fmt.Sprint(r))
		}
	}()

	if v, ok := render(); ok {
		res.addFeature(name, v)
	}
}

func decodeStrict(payload []byte) (string, bool) {
	if !utf8.Valid(payload) {
		return "", false
	}
	return string(payload), true
}

// findURIs returns every scheme://rest token in text. Duplicates are kept.
func findURIs(text string) []string {
	var out []string
	for _, c := range uriPattern.FindAllString(text, -1) {
		if acceptURI(c) {
			out = append(out, c)
		}
	}
	return out
}

// acceptURI mirrors a lenient urlparse: a malformed URL is still kept as long
// as the token is non-empty.
func acceptURI(candidate string) bool {
	if _, err := url.Parse(candidate); err != nil {
		slog.Debug("Keeping unparsable URI candidate", "candidate", candidate, "error", err)
	}
	return candidate != ""
}

// findEmails scans a lossy decoding of payload, so invalid sequences never
// hide addresses around them.
func findEmails(payload []byte) []string {
	text := strings.ToValidUTF8(string(payload), "\uFFFD")
	masked, offsets := maskWordRunes(text)

	var out []string
	for _, loc := range emailPattern.FindAllStringIndex(masked, -1) {
		out = append(out, text[offsets[loc[0]]:offsets[loc[1]]])
	}
	return out
}

// maskWordRunes maps every rune of text to one ASCII byte: the rune itself,
// the ASCII letter it case-folds to, '_' for other letters and numbers, or
// ' '. offsets[i] is the byte offset in text of masked byte i.
func maskWordRunes(text string) (string, []int) {
	var sb strings.Builder
	sb.Grow(len(text))
	offsets := make([]int, 0, len(text)+1)
	for i, r := range text {
		offsets = append(offsets, i)
		switch {
		case r < utf8.RuneSelf:
			sb.WriteByte(byte(r))
		case asciiFold(r) != 0:
			sb.WriteByte(asciiFold(r))
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			sb.WriteByte('_')
		default:
			sb.WriteByte(' ')
		}
	}
	offsets = append(offsets, len(text))
	return sb.String(), offsets
}

// asciiFold returns the ASCII letter r folds to, or 0.
func asciiFold(r rune) byte {
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		if f < utf8.RuneSelf {
			return byte(f)
		}
	}
	return 0
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
