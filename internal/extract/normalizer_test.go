package extract

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/MeKo-Tech/qrscan/internal/barcode"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func orientationPtr(o barcode.Orientation) *barcode.Orientation { return &o }

func TestNormalize_FullSymbol(t *testing.T) {
	sym := barcode.Symbol{
		Payload:     []byte("Visit https://example.com/a?b=c or mail Bob@Example.org today"),
		Type:        barcode.FormatQR,
		Rect:        &barcode.Rect{Left: 10, Top: 20, Width: 100, Height: 110},
		Polygon:     barcode.Polygon{{X: 10, Y: 20}, {X: 110, Y: 20}, {X: 110, Y: 130}},
		Quality:     intPtr(1),
		Orientation: orientationPtr(barcode.OrientationUp),
	}

	var res Result
	NewNormalizer(DefaultMaxValueLength).Normalize(sym, &res)

	names := make([]FeatureName, 0, len(res.Features))
	for _, f := range res.Features {
		names = append(names, f.Name)
	}
	assert.Equal(t, []FeatureName{
		FeatureURI, FeatureEmail, FeatureDataRaw, FeatureType,
		FeatureRect, FeaturePolygon, FeatureQuality, FeatureOrientation,
	}, names)

	assert.Equal(t, []string{"https://example.com/a?b=c"}, res.FeatureValues(FeatureURI))
	assert.Equal(t, []string{"Bob@Example.org"}, res.FeatureValues(FeatureEmail))
	assert.Equal(t, []string{string(sym.Payload)}, res.FeatureValues(FeatureDataRaw))
	assert.Equal(t, []string{"QRCODE"}, res.FeatureValues(FeatureType))
	assert.Equal(t, []string{"Rect(left=10, top=20, width=100, height=110)"}, res.FeatureValues(FeatureRect))
	assert.Equal(t, []string{"[Point(x=10, y=20), Point(x=110, y=20), Point(x=110, y=130)]"}, res.FeatureValues(FeaturePolygon))
	assert.Equal(t, []string{"1"}, res.FeatureValues(FeatureQuality))
	assert.Equal(t, []string{"UP"}, res.FeatureValues(FeatureOrientation))
	assert.Empty(t, res.Events)

	for _, f := range res.Features {
		if f.Name == FeatureURI {
			assert.Equal(t, ValueTypeURI, f.Type)
		} else {
			assert.Equal(t, ValueTypeString, f.Type)
		}
	}
}

func TestNormalize_AbsentFields(t *testing.T) {
	tests := []struct {
		name string
		sym  barcode.Symbol
	}{
		{"all absent", barcode.Symbol{Payload: []byte("plain")}},
		{"zero rect", barcode.Symbol{Payload: []byte("plain"), Rect: &barcode.Rect{}}},
		{"zero quality", barcode.Symbol{Payload: []byte("plain"), Quality: intPtr(0)}},
		{"empty polygon", barcode.Symbol{Payload: []byte("plain"), Polygon: barcode.Polygon{}}},
		{"unknown orientation", barcode.Symbol{Payload: []byte("plain"), Orientation: orientationPtr(barcode.Orientation(9))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var res Result
			NewNormalizer(DefaultMaxValueLength).Normalize(tt.sym, &res)
			require.Len(t, res.Features, 1)
			assert.Equal(t, FeatureDataRaw, res.Features[0].Name)
			assert.Equal(t, "plain", res.Features[0].Value)
		})
	}
}

func TestNormalize_InvalidUTF8(t *testing.T) {
	payload := []byte{0xff, 0xfe, 'h', 't', 't', 'p', ':', '/', '/', 'x', ' ', 'a', '@', 'b', '.', 'c', 'o'}
	sym := barcode.Symbol{Payload: payload, Type: barcode.FormatQR}

	var res Result
	NewNormalizer(DefaultMaxValueLength).Normalize(sym, &res)

	require.Len(t, res.Events, 1)
	ev := res.Events[0]
	assert.Equal(t, EventData, ev.Kind)
	assert.Equal(t, "text", ev.Label)
	assert.Equal(t, map[string]string{"action": "extracted_qr_code"}, ev.Relationship)
	assert.Equal(t, payload, ev.Data)

	assert.Empty(t, res.FeatureValues(FeatureDataRaw))
	assert.Empty(t, res.FeatureValues(FeatureURI))
	assert.Equal(t, []string{"a@b.co"}, res.FeatureValues(FeatureEmail))
	assert.Equal(t, []string{"QRCODE"}, res.FeatureValues(FeatureType))

	// The attachment must not alias the symbol payload.
	payload[0] = 'X'
	assert.Equal(t, byte(0xff), ev.Data[0])
}

func TestNormalize_Truncation(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		max       int
		wantRaw   string
		wantEvent bool
	}{
		{"below limit", "abcdefghij", 12, "abcdefghij", false},
		{"at limit", "abcdefghij", 10, "abcdefghij", false},
		{"over limit", "abcdefghij", 9, "abcdef...", true},
		// Length is measured in bytes, the cut in characters.
		{"multibyte", "ééééé", 8, "ééééé...", true},
		{"multibyte under rune limit", strings.Repeat("é", 60), 100, strings.Repeat("é", 60) + "...", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var res Result
			NewNormalizer(tt.max).Normalize(textSymbol(tt.payload), &res)

			assert.Equal(t, []string{tt.wantRaw}, res.FeatureValues(FeatureDataRaw))
			if tt.wantEvent {
				require.Len(t, res.Events, 1)
				assert.Equal(t, EventText, res.Events[0].Kind)
				assert.Equal(t, tt.payload, res.Events[0].Text)
			} else {
				assert.Empty(t, res.Events)
			}
		})
	}
}

func TestNormalize_LongPayloadScenario(t *testing.T) {
	payload := strings.Repeat("a", 12000)

	var res Result
	NewNormalizer(10000).Normalize(textSymbol(payload), &res)

	raw := res.FeatureValues(FeatureDataRaw)
	require.Len(t, raw, 1)
	assert.Len(t, raw[0], 10000)
	assert.True(t, strings.HasSuffix(raw[0], "..."))
	assert.Equal(t, strings.Repeat("a", 9997), strings.TrimSuffix(raw[0], "..."))

	require.Len(t, res.Events, 1)
	assert.Equal(t, payload, res.Events[0].Text)
}

func TestNormalize_URIs(t *testing.T) {
	tests := []struct {
		payload string
		want    []string
	}{
		{"no links here", nil},
		{"https://a.example", []string{"https://a.example"}},
		{"ftp://x http://y", []string{"ftp://x", "http://y"}},
		{"dup http://z http://z", []string{"http://z", "http://z"}},
		{"weird://[::1 still kept", []string{"weird://[::1"}},
		{"WIFI:S:net;T:WPA;;", nil},
		{"https://a.example/x\u00a0tail https://b.example/y\vz", []string{"https://a.example/x", "https://b.example/y"}},
		{"see\u2003http://em.example/\u3000done", []string{"http://em.example/"}},
		{"line\u0085http://nel.example\u2028http://ls.example", []string{"http://nel.example", "http://ls.example"}},
		{"sep\x1chttp://fs.example\x1fend", []string{"http://fs.example"}},
		{"https://ex.com/\u00e9t\u00e9", []string{"https://ex.com/\u00e9t\u00e9"}},
	}

	for _, tt := range tests {
		t.Run(tt.payload, func(t *testing.T) {
			var res Result
			NewNormalizer(DefaultMaxValueLength).Normalize(textSymbol(tt.payload), &res)
			assert.Equal(t, tt.want, res.FeatureValues(FeatureURI))
		})
	}
}

func TestNormalize_Emails(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    []string
	}{
		{"plain", "write to bob@x.org now", []string{"bob@x.org"}},
		{"parenthesised", "(bob@x.org)", []string{"bob@x.org"}},
		{"nbsp separated", "bob@x.org\u00a0next", []string{"bob@x.org"}},
		{"preceded by letter", "\u65e5\u672cbob@x.org", nil},
		{"preceded by accented letter", "\u00e9a@b.com", nil},
		{"followed by letter", "a@b.com\u00e9", nil},
		{"preceded by digit", "\u0663bob@x.org", nil},
		{"preceded by symbol", "\u2192bob@x.org", []string{"bob@x.org"}},
		{"kelvin sign folds to k", "\u212aate@x.org", []string{"\u212aate@x.org"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, findEmails([]byte(tt.payload)))
		})
	}
}

func TestMaskWordRunes(t *testing.T) {
	text := "\u00e9a \u2192b \u212a"
	masked, offsets := maskWordRunes(text)
	assert.Equal(t, "_a  b k", masked)
	assert.Equal(t, []int{0, 2, 3, 4, 7, 8, 9, 12}, offsets)
}

func TestNewNormalizer_Floor(t *testing.T) {
	assert.Equal(t, DefaultMaxValueLength, NewNormalizer(0).MaxValueLength)
	assert.Equal(t, DefaultMaxValueLength, NewNormalizer(3).MaxValueLength)
	assert.Equal(t, 4, NewNormalizer(4).MaxValueLength)
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "", truncateRunes("abc", 0))
	assert.Equal(t, "ab", truncateRunes("abc", 2))
	assert.Equal(t, "abc", truncateRunes("abc", 5))
	assert.Equal(t, "日本", truncateRunes("日本語", 2))
}

var sampleRunes = []string{"a", "Z", "7", "é", "日", "🙂", " "}

func word(seed, n int) string {
	var b strings.Builder
	for i := range n {
		b.WriteByte(byte('a' + (seed+i*7)%26))
	}
	return b.String()
}

func TestNormalize_TruncationLaw(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("data_raw is verbatim up to the limit and truncated above it", prop.ForAll(
		func(n, kind, limit int) bool {
			payload := strings.Repeat(sampleRunes[kind], n)

			var res Result
			NewNormalizer(limit).Normalize(textSymbol(payload), &res)
			raw := res.FeatureValues(FeatureDataRaw)
			if len(raw) != 1 {
				return false
			}

			if len(payload) <= limit {
				return raw[0] == payload && len(res.Events) == 0
			}
			want := truncateRunes(payload, limit-3) + "..."
			return raw[0] == want &&
				utf8.RuneCountInString(raw[0]) <= limit &&
				len(res.Events) == 1 &&
				res.Events[0].Text == payload
		},
		gen.IntRange(0, 400),
		gen.IntRange(0, len(sampleRunes)-1),
		gen.IntRange(4, 200),
	))

	properties.TestingRun(t)
}

func TestNormalize_URILaw(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("every scheme://rest token is reported once per occurrence", prop.ForAll(
		func(seed, schemeLen, hostLen, copies int) bool {
			uri := word(seed, schemeLen) + "://" + word(seed+1, hostLen) + "/p"
			payload := "scan " + strings.TrimSpace(strings.Repeat(uri+" ", copies)) + " now"

			var res Result
			NewNormalizer(DefaultMaxValueLength).Normalize(textSymbol(payload), &res)
			got := res.FeatureValues(FeatureURI)
			if len(got) != copies {
				return false
			}
			for _, g := range got {
				if g != uri {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 1000),
		gen.IntRange(1, 8),
		gen.IntRange(1, 20),
		gen.IntRange(1, 4),
	))

	properties.TestingRun(t)
}

func TestNormalize_MultibyteTruncationLength(t *testing.T) {
	payload := strings.Repeat("é", 60)
	require.Len(t, payload, 120)

	var res Result
	NewNormalizer(100).Normalize(textSymbol(payload), &res)

	raw := res.FeatureValues(FeatureDataRaw)
	require.Len(t, raw, 1)
	// Over the limit in bytes but not in characters: nothing is cut, the
	// marker is still appended and the value exceeds the limit by three.
	assert.Equal(t, 63, utf8.RuneCountInString(raw[0]))
	assert.Equal(t, payload+"...", raw[0])
	require.Len(t, res.Events, 1)
	assert.Equal(t, payload, res.Events[0].Text)
}

var unicodeSpaces = []string{" ", "\t", "\v", "\u0085", "\u00a0", "\u1680", "\u2009", "\u2028", "\u202f", "\u3000"}

func TestNormalize_URIWhitespaceLaw(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("no reported URI contains whitespace", prop.ForAll(
		func(seed, hostLen, sep int) bool {
			uri := "https://" + word(seed, hostLen) + "/p"
			payload := uri + unicodeSpaces[sep] + word(seed+2, 5)

			var res Result
			NewNormalizer(DefaultMaxValueLength).Normalize(textSymbol(payload), &res)
			got := res.FeatureValues(FeatureURI)
			return len(got) == 1 && got[0] == uri
		},
		gen.IntRange(0, 1000),
		gen.IntRange(1, 20),
		gen.IntRange(0, len(unicodeSpaces)-1),
	))

	properties.TestingRun(t)
}

func TestNormalize_EmailLaw(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("well formed addresses are reported", prop.ForAll(
		func(seed, localLen, domainLen, tldLen int) bool {
			addr := word(seed, localLen) + "@" + word(seed+3, domainLen) + "." + word(seed+5, tldLen)
			payload := "contact: " + addr + " thanks"

			var res Result
			NewNormalizer(DefaultMaxValueLength).Normalize(textSymbol(payload), &res)
			got := res.FeatureValues(FeatureEmail)
			return len(got) == 1 && got[0] == addr
		},
		gen.IntRange(0, 1000),
		gen.IntRange(1, 12),
		gen.IntRange(1, 12),
		gen.IntRange(2, 6),
	))

	properties.TestingRun(t)
}
