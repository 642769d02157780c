package codec

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestEncodePlainMatchesJSONStringify(t *testing.T) {
	c := New()
	got, err := c.Encode(map[string]any{"theme": "dark", "html": "<b>&</b>"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `{"html":"<b>&</b>","theme":"dark"}`
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestEncodeBase64IsNotPlainJSON(t *testing.T) {
	c := New(WithEncoding(Base64))
	got, err := c.Encode(map[string]any{"a": 1})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if got != "eyJhIjoxfQ==" {
		t.Fatalf("unexpected encoded text %q", got)
	}
	var parsed any
	if json.Unmarshal([]byte(got), &parsed) == nil {
		t.Fatalf("encoded text should not parse as JSON")
	}
}

func TestEncodeRejectsUnserializable(t *testing.T) {
	_, err := New().Encode(map[string]any{"fn": func() {}})
	var encErr *EncodeError
	if !errors.As(err, &encErr) {
		t.Fatalf("expected EncodeError, got %v", err)
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	values := []any{
		map[string]any{"theme": "dark", "volume": float64(7)},
		[]any{"a", float64(1), true, nil},
		"plain string",
		float64(42),
		false,
		map[string]any{"nested": map[string]any{"list": []any{map[string]any{"k": "v"}}}},
		map[string]any{"unicode": "héllo ✓ 日本"},
	}
	for _, encoding := range []TextEncoding{Identity, Base64} {
		c := New(WithEncoding(encoding))
		for _, value := range values {
			text, err := c.Encode(value)
			if err != nil {
				t.Fatalf("%s encode %v: %v", encoding.Name(), value, err)
			}
			got, err := c.Decode(text)
			if err != nil {
				t.Fatalf("%s decode %q: %v", encoding.Name(), text, err)
			}
			if !reflect.DeepEqual(value, got) {
				t.Fatalf("%s round trip mismatch: want %#v got %#v", encoding.Name(), value, got)
			}
		}
	}
}

func TestDecodeFailures(t *testing.T) {
	cases := []struct {
		name     string
		encoding TextEncoding
		text     string
		stage    string
	}{
		{name: "plain garbage", encoding: Identity, text: "not json", stage: StageParse},
		{name: "plain trailing data", encoding: Identity, text: `{"a":1} extra`, stage: StageParse},
		{name: "plain two values", encoding: Identity, text: `{}{}`, stage: StageParse},
		{name: "base64 invalid alphabet", encoding: Base64, text: `{"a":1}`, stage: StageEncoding},
		{name: "base64 invalid length", encoding: Base64, text: "abcde", stage: StageEncoding},
		{name: "base64 of non json", encoding: Base64, text: "aGVsbG8gd29ybGQ=", stage: StageParse},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(WithEncoding(tc.encoding)).Decode(tc.text)
			var decErr *DecodeError
			if !errors.As(err, &decErr) {
				t.Fatalf("expected DecodeError, got %v", err)
			}
			if decErr.Stage != tc.stage {
				t.Fatalf("expected stage %s, got %s (%v)", tc.stage, decErr.Stage, err)
			}
			if decErr.Encoding != tc.encoding.Name() {
				t.Fatalf("expected encoding %s, got %s", tc.encoding.Name(), decErr.Encoding)
			}
		})
	}
}

func TestDecodeFallbackAcceptsOtherVariant(t *testing.T) {
	plain := New(WithFallback(true))
	got, err := plain.Decode("eyJhIjoxfQ==")
	if err != nil {
		t.Fatalf("plain codec with fallback: %v", err)
	}
	if !reflect.DeepEqual(got, map[string]any{"a": float64(1)}) {
		t.Fatalf("unexpected value %#v", got)
	}

	encoded := New(WithEncoding(Base64), WithFallback(true))
	got, err = encoded.Decode(`{"a":1}`)
	if err != nil {
		t.Fatalf("base64 codec with fallback: %v", err)
	}
	if !reflect.DeepEqual(got, map[string]any{"a": float64(1)}) {
		t.Fatalf("unexpected value %#v", got)
	}
}

func TestDecodeFallbackReportsConfiguredVariantError(t *testing.T) {
	_, err := New(WithEncoding(Base64), WithFallback(true)).Decode("%%%")
	var decErr *DecodeError
	if !errors.As(err, &decErr) || decErr.Encoding != "base64" {
		t.Fatalf("expected base64 DecodeError, got %v", err)
	}
}

func TestDecodeWithoutFallbackIsStrict(t *testing.T) {
	if _, err := New().Decode("eyJhIjoxfQ=="); err == nil {
		t.Fatalf("expected plain codec to reject base64 text")
	}
}

func TestDecodeUseNumber(t *testing.T) {
	got, err := New(WithUseNumber()).Decode(`{"volume":7}`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	m := got.(map[string]any)
	if n, ok := m["volume"].(json.Number); !ok || n.String() != "7" {
		t.Fatalf("expected json.Number 7, got %#v", m["volume"])
	}
}

func TestDecodeIntoStruct(t *testing.T) {
	type settings struct {
		Theme  string `json:"theme"`
		Volume int    `json:"volume"`
	}
	var got settings
	if err := New(WithEncoding(Base64)).DecodeInto("eyJ0aGVtZSI6ImRhcmsiLCJ2b2x1bWUiOjd9", &got); err != nil {
		t.Fatalf("decode into: %v", err)
	}
	if got.Theme != "dark" || got.Volume != 7 {
		t.Fatalf("unexpected struct %+v", got)
	}
}

func TestDecoderConfigDisallowUnknownFields(t *testing.T) {
	type settings struct {
		Theme string `json:"theme"`
	}
	c := New(WithDecoderConfig(func(dec *json.Decoder) { dec.DisallowUnknownFields() }))
	var got settings
	err := c.DecodeInto(`{"theme":"dark","extra":1}`, &got)
	if err == nil || !strings.Contains(err.Error(), "unknown field") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
}
