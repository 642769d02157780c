package codec

import (
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf8"
)

// TextEncoding is a reversible text-to-text transform applied after the
// payload has been serialized. It exists for stores with character-set
// restrictions.
type TextEncoding interface {
	Name() string
	Encode(text string) string
	Decode(text string) (string, error)
}

var (
	// Identity stores the serialized text as-is.
	Identity TextEncoding = identityEncoding{}
	// Base64 stores the standard-alphabet, padded base64 form of the text,
	// the same shape window.btoa produces.
	Base64 TextEncoding = base64Encoding{}
)

// ParseEncoding resolves a configuration name to a TextEncoding.
func ParseEncoding(name string) (TextEncoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none", "identity", "json":
		return Identity, nil
	case "base64", "b64":
		return Base64, nil
	default:
		return nil, fmt.Errorf("codec: unknown encoding %q", name)
	}
}

// Encodings lists the names ParseEncoding accepts canonically.
func Encodings() []string {
	return []string{Identity.Name(), Base64.Name()}
}

type identityEncoding struct{}

func (identityEncoding) Name() string { return "none" }

func (identityEncoding) Encode(text string) string { return text }

func (identityEncoding) Decode(text string) (string, error) { return text, nil }

type base64Encoding struct{}

func (base64Encoding) Name() string { return "base64" }

func (base64Encoding) Encode(text string) string {
	return base64.StdEncoding.EncodeToString([]byte(text))
}

// Decode follows the forgiving rules of window.atob: ASCII whitespace is
// ignored and padding is optional. Decoded bytes that are not valid UTF-8 are
// read as Latin-1, which is how btoa-produced records carry non-ASCII text.
// Latin-1 text whose bytes happen to form valid UTF-8 (such as "Ã©") is
// read as that UTF-8 text ("é"), since the two cannot be told apart.
func (base64Encoding) Decode(text string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\f', '\r':
			return -1
		}
		return r
	}, text)
	if len(cleaned)%4 == 0 {
		cleaned = strings.TrimSuffix(cleaned, "=")
		cleaned = strings.TrimSuffix(cleaned, "=")
	}
	if len(cleaned)%4 == 1 {
		return "", fmt.Errorf("codec: base64: invalid length %d", len(cleaned))
	}

	raw, err := base64.RawStdEncoding.DecodeString(cleaned)
	if err != nil {
		return "", fmt.Errorf("codec: base64: %w", err)
	}
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	return latin1(raw), nil
}

func latin1(raw []byte) string {
	var b strings.Builder
	b.Grow(len(raw) * 2)
	for _, c := range raw {
		b.WriteRune(rune(c))
	}
	return b.String()
}
