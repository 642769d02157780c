// Package codec turns opaque payloads into the stored text representation and
// back: JSON serialization followed by an optional reversible TextEncoding.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Option configures a Codec.
type Option func(*Codec)

// WithEncoding selects the text encoding. Nil keeps Identity.
func WithEncoding(encoding TextEncoding) Option {
	return func(c *Codec) {
		if encoding != nil {
			c.encoding = encoding
		}
	}
}

// WithFallback retries a failed decode under the other stored variant
// (plain JSON vs base64) before giving up.
func WithFallback(enabled bool) Option {
	return func(c *Codec) {
		c.fallback = enabled
	}
}

// WithUseNumber decodes numbers into json.Number instead of float64.
func WithUseNumber() Option {
	return func(c *Codec) {
		c.configureDec = append(c.configureDec, func(dec *json.Decoder) {
			dec.UseNumber()
		})
	}
}

// WithDecoderConfig allows callers to configure the json.Decoder directly.
func WithDecoderConfig(configure func(*json.Decoder)) Option {
	return func(c *Codec) {
		if configure != nil {
			c.configureDec = append(c.configureDec, configure)
		}
	}
}

// Codec is immutable after New and safe for concurrent use.
type Codec struct {
	encoding     TextEncoding
	fallback     bool
	configureDec []func(*json.Decoder)
}

func New(opts ...Option) *Codec {
	c := &Codec{encoding: Identity}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Encoding returns the configured text encoding.
func (c *Codec) Encoding() TextEncoding {
	return c.encoding
}

// Encode serializes v and applies the text encoding. HTML characters are not
// escaped so the plain variant matches JSON.stringify output.
func (c *Codec) Encode(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", &EncodeError{Err: err}
	}
	text := strings.TrimSuffix(buf.String(), "\n")
	return c.encoding.Encode(text), nil
}

// Decode reverses Encode into the generic encoding/json value space.
func (c *Codec) Decode(text string) (any, error) {
	var out any
	if err := c.DecodeInto(text, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeInto reverses Encode into target, which must be a non-nil pointer.
func (c *Codec) DecodeInto(text string, target any) error {
	err := c.decodeWith(c.encoding, text, target)
	if err == nil || !c.fallback {
		return err
	}
	if alt := c.alternate(); alt != nil {
		if altErr := c.decodeWith(alt, text, target); altErr == nil {
			return nil
		}
	}
	return err
}

func (c *Codec) alternate() TextEncoding {
	if c.encoding.Name() == Identity.Name() {
		return Base64
	}
	return Identity
}

func (c *Codec) decodeWith(encoding TextEncoding, text string, target any) error {
	plain, err := encoding.Decode(text)
	if err != nil {
		return &DecodeError{Encoding: encoding.Name(), Stage: StageEncoding, Err: err}
	}

	dec := json.NewDecoder(strings.NewReader(plain))
	for _, configure := range c.configureDec {
		configure(dec)
	}
	if err := dec.Decode(target); err != nil {
		return &DecodeError{Encoding: encoding.Name(), Stage: StageParse, Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return &DecodeError{Encoding: encoding.Name(), Stage: StageParse, Err: fmt.Errorf("unexpected data after value")}
	}
	return nil
}
