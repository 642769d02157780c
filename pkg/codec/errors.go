package codec

import "fmt"

// Decode stages reported by DecodeError.
const (
	StageEncoding = "encoding"
	StageParse    = "parse"
)

// DecodeError reports why stored text could not be turned back into a value.
type DecodeError struct {
	Encoding string
	Stage    string
	Err      error
}

func (e *DecodeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("codec: decode encoding=%s stage=%s: %v", e.Encoding, e.Stage, e.Err)
}

func (e *DecodeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// EncodeError reports a payload that could not be serialized.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("codec: encode: %v", e.Err)
}

func (e *EncodeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
