// Package jsonenc provides a configurable JSON encoding/decoding layer.
// It defaults to github.com/bytedance/sonic, which is faster than
// encoding/json for the large result payloads the fetch pipeline parses,
// but any encoding/json-compatible implementation can be swapped in.
//
// Usage:
//
//	import "github.com/antflydb/xmlsource/internal/jsonenc"
//
//	data, err := jsonenc.Marshal(v)
//	err = jsonenc.Unmarshal(data, &v)
package jsonenc

import (
	"io"

	"github.com/bytedance/sonic"
)

// Encoder is the interface for streaming JSON encoding.
type Encoder interface {
	Encode(v any) error
}

// Decoder is the interface for streaming JSON decoding, including the
// UseNumber switch that decodes numbers as json.Number instead of
// float64.
type Decoder interface {
	Decode(v any) error
	UseNumber()
}

// Config holds the JSON encoding/decoding functions.
type Config struct {
	Marshal    func(v any) ([]byte, error)
	Unmarshal  func(data []byte, v any) error
	NewEncoder func(w io.Writer) Encoder
	NewDecoder func(r io.Reader) Decoder
}

type sonicDecoder struct {
	d *sonic.Decoder
}

func (s sonicDecoder) Decode(v any) error { return s.d.Decode(v) }
func (s sonicDecoder) UseNumber()         { s.d.UseNumber() }

// DefaultConfig returns the default configuration, backed by sonic.
func DefaultConfig() Config {
	api := sonic.ConfigStd
	return Config{
		Marshal:   api.Marshal,
		Unmarshal: api.Unmarshal,
		NewEncoder: func(w io.Writer) Encoder {
			return api.NewEncoder(w)
		},
		NewDecoder: func(r io.Reader) Decoder {
			return sonicDecoder{d: api.NewDecoder(r)}
		},
	}
}

var config = DefaultConfig()

// SetConfig overrides the global JSON configuration.
func SetConfig(c Config) { config = c }

// GetConfig returns the current JSON configuration.
func GetConfig() Config { return config }

// Marshal returns the JSON encoding of v.
func Marshal(v any) ([]byte, error) { return config.Marshal(v) }

// Unmarshal parses JSON-encoded data into v.
func Unmarshal(data []byte, v any) error { return config.Unmarshal(data, v) }

// NewEncoder returns a new Encoder that writes to w.
func NewEncoder(w io.Writer) Encoder { return config.NewEncoder(w) }

// NewDecoder returns a new Decoder that reads from r.
func NewDecoder(r io.Reader) Decoder { return config.NewDecoder(r) }
