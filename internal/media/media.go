// Package media implements the media record model: typed metadata keys
// (string/int/float/ISO-8601 datetime) and the private-keys
// JSON object encoding. Record structurally satisfies expand.MediaKeys without this
// package or expand importing the other.
package media

import (
	"fmt"
	"strconv"
	"time"

	"github.com/antflydb/xmlsource/internal/jsonenc"
)

// KeyType is the typed conversion a key's declared "type" attribute
// selects for its raw string value.
type KeyType int

const (
	TypeString KeyType = iota
	TypeInt
	TypeFloat
	TypeDateTime
)

// ParseKeyType maps a spec document's type attribute value to a KeyType.
// An unrecognized or empty name defaults to TypeString.
func ParseKeyType(name string) KeyType {
	switch name {
	case "int":
		return TypeInt
	case "float":
		return TypeFloat
	case "datetime":
		return TypeDateTime
	default:
		return TypeString
	}
}

// ConvertKey converts raw according to kind: base-10 integers, C-locale
// (dot-decimal) floats, and ISO-8601 datetimes via RFC 3339 - the three
// non-string representations a metadata key can hold.
func ConvertKey(kind KeyType, raw string) (any, error) {
	switch kind {
	case TypeInt:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("convert key value %q as int: %w", raw, err)
		}
		return v, nil
	case TypeFloat:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("convert key value %q as float: %w", raw, err)
		}
		return v, nil
	case TypeDateTime:
		v, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("convert key value %q as datetime: %w", raw, err)
		}
		return v, nil
	default:
		return raw, nil
	}
}

// Record is one media item's metadata keys plus the private keys a
// resolve operation needs to re-fetch it later.
type Record struct {
	keys      map[string]any
	private   map[string]string
	mediaType string
}

// New creates an empty Record.
func New() *Record {
	return &Record{keys: make(map[string]any), private: make(map[string]string)}
}

// Set assigns a metadata key's value.
func (r *Record) Set(name string, value any) {
	r.keys[name] = value
}

// Key implements expand.MediaKeys.
func (r *Record) Key(name string) (any, bool) {
	v, ok := r.keys[name]
	return v, ok
}

// SetMediaType records the media type this record describes (e.g. "video",
// "audio", "image"), used by operation selection to filter candidates
// whose declared required type doesn't match the input.
func (r *Record) SetMediaType(t string) { r.mediaType = t }

// MediaType implements match.Typed.
func (r *Record) MediaType() string { return r.mediaType }

// Keys returns the record's key names, for iteration by callers that need
// to enumerate (e.g. serialization or debugging).
func (r *Record) Keys() []string {
	names := make([]string, 0, len(r.keys))
	for k := range r.keys {
		names = append(names, k)
	}
	return names
}

// SetPrivate assigns a private key, read back with Private. %priv:name%
// expansion does not see it: that looks up expand.Context.PrivateKeys,
// which is not filled from a Record's private keys.
func (r *Record) SetPrivate(name, value string) {
	r.private[name] = value
}

// Private returns a private key's value.
func (r *Record) Private(name string) (string, bool) {
	v, ok := r.private[name]
	return v, ok
}

// MarshalJSON renders the record as its metadata keys plus a nested
// "private" object, for diagnostics and the CLI - not the wire format a
// host framework consumes (that's whatever shape the host's own media
// type dictates).
func (r *Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.keys)+1)
	for k, v := range r.keys {
		out[k] = v
	}
	if len(r.private) > 0 {
		out["private"] = r.private
	}
	return jsonenc.Marshal(out)
}

// MarshalPrivateKeys serializes the record's private keys as a flat JSON
// object, the wire form a resolve operation's "private keys" reference
// carries.
func (r *Record) MarshalPrivateKeys() ([]byte, error) {
	return jsonenc.Marshal(r.private)
}

// ParsePrivateKeys decodes a private-keys JSON object into a name→value
// map, rejecting a non-object root or any non-string value - both are
// malformed input, not a recoverable default.
func ParsePrivateKeys(data []byte) (map[string]string, error) {
	var raw map[string]any
	if err := jsonenc.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse private keys: root must be a JSON object: %w", err)
	}

	out := make(map[string]string, len(raw))
	for k, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("parse private keys: value for %q is not a string", k)
		}
		out[k] = s
	}
	return out, nil
}
