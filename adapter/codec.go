package adapter

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Encoding selects the wire format of published events.
type Encoding string

const (
	// EncodingJSON is the default.
	EncodingJSON Encoding = "json"
	// EncodingMsgpack encodes events with msgpack.
	EncodingMsgpack Encoding = "msgpack"
)

// ParseEncoding validates an encoding name. Empty selects JSON.
func ParseEncoding(s string) (Encoding, error) {
	switch Encoding(s) {
	case "", EncodingJSON:
		return EncodingJSON, nil
	case EncodingMsgpack:
		return EncodingMsgpack, nil
	default:
		return "", fmt.Errorf("unknown event encoding %q (valid: json, msgpack)", s)
	}
}

// ContentType returns the MIME type for the encoding.
func (e Encoding) ContentType() string {
	if e == EncodingMsgpack {
		return "application/msgpack"
	}
	return "application/json"
}

// Encode serializes event in the given encoding.
func Encode(enc Encoding, event *ResultEvent) ([]byte, error) {
	switch enc {
	case "", EncodingJSON:
		return json.Marshal(event)
	case EncodingMsgpack:
		return msgpack.Marshal(event)
	default:
		return nil, fmt.Errorf("unknown event encoding %q", enc)
	}
}
