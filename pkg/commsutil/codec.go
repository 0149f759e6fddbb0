package commsutil

import (
	jsoniter "github.com/json-iterator/go"
)

// wire keeps numbers as json.Number so upstream values pass through unchanged.
var wire = jsoniter.Config{
	EscapeHTML:             false,
	UseNumber:              true,
	ValidateJsonRawMessage: true,
}.Froze()

// EncodePayload serializes a value to JSON bytes.
func EncodePayload(v any) ([]byte, error) {
	return wire.Marshal(v)
}

// DecodePayload deserializes JSON bytes into the given target.
func DecodePayload(data []byte, v any) error {
	return wire.Unmarshal(data, v)
}
