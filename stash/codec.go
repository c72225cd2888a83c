package stash

import (
	"encoding/json"
)

// Codec encodes and decodes the values stored for schema fields.
// Implementations must never produce an empty encoding: the kv layer
// rejects empty values, and an absent key is reported as nil bytes.
type Codec interface {
	Encode(value interface{}) ([]byte, error)
	Decode(data []byte) (interface{}, error)
}

// JSONCodec is the default codec. It inherits encoding/json's value
// mapping: numbers decode as float64, objects as map[string]interface{}.
type JSONCodec struct{}

func (JSONCodec) Encode(value interface{}) ([]byte, error) {
	return json.Marshal(value)
}

func (JSONCodec) Decode(data []byte) (interface{}, error) {
	var value interface{}

	if err := json.Unmarshal(data, &value); err != nil {
		return nil, err
	}

	return value, nil
}
