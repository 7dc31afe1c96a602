package api

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

// ToValue converts v to a protobuf Value through its JSON form, so the
// json tags of the domain types decide the field names on the wire.
func ToValue(v any) (*structpb.Value, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	return structpb.NewValue(generic)
}

// ValueJSON returns the compact JSON of val. A nil val yields nil.
func ValueJSON(val *structpb.Value) (json.RawMessage, error) {
	if val == nil {
		return nil, nil
	}
	raw, err := json.Marshal(val.AsInterface())
	if err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	return raw, nil
}

// FromValue decodes val into dst. A nil val leaves dst untouched.
func FromValue(val *structpb.Value, dst any) error {
	raw, err := ValueJSON(val)
	if err != nil || raw == nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}
