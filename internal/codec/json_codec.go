package codec

import (
	"encoding/json"
	"fmt"

	"github.com/flowforge/ingestcore/internal/schema"
)

// JSONCodec is the default Codec: a DataModel or InferredSchema serialized
// as plain JSON, tagged by a top-level "kind" discriminator so Decode can
// tell the two apart.
type JSONCodec struct{}

type envelope struct {
	Kind   string                 `json:"kind"`
	Model  *DataModel             `json:"model,omitempty"`
	Schema *schema.InferredSchema `json:"schema,omitempty"`
}

// Decode parses the envelope produced by Encode/EncodeSchema.
func (JSONCodec) Decode(text []byte) (*DataModel, *schema.InferredSchema, error) {
	var env envelope
	if err := json.Unmarshal(text, &env); err != nil {
		return nil, nil, fmt.Errorf("codec: decode: %w", err)
	}
	switch env.Kind {
	case "data_model":
		if env.Model == nil {
			return nil, nil, fmt.Errorf("codec: decode: kind=data_model but model field absent")
		}
		return env.Model, nil, nil
	case "inferred_schema":
		if env.Schema == nil {
			return nil, nil, fmt.Errorf("codec: decode: kind=inferred_schema but schema field absent")
		}
		return nil, env.Schema, nil
	default:
		return nil, nil, fmt.Errorf("codec: decode: unrecognized kind %q", env.Kind)
	}
}

// Encode serializes a DataModel into the tagged envelope.
func (JSONCodec) Encode(model *DataModel) ([]byte, error) {
	return json.Marshal(envelope{Kind: "data_model", Model: model})
}

// EncodeSchema serializes an InferredSchema into the tagged envelope.
func (JSONCodec) EncodeSchema(s *schema.InferredSchema) ([]byte, error) {
	return json.Marshal(envelope{Kind: "inferred_schema", Schema: s})
}
