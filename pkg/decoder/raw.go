package decoder

// RawName is the registry name of the Raw decoder.
const RawName = "raw"

func init() {
	Register(RawName, func() Decoder { return Raw{} })
}

// Raw emits every payload unchanged as a single message of type "raw".
type Raw struct{}

// Decode implements Decoder.
func (Raw) Decode(payload []byte) []Message {
	return []Message{{
		Type:    RawName,
		Payload: len(payload),
		Raw:     payload,
	}}
}
