// Package decoder defines the contract between the capture pipeline and the
// stream decoder that turns UDP payloads into application messages.
package decoder

// Message is one decoded application message.
type Message struct {
	// Type names the message kind, for example "raw" or an event name.
	Type string
	// Payload carries the decoded fields. Its concrete type depends on the decoder.
	Payload any
	// Raw holds the bytes the message was decoded from, when the decoder keeps them.
	Raw []byte
}

// Decoder turns payloads into messages. A Decoder may keep state across
// calls, for example to reassemble messages split over several datagrams, and
// is only ever called from one goroutine.
type Decoder interface {
	Decode(payload []byte) []Message
}

// Func adapts a plain function to the Decoder interface.
type Func func(payload []byte) []Message

// Decode calls f(payload).
func (f Func) Decode(payload []byte) []Message {
	return f(payload)
}
