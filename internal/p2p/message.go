// Package p2p implements the peer transport: persistent newline-
// delimited JSON connections, typed per-content-type queues, and an
// outbound dialer with bounded retry. Grounded on the teacher's
// node.go connection/retry loop, generalized from TLS-secured
// single-shot requests to a plain TCP persistent stream per spec.md's
// transport requirements.
package p2p

import "encoding/json"

// Content types a Message may carry. CONTROL is never multiplexed
// onto SHARD_BLOCK (spec.md §9 design note).
const (
	ContentShardBlock  = "SHARD_BLOCK"
	ContentMainBlock   = "MAIN_BLOCK"
	ContentControl     = "CONTROL"
	ContentTransaction = "TRANSACTION"
)

// Message is the wire envelope every peer connection exchanges,
// grounded on network/message.py's sender/content_type/content shape.
type Message struct {
	Sender      string          `json:"sender"`
	ContentType string          `json:"content_type"`
	Content     json.RawMessage `json:"content"`
}

// NewMessage builds a Message with content marshaled from payload.
func NewMessage(sender, contentType string, payload interface{}) (Message, error) {
	content, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Sender: sender, ContentType: contentType, Content: content}, nil
}

// ControlAction names a CONTROL message's action field.
type ControlAction struct {
	Action string `json:"action"`
	Shard  string `json:"shard"`
	Epoch  int    `json:"epoch"`
}

// StartControl builds a START control message for shard/epoch,
// mirroring Message.generate_start_message.
func StartControl(sender, shard string, epoch int) (Message, error) {
	return NewMessage(sender, ContentControl, ControlAction{Action: "START", Shard: shard, Epoch: epoch})
}

// StopControl builds a STOP control message for shard/epoch.
func StopControl(sender, shard string, epoch int) (Message, error) {
	return NewMessage(sender, ContentControl, ControlAction{Action: "STOP", Shard: shard, Epoch: epoch})
}
