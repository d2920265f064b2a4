package ws

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ProtocolVersion is the version clients must send in SUBSCRIBE.
const ProtocolVersion = "1"

// Message types.
const (
	TypeSubscribe = "SUBSCRIBE"
	TypeWelcome   = "WELCOME"
	TypeChange    = "CHANGE"
	TypeError     = "ERROR"
)

// SubscribeMsg replaces the client's interest. Keys use the "kind:id"
// form; All subscribes to every key.
type SubscribeMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	Keys            []string `json:"keys,omitempty"`
	All             bool     `json:"all,omitempty"`
}

// WelcomeMsg acknowledges a subscription.
type WelcomeMsg struct {
	Type     string   `json:"type"`
	ClientID string   `json:"client_id"`
	Keys     []string `json:"keys"`
	All      bool     `json:"all"`
}

// ChangeMsg reports that key entered or left a tracked set.
type ChangeMsg struct {
	Type    string `json:"type"`
	Tick    int64  `json:"tick"`
	Channel string `json:"channel"`
	Key     string `json:"key"`
}

// ErrorMsg reports a rejected client message. The connection stays open.
type ErrorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

//go:embed subscribe.schema.json
var subscribeSchemaJSON string

var subscribeSchema = jsonschema.MustCompileString("subscribe.schema.json", subscribeSchemaJSON)

// decodeSubscribe validates raw against the subscribe schema and decodes
// it.
func decodeSubscribe(raw []byte) (SubscribeMsg, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return SubscribeMsg{}, fmt.Errorf("decode message: %w", err)
	}
	if err := subscribeSchema.Validate(doc); err != nil {
		return SubscribeMsg{}, fmt.Errorf("invalid subscribe message: %w", err)
	}
	var msg SubscribeMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return SubscribeMsg{}, fmt.Errorf("decode subscribe: %w", err)
	}
	return msg, nil
}
