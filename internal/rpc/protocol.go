package rpc

import "github.com/go-json-experiment/json/jsontext"

// MessageType represents the type of protocol message.
type MessageType string

const (
	TypeRequest  MessageType = "request"
	TypeCancel   MessageType = "cancel"
	TypeResponse MessageType = "response"
	TypeError    MessageType = "error"
	TypePing     MessageType = "ping"
	TypePong     MessageType = "pong"
)

// IncomingMessage represents a message from client to server. Params, when
// present, is a JSON array of positional method arguments.
type IncomingMessage struct {
	Type   MessageType    `json:"type"`
	ID     string         `json:"id,omitempty"`
	Method string         `json:"method,omitempty"`
	Params jsontext.Value `json:"params,omitempty"`
}

// ResponseMessage represents a successful response from server to client.
type ResponseMessage struct {
	Type   MessageType `json:"type"`
	ID     string      `json:"id"`
	Result any         `json:"result,omitempty"`
}

// ErrorMessage represents an error response from server to client.
type ErrorMessage struct {
	Type    MessageType `json:"type"`
	ID      string      `json:"id"`
	Code    int         `json:"code"`
	Message string      `json:"message"`
}

// PongMessage represents a pong response to a client ping.
type PongMessage struct {
	Type MessageType `json:"type"`
}
