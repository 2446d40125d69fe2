package models

// ConverseRequest is the payload sent to the converse endpoint.
// Message is a pointer so a missing field can be told apart from an empty one.
type ConverseRequest struct {
	Message      *string `json:"message"`
	Conversation string  `json:"conversation,omitempty"`
}

// ConverseResponse is the reply from the chatbot.
type ConverseResponse struct {
	Reply        string `json:"reply"`
	Conversation string `json:"conversation,omitempty"`
}

// WSMessage is a single frame on the converse websocket.
type WSMessage struct {
	Message string `json:"message,omitempty"`
	Reply   string `json:"reply,omitempty"`
	Error   string `json:"error,omitempty"`
}
