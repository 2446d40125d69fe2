package models

import (
	"time"

	"github.com/google/uuid"
)

// BotPersonaPrefix marks statements produced by the bot itself.
const BotPersonaPrefix = "bot:"

// TrainingConversation is the conversation name given to corpus statements.
const TrainingConversation = "training"

// Statement is one line of dialog known to the chatbot.
type Statement struct {
	ID                 uuid.UUID `json:"id"`
	Text               string    `json:"text"`
	SearchText         string    `json:"search_text"`
	Conversation       string    `json:"conversation"`
	Persona            string    `json:"persona"`
	InResponseTo       string    `json:"in_response_to,omitempty"`
	SearchInResponseTo string    `json:"search_in_response_to,omitempty"`
	Tags               []string  `json:"tags,omitempty"`
	CreatedAt          time.Time `json:"created_at"`

	// Confidence is set by logic adapters and never persisted.
	Confidence float64 `json:"-"`
}

// String returns the statement text.
func (s *Statement) String() string {
	return s.Text
}
