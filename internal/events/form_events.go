package events

import (
	"time"
)

// EventType represents different types of form lifecycle events
type EventType string

const (
	EventFormCreated       EventType = "form.created"
	EventResponseSubmitted EventType = "response.submitted"
)

// FormEvent is the base event structure published to the bus
type FormEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type FormCreatedEvent struct {
	FormID        uint   `json:"form_id"`
	Title         string `json:"title"`
	QuestionCount int    `json:"question_count"`
}

type ResponseSubmittedEvent struct {
	FormID      uint `json:"form_id"`
	ResponseID  uint `json:"response_id"`
	AnswerCount int  `json:"answer_count"`
}
