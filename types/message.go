// Package types provides core types used across the agentrelay engine.
// This package has ZERO dependencies on other agentrelay packages to avoid
// circular imports. All other packages should import types from here.
package types

import (
	"encoding/json"
	"time"
)

// Role represents the role of a message participant.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message represents a single conversation message. Messages are immutable
// once created; mutating helpers return a copy.
type Message struct {
	Role      Role            `json:"role"`
	Content   string          `json:"content,omitempty"`
	Name      string          `json:"name,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp,omitempty"`
}

// NewMessage creates a new message with the given role and content.
func NewMessage(role Role, content string) Message {
	return Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) Message {
	return NewMessage(RoleSystem, content)
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates a new assistant message authored by the named
// agent.
func NewAssistantMessage(authorName, content string) Message {
	m := NewMessage(RoleAssistant, content)
	m.Name = authorName
	return m
}

// NewToolMessage creates a new tool result message.
func NewToolMessage(name, content string) Message {
	m := NewMessage(RoleTool, content)
	m.Name = name
	return m
}

// WithName returns a copy of the message with the author name set.
func (m Message) WithName(name string) Message {
	m.Name = name
	return m
}

// WithPayload returns a copy of the message carrying a structured payload.
func (m Message) WithPayload(payload json.RawMessage) Message {
	m.Payload = payload
	return m
}
