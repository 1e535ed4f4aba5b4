package models

import (
	"maps"
	"slices"
	"time"
)

// Role is the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the conversation kept in a Session.
type Message struct {
	Role    Role   `json:"role"    bson:"role"`
	Content string `json:"content" bson:"content"`
}

// Session is the persisted unit of conversational state. The JSON layout is
// the storage contract shared with the query flow and must stay stable:
//
//	{context, metadata, messages: [{role, content}], tokenCount, createdAt}
//
// CreatedAt is epoch milliseconds.
type Session struct {
	Context    string       `json:"context"    bson:"context"`
	Metadata   RepoMetadata `json:"metadata"   bson:"metadata"`
	Messages   []Message    `json:"messages"   bson:"messages"`
	TokenCount int          `json:"tokenCount" bson:"token_count"`
	CreatedAt  int64        `json:"createdAt"  bson:"created_at"`
}

// NewSession builds a session with an empty history stamped at now.
func NewSession(context string, meta RepoMetadata, tokenCount int, now time.Time) *Session {
	return &Session{
		Context:    context,
		Metadata:   meta,
		Messages:   []Message{},
		TokenCount: tokenCount,
		CreatedAt:  now.UnixMilli(),
	}
}

// Clone returns a copy that shares nothing mutable with s.
func (s *Session) Clone() *Session {
	c := *s
	c.Messages = slices.Clone(s.Messages)
	c.Metadata.TopFiles = slices.Clone(s.Metadata.TopFiles)
	c.Metadata.Languages = maps.Clone(s.Metadata.Languages)
	return &c
}

// Created returns CreatedAt as a time.Time.
func (s *Session) Created() time.Time {
	return time.UnixMilli(s.CreatedAt)
}

// Expired reports whether the session's age exceeds ttl at now. A session
// whose age equals ttl exactly is still live.
func (s *Session) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.Created()) > ttl
}

// Remaining is how long the session has left before it expires.
func (s *Session) Remaining(now time.Time, ttl time.Duration) time.Duration {
	return ttl - now.Sub(s.Created())
}

// SessionSummary is the session view returned by GET /sessions/:id; it
// leaves out the (large) context body.
type SessionSummary struct {
	SessionID    string       `json:"sessionId"`
	Metadata     RepoMetadata `json:"metadata"`
	TokenCount   int          `json:"tokenCount"`
	MessageCount int          `json:"messageCount"`
	CreatedAt    int64        `json:"createdAt"`
}
