package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/ahmednasr/repomind/internal/llm"
	"github.com/ahmednasr/repomind/internal/metrics"
	"github.com/ahmednasr/repomind/internal/models"
)

// ErrEmptyQuery is returned when Ask gets a blank question.
var ErrEmptyQuery = errors.New("query is required")

const historyWriteTimeout = 5 * time.Second

// DefaultQueryThinkingBudget is the reasoning token allowance for answers.
const DefaultQueryThinkingBudget = 10000

// ChatService answers questions about an ingested repository, keeping the
// conversation in the session.
type ChatService interface {
	// Ask streams the model's answer to query. A missing or expired session
	// yields models.ErrSessionNotFound; no session is ever created here.
	Ask(ctx context.Context, sessionID, query string) (<-chan llm.StreamEvent, error)
}

type chatService struct {
	sessions       SessionRepository
	provider       llm.Provider
	thinkingBudget int
}

// NewChatService wires dependencies and returns ChatService. thinkingBudget
// <= 0 turns extended thinking off.
func NewChatService(sessions SessionRepository, provider llm.Provider, thinkingBudget int) ChatService {
	return &chatService{sessions: sessions, provider: provider, thinkingBudget: thinkingBudget}
}

// Ask sends the stored history plus the new question with the Q&A prompt and
// the repository context as system prompt. When the stream stops cleanly the
// question and the full answer are appended to the session before the stop
// event is forwarded.
func (s *chatService) Ask(ctx context.Context, sessionID, query string) (<-chan llm.StreamEvent, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	msgs := append(slices.Clone(sess.Messages), models.Message{Role: models.RoleUser, Content: query})
	upstream, err := s.provider.Stream(ctx, llm.Request{
		System:         llm.WithContext(llm.QAPrompt, sess.Context),
		Messages:       msgs,
		ThinkingBudget: s.thinkingBudget,
	})
	if err != nil {
		metrics.RecordQuery("query", "error")
		return nil, fmt.Errorf("%w: %w", models.ErrModelResponse, err)
	}

	out := make(chan llm.StreamEvent, 16)
	go func() {
		defer close(out)

		var answer strings.Builder
		for ev := range upstream {
			switch ev.Kind {
			case llm.EventTextDelta:
				answer.WriteString(ev.Text)
			case llm.EventStop:
				if err := s.appendTurn(ctx, sessionID, query, answer.String()); err != nil {
					log.Printf("[Chat Service] failed to save history for session %s: %v", sessionID, err)
				}
				metrics.RecordQuery("query", "success")
			case llm.EventError:
				log.Printf("[Chat Service] stream for session %s failed: %v", sessionID, ev.Err)
				metrics.RecordQuery("query", "error")
			}

			// Keep draining upstream after the caller leaves so the provider
			// goroutine can finish.
			select {
			case out <- ev:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}

// appendTurn adds the finished turn to the stored history. It runs after the
// caller may have gone, so it gets its own deadline.
func (s *chatService) appendTurn(ctx context.Context, sessionID, query, answer string) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyWriteTimeout)
	defer cancel()

	return s.sessions.Append(ctx, sessionID,
		models.Message{Role: models.RoleUser, Content: query},
		models.Message{Role: models.RoleAssistant, Content: answer},
	)
}
