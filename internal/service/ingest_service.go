package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ahmednasr/repomind/internal/acquirer"
	"github.com/ahmednasr/repomind/internal/contextbuilder"
	"github.com/ahmednasr/repomind/internal/metrics"
	"github.com/ahmednasr/repomind/internal/models"
)

// SessionRepository is the persistence contract for sessions. Implementations
// live in internal/repository; every one of them hides sessions older than
// the TTL and returns models.ErrSessionNotFound for them.
type SessionRepository interface {
	Create(ctx context.Context, sess *models.Session) (string, error)
	Get(ctx context.Context, id string) (*models.Session, error)
	Set(ctx context.Context, id string, sess *models.Session) error
	// Append adds msgs to the end of the stored history atomically, so two
	// turns finishing together are both kept.
	Append(ctx context.Context, id string, msgs ...models.Message) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// IngestService turns a repository reference into a stored session.
type IngestService interface {
	// Ingest resolves reference (alias or URL), acquires and assembles the
	// repository context, and stores it as a new session. Nothing is stored
	// unless every stage succeeds.
	Ingest(ctx context.Context, reference string) (*models.IngestResult, error)
}

type ingestService struct {
	source   acquirer.Source
	builder  *contextbuilder.Builder
	sessions SessionRepository
	now      func() time.Time
}

// NewIngestService wires the pipeline stages together.
func NewIngestService(source acquirer.Source, builder *contextbuilder.Builder, sessions SessionRepository) IngestService {
	if builder == nil {
		builder = contextbuilder.NewBuilder()
	}
	return &ingestService{
		source:   source,
		builder:  builder,
		sessions: sessions,
		now:      time.Now,
	}
}

func (s *ingestService) Ingest(ctx context.Context, reference string) (*models.IngestResult, error) {
	start := time.Now()

	ref, err := ResolveReference(reference)
	if err != nil {
		metrics.RecordIngestion(s.source.Name(), outcomeOf(err), false, time.Since(start))
		return nil, err
	}

	log.Printf("[Ingest Service] ingesting %s via %s", ref.FullName(), s.source.Name())

	// 1. Acquire candidate files.
	snap, err := s.source.Acquire(ctx, ref)
	if err != nil {
		log.Printf("[Ingest Service] acquisition of %s failed: %v", ref.FullName(), err)
		metrics.RecordIngestion(s.source.Name(), outcomeOf(err), false, time.Since(start))
		return nil, err
	}

	// 2. Order and assemble under the token budget.
	res := s.builder.Assemble(contextbuilder.Input{
		Owner:         ref.Owner,
		Name:          ref.Name,
		URL:           ref.URL,
		DefaultBranch: snap.DefaultBranch,
		Files:         snap.Files,
		FileTree:      contextbuilder.BuildFileTree(snap.Files),
	})

	// 3. Persist only the finished context.
	sess := models.NewSession(res.Context, res.Metadata, res.EstimatedTokens, s.now())
	id, err := s.sessions.Create(ctx, sess)
	if err != nil {
		metrics.RecordIngestion(s.source.Name(), "store_error", false, time.Since(start))
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	log.Printf("[Ingest Service] session %s: %s, %d/%d files, ~%d tokens, truncated=%t, %d skipped",
		id, ref.FullName(), res.FilesIncluded, res.FilesTotal, res.EstimatedTokens, res.Truncated, snap.Skipped)
	metrics.RecordIngestion(s.source.Name(), "success", res.Truncated, time.Since(start))

	return &models.IngestResult{
		SessionID:     id,
		Metadata:      res.Metadata,
		TokenCount:    res.EstimatedTokens,
		Truncated:     res.Truncated,
		FilesIncluded: res.FilesIncluded,
		FilesTotal:    res.FilesTotal,
	}, nil
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, models.ErrInvalidReference):
		return "invalid_reference"
	case errors.Is(err, models.ErrRepositoryUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
