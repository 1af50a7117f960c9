package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/Harshitk-cp/strainfeed/internal/domain"
	"github.com/Harshitk-cp/strainfeed/internal/metrics"
	"github.com/Harshitk-cp/strainfeed/internal/store"
	"go.uber.org/zap"
)

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {},
}

type IngestResult struct {
	Created []domain.Node `json:"created"`
	Touched []domain.Node `json:"touched"`
}

// IngestService grows the graph from free text: each meaningful token
// counts as an access of the node with that name, or becomes a new node
// whose id is the token.
type IngestService struct {
	nodes     domain.NodeStore
	publisher domain.Publisher
	logger    *zap.Logger
	metrics   *metrics.Collector
	now       func() time.Time
}

func NewIngestService(nodes domain.NodeStore, publisher domain.Publisher, logger *zap.Logger) *IngestService {
	return &IngestService{
		nodes:     nodes,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *IngestService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *IngestService) SetMetrics(m *metrics.Collector) {
	s.metrics = m
}

// Tokenize lower-cases text, strips surrounding punctuation and drops stop
// words and duplicates, preserving first-seen order.
func Tokenize(text string) []string {
	seen := make(map[string]struct{})
	var tokens []string
	for _, field := range strings.Fields(strings.ToLower(text)) {
		tok := strings.TrimFunc(field, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if tok == "" {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		tokens = append(tokens, tok)
	}
	return tokens
}

func (s *IngestService) Ingest(ctx context.Context, text string) (*IngestResult, error) {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil, ErrEmptyInput
	}

	now := s.now()
	result := &IngestResult{Created: []domain.Node{}, Touched: []domain.Node{}}

	for _, tok := range tokens {
		// An existing node is matched by name; its id may be anything.
		existing, err := s.nodes.TouchByName(ctx, tok, now)
		if err == nil {
			result.Touched = append(result.Touched, *existing)
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("touch node named %q: %w", tok, err)
		}

		n := domain.NewNode(tok, tok, now)
		n.Description = "Word: " + tok

		err = s.nodes.Create(ctx, n)
		if err == nil {
			result.Created = append(result.Created, n.Normalize())
			continue
		}
		if !errors.Is(err, store.ErrAlreadyExists) {
			return nil, fmt.Errorf("create node %q: %w", tok, err)
		}

		touched, err := s.nodes.Touch(ctx, tok, now)
		if err != nil {
			return nil, fmt.Errorf("touch node %q: %w", tok, err)
		}
		result.Touched = append(result.Touched, *touched)
	}

	changed := make([]domain.Node, 0, len(result.Created)+len(result.Touched))
	changed = append(changed, result.Created...)
	changed = append(changed, result.Touched...)
	if s.publisher != nil {
		s.publisher.Publish(domain.NewUpdateBatch(now, changed))
	}

	s.metrics.RecordCreated(len(result.Created))
	s.logger.Info("ingested text",
		zap.Int("tokens", len(tokens)),
		zap.Int("created", len(result.Created)),
		zap.Int("touched", len(result.Touched)))

	return result, nil
}
