package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/capitalize-ai/sales-deck/internal/deck"
	"github.com/capitalize-ai/sales-deck/internal/llm"
	"github.com/capitalize-ai/sales-deck/internal/model"
	"github.com/capitalize-ai/sales-deck/internal/repository"
	"github.com/capitalize-ai/sales-deck/pkg/logger"
	"github.com/capitalize-ai/sales-deck/pkg/metrics"
)

const systemPrompt = "You are an expert sales presentation creator. Generate compelling, professional sales deck content in JSON format."

const deckSchema = `{
    "title": "Presentation title",
    "slides": [
        {"type": "title", "title": "Main title", "subtitle": "Tagline"},
        {"type": "problem", "title": "The Challenge", "points": ["point 1", "point 2", "point 3"]},
        {"type": "solution", "title": "Our Solution", "description": "Solution overview", "points": ["benefit 1", "benefit 2", "benefit 3"]},
        {"type": "features", "title": "Key Features", "features": [
            {"name": "Feature 1", "description": "Description"},
            {"name": "Feature 2", "description": "Description"}
        ]},
        {"type": "use_case", "title": "Industry Application", "description": "How it applies to their industry"},
        {"type": "roi", "title": "Value Proposition", "metrics": [
            {"label": "Time Saved", "value": "10-15 hours/week"},
            {"label": "Efficiency", "value": "300% increase"}
        ]},
        {"type": "cta", "title": "Next Steps", "description": "Call to action", "action": "Schedule a demo"}
    ]
}`

// EventPublisher publishes deck lifecycle events.
type EventPublisher interface {
	PublishDeckEvent(ctx context.Context, event *model.DeckEvent) (uint64, error)
}

// DeckService generates and retrieves sales decks.
type DeckService struct {
	repo      repository.Repository
	llm       llm.Client
	model     string
	publisher EventPublisher
	logger    *logger.Logger
	tracer    trace.Tracer
}

// DeckOption customizes a DeckService.
type DeckOption func(*DeckService)

// WithModel overrides the provider's default model.
func WithModel(model string) DeckOption {
	return func(s *DeckService) {
		s.model = model
	}
}

// WithPublisher publishes an event for every stored deck.
func WithPublisher(p EventPublisher) DeckOption {
	return func(s *DeckService) {
		s.publisher = p
	}
}

// NewDeckService creates a deck service. A nil client stores the fallback
// deck for every request.
func NewDeckService(repo repository.Repository, client llm.Client, log *logger.Logger, opts ...DeckOption) *DeckService {
	s := &DeckService{
		repo:   repo,
		llm:    client,
		logger: log,
		tracer: otel.Tracer("salesdeck/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BuildPrompt assembles the generation prompt from the client, the lead and
// the user's assets. Only product descriptions and use cases are included.
func BuildPrompt(client *model.Client, lead *model.Lead, assets []model.Asset) string {
	var products, useCases []string
	for _, a := range assets {
		switch a.Type {
		case model.AssetProductDescription:
			products = append(products, a.Content)
		case model.AssetUseCase:
			useCases = append(useCases, a.Content)
		}
	}

	var b strings.Builder
	b.WriteString("Based on the following context, create a comprehensive B2B SaaS sales presentation with 8-10 slides.\n\n")
	b.WriteString("Client Information:\n")
	fmt.Fprintf(&b, "- Name: %s\n- Industry: %s\n- Description: %s\n\n", client.Name, client.Industry, client.Description)
	b.WriteString("Lead Information:\n")
	fmt.Fprintf(&b, "- Project Scope: %s\n- Notes: %s\n\n", lead.ProjectScope, lead.Notes)
	fmt.Fprintf(&b, "Product Information:\n%s\n\n", joinOr(products, "Not provided"))
	fmt.Fprintf(&b, "Industry Use Cases:\n%s\n\n", joinOr(useCases, "Not provided"))
	b.WriteString("Return ONLY a JSON object with this exact structure (no markdown, no code blocks):\n")
	b.WriteString(deckSchema)
	return b.String()
}

func joinOr(parts []string, empty string) string {
	if len(parts) == 0 {
		return empty
	}
	return strings.Join(parts, "\n")
}

// Generate builds and stores a new deck for one of the user's leads. Model
// output that cannot be decoded is replaced by the fallback deck.
func (s *DeckService) Generate(ctx context.Context, userID, leadID string) (*model.Deck, error) {
	ctx, span := s.tracer.Start(ctx, "deck.generate", trace.WithAttributes(
		attribute.String("user_id", userID),
		attribute.String("lead_id", leadID),
	))
	defer span.End()

	lead, err := s.repo.GetLead(ctx, userID, leadID)
	if err != nil {
		return nil, s.fail(span, notFound(err, "Lead"))
	}
	client, err := s.repo.GetClient(ctx, userID, lead.ClientID)
	if err != nil {
		return nil, s.fail(span, notFound(err, "Client"))
	}
	assets, err := s.repo.ListAssets(ctx, userID, "")
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("list assets: %w", err))
	}

	start := time.Now()
	content, resp, fallback, err := s.compose(ctx, BuildPrompt(client, lead, assets), client.Name)
	if err != nil {
		metrics.RecordGeneration("error")
		return nil, s.fail(span, err)
	}

	d := &model.Deck{
		ID:        uuid.NewString(),
		UserID:    userID,
		LeadID:    lead.ID,
		LeadName:  lead.ClientName,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateDeck(ctx, d); err != nil {
		metrics.RecordGeneration("error")
		return nil, s.fail(span, fmt.Errorf("store deck: %w", err))
	}

	event := &model.DeckEvent{
		ID:         uuid.NewString(),
		Type:       model.EventDeckGenerated,
		UserID:     userID,
		DeckID:     d.ID,
		LeadID:     lead.ID,
		SlideCount: content.SlideCount(),
		LatencyMs:  time.Since(start).Milliseconds(),
		CreatedAt:  d.CreatedAt,
	}
	if resp != nil {
		event.Provider = s.llm.Name()
		event.Model = resp.Model
	}
	if fallback {
		event.Type = model.EventDeckFallback
	}
	metrics.RecordGeneration(strings.TrimPrefix(string(event.Type), "deck."))
	span.SetAttributes(
		attribute.String("deck_id", d.ID),
		attribute.Int("slides", event.SlideCount),
		attribute.String("outcome", string(event.Type)),
	)

	s.logger.Info("deck generated",
		zap.String("user_id", userID),
		zap.String("lead_id", lead.ID),
		zap.String("deck_id", d.ID),
		zap.String("outcome", string(event.Type)),
		zap.Int("slides", event.SlideCount),
	)
	s.publish(ctx, event)
	return d, nil
}

// compose asks the model for deck content. resp is nil when no model is
// configured.
func (s *DeckService) compose(ctx context.Context, prompt, clientName string) (deck.Content, *llm.CompletionResponse, bool, error) {
	if s.llm == nil {
		s.logger.Warn("no LLM configured, storing fallback deck")
		return deck.Fallback(clientName), nil, true, nil
	}

	start := time.Now()
	resp, err := s.llm.Complete(ctx, &llm.CompletionRequest{
		Model:       s.model,
		System:      systemPrompt,
		Messages:    []llm.ChatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.7,
	})
	if err != nil {
		metrics.RecordLLM(s.llm.Name(), "error", time.Since(start).Seconds(), 0, 0)
		return deck.Content{}, nil, false, fmt.Errorf("complete deck: %w", err)
	}
	metrics.RecordLLM(s.llm.Name(), "success", time.Since(start).Seconds(), resp.TokensIn, resp.TokensOut)

	content, err := deck.Parse(resp.Content)
	if err != nil {
		s.logger.Warn("model output is not a deck, using fallback",
			zap.String("provider", s.llm.Name()),
			zap.Error(err),
		)
		return deck.Fallback(clientName), resp, true, nil
	}
	return content, resp, false, nil
}

func (s *DeckService) publish(ctx context.Context, event *model.DeckEvent) {
	if s.publisher == nil {
		return
	}
	if _, err := s.publisher.PublishDeckEvent(ctx, event); err != nil {
		s.logger.Warn("failed to publish deck event",
			zap.String("deck_id", event.DeckID),
			zap.Error(err),
		)
	}
}

func (s *DeckService) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// List returns the user's decks.
func (s *DeckService) List(ctx context.Context, userID string) ([]model.Deck, error) {
	return s.repo.ListDecks(ctx, userID)
}

// Get returns one of the user's decks.
func (s *DeckService) Get(ctx context.Context, userID, id string) (*model.Deck, error) {
	d, err := s.repo.GetDeck(ctx, userID, id)
	if err != nil {
		return nil, notFound(err, "Deck")
	}
	return d, nil
}

// IsNotFound reports whether err is a missing-record error.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
