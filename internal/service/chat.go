package service

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"assistant/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ContextStore holds per-user conversation state
type ContextStore interface {
	Get(userID string) (model.ConversationContext, bool)
	Update(userID string, fn func(model.ConversationContext) (model.ConversationContext, error)) (model.ConversationContext, error)
	Len() int
}

// Classifier maps a message to a catalog intent
type Classifier interface {
	Classify(ctx context.Context, text string) (model.Classification, error)
	Ready() bool
	Model() string
}

// TurnStore records processed turns for analytics and serves them back
type TurnStore interface {
	LogTurn(ctx context.Context, turn model.TurnRecord) error
	RecentTurns(ctx context.Context, userID string, limit int) ([]model.TurnRecord, error)
	Ping(ctx context.Context) error
}

const (
	turnLogTimeout = 5 * time.Second
	pingTimeout    = 2 * time.Second
)

// ChatService runs one conversation turn end to end: validate, capture
// the user's name, classify, extract, merge into the stored context and
// compose the reply.
type ChatService struct {
	classifier Classifier
	extractor  *EntityExtractor
	composer   *ResponseComposer
	contexts   ContextStore
	turns      TurnStore
	logger     *zap.Logger
}

// NewChatService creates a chat service. turns may be nil.
func NewChatService(
	classifier Classifier,
	extractor *EntityExtractor,
	composer *ResponseComposer,
	contexts ContextStore,
	turns TurnStore,
	logger *zap.Logger,
) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		classifier: classifier,
		extractor:  extractor,
		composer:   composer,
		contexts:   contexts,
		turns:      turns,
		logger:     logger.Named("chat"),
	}
}

// Chat processes one message. Rejected input returns an *InputError and
// touches no state. A failing embedding provider does not fail the turn:
// the response comes back without an intent and with Degraded set.
// Any other fault returns ErrInternal and leaves the context unchanged.
func (s *ChatService) Chat(ctx context.Context, req model.ChatRequest) (resp *model.ChatResponse, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Chat turn panicked",
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			resp, err = nil, fmt.Errorf("%w: %v", ErrInternal, r)
		}
		chatTurnsTotal.WithLabelValues(turnOutcome(resp, err)).Inc()
	}()

	userID := req.UserID
	if userID == "" {
		userID = model.DefaultUserID
	}

	text, err := ValidateInput(req.Message)
	if err != nil {
		s.logger.Info("Message rejected", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	name, named := ExtractName(text)

	degraded := false
	cls, cerr := s.classifier.Classify(ctx, text)
	if cerr != nil {
		degraded = true
		s.logger.Warn("Intent classification unavailable, continuing without intent",
			zap.String("user_id", userID),
			zap.Error(cerr))
		cls = model.Classification{}
	}

	entities := s.extractor.Extract(text)

	var reply string
	var canSearch bool
	merged, err := s.contexts.Update(userID, func(c model.ConversationContext) (model.ConversationContext, error) {
		c = c.Merge(entities)
		if named {
			c.Name = &name
		}
		c.Turns++

		userName := ""
		if c.Name != nil {
			userName = *c.Name
		}
		reply, canSearch = s.composer.Compose(cls.Intent, c, userName)
		return c, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: update context: %w", ErrInternal, err)
	}

	if !cls.Matched() && entities.IsEmpty() {
		reply = FallbackReply
	}

	resp = &model.ChatResponse{
		TurnID:     uuid.NewString(),
		Response:   reply,
		Confidence: cls.Confidence,
		Entities:   &entities,
		Context:    &merged,
		CanSearch:  canSearch,
		Success:    true,
		Degraded:   degraded,
	}
	if cls.Matched() {
		intent := cls.Intent
		resp.Intent = &intent
	}

	took := time.Since(start)
	s.logger.Debug("Chat turn processed",
		zap.String("turn_id", resp.TurnID),
		zap.String("user_id", userID),
		zap.String("intent", cls.Intent),
		zap.Float64("confidence", cls.Confidence),
		zap.Bool("can_search", canSearch),
		zap.Bool("degraded", degraded),
		zap.Duration("took", took))

	s.logTurn(model.TurnRecord{
		TurnID:         resp.TurnID,
		UserID:         userID,
		Message:        text,
		Intent:         resp.Intent,
		Confidence:     resp.Confidence,
		Entities:       entities.Clone(),
		CanSearch:      canSearch,
		Degraded:       degraded,
		ResponseTimeMs: int(took.Milliseconds()),
		CreatedAt:      start.UTC(),
	})
	return resp, nil
}

// logTurn persists the turn without blocking the reply
func (s *ChatService) logTurn(turn model.TurnRecord) {
	if s.turns == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), turnLogTimeout)
		defer cancel()
		if err := s.turns.LogTurn(ctx, turn); err != nil {
			s.logger.Warn("Failed to log chat turn", zap.String("turn_id", turn.TurnID), zap.Error(err))
		}
	}()
}

// Extract runs validation and entity extraction only; no state is touched
func (s *ChatService) Extract(text string) (model.ExtractResponse, error) {
	clean, err := ValidateInput(text)
	if err != nil {
		return model.ExtractResponse{}, err
	}
	entities := s.extractor.Extract(clean)
	return model.ExtractResponse{Entities: entities, Empty: entities.IsEmpty()}, nil
}

// Persistent reports whether turns are stored
func (s *ChatService) Persistent() bool {
	return s.turns != nil
}

// RecentTurns returns the user's latest stored turns, newest first.
// Without a turn store it returns nil.
func (s *ChatService) RecentTurns(ctx context.Context, userID string, limit int) ([]model.TurnRecord, error) {
	if s.turns == nil {
		return nil, nil
	}
	if userID == "" {
		userID = model.DefaultUserID
	}
	turns, err := s.turns.RecentTurns(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent turns: %w", err)
	}
	return turns, nil
}

// Context returns a read-only copy of the user's context
func (s *ChatService) Context(userID string) (model.ConversationContext, bool) {
	if userID == "" {
		userID = model.DefaultUserID
	}
	return s.contexts.Get(userID)
}

// Health reports classifier readiness, store size and, when turns are
// persisted, database reachability. An unreachable database degrades the
// status.
func (s *ChatService) Health(ctx context.Context) model.HealthResponse {
	h := model.HealthResponse{
		Status:           "ok",
		Model:            s.classifier.Model(),
		ModelStatus:      "loaded",
		EmbeddingsStatus: "ready",
		ActiveContexts:   s.contexts.Len(),
	}
	if !s.classifier.Ready() {
		h.Status = "degraded"
		h.EmbeddingsStatus = "not_ready"
	}
	if h.Model == "none" {
		h.ModelStatus = "not_loaded"
	}
	if s.turns != nil {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		h.DatabaseStatus = "ok"
		if err := s.turns.Ping(pingCtx); err != nil {
			s.logger.Warn("Database ping failed", zap.Error(err))
			h.Status = "degraded"
			h.DatabaseStatus = "unavailable"
		}
	}
	return h
}

func turnOutcome(resp *model.ChatResponse, err error) string {
	switch {
	case errors.Is(err, ErrInputRejected):
		return "rejected"
	case err != nil:
		return "error"
	case resp != nil && resp.Degraded:
		return "degraded"
	default:
		return "ok"
	}
}
