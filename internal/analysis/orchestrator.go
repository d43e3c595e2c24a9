package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"deardiary/internal/embedding"
	"deardiary/internal/journal"
	"deardiary/internal/llm"
	"deardiary/internal/logging"
	"deardiary/internal/notify"
	"deardiary/internal/observability"
	"deardiary/internal/prefs"
	"deardiary/internal/prompts"
)

// Validation errors surfaced to the caller before any external call.
var (
	ErrEmptySubmission = errors.New("analysis: entry content is empty and no image was attached")
	ErrInvalidMood     = errors.New("analysis: unknown mood tag")
	ErrMissingUser     = errors.New("analysis: user id is required")
)

// SubmitRequest is one journal submission.
type SubmitRequest struct {
	UserID   string
	Content  string
	Mood     journal.Mood
	Health   *journal.HealthMetadata
	ImageRef string
}

// Config tunes the orchestrator.
type Config struct {
	// ProviderName labels metrics; matches the configured llm provider.
	ProviderName string
	// RequestTimeout bounds one whole pipeline run.
	RequestTimeout time.Duration
	// AlertConfidence is the tactic confidence at or above which the
	// emergency notifier fires.
	AlertConfidence float64
}

// Orchestrator runs the analysis pipeline for one submission: embed the
// entry, retrieve context, resolve the persona, build and dispatch the
// prompt, normalize the result, and persist the entry.
//
// Every dependency after input validation has a designated fallback, so a
// syntactically valid submission always yields a well-formed analysis. This
// is a deliberate availability-over-transparency stance; each absorbed
// failure is logged and counted so operators still see degraded
// dependencies.
type Orchestrator struct {
	config    Config
	embedder  embedding.Embedder
	retriever *journal.Retriever
	personas  *prefs.Resolver
	builder   *prompts.Builder
	client    llm.Client
	store     journal.EntryStore
	notifier  notify.Notifier
	metrics   *observability.MetricsCollector
	logger    logging.Logger
}

// NewOrchestrator wires the pipeline together.
func NewOrchestrator(
	config Config,
	embedder embedding.Embedder,
	retriever *journal.Retriever,
	personas *prefs.Resolver,
	builder *prompts.Builder,
	client llm.Client,
	store journal.EntryStore,
	notifier notify.Notifier,
	metrics *observability.MetricsCollector,
) *Orchestrator {
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 30 * time.Second
	}
	if config.AlertConfidence <= 0 {
		config.AlertConfidence = 0.85
	}
	if notifier == nil {
		notifier = notify.Nop()
	}
	return &Orchestrator{
		config:    config,
		embedder:  embedder,
		retriever: retriever,
		personas:  personas,
		builder:   builder,
		client:    client,
		store:     store,
		notifier:  notifier,
		metrics:   metrics,
		logger:    logging.NewComponentLogger("orchestrator"),
	}
}

// Submit runs the pipeline and returns the new entry with its analysis.
//
// Only input validation can fail; every downstream failure degrades to a
// defined default. The returned entry is persisted best-effort: a storage
// failure is logged and counted but the analysis is still returned.
func (o *Orchestrator) Submit(ctx context.Context, req SubmitRequest) (journal.Entry, error) {
	if req.UserID == "" {
		return journal.Entry{}, ErrMissingUser
	}
	if !req.Mood.Valid() {
		return journal.Entry{}, ErrInvalidMood
	}

	entry := journal.Entry{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		Content:   req.Content,
		Mood:      req.Mood,
		Health:    req.Health,
		ImageRef:  req.ImageRef,
		CreatedAt: time.Now(),
	}
	if !entry.HasContent() {
		if req.ImageRef == "" {
			return journal.Entry{}, ErrEmptySubmission
		}
		entry.Content = ""
	}

	ctx, cancel := context.WithTimeout(ctx, o.config.RequestTimeout)
	defer cancel()

	// Step 1: embedding, non-fatal.
	if entry.HasContent() {
		vector, err := o.embedder.Embed(ctx, entry.Content)
		if err != nil {
			o.logger.Warn("embedding failed for user %s, continuing without: %v", req.UserID, err)
			o.metrics.RecordAbsorbedFailure(ctx, "embedding")
		} else {
			entry.Embedding = vector
		}
	}

	// Steps 2-3: context and persona, both infallible by contract.
	contextEntries := o.retriever.Retrieve(ctx, req.UserID, entry.Embedding)
	persona := o.personas.Resolve(ctx, req.UserID)

	// Steps 4-7: prompt, dispatch, normalize.
	result, usedFallback := o.analyze(ctx, entry, persona, contextEntries)
	entry.Analysis = result
	o.metrics.RecordAnalysisRequest(ctx, o.config.ProviderName, usedFallback)

	// Step 8: persist, best-effort.
	if persisted, err := o.store.Insert(ctx, entry); err != nil {
		o.logger.Error("persist entry for user %s failed, returning analysis anyway: %v", req.UserID, err)
		o.metrics.RecordAbsorbedFailure(ctx, "persistence")
	} else {
		entry = persisted
	}

	o.maybeAlert(req.UserID, result)

	return entry, nil
}

// analyze builds the prompt, calls the provider, and normalizes the output.
// Any failure yields the fixed fallback analysis.
func (o *Orchestrator) analyze(ctx context.Context, entry journal.Entry, persona prefs.Persona, contextEntries []journal.ContextEntry) (journal.AnalysisResult, bool) {
	content := entry.Content
	if content == "" && entry.ImageRef != "" {
		content = fmt.Sprintf("(The writer attached an image without text: %s)", entry.ImageRef)
	}

	system, user, err := o.builder.Build(prompts.Input{
		Content: content,
		Mood:    entry.Mood,
		Health:  entry.Health,
		Persona: persona,
		Context: contextEntries,
	})
	if err != nil {
		o.logger.Error("prompt build failed: %v", err)
		o.metrics.RecordAbsorbedFailure(ctx, "prompt")
		return FallbackAnalysis(), true
	}

	start := time.Now()
	resp, err := o.client.Complete(ctx, llm.CompletionRequest{
		System:      system,
		Messages:    []llm.Message{{Role: "user", Content: user}},
		Temperature: 0.7,
		MaxTokens:   1024,
		ForceJSON:   true,
	})
	o.metrics.RecordProviderLatency(ctx, o.config.ProviderName, time.Since(start))
	if err != nil {
		o.logger.Warn("provider dispatch failed, using fallback analysis: %v", err)
		o.metrics.RecordAbsorbedFailure(ctx, "provider")
		return FallbackAnalysis(), true
	}

	result, usedFallback := Normalize(resp.Content)
	if usedFallback {
		o.logger.Warn("provider output could not be normalized, using fallback analysis")
		o.metrics.RecordAbsorbedFailure(ctx, "normalize")
	}
	return result, usedFallback
}

// maybeAlert fires the emergency SMS for high-confidence tactics when the
// user configured a contact. Runs detached from the request so a slow SMS
// provider never delays the response; failures are absorbed.
func (o *Orchestrator) maybeAlert(userID string, result journal.AnalysisResult) {
	if !result.TacticIdentified || result.Confidence < o.config.AlertConfidence {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		contact := o.personas.EmergencyContact(ctx, userID)
		if contact == "" {
			return
		}

		tactic := "a concerning pattern"
		if result.TacticName != nil {
			tactic = *result.TacticName
		}
		message := fmt.Sprintf(
			"Dear Diary safety alert: a journal entry from someone who trusts you described %s in a relationship. They may appreciate hearing from you.",
			tactic)

		if err := o.notifier.SendSMS(ctx, contact, message); err != nil {
			o.logger.Warn("emergency SMS for user %s failed: %v", userID, err)
			o.metrics.RecordAbsorbedFailure(ctx, "notify")
		}
	}()
}
