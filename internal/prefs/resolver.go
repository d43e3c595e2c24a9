package prefs

import (
	"context"

	"deardiary/internal/logging"
	"deardiary/internal/observability"
)

// Resolver resolves the active persona for a user.
//
// Lookup failures are swallowed: a distressed user must never lose an
// analysis because the preferences store is down, so any failure resolves
// to the default persona and is only logged and counted.
type Resolver struct {
	store   Store
	metrics *observability.MetricsCollector
	logger  logging.Logger
}

// NewResolver creates a persona resolver.
func NewResolver(store Store, metrics *observability.MetricsCollector) *Resolver {
	return &Resolver{
		store:   store,
		metrics: metrics,
		logger:  logging.NewComponentLogger("persona"),
	}
}

// Resolve returns the stored persona preference when set and valid,
// otherwise DefaultPersona. It never fails.
func (r *Resolver) Resolve(ctx context.Context, userID string) Persona {
	if r == nil || r.store == nil {
		return DefaultPersona
	}

	prefs, err := r.store.Get(ctx, userID)
	if err != nil {
		if err != ErrNotFound {
			r.logger.Warn("persona lookup for user %s failed, using default: %v", userID, err)
			r.metrics.RecordAbsorbedFailure(ctx, "persona")
		}
		return DefaultPersona
	}

	if !prefs.PersonaPreference.Valid() {
		return DefaultPersona
	}
	return prefs.PersonaPreference
}

// EmergencyContact returns the user's alert number, or empty when none is
// configured or the lookup fails.
func (r *Resolver) EmergencyContact(ctx context.Context, userID string) string {
	if r == nil || r.store == nil {
		return ""
	}
	prefs, err := r.store.Get(ctx, userID)
	if err != nil {
		return ""
	}
	return prefs.EmergencyContact
}
