package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"deardiary/internal/analysis"
	"deardiary/internal/journal"
	"deardiary/internal/prefs"
)

// SubmitEntryRequest is the body of POST /api/journal/entries.
type SubmitEntryRequest struct {
	Content  string                  `json:"content"`
	Mood     string                  `json:"mood"`
	Health   *journal.HealthMetadata `json:"health"`
	ImageRef string                  `json:"image_ref"`
}

func (s *Server) handleSubmitEntry(c *gin.Context) {
	var req SubmitEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, fail("invalid request body: "+err.Error()))
		return
	}

	entry, err := s.orchestrator.Submit(c.Request.Context(), analysis.SubmitRequest{
		UserID:   currentUserID(c),
		Content:  req.Content,
		Mood:     journal.Mood(req.Mood),
		Health:   req.Health,
		ImageRef: req.ImageRef,
	})
	if err != nil {
		switch {
		case errors.Is(err, analysis.ErrEmptySubmission),
			errors.Is(err, analysis.ErrInvalidMood),
			errors.Is(err, analysis.ErrMissingUser):
			c.JSON(http.StatusBadRequest, fail(err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, fail("analysis failed"))
		}
		return
	}

	c.JSON(http.StatusCreated, ok(entry))
}

func (s *Server) handleListEntries(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 100 {
			c.JSON(http.StatusBadRequest, fail("limit must be an integer between 1 and 100"))
			return
		}
		limit = parsed
	}

	entries, err := s.store.FindRecent(c.Request.Context(), currentUserID(c), limit)
	if err != nil {
		s.logger.Error("list entries failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("could not load entries"))
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	c.JSON(http.StatusOK, ok(entries))
}

func (s *Server) handleGetPreferences(c *gin.Context) {
	userID := currentUserID(c)
	stored, err := s.prefsStore.Get(c.Request.Context(), userID)
	if err != nil {
		if !errors.Is(err, prefs.ErrNotFound) {
			s.logger.Error("load preferences failed: %v", err)
			c.JSON(http.StatusInternalServerError, fail("could not load preferences"))
			return
		}
		stored = prefs.UserPreferences{UserID: userID, PersonaPreference: prefs.DefaultPersona}
	}
	if stored.PersonaPreference == "" {
		stored.PersonaPreference = prefs.DefaultPersona
	}
	c.JSON(http.StatusOK, ok(stored))
}

// UpdatePreferencesRequest is the body of PUT /api/preferences.
type UpdatePreferencesRequest struct {
	PersonaPreference string `json:"persona_preference"`
	EmergencyContact  string `json:"emergency_contact"`
}

func (s *Server) handleUpdatePreferences(c *gin.Context) {
	var req UpdatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, fail("invalid request body: "+err.Error()))
		return
	}

	persona := prefs.Persona(req.PersonaPreference)
	if req.PersonaPreference != "" && !persona.Valid() {
		c.JSON(http.StatusBadRequest, fail("persona_preference must be \"friend\" or \"therapist\""))
		return
	}

	updated := prefs.UserPreferences{
		UserID:            currentUserID(c),
		PersonaPreference: persona,
		EmergencyContact:  req.EmergencyContact,
	}
	if err := s.prefsStore.Save(c.Request.Context(), updated); err != nil {
		s.logger.Error("save preferences failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("could not save preferences"))
		return
	}
	c.JSON(http.StatusOK, ok(updated))
}

func (s *Server) handleEntrySpeech(c *gin.Context) {
	if s.synthesizer == nil {
		c.JSON(http.StatusNotImplemented, fail("speech synthesis is not configured"))
		return
	}

	entry, err := s.store.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, journal.ErrNotFound) {
			c.JSON(http.StatusNotFound, fail("entry not found"))
			return
		}
		s.logger.Error("load entry failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("could not load entry"))
		return
	}
	// Entries are private; a foreign id behaves exactly like a missing one.
	if entry.UserID != currentUserID(c) {
		c.JSON(http.StatusNotFound, fail("entry not found"))
		return
	}

	persona := s.personas.Resolve(c.Request.Context(), entry.UserID)
	voice := s.voices.VoiceFor(persona)

	audio, err := s.synthesizer.Synthesize(c.Request.Context(), entry.Analysis.EmpathyResponse, voice)
	if err != nil {
		s.logger.Warn("speech synthesis failed for entry %s: %v", entry.ID, err)
		c.JSON(http.StatusBadGateway, fail("speech synthesis failed"))
		return
	}

	c.Data(http.StatusOK, "audio/mpeg", audio)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"uptime":         s.uptime().String(),
		"speech_enabled": s.synthesizer != nil,
	})
}
