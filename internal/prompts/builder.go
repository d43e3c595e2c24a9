package prompts

import (
	"fmt"
	"strings"

	"deardiary/internal/journal"
	"deardiary/internal/prefs"
)

// Input is everything the builder folds into one provider request.
type Input struct {
	Content string
	Mood    journal.Mood
	Health  *journal.HealthMetadata
	Persona prefs.Persona
	Context []journal.ContextEntry
}

// Builder assembles the system instructions and user message for one
// analysis request.
type Builder struct {
	loader *Loader

	// contextTokenBudget caps the token footprint of the past-entries
	// section; entries beyond the budget are dropped, least relevant first.
	contextTokenBudget int
}

// NewBuilder creates a prompt builder.
func NewBuilder(loader *Loader, contextTokenBudget int) *Builder {
	if contextTokenBudget <= 0 {
		contextTokenBudget = 2000
	}
	return &Builder{loader: loader, contextTokenBudget: contextTokenBudget}
}

// Build returns the system instructions for the persona and the user
// message carrying the current entry, its metadata, and the retrieved
// context labeled as context-only.
func (b *Builder) Build(input Input) (system, user string, err error) {
	persona := input.Persona
	if !persona.Valid() {
		persona = prefs.DefaultPersona
	}

	system, err = b.loader.Get("analyst_" + string(persona))
	if err != nil {
		return "", "", fmt.Errorf("load persona template: %w", err)
	}

	var sb strings.Builder

	if len(input.Context) > 0 {
		sb.WriteString("## Past entries (context only — do not analyze these)\n\n")
		budget := b.contextTokenBudget
		for _, entry := range input.Context {
			line := formatContextEntry(entry)
			cost := CountTokens(line)
			if cost > budget {
				break
			}
			budget -= cost
			sb.WriteString(line)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Current entry\n\n")
	if input.Mood != "" {
		sb.WriteString(fmt.Sprintf("Mood: %s\n", input.Mood))
	}
	if input.Health != nil {
		writeHealth(&sb, input.Health)
	}
	sb.WriteString("\n")
	sb.WriteString(input.Content)

	return system, sb.String(), nil
}

func formatContextEntry(entry journal.ContextEntry) string {
	var meta []string
	if !entry.CreatedAt.IsZero() {
		meta = append(meta, entry.CreatedAt.Format("2006-01-02"))
	}
	if entry.Mood != "" {
		meta = append(meta, "mood: "+string(entry.Mood))
	}
	prefix := ""
	if len(meta) > 0 {
		prefix = "[" + strings.Join(meta, ", ") + "] "
	}
	return "- " + prefix + strings.TrimSpace(entry.Content) + "\n"
}

func writeHealth(sb *strings.Builder, health *journal.HealthMetadata) {
	if health.CyclePhase != "" {
		sb.WriteString(fmt.Sprintf("Cycle phase: %s\n", health.CyclePhase))
	}
	if health.SleepHours > 0 {
		sb.WriteString(fmt.Sprintf("Sleep: %.1f hours\n", health.SleepHours))
	}
	if health.StressLevel > 0 {
		sb.WriteString(fmt.Sprintf("Stress level: %d/10\n", health.StressLevel))
	}
}
