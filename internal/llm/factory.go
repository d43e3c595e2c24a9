package llm

import "fmt"

// New selects and constructs the configured provider client. Called once at
// startup; the rest of the system depends only on the Client interface.
func New(config Config) (Client, error) {
	switch config.Provider {
	case "gemini":
		return NewGeminiClient(config)
	case "ollama":
		return NewOllamaClient(config)
	default:
		return nil, fmt.Errorf("unknown llm provider: %q", config.Provider)
	}
}
