package server

import (
	"net/http"

	"github.com/abhisek/quizchat/internal/llm"
	"github.com/abhisek/quizchat/internal/quiz"
)

type choice struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

type providerOption struct {
	Name        string   `json:"name"`
	Models      []string `json:"models"`
	RequiresKey bool     `json:"requires_key"`
}

type defaultsOption struct {
	Provider     string  `json:"provider"`
	Model        string  `json:"model"`
	HasKey       bool    `json:"has_key"`
	SystemPrompt string  `json:"system_prompt"`
	Temperature  float64 `json:"temperature"`
	MaxTokens    int     `json:"max_tokens"`
}

type optionsResponse struct {
	Operations   []choice         `json:"operations"`
	Difficulties []choice         `json:"difficulties"`
	Providers    []providerOption `json:"providers"`
	Defaults     defaultsOption   `json:"defaults"`
}

// handleOptions lists the choices the client renders. The server's API key
// itself is never exposed.
func (s *Server) handleOptions(w http.ResponseWriter, _ *http.Request) {
	resp := optionsResponse{
		Defaults: defaultsOption{
			Provider:     s.settings.LLM.Provider,
			Model:        s.settings.LLM.Model(),
			HasKey:       s.settings.HasKey(),
			SystemPrompt: s.settings.SystemPrompt,
			Temperature:  s.settings.Temperature,
			MaxTokens:    s.settings.MaxTokens,
		},
	}
	for _, op := range quiz.Operations() {
		resp.Operations = append(resp.Operations, choice{Key: op.Key(), Label: string(op)})
	}
	for _, d := range quiz.Difficulties() {
		resp.Difficulties = append(resp.Difficulties, choice{Key: d.Key(), Label: string(d)})
	}
	for _, name := range llm.Providers() {
		resp.Providers = append(resp.Providers, providerOption{
			Name:        name,
			Models:      llm.Models(name),
			RequiresKey: name != llm.ProviderMock,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
