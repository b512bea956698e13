package handlers

import (
	"net/http"

	"voice-journal/backend/internal/llm"
)

// ProviderHealth reports the last check of every configured provider.
func (a *API) ProviderHealth(w http.ResponseWriter, r *http.Request) {
	providers := []llm.ProviderHealth{}
	if a.Health != nil {
		providers = append(providers, a.Health.Snapshot()...)
	}
	healthy := 0
	for _, p := range providers {
		if p.Healthy {
			healthy++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"providers": providers, "healthy": healthy})
}
