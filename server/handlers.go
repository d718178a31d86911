package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/m4xw311/palaver/errors"
	"github.com/m4xw311/palaver/provider"
)

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

type createSessionRequest struct {
	Provider     string `json:"provider,omitempty"`
	Model        string `json:"model,omitempty"`
	SystemPrompt string `json:"system_prompt,omitempty"`
}

type chatRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	settings := s.cfg.ProviderSettings()
	configured := map[string]bool{
		provider.NameOllama:      true,
		provider.NameOpenAI:      settings.OpenAIAPIKey != "",
		provider.NameHuggingFace: settings.HuggingFaceAPIKey != "",
		provider.NameAnthropic:   settings.AnthropicAPIKey != "",
		provider.NameGemini:      settings.GeminiAPIKey != "",
		// Bedrock resolves credentials through the AWS default chain.
		provider.NameBedrock: true,
	}
	JSON(w, http.StatusOK, map[string]any{
		"providers":  provider.Names(),
		"configured": configured,
	})
}

func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	names, err := s.store.List(r.URL.Query().Get("pattern"))
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if names == nil {
		names = []string{}
	}
	JSON(w, http.StatusOK, map[string]any{"conversations": names})
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	type toolInfo struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Parameters  any    `json:"parameters"`
	}
	roster := s.registry.List()
	out := make([]toolInfo, 0, len(roster))
	for _, t := range roster {
		out = append(out, toolInfo{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	JSON(w, http.StatusOK, map[string]any{"tools": out})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	id := uuid.NewString()
	sess, err := s.createSession(r.Context(), id, req.Provider, req.Model, req.SystemPrompt)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, errors.ErrUnknownProvider) || errors.Is(err, errors.ErrConfiguration) {
			status = http.StatusBadRequest
		}
		Error(w, status, err.Error())
		return
	}

	s.logger.Info("session created", "session_id", id)

	sess.mu.Lock()
	info := sess.agent.Info()
	sess.mu.Unlock()
	JSON(w, http.StatusCreated, map[string]any{
		"session_id": id,
		"info":       info,
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.deleteSession(id) {
		Error(w, http.StatusNotFound, "session not found")
		return
	}
	s.logger.Info("session deleted", "session_id", id)
	JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(chi.URLParam(r, "id"))
	if err != nil {
		Error(w, http.StatusNotFound, "session not found")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		Error(w, http.StatusBadRequest, "message is required")
		return
	}

	sess.mu.Lock()
	reply, err := sess.agent.Chat(r.Context(), req.Message)
	sess.mu.Unlock()
	if err != nil {
		s.logger.Error("chat failed", "session_id", chi.URLParam(r, "id"), "error", err)
		Error(w, http.StatusBadGateway, err.Error())
		return
	}

	JSON(w, http.StatusOK, map[string]string{"response": reply})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(chi.URLParam(r, "id"))
	if err != nil {
		Error(w, http.StatusNotFound, "session not found")
		return
	}

	sess.mu.Lock()
	sess.agent.ClearHistory()
	sess.mu.Unlock()
	JSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

type conversationRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(chi.URLParam(r, "id"))
	if err != nil {
		Error(w, http.StatusNotFound, "session not found")
		return
	}

	var req conversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		Error(w, http.StatusBadRequest, "name is required")
		return
	}

	path, err := s.store.Path(req.Name)
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}

	sess.mu.Lock()
	err = sess.agent.SaveConversation(path)
	sess.mu.Unlock()
	if err != nil {
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "saved", "name": req.Name})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(chi.URLParam(r, "id"))
	if err != nil {
		Error(w, http.StatusNotFound, "session not found")
		return
	}

	var req conversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		Error(w, http.StatusBadRequest, "name is required")
		return
	}

	path, err := s.store.Path(req.Name)
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}

	sess.mu.Lock()
	err = sess.agent.LoadConversation(path)
	sess.mu.Unlock()
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			Error(w, http.StatusNotFound, "conversation not found")
			return
		}
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "loaded", "name": req.Name})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(chi.URLParam(r, "id"))
	if err != nil {
		Error(w, http.StatusNotFound, "session not found")
		return
	}

	sess.mu.Lock()
	info := sess.agent.Info()
	sess.mu.Unlock()
	JSON(w, http.StatusOK, info)
}
