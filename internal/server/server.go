package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"dont-get-fat/internal/auth"
	"dont-get-fat/internal/imagegen"
	"dont-get-fat/internal/llm"
	"dont-get-fat/internal/mealplan"
	"dont-get-fat/internal/metrics"
	"dont-get-fat/internal/planner"
	"dont-get-fat/internal/preferences"
	"dont-get-fat/internal/profile"
	"dont-get-fat/internal/shared"
)

const maxBodyBytes = 1 << 20

// ImageGenerator renders meal pictures.
type ImageGenerator interface {
	GenerateMealImage(ctx context.Context, mealName string) (string, error)
	GenerateAll(ctx context.Context, mealNames []string) (map[string]*string, error)
	Generate(ctx context.Context, prompt string) (string, error)
}

// ProfileRepository reads and writes user profiles.
type ProfileRepository interface {
	Get(ctx context.Context, userID string) (*profile.Profile, error)
	Upsert(ctx context.Context, p *profile.Profile) error
}

// Deps are the collaborators the HTTP API is served from. Metrics may be nil.
type Deps struct {
	Generator   planner.PlanGenerator
	Regenerator planner.MealRegenerator
	Images      ImageGenerator
	Profiles    ProfileRepository
	Verifier    *auth.Verifier
	Metrics     planner.MetaRecorder
	DataDir     string
}

// Server exposes plan generation, regeneration, images and profiles over HTTP.
type Server struct {
	deps Deps
	mux  *http.ServeMux
}

// New creates a Server and registers its routes.
func New(deps Deps) *Server {
	s := &Server{deps: deps, mux: http.NewServeMux()}
	s.mux.HandleFunc("POST /openai/generate-plan", s.handleGeneratePlan)
	s.mux.HandleFunc("POST /openai/regenerate-meals", s.handleRegenerateMeals)
	s.mux.HandleFunc("POST /openai/generate-image", s.handleGenerateImage)
	s.mux.HandleFunc("POST /openai/generate-all-images", s.handleGenerateAllImages)
	s.mux.HandleFunc("POST /image-generation/generate", s.handleFreeImage)
	s.mux.HandleFunc("GET /profile", s.handleGetProfile)
	s.mux.HandleFunc("PUT /profile", s.handlePutProfile)
	s.mux.HandleFunc("GET /preferences", s.handleGetPreferences)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	return s
}

// Handler returns the routes wrapped in request-id, logging and CORS middleware.
func (s *Server) Handler() http.Handler {
	return withRequestID(withLogging(withCORS(s.mux)))
}

func (s *Server) handleGeneratePlan(w http.ResponseWriter, r *http.Request) {
	var prefs preferences.Preferences
	if !decodeBody(w, r, &prefs) {
		return
	}
	if err := prefs.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	plan, meta, err := s.deps.Generator.GenerateMealPlan(r.Context(), prefs)
	s.record(meta)
	if err != nil {
		log.Printf("Error generating meal plan: %v", err)
		writeFailure(w, "Failed to generate meal plan", err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleRegenerateMeals(w http.ResponseWriter, r *http.Request) {
	var req planner.RegenerateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	for i, t := range req.MealTypesToRegenerate {
		if parsed, ok := mealplan.ParseMealType(string(t)); ok {
			req.MealTypesToRegenerate[i] = parsed
		}
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	meals, meta, err := s.deps.Regenerator.RegenerateMeals(r.Context(), req)
	s.record(meta)
	if err != nil {
		log.Printf("Error regenerating meals: %v", err)
		writeFailure(w, "Failed to regenerate meals", err)
		return
	}
	writeJSON(w, http.StatusOK, meals)
}

type imageRequest struct {
	MealName string `json:"mealName"`
	Prompt   string `json:"prompt"`
	Meals    []struct {
		Name string `json:"name"`
	} `json:"meals"`
}

func (s *Server) handleGenerateImage(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.MealName) == "" {
		writeError(w, http.StatusBadRequest, "mealName must not be empty")
		return
	}
	url, err := s.deps.Images.GenerateMealImage(r.Context(), req.MealName)
	if err != nil {
		log.Printf("Error generating image: %v", err)
		writeFailure(w, "Failed to generate image for "+req.MealName, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"imageUrl": url})
}

func (s *Server) handleGenerateAllImages(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	names := make([]string, 0, len(req.Meals))
	for _, m := range req.Meals {
		if strings.TrimSpace(m.Name) == "" {
			writeError(w, http.StatusBadRequest, "every meal needs a name")
			return
		}
		names = append(names, m.Name)
	}
	results, err := s.deps.Images.GenerateAll(r.Context(), names)
	if err != nil {
		writeFailure(w, "Failed to generate images", err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleFreeImage(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "prompt must not be empty")
		return
	}
	url, err := s.deps.Images.Generate(r.Context(), req.Prompt)
	if err != nil {
		log.Printf("Error generating image: %v", err)
		writeFailure(w, "Failed to generate image", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"imageUrl": url})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	p, err := s.deps.Profiles.Get(r.Context(), userID)
	if err != nil {
		writeFailure(w, "Failed to load profile", err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, preferences.NoProfileMessage)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var p profile.Profile
	if !decodeBody(w, r, &p) {
		return
	}
	p.ID = userID
	if err := s.deps.Profiles.Upsert(r.Context(), &p); err != nil {
		writeFailure(w, "Failed to save profile", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	p, err := s.deps.Profiles.Get(r.Context(), userID)
	if err != nil {
		writeFailure(w, "Failed to load profile", err)
		return
	}
	prefs, err := preferences.Resolve(p)
	if err != nil {
		writeError(w, http.StatusNotFound, preferences.NoProfileMessage)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h := metrics.GetSysHealth(s.deps.DataDir)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"goroutines": h.Goroutines,
		"allocMb":    h.AllocMB,
	})
}

func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (string, bool) {
	if s.deps.Verifier == nil {
		writeError(w, http.StatusServiceUnavailable, "Authentication is not configured.")
		return "", false
	}
	userID, err := s.deps.Verifier.UserFromRequest(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return "", false
	}
	return userID, true
}

func (s *Server) record(meta shared.AgentMeta) {
	if s.deps.Metrics == nil || meta.Usage.Empty() {
		return
	}
	if err := s.deps.Metrics.RecordMeta(meta); err != nil {
		log.Printf("Warning: failed to record metrics for %s: %v", meta.AgentName, err)
	}
	if meta.Usage.PromptTokens > 4000 {
		log.Printf("High token usage by %s: %d prompt tokens", meta.AgentName, meta.Usage.PromptTokens)
	}
}

// StatusFor maps a generation error to the HTTP status and message it is reported with.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, preferences.ErrInvalidPreferences):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, llm.ErrNotConfigured), errors.Is(err, imagegen.ErrNotConfigured):
		return http.StatusServiceUnavailable, err.Error()
	case errors.Is(err, llm.ErrUnauthorized):
		return http.StatusUnauthorized, "Invalid OpenAI API key or access denied."
	case errors.Is(err, planner.ErrMalformedResponse),
		errors.Is(err, planner.ErrMealCountMismatch),
		errors.Is(err, llm.ErrEmptyContent),
		errors.Is(err, llm.ErrInvalidOutput):
		return http.StatusBadGateway, err.Error()
	}
	return http.StatusInternalServerError, ""
}

func writeFailure(w http.ResponseWriter, prefix string, err error) {
	status, msg := StatusFor(err)
	if msg == "" {
		msg = fmt.Sprintf("%s: %v", prefix, err)
	}
	writeError(w, status, msg)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %v", err))
		return false
	}
	return true
}

type errorBody struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{StatusCode: status, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}
