package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/w-h-a/idc-assistant/classifier"
	"github.com/w-h-a/idc-assistant/conversation"
	"github.com/w-h-a/idc-assistant/server"
	"github.com/w-h-a/idc-assistant/uploads"
)

// Service is what the HTTP surface needs from the assistant core.
type Service interface {
	Respond(ctx context.Context, message string) (string, error)
	AnalyzeImage(ctx context.Context, imageRef string) (string, classifier.Result, error)
	RagQuery(ctx context.Context, question string) (string, error)
	History(ctx context.Context) ([]conversation.Turn, error)
	Clear(ctx context.Context) error
}

type httpServer struct {
	options    server.Options
	service    Service
	uploadsDir string
	handler    http.Handler
	srv        *http.Server
}

func (s *httpServer) Run() error {
	slog.InfoContext(s.options.Context, "starting http server", "address", s.options.Address)
	return s.srv.ListenAndServe()
}

func (s *httpServer) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *httpServer) Handler() http.Handler {
	return s.handler
}

func (s *httpServer) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(strings.TrimSpace(req.Message)) == 0 {
		writeError(w, http.StatusBadRequest, "Message cannot be empty.")
		return
	}

	rsp, err := s.service.Respond(r.Context(), strings.TrimSpace(req.Message))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Chat processing failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"response":  rsp,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *httpServer) handleAnalyzeImage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Image string `json:"image"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid or missing image data")
		return
	}

	// the image arrives as a base64 data-URL: data:image/png;base64,...
	_, encoded, found := strings.Cut(req.Image, ",")
	if !found {
		writeError(w, http.StatusBadRequest, "Invalid or missing image data")
		return
	}

	imageBytes, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid or missing image data")
		return
	}

	path, err := uploads.Save(s.uploadsDir, imageBytes)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to store image: "+err.Error())
		return
	}

	rsp, analysis, err := s.service.AnalyzeImage(r.Context(), path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Image analysis failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"response":   rsp,
		"analysis":   analysis,
		"image_path": path,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *httpServer) handleRagQuery(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(strings.TrimSpace(req.Question)) == 0 {
		writeError(w, http.StatusBadRequest, "Question cannot be empty.")
		return
	}

	rsp, err := s.service.RagQuery(r.Context(), strings.TrimSpace(req.Question))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Query processing failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"response":  rsp,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *httpServer) handleConversation(w http.ResponseWriter, r *http.Request) {
	turns, err := s.service.History(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	messages := make([]map[string]string, 0, len(turns))
	for _, turn := range turns {
		kind := "ai"
		if turn.Role == conversation.RoleHuman {
			kind = "user"
		}
		messages = append(messages, map[string]string{
			"type":    kind,
			"content": turn.Content,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"messages": messages,
	})
}

func (s *httpServer) handleClearConversation(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Clear(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "All conversation data and uploaded images have been permanently deleted.",
	})
}

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   detail,
	})
}

// CORS allows any origin; the API is consumed by browser front-ends served
// from elsewhere.
func CORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		h.ServeHTTP(w, r)
	})
}

func NewServer(service Service, opts ...server.Option) *httpServer {
	if service == nil {
		panic("service is required")
	}

	options := server.NewOptions(opts...)

	s := &httpServer{
		options:    options,
		service:    service,
		uploadsDir: "uploads",
	}

	if dir, ok := UploadsDirFrom(options.Context); ok && len(dir) > 0 {
		s.uploadsDir = dir
	}

	router := mux.NewRouter()
	router.HandleFunc("/api/chat", s.handleChat).Methods(http.MethodPost)
	router.HandleFunc("/api/analyze-image", s.handleAnalyzeImage).Methods(http.MethodPost)
	router.HandleFunc("/api/rag-query", s.handleRagQuery).Methods(http.MethodPost)
	router.HandleFunc("/api/conversation", s.handleConversation).Methods(http.MethodGet)
	router.HandleFunc("/api/clear-conversation", s.handleClearConversation).Methods(http.MethodPost)

	var handler http.Handler = router
	if ms, ok := MiddlewareFrom(options.Context); ok {
		for i := len(ms) - 1; i >= 0; i-- {
			handler = ms[i](handler)
		}
	}
	handler = CORS(handler)

	s.handler = handler

	s.srv = &http.Server{
		Addr:    options.Address,
		Handler: handler,
	}

	return s
}
