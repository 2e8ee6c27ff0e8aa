// Package chi exposes the portal's HTTP API.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/examdeck/examdeck/internal/domain"
	"github.com/examdeck/examdeck/internal/logger"
	"github.com/examdeck/examdeck/internal/session"
	chatuc "github.com/examdeck/examdeck/internal/usecase/chat"
	healthuc "github.com/examdeck/examdeck/internal/usecase/health"
	indexinguc "github.com/examdeck/examdeck/internal/usecase/indexing"
)

// sessionHeader carries the session id issued at login.
const sessionHeader = "X-Session-ID"

// StudentService handles accounts, sessions, XP, and the leaderboard.
type StudentService interface {
	Login(ctx context.Context, email string) (domain.User, *session.Session, error)
	Logout(id string)
	MarkMastered(ctx context.Context, email, hash string) (int64, error)
	Leaderboard(ctx context.Context) ([]domain.User, error)
}

// IndexingService ingests uploaded PDFs.
type IndexingService interface {
	Ingest(ctx context.Context, fileName string, payload []byte) (indexinguc.Report, error)
}

// ChatService answers questions grounded in a document.
type ChatService interface {
	Ask(ctx context.Context, transcript chatuc.Transcript, hash, question string) (chatuc.Answer, error)
}

// HealthService aggregates dependency checks.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}

// DocumentReader lists and loads stored documents.
type DocumentReader interface {
	Get(ctx context.Context, hash string) (domain.Document, error)
	List(ctx context.Context) ([]domain.Document, error)
}

// Wiper removes a whole record class during an admin reset.
type Wiper interface {
	Wipe(ctx context.Context) error
}

// SessionReader resolves session ids from request headers.
type SessionReader interface {
	Get(id string) (*session.Session, error)
}

// Server wires the usecases to chi routes.
type Server struct {
	students StudentService
	indexing IndexingService
	chat     ChatService
	health   HealthService
	docs     DocumentReader
	sessions SessionReader
	wipers   []Wiper

	maxUploadBytes int64
	logger         *zap.Logger
}

// NewServer creates an HTTP API server. wipers are the record classes cleared
// by the admin reset, in deletion order.
func NewServer(
	students StudentService,
	indexing IndexingService,
	chat ChatService,
	health HealthService,
	docs DocumentReader,
	sessions SessionReader,
	wipers []Wiper,
	maxUploadBytes int64,
	logger *zap.Logger,
) *Server {
	return &Server{
		students:       students,
		indexing:       indexing,
		chat:           chat,
		health:         health,
		docs:           docs,
		sessions:       sessions,
		wipers:         wipers,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Routes mounts every handler on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.Get("/leaderboard", s.handleLeaderboard)

		r.Post("/documents", s.handleUpload)
		r.Get("/documents", s.handleListDocuments)
		r.Get("/documents/{hash}", s.handleGetDocument)
		r.Post("/documents/{hash}/mastered", s.handleMarkMastered)

		r.Post("/chat", s.handleChat)
		r.Get("/chat/transcript", s.handleTranscript)

		r.Post("/admin/wipe", s.handleWipe)
	})
}

type loginRequest struct {
	Email string `json:"email"`
}

type userPayload struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	XP       int64  `json:"xp"`
}

type loginResponse struct {
	SessionID string      `json:"session_id"`
	User      userPayload `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		writeError(w, http.StatusBadRequest, "validation_failed", "a valid email is required")
		return
	}

	u, sess, err := s.students.Login(r.Context(), email)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		SessionID: sess.ID,
		User:      toUserPayload(u),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	s.students.Logout(sess.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	users, err := s.students.Leaderboard(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]userPayload, len(users))
	for i, u := range users {
		items[i] = toUserPayload(u)
	}
	writeJSON(w, http.StatusOK, map[string]any{"leaderboard": items})
}

type uploadResult struct {
	FileName string `json:"file_name"`
	indexinguc.Report
	Error string `json:"error,omitempty"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid multipart upload")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "validation_failed", "at least one PDF file is required")
		return
	}

	results := make([]uploadResult, 0, len(files))
	for _, fh := range files {
		results = append(results, s.ingestFile(r.Context(), fh.Filename, fh))
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) ingestFile(ctx context.Context, name string, fh *multipart.FileHeader) uploadResult {
	res := uploadResult{FileName: name}

	f, err := fh.Open()
	if err != nil {
		res.Error = "could not read the uploaded file"
		return res
	}
	defer func() { _ = f.Close() }()

	payload, err := io.ReadAll(f)
	if err != nil {
		res.Error = "could not read the uploaded file"
		return res
	}

	report, err := s.indexing.Ingest(ctx, name, payload)
	res.Report = report
	if err != nil {
		res.Error = uploadErrorMessage(err)
	}
	return res
}

// uploadErrorMessage keeps per-file failures human-readable; a failed
// analysis still ships the rest of the report.
func uploadErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrExtraction):
		return "could not extract text from this PDF"
	case errors.Is(err, domain.ErrGeneration):
		return "document stored, but the analysis could not be generated"
	default:
		return "processing failed"
	}
}

type documentPayload struct {
	Hash      string    `json:"hash"`
	FileName  string    `json:"file_name"`
	Status    string    `json:"status"`
	Analysis  string    `json:"analysis,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.docs.List(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	// Listing omits raw text and analysis; fetch a single document for those.
	items := make([]documentPayload, len(docs))
	for i, d := range docs {
		items[i] = documentPayload{
			Hash:      d.Hash,
			FileName:  d.FileName,
			Status:    string(d.Status),
			CreatedAt: d.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": items})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.docs.Get(r.Context(), chi.URLParam(r, "hash"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, documentPayload{
		Hash:      doc.Hash,
		FileName:  doc.FileName,
		Status:    string(doc.Status),
		Analysis:  doc.Analysis,
		CreatedAt: doc.CreatedAt,
	})
}

func (s *Server) handleMarkMastered(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	total, err := s.students.MarkMastered(r.Context(), sess.Email, chi.URLParam(r, "hash"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"xp_total": total})
}

type chatRequest struct {
	DocumentHash string `json:"document_hash"`
	Question     string `json:"question"`
}

type sourcePayload struct {
	Ordinal    int     `json:"ordinal"`
	Similarity float64 `json:"similarity"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if req.DocumentHash == "" || strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "document_hash and question are required")
		return
	}

	answer, err := s.chat.Ask(r.Context(), sess, req.DocumentHash, req.Question)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	sources := make([]sourcePayload, len(answer.Matches))
	for i, m := range answer.Matches {
		sources[i] = sourcePayload{Ordinal: m.Ordinal, Similarity: m.Similarity}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"answer":  answer.Text,
		"sources": sources,
	})
}

type messagePayload struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	SentAt  time.Time `json:"sent_at"`
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	msgs := sess.Transcript()
	items := make([]messagePayload, len(msgs))
	for i, m := range msgs {
		items[i] = messagePayload{
			Role:    string(m.Role),
			Content: m.Content,
			SentAt:  m.SentAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": items})
}

func (s *Server) handleWipe(w http.ResponseWriter, r *http.Request) {
	for _, wp := range s.wipers {
		if err := wp.Wipe(r.Context()); err != nil {
			s.handleDomainError(w, r, err)
			return
		}
	}
	s.logger.Info("All records wiped")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// requireSession resolves the X-Session-ID header. On failure it has already
// written the response.
func (s *Server) requireSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := r.Header.Get(sessionHeader)
	if id == "" {
		writeError(w, http.StatusUnauthorized, "session_required", "log in and send the X-Session-ID header")
		return nil, false
	}

	sess, err := s.sessions.Get(id)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "session_expired", "session not found, log in again")
		return nil, false
	}
	return sess, true
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// sentinelStatus maps domain sentinels to HTTP responses with plain-language
// messages. Order matters: first match wins.
var sentinelStatus = []struct {
	sentinel error
	status   int
	code     string
	message  string
}{
	{domain.ErrDocumentNotFound, http.StatusNotFound, "document_not_found", "document not found"},
	{domain.ErrUserNotFound, http.StatusNotFound, "user_not_found", "user not found"},
	{domain.ErrSessionNotFound, http.StatusUnauthorized, "session_expired", "session not found, log in again"},
	{domain.ErrNoRelevantSections, http.StatusUnprocessableEntity, "no_relevant_sections",
		"no relevant content found in this document for your question"},
	{domain.ErrExtraction, http.StatusUnprocessableEntity, "extraction_failed",
		"could not extract text from this PDF"},
	{domain.ErrEmbeddingUnavailable, http.StatusBadGateway, "embedding_unavailable",
		"the embedding service is unavailable, try again later"},
	{domain.ErrGeneration, http.StatusBadGateway, "generation_failed",
		"the answer could not be generated, try again later"},
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	for _, m := range sentinelStatus {
		if errors.Is(err, m.sentinel) {
			log.Warn("Domain error", zap.Error(err))
			writeError(w, m.status, m.code, m.message)
			return
		}
	}
	log.Error("Internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}

func toUserPayload(u domain.User) userPayload {
	return userPayload{Email: u.Email, FullName: u.FullName, XP: u.XP}
}
