package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/text/language"

	"github.com/shouni/gemini-jewelry-studio/internal/auth"
	"github.com/shouni/gemini-jewelry-studio/pkg/domain"
	"github.com/shouni/gemini-jewelry-studio/pkg/studio"
)

const (
	defaultMaxUploadBytes = 20 << 20
	maxGenerationBody     = 64 << 20
)

// HistoryLister は利用者自身の履歴を新しい順に返します。
type HistoryLister interface {
	List(ctx context.Context, ownerID string, limit int) ([]domain.HistoryRecord, error)
}

// URLSigner はオブジェクト参照から期限付き URL を発行します。
type URLSigner interface {
	DownloadURL(ctx context.Context, ref string) (string, error)
}

// Options は HTTP サーバーの依存関係です。nil の依存は機能の無効化を意味します。
type Options struct {
	AllowedOrigins     []string
	ProviderConfigured bool
	Persistence        string
	DefaultLanguage    language.Tag
	MaxUploadBytes     int64

	// NewStudio は呼び出し元ごとのオーケストレーターを作ります。必須です。
	NewStudio func() *studio.Studio
	Resolver  auth.Resolver
	History   HistoryLister
	Signer    URLSigner
	Metrics   http.Handler
}

// Server は利用者向けの HTTP API です。
type Server struct {
	opts      Options
	localizer *studio.Localizer

	mu      sync.Mutex
	studios map[string]*studio.Studio
}

// New は Server を初期化します。
func New(opts Options) *Server {
	if opts.Resolver == nil {
		opts.Resolver = auth.Anonymous{}
	}
	if opts.DefaultLanguage == language.Und {
		opts.DefaultLanguage = studio.DefaultLanguage
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	return &Server{
		opts:      opts,
		localizer: studio.NewLocalizer(),
		studios:   make(map[string]*studio.Studio),
	}
}

// Router はルーティングを組み立てます。
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins(),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.opts.Metrics)
	}

	r.Route("/api", func(api chi.Router) {
		api.Get("/status", s.handleStatus)
		api.Post("/images", s.handleUpload)
		api.Post("/generations", s.handleGenerate)
		api.Get("/generations/current", s.handleCurrent)
		api.Get("/history", s.handleHistory)
	})
	return r
}

func (s *Server) allowedOrigins() []string {
	if len(s.opts.AllowedOrigins) == 0 {
		return []string{"*"}
	}
	return s.opts.AllowedOrigins
}

// identity はセッションを解決します。拒否されたトークンは ok=false で 401 を書き込み済みです。
// 認証サービスの障害はセッションなしとして扱います。
func (s *Server) identity(w http.ResponseWriter, r *http.Request) (*domain.Identity, bool) {
	id, err := s.opts.Resolver.Resolve(r.Context(), auth.BearerToken(r))
	switch {
	case errors.Is(err, auth.ErrInvalidSession):
		writeError(w, http.StatusUnauthorized, err)
		return nil, false
	case err != nil:
		slog.WarnContext(r.Context(), "セッションを解決できないため未認証として扱います", "error", err)
		return nil, true
	}
	return id, true
}

// studioFor は認証済みの利用者には同じ Studio を、未認証の呼び出しには新しい Studio を返します。
func (s *Server) studioFor(id *domain.Identity) *studio.Studio {
	if id == nil {
		return s.opts.NewStudio()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.studios[id.UserID]
	if !ok {
		st = s.opts.NewStudio()
		s.studios[id.UserID] = st
	}
	return st
}

func (s *Server) language(r *http.Request) language.Tag {
	if r.Header.Get("Accept-Language") == "" {
		return s.opts.DefaultLanguage
	}
	return s.localizer.Match(r.Header.Get("Accept-Language"))
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r)
		slog.InfoContext(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(started),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{
		"error":  err.Error(),
		"status": status,
	})
}
