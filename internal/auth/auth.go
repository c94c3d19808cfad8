package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shouni/gemini-jewelry-studio/pkg/domain"
)

// ErrInvalidSession はトークンが認証サービスに拒否されたことを示します。
var ErrInvalidSession = errors.New("invalid or expired session")

// Resolver はリクエストの資格情報から利用者を解決します。
// セッションがない場合は (nil, nil) を返します。
type Resolver interface {
	Resolve(ctx context.Context, token string) (*domain.Identity, error)
}

// Anonymous は認証サービスが設定されていないデモモード用の Resolver です。常にセッションなしを返します。
type Anonymous struct{}

func (Anonymous) Resolve(context.Context, string) (*domain.Identity, error) { return nil, nil }

// SupabaseResolver は Supabase Auth (GoTrue) の /auth/v1/user でアクセストークンを検証します。
type SupabaseResolver struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
}

// NewSupabaseResolver は SupabaseResolver を初期化します。httpClient が nil の場合は10秒タイムアウトのクライアントを使います。
func NewSupabaseResolver(baseURL, anonKey string, httpClient *http.Client) *SupabaseResolver {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &SupabaseResolver{
		baseURL:    strings.TrimRight(baseURL, "/"),
		anonKey:    anonKey,
		httpClient: httpClient,
	}
}

type supabaseUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Resolve はトークンを検証し、利用者の ID とメールアドレスを返します。
func (r *SupabaseResolver) Resolve(ctx context.Context, token string) (*domain.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", r.anonKey)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrInvalidSession
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("auth request failed (%d): %s", resp.StatusCode, body)
	}

	var user supabaseUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decode auth user: %w", err)
	}
	if user.ID == "" {
		return nil, ErrInvalidSession
	}
	return &domain.Identity{UserID: user.ID, Email: user.Email}, nil
}

// BearerToken は Authorization ヘッダーから Bearer トークンを取り出します。
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
