package studio

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/text/language"

	"github.com/shouni/gemini-jewelry-studio/pkg/domain"
	"github.com/shouni/gemini-jewelry-studio/pkg/generator"
	"github.com/shouni/gemini-jewelry-studio/pkg/normalizer"
)

// Studio は1人の呼び出し元のコンテキストで検証・構築・生成・履歴記録を順に実行する
// オーケストレーターです。状態は State 値1つだけで保持します。
type Studio struct {
	builder   RequestBuilder
	generator generator.ImageGenerator
	recorder  HistoryRecorder
	observer  Observer
	localizer *Localizer
	now       func() time.Time

	mu    sync.Mutex
	state State
}

// Option は Studio の任意設定です。
type Option func(*Studio)

// WithRecorder は履歴の書き込み先を設定します。未設定の場合は履歴を記録しません (デモモード)。
func WithRecorder(r HistoryRecorder) Option {
	return func(s *Studio) { s.recorder = r }
}

// WithObserver はメトリクス用の Observer を設定します。
func WithObserver(o Observer) Option {
	return func(s *Studio) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithLocalizer はメッセージの翻訳を差し替えます。
func WithLocalizer(l *Localizer) Option {
	return func(s *Studio) {
		if l != nil {
			s.localizer = l
		}
	}
}

// WithClock は履歴の作成時刻に使う時計を差し替えます。
func WithClock(now func() time.Time) Option {
	return func(s *Studio) { s.now = now }
}

// New は Studio を初期化します。
func New(builder RequestBuilder, gen generator.ImageGenerator, opts ...Option) *Studio {
	s := &Studio{
		builder:   builder,
		generator: gen,
		observer:  nopObserver{},
		localizer: NewLocalizer(),
		now:       time.Now,
		state:     State{Phase: PhaseIdle},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State は現在の状態を返します。
func (s *Studio) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Busy は呼び出しが実行中かどうかを返します。
func (s *Studio) Busy() bool {
	return s.State().Busy()
}

// Generate は1回の呼び出しを終端状態まで実行し、その状態を返します。
// identity が nil の場合は履歴を記録しません。
// 前回の呼び出しが実行中の場合は状態を変えずに ErrBusy を返します。
// 一度 Running に入った呼び出しは ctx がキャンセルされても完了まで実行されます。
func (s *Studio) Generate(ctx context.Context, identity *domain.Identity, in domain.Input, lang language.Tag) (State, error) {
	mode := modeOf(in)

	s.mu.Lock()
	if s.state.Busy() {
		current := s.state
		s.mu.Unlock()
		return current, ErrBusy
	}
	// 前回の結果とエラーはここで破棄する
	s.state = State{Phase: PhaseValidating, Mode: mode}
	s.mu.Unlock()

	started := time.Now()
	if err := s.builder.Validate(in); err != nil {
		return s.fail(ctx, mode, lang, started, err), nil
	}

	s.setPhase(PhaseRunning)
	ctx = context.WithoutCancel(ctx)

	in = normalizeInput(in)
	req, err := s.builder.Build(in)
	if err != nil {
		return s.fail(ctx, mode, lang, started, err), nil
	}

	result, err := s.generator.Generate(ctx, req)
	if err != nil {
		return s.fail(ctx, mode, lang, started, err), nil
	}

	final := s.finish(State{Phase: PhaseSucceeded, Mode: mode, Result: result, Outcome: OutcomeSucceeded})
	s.observer.ObserveGeneration(mode, OutcomeSucceeded, time.Since(started))
	slog.InfoContext(ctx, "画像の生成に成功しました", "mode", mode, "mime_type", result.MIMEType)

	if identity != nil && s.recorder != nil {
		s.record(ctx, identity, in, req, result)
	}
	return final, nil
}

// record は履歴を書き込みます。失敗はログに残すだけで状態には影響しません。
func (s *Studio) record(ctx context.Context, identity *domain.Identity, in domain.Input, req domain.GenerationRequest, result *domain.ImageResult) {
	label := in.Text()
	if label == "" {
		label = DefaultHistoryLabel
	}
	rec := domain.HistoryRecord{
		OwnerID:     identity.UserID,
		ImageRef:    result.DataURI,
		Mode:        req.Mode,
		AspectRatio: req.AspectRatio,
		Prompt:      label,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.recorder.Record(ctx, rec); err != nil {
		s.observer.ObserveHistoryFailure()
		slog.WarnContext(ctx, "履歴の保存に失敗しました", "user_id", identity.UserID, "mode", req.Mode, "error", err)
	}
}

func (s *Studio) fail(ctx context.Context, mode domain.GeneratorMode, lang language.Tag, started time.Time, err error) State {
	outcome := OutcomeOf(err)
	final := s.finish(State{
		Phase:   PhaseFailed,
		Mode:    mode,
		Outcome: outcome,
		Message: s.localizer.Message(lang, err),
		Err:     err,
	})
	s.observer.ObserveGeneration(mode, outcome, time.Since(started))
	slog.WarnContext(ctx, "画像の生成に失敗しました", "mode", mode, "outcome", outcome, "error", err)
	return final
}

func (s *Studio) setPhase(p Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Phase = p
}

func (s *Studio) finish(st State) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
	return st
}

// normalizeInput はアップロード時に正規化されていない画像を正規化します。
// 通常は正規化済みなので何も変わりません。
func normalizeInput(in domain.Input) domain.Input {
	switch v := in.(type) {
	case domain.CatalogInput:
		v.Piece = normalizer.Normalize(v.Piece)
		v.Style = normalizer.Normalize(v.Style)
		return v
	case domain.EditInput:
		v.Source = normalizer.Normalize(v.Source)
		return v
	}
	return in
}

func modeOf(in domain.Input) domain.GeneratorMode {
	if in == nil {
		return ""
	}
	return in.Mode()
}
