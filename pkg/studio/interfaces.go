package studio

import (
	"context"
	"time"

	"github.com/shouni/gemini-jewelry-studio/pkg/domain"
)

// RequestBuilder はモードごとの入力を検証し、生成リクエストを組み立てます。
type RequestBuilder interface {
	Validate(in domain.Input) error
	Build(in domain.Input) (domain.GenerationRequest, error)
}

// HistoryRecorder は成功した生成結果を利用者の履歴に書き込みます。
type HistoryRecorder interface {
	Record(ctx context.Context, rec domain.HistoryRecord) error
}

// Observer は呼び出しの結果を受け取ります (メトリクス用)。
type Observer interface {
	ObserveGeneration(mode domain.GeneratorMode, outcome Outcome, elapsed time.Duration)
	ObserveHistoryFailure()
}

type nopObserver struct{}

func (nopObserver) ObserveGeneration(domain.GeneratorMode, Outcome, time.Duration) {}
func (nopObserver) ObserveHistoryFailure() {}
