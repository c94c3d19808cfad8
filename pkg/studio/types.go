package studio

import (
	"errors"

	"github.com/shouni/gemini-jewelry-studio/pkg/domain"
)

// Phase はオーケストレーションの状態です。
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseValidating Phase = "validating"
	PhaseRunning    Phase = "running"
	PhaseSucceeded  Phase = "succeeded"
	PhaseFailed     Phase = "failed"
)

// Outcome はメトリクスと API レスポンスに使う結果の分類です。
type Outcome string

const (
	OutcomeSucceeded     Outcome = "succeeded"
	OutcomeMissingInput  Outcome = "missing_input"
	OutcomeConfiguration Outcome = "configuration"
	OutcomeRefused       Outcome = "refused"
	OutcomeEmpty         Outcome = "empty_response"
	OutcomeError         Outcome = "error"
)

// DefaultHistoryLabel は自由記述がないモード (Catalog) の履歴に記録するラベルです。
const DefaultHistoryLabel = "Catalog composition"

// ErrBusy は前回の呼び出しがまだ完了していないことを示します。
var ErrBusy = errors.New("a generation is already in progress")

// State は1回の呼び出しの状態を表す値です。
// Result は Succeeded のときだけ、Message と Err は Failed のときだけ設定されます。
type State struct {
	Phase   Phase                `json:"phase"`
	Mode    domain.GeneratorMode `json:"mode,omitempty"`
	Result  *domain.ImageResult  `json:"result,omitempty"`
	Outcome Outcome              `json:"outcome,omitempty"`
	Message string               `json:"message,omitempty"`
	Err     error                `json:"-"`
}

// Busy は送信操作を受け付けられない状態かどうかを返します。
func (s State) Busy() bool {
	return s.Phase == PhaseValidating || s.Phase == PhaseRunning
}

// Terminal は Succeeded または Failed かどうかを返します。
func (s State) Terminal() bool {
	return s.Phase == PhaseSucceeded || s.Phase == PhaseFailed
}

// OutcomeOf はエラーを結果の分類に変換します。nil は成功です。
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSucceeded
	case errors.Is(err, domain.ErrMissingInput):
		return OutcomeMissingInput
	case errors.Is(err, domain.ErrConfiguration):
		return OutcomeConfiguration
	case errors.Is(err, domain.ErrGenerationRefused):
		return OutcomeRefused
	case errors.Is(err, domain.ErrEmptyResponse):
		return OutcomeEmpty
	}
	return OutcomeError
}
