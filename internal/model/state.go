package model

// Phase は画面ごとの読み込み状態を表す。
type Phase int

const (
	// PhaseIdle はまだ読み込みを開始していない状態。
	PhaseIdle Phase = iota
	// PhaseLoading は読み込み中。
	PhaseLoading
	// PhaseLoaded は読み込み完了。Data が有効。
	PhaseLoaded
	// PhaseFailed は読み込み失敗。Reason が有効。
	PhaseFailed
	// PhaseNotFound は対象レコードが存在しない終端状態。
	PhaseNotFound
)

// String はログ出力用の名前を返す。
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	case PhaseFailed:
		return "failed"
	case PhaseNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// State は画面の読み込み状態と結果をひとまとめにした値。
// loading/error/result を個別のフラグで持たず、
// コンストラクタ経由でのみ組み立てることで矛盾した組み合わせを作れないようにする。
type State[T any] struct {
	phase  Phase
	data   T
	reason string
}

// Idle は初期状態を返す。
func Idle[T any]() State[T] {
	return State[T]{phase: PhaseIdle}
}

// Loading は読み込み中の状態を返す。
func Loading[T any]() State[T] {
	return State[T]{phase: PhaseLoading}
}

// Loaded は読み込み完了状態を返す。
func Loaded[T any](data T) State[T] {
	return State[T]{phase: PhaseLoaded, data: data}
}

// Failed は失敗状態を返す。
func Failed[T any](reason string) State[T] {
	return State[T]{phase: PhaseFailed, reason: reason}
}

// NotFound は対象なしの終端状態を返す。
func NotFound[T any]() State[T] {
	return State[T]{phase: PhaseNotFound}
}

// Phase は現在のフェーズを返す。
func (s State[T]) Phase() Phase { return s.phase }

// Data は読み込み済みのデータを返す。PhaseLoaded以外ではokがfalse。
func (s State[T]) Data() (T, bool) {
	if s.phase != PhaseLoaded {
		var zero T
		return zero, false
	}
	return s.data, true
}

// Reason は失敗理由を返す。PhaseFailed以外では空文字列。
func (s State[T]) Reason() string {
	return s.reason
}

// IsLoading は読み込み中かどうかを返す。
func (s State[T]) IsLoading() bool { return s.phase == PhaseLoading }

// IsLoaded は読み込み完了かどうかを返す。
func (s State[T]) IsLoaded() bool { return s.phase == PhaseLoaded }

// IsFailed は失敗状態かどうかを返す。
func (s State[T]) IsFailed() bool { return s.phase == PhaseFailed }

// IsNotFound は対象なしかどうかを返す。
func (s State[T]) IsNotFound() bool { return s.phase == PhaseNotFound }
