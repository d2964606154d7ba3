package model

import (
	"errors"
	"fmt"
)

// ドメインのセンチネルエラー。呼び出し元は errors.Is で判定する。
var (
	// ErrLaunchpadNotFound は指定IDの打ち上げ施設が存在しないことを示す。
	ErrLaunchpadNotFound = errors.New("launchpad not found")
	// ErrLaunchNotFound は指定IDの打ち上げが一覧に存在しないことを示す。
	ErrLaunchNotFound = errors.New("launch not found")
	// ErrPermissionDenied は位置情報の利用が許可されていないことを示す。
	// エラーではなく機能縮退として扱う。
	ErrPermissionDenied = errors.New("location permission denied")
	// ErrPositionUnavailable は現在位置が取得できないことを示す。
	ErrPositionUnavailable = errors.New("position unavailable")
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: network, validation, location, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeLaunchesFetchFailed  = "LAUNCHES_FETCH_FAILED"
	ErrCodeLaunchpadFetchFailed = "LAUNCHPAD_FETCH_FAILED"
	ErrCodeLaunchpadNotFound    = "LAUNCHPAD_NOT_FOUND"
	ErrCodeLaunchNotFound       = "LAUNCH_NOT_FOUND"
	ErrCodeLocationUnavailable  = "LOCATION_UNAVAILABLE"
	ErrCodeRenderFault          = "RENDER_FAULT"
	ErrCodeRateLimited          = "RATE_LIMIT_EXCEEDED"
)

// NewLaunchesFetchFailedError は打ち上げ一覧の取得失敗エラーを生成する。
func NewLaunchesFetchFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeLaunchesFetchFailed,
		Message:  fmt.Sprintf("Failed to fetch launches: %s", reason),
		Category: "network",
		Action:   "Pull to refresh to try again.",
	}
}

// NewLaunchpadFetchFailedError は打ち上げ施設の取得失敗エラーを生成する。
func NewLaunchpadFetchFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeLaunchpadFetchFailed,
		Message:  fmt.Sprintf("Failed to fetch launchpad: %s", reason),
		Category: "network",
		Action:   "Go back and open the launch again.",
	}
}

// NewLaunchpadNotFoundError は打ち上げ施設未検出エラーを生成する。
func NewLaunchpadNotFoundError(launchpadID string) *APIError {
	return &APIError{
		Code:     ErrCodeLaunchpadNotFound,
		Message:  fmt.Sprintf("Launchpad not found: %s", launchpadID),
		Category: "validation",
		Action:   "Check the launchpad ID.",
	}
}

// NewLaunchNotFoundError は打ち上げ未検出エラーを生成する。
func NewLaunchNotFoundError(launchID string) *APIError {
	return &APIError{
		Code:     ErrCodeLaunchNotFound,
		Message:  fmt.Sprintf("Launch not found: %s", launchID),
		Category: "validation",
		Action:   "Refresh the launch list and select the launch again.",
	}
}

// NewLocationUnavailableError は経路案内の前提となる現在位置がない場合のエラーを生成する。
func NewLocationUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeLocationUnavailable,
		Message:  "Location Unavailable",
		Category: "location",
		Action:   "Please enable location to get directions.",
	}
}

// NewRenderFaultError は描画中の障害を表すエラーを生成する。
func NewRenderFaultError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeRenderFault,
		Message:  message,
		Category: "system",
		Action:   "Press Try Again to reload the screen.",
	}
}

// NewRateLimitedError はレート制限超過エラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "Too many requests. Please try again later.",
		Category: "system",
		Action:   "Please wait and retry after the specified time.",
	}
}
