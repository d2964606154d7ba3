// Package model はドメインモデルを定義する。
package model

import "time"

// PlaceholderPatchURL はミッションパッチ画像がない場合に表示する画像URL。
const PlaceholderPatchURL = "https://via.placeholder.com/100"

// Launch はSpaceX APIから取得した1件の打ち上げを表す。
// リクエスト単位で生成され、再フェッチ時にはレコードごと置き換える。
type Launch struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	DateUTC     time.Time   `json:"date_utc"`
	Success     *bool       `json:"success"`
	LaunchpadID string      `json:"launchpad"`
	Links       LaunchLinks `json:"links"`
}

// LaunchLinks は打ち上げに付随する外部リンク。
type LaunchLinks struct {
	Patch     LaunchPatch `json:"patch"`
	Webcast   *string     `json:"webcast"`
	Article   *string     `json:"article"`
	Wikipedia *string     `json:"wikipedia"`
}

// LaunchPatch はミッションパッチ画像のURL。
type LaunchPatch struct {
	Small *string `json:"small"`
	Large *string `json:"large"`
}

// LaunchesQueryResponse は /launches/query のレスポンス。
type LaunchesQueryResponse struct {
	Docs          []Launch `json:"docs"`
	TotalDocs     int      `json:"totalDocs"`
	Limit         int      `json:"limit"`
	TotalPages    int      `json:"totalPages"`
	Page          int      `json:"page"`
	PagingCounter int      `json:"pagingCounter"`
	HasPrevPage   bool     `json:"hasPrevPage"`
	HasNextPage   bool     `json:"hasNextPage"`
	PrevPage      *int     `json:"prevPage"`
	NextPage      *int     `json:"nextPage"`
}

// Outcome は打ち上げ結果を表す。
type Outcome string

const (
	// OutcomePending は結果未確定（success が null）。
	OutcomePending Outcome = "pending"
	// OutcomeSuccess は成功。
	OutcomeSuccess Outcome = "success"
	// OutcomeFailure は失敗。
	OutcomeFailure Outcome = "failure"
)

// Label は画面表示用のラベルを返す。
func (o Outcome) Label() string {
	switch o {
	case OutcomeSuccess:
		return "Success"
	case OutcomeFailure:
		return "Failure"
	default:
		return "Upcoming"
	}
}

// Outcome はnullableなsuccessフィールドから打ち上げ結果を導出する。
// null → Pending, true → Success, false → Failure。
func (l Launch) Outcome() Outcome {
	if l.Success == nil {
		return OutcomePending
	}
	if *l.Success {
		return OutcomeSuccess
	}
	return OutcomeFailure
}

// PatchImageURL は小サイズのパッチ画像URLを返す。未設定の場合はプレースホルダー。
func (l Launch) PatchImageURL() string {
	if l.Links.Patch.Small != nil && *l.Links.Patch.Small != "" {
		return *l.Links.Patch.Small
	}
	return PlaceholderPatchURL
}
