package handler

import (
	"context"
	"encoding/json"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/launchdeck/internal/directory"
	"github.com/hitoshi/launchdeck/internal/location"
	"github.com/hitoshi/launchdeck/internal/middleware"
	"github.com/hitoshi/launchdeck/internal/model"
	"github.com/hitoshi/launchdeck/internal/security"
)

// DirectoryService は一覧画面ハンドラーが必要とするインターフェース。
// directory.Directory が実装する。
type DirectoryService interface {
	// Activate は未取得の場合のみ一覧を取得する。
	Activate(ctx context.Context) error
	// Refresh は一覧を再取得する。
	Refresh(ctx context.Context) error
	// Search は検索文字列を更新し、その結果を反映した描画用の状態を返す。
	Search(text string) directory.Snapshot
	// Snapshot は描画用の状態を返す。
	Snapshot() directory.Snapshot
	// Select は打ち上げIDから詳細画面への遷移パラメータを返す。
	Select(launchID string) (directory.Route, error)
}

// DirectoryHandler は打ち上げ一覧画面のHTTPハンドラー。
type DirectoryHandler struct {
	service   DirectoryService
	sanitizer security.ContentSanitizerService
	guard     security.SSRFGuardService
}

// NewDirectoryHandler はDirectoryHandlerを生成する。
func NewDirectoryHandler(service DirectoryService, sanitizer security.ContentSanitizerService, guard security.SSRFGuardService) *DirectoryHandler {
	return &DirectoryHandler{
		service:   service,
		sanitizer: sanitizer,
		guard:     guard,
	}
}

// launchResponse は打ち上げ1件のAPIレスポンス。
type launchResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	DateUTC     time.Time `json:"date_utc"`
	Outcome     string    `json:"outcome"`
	Label       string    `json:"label"`
	LaunchpadID string    `json:"launchpad"`
	PatchURL    string    `json:"patch_url"`
}

// launchesResponse は打ち上げ一覧のAPIレスポンス。
type launchesResponse struct {
	State      string           `json:"state"`
	Search     string           `json:"search"`
	Refreshing bool             `json:"refreshing"`
	Error      string           `json:"error,omitempty"`
	Total      int              `json:"total"`
	Launches   []launchResponse `json:"launches"`
}

// Index は一覧画面を表示する。
// GET /?q=
func (h *DirectoryHandler) Index(w http.ResponseWriter, r *http.Request) {
	// 取得失敗はDirectory側でログに記録され、状態はFailedになる
	_ = h.service.Activate(fetchContext(r))

	renderPage(w, http.StatusOK, pageDirectory, h.directoryView(h.snapshot(r)))
}

// Refresh は一覧を再取得して一覧画面へ戻る（pull-to-refresh）。
// POST /refresh
func (h *DirectoryHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	_ = h.service.Refresh(fetchContext(r))

	target := "/"
	if q := r.FormValue("q"); q != "" {
		target += "?" + url.Values{"q": {q}}.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// Select は一覧で選択された打ち上げの施設詳細画面へリダイレクトする。
// GET /launches/{id}
func (h *DirectoryHandler) Select(w http.ResponseWriter, r *http.Request) {
	launchID := chi.URLParam(r, "id")

	_ = h.service.Activate(fetchContext(r))
	route, err := h.service.Select(launchID)
	if err != nil {
		renderNotice(w, http.StatusNotFound, model.NewLaunchNotFoundError(launchID), "/")
		return
	}

	target := "/launchpads/" + url.PathEscape(route.LaunchpadID)
	if q := keepLocationQuery(r.URL.Query()); len(q) > 0 {
		target += "?" + q.Encode()
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// APIList は一覧をJSONで返す。
// GET /api/launches?q=
func (h *DirectoryHandler) APIList(w http.ResponseWriter, r *http.Request) {
	_ = h.service.Activate(fetchContext(r))
	h.writeSnapshot(w, h.snapshot(r))
}

// APIRefresh は一覧を再取得してJSONで返す。
// POST /api/launches/refresh
func (h *DirectoryHandler) APIRefresh(w http.ResponseWriter, r *http.Request) {
	_ = h.service.Refresh(fetchContext(r))
	h.writeSnapshot(w, h.service.Snapshot())
}

// snapshot は描画用の状態を返す。クエリに q があれば検索文字列として反映した結果を返す。
func (h *DirectoryHandler) snapshot(r *http.Request) directory.Snapshot {
	if values := r.URL.Query(); values.Has("q") {
		return h.service.Search(values.Get("q"))
	}
	return h.service.Snapshot()
}

// fetchContext は一覧取得に使うコンテキストを返す。
// 一覧は全クライアントで共有するため、1つのリクエストの切断で取得を中断しない。
// 取得時間の上限はHTTPクライアントのタイムアウトで決まる。
func fetchContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

// writeSnapshot は一覧の状態をJSONで書き込む。取得失敗時は502と統一エラーフォーマットを返す。
func (h *DirectoryHandler) writeSnapshot(w http.ResponseWriter, snap directory.Snapshot) {
	if snap.State.IsFailed() {
		middleware.WriteErrorResponse(w, http.StatusBadGateway, model.NewLaunchesFetchFailedError(snap.State.Reason()))
		return
	}

	launches := make([]launchResponse, 0, len(snap.Filtered))
	for _, l := range snap.Filtered {
		launches = append(launches, h.toLaunchResponse(l))
	}
	all, _ := snap.State.Data()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(launchesResponse{
		State:      snap.State.Phase().String(),
		Search:     snap.Search,
		Refreshing: snap.Refreshing,
		Total:      len(all),
		Launches:   launches,
	})
}

func (h *DirectoryHandler) toLaunchResponse(l model.Launch) launchResponse {
	return launchResponse{
		ID:          l.ID,
		Name:        l.Name,
		DateUTC:     l.DateUTC,
		Outcome:     string(l.Outcome()),
		Label:       l.Outcome().Label(),
		LaunchpadID: l.LaunchpadID,
		PatchURL:    h.guard.SafeImageURL(l.PatchImageURL(), model.PlaceholderPatchURL),
	}
}

// directoryView はスナップショットから一覧画面の表示内容を組み立てる。
func (h *DirectoryHandler) directoryView(snap directory.Snapshot) directoryView {
	view := directoryView{
		Search:     snap.Search,
		Phase:      snap.State.Phase().String(),
		Refreshing: snap.Refreshing,
	}
	if snap.State.IsFailed() {
		view.Error = model.NewLaunchesFetchFailedError(snap.State.Reason()).Message
	}

	view.Items = make([]launchItem, 0, len(snap.Filtered))
	for _, l := range snap.Filtered {
		outcome := l.Outcome()
		view.Items = append(view.Items, launchItem{
			ID:           l.ID,
			Name:         template.HTML(h.sanitizer.SanitizeText(l.Name)),
			Date:         l.DateUTC.Local().Format("1/2/2006"),
			Outcome:      outcome.Label(),
			OutcomeClass: string(outcome),
			PatchURL:     h.guard.SafeImageURL(l.PatchImageURL(), model.PlaceholderPatchURL),
		})
	}
	return view
}

// keepLocationQuery は画面遷移で引き継ぐ位置情報のクエリだけを取り出す。
func keepLocationQuery(values url.Values) url.Values {
	out := url.Values{}
	for _, key := range []string{location.QueryLatitude, location.QueryLongitude, location.QueryLocation} {
		if v := values.Get(key); v != "" {
			out.Set(key, v)
		}
	}
	return out
}
