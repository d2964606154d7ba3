package handler

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/launchdeck/internal/detail"
	"github.com/hitoshi/launchdeck/internal/directory"
	"github.com/hitoshi/launchdeck/internal/geo"
	"github.com/hitoshi/launchdeck/internal/location"
	"github.com/hitoshi/launchdeck/internal/middleware"
	"github.com/hitoshi/launchdeck/internal/model"
	"github.com/hitoshi/launchdeck/internal/navigation"
	"github.com/hitoshi/launchdeck/internal/security"
)

// DetailLoader は詳細画面ハンドラーが必要とするインターフェース。
// detail.Loader が実装する。
type DetailLoader interface {
	Load(ctx context.Context, route directory.Route, loc location.Provider) detail.Screen
}

// LaunchpadHandler は打ち上げ施設の詳細画面のHTTPハンドラー。
type LaunchpadHandler struct {
	loader    DetailLoader
	fallback  location.Provider
	sanitizer security.ContentSanitizerService
	mapSize   geo.MapSize
}

// NewLaunchpadHandler はLaunchpadHandlerを生成する。
// fallback はリクエストで位置情報が指定されなかった場合に使うProvider。
func NewLaunchpadHandler(loader DetailLoader, fallback location.Provider, sanitizer security.ContentSanitizerService, mapSize geo.MapSize) *LaunchpadHandler {
	return &LaunchpadHandler{
		loader:    loader,
		fallback:  fallback,
		sanitizer: sanitizer,
		mapSize:   mapSize,
	}
}

// launchpadResponse は打ち上げ施設のAPIレスポンス。
type launchpadResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Locality  string  `json:"locality"`
	Region    string  `json:"region"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Details   string  `json:"details"`
}

// launchpadScreenResponse は詳細画面の状態のAPIレスポンス。
type launchpadScreenResponse struct {
	Launchpad         launchpadResponse  `json:"launchpad"`
	Permission        string             `json:"permission"`
	UserPosition      *model.Coordinates `json:"user_position"`
	Region            model.Region       `json:"region"`
	DirectionsEnabled bool               `json:"directions_enabled"`
	PermissionNotice  string             `json:"permission_notice,omitempty"`
	DirectionsURL     string             `json:"directions_url,omitempty"`
}

// Show は打ち上げ施設の詳細画面を表示する。
// GET /launchpads/{id}?lat=&lon= | ?location=denied
func (h *LaunchpadHandler) Show(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	screen, loc := h.load(r, id)

	if h.writePageError(w, id, screen) {
		return
	}

	site, _ := screen.Site.Data()
	view := launchpadView{
		Site: &siteView{
			Name:     template.HTML(h.sanitizer.SanitizeText(site.Name)),
			Locality: template.HTML(h.sanitizer.SanitizeText(site.Locality)),
			Region:   template.HTML(h.sanitizer.SanitizeText(site.Region)),
			Details:  template.HTML(h.sanitizer.SanitizeText(site.Details)),
		},
		Map:               h.mapView(site, screen),
		PermissionNotice:  screen.PermissionNotice,
		SettingsShortcut:  screen.ShowSettingsShortcut(),
		DirectionsEnabled: screen.DirectionsEnabled,
		DirectionsPath:    withQuery("/launchpads/"+url.PathEscape(id)+"/directions", h.locationQuery(r, loc)),
		AskBrowser:        len(keepLocationQuery(r.URL.Query())) == 0 && !screen.Permission.Granted(),
	}

	renderPage(w, http.StatusOK, pageLaunchpad, view)
}

// Directions は地図アプリの経路案内へリダイレクトする。
// 現在位置がない場合は "Location Unavailable" の案内を409で表示する。
// GET /launchpads/{id}/directions
func (h *LaunchpadHandler) Directions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	screen, loc := h.load(r, id)

	if h.writePageError(w, id, screen) {
		return
	}

	link, err := detail.Directions(screen, navigation.DetectPlatform(r.UserAgent()))
	if errors.Is(err, model.ErrPositionUnavailable) {
		back := withQuery("/launchpads/"+url.PathEscape(id), h.locationQuery(r, loc))
		renderNotice(w, http.StatusConflict, model.NewLocationUnavailableError(), back)
		return
	}
	if err != nil {
		renderNotice(w, http.StatusNotFound, model.NewLaunchpadNotFoundError(id), "/")
		return
	}

	http.Redirect(w, r, link, http.StatusFound)
}

// Settings は位置情報の許可を変更するための端末設定画面へリダイレクトする。
// GET /settings
func (h *LaunchpadHandler) Settings(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, navigation.SettingsURL(navigation.DetectPlatform(r.UserAgent())), http.StatusFound)
}

// APIShow は詳細画面の状態をJSONで返す。
// GET /api/launchpads/{id}
func (h *LaunchpadHandler) APIShow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	screen, _ := h.load(r, id)

	switch {
	case screen.Site.IsNotFound():
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewLaunchpadNotFoundError(id))
		return
	case screen.Site.IsFailed():
		middleware.WriteErrorResponse(w, http.StatusBadGateway, model.NewLaunchpadFetchFailedError(screen.Site.Reason()))
		return
	}

	site, _ := screen.Site.Data()
	resp := launchpadScreenResponse{
		Launchpad: launchpadResponse{
			ID:        site.ID,
			Name:      site.Name,
			Locality:  site.Locality,
			Region:    site.Region,
			Latitude:  site.Latitude,
			Longitude: site.Longitude,
			Details:   site.Details,
		},
		Permission:        string(screen.Permission),
		UserPosition:      screen.UserPosition,
		Region:            screen.Region,
		DirectionsEnabled: screen.DirectionsEnabled,
		PermissionNotice:  screen.PermissionNotice,
	}
	if link, err := detail.Directions(screen, navigation.DetectPlatform(r.UserAgent())); err == nil {
		resp.DirectionsURL = link
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// load はリクエストの位置情報を解決して詳細画面の状態を読み込む。
// 不正な座標が指定された場合は位置情報なし（未決定）として扱い、Providerはnilを返す。
func (h *LaunchpadHandler) load(r *http.Request, id string) (detail.Screen, location.Provider) {
	loc, err := location.FromQuery(r.URL.Query(), h.fallback)
	if err != nil {
		loc = nil
	}
	return h.loader.Load(r.Context(), directory.Route{LaunchpadID: id}, loc), loc
}

// locationQuery は画面遷移で引き継ぐ位置情報のクエリを返す。
// 位置情報のクエリがないリクエストでは何も引き継がず、設定の固定位置をURLに書き出さない。
func (h *LaunchpadHandler) locationQuery(r *http.Request, loc location.Provider) url.Values {
	if loc == nil || len(keepLocationQuery(r.URL.Query())) == 0 {
		return url.Values{}
	}
	return location.Query(r.Context(), loc)
}

// writePageError は施設が表示できない状態であれば案内画面を書き込み、trueを返す。
func (h *LaunchpadHandler) writePageError(w http.ResponseWriter, id string, screen detail.Screen) bool {
	switch {
	case screen.Site.IsNotFound():
		renderPage(w, http.StatusNotFound, pageNotice, noticeView{Title: "Launchpad not found.", Back: "/"})
		return true
	case screen.Site.IsFailed():
		renderNotice(w, http.StatusBadGateway, model.NewLaunchpadFetchFailedError(screen.Site.Reason()), "/")
		return true
	case !screen.Site.IsLoaded():
		renderNotice(w, http.StatusNotFound, model.NewLaunchpadNotFoundError(id), "/")
		return true
	}
	return false
}

// mapView は詳細画面の地図を組み立てる。
func (h *LaunchpadHandler) mapView(site model.Launchpad, screen detail.Screen) *mapView {
	width, height := h.mapSize.Width, h.mapSize.Height
	sx, sy := project(screen.Region, width, height, site.Coordinates())

	m := &mapView{
		Width:  width,
		Height: height,
		Region: screen.Region,
		Site: marker{
			X:           sx,
			Y:           sy,
			Title:       site.Name,
			Description: site.Locality,
		},
		ExternalURL: externalMapURL(screen.Region, site.Coordinates()),
	}
	if screen.UserPosition != nil {
		ux, uy := project(screen.Region, width, height, *screen.UserPosition)
		m.User = &marker{X: ux, Y: uy, Title: "You"}
	}
	return m
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}
