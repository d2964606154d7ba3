package handler

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/hitoshi/launchdeck/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// 画面テンプレート名
const (
	pageDirectory = "directory.html"
	pageLaunchpad = "launchpad.html"
	pageNotice    = "notice.html"
)

// pages は画面ごとにレイアウトと組み合わせたテンプレート。
var pages = map[string]*template.Template{
	pageDirectory: parsePage(pageDirectory),
	pageLaunchpad: parsePage(pageLaunchpad),
	pageNotice:    parsePage(pageNotice),
}

func parsePage(name string) *template.Template {
	return template.Must(template.New(name).ParseFS(templateFS, "templates/layout.html", "templates/"+name))
}

// staticHandler は埋め込みの静的ファイルを配信するハンドラーを返す。
func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// renderPage はテンプレートをバッファに描画してからレスポンスを書き込む。
// テンプレートの実行に失敗した場合は panic し、boundary に回復画面の表示を任せる。
func renderPage(w http.ResponseWriter, status int, page string, data any) {
	tmpl, ok := pages[page]
	if !ok {
		panic(fmt.Sprintf("unknown page %q", page))
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		panic(fmt.Errorf("render %s: %w", page, err))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("レスポンスの書き込みに失敗しました", slog.String("error", err.Error()))
	}
}

// noticeView は案内画面の表示内容。
type noticeView struct {
	Title   string
	Message string
	Back    string
}

// renderNotice は案内画面を描画する。
func renderNotice(w http.ResponseWriter, status int, apiErr *model.APIError, back string) {
	renderPage(w, status, pageNotice, noticeView{
		Title:   apiErr.Message,
		Message: apiErr.Action,
		Back:    back,
	})
}

// launchItem は一覧画面の1行。
type launchItem struct {
	ID           string
	Name         template.HTML
	Date         string
	Outcome      string
	OutcomeClass string
	PatchURL     string
}

// directoryView は一覧画面の表示内容。
type directoryView struct {
	Search     string
	Phase      string
	Error      string
	Refreshing bool
	Items      []launchItem
}

// siteView は詳細画面の施設情報。サニタイズ済みのテキストを保持する。
type siteView struct {
	Name     template.HTML
	Locality template.HTML
	Region   template.HTML
	Details  template.HTML
}

// marker は地図上のマーカー。座標は地図のピクセル座標。
type marker struct {
	X           float64
	Y           float64
	Title       string
	Description string
}

// mapView は詳細画面の地図。
type mapView struct {
	Width       int
	Height      int
	Region      model.Region
	Site        marker
	User        *marker
	ExternalURL string
}

// launchpadView は詳細画面の表示内容。
type launchpadView struct {
	Site             *siteView
	Map              *mapView
	PermissionNotice string
	SettingsShortcut bool
	// DirectionsEnabled がfalseのとき "Open in Maps" は無効表示になり、
	// 押すと "Location Unavailable" の案内へ進む。
	DirectionsEnabled bool
	DirectionsPath    string
	AskBrowser        bool
}

// project は座標を表示領域内のピクセル位置に変換する。北が上。
func project(r model.Region, width, height int, c model.Coordinates) (x, y float64) {
	sw, ne := r.Bounds()
	x = (c.Longitude - sw.Longitude) / r.LongitudeDelta * float64(width)
	y = (ne.Latitude - c.Latitude) / r.LatitudeDelta * float64(height)
	return x, y
}

// externalMapURL は表示領域と同じ範囲を開くOpenStreetMapのURLを返す。
func externalMapURL(r model.Region, site model.Coordinates) string {
	sw, ne := r.Bounds()
	q := url.Values{}
	q.Set("bbox", fmt.Sprintf("%g,%g,%g,%g", sw.Longitude, sw.Latitude, ne.Longitude, ne.Latitude))
	q.Set("marker", site.String())
	return "https://www.openstreetmap.org/export/embed.html?" + q.Encode()
}
