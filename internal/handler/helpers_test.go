package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"golang.org/x/net/html"

	"github.com/hitoshi/launchdeck/internal/directory"
	"github.com/hitoshi/launchdeck/internal/model"
	"github.com/hitoshi/launchdeck/internal/security"
)

// --- テストヘルパー ---

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

// parseHTML はレスポンスボディをHTMLとして解析する。
func parseHTML(t *testing.T, body io.Reader) *html.Node {
	t.Helper()
	doc, err := html.Parse(body)
	if err != nil {
		t.Fatalf("failed to parse HTML: %v", err)
	}
	return doc
}

// hasClass はノードが指定クラスを持つかを返す。
func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key == "class" {
			for _, c := range strings.Fields(a.Val) {
				if c == class {
					return true
				}
			}
		}
	}
	return false
}

// attr はノードの属性値を返す。
func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// findAll は条件に一致する要素ノードを文書順に返す。
func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

// byClass は指定クラスを持つ要素を返す。
func byClass(doc *html.Node, class string) []*html.Node {
	return findAll(doc, func(n *html.Node) bool { return hasClass(n, class) })
}

// byTag は指定タグの要素を返す。
func byTag(doc *html.Node, tag string) []*html.Node {
	return findAll(doc, func(n *html.Node) bool { return n.Data == tag })
}

// textContent はノード配下のテキストを連結して返す。
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}

// --- モック定義 ---

// mockDirectoryService はDirectoryServiceのモック実装。
type mockDirectoryService struct {
	activateFn func(ctx context.Context) error
	refreshFn  func(ctx context.Context) error
	searchFn   func(text string)
	snapshotFn func() directory.Snapshot
	selectFn   func(launchID string) (directory.Route, error)
}

func (m *mockDirectoryService) Activate(ctx context.Context) error {
	if m.activateFn != nil {
		return m.activateFn(ctx)
	}
	return nil
}

func (m *mockDirectoryService) Refresh(ctx context.Context) error {
	if m.refreshFn != nil {
		return m.refreshFn(ctx)
	}
	return nil
}

func (m *mockDirectoryService) Search(text string) directory.Snapshot {
	if m.searchFn != nil {
		m.searchFn(text)
	}
	return m.Snapshot()
}

func (m *mockDirectoryService) Snapshot() directory.Snapshot {
	if m.snapshotFn != nil {
		return m.snapshotFn()
	}
	return directory.Snapshot{State: model.Idle[[]model.Launch]()}
}

func (m *mockDirectoryService) Select(launchID string) (directory.Route, error) {
	if m.selectFn != nil {
		return m.selectFn(launchID)
	}
	return directory.Route{}, model.ErrLaunchNotFound
}

func ptr[T any](v T) *T { return &v }

// testLaunches はテスト用の打ち上げ一覧。
func testLaunches() []model.Launch {
	return []model.Launch{
		{
			ID:          "5eb87cd9ffd86e000604b32a",
			Name:        "FalconSat",
			Success:     ptr(false),
			LaunchpadID: "5e9e4502f5090995de566f86",
			Links:       model.LaunchLinks{Patch: model.LaunchPatch{Small: ptr("https://images2.imgbox.com/94/f2/NN6Ph45r_o.png")}},
		},
		{
			ID:          "5eb87cdaffd86e000604b32b",
			Name:        "DemoSat",
			Success:     ptr(true),
			LaunchpadID: "5e9e4502f5090995de566f86",
			Links:       model.LaunchLinks{Patch: model.LaunchPatch{Small: ptr("http://127.0.0.1/patch.png")}},
		},
		{
			ID:          "62dd70d5202306255024d139",
			Name:        "Crew-5",
			LaunchpadID: "5e9e4501f509094ba4566f84",
		},
	}
}

func loadedSnapshot(search string, launches []model.Launch) directory.Snapshot {
	return directory.Snapshot{
		State:    model.Loaded(launches),
		Search:   search,
		Filtered: directory.Filter(launches, search),
	}
}

func newTestDirectoryHandler(svc DirectoryService) *DirectoryHandler {
	return NewDirectoryHandler(svc, security.NewContentSanitizer(), security.NewSSRFGuard())
}

// discardLogger はテスト出力を汚さないロガー。
func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h(w, req)
	return w
}
