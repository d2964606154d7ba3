package spacex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/launchdeck/internal/model"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// recordingMetrics はテスト用のMetricsCollector。
type recordingMetrics struct {
	successes []string
	failures  []string
	statuses  []int
}

func (m *recordingMetrics) RecordFetchSuccess(endpoint string) {
	m.successes = append(m.successes, endpoint)
}
func (m *recordingMetrics) RecordFetchFailure(endpoint, reason string) {
	m.failures = append(m.failures, endpoint+":"+reason)
}
func (m *recordingMetrics) RecordHTTPStatus(endpoint string, statusCode int) {
	m.statuses = append(m.statuses, statusCode)
}
func (m *recordingMetrics) RecordFetchLatency(string, time.Duration) {}
func (m *recordingMetrics) RecordLaunchesLoaded(int)                 {}
func (m *recordingMetrics) RecordRenderFault()                       {}

const launchesJSON = `{
	"docs": [
		{"id": "l1", "name": "FalconSat", "date_utc": "2006-03-24T22:30:00.000Z", "success": false, "launchpad": "pad-kwaj", "links": {"patch": {"small": null, "large": null}}},
		{"id": "l2", "name": "Starlink-1", "date_utc": "2019-11-11T14:56:00.000Z", "success": true, "launchpad": "pad-slc40", "links": {"patch": {"small": "https://images2.imgbox.com/x.png", "large": null}}},
		{"id": "l3", "name": "Crew-9", "date_utc": "2024-09-28T17:17:00.000Z", "success": null, "launchpad": "pad-slc40", "links": {"patch": {"small": null, "large": null}}}
	],
	"totalDocs": 3, "limit": 1000, "totalPages": 1, "page": 1, "pagingCounter": 1,
	"hasPrevPage": false, "hasNextPage": false, "prevPage": null, "nextPage": null
}`

func TestNewClient_ReturnsNonNil(t *testing.T) {
	var buf bytes.Buffer
	c := NewClient(http.DefaultClient, newTestLogger(&buf))
	if c == nil {
		t.Fatal("NewClient は nil を返してはならない")
	}
	if c.baseURL != DefaultBaseURL || c.limit != DefaultLaunchLimit {
		t.Errorf("デフォルト値が不正: baseURL=%q limit=%d", c.baseURL, c.limit)
	}
}

// TestClient_QueryLaunches_SendsQueryBody はクエリのリクエスト形式を検証する。
func TestClient_QueryLaunches_SendsQueryBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("HTTPメソッド = %s, want POST", r.Method)
		}
		if r.URL.Path != "/v5/launches/query" {
			t.Errorf("パス = %s, want /v5/launches/query", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}

		var body map[string]map[string]int
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("リクエストボディのデコードに失敗: %v", err)
		}
		if body["options"]["limit"] != 1000 {
			t.Errorf("options.limit = %d, want 1000", body["options"]["limit"])
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(launchesJSON))
	}))
	defer server.Close()

	var buf bytes.Buffer
	m := &recordingMetrics{}
	c := NewClient(server.Client(), newTestLogger(&buf), WithBaseURL(server.URL), WithMetrics(m))

	resp, err := c.QueryLaunches(context.Background())
	if err != nil {
		t.Fatalf("QueryLaunches がエラーを返した: %v", err)
	}

	if len(resp.Docs) != 3 {
		t.Fatalf("件数 = %d, want 3", len(resp.Docs))
	}
	// APIの並び順が保持されること
	if resp.Docs[0].Name != "FalconSat" || resp.Docs[2].Name != "Crew-9" {
		t.Errorf("並び順が不正: %q, %q", resp.Docs[0].Name, resp.Docs[2].Name)
	}
	if resp.Docs[2].Outcome() != model.OutcomePending {
		t.Errorf("Crew-9 の結果 = %q, want pending", resp.Docs[2].Outcome())
	}
	if resp.TotalDocs != 3 || resp.HasNextPage {
		t.Errorf("ページ情報が不正: totalDocs=%d hasNextPage=%v", resp.TotalDocs, resp.HasNextPage)
	}
	if len(m.successes) != 1 || m.successes[0] != "launches_query" {
		t.Errorf("成功メトリクス = %v, want [launches_query]", m.successes)
	}
}

// TestClient_QueryLaunches_CustomLimit は取得上限件数の設定が反映されることを検証する。
func TestClient_QueryLaunches_CustomLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]map[string]int
		json.NewDecoder(r.Body).Decode(&body)
		if body["options"]["limit"] != 25 {
			t.Errorf("options.limit = %d, want 25", body["options"]["limit"])
		}
		w.Write([]byte(`{"docs": []}`))
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := NewClient(server.Client(), newTestLogger(&buf), WithBaseURL(server.URL), WithLaunchLimit(25))

	resp, err := c.QueryLaunches(context.Background())
	if err != nil {
		t.Fatalf("QueryLaunches がエラーを返した: %v", err)
	}
	if len(resp.Docs) != 0 {
		t.Errorf("件数 = %d, want 0", len(resp.Docs))
	}
}

// TestClient_QueryLaunches_ServerError はエラーステータスでStatusErrorを返しログに残すことを検証する。
func TestClient_QueryLaunches_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	var buf bytes.Buffer
	m := &recordingMetrics{}
	c := NewClient(server.Client(), newTestLogger(&buf), WithBaseURL(server.URL), WithMetrics(m))

	_, err := c.QueryLaunches(context.Background())
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusBadGateway {
		t.Errorf("StatusCode = %d, want 502", statusErr.StatusCode)
	}
	if !strings.Contains(buf.String(), `"http_status":502`) {
		t.Errorf("ログにステータスが含まれていない: %s", buf.String())
	}
	if len(m.failures) != 1 || m.failures[0] != "launches_query:status" {
		t.Errorf("失敗メトリクス = %v", m.failures)
	}
}

// TestClient_QueryLaunches_InvalidJSON は不正なJSONでエラーを返すことを検証する。
func TestClient_QueryLaunches_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"docs": [`))
	}))
	defer server.Close()

	var buf bytes.Buffer
	m := &recordingMetrics{}
	c := NewClient(server.Client(), newTestLogger(&buf), WithBaseURL(server.URL), WithMetrics(m))

	if _, err := c.QueryLaunches(context.Background()); err == nil {
		t.Fatal("不正なJSONでエラーが返されなかった")
	}
	if len(m.failures) != 1 || m.failures[0] != "launches_query:decode" {
		t.Errorf("失敗メトリクス = %v", m.failures)
	}
}

// TestClient_QueryLaunches_ContextCanceled はキャンセル済みコンテキストでエラーになることを検証する。
func TestClient_QueryLaunches_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(launchesJSON))
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := NewClient(server.Client(), newTestLogger(&buf), WithBaseURL(server.URL))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.QueryLaunches(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

// TestClient_QueryLaunches_BodySizeLimit は上限を超えるレスポンスがパース失敗になることを検証する。
func TestClient_QueryLaunches_BodySizeLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(launchesJSON))
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := NewClient(server.Client(), newTestLogger(&buf), WithBaseURL(server.URL), WithMaxBodySize(32))

	if _, err := c.QueryLaunches(context.Background()); err == nil {
		t.Fatal("切り詰められたレスポンスでエラーが返されなかった")
	}
}

// TestClient_GetLaunchpad は打ち上げ施設の取得を検証する。
func TestClient_GetLaunchpad(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("HTTPメソッド = %s, want GET", r.Method)
		}
		if r.URL.Path != "/v4/launchpads/pad-slc40" {
			t.Errorf("パス = %s, want /v4/launchpads/pad-slc40", r.URL.Path)
		}
		w.Write([]byte(`{
			"id": "pad-slc40",
			"name": "CCSFS SLC 40",
			"locality": "Cape Canaveral",
			"region": "Florida",
			"latitude": 28.5618571,
			"longitude": -80.577366,
			"details": "SpaceX's primary Falcon 9 pad."
		}`))
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := NewClient(server.Client(), newTestLogger(&buf), WithBaseURL(server.URL))

	pad, err := c.GetLaunchpad(context.Background(), "pad-slc40")
	if err != nil {
		t.Fatalf("GetLaunchpad がエラーを返した: %v", err)
	}
	if pad.Name != "CCSFS SLC 40" || pad.Locality != "Cape Canaveral" || pad.Region != "Florida" {
		t.Errorf("施設情報が不正: %+v", pad)
	}
	if pad.Coordinates() != (model.Coordinates{Latitude: 28.5618571, Longitude: -80.577366}) {
		t.Errorf("座標 = %v", pad.Coordinates())
	}
}

// TestClient_GetLaunchpad_NotFound は404とnullレスポンスがErrLaunchpadNotFoundになることを検証する。
func TestClient_GetLaunchpad_NotFound(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"404", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) }},
		{"null", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("null")) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			var buf bytes.Buffer
			c := NewClient(server.Client(), newTestLogger(&buf), WithBaseURL(server.URL))

			_, err := c.GetLaunchpad(context.Background(), "missing")
			if !errors.Is(err, model.ErrLaunchpadNotFound) {
				t.Errorf("err = %v, want ErrLaunchpadNotFound", err)
			}
		})
	}
}

// TestClient_GetLaunchpad_EmptyID は空IDでリクエストを送らずに未検出を返すことを検証する。
func TestClient_GetLaunchpad_EmptyID(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := NewClient(server.Client(), newTestLogger(&buf), WithBaseURL(server.URL))

	_, err := c.GetLaunchpad(context.Background(), "")
	if !errors.Is(err, model.ErrLaunchpadNotFound) {
		t.Errorf("err = %v, want ErrLaunchpadNotFound", err)
	}
	if called {
		t.Error("空IDでAPIが呼び出された")
	}
}

// TestClient_GetLaunchpad_EscapesID はIDがパスとしてエスケープされることを検証する。
func TestClient_GetLaunchpad_EscapesID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() != "/v4/launchpads/a%2Fb" {
			t.Errorf("EscapedPath = %s, want /v4/launchpads/a%%2Fb", r.URL.EscapedPath())
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := NewClient(server.Client(), newTestLogger(&buf), WithBaseURL(server.URL))
	c.GetLaunchpad(context.Background(), "a/b")
}

// TestClient_GetLaunchpad_ServerError は5xxが未検出ではなく取得失敗になることを検証する。
func TestClient_GetLaunchpad_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := NewClient(server.Client(), newTestLogger(&buf), WithBaseURL(server.URL))

	_, err := c.GetLaunchpad(context.Background(), "pad-slc40")
	if err == nil {
		t.Fatal("5xxでエラーが返されなかった")
	}
	if errors.Is(err, model.ErrLaunchpadNotFound) {
		t.Error("5xxをErrLaunchpadNotFoundとして扱ってはならない")
	}
}
