// Package spacex はSpaceX公開REST APIのクライアントを提供する。
// 打ち上げ一覧のクエリと、打ち上げ施設の個別取得を行う。
package spacex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/hitoshi/launchdeck/internal/metrics"
	"github.com/hitoshi/launchdeck/internal/model"
)

const (
	// DefaultBaseURL はSpaceX APIのベースURL。
	DefaultBaseURL = "https://api.spacexdata.com"
	// DefaultLaunchLimit は1回のクエリで取得する打ち上げの上限件数。
	// ページングは行わない。
	DefaultLaunchLimit = 1000
	// defaultMaxBodySize はレスポンスボディの最大サイズ（16MB）。
	defaultMaxBodySize = 16 * 1024 * 1024

	userAgent = "Launchdeck/1.0"
)

// StatusError はAPIが2xx以外のステータスを返したことを表す。
type StatusError struct {
	Endpoint   string
	StatusCode int
}

// Error はerrorインターフェースを実装する。
func (e *StatusError) Error() string {
	return fmt.Sprintf("SpaceX API %s returned status %d", e.Endpoint, e.StatusCode)
}

// Client はSpaceX APIのクライアント。
type Client struct {
	httpClient  *http.Client
	logger      *slog.Logger
	metrics     metrics.MetricsCollector
	baseURL     string
	limit       int
	maxBodySize int64
}

// Option はClientの任意設定。
type Option func(*Client)

// WithBaseURL はAPIのベースURLを差し替える。テストではhttptestサーバーのURLを渡す。
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithLaunchLimit は打ち上げクエリの取得上限件数を設定する。
func WithLaunchLimit(limit int) Option {
	return func(c *Client) {
		if limit > 0 {
			c.limit = limit
		}
	}
}

// WithMaxBodySize はレスポンスボディの最大サイズを設定する。
func WithMaxBodySize(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBodySize = n
		}
	}
}

// WithMetrics はメトリクスの記録先を設定する。
func WithMetrics(m metrics.MetricsCollector) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient:  httpClient,
		logger:      logger,
		metrics:     metrics.NopCollector{},
		baseURL:     DefaultBaseURL,
		limit:       DefaultLaunchLimit,
		maxBodySize: defaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// launchesQueryRequest は /v5/launches/query のリクエストボディ。
type launchesQueryRequest struct {
	Options launchesQueryOptions `json:"options"`
}

type launchesQueryOptions struct {
	Limit int `json:"limit"`
}

// QueryLaunches は打ち上げ一覧を1回のリクエストで取得する。
// POST /v5/launches/query に {"options":{"limit":N}} を送信する。
func (c *Client) QueryLaunches(ctx context.Context) (*model.LaunchesQueryResponse, error) {
	body, err := json.Marshal(launchesQueryRequest{Options: launchesQueryOptions{Limit: c.limit}})
	if err != nil {
		return nil, fmt.Errorf("リクエストボディの生成に失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v5/launches/query", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var result model.LaunchesQueryResponse
	if err := c.do(req, metrics.EndpointLaunchesQuery, &result); err != nil {
		return nil, err
	}

	c.logger.Info("打ち上げ一覧を取得しました",
		slog.Int("launch_count", len(result.Docs)),
		slog.Int("total_docs", result.TotalDocs),
		slog.Int("limit", c.limit),
	)
	return &result, nil
}

// GetLaunchpad は打ち上げ施設を1件取得する。
// GET /v4/launchpads/{id}。存在しない場合は model.ErrLaunchpadNotFound を返す。
func (c *Client) GetLaunchpad(ctx context.Context, id string) (*model.Launchpad, error) {
	if id == "" {
		return nil, model.ErrLaunchpadNotFound
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v4/launchpads/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}

	var pad model.Launchpad
	if err := c.do(req, metrics.EndpointLaunchpad, &pad); err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", model.ErrLaunchpadNotFound, id)
		}
		return nil, err
	}
	// APIはnullを返すことがある
	if pad.ID == "" {
		return nil, fmt.Errorf("%w: %s", model.ErrLaunchpadNotFound, id)
	}
	return &pad, nil
}

// do はリクエストを実行し、レスポンスJSONをoutにデコードする。
// 結果はメトリクスに記録し、失敗はエラーログに出力する。
func (c *Client) do(req *http.Request, endpoint string, out any) error {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordFetchFailure(endpoint, "transport")
		c.logger.Error("SpaceX APIの呼び出しに失敗しました",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("SpaceX API %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	c.metrics.RecordHTTPStatus(endpoint, resp.StatusCode)
	c.metrics.RecordFetchLatency(endpoint, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.RecordFetchFailure(endpoint, "status")
		// 404は呼び出し元が「見つからない」として扱うため警告に留める
		level := slog.LevelError
		if resp.StatusCode == http.StatusNotFound {
			level = slog.LevelWarn
		}
		c.logger.Log(req.Context(), level, "SpaceX APIがエラーステータスを返しました",
			slog.String("endpoint", endpoint),
			slog.Int("http_status", resp.StatusCode),
		)
		return &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		c.metrics.RecordFetchFailure(endpoint, "read")
		c.logger.Error("レスポンスボディの読み取りに失敗しました",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.metrics.RecordFetchFailure(endpoint, "decode")
		c.logger.Error("SpaceX APIのレスポンスのパースに失敗しました",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	c.metrics.RecordFetchSuccess(endpoint)
	return nil
}
