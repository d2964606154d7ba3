// Package directory は打ち上げ一覧画面の状態管理を提供する。
// 一覧の取得・再取得、名前による絞り込み、選択による詳細画面への遷移パラメータ生成を行う。
package directory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/hitoshi/launchdeck/internal/metrics"
	"github.com/hitoshi/launchdeck/internal/model"
)

// LaunchQuerier は打ち上げ一覧を取得するインターフェース。
type LaunchQuerier interface {
	QueryLaunches(ctx context.Context) (*model.LaunchesQueryResponse, error)
}

// Route は一覧から詳細画面へ遷移する際のパラメータ。
type Route struct {
	LaunchpadID string
}

// Snapshot は描画用に切り出した一覧画面の状態。
type Snapshot struct {
	State      model.State[[]model.Launch]
	Search     string
	Filtered   []model.Launch
	Refreshing bool
}

// Directory は打ち上げ一覧画面の状態を保持する。
// HTTPハンドラーから並行に呼ばれるため、状態はmuで保護する。
type Directory struct {
	querier LaunchQuerier
	logger  *slog.Logger
	metrics metrics.MetricsCollector

	mu         sync.RWMutex
	state      model.State[[]model.Launch]
	search     string
	filtered   []model.Launch
	refreshing bool
}

// New はDirectoryを生成する。初期状態はIdle。
func New(querier LaunchQuerier, logger *slog.Logger, m metrics.MetricsCollector) *Directory {
	if m == nil {
		m = metrics.NopCollector{}
	}
	return &Directory{
		querier: querier,
		logger:  logger,
		metrics: m,
		state:   model.Idle[[]model.Launch](),
	}
}

// Activate は画面表示時の初回取得を行う。
// すでに取得済み、または取得中の場合は何もしない。
func (d *Directory) Activate(ctx context.Context) error {
	d.mu.Lock()
	if d.state.Phase() != model.PhaseIdle {
		d.mu.Unlock()
		return nil
	}
	d.state = model.Loading[[]model.Launch]()
	d.mu.Unlock()

	return d.fetch(ctx)
}

// Refresh は同じクエリを再発行する（pull-to-refresh）。
// 成功時は一覧を置き換え、追記はしない。
func (d *Directory) Refresh(ctx context.Context) error {
	d.mu.Lock()
	d.refreshing = true
	if !d.state.IsLoaded() {
		d.state = model.Loading[[]model.Launch]()
	}
	d.mu.Unlock()

	return d.fetch(ctx)
}

// fetch は一覧を1回取得し、結果で状態を置き換える。リトライは行わない。
// 進行中のリクエストが複数ある場合は最後に完了したものが反映される。
func (d *Directory) fetch(ctx context.Context) error {
	resp, err := d.querier.QueryLaunches(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.refreshing = false

	if err != nil {
		d.logger.Error("Failed to fetch launches",
			slog.String("error", err.Error()),
		)
		d.state = model.Failed[[]model.Launch](err.Error())
		d.filtered = nil
		d.metrics.RecordLaunchesLoaded(0)
		return fmt.Errorf("打ち上げ一覧の取得に失敗しました: %w", err)
	}

	launches := resp.Docs
	if launches == nil {
		launches = []model.Launch{}
	}
	d.state = model.Loaded(launches)
	d.filtered = Filter(launches, d.search)
	d.metrics.RecordLaunchesLoaded(len(launches))
	return nil
}

// SetSearch は検索文字列を更新し、絞り込み結果を同期的に再計算する。
func (d *Directory) SetSearch(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.search = text
	launches, _ := d.state.Data()
	d.filtered = Filter(launches, text)
}

// Search は検索文字列を更新し、その結果を反映した状態のコピーを返す。
// 更新と読み取りを同じロックの中で行うため、他のリクエストの検索文字列が混ざらない。
func (d *Directory) Search(text string) Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.search = text
	launches, _ := d.state.Data()
	d.filtered = Filter(launches, text)
	return d.snapshotLocked()
}

// Snapshot は現在の状態のコピーを返す。
func (d *Directory) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.snapshotLocked()
}

// snapshotLocked はmuを保持した状態で呼び出す。
func (d *Directory) snapshotLocked() Snapshot {
	filtered := make([]model.Launch, len(d.filtered))
	copy(filtered, d.filtered)
	return Snapshot{
		State:      d.state,
		Search:     d.search,
		Filtered:   filtered,
		Refreshing: d.refreshing,
	}
}

// Select は打ち上げIDから詳細画面への遷移パラメータを返す。
// 保持している一覧に存在しない場合は model.ErrLaunchNotFound を返す。
func (d *Directory) Select(launchID string) (Route, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	launches, _ := d.state.Data()
	for _, l := range launches {
		if l.ID == launchID {
			return Route{LaunchpadID: l.LaunchpadID}, nil
		}
	}
	return Route{}, fmt.Errorf("%w: %s", model.ErrLaunchNotFound, launchID)
}

// Filter は名前に検索文字列を含む打ち上げを元の順序のまま返す。
// 大文字小文字を区別しない。検索文字列が空の場合は全件のコピーを返す。
// 入力のみに依存する純粋関数で、引数のスライスは変更しない。
func Filter(launches []model.Launch, text string) []model.Launch {
	if text == "" {
		out := make([]model.Launch, len(launches))
		copy(out, launches)
		return out
	}

	needle := strings.ToLower(text)
	out := make([]model.Launch, 0, len(launches))
	for _, l := range launches {
		if strings.Contains(strings.ToLower(l.Name), needle) {
			out = append(out, l)
		}
	}
	return out
}
