// Package detail は打ち上げ施設の詳細画面の読み込みを提供する。
//
// 施設情報の取得と位置情報の読み取りは互いに独立した処理として並行に実行し、
// 両方が終わった時点で地図の表示領域を決める。どちらが先に終わっても結果は変わらない。
package detail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/hitoshi/launchdeck/internal/directory"
	"github.com/hitoshi/launchdeck/internal/geo"
	"github.com/hitoshi/launchdeck/internal/location"
	"github.com/hitoshi/launchdeck/internal/model"
	"github.com/hitoshi/launchdeck/internal/navigation"
)

// PermissionNotice は位置情報が許可されていないときに表示する案内文。
const PermissionNotice = "Location permission denied. To see your location on the map, " +
	"please enable location access in your device settings."

// LaunchpadFetcher は打ち上げ施設を1件取得するインターフェース。
type LaunchpadFetcher interface {
	GetLaunchpad(ctx context.Context, id string) (*model.Launchpad, error)
}

// Screen は詳細画面の描画に必要な状態。
type Screen struct {
	Site              model.State[model.Launchpad]
	Permission        location.Permission
	UserPosition      *model.Coordinates
	Region            model.Region
	DirectionsEnabled bool
	PermissionNotice  string
}

// ShowSettingsShortcut は設定画面へのショートカットを表示するかを返す。
func (s Screen) ShowSettingsShortcut() bool {
	return s.PermissionNotice != ""
}

// Loader は詳細画面の状態を組み立てる。
type Loader struct {
	sites   LaunchpadFetcher
	logger  *slog.Logger
	padding geo.EdgePadding
	size    geo.MapSize
}

// NewLoader はLoaderを生成する。
func NewLoader(sites LaunchpadFetcher, logger *slog.Logger, padding geo.EdgePadding, size geo.MapSize) *Loader {
	return &Loader{
		sites:   sites,
		logger:  logger,
		padding: padding,
		size:    size,
	}
}

// Load は施設情報と位置情報を並行に読み込み、詳細画面の状態を返す。
// 施設が存在しない場合は NotFound、取得に失敗した場合は Failed となる。
// 位置情報が拒否されても失敗扱いにはせず、ユーザーマーカーと経路案内を無効にする。
func (l *Loader) Load(ctx context.Context, route directory.Route, loc location.Provider) Screen {
	var (
		g       errgroup.Group
		site    *model.Launchpad
		siteErr error
		perm    = location.PermissionUndetermined
		pos     *model.Coordinates
	)

	// どちらかの失敗でもう一方を中断しないよう、各処理はエラーを返さず結果だけを書き込む
	g.Go(func() error {
		site, siteErr = l.sites.GetLaunchpad(ctx, route.LaunchpadID)
		return nil
	})
	g.Go(func() error {
		perm, pos = l.readPosition(ctx, loc)
		return nil
	})
	_ = g.Wait()

	screen := Screen{Permission: perm}
	if !perm.Granted() {
		screen.PermissionNotice = PermissionNotice
	}

	switch {
	case errors.Is(siteErr, model.ErrLaunchpadNotFound):
		screen.Site = model.NotFound[model.Launchpad]()
	case siteErr != nil:
		l.logger.Error("Failed to fetch launchpad",
			slog.String("launchpad_id", route.LaunchpadID),
			slog.String("error", siteErr.Error()),
		)
		screen.Site = model.Failed[model.Launchpad](siteErr.Error())
	case site == nil:
		screen.Site = model.NotFound[model.Launchpad]()
	default:
		screen.Site = model.Loaded(*site)
		screen.UserPosition = pos
		screen.DirectionsEnabled = pos != nil
		screen.Region = l.region(site.Coordinates(), pos)
	}

	return screen
}

// readPosition は許可状態と、許可されていれば現在位置を返す。
func (l *Loader) readPosition(ctx context.Context, loc location.Provider) (location.Permission, *model.Coordinates) {
	if loc == nil {
		return location.PermissionUndetermined, nil
	}

	perm, err := loc.RequestPermission(ctx)
	if err != nil {
		l.logger.Warn("位置情報の許可要求に失敗しました", slog.String("error", err.Error()))
		return location.PermissionUndetermined, nil
	}
	if !perm.Granted() {
		return perm, nil
	}

	pos, err := loc.CurrentPosition(ctx)
	if err != nil {
		l.logger.Warn("現在位置の取得に失敗しました", slog.String("error", err.Error()))
		return perm, nil
	}
	if !pos.Valid() {
		return perm, nil
	}
	return perm, &pos
}

// region は地図の表示領域を決める。現在位置があれば施設と現在位置の両方が収まる領域にする。
func (l *Loader) region(site model.Coordinates, pos *model.Coordinates) model.Region {
	if pos == nil {
		return geo.InitialRegion(site)
	}
	r, err := geo.FitCoordinates([]model.Coordinates{site, *pos}, l.padding, l.size)
	if err != nil {
		l.logger.Warn("表示領域の計算に失敗しました", slog.String("error", err.Error()))
		return geo.InitialRegion(site)
	}
	return r
}

// Directions は現在位置から施設までの経路案内のディープリンクを返す。
// 現在位置がない場合は model.ErrPositionUnavailable を返す。これは利用者への案内であり、ログには残さない。
func Directions(screen Screen, platform navigation.Platform) (string, error) {
	site, ok := screen.Site.Data()
	if !ok {
		return "", fmt.Errorf("launchpad is %s: %w", screen.Site.Phase(), model.ErrLaunchpadNotFound)
	}
	if screen.UserPosition == nil {
		return "", model.ErrPositionUnavailable
	}
	return navigation.DirectionsURL(platform, *screen.UserPosition, site.Coordinates(), site.Name), nil
}
