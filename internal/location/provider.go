// Package location は端末の位置情報サービスを抽象化する。
//
// ブラウザから渡された位置（クエリパラメータ）か、設定ファイルの固定位置を
// Provider として扱い、詳細画面は許可状態と現在位置をこのインターフェース経由で読む。
package location

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/hitoshi/launchdeck/internal/model"
)

// Permission は位置情報の利用許可状態。
type Permission string

const (
	PermissionGranted      Permission = "granted"
	PermissionDenied       Permission = "denied"
	PermissionUndetermined Permission = "undetermined"
)

// Granted は利用が許可されているかを返す。
func (p Permission) Granted() bool {
	return p == PermissionGranted
}

// Provider は位置情報の許可要求と現在位置の取得を行う。
type Provider interface {
	// RequestPermission は位置情報の利用許可を要求し、その結果を返す。
	RequestPermission(ctx context.Context) (Permission, error)
	// CurrentPosition は現在位置を返す。許可されていない場合は model.ErrPermissionDenied を返す。
	CurrentPosition(ctx context.Context) (model.Coordinates, error)
}

// Fixed は常に同じ位置を返す許可済みのProvider。
type Fixed struct {
	position model.Coordinates
}

// NewFixed は固定位置のProviderを生成する。範囲外の座標はエラーとする。
func NewFixed(position model.Coordinates) (*Fixed, error) {
	if !position.Valid() {
		return nil, fmt.Errorf("invalid position %s: %w", position, model.ErrPositionUnavailable)
	}
	return &Fixed{position: position}, nil
}

// RequestPermission は常に PermissionGranted を返す。
func (f *Fixed) RequestPermission(ctx context.Context) (Permission, error) {
	if err := ctx.Err(); err != nil {
		return PermissionUndetermined, err
	}
	return PermissionGranted, nil
}

// CurrentPosition は固定位置を返す。
func (f *Fixed) CurrentPosition(ctx context.Context) (model.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return model.Coordinates{}, err
	}
	return f.position, nil
}

// Denied は常に利用拒否を返すProvider。
type Denied struct{}

// RequestPermission は常に PermissionDenied を返す。
func (Denied) RequestPermission(ctx context.Context) (Permission, error) {
	if err := ctx.Err(); err != nil {
		return PermissionUndetermined, err
	}
	return PermissionDenied, nil
}

// CurrentPosition は常に model.ErrPermissionDenied を返す。
func (Denied) CurrentPosition(context.Context) (model.Coordinates, error) {
	return model.Coordinates{}, model.ErrPermissionDenied
}

// クエリパラメータ名
const (
	QueryLatitude  = "lat"
	QueryLongitude = "lon"
	QueryLocation  = "location"
)

// FromQuery はリクエストのクエリからProviderを選ぶ。
// ?lat=&lon= があればその位置を許可済みとして扱い、?location=denied なら拒否とする。
// どちらもなければ fallback を返す。座標が不正な場合は model.ErrPositionUnavailable を返す。
func FromQuery(values url.Values, fallback Provider) (Provider, error) {
	if values.Get(QueryLocation) == string(PermissionDenied) {
		return Denied{}, nil
	}

	latStr, lonStr := values.Get(QueryLatitude), values.Get(QueryLongitude)
	if latStr == "" && lonStr == "" {
		return fallback, nil
	}
	if latStr == "" || lonStr == "" {
		return nil, fmt.Errorf("both %s and %s are required: %w", QueryLatitude, QueryLongitude, model.ErrPositionUnavailable)
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", QueryLatitude, model.ErrPositionUnavailable)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", QueryLongitude, model.ErrPositionUnavailable)
	}

	fixed, err := NewFixed(model.Coordinates{Latitude: lat, Longitude: lon})
	if err != nil {
		return nil, err
	}
	return fixed, nil
}

// Query はProviderが表す位置をクエリパラメータとして書き出す。
// 詳細画面から経路案内へ遷移するときに、ブラウザから受け取った位置を引き継ぐために使う。
func Query(ctx context.Context, p Provider) url.Values {
	values := url.Values{}
	perm, err := p.RequestPermission(ctx)
	if err != nil {
		return values
	}
	if !perm.Granted() {
		values.Set(QueryLocation, string(PermissionDenied))
		return values
	}
	pos, err := p.CurrentPosition(ctx)
	if err != nil {
		return values
	}
	values.Set(QueryLatitude, strconv.FormatFloat(pos.Latitude, 'f', -1, 64))
	values.Set(QueryLongitude, strconv.FormatFloat(pos.Longitude, 'f', -1, 64))
	return values
}
