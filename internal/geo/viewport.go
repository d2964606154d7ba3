// Package geo は地図の表示領域（viewport）の計算を提供する。
package geo

import (
	"errors"
	"math"

	"github.com/hitoshi/launchdeck/internal/model"
)

const (
	// InitialDelta は施設のみを表示するときの初期表示幅（度）。
	InitialDelta = 0.2
	// MinDelta は全座標が同一点に近いときに使う最小表示幅（度）。
	MinDelta = 0.01
)

var (
	// ErrNoCoordinates は座標が1つも渡されなかったことを示す。
	ErrNoCoordinates = errors.New("no coordinates to fit")
	// ErrInvalidMapSize は地図サイズが余白に対して小さすぎることを示す。
	ErrInvalidMapSize = errors.New("map size must be larger than edge padding")
)

// EdgePadding は地図の各辺に確保する余白（ピクセル）。
type EdgePadding struct {
	Top    int
	Right  int
	Bottom int
	Left   int
}

// UniformPadding は4辺とも同じ余白を返す。
func UniformPadding(px int) EdgePadding {
	return EdgePadding{Top: px, Right: px, Bottom: px, Left: px}
}

// MapSize は地図の表示サイズ（ピクセル）。
type MapSize struct {
	Width  int
	Height int
}

// InitialRegion は施設を中心にした初期表示領域を返す。
func InitialRegion(site model.Coordinates) model.Region {
	return model.Region{
		Latitude:       site.Latitude,
		Longitude:      site.Longitude,
		LatitudeDelta:  InitialDelta,
		LongitudeDelta: InitialDelta,
	}
}

// FitCoordinates はすべての座標を含み、各辺に余白を残す表示領域を返す。
// 座標の外接矩形が地図の余白を除いた領域にちょうど収まるよう表示幅を拡大する。
// 度とピクセルの対応は線形近似で、日付変更線をまたぐ矩形は扱わない。
// 結果は座標の順序に依存しない。
func FitCoordinates(points []model.Coordinates, pad EdgePadding, size MapSize) (model.Region, error) {
	if len(points) == 0 {
		return model.Region{}, ErrNoCoordinates
	}

	innerW := size.Width - pad.Left - pad.Right
	innerH := size.Height - pad.Top - pad.Bottom
	if innerW <= 0 || innerH <= 0 || pad.Top < 0 || pad.Right < 0 || pad.Bottom < 0 || pad.Left < 0 {
		return model.Region{}, ErrInvalidMapSize
	}

	minLat, maxLat := math.Inf(1), math.Inf(-1)
	minLon, maxLon := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		minLat = math.Min(minLat, p.Latitude)
		maxLat = math.Max(maxLat, p.Latitude)
		minLon = math.Min(minLon, p.Longitude)
		maxLon = math.Max(maxLon, p.Longitude)
	}

	latSpan := math.Max(maxLat-minLat, MinDelta)
	lonSpan := math.Max(maxLon-minLon, MinDelta)

	// 外接矩形を内側の領域に合わせ、全体の表示幅に換算する
	latDelta := latSpan * float64(size.Height) / float64(innerH)
	lonDelta := lonSpan * float64(size.Width) / float64(innerW)

	// 1ピクセルあたりの度数
	latPerPx := latDelta / float64(size.Height)
	lonPerPx := lonDelta / float64(size.Width)

	// 上下・左右の余白が非対称な場合は中心をずらす。北が上。
	centerLat := (minLat+maxLat)/2 + float64(pad.Top-pad.Bottom)/2*latPerPx
	centerLon := (minLon+maxLon)/2 + float64(pad.Right-pad.Left)/2*lonPerPx

	return model.Region{
		Latitude:       centerLat,
		Longitude:      centerLon,
		LatitudeDelta:  latDelta,
		LongitudeDelta: lonDelta,
	}, nil
}
