package model

import "strconv"

// Coordinates は緯度経度の組。ユーザー位置もこの型で表す。
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid は緯度経度が地球上の範囲に収まっているかを返す。
func (c Coordinates) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// String は "lat,lon" 形式の文字列を返す。ディープリンクのパラメータに使用する。
func (c Coordinates) String() string {
	return strconv.FormatFloat(c.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(c.Longitude, 'f', -1, 64)
}

// Region は地図の表示領域（viewport）を表す。
// 中心座標と、緯度・経度方向の表示幅で定義する。
type Region struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	LatitudeDelta  float64 `json:"latitude_delta"`
	LongitudeDelta float64 `json:"longitude_delta"`
}

// Contains は座標が表示領域内にあるかを返す。
func (r Region) Contains(c Coordinates) bool {
	halfLat := r.LatitudeDelta / 2
	halfLon := r.LongitudeDelta / 2
	return c.Latitude >= r.Latitude-halfLat && c.Latitude <= r.Latitude+halfLat &&
		c.Longitude >= r.Longitude-halfLon && c.Longitude <= r.Longitude+halfLon
}

// Bounds は表示領域の南西端と北東端を返す。
func (r Region) Bounds() (southWest, northEast Coordinates) {
	halfLat := r.LatitudeDelta / 2
	halfLon := r.LongitudeDelta / 2
	southWest = Coordinates{Latitude: r.Latitude - halfLat, Longitude: r.Longitude - halfLon}
	northEast = Coordinates{Latitude: r.Latitude + halfLat, Longitude: r.Longitude + halfLon}
	return southWest, northEast
}
