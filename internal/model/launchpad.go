package model

// Launchpad は打ち上げ施設（launch site）を表す。
// 詳細画面の表示中のみ保持し、永続化しない。
type Launchpad struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Locality  string  `json:"locality"`
	Region    string  `json:"region"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Details   string  `json:"details"`
}

// Coordinates は施設の座標を返す。
func (p Launchpad) Coordinates() Coordinates {
	return Coordinates{Latitude: p.Latitude, Longitude: p.Longitude}
}
