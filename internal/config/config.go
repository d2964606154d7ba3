package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// SpaceX API
	SpaceXAPIURL     string
	LaunchQueryLimit int

	// Fetch
	FetchTimeout time.Duration
	FetchMaxSize int64

	// Location（未設定の場合は位置情報の許可なしとして扱う）
	HasLocation bool
	LocationLat float64
	LocationLon float64

	// Map
	MapWidth       int
	MapHeight      int
	MapEdgePadding int

	// Rate Limit（req/min）
	RateLimitRefresh int

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string

	// Logging
	LogLevel string
}

// Load は環境変数からConfigを読み込む。
// 値が不正な場合や、LOCATION_LAT/LOCATION_LON の片方のみが設定されている場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.SpaceXAPIURL = strings.TrimRight(getEnvString("SPACEX_API_URL", "https://api.spacexdata.com"), "/")
	cfg.LaunchQueryLimit = getEnvInt("LAUNCH_QUERY_LIMIT", 1000)
	cfg.FetchTimeout = getEnvDuration("FETCH_TIMEOUT", 10*time.Second)
	cfg.FetchMaxSize = getEnvInt64("FETCH_MAX_SIZE", 16*1024*1024)
	cfg.MapWidth = getEnvInt("MAP_WIDTH", 390)
	cfg.MapHeight = getEnvInt("MAP_HEIGHT", 600)
	cfg.MapEdgePadding = getEnvInt("MAP_EDGE_PADDING", 50)
	cfg.RateLimitRefresh = getEnvInt("RATE_LIMIT_REFRESH", 30)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:8080")
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")

	var invalid []string

	if !strings.HasPrefix(cfg.SpaceXAPIURL, "http://") && !strings.HasPrefix(cfg.SpaceXAPIURL, "https://") {
		invalid = append(invalid, "SPACEX_API_URL")
	}
	if cfg.LaunchQueryLimit <= 0 {
		invalid = append(invalid, "LAUNCH_QUERY_LIMIT")
	}
	if cfg.MapEdgePadding < 0 || cfg.MapWidth <= 2*cfg.MapEdgePadding || cfg.MapHeight <= 2*cfg.MapEdgePadding {
		invalid = append(invalid, "MAP_WIDTH/MAP_HEIGHT/MAP_EDGE_PADDING")
	}

	// 位置情報は緯度経度の両方が揃っている場合のみ有効
	latRaw := os.Getenv("LOCATION_LAT")
	lonRaw := os.Getenv("LOCATION_LON")
	switch {
	case latRaw == "" && lonRaw == "":
		cfg.HasLocation = false
	case latRaw == "" || lonRaw == "":
		invalid = append(invalid, "LOCATION_LAT/LOCATION_LON")
	default:
		lat, latErr := strconv.ParseFloat(latRaw, 64)
		lon, lonErr := strconv.ParseFloat(lonRaw, 64)
		if latErr != nil || lonErr != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			invalid = append(invalid, "LOCATION_LAT/LOCATION_LON")
			break
		}
		cfg.HasLocation = true
		cfg.LocationLat = lat
		cfg.LocationLon = lon
	}

	if len(invalid) > 0 {
		return nil, fmt.Errorf("invalid environment variables: %v", invalid)
	}

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
