package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/launchdeck/internal/boundary"
	"github.com/hitoshi/launchdeck/internal/config"
	"github.com/hitoshi/launchdeck/internal/detail"
	"github.com/hitoshi/launchdeck/internal/directory"
	"github.com/hitoshi/launchdeck/internal/geo"
	"github.com/hitoshi/launchdeck/internal/handler"
	"github.com/hitoshi/launchdeck/internal/location"
	"github.com/hitoshi/launchdeck/internal/logger"
	"github.com/hitoshi/launchdeck/internal/metrics"
	"github.com/hitoshi/launchdeck/internal/middleware"
	"github.com/hitoshi/launchdeck/internal/model"
	"github.com/hitoshi/launchdeck/internal/security"
	"github.com/hitoshi/launchdeck/internal/spacex"
)

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップし、環境変数からConfigを読み込む。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, logger.ParseLevel(os.Getenv("LOG_LEVEL")))

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。serve のログと list の表示はwに書き込む。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	logOut := w
	if cmd == CommandList {
		// 一覧表示とJSONログが混ざらないようにする
		logOut = os.Stderr
	}
	cfg, err := Init(logOut)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("spacex_api_url", cfg.SpaceXAPIURL),
	)

	switch cmd {
	case CommandList:
		return runList(context.Background(), cfg, w, listQuery(args))
	default:
		return runServe(cfg)
	}
}

// newSpaceXClient はSpaceX APIクライアントを生成する。
// APIのURLがSSRFガードの検証を通る場合は安全なHTTPクライアントを使い、
// ローカルのモックサーバーなど検証を通らない場合は警告を出して通常のクライアントを使う。
func newSpaceXClient(cfg *config.Config, log *slog.Logger, m metrics.MetricsCollector) *spacex.Client {
	// 接続先はSpaceX APIのホストに限定する
	var guard security.SSRFGuardService = security.NewSSRFGuard()
	if u, err := url.Parse(cfg.SpaceXAPIURL); err == nil {
		guard = security.NewSSRFGuard(u.Hostname())
	}

	httpClient := guard.NewSafeClient(cfg.FetchTimeout, cfg.FetchMaxSize)
	if err := guard.ValidateURL(cfg.SpaceXAPIURL); err != nil {
		log.Warn("SpaceX API URL is not public, SSRF guard disabled",
			slog.String("spacex_api_url", cfg.SpaceXAPIURL),
			slog.String("error", err.Error()),
		)
		httpClient = &http.Client{Timeout: cfg.FetchTimeout}
	}

	return spacex.NewClient(httpClient, log,
		spacex.WithBaseURL(cfg.SpaceXAPIURL),
		spacex.WithLaunchLimit(cfg.LaunchQueryLimit),
		spacex.WithMaxBodySize(cfg.FetchMaxSize),
		spacex.WithMetrics(m),
	)
}

// fallbackLocation はリクエストで位置情報が指定されなかった場合のProviderを返す。
func fallbackLocation(cfg *config.Config) location.Provider {
	if !cfg.HasLocation {
		return location.Denied{}
	}
	fixed, err := location.NewFixed(model.Coordinates{Latitude: cfg.LocationLat, Longitude: cfg.LocationLon})
	if err != nil {
		return location.Denied{}
	}
	return fixed
}

// buildRouter は全依存関係をワイヤリングしてルーターを構築する。
// 返り値のstopはレート制限のクリーンアップを停止する。
func buildRouter(cfg *config.Config, log *slog.Logger, reg *prometheus.Registry) (http.Handler, func()) {
	// 1. メトリクス
	collector := metrics.NewCollector(reg)

	// 2. 外部API
	client := newSpaceXClient(cfg, log, collector)

	// 3. 画面の状態管理
	dir := directory.New(client, log, collector)
	mapSize := geo.MapSize{Width: cfg.MapWidth, Height: cfg.MapHeight}
	loader := detail.NewLoader(client, log, geo.UniformPadding(cfg.MapEdgePadding), mapSize)

	// 4. ミドルウェア
	rateLimiter := middleware.NewRateLimiter(middleware.RefreshRateLimiterConfig(cfg.RateLimitRefresh), log)
	b := boundary.New(boundary.SlogReporter{Logger: log, Metrics: collector})

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            log,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Boundary:          b,
		Directory:         dir,
		Details:           loader,
		Location:          fallbackLocation(cfg),
		MapSize:           mapSize,
		Sanitizer:         security.NewContentSanitizer(),
		Guard:             security.NewSSRFGuard(),
		Metrics:           metrics.Handler(reg),
	})

	return router, rateLimiter.Stop
}

// runServe はWebサーバーモードで起動する。
// 全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	router, stopLimiter := buildRouter(cfg, slog.Default(), reg)
	defer stopLimiter()

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.FetchTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("web server starting",
			slog.String("addr", server.Addr),
			slog.Bool("has_location", cfg.HasLocation),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down web server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("web server stopped gracefully")
	return nil
}

// runList は打ち上げ一覧を1回取得し、検索語で絞り込んでwに表示する。
func runList(ctx context.Context, cfg *config.Config, w io.Writer, query string) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.FetchTimeout)
	defer cancel()

	log := slog.Default()
	dir := directory.New(newSpaceXClient(cfg, log, metrics.NopCollector{}), log, nil)
	if err := dir.Activate(ctx); err != nil {
		return fmt.Errorf("failed to fetch launches: %w", err)
	}
	dir.SetSearch(strings.TrimSpace(query))

	snap := dir.Snapshot()
	total := 0
	if launches, ok := snap.State.Data(); ok {
		total = len(launches)
	}
	printLaunches(w, snap.Filtered, total, snap.Search)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	target := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(target)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
