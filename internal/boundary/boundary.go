// Package boundary は画面描画中の障害を閉じ込め、回復画面を表示する仕組みを提供する。
//
// Boundary は Normal と Faulted の2状態を持つ。ラップしたハンドラーがpanicすると
// Faulted に遷移して Reporter に1度だけ通知し、Reset されるまで回復画面を表示し続ける。
package boundary

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"

	"github.com/hitoshi/launchdeck/internal/metrics"
)

// Info は障害発生時の付随情報。
type Info struct {
	FaultID string
	Method  string
	Path    string
	Stack   string
}

// Reporter は障害の通知先。Faulted への遷移ごとに1度だけ呼ばれる。
type Reporter interface {
	Report(err error, info Info)
}

// ReporterFunc は関数をReporterとして扱うためのアダプター。
type ReporterFunc func(err error, info Info)

// Report はReporterインターフェースを実装する。
func (f ReporterFunc) Report(err error, info Info) { f(err, info) }

// SlogReporter は障害をslogに記録し、メトリクスを加算するReporter。
type SlogReporter struct {
	Logger  *slog.Logger
	Metrics metrics.MetricsCollector
}

// Report はReporterインターフェースを実装する。
func (r SlogReporter) Report(err error, info Info) {
	r.Logger.Error("Rendering fault",
		slog.String("fault_id", info.FaultID),
		slog.String("error", err.Error()),
		slog.String("method", info.Method),
		slog.String("path", info.Path),
		slog.String("stack", info.Stack),
	)
	if r.Metrics != nil {
		r.Metrics.RecordRenderFault()
	}
}

// PanicError はpanicの値をerrorとして表す。
type PanicError struct {
	Value any
}

// Error はerrorインターフェースを実装する。
func (e *PanicError) Error() string {
	if err, ok := e.Value.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(e.Value)
}

// Unwrap はpanicの値がerrorであればそれを返す。
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// Boundary は障害の閉じ込め状態を保持する。複数のゴルーチンから安全に使える。
type Boundary struct {
	reporter Reporter

	mu    sync.RWMutex
	fault error
	info  Info
}

// New はNormal状態のBoundaryを生成する。
func New(reporter Reporter) *Boundary {
	return &Boundary{reporter: reporter}
}

// Faulted は障害状態かどうかを返す。
func (b *Boundary) Faulted() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.fault != nil
}

// Fault は捕捉した障害と付随情報を返す。Normal状態ではerrがnil。
func (b *Boundary) Fault() (Info, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.info, b.fault
}

// Reset は障害を破棄してNormal状態に戻す。
func (b *Boundary) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fault = nil
	b.info = Info{}
}

// trip はNormalからFaultedへ遷移させる。既にFaultedなら何もせずfalseを返す。
func (b *Boundary) trip(err error, info Info) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fault != nil {
		return false
	}
	b.fault = err
	b.info = info
	return true
}

// Middleware はハンドラーを障害の閉じ込め範囲に含める。
// 出力はバッファに書き込み、正常終了した場合のみクライアントへ送るため、
// 障害時に描画途中の内容が漏れることはない。
func (b *Boundary) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if b.Faulted() {
			b.renderRecovery(w, r)
			return
		}

		buf := newBufferedWriter()
		if ok := b.serve(next, buf, r); !ok {
			b.renderRecovery(w, r)
			return
		}
		buf.flushTo(w)
	})
}

// serve はハンドラーを実行し、panicした場合はFaultedへ遷移させてfalseを返す。
func (b *Boundary) serve(next http.Handler, w http.ResponseWriter, r *http.Request) (ok bool) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		if rec == http.ErrAbortHandler {
			panic(rec)
		}

		err := error(&PanicError{Value: rec})
		info := Info{
			FaultID: uuid.NewString(),
			Method:  r.Method,
			Path:    r.URL.Path,
			Stack:   string(debug.Stack()),
		}
		if b.trip(err, info) && b.reporter != nil {
			b.reporter.Report(err, info)
		}
		ok = false
	}()

	next.ServeHTTP(w, r)
	return true
}

// ResetHandler は回復画面の "Try Again" から呼ばれ、Normalに戻して元の画面へリダイレクトする。
func (b *Boundary) ResetHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.Reset()
		http.Redirect(w, r, returnPath(r.FormValue("return")), http.StatusSeeOther)
	})
}

// returnPath はオープンリダイレクトを避けるため、同一オリジンの絶対パスのみを許可する。
func returnPath(p string) string {
	if len(p) == 0 || p[0] != '/' || (len(p) > 1 && (p[1] == '/' || p[1] == '\\')) {
		return "/"
	}
	return p
}

// bufferedWriter は描画結果を一時的に保持するResponseWriter。
type bufferedWriter struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newBufferedWriter() *bufferedWriter {
	return &bufferedWriter{header: make(http.Header)}
}

func (w *bufferedWriter) Header() http.Header { return w.header }

func (w *bufferedWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
}

func (w *bufferedWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.body.Write(p)
}

// flushTo はバッファの内容を実際のResponseWriterへ書き出す。
func (w *bufferedWriter) flushTo(dst http.ResponseWriter) {
	h := dst.Header()
	for k, v := range w.header {
		h[k] = v
	}
	status := w.status
	if status == 0 {
		status = http.StatusOK
	}
	dst.WriteHeader(status)
	_, _ = dst.Write(w.body.Bytes())
}
