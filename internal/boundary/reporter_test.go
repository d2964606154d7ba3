package boundary

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// faultCounter はRecordRenderFaultの呼び出し回数だけを数えるMetricsCollector。
type faultCounter struct {
	faults int
}

func (c *faultCounter) RecordFetchSuccess(string)                {}
func (c *faultCounter) RecordFetchFailure(string, string)        {}
func (c *faultCounter) RecordHTTPStatus(string, int)             {}
func (c *faultCounter) RecordFetchLatency(string, time.Duration) {}
func (c *faultCounter) RecordLaunchesLoaded(int)                 {}
func (c *faultCounter) RecordRenderFault()                       { c.faults++ }

// TestSlogReporter は障害がログとメトリクスに記録されることを検証する。
func TestSlogReporter(t *testing.T) {
	var buf bytes.Buffer
	counter := &faultCounter{}
	r := SlogReporter{
		Logger:  slog.New(slog.NewJSONHandler(&buf, nil)),
		Metrics: counter,
	}

	r.Report(errors.New("boom"), Info{FaultID: "f-1", Method: "GET", Path: "/", Stack: "goroutine 1"})

	out := buf.String()
	for _, want := range []string{`"msg":"Rendering fault"`, `"fault_id":"f-1"`, `"error":"boom"`, `"path":"/"`} {
		if !strings.Contains(out, want) {
			t.Errorf("ログに %s が含まれていない: %s", want, out)
		}
	}
	if counter.faults != 1 {
		t.Errorf("RecordRenderFault 回数 = %d, want 1", counter.faults)
	}
}

// TestReporterFunc は関数アダプターが呼ばれることを検証する。
func TestReporterFunc(t *testing.T) {
	called := false
	var r Reporter = ReporterFunc(func(err error, info Info) { called = true })
	r.Report(errors.New("x"), Info{})
	if !called {
		t.Error("ReporterFunc が呼ばれていない")
	}
}
