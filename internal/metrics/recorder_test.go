package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestNoopRecorderIsSafe(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveStageDuration("scan", time.Second)
	r.ObserveBuildDuration(time.Second)
	r.IncStageResult("scan", ResultSuccess)
	r.IncBuildOutcome("success")
	r.SetDocumentCount(5)
	r.SetFindingCount(0)
}

func TestPrometheusRecorderExposition(t *testing.T) {
	reg := prom.NewRegistry()
	rec := NewPrometheusRecorder(reg)

	rec.ObserveStageDuration("resolve", 120*time.Millisecond)
	rec.ObserveBuildDuration(time.Second)
	rec.IncStageResult("resolve", ResultSuccess)
	rec.IncBuildOutcome("success")
	rec.SetDocumentCount(7)
	rec.SetFindingCount(2)

	srv := httptest.NewServer(rec.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := string(body)
	require.Contains(t, out, "tocbuilder_documents 7")
	require.Contains(t, out, "tocbuilder_findings 2")
	require.Contains(t, out, `tocbuilder_stage_results_total{result="success",stage="resolve"} 1`)
}
