package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveBuildDuration(500 * time.Millisecond)
	pr.IncBuildOutcome(BuildOutcomeSuccess)
	pr.ObserveRuleDuration("posts", 150*time.Millisecond)
	pr.IncRuleResult("posts", ResultSuccess)
	pr.AddDocuments("posts", 4)
	pr.AddCopied(2)
	pr.IncMetadataWarning()
	pr.IncRebuildRequest("watch")
	pr.SetLiveReloadClients(3)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				values[mf.GetName()] += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				values[mf.GetName()] = m.GetGauge().GetValue()
			}
		}
	}
	require.InDelta(t, 4, values["sitebuilder_documents_written_total"], 0)
	require.InDelta(t, 2, values["sitebuilder_files_copied_total"], 0)
	require.InDelta(t, 1, values["sitebuilder_metadata_warnings_total"], 0)
	require.InDelta(t, 3, values["sitebuilder_livereload_clients"], 0)
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncBuildOutcome(BuildOutcomeWarning)

	srv := httptest.NewServer(HTTPHandler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `sitebuilder_build_outcomes_total{outcome="warning"} 1`)
}
