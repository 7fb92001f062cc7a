package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordTransition(t *testing.T) {
	initial := testutil.ToFloat64(lifecycleTransitions.WithLabelValues("running", "terminating"))

	RecordTransition("running", "terminating", 4)

	got := testutil.ToFloat64(lifecycleTransitions.WithLabelValues("running", "terminating"))
	if got != initial+1 {
		t.Errorf("transitions = %f, want %f", got, initial+1)
	}
	if state := testutil.ToFloat64(lifecycleState); state != 4 {
		t.Errorf("state gauge = %f, want 4", state)
	}
}

func TestRecordReload_MultipleIncrements(t *testing.T) {
	initial := testutil.ToFloat64(lifecycleReloads)

	for i := 0; i < 3; i++ {
		RecordReload()
	}

	if got := testutil.ToFloat64(lifecycleReloads); got != initial+3 {
		t.Errorf("reloads = %f, want %f", got, initial+3)
	}
}

func TestRecordWorkerExit(t *testing.T) {
	RecordWorkerExit(70)
	if got := testutil.ToFloat64(workerExitCode); got != 70 {
		t.Errorf("worker exit code = %f, want 70", got)
	}
}

func TestRecordLogReopen(t *testing.T) {
	initial := testutil.ToFloat64(logReopens.WithLabelValues("swarm"))
	RecordLogReopen("swarm")
	if got := testutil.ToFloat64(logReopens.WithLabelValues("swarm")); got != initial+1 {
		t.Errorf("reopens = %f, want %f", got, initial+1)
	}
}

func TestHandler_ServesCollectors(t *testing.T) {
	RecordOptionCallback("config")
	RecordWorkerPanic()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, name := range []string{"swarm_option_callbacks_total", "swarm_worker_panics_total", "swarm_lifecycle_state"} {
		if !strings.Contains(body, name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
}
