package routes

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"p9e.in/eicr/config"
	"p9e.in/eicr/handlers"
	"p9e.in/eicr/models"
	"p9e.in/eicr/pkg/circuitstore"
	"p9e.in/eicr/pkg/schedule"
)

type testServer struct {
	handler   http.Handler
	exportDir string
	queue     *schedule.Queue
}

func newTestServer(t *testing.T, singleField bool) *testServer {
	t.Helper()
	s := newIdleTestServer(t, singleField)
	s.startQueue(t)
	return s
}

// newIdleTestServer builds a server whose deferred queue is not draining yet.
func newIdleTestServer(t *testing.T, singleField bool) *testServer {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, config.Migrations(db))

	queue := schedule.NewQueue(0, nil)
	dir := t.TempDir()
	h := handlers.NewScheduleHandler(circuitstore.New(db, nil), queue, nil, handlers.LocalExportStorage{Dir: dir}, nil)
	h.SingleField = singleField
	h.Now = func() time.Time { return time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC) }
	return &testServer{handler: RegisterRoutes(h, dir, nil), exportDir: dir, queue: queue}
}

func (s *testServer) startQueue(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.queue.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func (s *testServer) audits(t *testing.T, scheduleID string) []models.ScheduleAudit {
	t.Helper()
	rr := s.do(t, http.MethodGet, "/api/v1/schedules/"+scheduleID+"/audits", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp struct {
		Audits []models.ScheduleAudit `json:"audits"`
	}
	decode(t, rr, &resp)
	return resp.Audits
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), v), rr.Body.String())
}

func (s *testServer) createSchedule(t *testing.T, circuits ...map[string]string) (string, []string) {
	t.Helper()
	rr := s.do(t, http.MethodPost, "/api/v1/schedules", map[string]string{"name": "DB1", "location": "Garage"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var sched models.Schedule
	decode(t, rr, &sched)

	var ids []string
	for _, c := range circuits {
		rr := s.do(t, http.MethodPost, "/api/v1/schedules/"+sched.ID+"/circuits", c)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		var rec models.CircuitTestResult
		decode(t, rr, &rec)
		ids = append(ids, rec.ID)
	}
	return sched.ID, ids
}

type actionResponse struct {
	Result        schedule.BatchResult  `json:"result"`
	Notifications []models.Notification `json:"notifications"`
}

func TestEditDeviceFieldAutoFillsMaxZs(t *testing.T) {
	s := newTestServer(t, false)
	id, circuits := s.createSchedule(t, map[string]string{
		"circuitDesignation":     "1",
		"protectiveDeviceCurve":  "B",
		"protectiveDeviceRating": "32",
	})

	rr := s.do(t, http.MethodPatch, "/api/v1/schedules/"+id+"/circuits/"+circuits[0],
		map[string]string{"field": "bsStandard", "value": "BS EN 60898"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		Circuit struct {
			models.CircuitTestResult
			BorderCue string `json:"borderCue"`
		} `json:"circuit"`
		Updates []schedule.FieldUpdate `json:"updates"`
	}
	decode(t, rr, &resp)
	require.Len(t, resp.Updates, 2)
	assert.Equal(t, models.FieldBSStandard, resp.Updates[0].Field)
	assert.Equal(t, schedule.FieldUpdate{ID: circuits[0], Field: models.FieldMaxZs, Value: "1.44"}, resp.Updates[1])
	assert.Equal(t, "1.44", resp.Circuit.MaxZs)
	assert.Equal(t, "none", resp.Circuit.BorderCue)
}

func TestEditRejectsBadFields(t *testing.T) {
	s := newTestServer(t, false)
	id, circuits := s.createSchedule(t, map[string]string{"circuitDesignation": "1"})
	path := "/api/v1/schedules/" + id + "/circuits/" + circuits[0]

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPatch, path, map[string]string{"field": "id", "value": "x"}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPatch, path, map[string]string{"field": "colour", "value": "x"}).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPatch, "/api/v1/schedules/"+id+"/circuits/missing",
		map[string]string{"field": "notes", "value": "x"}).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPatch, "/api/v1/schedules/missing/circuits/"+circuits[0],
		map[string]string{"field": "notes", "value": "x"}).Code)
}

func TestRingContinuity(t *testing.T) {
	s := newTestServer(t, false)
	id, circuits := s.createSchedule(t,
		map[string]string{"circuitDesignation": "1", "ringR1": "0.30", "ringR2": "0.18"},
		map[string]string{"circuitDesignation": "2", "ringR1": "0.30"},
	)

	rr := s.do(t, http.MethodPost, "/api/v1/schedules/"+id+"/circuits/"+circuits[0]+"/ring-continuity", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var ok struct {
		Result        schedule.RingContinuityResult `json:"result"`
		Notifications []models.Notification         `json:"notifications"`
	}
	decode(t, rr, &ok)
	assert.Equal(t, "0.120", ok.Result.Value)
	require.Len(t, ok.Notifications, 1)
	assert.Equal(t, "R1+R2 = 0.120 Ω", ok.Notifications[0].Description)

	rr = s.do(t, http.MethodPost, "/api/v1/schedules/"+id+"/circuits/"+circuits[1]+"/ring-continuity", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var missing struct {
		Result        schedule.RingContinuityResult `json:"result"`
		Notifications []models.Notification         `json:"notifications"`
	}
	decode(t, rr, &missing)
	assert.False(t, missing.Result.Computed)
	require.Len(t, missing.Notifications, 1)
	assert.Equal(t, models.NotificationVariantWarning, missing.Notifications[0].Variant)
}

func TestBulkFillPaths(t *testing.T) {
	tests := []struct {
		name        string
		singleField bool
		path        schedule.BatchPath
	}{
		{"atomic", false, schedule.PathAtomic},
		{"deferred", true, schedule.PathDeferred},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.singleField)
			id, circuits := s.createSchedule(t,
				map[string]string{"circuitDesignation": "1"},
				map[string]string{"circuitDesignation": "2"},
			)

			rr := s.do(t, http.MethodPost, "/api/v1/schedules/"+id+"/bulk/rcd-type", map[string]string{"value": "A"})
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
			var resp actionResponse
			decode(t, rr, &resp)
			assert.Equal(t, tt.path, resp.Result.Path)
			assert.Equal(t, 2, resp.Result.Applied)
			require.Len(t, resp.Notifications, 1)
			assert.Equal(t, "All circuits set to Type A", resp.Notifications[0].Description)

			assert.Equal(t, circuits, resp.Result.CircuitIDs)

			rr = s.do(t, http.MethodGet, "/api/v1/schedules/"+id, nil)
			var sched struct {
				Circuits []models.CircuitTestResult `json:"circuits"`
			}
			decode(t, rr, &sched)
			for _, c := range sched.Circuits {
				assert.Equal(t, "A", c.RCDType)
			}

			audits := s.audits(t, id)
			require.Len(t, audits, 1)
			assert.Equal(t, string(tt.path), audits[0].Path)
			var ids []string
			require.NoError(t, json.Unmarshal(audits[0].CircuitIDs, &ids))
			assert.Equal(t, circuits, ids)
		})
	}
}

func TestBulkFillPassMark(t *testing.T) {
	s := newTestServer(t, false)
	id, _ := s.createSchedule(t, map[string]string{"circuitDesignation": "1"})

	rr := s.do(t, http.MethodPost, "/api/v1/schedules/"+id+"/bulk/afdd-test", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp actionResponse
	decode(t, rr, &resp)
	require.Len(t, resp.Notifications, 1)
	assert.Equal(t, "All 1 circuit marked as pass", resp.Notifications[0].Description)

	// A chunked request with no body carries no length.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/schedules/"+id+"/bulk/rcd-test-button", io.MultiReader())
	require.EqualValues(t, -1, req.ContentLength)
	chunked := httptest.NewRecorder()
	s.handler.ServeHTTP(chunked, req)
	require.Equal(t, http.StatusOK, chunked.Code, chunked.Body.String())

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/api/v1/schedules/"+id+"/bulk/zs", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/v1/schedules/"+id+"/bulk/rcd-type", map[string]string{}).Code)
}

func TestBulkFillAuditedAfterClientLeaves(t *testing.T) {
	s := newIdleTestServer(t, true)
	id, circuits := s.createSchedule(t,
		map[string]string{"circuitDesignation": "1"},
		map[string]string{"circuitDesignation": "2"},
	)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/schedules/"+id+"/bulk/rcd-type", strings.NewReader(`{"value":"AC"}`)).WithContext(ctx)
	served := make(chan struct{})
	go func() {
		defer close(served)
		s.handler.ServeHTTP(httptest.NewRecorder(), req)
	}()

	require.Eventually(t, func() bool { return s.queue.Len() == len(circuits) }, 5*time.Second, time.Millisecond)
	cancel()
	<-served
	assert.Empty(t, s.audits(t, id))

	s.startQueue(t)
	require.Eventually(t, func() bool { return len(s.audits(t, id)) == 1 }, 5*time.Second, 5*time.Millisecond)

	audit := s.audits(t, id)[0]
	assert.Equal(t, string(schedule.PathDeferred), audit.Path)
	assert.Equal(t, 2, audit.Applied)
	var ids []string
	require.NoError(t, json.Unmarshal(audit.CircuitIDs, &ids))
	assert.Equal(t, circuits, ids)
}

func TestApplyPreset(t *testing.T) {
	for _, singleField := range []bool{false, true} {
		s := newTestServer(t, singleField)
		id, circuits := s.createSchedule(t,
			map[string]string{"circuitDesignation": "1"},
			map[string]string{"circuitDesignation": "2"},
			map[string]string{"circuitDesignation": "3"},
		)
		preset := models.DefaultRCDPresets[0]

		rr := s.do(t, http.MethodPost, "/api/v1/schedules/"+id+"/presets/apply", map[string]interface{}{
			"circuitIds":  circuits[:2],
			"presetLabel": preset.Label,
		})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var resp actionResponse
		decode(t, rr, &resp)
		assert.Equal(t, 2, resp.Result.Applied)
		require.Len(t, resp.Notifications, 1)
		assert.Equal(t, preset.Label+" applied to 2 circuits", resp.Notifications[0].Description)

		rr = s.do(t, http.MethodGet, "/api/v1/schedules/"+id+"/audits", nil)
		var audits struct {
			Audits []models.ScheduleAudit `json:"audits"`
		}
		decode(t, rr, &audits)
		require.Len(t, audits.Audits, 1)
		assert.Equal(t, preset.Label, audits.Audits[0].Label)
	}
}

func TestApplyPresetRejections(t *testing.T) {
	s := newTestServer(t, false)
	id, circuits := s.createSchedule(t, map[string]string{"circuitDesignation": "1"})
	path := "/api/v1/schedules/" + id + "/presets/apply"

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, path, map[string]interface{}{
		"circuitIds": circuits, "presetLabel": "nope",
	}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, path, map[string]interface{}{
		"circuitIds": circuits, "preset": models.RCDPreset{Label: "odd", Rating: "25"},
	}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, path, map[string]interface{}{
		"circuitIds": circuits,
	}).Code)
}

func TestDeleteCircuit(t *testing.T) {
	s := newTestServer(t, false)
	id, circuits := s.createSchedule(t, map[string]string{"circuitDesignation": "1"})
	path := "/api/v1/schedules/" + id + "/circuits/" + circuits[0]

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, path, nil).Code)
}

func TestExports(t *testing.T) {
	s := newTestServer(t, false)
	id, _ := s.createSchedule(t,
		map[string]string{"circuitDesignation": "1", "circuitDescription": "Lights"},
		map[string]string{"circuitDesignation": "2", "circuitDescription": "Sockets"},
	)

	rr := s.do(t, http.MethodGet, "/api/v1/schedules/"+id+"/export.csv", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "DB1_20260901_100000.csv")
	rows, err := csv.NewReader(rr.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"1", "Lights"}, rows[1][:2])

	rr = s.do(t, http.MethodGet, "/api/v1/schedules/"+id+"/export.xlsx", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rr.Header().Get("Content-Type"))

	rr = s.do(t, http.MethodPost, "/api/v1/schedules/"+id+"/exports", nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var stored map[string]string
	decode(t, rr, &stored)
	_, err = os.Stat(filepath.Join(s.exportDir, stored["filename"]))
	require.NoError(t, err)

	rr = s.do(t, http.MethodGet, stored["url"], nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestOptionsAndPresets(t *testing.T) {
	s := newTestServer(t, false)

	rr := s.do(t, http.MethodGet, "/api/v1/options", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = s.do(t, http.MethodGet, "/api/v1/presets", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var presets struct {
		Presets []models.RCDPreset `json:"presets"`
	}
	decode(t, rr, &presets)
	assert.Equal(t, models.DefaultRCDPresets, presets.Presets)

	rr = s.do(t, http.MethodOptions, "/api/v1/schedules", nil)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}
