package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lixenwraith/voiceloop/engine"
	"github.com/lixenwraith/voiceloop/status"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testAPI struct {
	h      *engine.TestHarness
	router *gin.Engine
	server *Server
}

func newTestAPI(t *testing.T, opts Options) *testAPI {
	t.Helper()
	h := engine.NewTestHarness(4)
	t.Cleanup(h.Engine.Close)
	opts.Engine = h.Engine
	router, server := NewRouter(opts)
	return &testAPI{h: h, router: router, server: server}
}

func (a *testAPI) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decodePad(t *testing.T, w *httptest.ResponseRecorder) engine.PadState {
	t.Helper()
	var st engine.PadState
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("Expected pad JSON, got %q: %v", w.Body.String(), err)
	}
	return st
}

func TestHealth(t *testing.T) {
	a := newTestAPI(t, Options{})
	for _, path := range []string{"/health", "/api/v1/health"} {
		w := a.do(t, http.MethodGet, path, "")
		if w.Code != http.StatusOK {
			t.Errorf("Expected 200 for %s, got %d", path, w.Code)
		}
	}
}

func TestListAndGetPads(t *testing.T) {
	a := newTestAPI(t, Options{})

	w := a.do(t, http.MethodGet, "/api/v1/pads", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var body struct {
		Pads []engine.PadState `json:"pads"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(body.Pads) != 4 || body.Pads[0].ID != "pad-1" {
		t.Errorf("Expected 4 pads in order, got %+v", body.Pads)
	}

	w = a.do(t, http.MethodGet, "/api/v1/pads/pad-2", "")
	if st := decodePad(t, w); st.ID != "pad-2" || st.HasAudio {
		t.Errorf("Expected empty pad-2, got %+v", st)
	}

	w = a.do(t, http.MethodGet, "/api/v1/pads/nope", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown pad, got %d", w.Code)
	}
}

func TestRecordAndTrigger(t *testing.T) {
	a := newTestAPI(t, Options{})

	w := a.do(t, http.MethodPost, "/api/v1/pads/pad-1/record", "")
	if st := decodePad(t, w); !st.IsRecording {
		t.Fatalf("Expected recording, got %+v", st)
	}
	w = a.do(t, http.MethodPost, "/api/v1/pads/pad-1/record", "")
	if st := decodePad(t, w); st.IsRecording || !st.HasAudio {
		t.Fatalf("Expected clip installed, got %+v", st)
	}

	w = a.do(t, http.MethodPost, "/api/v1/pads/pad-1/trigger", "")
	if st := decodePad(t, w); !st.IsPlaying {
		t.Errorf("Expected playing, got %+v", st)
	}
	w = a.do(t, http.MethodPost, "/api/v1/pads/pad-1/stop", "")
	if st := decodePad(t, w); st.IsPlaying {
		t.Errorf("Expected stopped, got %+v", st)
	}

	w = a.do(t, http.MethodPost, "/api/v1/pads/pad-1/trigger?mode=interval", "")
	if st := decodePad(t, w); !st.IsPlaying || st.PlaybackMode != engine.ModeInterval {
		t.Errorf("Expected INTERVAL playback, got %+v", st)
	}

	w = a.do(t, http.MethodPost, "/api/v1/pads/pad-1/trigger?mode=sideways", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad mode, got %d", w.Code)
	}
}

func TestRecordStopSurvivesClientHangup(t *testing.T) {
	a := newTestAPI(t, Options{})
	a.do(t, http.MethodPost, "/api/v1/pads/pad-1/record", "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/pads/pad-1/record", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	st, err := a.h.Engine.Pad("pad-1")
	if err != nil {
		t.Fatalf("Expected pad-1, got %v", err)
	}
	if st.IsRecording || !st.HasAudio {
		t.Errorf("Expected take kept after hangup, got %+v (status %d)", st, w.Code)
	}
}

func TestRecordCaptureUnavailable(t *testing.T) {
	a := newTestAPI(t, Options{})
	a.h.Input.Err = errors.New("permission denied")

	w := a.do(t, http.MethodPost, "/api/v1/pads/pad-1/record", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d: %s", w.Code, w.Body.String())
	}
}

func TestClearPad(t *testing.T) {
	a := newTestAPI(t, Options{})
	if err := a.h.Load("pad-3"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	w := a.do(t, http.MethodDelete, "/api/v1/pads/pad-3/audio", "")
	if st := decodePad(t, w); st.HasAudio {
		t.Errorf("Expected audio cleared, got %+v", st)
	}
}

func TestUpdatePad(t *testing.T) {
	a := newTestAPI(t, Options{})

	w := a.do(t, http.MethodPatch, "/api/v1/pads/pad-1", `{"volume": 9, "playbackMode": "loop", "label": "Kick"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	st := decodePad(t, w)
	if st.Volume != 1.5 || st.PlaybackMode != engine.ModeLoop || st.Label != "Kick" {
		t.Errorf("Expected clamped volume, LOOP and label, got %+v", st)
	}

	w = a.do(t, http.MethodPatch, "/api/v1/pads/pad-1", `{"playbackMode": "forever"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad mode, got %d", w.Code)
	}
	w = a.do(t, http.MethodPatch, "/api/v1/pads/pad-1", `{"volume": `)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad JSON, got %d", w.Code)
	}
}

func TestBPM(t *testing.T) {
	a := newTestAPI(t, Options{})

	w := a.do(t, http.MethodPut, "/api/v1/bpm", `{"bpm": 300}`)
	var body struct {
		BPM int `json:"bpm"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body.BPM != 200 {
		t.Errorf("Expected clamped bpm 200, got %d", body.BPM)
	}

	w = a.do(t, http.MethodGet, "/api/v1/bpm", "")
	json.Unmarshal(w.Body.Bytes(), &body)
	if body.BPM != 200 {
		t.Errorf("Expected stored bpm 200, got %d", body.BPM)
	}

	w = a.do(t, http.MethodPut, "/api/v1/bpm", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing bpm, got %d", w.Code)
	}
}

func TestMasterRecordAndVolume(t *testing.T) {
	a := newTestAPI(t, Options{})

	w := a.do(t, http.MethodPost, "/api/v1/master/record", "")
	var view map[string]any
	json.Unmarshal(w.Body.Bytes(), &view)
	if view["recording"] != true {
		t.Fatalf("Expected master recording, got %v", view)
	}

	w = a.do(t, http.MethodPost, "/api/v1/master/record", "")
	view = nil
	json.Unmarshal(w.Body.Bytes(), &view)
	if view["recording"] != false || view["artifact"] != "voiceloop-mix-1735689600000.wav" {
		t.Errorf("Expected finished recording with artifact, got %v", view)
	}

	w = a.do(t, http.MethodPut, "/api/v1/master/volume", `{"volume": 0.25}`)
	view = nil
	json.Unmarshal(w.Body.Bytes(), &view)
	if view["volume"] != 0.25 {
		t.Errorf("Expected volume 0.25, got %v", view["volume"])
	}
}

func TestStopAll(t *testing.T) {
	a := newTestAPI(t, Options{})
	a.h.Load("pad-1")
	a.do(t, http.MethodPost, "/api/v1/pads/pad-1/trigger?mode=LOOP", "")
	a.do(t, http.MethodPost, "/api/v1/pads/pad-2/record", "")

	w := a.do(t, http.MethodPost, "/api/v1/stop", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	for _, st := range a.h.Engine.Snapshot() {
		if st.IsPlaying || st.IsRecording {
			t.Errorf("Expected %s idle, got %+v", st.ID, st)
		}
	}
}

func TestStatusIncludesReport(t *testing.T) {
	a := newTestAPI(t, Options{
		Report: func(reg *status.Registry) {
			reg.Strings.Get("output.backend").Store("none")
		},
	})
	a.h.Load("pad-1")
	a.do(t, http.MethodPost, "/api/v1/pads/pad-1/trigger", "")

	w := a.do(t, http.MethodGet, "/api/v1/status", "")
	var snap map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if snap["output.backend"] != "none" {
		t.Errorf("Expected reported backend, got %v", snap["output.backend"])
	}
	if snap["engine.triggers"] != float64(1) {
		t.Errorf("Expected 1 trigger, got %v", snap["engine.triggers"])
	}
}

func TestSaveBank(t *testing.T) {
	a := newTestAPI(t, Options{})
	if w := a.do(t, http.MethodPost, "/api/v1/bank", ""); w.Code != http.StatusNotImplemented {
		t.Errorf("Expected 501 without saver, got %d", w.Code)
	}

	saved := 0
	b := newTestAPI(t, Options{SaveBank: func() error { saved++; return nil }})
	if w := b.do(t, http.MethodPost, "/api/v1/bank", ""); w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
	if saved != 1 {
		t.Errorf("Expected saver called once, got %d", saved)
	}
}

func TestCORSPreflight(t *testing.T) {
	a := newTestAPI(t, Options{})
	w := a.do(t, http.MethodOptions, "/api/v1/pads", "")
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected 204 for preflight, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected CORS header")
	}
}

func TestEventsStream(t *testing.T) {
	h := engine.NewTestHarness(2)
	defer h.Engine.Close()
	feed := engine.NewFeed(h.Engine.Changes())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	feed.Start(ctx)

	router, _ := NewRouter(Options{Engine: h.Engine, Feed: feed})
	srv := httptest.NewServer(router)
	defer srv.Close()

	// Headers are flushed with the first event, so publish once subscribed
	go func() {
		deadline := time.Now().Add(2 * time.Second)
		for feed.Subscribers() == 0 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		h.Engine.SetBPM(90)
	}()

	reqCtx, reqCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer reqCancel()
	req, _ := http.NewRequestWithContext(reqCtx, http.MethodGet, srv.URL+"/api/v1/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		if line := scanner.Text(); strings.HasPrefix(line, "event:") {
			if strings.TrimSpace(strings.TrimPrefix(line, "event:")) != "master" {
				t.Errorf("Expected master event, got %q", line)
			}
			return
		}
	}
	t.Fatalf("Expected an event before stream ended: %v", scanner.Err())
}

func TestEventsDisabled(t *testing.T) {
	a := newTestAPI(t, Options{})
	if w := a.do(t, http.MethodGet, "/api/v1/events", ""); w.Code != http.StatusNotImplemented {
		t.Errorf("Expected 501 without feed, got %d", w.Code)
	}
}

func TestServiceLifecycle(t *testing.T) {
	h := engine.NewTestHarness(1)
	defer h.Engine.Close()

	svc := NewService(Options{Engine: h.Engine}, "127.0.0.1:0")
	if err := svc.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := svc.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer gin.SetMode(gin.TestMode)

	resp, err := http.Get("http://" + svc.Addr() + "/health")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}

	reg := status.NewRegistry()
	svc.Report(reg)
	if reg.Ints.Get("api.requests").Load() != 1 {
		t.Errorf("Expected 1 request counted, got %d", reg.Ints.Get("api.requests").Load())
	}

	if err := svc.Stop(); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
	if err := svc.Stop(); err != nil {
		t.Errorf("Second stop failed: %v", err)
	}
}
