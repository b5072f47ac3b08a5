package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image/color"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"

	"github.com/matzehuels/campaignkit/pkg/archive"
	"github.com/matzehuels/campaignkit/pkg/design"
	"github.com/matzehuels/campaignkit/pkg/effects"
	"github.com/matzehuels/campaignkit/pkg/errors"
	"github.com/matzehuels/campaignkit/pkg/recipient"
	"github.com/matzehuels/campaignkit/pkg/studio"
)

func newTestServer(t *testing.T) (*httptest.Server, *effects.LogNavigator) {
	t.Helper()
	logger := log.New(io.Discard)
	nav := effects.NewLogNavigator(logger)
	st, err := studio.New(context.Background(), studio.Options{
		Settings: design.DefaultSettings(),
		Archive:  archive.NewMemoryArchive(),
		Registry: recipient.NewMemoryRegistry(
			recipient.Recipient{ID: "a", DisplayName: "Ada", Email: "ada@example.com", Phone: "+15550101", Status: "VIP"},
			recipient.Recipient{ID: "b", DisplayName: "Bo", Phone: "+15550102", Status: "LEAD"},
		),
		Navigator: nav,
		Logger:    logger,
	})
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(New(st, logger).Routes())
	t.Cleanup(func() {
		srv.Close()
		st.Close()
	})
	return srv, nav
}

func do(t *testing.T, srv *httptest.Server, method, path, contentType string, body []byte) *http.Response {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	req, err := http.NewRequestWithContext(ctx, method, srv.URL+path, bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func doJSON(t *testing.T, srv *httptest.Server, method, path string, in any, out any) int {
	t.Helper()
	var body []byte
	if in != nil {
		body, _ = json.Marshal(in)
	}
	resp := do(t, srv, method, path, "application/json", body)
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.New(w, h, color.NRGBA{200, 40, 40, 255}), imaging.PNG); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestStatusFor(t *testing.T) {
	tests := map[errors.Code]int{
		errors.ErrCodeInvalidSettings: 400,
		errors.ErrCodeMissingContact:  422,
		errors.ErrCodeNotFound:        404,
		errors.ErrCodeNotDispatching:  409,
		errors.ErrCodeAIService:       502,
		errors.ErrCodeStorage:         503,
		"":                            500,
	}
	for code, want := range tests {
		if got := statusFor(code); got != want {
			t.Errorf("statusFor(%q) = %d, want %d", code, got, want)
		}
	}
}

func TestDesignRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)

	var d designResponse
	if code := doJSON(t, srv, http.MethodGet, "/design", nil, &d); code != 200 {
		t.Fatalf("GET /design = %d", code)
	}
	if d.HasBase || d.Settings.Opacity != design.DefaultOpacity {
		t.Errorf("initial design = %+v", d)
	}

	s := d.Settings
	s.OverlayText = "Q4 Promo"
	s.Opacity = 73
	if code := doJSON(t, srv, http.MethodPut, "/design", s, &d); code != 200 {
		t.Fatalf("PUT /design = %d", code)
	}
	if d.Quality != 0.73 || d.Generation == 0 {
		t.Errorf("updated design = %+v", d)
	}

	s.Pattern = "plaid"
	var e errorResponse
	if code := doJSON(t, srv, http.MethodPut, "/design", s, &e); code != 400 || e.Code != errors.ErrCodeInvalidSettings {
		t.Errorf("bad pattern = %d %+v", code, e)
	}
}

func TestPreviewFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	var e errorResponse
	if code := doJSON(t, srv, http.MethodGet, "/preview", nil, &e); code != http.StatusConflict {
		t.Errorf("preview without base = %d", code)
	}

	resp := do(t, srv, http.MethodPut, "/design/base", "image/png", pngBytes(t, 300, 150))
	if resp.StatusCode != 200 {
		t.Fatalf("PUT /design/base = %d", resp.StatusCode)
	}

	resp = do(t, srv, http.MethodGet, "/preview", "", nil)
	if resp.StatusCode != 200 || resp.Header.Get("Content-Type") != "image/jpeg" {
		t.Fatalf("GET /preview = %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	img, err := imaging.Decode(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 300 || b.Dy() != 150 {
		t.Errorf("preview size = %v", b)
	}

	resp = do(t, srv, http.MethodGet, "/download", "", nil)
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, `filename="campaign-`) {
		t.Errorf("Content-Disposition = %q", cd)
	}
}

func TestReadAssetLimitsUploadSize(t *testing.T) {
	s := New(nil, log.New(io.Discard))
	body := bytes.NewReader(make([]byte, maxUpload+1))
	req := httptest.NewRequest(http.MethodPut, "/design/base", body)
	req.Header.Set("Content-Type", "image/png")

	_, _, err := s.readAsset(httptest.NewRecorder(), req)
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("oversized upload error = %v, want INVALID_INPUT", err)
	}
	if !strings.Contains(err.Error(), "exceeds") {
		t.Errorf("error = %q, want size limit message", err)
	}
}

func TestBaseRejectsLocalPath(t *testing.T) {
	srv, _ := newTestServer(t)
	var e errorResponse
	code := doJSON(t, srv, http.MethodPut, "/design/base", map[string]string{"url": "/etc/passwd"}, &e)
	if code != 400 {
		t.Errorf("local path = %d %+v", code, e)
	}
}

func TestDispatchFlow(t *testing.T) {
	srv, nav := newTestServer(t)

	var recips []recipientView
	doJSON(t, srv, http.MethodGet, "/recipients?status=ALL", nil, &recips)
	if len(recips) != 2 {
		t.Fatalf("recipients = %d", len(recips))
	}

	var e errorResponse
	code := doJSON(t, srv, http.MethodPost, "/dispatch/start", map[string]any{
		"ids":   []string{"a", "b"},
		"draft": map[string]string{"channel": "EMAIL", "subject": "Q4 Promo", "body": "Hi"},
	}, &e)
	if code != 422 || e.Code != errors.ErrCodeMissingContact || e.Toast.Category != errors.CategoryValidation {
		t.Fatalf("start with unreachable = %d %+v", code, e)
	}

	var st map[string]any
	code = doJSON(t, srv, http.MethodPost, "/dispatch/start", map[string]any{
		"ids":   []string{"a", "b"},
		"draft": map[string]string{"channel": "WHATSAPP", "body": "Q4 Promo is live"},
	}, &st)
	if code != 200 || st["phase"] != "dispatching" {
		t.Fatalf("start = %d %v", code, st)
	}

	for i := 0; i < 2; i++ {
		var adv struct {
			Step  map[string]any `json:"step"`
			State map[string]any `json:"state"`
		}
		if code := doJSON(t, srv, http.MethodPost, "/dispatch/advance", nil, &adv); code != 200 {
			t.Fatalf("advance %d = %d", i, code)
		}
	}
	if code := doJSON(t, srv, http.MethodPost, "/dispatch/advance", nil, &e); code != 409 || e.Code != errors.ErrCodeNotDispatching {
		t.Errorf("advance after complete = %d %+v", code, e)
	}

	visits := nav.Visits()
	if len(visits) != 2 || !strings.HasPrefix(visits[0].URI, "https://wa.me/15550101?text=Q4%20Promo") {
		t.Errorf("visits = %+v", visits)
	}

	var campaigns []map[string]any
	doJSON(t, srv, http.MethodGet, "/campaigns", nil, &campaigns)
	if len(campaigns) != 1 || campaigns[0]["recipient_count"].(float64) != 2 {
		t.Fatalf("campaigns = %v", campaigns)
	}
	id := campaigns[0]["id"].(string)

	doJSON(t, srv, http.MethodPost, "/campaigns/new", nil, nil)
	var recalled struct {
		Draft map[string]string `json:"draft"`
	}
	if code := doJSON(t, srv, http.MethodPost, "/campaigns/"+id+"/recall", nil, &recalled); code != 200 {
		t.Fatalf("recall = %d", code)
	}
	if recalled.Draft["channel"] != "WHATSAPP" || recalled.Draft["body"] != "Q4 Promo is live" {
		t.Errorf("recalled draft = %v", recalled.Draft)
	}
	if code := doJSON(t, srv, http.MethodPost, "/campaigns/nope/recall", nil, &e); code != 404 {
		t.Errorf("recall missing = %d", code)
	}
}

func TestAbort(t *testing.T) {
	srv, _ := newTestServer(t)
	doJSON(t, srv, http.MethodPost, "/dispatch/start", map[string]any{
		"ids":   []string{"a", "b"},
		"draft": map[string]string{"channel": "WHATSAPP", "body": "x"},
	}, nil)
	doJSON(t, srv, http.MethodPost, "/dispatch/advance", nil, nil)

	var st map[string]any
	if code := doJSON(t, srv, http.MethodPost, "/dispatch/abort", nil, &st); code != 200 || st["phase"] != "idle" {
		t.Errorf("abort = %d %v", code, st)
	}
	var campaigns []map[string]any
	doJSON(t, srv, http.MethodGet, "/campaigns", nil, &campaigns)
	if len(campaigns) != 0 {
		t.Errorf("aborted sequence archived %d records", len(campaigns))
	}
}

func TestGenerate(t *testing.T) {
	srv, _ := newTestServer(t)

	var draft map[string]string
	if code := doJSON(t, srv, http.MethodPost, "/generate/copy", map[string]string{"brief": "Spring sale"}, &draft); code != 200 {
		t.Fatalf("copy = %d", code)
	}
	if draft["subject"] != "Spring sale" || draft["body"] == "" {
		t.Errorf("draft = %v", draft)
	}

	var d designResponse
	if code := doJSON(t, srv, http.MethodPost, "/generate/image", map[string]string{"prompt": "tulips", "aspect": "9:16"}, &d); code != 200 || !d.HasBase {
		t.Errorf("image = %d %+v", code, d)
	}

	var e errorResponse
	if code := doJSON(t, srv, http.MethodPost, "/generate/copy", map[string]string{"brief": ""}, &e); code != 400 {
		t.Errorf("empty brief = %d", code)
	}
}
