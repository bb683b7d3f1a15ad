package web

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/cuetext/internal/config"
	"github.com/JonMunkholm/cuetext/internal/core"
	_ "github.com/JonMunkholm/cuetext/internal/core/pipelines"
	"github.com/JonMunkholm/cuetext/internal/jobs"
	"github.com/JonMunkholm/cuetext/internal/sheet/sheettest"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: 30 * time.Second},
		Storage: config.StorageConfig{
			UploadsDir: filepath.Join(root, "uploads"),
			OutputsDir: filepath.Join(root, "outputs"),
			StaticDir:  filepath.Join(root, "static"),
		},
		Convert: config.ConvertConfig{
			Backend:       config.BackendNative,
			MaxConcurrent: 2,
			MaxWaitTime:   5 * time.Second,
			PreviewLimit:  20000,
		},
		Upload:   config.UploadConfig{MaxFileSize: 1 << 20},
		Security: config.SecurityConfig{EnableCSP: true},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	layout, err := jobs.NewLayout(cfg.Storage.UploadsDir, cfg.Storage.OutputsDir)
	if err != nil {
		t.Fatal(err)
	}
	svc := core.NewService(cfg.Convert, layout, jobs.NewMemoryStore(10))
	return NewServer(cfg, svc)
}

// upload builds a multipart POST /process request.
func upload(t *testing.T, fields map[string]string, fileField string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, "uitslagen.xlsx")
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(data)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/process", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func voetbalWorkbook(t *testing.T) []byte {
	return sheettest.Build(t, sheettest.Sheet{Name: "Uitslagen", Rows: [][]any{
		sheettest.Row("Nr", "Thuisclub", "", "Uitclub", "", "TG", "", "UG", "RT", "", "RU", "Doelpuntenmakers"),
		sheettest.Row("", "1e klasse"),
		sheettest.Row("1", "Ajax", "-", "PSV", "", "2", "-", "1", "1", "-", "0", "Tadic"),
	}})
}

func TestIndex(t *testing.T) {
	s := newTestServer(t, testConfig(t))
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `name="file_voetbal"`) {
		t.Error("index page missing voetbal form")
	}
	if rec.Header().Get("Content-Security-Policy") == "" || rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Errorf("security headers = %v", rec.Header())
	}
}

func TestProcess_JSONAndDownload(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	req := upload(t, map[string]string{"pipeline": "A", "competition": "KNVB"}, "file_voetbal", voetbalWorkbook(t))
	req.Header.Set("Accept", "application/json")
	rec := serve(s, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp ProcessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resp.Preview, "<subhead>Ajax - PSV 2-1 (1-0)</subhead>") || resp.Truncated {
		t.Errorf("preview = %q", resp.Preview)
	}
	if len(resp.Files) != 1 || resp.Files[0].Name != "cue_voetbal.txt" {
		t.Fatalf("files = %+v", resp.Files)
	}

	dl := serve(s, httptest.NewRequest(http.MethodGet, resp.Files[0].URL, nil))
	if dl.Code != http.StatusOK {
		t.Fatalf("download status = %d", dl.Code)
	}
	if dl.Body.String() != resp.Preview {
		t.Errorf("download body = %q", dl.Body.String())
	}
	if !strings.Contains(dl.Header().Get("Content-Disposition"), "cue_voetbal.txt") {
		t.Errorf("Content-Disposition = %q", dl.Header().Get("Content-Disposition"))
	}

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/jobs/"+resp.JobID, nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("job lookup = %d %s", rec.Code, rec.Body.String())
	}
}

func TestProcess_HTMLOverig(t *testing.T) {
	s := newTestServer(t, testConfig(t))
	data := sheettest.Build(t, sheettest.Sheet{Name: "Blad1", Rows: [][]any{
		sheettest.Row("Thuis", "Uit", "HS", "AS"),
		sheettest.Row("A", "B", "3", "1"),
	}})

	rec := serve(s, upload(t, map[string]string{"pipeline": "B"}, "file_overig", data))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "A - B 3-1") || !strings.Contains(body, "/cue_overig.txt") {
		t.Errorf("result page missing output:\n%s", body)
	}
}

func TestProcess_PreviewTruncated(t *testing.T) {
	cfg := testConfig(t)
	cfg.Convert.PreviewLimit = 10
	s := newTestServer(t, cfg)

	req := upload(t, map[string]string{"pipeline": "A"}, "file", voetbalWorkbook(t))
	req.Header.Set("Accept", "application/json")
	rec := serve(s, req)

	var resp ProcessResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if !resp.Truncated || len([]rune(resp.Preview)) != 10 {
		t.Errorf("preview = %q truncated = %v", resp.Preview, resp.Truncated)
	}
}

func TestProcess_Errors(t *testing.T) {
	tests := []struct {
		name       string
		fields     map[string]string
		fileField  string
		data       []byte
		wantStatus int
		wantCode   string
	}{
		{"no file", map[string]string{"pipeline": "A"}, "", nil, http.StatusBadRequest, "FILE004"},
		{"unknown pipeline", map[string]string{"pipeline": "Q"}, "file", []byte("x"), http.StatusBadRequest, "PIPE001"},
		{"unreadable workbook", map[string]string{"pipeline": "A"}, "file_voetbal", []byte("not xlsx"), http.StatusUnprocessableEntity, "WB002"},
		{"too large", map[string]string{"pipeline": "A"}, "file", bytes.Repeat([]byte("x"), 2<<20), http.StatusRequestEntityTooLarge, "FILE001"},
	}

	s := newTestServer(t, testConfig(t))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := upload(t, tt.fields, tt.fileField, tt.data)
			req.Header.Set("Accept", "application/json")
			rec := serve(s, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var resp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v (%s)", err, rec.Body.String())
			}
			if resp.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Code, tt.wantCode)
			}
		})
	}
}

func TestProcess_ErrorPage(t *testing.T) {
	s := newTestServer(t, testConfig(t))
	rec := serve(s, upload(t, map[string]string{"pipeline": "A"}, "file", []byte("garbage")))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `role="alert"`) || !strings.Contains(body, "WB002") {
		t.Errorf("error page:\n%s", body)
	}
}

func TestDownload_NotFound(t *testing.T) {
	s := newTestServer(t, testConfig(t))
	for _, path := range []string{"/download/abcdef12/cue.txt", "/download/..%2F..%2F/etc", "/download/abcdef12/..%2Fx"} {
		rec := serve(s, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", path, rec.Code)
		}
	}
}

func TestAPI(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/jobs", nil))
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("empty history = %d %s", rec.Code, rec.Body.String())
	}

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/jobs/ffffffff", nil))
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "JOB001") {
		t.Errorf("unknown job = %d %s", rec.Code, rec.Body.String())
	}

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/pipelines", nil))
	if !strings.Contains(rec.Body.String(), `"key":"A"`) || !strings.Contains(rec.Body.String(), `"key":"B"`) {
		t.Errorf("pipelines = %s", rec.Body.String())
	}

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"backend":"native"`) {
		t.Errorf("healthz = %d %s", rec.Code, rec.Body.String())
	}
}

func TestAPI_RequiresKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"secret"}
	s := newTestServer(t, cfg)

	if rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/jobs", nil)); rec.Code != http.StatusUnauthorized {
		t.Errorf("without key status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	req.Header.Set("X-API-Key", "secret")
	if rec := serve(s, req); rec.Code != http.StatusOK {
		t.Errorf("with key status = %d", rec.Code)
	}

	if rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil)); rec.Code != http.StatusOK {
		t.Errorf("healthz should not need a key, status = %d", rec.Code)
	}
}

func TestStatic(t *testing.T) {
	cfg := testConfig(t)
	dir := filepath.Join(cfg.Storage.StaticDir, "templates")
	if err := mkdirWrite(dir, "Invulbestand_amateursport_voetbal.xlsx", "blank"); err != nil {
		t.Fatal(err)
	}
	s := newTestServer(t, cfg)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/static/templates/Invulbestand_amateursport_voetbal.xlsx", nil))
	body, _ := io.ReadAll(rec.Body)
	if rec.Code != http.StatusOK || string(body) != "blank" {
		t.Errorf("static = %d %q", rec.Code, body)
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Security.RateLimit = 2
	s := newTestServer(t, cfg)

	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("Accept", "application/json")
		rec := serve(s, req)
		last = rec.Code
		if i == 2 && !strings.Contains(rec.Body.String(), "RATE001") {
			t.Errorf("rate limited body = %s", rec.Body.String())
		}
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want 429", last)
	}
}
