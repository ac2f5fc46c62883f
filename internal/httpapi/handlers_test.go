package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"wordcheck.org/internal/auth"
	"wordcheck.org/internal/blobs"
	"wordcheck.org/internal/docs"
	"wordcheck.org/internal/events"
	"wordcheck.org/internal/records"
)

type apiClient struct {
	baseURL string
	client  *http.Client
	api     *API
	token   string
	t       *testing.T
}

func newTestAPI(t *testing.T, opts ...Option) *apiClient {
	t.Helper()

	store, err := records.NewFileStore("")
	if err != nil {
		t.Fatalf("record store: %v", err)
	}
	blobStore, err := blobs.NewDirStore(t.TempDir())
	if err != nil {
		t.Fatalf("blob store: %v", err)
	}
	if _, err := SeedAdmin(context.Background(), store, "admin", "password", "admin@example.com"); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	issuer, err := auth.NewIssuer("test-secret")
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}

	api := New(store, blobStore, issuer, append([]Option{WithLoginRate(0)}, opts...)...)
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	return &apiClient{
		baseURL: srv.URL,
		client:  srv.Client(),
		api:     api,
		t:       t,
	}
}

func (c *apiClient) do(method, path string, body io.Reader, contentType string) *http.Response {
	c.t.Helper()
	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func (c *apiClient) send(method, path string, payload any) *http.Response {
	c.t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	return c.do(method, path, body, "application/json")
}

func (c *apiClient) login(username, password string) *http.Response {
	c.t.Helper()
	return c.send(http.MethodPost, "/api/auth/login", auth.Credentials{Username: username, Password: password})
}

func (c *apiClient) signIn() {
	c.t.Helper()
	resp := c.login("admin", "password")
	if resp.StatusCode != http.StatusOK {
		c.t.Fatalf("login status %d", resp.StatusCode)
	}
	c.token = decode[loginResponse](c.t, resp).Token
}

func (c *apiClient) upload(name string, size int) *http.Response {
	c.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		c.t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(bytes.Repeat([]byte{'x'}, size)); err != nil {
		c.t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		c.t.Fatalf("close multipart: %v", err)
	}
	return c.do(http.MethodPost, "/api/files/upload", &buf, mw.FormDataContentType())
}

func (c *apiClient) listFiles() []docs.WordFile {
	c.t.Helper()
	resp := c.send(http.MethodGet, "/api/files", nil)
	if resp.StatusCode != http.StatusOK {
		c.t.Fatalf("list files status %d", resp.StatusCode)
	}
	return decode[[]docs.WordFile](c.t, resp)
}

func decode[T any](t *testing.T, r *http.Response) T {
	t.Helper()
	defer r.Body.Close()
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func expectStatus(t *testing.T, resp *http.Response, want int) map[string]any {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("expected %d, got %d: %s", want, resp.StatusCode, body)
	}
	if resp.StatusCode == http.StatusNoContent {
		resp.Body.Close()
		return nil
	}
	return decode[map[string]any](t, resp)
}

func TestLoginReturnsV1Grant(t *testing.T) {
	api := newTestAPI(t)

	resp := api.login("admin", "password")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	grant, version, err := auth.DecodeLoginResponse(raw)
	if err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if version != auth.SchemaV1 || grant.Token == "" {
		t.Fatalf("unexpected grant %+v (%s)", grant, version)
	}
	if grant.User.Username != "admin" || grant.User.Role != "admin" {
		t.Fatalf("unexpected user %+v", grant.User)
	}

	api.token = grant.Token
	me := decode[auth.Profile](t, api.send(http.MethodGet, "/api/auth/me", nil))
	if me.Username != "admin" || me.Email != "admin@example.com" {
		t.Fatalf("unexpected profile %+v", me)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	api := newTestAPI(t)

	body := expectStatus(t, api.login("admin", "wrong"), http.StatusUnauthorized)
	if body["message"] != auth.MsgInvalidCredentials {
		t.Fatalf("unexpected message: %v", body["message"])
	}
	if body["request_id"] == "" {
		t.Fatalf("expected request_id")
	}

	body = expectStatus(t, api.login("nobody", "password"), http.StatusUnauthorized)
	if body["message"] != auth.MsgInvalidCredentials {
		t.Fatalf("unknown user should look like a wrong password: %v", body["message"])
	}
}

func TestLoginComparesUsernameExactly(t *testing.T) {
	api := newTestAPI(t)

	for _, name := range []string{" admin", "admin\t", "\nadmin", " admin "} {
		body := expectStatus(t, api.login(name, "password"), http.StatusUnauthorized)
		if body["message"] != auth.MsgInvalidCredentials {
			t.Fatalf("%q: unexpected message %v", name, body["message"])
		}
	}
	expectStatus(t, api.login("admin", "password"), http.StatusOK)
}

func TestAPIEnforcesAuth(t *testing.T) {
	api := newTestAPI(t)

	body := expectStatus(t, api.send(http.MethodGet, "/api/files", nil), http.StatusUnauthorized)
	if body["message"] == "" {
		t.Fatalf("expected message")
	}

	api.token = "not-a-jwt"
	expectStatus(t, api.send(http.MethodGet, "/api/auth/me", nil), http.StatusUnauthorized)
}

func TestLogoutIsAlwaysNoContent(t *testing.T) {
	api := newTestAPI(t)
	expectStatus(t, api.send(http.MethodPost, "/api/auth/logout", nil), http.StatusNoContent)
	api.signIn()
	expectStatus(t, api.send(http.MethodPost, "/api/auth/logout", nil), http.StatusNoContent)
}

func TestUploadThenList(t *testing.T) {
	api := newTestAPI(t)
	api.signIn()

	created := expectStatus(t, api.upload("a.docx", 1<<20), http.StatusCreated)
	if created["originalName"] != "a.docx" || created["uploader"] != "admin" {
		t.Fatalf("unexpected upload response %v", created)
	}

	files := api.listFiles()
	if len(files) != 1 || files[0].OriginalName != "a.docx" || files[0].FileSize != 1<<20 {
		t.Fatalf("unexpected files %+v", files)
	}
	if !strings.HasSuffix(files[0].Filename, ".docx") {
		t.Fatalf("object name should keep extension: %s", files[0].Filename)
	}
}

func TestUploadValidation(t *testing.T) {
	api := newTestAPI(t)
	api.signIn()

	body := expectStatus(t, api.upload("notes.txt", 10), http.StatusBadRequest)
	if body["message"] != docs.ErrNotWordDocument.Error() {
		t.Fatalf("unexpected message %v", body["message"])
	}
	body = expectStatus(t, api.upload("big.docx", docs.MaxUploadBytes), http.StatusBadRequest)
	if body["message"] != docs.ErrFileTooLarge.Error() {
		t.Fatalf("unexpected message %v", body["message"])
	}
	if files := api.listFiles(); len(files) != 0 {
		t.Fatalf("rejected uploads must not be stored: %+v", files)
	}
}

func TestDeleteMissingFileLeavesListUnchanged(t *testing.T) {
	api := newTestAPI(t)
	api.signIn()
	expectStatus(t, api.upload("a.docx", 128), http.StatusCreated)
	before := api.listFiles()

	body := expectStatus(t, api.send(http.MethodDelete, "/api/files/999", nil), http.StatusNotFound)
	if body["message"] != msgFileNotFound {
		t.Fatalf("unexpected message %v", body["message"])
	}

	after := api.listFiles()
	if len(after) != len(before) || after[0].ID != before[0].ID {
		t.Fatalf("list changed: %+v vs %+v", before, after)
	}
}

func TestDeleteFile(t *testing.T) {
	api := newTestAPI(t)
	api.signIn()
	created := expectStatus(t, api.upload("a.doc", 64), http.StatusCreated)
	id := int64(created["id"].(float64))

	expectStatus(t, api.send(http.MethodDelete, "/api/files/"+strconv.FormatInt(id, 10), nil), http.StatusNoContent)
	if files := api.listFiles(); len(files) != 0 {
		t.Fatalf("expected empty list, got %+v", files)
	}
}

func TestListFilesIsStable(t *testing.T) {
	api := newTestAPI(t)
	api.signIn()
	expectStatus(t, api.upload("a.docx", 32), http.StatusCreated)
	expectStatus(t, api.upload("b.docx", 32), http.StatusCreated)

	first := api.listFiles()
	second := api.listFiles()
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("unexpected lengths %d/%d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("list differs at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestCompareGenerateDownload(t *testing.T) {
	api := newTestAPI(t)
	api.signIn()
	expectStatus(t, api.upload("target.docx", 64), http.StatusCreated)
	expectStatus(t, api.upload("s1.docx", 64), http.StatusCreated)
	expectStatus(t, api.upload("s2.doc", 64), http.StatusCreated)

	req := docs.ComparisonRequest{TargetFileID: 1, SourceFileIDs: []int64{2, 3}, Sensitivity: 80}
	first := decode[docs.CompareResponse](t, api.send(http.MethodPost, "/api/files/compare", req))
	second := decode[docs.CompareResponse](t, api.send(http.MethodPost, "/api/files/compare", req))
	if len(first.CompareResults) != 2 {
		t.Fatalf("expected 2 results, got %+v", first.CompareResults)
	}
	for i := range first.CompareResults {
		if first.CompareResults[i].Similarity != second.CompareResults[i].Similarity {
			t.Fatalf("comparison is not deterministic")
		}
	}
	if first.Report.ReportID != "" {
		t.Fatalf("compare must not persist a report: %+v", first.Report)
	}

	resp := api.send(http.MethodPost, "/api/reports/generate", docs.GenerateReportRequest{ComparisonRequest: req, ReportName: "weekly"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("generate status %d", resp.StatusCode)
	}
	report := decode[docs.Report](t, resp)
	if !strings.HasPrefix(report.ReportID, "RPT-") || report.Status != docs.StatusCompleted || report.ID != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.OverallSimilarity != overall(first.CompareResults) {
		t.Fatalf("overall %v does not match results", report.OverallSimilarity)
	}

	list := decode[[]docs.Report](t, api.send(http.MethodGet, "/api/reports", nil))
	if len(list) != 1 || list[0].ReportName != "weekly" {
		t.Fatalf("unexpected reports %+v", list)
	}

	dl := api.send(http.MethodGet, "/api/reports/1/download", nil)
	defer dl.Body.Close()
	if dl.StatusCode != http.StatusOK || dl.Header.Get("Content-Type") != "application/octet-stream" {
		t.Fatalf("unexpected download %d %s", dl.StatusCode, dl.Header.Get("Content-Type"))
	}
	if !strings.HasPrefix(dl.Header.Get("Content-Disposition"), "attachment;") {
		t.Fatalf("missing attachment disposition")
	}
	content, _ := io.ReadAll(dl.Body)
	if !strings.Contains(string(content), "target.docx") {
		t.Fatalf("report body should name the target: %s", content)
	}

	expectStatus(t, api.send(http.MethodDelete, "/api/reports/1", nil), http.StatusNoContent)
	expectStatus(t, api.send(http.MethodGet, "/api/reports/1", nil), http.StatusNotFound)
}

func TestCompareRejectsBadRequests(t *testing.T) {
	api := newTestAPI(t)
	api.signIn()
	expectStatus(t, api.upload("target.docx", 64), http.StatusCreated)

	body := expectStatus(t, api.send(http.MethodPost, "/api/files/compare", docs.ComparisonRequest{SourceFileIDs: []int64{1}, Sensitivity: 80}), http.StatusBadRequest)
	if body["message"] != docs.ErrNoTarget.Error() {
		t.Fatalf("unexpected message %v", body["message"])
	}
	body = expectStatus(t, api.send(http.MethodPost, "/api/files/compare", docs.ComparisonRequest{TargetFileID: 9, SourceFileIDs: []int64{1}, Sensitivity: 80}), http.StatusNotFound)
	if body["message"] != msgTargetNotFound {
		t.Fatalf("unexpected message %v", body["message"])
	}
	body = expectStatus(t, api.send(http.MethodPost, "/api/files/compare", docs.ComparisonRequest{TargetFileID: 1, SourceFileIDs: []int64{7}, Sensitivity: 80}), http.StatusNotFound)
	if body["message"] != msgSourceNotFound {
		t.Fatalf("unexpected message %v", body["message"])
	}
}

func TestGenericCollectionCRUD(t *testing.T) {
	api := newTestAPI(t)
	api.signIn()

	created := expectStatus(t, api.send(http.MethodPost, "/api/notes", map[string]any{"title": "draft"}), http.StatusCreated)
	if created["id"] != float64(1) {
		t.Fatalf("unexpected id %v", created["id"])
	}
	patched := expectStatus(t, api.send(http.MethodPatch, "/api/notes/1", map[string]any{"done": true}), http.StatusOK)
	if patched["title"] != "draft" || patched["done"] != true {
		t.Fatalf("patch should merge: %v", patched)
	}
	replaced := expectStatus(t, api.send(http.MethodPut, "/api/notes/1", map[string]any{"title": "final"}), http.StatusOK)
	if _, ok := replaced["done"]; ok {
		t.Fatalf("put should replace: %v", replaced)
	}
	expectStatus(t, api.send(http.MethodDelete, "/api/notes/1", nil), http.StatusNoContent)
	expectStatus(t, api.send(http.MethodGet, "/api/notes/1", nil), http.StatusNotFound)
	expectStatus(t, api.send(http.MethodGet, "/api/Bad!", nil), http.StatusNotFound)
}

func TestFilesAndReportsRejectGenericWrites(t *testing.T) {
	api := newTestAPI(t)
	api.signIn()
	expectStatus(t, api.upload("a.docx", 256), http.StatusCreated)

	cases := []struct{ method, path string }{
		{http.MethodPatch, "/api/files/1"},
		{http.MethodPut, "/api/files/1"},
		{http.MethodPost, "/api/files"},
		{http.MethodPost, "/api/reports"},
		{http.MethodPatch, "/api/reports/1"},
		{http.MethodPut, "/api/reports/1"},
	}
	for _, tc := range cases {
		resp := api.send(tc.method, tc.path, map[string]any{"originalName": "x.docx", "fileSize": 1})
		if resp.Header.Get("Allow") == "" {
			t.Fatalf("%s %s: missing Allow header", tc.method, tc.path)
		}
		expectStatus(t, resp, http.StatusMethodNotAllowed)
	}

	files := api.listFiles()
	if len(files) != 1 || files[0].OriginalName != "a.docx" || files[0].FileSize != 256 {
		t.Fatalf("files changed: %+v", files)
	}
	reports := decode[[]map[string]any](t, api.send(http.MethodGet, "/api/reports", nil))
	if len(reports) != 0 {
		t.Fatalf("reports changed: %v", reports)
	}
}

func TestUsersCollectionHidesCredentials(t *testing.T) {
	api := newTestAPI(t)
	api.signIn()

	created := expectStatus(t, api.send(http.MethodPost, "/api/users", map[string]any{
		"username": "reviewer", "password": "s3cret", "role": "reviewer",
	}), http.StatusCreated)
	if _, ok := created["passwordHash"]; ok {
		t.Fatalf("hash leaked: %v", created)
	}
	if _, ok := created["password"]; ok {
		t.Fatalf("password leaked: %v", created)
	}

	api.token = ""
	resp := api.login("reviewer", "s3cret")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("new user cannot log in: %d", resp.StatusCode)
	}
	api.token = decode[loginResponse](t, resp).Token
	expectStatus(t, api.send(http.MethodGet, "/api/users", nil), http.StatusForbidden)
}

func TestMutationsReachEventHub(t *testing.T) {
	hub := events.NewHub()
	api := newTestAPI(t, WithHub(hub))
	api.signIn()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := hub.Subscribe(ctx)

	expectStatus(t, api.upload("a.docx", 16), http.StatusCreated)
	select {
	case evt := <-ch:
		if evt.Type != events.Created || evt.Collection != collFiles || evt.ID != 1 {
			t.Fatalf("unexpected event %+v", evt)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event published")
	}
}

func TestLoginRateLimited(t *testing.T) {
	api := newTestAPI(t, WithLoginRate(2))
	for i := 0; i < 2; i++ {
		expectStatus(t, api.login("admin", "wrong"), http.StatusUnauthorized)
	}
	resp := api.login("admin", "password")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.StatusCode)
	}
}

func TestHealthAndReady(t *testing.T) {
	api := newTestAPI(t)
	expectStatus(t, api.send(http.MethodGet, "/healthz", nil), http.StatusOK)
	body := expectStatus(t, api.send(http.MethodGet, "/readyz", nil), http.StatusOK)
	if body["status"] != "ready" {
		t.Fatalf("unexpected readiness %v", body)
	}
}
