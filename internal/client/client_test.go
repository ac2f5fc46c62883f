package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"wordcheck.org/internal/auth"
	"wordcheck.org/internal/docs"
)

func newTestClient(t *testing.T, h http.Handler, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL+"/api/", opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := New("  "); err == nil {
		t.Fatal("expected error for empty base url")
	}
}

func TestListFilesSendsBearerToken(t *testing.T) {
	var gotAuth, gotPath string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode([]docs.WordFile{{ID: 1, OriginalName: "a.docx", FileSize: 42}})
	}), WithTokenSource(func() string { return "tok" }))

	files, err := c.ListFiles(context.Background())
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("authorization = %q", gotAuth)
	}
	if gotPath != "/api/files" {
		t.Fatalf("path = %q", gotPath)
	}
	if len(files) != 1 || files[0].OriginalName != "a.docx" {
		t.Fatalf("unexpected files %+v", files)
	}
}

func TestNoTokenNoHeader(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h := r.Header.Get("Authorization"); h != "" {
			t.Errorf("unexpected authorization %q", h)
		}
		_, _ = w.Write([]byte("[]"))
	}), WithTokenSource(func() string { return "" }))
	if _, err := c.ListReports(context.Background()); err != nil {
		t.Fatalf("ListReports: %v", err)
	}
}

func TestAPIErrorMessage(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"message field", `{"message":"not here"}`, "not here"},
		{"error field", `{"error":"bad"}`, "bad"},
		{"not json", `oops`, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(tc.body))
			}))
			err := c.DeleteFile(context.Background(), 99)
			var ae *APIError
			if !errors.As(err, &ae) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if ae.StatusCode != http.StatusNotFound || ae.Message != tc.want {
				t.Fatalf("unexpected error %+v", ae)
			}
			if !IsNotFound(err) {
				t.Fatal("IsNotFound should be true")
			}
		})
	}
}

func TestUploadFileMultipart(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/files/upload" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close()
		body, _ := io.ReadAll(f)
		if hdr.Header.Get("Content-Type") != ContentTypeFor("a.docx") {
			t.Errorf("content type = %q", hdr.Header.Get("Content-Type"))
		}
		_ = json.NewEncoder(w).Encode(docs.WordFile{ID: 7, OriginalName: hdr.Filename, FileSize: int64(len(body))})
	}))

	got, err := c.UploadFile(context.Background(), "/tmp/dir/a.docx", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	if got.ID != 7 || got.OriginalName != "a.docx" || got.FileSize != 5 {
		t.Fatalf("unexpected record %+v", got)
	}
}

func TestCompareAndGenerate(t *testing.T) {
	var seen docs.GenerateReportRequest
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/files/compare":
			_ = json.NewEncoder(w).Encode(docs.CompareResponse{
				CompareResults: []docs.SimilarityResult{{SourceFileID: 2, Similarity: 12.5}},
			})
		case "/api/reports/generate":
			_ = json.NewDecoder(r.Body).Decode(&seen)
			_ = json.NewEncoder(w).Encode(docs.Report{ID: 1, ReportID: "RPT-1", ReportName: seen.ReportName, Status: docs.StatusCompleted})
		default:
			http.NotFound(w, r)
		}
	}))
	in := docs.ComparisonRequest{TargetFileID: 1, SourceFileIDs: []int64{2}, Sensitivity: 80}
	res, err := c.CompareFiles(context.Background(), in)
	if err != nil || len(res.CompareResults) != 1 {
		t.Fatalf("CompareFiles: %v %+v", err, res)
	}
	rep, err := c.GenerateReport(context.Background(), docs.GenerateReportRequest{ComparisonRequest: in, ReportName: "n"})
	if err != nil {
		t.Fatalf("GenerateReport: %v", err)
	}
	if rep.ReportName != "n" || seen.TargetFileID != 1 || seen.Sensitivity != 80 {
		t.Fatalf("unexpected report %+v / request %+v", rep, seen)
	}
}

func TestDownloadReportStreams(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/reports/3/download" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte("%PDF"))
	}))
	rc, err := c.DownloadReport(context.Background(), 3)
	if err != nil {
		t.Fatalf("DownloadReport: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != "%PDF" {
		t.Fatalf("body = %q", body)
	}
}

func TestTimeout(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}), WithTimeout(50*time.Millisecond))
	if _, err := c.ListFiles(context.Background()); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestAPIGatewayOverClient(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var creds auth.Credentials
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Username == "admin" && creds.Password == "password" {
			_, _ = w.Write([]byte(`{"token":"t1","user":{"id":1,"username":"admin","email":"a@b","role":"admin"}}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"用户名或密码错误"}`))
	}))
	gw := auth.NewAPIGateway(c)

	grant, err := gw.Login(context.Background(), auth.Credentials{Username: "admin", Password: "password"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if grant.Token != "t1" || grant.User.Username != "admin" || grant.User.Role != "admin" {
		t.Fatalf("unexpected grant %+v", grant)
	}

	_, err = gw.Login(context.Background(), auth.Credentials{Username: "admin", Password: "wrong"})
	if !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if msg := auth.UserMessage(err); msg != auth.MsgInvalidCredentials {
		t.Fatalf("message = %q", msg)
	}
}
