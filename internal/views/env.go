package views

import (
	"context"
	"errors"
	"io"
	"time"

	"wordcheck.org/internal/auth"
	"wordcheck.org/internal/docs"
	"wordcheck.org/internal/session"
)

// FileService is the document half of the resource client.
type FileService interface {
	ListFiles(ctx context.Context) ([]docs.WordFile, error)
	UploadFile(ctx context.Context, name string, content io.Reader) (docs.WordFile, error)
	DeleteFile(ctx context.Context, id int64) error
	CompareFiles(ctx context.Context, in docs.ComparisonRequest) (docs.CompareResponse, error)
}

// ReportService is the report half of the resource client.
type ReportService interface {
	GenerateReport(ctx context.Context, in docs.GenerateReportRequest) (docs.Report, error)
	ListReports(ctx context.Context) ([]docs.Report, error)
	GetReport(ctx context.Context, id int64) (docs.Report, error)
	DeleteReport(ctx context.Context, id int64) error
	DownloadReport(ctx context.Context, id int64) (io.ReadCloser, error)
}

// ProfileService answers GET /auth/me. Only wired in api mode.
type ProfileService interface {
	Me(ctx context.Context) (auth.Profile, error)
}

// HealthChecker probes the backing service.
type HealthChecker interface {
	Check(ctx context.Context) (string, error)
}

// Env is everything a view may touch. Views hold no other state.
type Env struct {
	Session  *session.Store
	Files    FileService
	Reports  ReportService
	Profiles ProfileService
	Health   HealthChecker
	In       io.Reader
	Out      io.Writer
	Now      func() time.Time
}

func (e *Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Notices shown when an action is rejected.
const (
	NoticeLoadFiles   = "加载文件失败"
	NoticeUpload      = "上传失败"
	NoticeDelete      = "删除失败"
	NoticeCompare     = "比对失败"
	NoticeLoadReports = "加载报告失败"
	NoticeDownload    = "下载失败"
	NoticeSignIn      = "请先登录"
)

var (
	ErrNotSignedIn = errors.New("views: not signed in")
	ErrUsage       = errors.New("views: usage")
	ErrUnavailable = errors.New("views: not available in this mode")
)

// Failure ends one action. Notice is the operator-facing text; Err is the
// cause, logged but never printed as the notice.
type Failure struct {
	Notice string
	Err    error
}

func (f *Failure) Error() string {
	if f.Err == nil || f.Err.Error() == f.Notice {
		return f.Notice
	}
	return f.Notice + ": " + f.Err.Error()
}

func (f *Failure) Unwrap() error { return f.Err }

func fail(notice string, err error) error {
	return &Failure{Notice: notice, Err: err}
}

// invalid reports a validation error whose own text is the notice.
func invalid(err error) error {
	return &Failure{Notice: err.Error(), Err: err}
}

// Notice returns the text to print for err.
func Notice(err error) string {
	if err == nil {
		return ""
	}
	var f *Failure
	if errors.As(err, &f) {
		return f.Notice
	}
	return err.Error()
}
