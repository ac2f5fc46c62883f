package docs

import (
	"errors"
	"testing"
	"time"
)

func TestComparisonRequestValidate(t *testing.T) {
	cases := []struct {
		req  ComparisonRequest
		want error
	}{
		{ComparisonRequest{TargetFileID: 1, SourceFileIDs: []int64{2}, Sensitivity: 80}, nil},
		{ComparisonRequest{SourceFileIDs: []int64{2}, Sensitivity: 80}, ErrNoTarget},
		{ComparisonRequest{TargetFileID: 1, Sensitivity: 80}, ErrNoSources},
		{ComparisonRequest{TargetFileID: 1, SourceFileIDs: []int64{2}, Sensitivity: 101}, ErrSensitivityRange},
		{ComparisonRequest{TargetFileID: 1, SourceFileIDs: []int64{2}, Sensitivity: -1}, ErrSensitivityRange},
		{ComparisonRequest{TargetFileID: 1, SourceFileIDs: []int64{2}, Sensitivity: 0}, nil},
	}
	for _, tc := range cases {
		if err := tc.req.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("Validate(%+v) = %v, want %v", tc.req, err, tc.want)
		}
	}
}

func TestValidateUpload(t *testing.T) {
	if err := ValidateUpload("a.docx", "", 1<<20); err != nil {
		t.Fatalf("docx rejected: %v", err)
	}
	if err := ValidateUpload("A.DOC", "", 10); err != nil {
		t.Fatalf("DOC rejected: %v", err)
	}
	if err := ValidateUpload("blob", "application/msword", 10); err != nil {
		t.Fatalf("msword mime rejected: %v", err)
	}
	if err := ValidateUpload("notes.pdf", "application/pdf", 10); !errors.Is(err, ErrNotWordDocument) {
		t.Fatalf("expected ErrNotWordDocument, got %v", err)
	}
	if err := ValidateUpload("big.docx", "", MaxUploadBytes); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestDefaultReportName(t *testing.T) {
	at := time.Date(2024, time.March, 7, 9, 5, 0, 0, time.Local)
	if got := DefaultReportName(at); got != "查重报告_20240307_95" {
		t.Fatalf("DefaultReportName = %q", got)
	}
	at = time.Date(2024, time.December, 31, 23, 59, 0, 0, time.Local)
	if got := DefaultReportName(at); got != "查重报告_20241231_2359" {
		t.Fatalf("DefaultReportName = %q", got)
	}
}

func TestDownloadName(t *testing.T) {
	if got := DownloadName(Report{ReportName: "期末论文", ReportID: "RPT-1"}); got != "期末论文.pdf" {
		t.Fatalf("got %q", got)
	}
	if got := DownloadName(Report{ReportID: "RPT-1"}); got != "report_RPT-1.pdf" {
		t.Fatalf("got %q", got)
	}
}

func TestFilterReports(t *testing.T) {
	reports := []Report{
		{ReportID: "RPT-A", ReportName: "Thesis check", Status: StatusCompleted, TargetFile: WordFile{OriginalName: "thesis.docx"}},
		{ReportID: "RPT-B", ReportName: "", Status: StatusPending, TargetFile: WordFile{OriginalName: "Essay.docx"}},
		{ReportID: "RPT-C", ReportName: "lab", Status: StatusFailed, TargetFile: WordFile{OriginalName: "lab.doc"}},
	}
	if got := FilterReports(reports, ReportFilter{Status: "all"}); len(got) != 3 {
		t.Fatalf("all: got %d", len(got))
	}
	if got := FilterReports(reports, ReportFilter{Status: StatusPending}); len(got) != 1 || got[0].ReportID != "RPT-B" {
		t.Fatalf("pending: %+v", got)
	}
	if got := FilterReports(reports, ReportFilter{Query: "ESSAY"}); len(got) != 1 || got[0].ReportID != "RPT-B" {
		t.Fatalf("search target name: %+v", got)
	}
	if got := FilterReports(reports, ReportFilter{Query: "rpt-c"}); len(got) != 1 {
		t.Fatalf("search report id: %+v", got)
	}
	if got := FilterReports(reports, ReportFilter{Status: StatusCompleted, Query: "lab"}); len(got) != 0 {
		t.Fatalf("combined filter: %+v", got)
	}
}

func TestRecent(t *testing.T) {
	got := Recent([]int{1, 2, 3, 4, 5, 6, 7}, 5)
	want := []int{7, 6, 5, 4, 3}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	if got := Recent([]int{1, 2}, 5); len(got) != 2 || got[0] != 2 {
		t.Fatalf("short list: %v", got)
	}
	if Recent[int](nil, 5) != nil {
		t.Fatal("nil input should give nil")
	}
}

func TestStatusLabel(t *testing.T) {
	if StatusCompleted.Label() != "已完成" || StatusPending.Label() != "进行中" || StatusFailed.Label() != "失败" {
		t.Fatal("unexpected labels")
	}
	if ReportStatus("archived").Label() != "archived" || ReportStatus("archived").Valid() {
		t.Fatal("unknown status handling")
	}
}

func TestRisk(t *testing.T) {
	if Risk(85) != "高风险" || Risk(50) != "中等风险" || Risk(30) != "低风险" {
		t.Fatal("unexpected risk grading")
	}
}

func TestFilterFiles(t *testing.T) {
	files := []WordFile{
		{ID: 1, OriginalName: "Thesis.docx", Uploader: "admin"},
		{ID: 2, OriginalName: "notes.doc", Uploader: "li"},
	}
	if got := FilterFiles(files, "THESIS"); len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("name search: %+v", got)
	}
	if got := FilterFiles(files, "li"); len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("uploader search: %+v", got)
	}
	if got := FilterFiles(files, "  "); len(got) != 2 {
		t.Fatalf("blank query: %+v", got)
	}
}
