package docs

import (
	"errors"
	"time"
)

// WordFile is an uploaded document. Immutable once stored, except deletion.
type WordFile struct {
	ID           int64     `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	FileSize     int64     `json:"fileSize"`
	UploadTime   time.Time `json:"uploadTime"`
	Uploader     string    `json:"uploader"`
}

// ComparisonRequest asks the external service to compare one target file
// against a set of sources. It is never persisted by the console.
type ComparisonRequest struct {
	TargetFileID  int64   `json:"targetFileId"`
	SourceFileIDs []int64 `json:"sourceFileIds"`
	Sensitivity   int     `json:"sensitivity"`
}

// GenerateReportRequest is a ComparisonRequest plus the report name.
type GenerateReportRequest struct {
	ComparisonRequest
	ReportName string `json:"reportName,omitempty"`
}

// MatchedSegment locates a matching passage inside the target document.
type MatchedSegment struct {
	Text     string `json:"text"`
	Position int    `json:"position"`
	Length   int    `json:"length"`
}

// SimilarityResult is the score of one source document against the target.
type SimilarityResult struct {
	SourceFileID    int64            `json:"sourceFileId"`
	SourceFileName  string           `json:"sourceFileName"`
	Similarity      float64          `json:"similarity"`
	MatchedSegments []MatchedSegment `json:"matchedSegments"`
}

// ReportStatus is owned by the external service.
type ReportStatus string

const (
	StatusPending   ReportStatus = "pending"
	StatusCompleted ReportStatus = "completed"
	StatusFailed    ReportStatus = "failed"
)

// Valid reports whether s is one of the three known states.
func (s ReportStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Label is the text shown in report tables.
func (s ReportStatus) Label() string {
	switch s {
	case StatusCompleted:
		return "已完成"
	case StatusPending:
		return "进行中"
	case StatusFailed:
		return "失败"
	default:
		return string(s)
	}
}

// Report is the similarity findings for one comparison request.
type Report struct {
	ID                int64              `json:"id"`
	ReportID          string             `json:"reportId"`
	ReportName        string             `json:"reportName,omitempty"`
	GenerateDate      time.Time          `json:"generateDate"`
	TargetFile        WordFile           `json:"targetFile"`
	CompareFiles      []WordFile         `json:"compareFiles"`
	Results           []SimilarityResult `json:"results"`
	OverallSimilarity float64            `json:"overallSimilarity"`
	Status            ReportStatus       `json:"status"`
}

// CompareResponse is what POST /files/compare answers.
type CompareResponse struct {
	CompareResults []SimilarityResult `json:"compareResults"`
	Report         Report             `json:"report"`
}

var (
	ErrNoTarget         = errors.New("请选择目标文件")
	ErrNoSources        = errors.New("请至少选择一个比对文件")
	ErrSensitivityRange = errors.New("灵敏度必须在 0 到 100 之间")
	ErrNotWordDocument  = errors.New("只能上传 Word 文档!")
	ErrFileTooLarge     = errors.New("文件大小不能超过 10MB!")
)

// Risk grades a similarity percentage the way report tables colour it.
func Risk(similarity float64) string {
	switch {
	case similarity > 70:
		return "高风险"
	case similarity > 30:
		return "中等风险"
	default:
		return "低风险"
	}
}
