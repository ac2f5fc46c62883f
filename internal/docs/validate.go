package docs

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// MaxUploadBytes is the exclusive upper bound on document size.
const MaxUploadBytes = 10 << 20

// DefaultSensitivity matches the comparison form's initial slider value.
const DefaultSensitivity = 80

var wordExtensions = map[string]struct{}{
	".doc":  {},
	".docx": {},
}

// WordContentTypes lists the MIME types accepted as Word documents.
var WordContentTypes = map[string]struct{}{
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
}

// Validate checks the required fields of a comparison request.
func (r ComparisonRequest) Validate() error {
	if r.TargetFileID <= 0 {
		return ErrNoTarget
	}
	if len(r.SourceFileIDs) == 0 {
		return ErrNoSources
	}
	if r.Sensitivity < 0 || r.Sensitivity > 100 {
		return ErrSensitivityRange
	}
	return nil
}

// ValidateUpload applies the form-level upload rules: Word documents only,
// strictly smaller than 10MB.
func ValidateUpload(name, contentType string, size int64) error {
	ext := strings.ToLower(filepath.Ext(name))
	_, extOK := wordExtensions[ext]
	_, typeOK := WordContentTypes[strings.ToLower(strings.TrimSpace(contentType))]
	if !extOK && !typeOK {
		return ErrNotWordDocument
	}
	if size >= MaxUploadBytes {
		return ErrFileTooLarge
	}
	return nil
}

// DefaultReportName builds 查重报告_YYYYMMDD_Hmm. Hour and minute are not
// zero-padded, so 09:05 becomes "95".
func DefaultReportName(now time.Time) string {
	return fmt.Sprintf("查重报告_%04d%02d%02d_%d%d", now.Year(), int(now.Month()), now.Day(), now.Hour(), now.Minute())
}

// DownloadName is the file name offered for a downloaded report.
func DownloadName(r Report) string {
	if strings.TrimSpace(r.ReportName) != "" {
		return r.ReportName + ".pdf"
	}
	return "report_" + r.ReportID + ".pdf"
}
