package docs

import "strings"

// ReportFilter narrows a report list. An empty or "all" Status matches any.
type ReportFilter struct {
	Status ReportStatus
	Query  string
}

// Match applies the status filter, then a case-insensitive search over the
// report name, the target's original name and the report id.
func (f ReportFilter) Match(r Report) bool {
	if f.Status != "" && f.Status != "all" && r.Status != f.Status {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.ReportName), q) ||
		strings.Contains(strings.ToLower(r.TargetFile.OriginalName), q) ||
		strings.Contains(strings.ToLower(r.ReportID), q)
}

// FilterReports keeps the order of reports.
func FilterReports(reports []Report, f ReportFilter) []Report {
	out := make([]Report, 0, len(reports))
	for _, r := range reports {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Recent returns the last n items, newest first.
func Recent[T any](items []T, n int) []T {
	if n <= 0 || len(items) == 0 {
		return nil
	}
	start := len(items) - n
	if start < 0 {
		start = 0
	}
	out := make([]T, 0, len(items)-start)
	for i := len(items) - 1; i >= start; i-- {
		out = append(out, items[i])
	}
	return out
}

// FilterFiles keeps files whose original name or uploader contains q,
// ignoring case. A blank q keeps everything.
func FilterFiles(files []WordFile, q string) []WordFile {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return files
	}
	out := make([]WordFile, 0, len(files))
	for _, f := range files {
		if strings.Contains(strings.ToLower(f.OriginalName), q) || strings.Contains(strings.ToLower(f.Uploader), q) {
			out = append(out, f)
		}
	}
	return out
}
