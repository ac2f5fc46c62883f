package httpapi

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"wordcheck.org/internal/audit"
	"wordcheck.org/internal/docs"
	"wordcheck.org/internal/ids"
	"wordcheck.org/internal/obs"
	"wordcheck.org/internal/records"
)

const msgReportNotFound = "报告不存在"

func (a *API) listReports(w http.ResponseWriter, r *http.Request) {
	recs, err := a.records.List(r.Context(), collReports)
	if err != nil {
		storeError(w, r, err, msgReportNotFound)
		return
	}
	reports, err := records.DecodeAll[docs.Report](recs)
	if err != nil {
		storeError(w, r, err, msgReportNotFound)
		return
	}
	q := r.URL.Query()
	reports = docs.FilterReports(reports, docs.ReportFilter{
		Status: docs.ReportStatus(q.Get("status")),
		Query:  q.Get("q"),
	})
	writeJSON(w, http.StatusOK, reports)
}

// generateReport reruns the comparison and persists the outcome as a
// completed report.
func (a *API) generateReport(w http.ResponseWriter, r *http.Request) {
	var req docs.GenerateReportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	ctx := r.Context()
	report, status, msg := a.runComparison(ctx, req.ComparisonRequest)
	if status != 0 {
		writeError(w, r, status, msg)
		return
	}
	report.ReportID = ids.ReportID()
	report.ReportName = strings.TrimSpace(req.ReportName)
	report.Status = docs.StatusCompleted

	rec, err := records.Encode(report)
	if err == nil {
		rec, err = a.records.Create(ctx, collReports, rec)
	}
	if err != nil {
		storeError(w, r, err, msgReportNotFound)
		return
	}
	report.ID = rec.ID()
	obs.ObserveReportGenerated()
	_ = audit.LogEvent(ctx, audit.EventReportGenerated, map[string]any{
		"report_id": report.ReportID,
		"target":    report.TargetFile.ID,
		"sources":   len(report.CompareFiles),
		"overall":   report.OverallSimilarity,
	})
	writeJSON(w, http.StatusCreated, report)
}

func (a *API) getReport(w http.ResponseWriter, r *http.Request) {
	report, ok := a.report(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) deleteReport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	if err := a.records.Delete(r.Context(), collReports, id); err != nil {
		storeError(w, r, err, msgReportNotFound)
		return
	}
	_ = audit.LogEvent(r.Context(), audit.EventReportDeleted, map[string]any{"id": id})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) downloadReport(w http.ResponseWriter, r *http.Request) {
	report, ok := a.report(w, r)
	if !ok {
		return
	}
	body := renderReport(report)
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "report_"+report.ReportID+".pdf"))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (a *API) report(w http.ResponseWriter, r *http.Request) (docs.Report, bool) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid id")
		return docs.Report{}, false
	}
	rec, err := a.records.Get(r.Context(), collReports, id)
	if err != nil {
		storeError(w, r, err, msgReportNotFound)
		return docs.Report{}, false
	}
	report, err := records.Decode[docs.Report](rec)
	if err != nil {
		storeError(w, r, err, msgReportNotFound)
		return docs.Report{}, false
	}
	return report, true
}

// renderReport is the plain-text body served as the downloadable report.
func renderReport(rep docs.Report) []byte {
	var b bytes.Buffer
	title := rep.ReportName
	if title == "" {
		title = rep.ReportID
	}
	fmt.Fprintf(&b, "%s\n", title)
	fmt.Fprintf(&b, "报告编号: %s\n", rep.ReportID)
	fmt.Fprintf(&b, "生成时间: %s\n", rep.GenerateDate.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "目标文件: %s\n", rep.TargetFile.OriginalName)
	fmt.Fprintf(&b, "总体相似度: %.2f%% (%s)\n", rep.OverallSimilarity, docs.Risk(rep.OverallSimilarity))
	fmt.Fprintf(&b, "状态: %s\n\n", rep.Status.Label())

	results := append([]docs.SimilarityResult(nil), rep.Results...)
	sort.SliceStable(results, func(i, j int) bool { return results[i].Similarity > results[j].Similarity })
	for _, res := range results {
		fmt.Fprintf(&b, "- %s: %.2f%%\n", res.SourceFileName, res.Similarity)
		for _, seg := range res.MatchedSegments {
			fmt.Fprintf(&b, "    @%d+%d %s\n", seg.Position, seg.Length, seg.Text)
		}
	}
	return b.Bytes()
}
