package views

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"wordcheck.org/internal/docs"
)

const productTitle = "文档查重系统"

// shell prints the header every protected view renders inside.
func shell(w io.Writer, username string) {
	if username == "" {
		username = "管理员"
	}
	fmt.Fprintf(w, "%s | %s\n%s\n", productTitle, username, strings.Repeat("-", 40))
}

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func size(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}

func when(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04") + " (" + humanize.RelTime(t, now, "ago", "from now") + ")"
}

func percent(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}

func reportTitle(r docs.Report) string {
	if strings.TrimSpace(r.ReportName) != "" {
		return r.ReportName
	}
	return r.ReportID
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", ErrUsage, raw)
	}
	return id, nil
}

func parseIDs(raw string) ([]int64, error) {
	var out []int64
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		id, err := parseID(part)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func writeFiles(w io.Writer, files []docs.WordFile, now time.Time) {
	tw := table(w)
	fmt.Fprintln(tw, "ID\t文件名\t大小\t上传者\t上传时间")
	for _, f := range files {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", f.ID, f.OriginalName, size(f.FileSize), f.Uploader, when(f.UploadTime, now))
	}
	tw.Flush()
}

func writeReports(w io.Writer, reports []docs.Report, now time.Time) {
	tw := table(w)
	fmt.Fprintln(tw, "ID\t报告\t目标文件\t比对文件\t总体相似度\t状态\t生成时间")
	for _, r := range reports {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d个\t%s\t%s\t%s\n",
			r.ID, reportTitle(r), r.TargetFile.OriginalName, len(r.CompareFiles),
			percent(r.OverallSimilarity), r.Status.Label(), when(r.GenerateDate, now))
	}
	tw.Flush()
}

func writeResults(w io.Writer, results []docs.SimilarityResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "暂无查重结果")
		return
	}
	tw := table(w)
	fmt.Fprintln(tw, "比对文件\t相似度\t匹配段落数\t状态")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", r.SourceFileName, percent(r.Similarity), len(r.MatchedSegments), docs.Risk(r.Similarity))
	}
	tw.Flush()
}

func writeReport(w io.Writer, r docs.Report, now time.Time) {
	fmt.Fprintf(w, "文档查重报告 %s\n", reportTitle(r))
	fmt.Fprintf(w, "报告ID: %s | 生成时间: %s | 状态: %s\n", r.ReportID, when(r.GenerateDate, now), r.Status.Label())
	fmt.Fprintf(w, "目标文件: %s\n", r.TargetFile.OriginalName)
	fmt.Fprintf(w, "整体相似度: %s (%s)\n\n", percent(r.OverallSimilarity), docs.Risk(r.OverallSimilarity))
	writeResults(w, r.Results)
	for _, res := range r.Results {
		for i, seg := range res.MatchedSegments {
			fmt.Fprintf(w, "\n[%s] 段落 %d @%d+%d\n  %s\n", res.SourceFileName, i+1, seg.Position, seg.Length, seg.Text)
		}
	}
}
