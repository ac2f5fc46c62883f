package views

import (
	"context"
	"fmt"
	"strings"

	"wordcheck.org/internal/audit"
	"wordcheck.org/internal/docs"
)

// Compare runs the two-step comparison: compare, then generate a report.
// A failed second step leaves nothing to undo on the client.
func Compare(ctx context.Context, env *Env, args []string) error {
	if len(args) == 0 {
		return compareForm(ctx, env)
	}

	fs := newFlags(env, "compare")
	target := fs.Int64("target", 0, "target file id")
	sources := fs.String("sources", "", "comma separated source file ids")
	sensitivity := fs.Int("sensitivity", docs.DefaultSensitivity, "0..100")
	name := fs.String("name", "", "report name")
	if err := fs.Parse(args); err != nil || fs.NArg() > 0 {
		return usageError("compare -target ID -sources ID,ID [-sensitivity N] [-name NAME]")
	}
	ids, err := parseIDs(*sources)
	if err != nil {
		return usageError("compare -target ID -sources ID,ID [-sensitivity N] [-name NAME]")
	}

	req := docs.ComparisonRequest{TargetFileID: *target, SourceFileIDs: ids, Sensitivity: *sensitivity}
	if err := req.Validate(); err != nil {
		return invalid(err)
	}

	res, err := env.Files.CompareFiles(ctx, req)
	if err != nil {
		return fail(NoticeCompare, err)
	}
	reportName := strings.TrimSpace(*name)
	if reportName == "" {
		reportName = docs.DefaultReportName(env.now())
	}
	report, err := env.Reports.GenerateReport(ctx, docs.GenerateReportRequest{ComparisonRequest: req, ReportName: reportName})
	if err != nil {
		return fail(NoticeCompare, err)
	}
	_ = audit.LogEvent(ctx, audit.EventReportGenerated, map[string]any{
		"report_id": report.ReportID,
		"target":    req.TargetFileID,
		"sources":   req.SourceFileIDs,
	})

	fmt.Fprintln(env.Out, "比对完成，报告已生成")
	if len(report.Results) == 0 {
		report.Results = res.CompareResults
	}
	writeReport(env.Out, report, env.now())
	return nil
}

// compareForm lists the documents that can be picked for a comparison.
func compareForm(ctx context.Context, env *Env) error {
	files, err := env.Files.ListFiles(ctx)
	if err != nil {
		return fail(NoticeLoadFiles, err)
	}
	if len(files) == 0 {
		fmt.Fprintln(env.Out, "请先上传 Word 文件到素材库，然后进行查重比对")
		return nil
	}
	fmt.Fprintln(env.Out, "选择目标文件与比对文件，系统将进行内容相似度分析并生成查重报告")
	writeFiles(env.Out, files, env.now())
	fmt.Fprintln(env.Out, "\n用法: compare -target ID -sources ID,ID [-sensitivity N] [-name NAME]")
	return nil
}
