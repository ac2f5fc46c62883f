package views

import (
	"context"
	"fmt"

	"wordcheck.org/internal/docs"
	"wordcheck.org/internal/obs"
)

const recentCount = 5

// Dashboard shows totals and the most recent files and reports. A load
// failure is logged and rendered as empty data.
func Dashboard(ctx context.Context, env *Env, _ []string) error {
	files, err := env.Files.ListFiles(ctx)
	if err != nil {
		obs.Error("load dashboard files", err, nil)
		files = nil
	}
	var reports []docs.Report
	if err == nil {
		reports, err = env.Reports.ListReports(ctx)
		if err != nil {
			obs.Error("load dashboard reports", err, nil)
			files, reports = nil, nil
		}
	}

	now := env.now()
	fmt.Fprintln(env.Out, "系统概览")
	fmt.Fprintf(env.Out, "Word文件总数: %d\n查重报告总数: %d\n\n", len(files), len(reports))
	fmt.Fprintln(env.Out, "最近上传的文件")
	writeFiles(env.Out, docs.Recent(files, recentCount), now)
	fmt.Fprintln(env.Out)
	fmt.Fprintln(env.Out, "最近生成的报告")
	writeReports(env.Out, docs.Recent(reports, recentCount), now)
	return nil
}
