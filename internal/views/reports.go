package views

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"wordcheck.org/internal/audit"
	"wordcheck.org/internal/docs"
)

const reportsUsage = "reports [-status all|pending|completed|failed] [-q TEXT] | reports show ID | reports delete ID | reports download ID [-o PATH]"

// Reports lists, shows, deletes and downloads reports.
func Reports(ctx context.Context, env *Env, args []string) error {
	if len(args) > 0 {
		switch args[0] {
		case "show":
			if len(args) != 2 {
				return usageError("reports show ID")
			}
			return showReport(ctx, env, args[1])
		case "delete":
			if len(args) != 2 {
				return usageError("reports delete ID")
			}
			return deleteReport(ctx, env, args[1])
		case "download":
			if len(args) < 2 {
				return usageError("reports download ID [-o PATH]")
			}
			return downloadReport(ctx, env, args[1], args[2:])
		}
	}

	fs := newFlags(env, "reports")
	status := fs.String("status", "all", "all|pending|completed|failed")
	query := fs.String("q", "", "search report name, target file or report id")
	if err := fs.Parse(args); err != nil || fs.NArg() > 0 {
		return usageError(reportsUsage)
	}
	filter := docs.ReportFilter{Status: docs.ReportStatus(*status), Query: *query}
	if filter.Status != "all" && !filter.Status.Valid() {
		return usageError(reportsUsage)
	}

	reports, err := env.Reports.ListReports(ctx)
	if err != nil {
		return fail(NoticeLoadReports, err)
	}
	reports = docs.FilterReports(reports, filter)
	fmt.Fprintf(env.Out, "查重报告 (%d)\n", len(reports))
	writeReports(env.Out, reports, env.now())
	return nil
}

func showReport(ctx context.Context, env *Env, raw string) error {
	id, err := parseID(raw)
	if err != nil {
		return usageError("reports show ID")
	}
	r, err := env.Reports.GetReport(ctx, id)
	if err != nil {
		return fail(NoticeLoadReports, err)
	}
	writeReport(env.Out, r, env.now())
	return nil
}

func deleteReport(ctx context.Context, env *Env, raw string) error {
	id, err := parseID(raw)
	if err != nil {
		return usageError("reports delete ID")
	}
	if err := env.Reports.DeleteReport(ctx, id); err != nil {
		return fail(NoticeDelete, err)
	}
	_ = audit.LogEvent(ctx, audit.EventReportDeleted, map[string]any{"report": id})
	fmt.Fprintln(env.Out, "删除成功")
	return nil
}

// downloadReport writes the rendered report next to the working directory
// unless -o names another path. A partial file is removed on failure.
func downloadReport(ctx context.Context, env *Env, raw string, args []string) error {
	id, err := parseID(raw)
	if err != nil {
		return usageError("reports download ID [-o PATH]")
	}
	fs := newFlags(env, "reports download")
	out := fs.String("o", "", "output path")
	if err := fs.Parse(args); err != nil || fs.NArg() > 0 {
		return usageError("reports download ID [-o PATH]")
	}

	dest := *out
	if dest == "" {
		r, err := env.Reports.GetReport(ctx, id)
		if err != nil {
			return fail(NoticeDownload, err)
		}
		dest = filepath.Base(docs.DownloadName(r))
	}

	body, err := env.Reports.DownloadReport(ctx, id)
	if err != nil {
		return fail(NoticeDownload, err)
	}
	defer body.Close()

	f, err := os.Create(dest)
	if err != nil {
		return fail(NoticeDownload, err)
	}
	n, copyErr := io.Copy(f, body)
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(dest)
		return fail(NoticeDownload, err)
	}
	fmt.Fprintf(env.Out, "已保存 %s (%s)\n", dest, size(n))
	return nil
}
