package client

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"wordcheck.org/internal/docs"
)

func reportPath(id int64) string { return "/reports/" + strconv.FormatInt(id, 10) }

// GenerateReport asks the service to persist a report for the request.
func (c *Client) GenerateReport(ctx context.Context, in docs.GenerateReportRequest) (docs.Report, error) {
	req, err := c.jsonRequest(http.MethodPost, "/reports/generate", in)
	if err != nil {
		return docs.Report{}, err
	}
	var out docs.Report
	if err := c.do(ctx, req, &out); err != nil {
		return docs.Report{}, err
	}
	return out, nil
}

func (c *Client) ListReports(ctx context.Context) ([]docs.Report, error) {
	req, _ := c.jsonRequest(http.MethodGet, "/reports", nil)
	var out []docs.Report
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetReport(ctx context.Context, id int64) (docs.Report, error) {
	req, _ := c.jsonRequest(http.MethodGet, reportPath(id), nil)
	var out docs.Report
	if err := c.do(ctx, req, &out); err != nil {
		return docs.Report{}, err
	}
	return out, nil
}

func (c *Client) DeleteReport(ctx context.Context, id int64) error {
	req, _ := c.jsonRequest(http.MethodDelete, reportPath(id), nil)
	return c.do(ctx, req, nil)
}

// DownloadReport streams the rendered report. The caller closes the reader;
// the request timeout covers the whole transfer.
func (c *Client) DownloadReport(ctx context.Context, id int64) (io.ReadCloser, error) {
	req, _ := c.jsonRequest(http.MethodGet, reportPath(id)+"/download", nil)
	resp, cancel, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	return cancelOnClose{ReadCloser: resp.Body, cancel: cancel}, nil
}
