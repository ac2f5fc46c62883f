package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"wordcheck.org/internal/auth"
	"wordcheck.org/internal/client"
	"wordcheck.org/internal/config"
	"wordcheck.org/internal/docs"
	"wordcheck.org/internal/health"
)

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func main() {
	config.LoadDotEnv()
	baseURL := getenv("WORDCHECK_API_URL", "http://localhost:3001/api")
	healthAddr := getenv("WORDCHECK_HEALTH_ADDR", "localhost:3002")
	creds := auth.Credentials{
		Username: getenv("WORDCHECK_SMOKE_USER", "admin"),
		Password: getenv("WORDCHECK_SMOKE_PASSWORD", "password"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	hc, err := health.Dial(healthAddr)
	if err != nil {
		log.Fatalf("dial health at %s: %v", healthAddr, err)
	}
	defer hc.Close()
	if status, err := hc.Check(ctx); err != nil || status != "SERVING" {
		log.Fatalf("mockapi not serving: status=%q err=%v", status, err)
	}

	var token string
	c, err := client.New(baseURL, client.WithTokenSource(func() string { return token }))
	if err != nil {
		log.Fatalf("client: %v", err)
	}
	grant, err := auth.NewAPIGateway(c).Login(ctx, creds)
	if err != nil {
		log.Fatalf("login: %s (%v)", auth.UserMessage(err), err)
	}
	token = grant.Token

	before, err := c.ListFiles(ctx)
	if err != nil {
		log.Fatalf("list files: %v", err)
	}

	stamp := time.Now().Format("150405")
	target := upload(ctx, c, "smoke-target-"+stamp+".docx")
	source := upload(ctx, c, "smoke-source-"+stamp+".docx")
	defer func() {
		for _, id := range []int64{target.ID, source.ID} {
			if err := c.DeleteFile(context.Background(), id); err != nil {
				log.Printf("cleanup file %d: %v", id, err)
			}
		}
	}()

	after, err := c.ListFiles(ctx)
	if err != nil {
		log.Fatalf("list files: %v", err)
	}
	if len(after) != len(before)+2 {
		log.Fatalf("expected %d files, got %d", len(before)+2, len(after))
	}

	req := docs.ComparisonRequest{TargetFileID: target.ID, SourceFileIDs: []int64{source.ID}, Sensitivity: docs.DefaultSensitivity}
	cmp, err := c.CompareFiles(ctx, req)
	if err != nil {
		log.Fatalf("compare: %v", err)
	}
	if len(cmp.CompareResults) != 1 {
		log.Fatalf("expected 1 result, got %d", len(cmp.CompareResults))
	}

	report, err := c.GenerateReport(ctx, docs.GenerateReportRequest{
		ComparisonRequest: req,
		ReportName:        docs.DefaultReportName(time.Now()),
	})
	if err != nil {
		log.Fatalf("generate: %v", err)
	}
	defer func() {
		if err := c.DeleteReport(context.Background(), report.ID); err != nil {
			log.Printf("cleanup report %d: %v", report.ID, err)
		}
	}()
	if report.Status != docs.StatusCompleted || report.OverallSimilarity != cmp.CompareResults[0].Similarity {
		log.Fatalf("unexpected report: status=%s overall=%.2f", report.Status, report.OverallSimilarity)
	}

	body, err := c.DownloadReport(ctx, report.ID)
	if err != nil {
		log.Fatalf("download: %v", err)
	}
	n, err := io.Copy(io.Discard, body)
	body.Close()
	if err != nil || n == 0 {
		log.Fatalf("download body: %d bytes, %v", n, err)
	}

	fmt.Printf("✅ mockapi smoke test passed: report=%s similarity=%.2f%%\n", report.ReportID, report.OverallSimilarity)
}

func upload(ctx context.Context, c *client.Client, name string) docs.WordFile {
	wf, err := c.UploadFile(ctx, name, bytes.NewReader(bytes.Repeat([]byte("wordcheck "), 512)))
	if err != nil {
		log.Fatalf("upload %s: %v", name, err)
	}
	return wf
}
