package client

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strconv"
	"strings"

	"wordcheck.org/internal/docs"
)

// ListFiles returns every stored document.
func (c *Client) ListFiles(ctx context.Context) ([]docs.WordFile, error) {
	req, _ := c.jsonRequest(http.MethodGet, "/files", nil)
	var out []docs.WordFile
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UploadFile sends content as multipart field "file" and returns the stored
// record.
func (c *Client) UploadFile(ctx context.Context, name string, content io.Reader) (docs.WordFile, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(name)))
		h.Set("Content-Type", ContentTypeFor(name))
		part, err := mw.CreatePart(h)
		if err == nil {
			_, err = io.Copy(part, content)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req := request{
		method:      http.MethodPost,
		path:        "/files/upload",
		body:        pr,
		contentType: mw.FormDataContentType(),
	}
	var out docs.WordFile
	err := c.do(ctx, req, &out)
	// Unblock the writer goroutine when the request ended before reading
	// the whole body.
	pr.Close()
	if err != nil {
		return docs.WordFile{}, err
	}
	return out, nil
}

// DeleteFile removes one document by id.
func (c *Client) DeleteFile(ctx context.Context, id int64) error {
	req, _ := c.jsonRequest(http.MethodDelete, "/files/"+strconv.FormatInt(id, 10), nil)
	return c.do(ctx, req, nil)
}

// CompareFiles forwards a comparison request verbatim.
func (c *Client) CompareFiles(ctx context.Context, in docs.ComparisonRequest) (docs.CompareResponse, error) {
	req, err := c.jsonRequest(http.MethodPost, "/files/compare", in)
	if err != nil {
		return docs.CompareResponse{}, err
	}
	var out docs.CompareResponse
	if err := c.do(ctx, req, &out); err != nil {
		return docs.CompareResponse{}, err
	}
	return out, nil
}

// ContentTypeFor picks the upload MIME type from the file extension.
func ContentTypeFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".doc":
		return "application/msword"
	default:
		return "application/octet-stream"
	}
}
