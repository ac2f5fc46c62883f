package httpapi

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"wordcheck.org/internal/audit"
	"wordcheck.org/internal/auth"
	"wordcheck.org/internal/docs"
	"wordcheck.org/internal/ids"
	"wordcheck.org/internal/obs"
	"wordcheck.org/internal/records"
)

const (
	msgFileNotFound   = "文件不存在"
	msgTargetNotFound = "目标文件不存在"
	msgSourceNotFound = "比对文件不存在"
)

func (a *API) listFiles(w http.ResponseWriter, r *http.Request) {
	files, err := a.files(r.Context())
	if err != nil {
		storeError(w, r, err, msgFileNotFound)
		return
	}
	writeJSON(w, http.StatusOK, files)
}

// uploadFile stores the blob first, then the record; a failed record write
// removes the blob again.
func (a *API) uploadFile(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, docs.ErrFileTooLarge.Error())
			return
		}
		writeError(w, r, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	name := filepath.Base(strings.TrimSpace(header.Filename))
	contentType := header.Header.Get("Content-Type")
	if err := docs.ValidateUpload(name, contentType, header.Size); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if header.Size > a.maxUpload {
		writeError(w, r, http.StatusRequestEntityTooLarge, docs.ErrFileTooLarge.Error())
		return
	}

	ctx := r.Context()
	object := ids.ObjectName(name)
	if err := a.blobs.Put(ctx, object, file, header.Size, contentType); err != nil {
		obs.Error("blob put failed", err, map[string]any{"object": object})
		writeError(w, r, http.StatusInternalServerError, "upload failed")
		return
	}

	wf := docs.WordFile{
		Filename:     object,
		OriginalName: name,
		FileSize:     header.Size,
		UploadTime:   a.now().UTC(),
		Uploader:     uploader(ctx),
	}
	rec, err := records.Encode(wf)
	if err == nil {
		rec, err = a.records.Create(ctx, collFiles, rec)
	}
	if err != nil {
		if rmErr := a.blobs.Remove(ctx, object); rmErr != nil {
			obs.Error("blob cleanup failed", rmErr, map[string]any{"object": object})
		}
		storeError(w, r, err, msgFileNotFound)
		return
	}
	wf.ID = rec.ID()
	obs.ObserveUpload()
	_ = audit.LogEvent(ctx, audit.EventFileUploaded, map[string]any{
		"file_id": wf.ID, "name": wf.OriginalName, "size": wf.FileSize,
	})
	writeJSON(w, http.StatusCreated, wf)
}

func (a *API) deleteFile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	ctx := r.Context()
	wf, err := a.file(ctx, id)
	if err != nil {
		storeError(w, r, err, msgFileNotFound)
		return
	}
	if err := a.records.Delete(ctx, collFiles, id); err != nil {
		storeError(w, r, err, msgFileNotFound)
		return
	}
	if wf.Filename != "" {
		if err := a.blobs.Remove(ctx, wf.Filename); err != nil {
			obs.Error("blob remove failed", err, map[string]any{"object": wf.Filename, "file_id": id})
		}
	}
	_ = audit.LogEvent(ctx, audit.EventFileDeleted, map[string]any{"file_id": id, "name": wf.OriginalName})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) compareFiles(w http.ResponseWriter, r *http.Request) {
	var req docs.ComparisonRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	report, status, msg := a.runComparison(r.Context(), req)
	if status != 0 {
		writeError(w, r, status, msg)
		return
	}
	report.Status = docs.StatusCompleted
	writeJSON(w, http.StatusOK, docs.CompareResponse{
		CompareResults: report.Results,
		Report:         report,
	})
}

// runComparison resolves the files and simulates the results. A non-zero
// status means the request was rejected with msg.
func (a *API) runComparison(ctx context.Context, req docs.ComparisonRequest) (docs.Report, int, string) {
	if err := req.Validate(); err != nil {
		return docs.Report{}, http.StatusBadRequest, err.Error()
	}
	target, err := a.file(ctx, req.TargetFileID)
	if err != nil {
		return docs.Report{}, lookupStatus(err), msgTargetNotFound
	}
	sources := make([]docs.WordFile, 0, len(req.SourceFileIDs))
	for _, id := range req.SourceFileIDs {
		if id == req.TargetFileID {
			continue
		}
		src, err := a.file(ctx, id)
		if err != nil {
			return docs.Report{}, lookupStatus(err), msgSourceNotFound
		}
		sources = append(sources, src)
	}
	if len(sources) == 0 {
		return docs.Report{}, http.StatusBadRequest, docs.ErrNoSources.Error()
	}
	results := simulate(target, sources, req.Sensitivity)
	return docs.Report{
		GenerateDate:      a.now().UTC(),
		TargetFile:        target,
		CompareFiles:      sources,
		Results:           results,
		OverallSimilarity: overall(results),
	}, 0, ""
}

func lookupStatus(err error) int {
	if errors.Is(err, records.ErrNotFound) {
		return http.StatusNotFound
	}
	obs.Error("file lookup failed", err, nil)
	return http.StatusInternalServerError
}

func (a *API) file(ctx context.Context, id int64) (docs.WordFile, error) {
	rec, err := a.records.Get(ctx, collFiles, id)
	if err != nil {
		return docs.WordFile{}, err
	}
	return records.Decode[docs.WordFile](rec)
}

func (a *API) files(ctx context.Context) ([]docs.WordFile, error) {
	recs, err := a.records.List(ctx, collFiles)
	if err != nil {
		return nil, err
	}
	return records.DecodeAll[docs.WordFile](recs)
}

func uploader(ctx context.Context) string {
	if p, ok := auth.ProfileFromContext(ctx); ok && p.Username != "" {
		return p.Username
	}
	return "anonymous"
}
