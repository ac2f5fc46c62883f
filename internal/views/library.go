package views

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"wordcheck.org/internal/audit"
	"wordcheck.org/internal/docs"
)

// Library is the word-library view: list, upload and delete documents.
func Library(ctx context.Context, env *Env, args []string) error {
	if len(args) > 0 {
		switch args[0] {
		case "upload":
			if len(args) != 2 {
				return usageError("files upload PATH")
			}
			return upload(ctx, env, args[1])
		case "delete":
			if len(args) != 2 {
				return usageError("files delete ID")
			}
			return deleteFile(ctx, env, args[1])
		}
	}

	fs := newFlags(env, "files")
	query := fs.String("q", "", "search original name or uploader")
	if err := fs.Parse(args); err != nil || fs.NArg() > 0 {
		return usageError("files [-q TEXT] | files upload PATH | files delete ID")
	}
	files, err := env.Files.ListFiles(ctx)
	if err != nil {
		return fail(NoticeLoadFiles, err)
	}
	files = docs.FilterFiles(files, *query)
	fmt.Fprintf(env.Out, "素材库 (%d)\n", len(files))
	writeFiles(env.Out, files, env.now())
	return nil
}

// upload validates the document locally before anything is sent.
func upload(ctx context.Context, env *Env, path string) error {
	name := filepath.Base(path)
	info, err := os.Stat(path)
	if err != nil {
		return fail(NoticeUpload, err)
	}
	if info.IsDir() {
		return invalid(docs.ErrNotWordDocument)
	}
	if err := docs.ValidateUpload(name, "", info.Size()); err != nil {
		return invalid(err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fail(NoticeUpload, err)
	}
	defer f.Close()

	stored, err := env.Files.UploadFile(ctx, name, f)
	if err != nil {
		return fail(NoticeUpload, err)
	}
	_ = audit.LogEvent(ctx, audit.EventFileUploaded, map[string]any{
		"file_id": stored.ID,
		"name":    stored.OriginalName,
		"size":    stored.FileSize,
	})
	fmt.Fprintf(env.Out, "%s 上传成功\n", name)
	writeFiles(env.Out, []docs.WordFile{stored}, env.now())
	return nil
}

func deleteFile(ctx context.Context, env *Env, raw string) error {
	id, err := parseID(raw)
	if err != nil {
		return usageError("files delete ID")
	}
	if err := env.Files.DeleteFile(ctx, id); err != nil {
		return fail(NoticeDelete, err)
	}
	_ = audit.LogEvent(ctx, audit.EventFileDeleted, map[string]any{"file_id": id})
	fmt.Fprintln(env.Out, "删除成功")
	return nil
}
