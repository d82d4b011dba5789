// Package upload validates document upload candidates before they are
// accepted into a seller's document set and generates collision-free storage
// names. Validation is side effect free; writing and deleting files is the
// caller's responsibility.
package upload

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxFileSize is the inclusive per-file size ceiling in bytes (5 MiB).
const MaxFileSize = 5 * 1024 * 1024

// MaxFilesPerBatch caps how many files a single submission may carry.
const MaxFilesPerBatch = 5

// allowedMimetypes maps accepted mimetypes to their canonical extensions.
// Iteration goes through allowedMimetypeOrder so error messages are stable.
var allowedMimetypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/jpg":       ".jpg",
	"image/png":       ".png",
	"application/pdf": ".pdf",
}

var allowedMimetypeOrder = []string{"image/jpeg", "image/jpg", "image/png", "application/pdf"}

// dangerousExtensions are rejected regardless of the declared mimetype.
var dangerousExtensions = map[string]struct{}{
	".exe": {}, ".bat": {}, ".cmd": {}, ".scr": {},
	".pif": {}, ".vbs": {}, ".js": {}, ".jar": {},
}

// File describes an upload candidate. Path is where the transport layer
// staged the bytes; it is carried through untouched so the caller can clean
// up after downstream failures.
type File struct {
	OriginalName string
	Mimetype     string
	Size         int64
	Path         string
}

// Result reports every rule a single file violated, not just the first.
type Result struct {
	IsValid bool
	Errors  []string
}

// BatchResult aggregates per-file results. ValidFiles holds the members that
// passed individually even when the batch as a whole is rejected.
type BatchResult struct {
	IsValid    bool
	Errors     []string
	ValidFiles []File
}

// ValidateFile checks one upload candidate against the mimetype allowlist,
// the size ceiling and the extension denylist, accumulating all violations.
func ValidateFile(file *File) Result {
	if file == nil {
		return Result{IsValid: false, Errors: []string{"No file provided"}}
	}

	var errs []string

	if _, ok := allowedMimetypes[file.Mimetype]; !ok {
		errs = append(errs, fmt.Sprintf("Invalid file type. Allowed types: %s",
			strings.Join(allowedMimetypeOrder, ", ")))
	}

	if file.Size > MaxFileSize {
		errs = append(errs, fmt.Sprintf("File too large. Maximum size: %dMB", MaxFileSize/(1024*1024)))
	}

	ext := strings.ToLower(filepath.Ext(file.OriginalName))
	if _, dangerous := dangerousExtensions[ext]; dangerous {
		errs = append(errs, "File type not allowed for security reasons")
	}

	return Result{IsValid: len(errs) == 0, Errors: errs}
}

// ValidateBatch checks a submission of files. The batch size limit is policy
// and applies independently of per-file validity: a batch of six valid files
// is still rejected. Per-file errors carry a 1-based index prefix.
func ValidateBatch(files []File) BatchResult {
	if len(files) == 0 {
		return BatchResult{IsValid: false, Errors: []string{"No files provided"}, ValidFiles: []File{}}
	}

	var errs []string
	validFiles := make([]File, 0, len(files))

	if len(files) > MaxFilesPerBatch {
		errs = append(errs, fmt.Sprintf("Maximum %d files allowed per upload", MaxFilesPerBatch))
	}

	for i := range files {
		result := ValidateFile(&files[i])
		if !result.IsValid {
			errs = append(errs, fmt.Sprintf("File %d: %s", i+1, strings.Join(result.Errors, ", ")))
			continue
		}
		validFiles = append(validFiles, files[i])
	}

	return BatchResult{IsValid: len(errs) == 0, Errors: errs, ValidFiles: validFiles}
}

// GenerateSecureFilename produces a storage name of the shape
// <unix-ms>_<random-token><ext>. The extension comes from the mimetype map,
// falling back to the original extension for unrecognized mimetypes. The
// original name itself is never echoed into the result.
func GenerateSecureFilename(originalName, mimetype string) string {
	ext, ok := allowedMimetypes[mimetype]
	if !ok {
		ext = strings.ToLower(filepath.Ext(originalName))
	}
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:13]
	return fmt.Sprintf("%d_%s%s", time.Now().UnixMilli(), token, ext)
}

// EnsureDir creates the upload directory if it does not exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

// Cleanup removes already-written files after a downstream failure. Missing
// files are skipped; removal errors are logged and do not stop the sweep.
func Cleanup(logger *slog.Logger, paths []string) {
	for _, p := range paths {
		err := os.Remove(p)
		if err == nil {
			continue
		}
		if os.IsNotExist(err) {
			continue
		}
		if logger != nil {
			logger.Error("failed to remove uploaded file", "path", p, "error", err)
		}
	}
}
