package upload

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validJPEG(name string) File {
	return File{OriginalName: name, Mimetype: "image/jpeg", Size: 1024}
}

func TestValidateFile(t *testing.T) {
	tests := []struct {
		name       string
		file       *File
		wantValid  bool
		wantErrors []string
	}{
		{
			name:      "valid jpeg",
			file:      &File{OriginalName: "aadhaar.jpg", Mimetype: "image/jpeg", Size: 1024},
			wantValid: true,
		},
		{
			name:      "valid pdf at exact size ceiling",
			file:      &File{OriginalName: "license.pdf", Mimetype: "application/pdf", Size: MaxFileSize},
			wantValid: true,
		},
		{
			name:       "nil file short-circuits",
			file:       nil,
			wantValid:  false,
			wantErrors: []string{"No file provided"},
		},
		{
			name:      "unknown mimetype",
			file:      &File{OriginalName: "notes.txt", Mimetype: "text/plain", Size: 1024},
			wantValid: false,
			wantErrors: []string{
				"Invalid file type. Allowed types: image/jpeg, image/jpg, image/png, application/pdf",
			},
		},
		{
			name:       "one byte over the ceiling",
			file:       &File{OriginalName: "big.png", Mimetype: "image/png", Size: MaxFileSize + 1},
			wantValid:  false,
			wantErrors: []string{"File too large. Maximum size: 5MB"},
		},
		{
			name:       "dangerous extension with allowed mimetype",
			file:       &File{OriginalName: "payload.exe", Mimetype: "image/png", Size: 1024},
			wantValid:  false,
			wantErrors: []string{"File type not allowed for security reasons"},
		},
		{
			name:       "dangerous extension is case insensitive",
			file:       &File{OriginalName: "payload.EXE", Mimetype: "image/png", Size: 1024},
			wantValid:  false,
			wantErrors: []string{"File type not allowed for security reasons"},
		},
		{
			name:      "every rule violated at once",
			file:      &File{OriginalName: "payload.bat", Mimetype: "application/zip", Size: MaxFileSize * 2},
			wantValid: false,
			wantErrors: []string{
				"Invalid file type. Allowed types: image/jpeg, image/jpg, image/png, application/pdf",
				"File too large. Maximum size: 5MB",
				"File type not allowed for security reasons",
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := ValidateFile(tc.file)
			assert.Equal(t, tc.wantValid, result.IsValid)
			assert.Equal(t, tc.wantErrors, result.Errors)
		})
	}
}

func TestValidateBatch(t *testing.T) {
	t.Run("empty batch is invalid", func(t *testing.T) {
		result := ValidateBatch(nil)
		assert.False(t, result.IsValid)
		assert.Equal(t, []string{"No files provided"}, result.Errors)
		assert.Empty(t, result.ValidFiles)
	})

	t.Run("all valid", func(t *testing.T) {
		files := []File{validJPEG("a.jpg"), validJPEG("b.jpg"), validJPEG("c.jpg")}
		result := ValidateBatch(files)
		assert.True(t, result.IsValid)
		assert.Empty(t, result.Errors)
		assert.Len(t, result.ValidFiles, 3)
	})

	t.Run("six valid files still rejected by count limit", func(t *testing.T) {
		files := make([]File, 6)
		for i := range files {
			files[i] = validJPEG(fmt.Sprintf("doc%d.jpg", i))
		}
		result := ValidateBatch(files)
		assert.False(t, result.IsValid)
		assert.Equal(t, []string{"Maximum 5 files allowed per upload"}, result.Errors)
		// Individually valid members are still surfaced for the caller.
		assert.Len(t, result.ValidFiles, 6)
	})

	t.Run("per-file errors carry one-based index prefix", func(t *testing.T) {
		files := []File{
			validJPEG("good.jpg"),
			{OriginalName: "bad.txt", Mimetype: "text/plain", Size: 1024},
			{OriginalName: "huge.png", Mimetype: "image/png", Size: MaxFileSize + 1},
		}
		result := ValidateBatch(files)
		assert.False(t, result.IsValid)
		require.Len(t, result.Errors, 2)
		assert.True(t, strings.HasPrefix(result.Errors[0], "File 2: "))
		assert.True(t, strings.HasPrefix(result.Errors[1], "File 3: "))
		require.Len(t, result.ValidFiles, 1)
		assert.Equal(t, "good.jpg", result.ValidFiles[0].OriginalName)
	})

	t.Run("multi-rule failures join into one line per file", func(t *testing.T) {
		files := []File{{OriginalName: "x.bat", Mimetype: "application/zip", Size: MaxFileSize + 1}}
		result := ValidateBatch(files)
		require.Len(t, result.Errors, 1)
		assert.Contains(t, result.Errors[0], "File 1: ")
		assert.Contains(t, result.Errors[0], "Invalid file type")
		assert.Contains(t, result.Errors[0], "File too large")
		assert.Contains(t, result.Errors[0], "not allowed for security reasons")
	})
}

func TestGenerateSecureFilename(t *testing.T) {
	t.Run("uses canonical extension from mimetype", func(t *testing.T) {
		name := GenerateSecureFilename("my passport scan.jpeg", "image/jpeg")
		assert.True(t, strings.HasSuffix(name, ".jpg"), "got %q", name)
		assert.NotContains(t, name, "passport")
		assert.NotContains(t, name, " ")
	})

	t.Run("falls back to original extension for unknown mimetype", func(t *testing.T) {
		name := GenerateSecureFilename("scan.tiff", "image/tiff")
		assert.True(t, strings.HasSuffix(name, ".tiff"), "got %q", name)
	})

	t.Run("successive names do not collide", func(t *testing.T) {
		seen := make(map[string]struct{})
		for i := 0; i < 50; i++ {
			name := GenerateSecureFilename("doc.pdf", "application/pdf")
			_, dup := seen[name]
			require.False(t, dup, "duplicate name %q", name)
			seen[name] = struct{}{}
		}
	})

	t.Run("never echoes a traversal-shaped original name", func(t *testing.T) {
		name := GenerateSecureFilename("../../etc/passwd", "image/png")
		assert.NotContains(t, name, "..")
		assert.NotContains(t, name, "/")
	})
}

func TestCleanup(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "staged.pdf")
	require.NoError(t, os.WriteFile(existing, []byte("data"), 0o644))
	missing := filepath.Join(dir, "already-gone.pdf")

	Cleanup(slog.Default(), []string{existing, missing})

	_, err := os.Stat(existing)
	assert.True(t, os.IsNotExist(err))
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads", "documents")
	require.NoError(t, EnsureDir(dir))
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
