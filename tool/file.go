package tool

import (
	"fmt"
	"mime"
	"net/url"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"

	"github.com/reasonableperson/etrial-manager/types"
)

// ResolveFileInput turns a path or file:// URL into a DroppedFile with name,
// size and MIME type filled in. The payload itself is read later.
func ResolveFileInput(in types.FileInput) (types.DroppedFile, error) {
	filePath := in.Path
	if in.FileUrl != "" {
		parsedUrl, err := url.Parse(in.FileUrl)
		if err != nil {
			return types.DroppedFile{}, fmt.Errorf("invalid fileUrl: %w", err)
		}
		if parsedUrl.Scheme != "file" {
			return types.DroppedFile{}, fmt.Errorf("only file:// protocol is supported for fileUrl")
		}
		filePath = parsedUrl.Path
	}
	if filePath == "" {
		return types.DroppedFile{}, fmt.Errorf("path or fileUrl is required")
	}
	return GetFileInfoFromPath(filePath)
}

// GetFileInfoFromPath reads file information from local filesystem.
func GetFileInfoFromPath(filePath string) (types.DroppedFile, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return types.DroppedFile{}, fmt.Errorf("failed to stat file: %w", err)
	}
	if fileInfo.IsDir() {
		return types.DroppedFile{}, fmt.Errorf("path is a directory, not a file: %s", filePath)
	}
	return types.DroppedFile{
		Name: filepath.Base(filePath),
		Size: fileInfo.Size(),
		Type: DetectFileType(filePath),
		Path: filePath,
	}, nil
}

// DetectFileType guesses the MIME type from the extension and falls back to
// sniffing the content.
func DetectFileType(filePath string) string {
	if t := mime.TypeByExtension(filepath.Ext(filePath)); t != "" {
		return t
	}
	m, err := mimetype.DetectFile(filePath)
	if err != nil {
		DefaultLogger.Debugf("MIME detection failed for %s: %v", filePath, err)
		return "application/octet-stream"
	}
	return m.String()
}
