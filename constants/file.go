package constants

import (
	"path/filepath"
	"strings"
)

// FileCategory groups file extensions into coarse classes used for routing
// and dataset bookkeeping.
type FileCategory string

const (
	CategoryDocument     FileCategory = "document"
	CategoryPresentation FileCategory = "presentation"
	CategorySpreadsheet  FileCategory = "spreadsheet"
	CategoryImage        FileCategory = "image"
	CategoryWeb          FileCategory = "web"
	CategoryEbook        FileCategory = "ebook"
	CategoryUnknown      FileCategory = "unknown"
)

var categoryByExt = map[string]FileCategory{
	"pdf":  CategoryDocument,
	"docx": CategoryDocument,
	"doc":  CategoryDocument,
	"odt":  CategoryDocument,
	"rtf":  CategoryDocument,
	"txt":  CategoryDocument,
	"pptx": CategoryPresentation,
	"ppt":  CategoryPresentation,
	"odp":  CategoryPresentation,
	"xlsx": CategorySpreadsheet,
	"xls":  CategorySpreadsheet,
	"csv":  CategorySpreadsheet,
	"ods":  CategorySpreadsheet,
	"png":  CategoryImage,
	"jpg":  CategoryImage,
	"jpeg": CategoryImage,
	"tiff": CategoryImage,
	"tif":  CategoryImage,
	"bmp":  CategoryImage,
	"webp": CategoryImage,
	"gif":  CategoryImage,
	"html": CategoryWeb,
	"htm":  CategoryWeb,
	"epub": CategoryEbook,
}

var mimeByExt = map[string]string{
	"pdf":  "application/pdf",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"doc":  "application/msword",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"xls":  "application/vnd.ms-excel",
	"odt":  "application/vnd.oasis.opendocument.text",
	"rtf":  "application/rtf",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"tiff": "image/tiff",
	"tif":  "image/tiff",
	"bmp":  "image/bmp",
	"webp": "image/webp",
	"gif":  "image/gif",
	"html": "text/html",
	"htm":  "text/html",
	"csv":  "text/csv",
	"txt":  "text/plain",
	"epub": "application/epub+zip",
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// ExtOf returns the normalized extension of path ("" if none).
func ExtOf(path string) string {
	return NormalizeExt(filepath.Ext(path))
}

// CategoryOf maps a normalized extension to its file category.
func CategoryOf(ext string) FileCategory {
	if c, ok := categoryByExt[NormalizeExt(ext)]; ok {
		return c
	}
	return CategoryUnknown
}

// MimeOf returns the MIME type for a normalized extension ("" if unknown).
func MimeOf(ext string) string {
	return mimeByExt[NormalizeExt(ext)]
}
