package services

import (
	"path/filepath"
	"strings"

	"media54/types"
)

var extensionTypes = map[string]types.ItemType{
	"mp3": types.ItemTypeAudio,
	"wav": types.ItemTypeAudio,
	"ogg": types.ItemTypeAudio,

	"mp4": types.ItemTypeVideo,
	"mkv": types.ItemTypeVideo,
	"mov": types.ItemTypeVideo,
	"avi": types.ItemTypeVideo,

	"svg":  types.ItemTypeImage,
	"ico":  types.ItemTypeImage,
	"jpg":  types.ItemTypeImage,
	"png":  types.ItemTypeImage,
	"jpeg": types.ItemTypeImage,
	"gif":  types.ItemTypeImage,
	"bmp":  types.ItemTypeImage,
	"tiff": types.ItemTypeImage,
	"avif": types.ItemTypeImage,
}

var contentTypes = map[string]string{
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"ogg":  "audio/ogg",
	"mp4":  "video/mp4",
	"mkv":  "video/x-matroska",
	"mov":  "video/quicktime",
	"avi":  "video/x-msvideo",
	"svg":  "image/svg+xml",
	"ico":  "image/x-icon",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
	"avif": "image/avif",
}

// fileExt returns the lower-case extension of path without the dot
func fileExt(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// ClassifyFile maps a file name to its item type by extension, case-insensitively.
// Unknown extensions are ItemTypeOther.
func ClassifyFile(path string) types.ItemType {
	if t, ok := extensionTypes[fileExt(path)]; ok {
		return t
	}
	return types.ItemTypeOther
}

// GetContentType returns the MIME type for a staged asset
func GetContentType(path string) string {
	if ct, ok := contentTypes[fileExt(path)]; ok {
		return ct
	}
	return "application/octet-stream"
}
