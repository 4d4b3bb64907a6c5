package batch

import (
	"path/filepath"
	"strings"
)

// extensionLabels maps lower-case file extensions to declared format labels.
var extensionLabels = map[string]string{
	".docx": "document/office/word",
	".docm": "document/office/word",
	".dotx": "document/office/word",
	".xlsx": "document/office/excel",
	".xlsm": "document/office/excel",
	".pptx": "document/office/powerpoint",
	".pptm": "document/office/powerpoint",
	".ppsx": "document/office/powerpoint",
	".pdf":  "document/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".webp": "image/webp",
}

// GuessFormat returns the declared format label for path based on its
// extension, or "" when unknown so the dispatcher cascades.
func GuessFormat(path string) string {
	return extensionLabels[strings.ToLower(filepath.Ext(path))]
}
