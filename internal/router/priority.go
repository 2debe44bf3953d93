package router

// Extension-aware priority tables. Each extension maps to an ordered list
// of engine names, best first; Select walks the list and picks the first
// registered candidate that is available, compatible, and allowed.
//
// Tuning mirrors how the backends behave in practice: PDFs go to the
// full-layout cloud engines before the local text/OCR path, images go to
// OCR-capable engines, office and markup formats go to the converter.

var imagePriority = []string{
	"gosseract", "textract", "gemini", "mistralocr", "poppler",
}

var officePriority = []string{"docconv", "gemini"}

var extensionPriority = map[string][]string{
	"pdf": {"mistralocr", "textract", "gemini", "poppler", "docconv"},

	"docx": officePriority,
	"doc":  officePriority,
	"pptx": officePriority,
	"ppt":  officePriority,
	"xlsx": officePriority,
	"xls":  officePriority,
	"odt":  {"docconv"},
	"rtf":  {"docconv"},

	"html": {"docconv", "gemini"},
	"htm":  {"docconv", "gemini"},
	"md":   {"docconv"},
	"csv":  {"docconv"},
	"tsv":  {"docconv"},
	"txt":  {"docconv"},

	"png":  imagePriority,
	"jpg":  imagePriority,
	"jpeg": imagePriority,
	"tiff": imagePriority,
	"tif":  imagePriority,
	"bmp":  imagePriority,
	"webp": imagePriority,
	"gif":  {"gemini"},
}

// defaultFallback is the ultimate chain when the extension is unknown or
// absent from the table.
var defaultFallback = []string{
	"mistralocr", "textract", "gemini", "poppler", "docconv", "gosseract",
}
