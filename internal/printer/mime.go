package printer

// MIME gating for inbound files. Anything outside these sets is rejected
// before it reaches the dispatcher.

const PDFMime = "application/pdf"

func IsPDF(mime string) bool { return mime == PDFMime }

func IsImage(mime string) bool {
	switch mime {
	case "image/jpeg", "image/png", "image/gif", "image/tiff", "image/webp":
		return true
	}
	return false
}

// IsOffice reports whether the MIME type needs LibreOffice conversion first.
func IsOffice(mime string) bool {
	switch mime {
	case "application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.ms-excel",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/vnd.ms-powerpoint",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
		"application/rtf",
		"text/plain":
		return true
	}
	return false
}

// IsPrintable reports whether the MIME type is accepted at all.
func IsPrintable(mime string) bool {
	return IsPDF(mime) || IsImage(mime) || IsOffice(mime)
}
