package media

import (
	"mime"
	"net/http"
	"os"
	"path/filepath"
)

// ContentType resolves the MIME type of a stored file: extension lookup
// first, content sniffing as fallback. Identical in direct and
// accel-redirect serving modes.
func ContentType(abs string) string {
	if ctype := mime.TypeByExtension(filepath.Ext(abs)); ctype != "" {
		return ctype
	}

	f, err := os.Open(abs)
	if err != nil {
		return "application/octet-stream"
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && n == 0 {
		return "application/octet-stream"
	}
	return http.DetectContentType(buf[:n])
}
