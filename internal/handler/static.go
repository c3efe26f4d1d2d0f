package handler

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var mimeTypes = map[string]string{
	".html": "text/html; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".js":   "application/javascript; charset=utf-8",
	".json": "application/json; charset=utf-8",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",
}

// Static отдаёт файлы из каталога статики. Запросы с сегментом «..» отклоняются.
func (h *Handler) Static(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Path
	if p == "" || p == "/" {
		p = "/index.html"
	}

	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			h.writeError(w, http.StatusForbidden, "Forbidden")
			return
		}
	}

	full := filepath.Join(h.staticDir, filepath.FromSlash(path.Clean(p)))
	f, err := os.Open(full)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "Not found")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		h.writeError(w, http.StatusNotFound, "Not found")
		return
	}

	ctype, ok := mimeTypes[strings.ToLower(filepath.Ext(full))]
	if !ok {
		ctype = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ctype)
	w.Header().Set("Access-Control-Allow-Origin", "*")

	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
