package server

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"dogwalk-server/pkg/api"
	"dogwalk-server/pkg/logger"
)

// Типы контента по расширению файла. Всё, чего здесь нет,
// уезжает как application/octet-stream.
var mimeTypes = map[string]string{
	".html": "text/html",
	".htm":  "text/html",
	".css":  "text/css",
	".txt":  "text/plain",
	".js":   "text/javascript",
	".json": "application/json",
	".xml":  "application/xml",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpe":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".ico":  "image/vnd.microsoft.icon",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".svg":  "image/svg+xml",
	".svgz": "image/svg+xml",
	".mp3":  "audio/mpeg",
}

func mimeType(ext string) string {
	if mt, ok := mimeTypes[strings.ToLower(ext)]; ok {
		return mt
	}
	return "application/octet-stream"
}

// StaticHandler раздает файлы фронтенда из каталога --www-root.
// Запросы каталогов отдают index.html; путь, выбирающийся за корень,
// получает pageNotFound.
type StaticHandler struct {
	root string
}

func NewStaticHandler(root string) (*StaticHandler, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve www root %q: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("www root %q: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("www root %q is not a directory", root)
	}
	return &StaticHandler{root: abs}, nil
}

func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeError(w, r, http.StatusMethodNotAllowed, api.CodeInvalidMethod, "Invalid method")
		return
	}

	target, err := url.PathUnescape(r.URL.EscapedPath())
	if err != nil {
		h.notFound(w, r)
		return
	}
	if target == "" || strings.HasSuffix(target, "/") {
		target += "index.html"
	}

	// Join чистит ".." внутри пути, но итог всё равно обязан остаться
	// под корнем: символические запросы вида /%2e%2e/ приходят сюда
	// уже раскодированными.
	full, err := filepath.Abs(filepath.Join(h.root, filepath.FromSlash(target)))
	if err != nil || !h.inRoot(full) {
		h.notFound(w, r)
		return
	}

	info, err := os.Stat(full)
	if err == nil && info.IsDir() {
		full = filepath.Join(full, "index.html")
		info, err = os.Stat(full)
	}
	if err != nil || info.IsDir() {
		h.notFound(w, r)
		return
	}

	f, err := os.Open(full)
	if err != nil {
		h.notFound(w, r)
		return
	}
	defer f.Close()

	head := w.Header()
	head.Set("Content-Type", mimeType(filepath.Ext(full)))
	head.Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	w.WriteHeader(http.StatusOK)

	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, f); err != nil {
		logger.Log.WithError(err).Debug("static file write interrupted")
	}
}

func (h *StaticHandler) inRoot(path string) bool {
	return path == h.root || strings.HasPrefix(path, h.root+string(os.PathSeparator))
}

func (h *StaticHandler) notFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusNotFound, api.CodePageNotFound, "Page not found")
}
