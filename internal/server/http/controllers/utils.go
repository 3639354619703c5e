package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rzbill/blocklog/internal/blobstore"
)

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeJSON writes a 200 JSON response with the given data.
func writeJSON(w http.ResponseWriter, data any) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// quoteETag renders an ETag as an HTTP entity tag.
func quoteETag(etag blobstore.ETag) string {
	return `"` + string(etag) + `"`
}

// parseETag accepts a quoted or bare entity tag; weak tags are taken as-is.
func parseETag(h string) blobstore.ETag {
	h = strings.TrimSpace(h)
	h = strings.TrimPrefix(h, "W/")
	return blobstore.ETag(strings.Trim(h, `"`))
}
