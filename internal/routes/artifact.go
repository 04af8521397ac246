package routes

import (
	"log/slog"
	"net/http"

	"visual-comparator/internal/storage"
)

// GetArtifact streams a stored artifact (baseline, capture or report)
// back to the client. The storage URL comes from a previous comparison
// response.
func GetArtifact(storageClient storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		url := r.URL.Query().Get("url")
		if url == "" {
			http.Error(w, "missing url parameter", http.StatusBadRequest)
			return
		}

		data, err := storageClient.Get(r.Context(), url)
		if err != nil {
			slog.Error("failed to fetch artifact", "url", url, "error", err)
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", http.DetectContentType(data))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
