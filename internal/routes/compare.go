package routes

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"visual-comparator/internal/comparison"
	"visual-comparator/internal/raster"
)

// Compare handles a multipart comparison request: file fields "actual"
// and "expected", plus optional "threshold", "compareRegions" and
// "excludeRegions" form values (region lists are JSON arrays).
// Precondition failures from the engine surface as 400s with the
// engine's message; they are caller bugs, not server faults.
func Compare(comparator *comparison.Comparator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		actual, err := formImage(r, "actual")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		expected, err := formImage(r, "expected")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		var threshold float64
		if v := r.FormValue("threshold"); v != "" {
			threshold, err = strconv.ParseFloat(v, 64)
			if err != nil {
				http.Error(w, "invalid threshold", http.StatusBadRequest)
				return
			}
		}

		compareRegions, err := comparison.ParseRegions(r.FormValue("compareRegions"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		excludeRegions, err := comparison.ParseRegions(r.FormValue("excludeRegions"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		result, err := comparator.Compare(actual, expected, comparison.Options{
			Threshold:      threshold,
			CompareRegions: compareRegions,
			ExcludeRegions: excludeRegions,
		})
		if err != nil {
			// Every engine error is a deterministic precondition failure.
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			slog.Error("Failed to encode response", "error", err)
		}
	}
}

func formImage(r *http.Request, field string) (*raster.Image, error) {
	file, _, err := r.FormFile(field)
	if err != nil {
		return nil, errors.New("missing file field: " + field)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.New("failed to read file field: " + field)
	}

	img, err := raster.Decode(data)
	if err != nil {
		return nil, errors.New("failed to decode file field: " + field)
	}
	return img, nil
}
