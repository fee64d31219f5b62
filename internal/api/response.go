// Helper functions for sending standardized JSON and CSV responses.

package api

import (
	"encoding/csv"
	"encoding/json"
	"net/http"

	"github.com/jszwec/csvutil"
	log "github.com/sirupsen/logrus"
)

// RespondWithJSON writes a JSON response with the given status code and payload.
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to marshal response")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// RespondWithError writes a standardized JSON error response.
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, map[string]string{"error": message})
}

// RespondWithCSV writes rows as a CSV attachment. header is a zero value
// of the row type so the header line is written even when rows is empty.
func RespondWithCSV(w http.ResponseWriter, filename string, header, rows interface{}) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	if err := enc.EncodeHeader(header); err != nil {
		log.WithError(err).Error("failed to encode CSV header")
		return
	}
	if err := enc.Encode(rows); err != nil {
		log.WithError(err).Error("failed to encode CSV rows")
		return
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		log.WithError(err).Error("failed to write CSV")
	}
}
