package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	domainerrors "trustnet/pkg/domain-errors"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError translates domain errors to the JSON error envelope. Internal
// errors keep their detail out of the response body.
func writeError(w http.ResponseWriter, err error) {
	code := domainerrors.CodeOf(err)
	body := map[string]string{"error": string(code)}
	var de domainerrors.Error
	if errors.As(err, &de) && code != domainerrors.CodeInternal {
		body["error_description"] = de.Message
	}
	writeJSON(w, domainerrors.ToHTTPStatus(code), body)
}
