package api

import (
	"encoding/json"
	"log"
	"mime"
	"net/http"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/denizumutdereli/moodlens/pkg/api/apierr"
)

const (
	contentTypeJSON    = "application/json"
	contentTypeMsgpack = "application/msgpack"
)

// acceptable reports whether an Accept header admits a type the server can
// produce. An empty header accepts anything.
func acceptable(accept string) bool {
	if strings.TrimSpace(accept) == "" {
		return true
	}
	for _, part := range strings.Split(accept, ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		switch mt {
		case "*/*", "application/*", contentTypeJSON, contentTypeMsgpack, "application/x-msgpack":
			return true
		}
	}
	return false
}

// wantsMsgpack reports whether the client asked for MessagePack.
func wantsMsgpack(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, contentTypeMsgpack) || strings.Contains(accept, "application/x-msgpack")
}

// writeResponse encodes v as JSON or MessagePack depending on the request's
// Accept header.
func writeResponse(w http.ResponseWriter, r *http.Request, status int, v any) {
	if wantsMsgpack(r) {
		blob, err := msgpack.Marshal(v)
		if err != nil {
			apierr.Internal(w, "failed to encode response: "+err.Error())
			return
		}
		w.Header().Set("Content-Type", contentTypeMsgpack)
		w.WriteHeader(status)
		if _, err := w.Write(blob); err != nil {
			log.Printf("⚠ write response: %v", err)
		}
		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("⚠ write response: %v", err)
	}
}

func writeOK(w http.ResponseWriter, r *http.Request, body map[string]any) {
	body["ok"] = true
	body["requestId"] = w.Header().Get(apierr.RequestIDHeader)
	writeResponse(w, r, http.StatusOK, body)
}
