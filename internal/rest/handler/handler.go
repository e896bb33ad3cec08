// Package handler implements the REST endpoint handlers.
package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/uptrace/bunrouter"
)

// ErrMissingUserID is returned when a request requiring an authenticated
// member carries no X-User-ID header.
var ErrMissingUserID = errors.New("missing X-User-ID header")

// maxBodySize caps request bodies at 1 MiB.
const maxBodySize = 1 << 20

// requestUserID extracts the acting member's ID from the X-User-ID header.
// Authentication itself is terminated upstream; the gateway forwards the
// verified member ID in this header.
func requestUserID(req bunrouter.Request) (int64, error) {
	raw := req.Header.Get("X-User-ID")
	if raw == "" {
		return 0, ErrMissingUserID
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrMissingUserID
	}

	return id, nil
}

// pathID parses a numeric path parameter.
func pathID(req bunrouter.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(req.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}

	return id, true
}

// queryInt reads an integer query parameter, falling back to def when the
// parameter is absent or malformed.
func queryInt(req bunrouter.Request, name string, def int) int {
	raw := req.URL.Query().Get(name)
	if raw == "" {
		return def
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}

	return v
}

// decodeBody unmarshals the JSON request body into dst.
func decodeBody(req bunrouter.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(req.Body, maxBodySize))
	if err != nil {
		return err
	}

	return sonic.Unmarshal(body, dst)
}

// badRequest writes a 400 response with the given message.
func badRequest(w http.ResponseWriter, msg string) error {
	http.Error(w, msg, http.StatusBadRequest)
	return nil
}

// unauthorized writes a 401 response.
func unauthorized(w http.ResponseWriter) error {
	http.Error(w, "missing or invalid user identity", http.StatusUnauthorized)
	return nil
}

// internalError writes a 500 response.
func internalError(w http.ResponseWriter) error {
	http.Error(w, "Internal server error", http.StatusInternalServerError)
	return nil
}
