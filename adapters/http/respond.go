package http

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"

	"github.com/artpar/pageblocks/app"
	"github.com/artpar/pageblocks/core/validation"
	"github.com/artpar/pageblocks/domain/page"
	"github.com/artpar/pageblocks/ports"
)

// ContentType is the media type of every JSON response.
const ContentType = "application/json"

const maxBodyBytes = 1 << 20

// ErrorDocument is the body of every error response.
type ErrorDocument struct {
	Errors []Error `json:"errors"`
}

// Error is a single error object.
type Error struct {
	Status string       `json:"status"`
	Code   string       `json:"code"`
	Title  string       `json:"title"`
	Detail string       `json:"detail,omitempty"`
	Source *ErrorSource `json:"source,omitempty"`
}

// ErrorSource points at the part of the request that caused the error.
type ErrorSource struct {
	Pointer   string `json:"pointer,omitempty"`
	Parameter string `json:"parameter,omitempty"`
}

// StatusCode returns the numeric status, or 0 if it does not parse.
func (e Error) StatusCode() int {
	n, err := strconv.Atoi(e.Status)
	if err != nil {
		return 0
	}
	return n
}

func newError(status int, code, title, detail string) Error {
	return Error{Status: strconv.Itoa(status), Code: code, Title: title, Detail: detail}
}

func errBadRequest(detail string) Error {
	return newError(http.StatusBadRequest, "bad_request", "Bad Request", detail)
}

func errNotFound(detail string) Error {
	return newError(http.StatusNotFound, "not_found", "Not Found", detail)
}

func errConflict(detail string) Error {
	return newError(http.StatusConflict, "conflict", "Conflict", detail)
}

func errInternal() Error {
	return newError(http.StatusInternalServerError, "internal_error", "Internal Server Error", "")
}

func errValidation(v *validation.Error) Error {
	e := newError(http.StatusUnprocessableEntity, string(v.Code), "Validation Failed", v.Message)
	if v.Path != "" {
		e.Source = &ErrorSource{Pointer: pointer(v.Path)}
	}
	return e
}

// pointer converts a dotted validation path such as sections[0].data.title
// into a JSON pointer.
func pointer(path string) string {
	r := strings.NewReplacer("[", "/", "]", "", ".", "/")
	return "/" + r.Replace(path)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, errs ...Error) {
	if len(errs) == 0 {
		errs = []Error{errInternal()}
	}
	status := errs[0].StatusCode()
	if status == 0 {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, ErrorDocument{Errors: errs})
}

// serviceError maps an application error to its wire form. The second
// return is false for errors that should be logged as unexpected.
func serviceError(err error) (Error, bool) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		return errValidation(verr), true
	case errors.Is(err, app.ErrPageNotFound), errors.Is(err, ports.ErrNotFound):
		return errNotFound(err.Error()), true
	case errors.Is(err, app.ErrUnknownBlockType):
		return newError(http.StatusNotFound, "unknown_block_type", "Unknown Block Type", err.Error()), true
	case errors.Is(err, app.ErrSectionIndex):
		return errBadRequest(err.Error()), true
	case errors.Is(err, ports.ErrDuplicate):
		return errConflict(err.Error()), true
	case errors.Is(err, page.ErrInvalidSlug), errors.Is(err, page.ErrInvalidStatus):
		return errBadRequest(err.Error()), true
	default:
		return errInternal(), false
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	return nil
}

// writeCached writes v with a strong ETag computed over its canonical JSON
// form, answering 304 when the client already holds that representation.
// If v cannot be encoded a 500 error document is written and the error is
// returned.
func writeCached(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		writeError(w, errInternal())
		return err
	}
	canonical, err := jsoncanonicalizer.Transform(body)
	if err != nil {
		writeError(w, errInternal())
		return err
	}
	tag := etag(canonical)

	w.Header().Set("ETag", tag)
	if etagMatches(r.Header.Get("If-None-Match"), tag) {
		w.WriteHeader(http.StatusNotModified)
		return nil
	}

	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(canonical)
	return err
}

func etag(canonical []byte) string {
	sum := sha256.Sum256(canonical)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

func etagMatches(header, tag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == tag {
			return true
		}
	}
	return false
}
