package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/poiesic/pitwall/core"
)

const internalErrorMessage = "Internal server error"

var validate = validator.New()

// clientErrors are reported to the caller verbatim, most specific first.
var clientErrors = []error{
	core.ErrEmptyHistory,
	core.ErrNoUserMessage,
	core.ErrInvalidRole,
	core.ErrEmptyContent,
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return ErrRequestTooLarge
		}
		return fmt.Errorf("%w: malformed JSON body", ErrBadRequest)
	}
	return nil
}

func validateRequest(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: invalid request", ErrBadRequest)
	}
	fe := verrs[0]
	return fmt.Errorf("%w: %s failed %q validation", ErrBadRequest, fieldPath(fe.Namespace()), fe.Tag())
}

// fieldPath turns "ChatRequest.Messages[0].Role" into "messages[0].role".
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		namespace = rest
	}
	return strings.ToLower(namespace)
}

func encodeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// renderError maps err to a status and a caller-safe message.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := classify(err)
	logger := s.logger.With("request_id", middleware.GetReqID(r.Context()), "status", status)
	if status >= http.StatusInternalServerError {
		logger.Error("chat request failed", "err", err)
	} else {
		logger.Info("chat request rejected", "err", err)
	}
	encodeJSON(w, status, ErrorResponse{Error: msg})
}

func classify(err error) (int, string) {
	if errors.Is(err, core.ErrInvalidMessage) {
		for _, target := range clientErrors {
			if errors.Is(err, target) {
				return http.StatusBadRequest, target.Error()
			}
		}
		return http.StatusBadRequest, core.ErrInvalidMessage.Error()
	}
	if errors.Is(err, ErrRequestTooLarge) {
		return http.StatusRequestEntityTooLarge, ErrRequestTooLarge.Error()
	}
	if errors.Is(err, ErrBadRequest) {
		msg := strings.TrimPrefix(err.Error(), ErrBadRequest.Error()+": ")
		return http.StatusBadRequest, msg
	}
	return http.StatusInternalServerError, internalErrorMessage
}
