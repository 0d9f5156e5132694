package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"edu-task-portal/internal/guard"
	"edu-task-portal/internal/model"
	"edu-task-portal/pkg/apierror"
)

func writeSuccess(w http.ResponseWriter, status int, data any) {
	writeResponse(w, status, model.APIResponse{
		Success: true,
		Data:    data,
	})
}

func writeResponse(w http.ResponseWriter, status int, body model.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func badRequest(message string, details string) error {
	return apierror.New("BAD_REQUEST", message, details, http.StatusBadRequest)
}

// writeError maps an error to the portal envelope. Anything that means the
// session is gone carries a redirect to the entry page.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	redirect := ""
	body := &model.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "Unexpected server error",
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		body.Message = apiErr.Message
		body.Details = apiErr.Details
		body.Code = apiErr.Code
		status = apiErr.HTTPStatus

		switch apiErr.Kind {
		case apierror.KindApplication:
			// The backend said no with a 200; surface it as a client error.
			body.Code = "REJECTED"
			status = http.StatusBadRequest
		case apierror.KindMissingToken:
			body.Code = "NO_TOKEN"
			status = http.StatusBadGateway
		case apierror.KindUnauthorized:
			redirect = guard.EntryPath
		case apierror.KindTransport, apierror.KindDecode:
			if apiErr.Err != nil {
				body.Details = apiErr.Err.Error()
			}
		}
		if status == 0 {
			status = http.StatusInternalServerError
		}
	} else if errors.Is(err, model.ErrNotAuthenticated) {
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "Authentication required"
		redirect = guard.EntryPath
	} else if errors.Is(err, model.ErrInvalidRole) {
		status = http.StatusBadRequest
		body.Code = "INVALID_ROLE"
		body.Message = "Role must be one of admin, teacher, student"
		body.Details = err.Error()
	} else if errors.Is(err, model.ErrRouteNotFound) {
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Route not found"
	} else if errors.Is(err, model.ErrInvalidInput) {
		status = http.StatusBadRequest
		body.Code = "BAD_REQUEST"
		body.Message = "Invalid input"
		body.Details = err.Error()
	} else {
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	writeResponse(w, status, model.APIResponse{
		Success:  false,
		Error:    body,
		Redirect: redirect,
	})
}
