package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	appvalidator "github.com/quickshow/quickshow/internal/validator"
)

const (
	CodeNotFound            = "NOT_FOUND"
	CodeValidationError     = "VALIDATION_ERROR"
	CodeSeatUnavailable     = "SEAT_UNAVAILABLE"
	CodeTooManySeats        = "TOO_MANY_SEATS"
	CodeShowInPast          = "SHOW_IN_PAST"
	CodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeInternalError       = "INTERNAL_ERROR"
)

type ErrorResponse struct {
	Code             string    `json:"code"`
	Message          string    `json:"message"`
	ConflictingSeats []string  `json:"conflictingSeats,omitempty"`
	RequestId        string    `json:"requestId,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

func (app *Application) logError(r *http.Request, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.logger.Error(err.Error(), "method", method, "uri", uri)
}

// The errorResponse() method is a generic helper for sending JSON-formatted error
// messages to the client with a given status code.
func (app *Application) errorResponse(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	resp := ErrorResponse{
		Code:      code,
		Message:   message,
		RequestId: middleware.GetReqID(r.Context()),
		Timestamp: time.Now(),
	}

	err := app.writeJSON(w, status, resp, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(500)
	}
}

func (app *Application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)

	message := "The server encountered a problem and could not process your request"
	app.errorResponse(w, r, http.StatusInternalServerError, CodeInternalError, message)
}

func (app *Application) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	message := "The requested resource not found"
	app.errorResponse(w, r, http.StatusNotFound, CodeNotFound, message)
}

func (app *Application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusBadRequest, CodeValidationError, err.Error())
}

func (app *Application) failedValidationResponse(w http.ResponseWriter, r *http.Request, errs validator.ValidationErrors) {
	messages := make([]string, 0, len(errs))
	for _, fieldErr := range errs {
		messages = append(messages, fieldErr.Field()+" "+appvalidator.ValidationMessage(fieldErr))
	}

	app.errorResponse(w, r, http.StatusUnprocessableEntity, CodeValidationError, strings.Join(messages, "; "))
}

func (app *Application) seatsUnavailableResponse(w http.ResponseWriter, r *http.Request, seats []string) {
	resp := ErrorResponse{
		Code:             CodeSeatUnavailable,
		Message:          "One or more of the selected seats were just taken",
		ConflictingSeats: seats,
		RequestId:        middleware.GetReqID(r.Context()),
		Timestamp:        time.Now(),
	}

	err := app.writeJSON(w, http.StatusConflict, resp, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(500)
	}
}

func (app *Application) tooManySeatsResponse(w http.ResponseWriter, r *http.Request, message string) {
	app.errorResponse(w, r, http.StatusUnprocessableEntity, CodeTooManySeats, message)
}

func (app *Application) showInPastResponse(w http.ResponseWriter, r *http.Request) {
	message := "This show has already started"
	app.errorResponse(w, r, http.StatusUnprocessableEntity, CodeShowInPast, message)
}

func (app *Application) upstreamUnavailableResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)

	message := "The movie catalog is temporarily unavailable, please try again later"
	app.errorResponse(w, r, http.StatusBadGateway, CodeUpstreamUnavailable, message)
}

func (app *Application) unauthorizedAccessResponse(w http.ResponseWriter, r *http.Request) {
	message := "You must be authenticated to access this resource"
	app.errorResponse(w, r, http.StatusUnauthorized, CodeUnauthorized, message)
}

func (app *Application) forbiddenResponse(w http.ResponseWriter, r *http.Request) {
	message := "You don't have permission to access this resource"
	app.errorResponse(w, r, http.StatusForbidden, CodeForbidden, message)
}
