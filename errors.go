package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
)

// ErrorType classifies every failure the API can surface. The message is the
// stable user-facing text; internal detail never reaches the response body.
type ErrorType struct {
	Status  int
	Code    string
	Message string
	// Severe marks errors logged at error level; everything else logs at info.
	Severe bool
}

func (e *ErrorType) Error() string { return e.Message }

var (
	errDefault           = &ErrorType{http.StatusInternalServerError, "DEFAULT_ERROR", "An unexpected error has occurred", true}
	errInvalidRequest    = &ErrorType{http.StatusBadRequest, "INVALID_REQUEST", "Request validation failed", false}
	errDuplicatedEmail   = &ErrorType{http.StatusConflict, "DUPLICATED_EMAIL", "Email is already in use", false}
	errLoginFail         = &ErrorType{http.StatusUnauthorized, "LOGIN_FAIL", "Invalid email or password", false}
	errInvalidToken      = &ErrorType{http.StatusUnauthorized, "INVALID_TOKEN", "Invalid token", false}
	errTokenExpired      = &ErrorType{http.StatusUnauthorized, "TOKEN_EXPIRED", "Token has expired", false}
	errUnauthorizedToken = &ErrorType{http.StatusUnauthorized, "UNAUTHORIZED_TOKEN", "Unauthorized token", false}
	errUserNotFound      = &ErrorType{http.StatusNotFound, "USER_NOT_FOUND", "User not found", false}
	errLoginRequired     = &ErrorType{http.StatusUnauthorized, "LOGIN_REQUIRED", "Login required", false}
	errProductNotFound   = &ErrorType{http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found", false}
	errPremiumRequired   = &ErrorType{http.StatusPaymentRequired, "PRODUCT_PREMIUM_REQUIRED", "Product premium required", false}
)

// APIError is the JSON error envelope.
type APIError struct {
	Code        string            `json:"error_code"`
	Message     string            `json:"error_message"`
	Validations map[string]string `json:"validations,omitempty"`
}

// writeError writes a structured error response
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIError{
		Code:    code,
		Message: message,
	})
}

// writeErrorType maps any error onto its ErrorType and writes the envelope.
// Unclassified errors are logged at error level and surface as a generic 500.
func writeErrorType(w http.ResponseWriter, err error) {
	var et *ErrorType
	if !errors.As(err, &et) {
		log.Printf("unexpected error: %v", err)
		et = errDefault
	} else if et.Severe {
		log.Printf("error: %s", et.Code)
	} else {
		log.Printf("request failed: %s", et.Code)
	}
	writeError(w, et.Status, et.Code, et.Message)
}

// writeValidationError reports per-field validation failures.
func writeValidationError(w http.ResponseWriter, validations map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(errInvalidRequest.Status)
	json.NewEncoder(w).Encode(APIError{
		Code:        errInvalidRequest.Code,
		Message:     errInvalidRequest.Message,
		Validations: validations,
	})
}
