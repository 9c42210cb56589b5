package main

import (
	"encoding/json"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

type postRegisterRequest struct {
	Location    string `json:"location"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	NeedPremium *bool  `json:"needPremium"`
}

func (r postRegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Location, validation.Required, validation.Length(1, 15)),
		validation.Field(&r.Title, validation.Required, validation.Length(1, 85)),
		validation.Field(&r.Content, validation.Required),
		validation.Field(&r.NeedPremium, validation.NotNil),
	)
}

func (a *App) HandleCreatePost(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req postRegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeValidationError(w, validationMap(err))
		return
	}

	// Premium posts require an unexpired premium product.
	if *req.NeedPremium {
		product, err := a.DB.GetProductByUserID(identity.UserID)
		if err != nil {
			writeErrorType(w, err)
			return
		}
		if product == nil {
			writeErrorType(w, errProductNotFound)
			return
		}
		if !product.IsPremiumAt(time.Now()) {
			writeErrorType(w, errPremiumRequired)
			return
		}
	}

	if _, err := a.DB.CreatePost(identity.UserID, req.Location, req.Title, req.Content, *req.NeedPremium); err != nil {
		writeErrorType(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, nil)
}
