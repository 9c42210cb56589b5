package main

import (
	"encoding/json"
	"net/http"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

var (
	passwordPattern = regexp.MustCompile(`^[a-zA-Z0-9!@#$%^&*]*$`)
	nicknamePattern = regexp.MustCompile(`^[a-zA-Z0-9]*$`)
)

type signupRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	Nickname        string `json:"nickname"`
	ProfileImageURL string `json:"profileImageUrl"`
	Bio             string `json:"bio"`
}

func (r signupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 20),
			validation.Match(passwordPattern).Error("must contain alphabets, numbers, and special characters")),
		validation.Field(&r.Nickname, validation.Required, validation.Length(3, 15),
			validation.Match(nicknamePattern).Error("must contain alphabets and numbers")),
		validation.Field(&r.ProfileImageURL, is.URL, validation.Length(0, 512)),
		validation.Field(&r.Bio, validation.Length(0, 100)),
	)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type reissueRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// validationMap flattens ozzo's per-field errors into the response shape.
func validationMap(err error) map[string]string {
	errs, ok := err.(validation.Errors)
	if !ok {
		return map[string]string{"request": err.Error()}
	}
	m := make(map[string]string, len(errs))
	for field, ferr := range errs {
		m[field] = ferr.Error()
	}
	return m
}

func (a *App) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeValidationError(w, validationMap(err))
		return
	}

	existing, err := a.DB.GetUserByEmail(req.Email)
	if err != nil {
		writeErrorType(w, err)
		return
	}
	if existing != nil {
		writeErrorType(w, errDuplicatedEmail)
		return
	}

	hashed, err := hashPassword(req.Password)
	if err != nil {
		writeErrorType(w, err)
		return
	}
	if _, err := a.DB.CreateUser(req.Email, hashed, req.Nickname, req.ProfileImageURL, req.Bio); err != nil {
		// a concurrent signup can still hit the unique constraint; anything
		// else is a real storage failure
		if winner, lookupErr := a.DB.GetUserByEmail(req.Email); lookupErr == nil && winner != nil {
			writeErrorType(w, errDuplicatedEmail)
			return
		}
		writeErrorType(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, nil)
}

func (a *App) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeValidationError(w, map[string]string{"credentials": "email and password are required"})
		return
	}

	pair, err := a.Sessions.Login(req.Email, req.Password)
	if err != nil {
		writeErrorType(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (a *App) HandleReissue(w http.ResponseWriter, r *http.Request) {
	var req reissueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if req.RefreshToken == "" {
		writeValidationError(w, map[string]string{"refreshToken": "refresh token is required"})
		return
	}

	access, err := a.Sessions.Reissue(req.RefreshToken)
	if err != nil {
		writeErrorType(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": access})
}

// HandlePing echoes the authenticated user's id; useful as a token check.
func (a *App) HandlePing(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"userId": identity.UserID})
}
