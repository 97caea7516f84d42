package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"chatd/internal/config"
	"chatd/internal/security"
	"chatd/internal/service"
)

var validate = validator.New()

type signupRequest struct {
	FullName        string `json:"fullName" validate:"required,max=100"`
	Username        string `json:"username" validate:"required,min=3,max=50"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
	Gender          string `json:"gender" validate:"required,oneof=male female"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// userResponse is the public user shape; it never carries the password digest.
type userResponse struct {
	ID         int64  `json:"id"`
	FullName   string `json:"fullName"`
	Username   string `json:"username"`
	ProfilePic string `json:"profilePic"`
	Gender     string `json:"gender"`
}

func handleSignup(authSvc *service.AuthService, cfg *config.Config, tokens *security.TokenService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req signupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		if err := validate.Struct(req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user data"})
			return
		}

		res, err := authSvc.Signup(r.Context(), service.SignupInput{
			FullName:        req.FullName,
			Username:        req.Username,
			Password:        req.Password,
			ConfirmPassword: req.ConfirmPassword,
			Gender:          req.Gender,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}

		security.SetSessionCookie(w, res.Token, tokens.TTL(), !cfg.IsDevelopment())
		writeJSON(w, http.StatusCreated, userResponse{
			ID:         res.User.ID,
			FullName:   res.User.FullName,
			Username:   res.User.Username,
			ProfilePic: res.User.ProfilePic,
			Gender:     res.User.Gender,
		})
	}
}

func handleLogin(authSvc *service.AuthService, cfg *config.Config, tokens *security.TokenService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		if err := validate.Struct(req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "username and password are required"})
			return
		}

		res, err := authSvc.Login(r.Context(), service.LoginInput{
			Username: req.Username,
			Password: req.Password,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}

		security.SetSessionCookie(w, res.Token, tokens.TTL(), !cfg.IsDevelopment())
		writeJSON(w, http.StatusOK, userResponse{
			ID:         res.User.ID,
			FullName:   res.User.FullName,
			Username:   res.User.Username,
			ProfilePic: res.User.ProfilePic,
			Gender:     res.User.Gender,
		})
	}
}

func handleLogout(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		security.ClearSessionCookie(w, !cfg.IsDevelopment())
		writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
	}
}

func handleMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		if user == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		writeJSON(w, http.StatusOK, userResponse{
			ID:         user.ID,
			FullName:   user.FullName,
			Username:   user.Username,
			ProfilePic: user.ProfilePic,
			Gender:     user.Gender,
		})
	}
}
