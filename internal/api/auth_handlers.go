package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"

	"github.com/campusbook/appointment-booking/internal/auth"
	"github.com/campusbook/appointment-booking/internal/booking"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func registerHandler(svc *booking.Service, secret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		if req.FullName == "" {
			writeError(w, http.StatusBadRequest, "invalid_input", "full_name is required")
			return
		}
		if !emailPattern.MatchString(req.Email) {
			writeError(w, http.StatusBadRequest, "invalid_input", "email is not valid")
			return
		}
		if len(req.Password) < 8 {
			writeError(w, http.StatusBadRequest, "invalid_input", "password must be at least 8 characters")
			return
		}
		role := booking.Role(req.Role)
		if role != booking.RoleStudent && role != booking.RoleStaff {
			writeError(w, http.StatusBadRequest, "invalid_input", "role must be student or staff")
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		profile, err := svc.Register(r.Context(), booking.RegisterParams{
			Email:        req.Email,
			PasswordHash: hash,
			Role:         role,
			FullName:     req.FullName,
			Phone:        req.Phone,
			Department:   req.Department,
		})
		if err != nil {
			handleServiceError(w, err)
			return
		}

		tok, err := auth.MakeToken(profile.ID.String(), profile.UserID.String(), string(profile.Role), secret)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, AuthResponse{Token: tok, Profile: toProfileResponse(profile)})
	}
}

func loginHandler(svc *booking.Service, secret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "invalid_input", "email and password are required")
			return
		}

		cred, err := svc.CredentialByEmail(r.Context(), req.Email)
		if err != nil {
			if errors.Is(err, booking.ErrCredentialNotFound) {
				writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
				return
			}
			handleServiceError(w, err)
			return
		}

		if !auth.CheckPassword(cred.PasswordHash, req.Password) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
			return
		}

		profile, err := svc.ProfileByUserID(r.Context(), cred.UserID)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		tok, err := auth.MakeToken(profile.ID.String(), profile.UserID.String(), string(profile.Role), secret)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, AuthResponse{Token: tok, Profile: toProfileResponse(profile)})
	}
}

func meHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := GetPrincipal(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_token", "authentication required")
			return
		}
		profile, err := svc.Profile(r.Context(), p.ProfileID)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toProfileResponse(profile))
	}
}

func updateMeHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := GetPrincipal(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_token", "authentication required")
			return
		}

		var req UpdateProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.FullName == "" {
			writeError(w, http.StatusBadRequest, "invalid_input", "full_name is required")
			return
		}

		profile, err := svc.UpdateProfile(r.Context(), p.Actor(), req.FullName, req.Phone, req.Department)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toProfileResponse(profile))
	}
}

func listStaffHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		staff, err := svc.ListStaff(r.Context())
		if err != nil {
			handleServiceError(w, err)
			return
		}
		out := make([]ProfileResponse, len(staff))
		for i := range staff {
			out[i] = toProfileResponse(&staff[i])
		}
		writeJSON(w, http.StatusOK, out)
	}
}
