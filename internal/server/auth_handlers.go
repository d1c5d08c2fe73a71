package server

import (
	"net/http"

	"github.com/wolfeidau/multicloud/internal/apierr"
	"github.com/wolfeidau/multicloud/internal/auth"
	mchttp "github.com/wolfeidau/multicloud/internal/http"
	"github.com/wolfeidau/multicloud/internal/validation"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func sessionMeta(r *http.Request) auth.SessionMeta {
	return auth.SessionMeta{
		UserAgent: r.UserAgent(),
		IPAddress: mchttp.ClientIPFromContext(r.Context()),
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if err := decodeJSON(r, &in); err != nil {
		apierr.Write(w, r, err)
		return
	}

	account, err := s.cfg.Issuer.Register(r.Context(), in)
	if err != nil {
		apierr.Write(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, account)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeJSON(r, &in); err != nil {
		apierr.Write(w, r, err)
		return
	}

	var v validation.Messages
	v.Email(in.Email)
	v.Required("password", in.Password)
	if err := v.Err(); err != nil {
		apierr.Write(w, r, err)
		return
	}

	pair, err := s.cfg.Issuer.Login(r.Context(), in.Email, in.Password, sessionMeta(r))
	if err != nil {
		apierr.Write(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, pair)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if err := decodeJSON(r, &in); err != nil {
		apierr.Write(w, r, err)
		return
	}

	var v validation.Messages
	v.Required("refreshToken", in.RefreshToken)
	if err := v.Err(); err != nil {
		apierr.Write(w, r, err)
		return
	}

	pair, err := s.cfg.Issuer.Refresh(r.Context(), in.RefreshToken, sessionMeta(r))
	if err != nil {
		apierr.Write(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, pair)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims, err := caller(r)
	if err != nil {
		apierr.Write(w, r, err)
		return
	}

	if err := s.cfg.Issuer.Logout(r.Context(), claims.SessionID, claims.Subject); err != nil {
		apierr.Write(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	claims, err := caller(r)
	if err != nil {
		apierr.Write(w, r, err)
		return
	}

	account, err := s.cfg.Issuer.Me(r.Context(), claims.Subject)
	if err != nil {
		apierr.Write(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, account)
}
