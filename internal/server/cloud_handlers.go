package server

import (
	"net/http"

	"github.com/wolfeidau/multicloud/internal/apierr"
	"github.com/wolfeidau/multicloud/internal/auth"
	"github.com/wolfeidau/multicloud/internal/cloud"
)

func (s *Server) handleCreateCloudAccount(w http.ResponseWriter, r *http.Request) {
	org := auth.OrganizationFromContext(r.Context())

	var in cloud.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		apierr.Write(w, r, err)
		return
	}

	account, err := s.cfg.Cloud.Create(r.Context(), org.ID, in)
	if err != nil {
		apierr.Write(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, account)
}

func (s *Server) handleListCloudAccounts(w http.ResponseWriter, r *http.Request) {
	org := auth.OrganizationFromContext(r.Context())

	accounts, err := s.cfg.Cloud.List(r.Context(), org.ID)
	if err != nil {
		apierr.Write(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, accounts)
}

func (s *Server) handleCloudCredentials(w http.ResponseWriter, r *http.Request) {
	org := auth.OrganizationFromContext(r.Context())
	id, err := pathUUID(r, "id")
	if err != nil {
		apierr.Write(w, r, err)
		return
	}

	creds, err := s.cfg.Cloud.Credentials(r.Context(), org.ID, id)
	if err != nil {
		apierr.Write(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, creds)
}

func (s *Server) handleCloudNotice(message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		notice, err := cloud.Notice(r.Context(), message)
		if err != nil {
			apierr.Write(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, notice)
	}
}

func (s *Server) handleCloudContext(w http.ResponseWriter, r *http.Request) {
	tc, err := cloud.Describe(r.Context())
	if err != nil {
		apierr.Write(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, tc)
}
