package server

import (
	"net/http"

	"github.com/wolfeidau/multicloud/internal/apierr"
	"github.com/wolfeidau/multicloud/internal/directory"
)

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.cfg.Users.List(r.Context())
	if err != nil {
		apierr.Write(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, users)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		apierr.Write(w, r, err)
		return
	}

	user, err := s.cfg.Users.Get(r.Context(), id)
	if err != nil {
		apierr.Write(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, user)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	claims, err := caller(r)
	if err != nil {
		apierr.Write(w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		apierr.Write(w, r, err)
		return
	}

	var in directory.UpdateUserInput
	if err := decodeJSON(r, &in); err != nil {
		apierr.Write(w, r, err)
		return
	}

	user, err := s.cfg.Users.Update(r.Context(), claims.Subject, id, in)
	if err != nil {
		apierr.Write(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, user)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	claims, err := caller(r)
	if err != nil {
		apierr.Write(w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		apierr.Write(w, r, err)
		return
	}

	res, err := s.cfg.Users.Delete(r.Context(), claims.Subject, id)
	if err != nil {
		apierr.Write(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) handleCreateOrganization(w http.ResponseWriter, r *http.Request) {
	claims, err := caller(r)
	if err != nil {
		apierr.Write(w, r, err)
		return
	}

	var in directory.CreateOrganizationInput
	if err := decodeJSON(r, &in); err != nil {
		apierr.Write(w, r, err)
		return
	}

	org, err := s.cfg.Organizations.Create(r.Context(), claims.Subject, in)
	if err != nil {
		apierr.Write(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, org)
}

func (s *Server) handleListOrganizations(w http.ResponseWriter, r *http.Request) {
	claims, err := caller(r)
	if err != nil {
		apierr.Write(w, r, err)
		return
	}

	orgs, err := s.cfg.Organizations.List(r.Context(), claims.Subject)
	if err != nil {
		apierr.Write(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, orgs)
}

func (s *Server) handleGetOrganization(w http.ResponseWriter, r *http.Request) {
	claims, err := caller(r)
	if err != nil {
		apierr.Write(w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		apierr.Write(w, r, err)
		return
	}

	org, err := s.cfg.Organizations.Get(r.Context(), claims.Subject, id)
	if err != nil {
		apierr.Write(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, org)
}

func (s *Server) handleUpdateOrganization(w http.ResponseWriter, r *http.Request) {
	claims, err := caller(r)
	if err != nil {
		apierr.Write(w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		apierr.Write(w, r, err)
		return
	}

	var in directory.UpdateOrganizationInput
	if err := decodeJSON(r, &in); err != nil {
		apierr.Write(w, r, err)
		return
	}

	org, err := s.cfg.Organizations.Update(r.Context(), claims.Subject, id, in)
	if err != nil {
		apierr.Write(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, org)
}

func (s *Server) handleDeleteOrganization(w http.ResponseWriter, r *http.Request) {
	claims, err := caller(r)
	if err != nil {
		apierr.Write(w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		apierr.Write(w, r, err)
		return
	}

	res, err := s.cfg.Organizations.Delete(r.Context(), claims.Subject, id)
	if err != nil {
		apierr.Write(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	claims, err := caller(r)
	if err != nil {
		apierr.Write(w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		apierr.Write(w, r, err)
		return
	}

	var in directory.AddMemberInput
	if err := decodeJSON(r, &in); err != nil {
		apierr.Write(w, r, err)
		return
	}

	membership, err := s.cfg.Organizations.AddMember(r.Context(), claims.Subject, id, in)
	if err != nil {
		apierr.Write(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, membership)
}

func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	claims, err := caller(r)
	if err != nil {
		apierr.Write(w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		apierr.Write(w, r, err)
		return
	}
	userID, err := pathUUID(r, "userId")
	if err != nil {
		apierr.Write(w, r, err)
		return
	}

	res, err := s.cfg.Organizations.RemoveMember(r.Context(), claims.Subject, id, userID)
	if err != nil {
		apierr.Write(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}
