package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/gophagenda/internal/server/models"
	"github.com/dmitrijs2005/gophagenda/internal/wire"
)

// getEvent is a POST so the capability never shows up in a URL.
func (s *Server) getEvent(w http.ResponseWriter, r *http.Request, _ string) {
	var req wire.EventGetRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	env, err := s.events.Get(r.Context(), r.PathValue("id"), req.PasswordHashed)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.EventGetResponse{EventEncryptedSigned: env})
}

func (s *Server) createEvent(w http.ResponseWriter, r *http.Request, me string) {
	var req wire.EventPutRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	err := s.events.Create(r.Context(), &models.Event{
		ID:                   req.ID,
		PasswordHashed:       req.PasswordHashed,
		OwnerUsernameHashed:  me,
		EventEncryptedSigned: req.EventEncryptedSigned,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) updateEvent(w http.ResponseWriter, r *http.Request, _ string) {
	var req wire.EventPutRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.events.Update(r.Context(), req.ID, req.PasswordHashed, req.EventEncryptedSigned); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteEvent(w http.ResponseWriter, r *http.Request, me string) {
	var req wire.EventDeleteRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.events.Delete(r.Context(), req.ID, me); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
