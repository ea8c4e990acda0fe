package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/gophagenda/internal/server/models"
	"github.com/dmitrijs2005/gophagenda/internal/wire"
)

func (s *Server) sendInvitation(w http.ResponseWriter, r *http.Request, me string) {
	var req wire.InvitationSendRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.invitations.Send(r.Context(), me, req.ReceiverUsernameHashed, req.InvitationEncryptedSigned); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) listRequests(w http.ResponseWriter, r *http.Request, me string) {
	items, err := s.invitations.Requests(r.Context(), me)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvitationList(items))
}

func (s *Server) listResponses(w http.ResponseWriter, r *http.Request, me string) {
	items, err := s.invitations.Responses(r.Context(), me)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvitationList(items))
}

func (s *Server) respondInvitation(w http.ResponseWriter, r *http.Request, me string) {
	var req wire.InvitationRespondRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	err := s.invitations.Respond(r.Context(), me, r.PathValue("senderUsernameHashed"), req.InvitationEncryptedSigned)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteInvitation(w http.ResponseWriter, r *http.Request, me string) {
	if err := s.invitations.Delete(r.Context(), me, r.PathValue("usernameHashed")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toInvitationList(items []*models.Invitation) wire.InvitationList {
	out := wire.InvitationList{Invitations: make([]wire.Invitation, 0, len(items))}
	for _, it := range items {
		out.Invitations = append(out.Invitations, wire.Invitation{
			SenderUsernameHashed:      it.SenderUsernameHashed,
			ReceiverUsernameHashed:    it.ReceiverUsernameHashed,
			InvitationEncryptedSigned: it.InvitationEncryptedSigned,
			IsResponse:                it.IsResponse,
		})
	}
	return out
}
