package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/gophagenda/internal/common"
	"github.com/dmitrijs2005/gophagenda/internal/token"
	"github.com/dmitrijs2005/gophagenda/internal/wire"
)

func (s *Server) ownPrivateKey(w http.ResponseWriter, r *http.Request, me string) {
	key, err := s.accounts.PrivateKeyEncryptedArmored(r.Context(), me)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.PrivateKeyResponse{PrivateKeyEncryptedArmored: key})
}

func (s *Server) ownPublicKey(w http.ResponseWriter, r *http.Request, me string) {
	s.writePublicKey(w, r, me)
}

func (s *Server) publicKey(w http.ResponseWriter, r *http.Request, _ string) {
	s.writePublicKey(w, r, r.PathValue("usernameHashed"))
}

func (s *Server) writePublicKey(w http.ResponseWriter, r *http.Request, usernameHashed string) {
	key, err := s.accounts.PublicKeyArmored(r.Context(), usernameHashed)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.PublicKeyResponse{PublicKeyArmored: key})
}

func (s *Server) getMetadata(w http.ResponseWriter, r *http.Request, me string) {
	md, err := s.accounts.Metadata(r.Context(), me)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.Metadata{MetadataEncryptedSigned: md})
}

func (s *Server) putMetadata(w http.ResponseWriter, r *http.Request, me string) {
	var req wire.Metadata
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.accounts.UpdateMetadata(r.Context(), me, req.MetadataEncryptedSigned); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request, me string) {
	if err := s.accounts.Delete(r.Context(), me); err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.Info(r.Context(), "account deleted", "username_hashed", me)
	w.Header().Set("Clear-Site-Data", `"cache", "cookies", "storage"`)
	http.SetCookie(w, token.ClearCookie())
	http.Redirect(w, r, common.AppEntryPath, http.StatusSeeOther)
}

func (s *Server) export(w http.ResponseWriter, r *http.Request, me string) {
	if s.exporter == nil {
		http.NotFound(w, r)
		return
	}
	url, err := s.exporter.Export(r.Context(), me)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.metrics.ExportsUploaded.Inc()
	writeJSON(w, http.StatusCreated, wire.ExportResponse{URL: url})
}
