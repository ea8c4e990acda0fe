package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/gophagenda/internal/common"
	"github.com/dmitrijs2005/gophagenda/internal/server/models"
	"github.com/dmitrijs2005/gophagenda/internal/token"
	"github.com/dmitrijs2005/gophagenda/internal/wire"
)

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req wire.RegisterRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	err := s.accounts.Register(r.Context(), &models.Account{
		UsernameHashed:             req.UsernameHashed,
		PasswordHashed:             req.PasswordHashed,
		PrivateKeyEncryptedArmored: req.PrivateKeyEncryptedArmored,
		PublicKeyArmored:           req.PublicKeyArmored,
		MetadataEncryptedSigned:    req.MetadataEncryptedSigned,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.metrics.Registrations.Inc()
	s.logger.Info(r.Context(), "account registered", "username_hashed", req.UsernameHashed)
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req wire.LoginRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	key, err := s.accounts.Login(r.Context(), req.UsernameHashed, req.PasswordHashed)
	if err != nil {
		s.metrics.AuthFailures.WithLabelValues("credentials").Inc()
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, wire.LoginResponse{PrivateKeyEncryptedArmored: key})
}

func (s *Server) cookie(w http.ResponseWriter, r *http.Request) {
	var req wire.CookieRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	value, payload, err := s.accounts.IssueCookie(r.Context(), req.PayloadSigned)
	if err != nil {
		s.metrics.AuthFailures.WithLabelValues(authFailureReason(err)).Inc()
		s.fail(w, r, err)
		return
	}

	http.SetCookie(w, token.NewCookie(value, payload.ValidUntil))
	writeJSON(w, http.StatusCreated, wire.CookieResponse{
		UsernameHashed: payload.UsernameHashed,
		ValidUntil:     payload.ValidUntil,
	})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Clear-Site-Data", `"cache", "cookies", "storage"`)
	http.SetCookie(w, token.ClearCookie())
	http.Redirect(w, r, common.AuthEntryPath, http.StatusSeeOther)
}
