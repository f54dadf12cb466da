package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"ghostchat/db"
	"ghostchat/models"
	"ghostchat/telegram"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "GhostChat API",
		"version": "1.0.0",
	})
}

func (s *Server) handleOnline(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"online": s.registry.ListLive()})
}

func (s *Server) handleAuthTelegram(w http.ResponseWriter, r *http.Request) {
	var body struct {
		InitData   string `json:"init_data"`
		TelegramID string `json:"telegram_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	telegramID := body.TelegramID
	if telegramID == "" {
		id, err := s.validator.Validate(body.InitData)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid telegram data")
			return
		}
		telegramID = id
	}

	if telegramID == "" {
		writeError(w, http.StatusBadRequest, "missing telegram_id")
		return
	}

	user, err := s.db.GetUserByTelegramID(telegramID)
	if err == nil {
		writeJSON(w, http.StatusOK, user)
		return
	}
	if !errors.Is(err, db.ErrNoRows) {
		s.logger.Error("auth lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	user, err = s.db.CreateUser(telegramID)
	if err != nil {
		s.logger.Error("user creation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	telegramID := r.URL.Query().Get("telegram_id")
	if telegramID == "" {
		writeError(w, http.StatusBadRequest, "missing telegram_id")
		return
	}

	user, err := s.db.GetUserByTelegramID(telegramID)
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		s.logger.Error("user lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	telegramID := r.URL.Query().Get("telegram_id")
	if telegramID == "" {
		writeError(w, http.StatusBadRequest, "missing telegram_id")
		return
	}

	var upd models.UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.db.UpdateUser(telegramID, upd)
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		s.logger.Error("user update failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleSearchUser(w http.ResponseWriter, r *http.Request) {
	anonymousID := r.URL.Query().Get("anonymous_id")
	if anonymousID == "" {
		writeError(w, http.StatusBadRequest, "missing anonymous_id")
		return
	}

	user, err := s.db.GetUserByAnonymousID(anonymousID)
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		s.logger.Error("user search failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, models.PublicProfile{
		AnonymousID: user.AnonymousID,
		Name:        user.Name,
		Status:      user.Status,
		Gender:      user.Gender,
		AvatarURL:   user.AvatarURL,
		IsOnline:    s.registry.IsLive(user.AnonymousID),
	})
}

func (s *Server) handleAddContact(w http.ResponseWriter, r *http.Request) {
	telegramID := r.URL.Query().Get("telegram_id")
	if telegramID == "" {
		writeError(w, http.StatusBadRequest, "missing telegram_id")
		return
	}

	var body struct {
		TargetAnonymousID string `json:"target_anonymous_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.TargetAnonymousID == "" {
		writeError(w, http.StatusBadRequest, "missing target_anonymous_id")
		return
	}

	user, err := s.db.GetUserByTelegramID(telegramID)
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		s.logger.Error("contact add lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if _, err := s.db.GetUserByAnonymousID(body.TargetAnonymousID); err != nil {
		if errors.Is(err, db.ErrNoRows) {
			writeError(w, http.StatusNotFound, "target user not found")
			return
		}
		s.logger.Error("contact target lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if user.AnonymousID == body.TargetAnonymousID {
		writeError(w, http.StatusBadRequest, "cannot add yourself")
		return
	}

	exists, err := s.db.ContactExists(user.ID, body.TargetAnonymousID)
	if err != nil {
		s.logger.Error("contact check failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if exists {
		writeError(w, http.StatusBadRequest, "contact already added")
		return
	}

	contactID, err := s.db.AddContact(user.ID, body.TargetAnonymousID)
	if err != nil {
		s.logger.Error("contact add failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message":    "Contact added",
		"contact_id": contactID,
	})
}

func (s *Server) handleRemoveContact(w http.ResponseWriter, r *http.Request) {
	telegramID := r.URL.Query().Get("telegram_id")
	if telegramID == "" {
		writeError(w, http.StatusBadRequest, "missing telegram_id")
		return
	}
	contactAnonymousID := mux.Vars(r)["contact_anonymous_id"]

	user, err := s.db.GetUserByTelegramID(telegramID)
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		s.logger.Error("contact remove lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	// Удаление идемпотентно: отсутствующий контакт — не ошибка
	if err := s.db.DeleteContact(user.ID, contactAnonymousID); err != nil && !errors.Is(err, db.ErrNoRows) {
		s.logger.Error("contact remove failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Contact removed"})
}

func (s *Server) handleGetContacts(w http.ResponseWriter, r *http.Request) {
	telegramID := r.URL.Query().Get("telegram_id")
	if telegramID == "" {
		writeError(w, http.StatusBadRequest, "missing telegram_id")
		return
	}

	user, err := s.db.GetUserByTelegramID(telegramID)
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		s.logger.Error("contacts lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	contacts, err := s.db.GetContacts(user.ID)
	if err != nil {
		s.logger.Error("contacts list failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	// Единственное место, где CRUD читает состояние реестра
	for i := range contacts {
		contacts[i].IsOnline = s.registry.IsLive(contacts[i].AnonymousID)
	}
	if contacts == nil {
		contacts = []models.Contact{}
	}

	writeJSON(w, http.StatusOK, contacts)
}

// handleTelegramWebhook always acknowledges receipt; internal failures only
// flip the ok flag in the body.
func (s *Server) handleTelegramWebhook(w http.ResponseWriter, r *http.Request) {
	if s.config.BotToken == "" {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		return
	}

	var update telegram.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		s.logger.Error("webhook decode failed", zap.Error(err))
		writeJSON(w, http.StatusOK, map[string]bool{"ok": false})
		return
	}

	if update.Message != nil && update.Message.Text == "/start" {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()
		if err := s.bot.SendLaunchMessage(ctx, update.Message.Chat.ID, s.config.WebAppURL); err != nil {
			s.logger.Error("launch message failed", zap.Int64("chat", update.Message.Chat.ID), zap.Error(err))
			writeJSON(w, http.StatusOK, map[string]bool{"ok": false})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
