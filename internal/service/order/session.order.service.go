package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"voice-order/internal/common/enum"
	"voice-order/internal/common/models"
	types "voice-order/internal/common/type"
	"voice-order/internal/pkg/capture"
	"voice-order/internal/pkg/helper"
	sessionRepo "voice-order/internal/repository/session"
	"voice-order/internal/service/extraction"
)

func (s *Service) view(sess *models.Session) SessionView {
	cp := *sess
	return SessionView{Session: &cp, RecordingElapsed: cp.RecordingElapsed(s.now())}
}

func (s *Service) load(ctx context.Context, id string) (*models.Session, error) {
	sess, err := s.rp.Session.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sessionRepo.ErrNotFound) {
			s.credentials.clear(id)
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		}
		return nil, err
	}
	if sess.HasCredential && s.credentials.get(id) == "" {
		sess.HasCredential = false
	}
	return sess, nil
}

func (s *Service) save(ctx context.Context, sess *models.Session) error {
	sess.UpdatedAt = s.now().UTC()
	sess.StepLabel = sess.Step.Label()
	if err := s.rp.Session.Save(ctx, sess); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	s.credentials.touch(sess.ID)
	s.broker.publish(s.view(sess))
	return nil
}

// mutate loads, changes and saves one session under its lock. Nothing is
// saved when fn returns an error.
func (s *Service) mutate(id string, fn func(sess *models.Session) error) (*models.Session, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	sess, err := s.load(s.ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	if err := s.save(s.ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *Service) notify(sess *models.Session, kind enum.NotificationKindEnum, message string) {
	sess.Notification = &models.Notification{Kind: kind, Message: message, At: s.now().UTC()}
}

// errorResponse maps service errors to status codes with generic messages.
func errorResponse(err error) *types.Response {
	code, message := http.StatusInternalServerError, "Something went wrong"
	switch {
	case errors.Is(err, ErrSessionNotFound):
		code, message = http.StatusNotFound, "Session not found"
	case errors.Is(err, ErrInvalidTransition):
		code, message = http.StatusConflict, "That action is not available right now"
	case errors.Is(err, ErrTransactionInFlight):
		code, message = http.StatusConflict, "A payment is already being processed"
	case errors.Is(err, ErrInvalidInput), errors.Is(err, helper.ErrEmptyAudio):
		code, message = http.StatusBadRequest, "Invalid input"
	case errors.Is(err, extraction.ErrCredentialRequired):
		code, message = http.StatusPreconditionFailed, "Set an API key to use external processing"
	case errors.Is(err, capture.ErrPermissionDenied):
		code, message = http.StatusForbidden, "Microphone access denied"
	case errors.Is(err, extraction.ErrExtractionFailed):
		code, message = http.StatusBadGateway, "Failed to process order"
	}
	return helper.ParseResponse(&types.Response{Code: code, Message: message, Error: err})
}

func (s *Service) ok(code int, message string, sess *models.Session) *types.Response {
	return helper.ParseResponse(&types.Response{Code: code, Message: message, Data: s.view(sess)})
}

func (s *Service) CreateSession(req *CreateSessionRequest) *types.Response {
	if req == nil {
		req = &CreateSessionRequest{}
	}
	mode, useExternal := normalizeMode(req.Mode, req.UseExternalProcessing)
	if !mode.IsValid() {
		return errorResponse(fmt.Errorf("%w: mode %q", ErrInvalidInput, req.Mode))
	}

	now := s.now().UTC()
	sess := &models.Session{
		ID:                    uuid.NewString(),
		Mode:                  mode,
		UseExternalProcessing: useExternal,
		CreatedAt:             now,
	}
	clearWork(sess)

	if err := s.save(s.ctx, sess); err != nil {
		return errorResponse(err)
	}

	data := CreateSessionResponse{Session: s.view(sess)}
	if s.tokens != nil {
		token, exp, err := s.tokens.GenerateSessionToken(sess.ID)
		if err != nil {
			return errorResponse(err)
		}
		data.Token, data.ExpiresAt = token, exp
	}

	return helper.ParseResponse(&types.Response{
		Code:    http.StatusCreated,
		Message: "Session created",
		Data:    data,
	})
}

func (s *Service) GetSession(id string) *types.Response {
	sess, err := s.load(s.ctx, id)
	if err != nil {
		return errorResponse(err)
	}
	return s.ok(http.StatusOK, "Session found", sess)
}

// SetMode switches profile. Only an idle session may switch, and switching
// starts a fresh attempt.
func (s *Service) SetMode(id string, req *SetModeRequest) *types.Response {
	mode, useExternal := normalizeMode(req.Mode, req.UseExternalProcessing)
	if !mode.IsValid() {
		return errorResponse(fmt.Errorf("%w: mode %q", ErrInvalidInput, req.Mode))
	}

	sess, err := s.mutate(id, func(sess *models.Session) error {
		if sess.Step != enum.STEP_IDLE {
			return fmt.Errorf("%w: mode change while %s", ErrInvalidTransition, sess.Step)
		}
		sess.Mode = mode
		sess.UseExternalProcessing = useExternal
		sess.Attempt++
		sess.Notification = nil
		clearWork(sess)
		return nil
	})
	if err != nil {
		return errorResponse(err)
	}
	return s.ok(http.StatusOK, "Mode updated", sess)
}

// Reset returns any session to idle. Results still running for the previous
// attempt are discarded when they land.
func (s *Service) Reset(id string) *types.Response {
	sess, err := s.mutate(id, func(sess *models.Session) error {
		sess.Attempt++
		sess.Notification = nil
		clearWork(sess)
		return nil
	})
	if err != nil {
		return errorResponse(err)
	}
	return s.ok(http.StatusOK, "Session reset", sess)
}

func (s *Service) SetCredential(id string, req *CredentialRequest) *types.Response {
	key := strings.TrimSpace(req.APIKey)
	if key == "" {
		return errorResponse(fmt.Errorf("%w: api key is blank", ErrInvalidInput))
	}

	sess, err := s.mutate(id, func(sess *models.Session) error {
		s.credentials.set(sess.ID, key)
		sess.HasCredential = true
		return nil
	})
	if err != nil {
		return errorResponse(err)
	}
	return s.ok(http.StatusOK, "Credential saved", sess)
}

func (s *Service) ClearCredential(id string) *types.Response {
	sess, err := s.mutate(id, func(sess *models.Session) error {
		s.credentials.clear(sess.ID)
		sess.HasCredential = false
		return nil
	})
	if err != nil {
		return errorResponse(err)
	}
	return s.ok(http.StatusOK, "Credential cleared", sess)
}

func (s *Service) RecordingURL(id string) *types.Response {
	sess, err := s.load(s.ctx, id)
	if err != nil {
		return errorResponse(err)
	}
	if s.archive == nil || sess.RecordingKey == "" {
		return helper.ParseResponse(&types.Response{
			Code:    http.StatusNotFound,
			Message: "No archived recording for this session",
		})
	}

	url, err := s.archive.GetPresignedURL(sess.RecordingKey)
	if err != nil {
		return errorResponse(err)
	}
	return helper.ParseResponse(&types.Response{
		Code:    http.StatusOK,
		Message: "Recording found",
		Data:    RecordingURLResponse{Key: sess.RecordingKey, URL: url},
	})
}

// Subscribe streams snapshots of one session, starting with the current one.
func (s *Service) Subscribe(id string) (*Subscription, *types.Response) {
	unlock := s.locks.lock(id)
	defer unlock()

	sess, err := s.load(s.ctx, id)
	if err != nil {
		return nil, errorResponse(err)
	}

	return s.broker.subscribe(id, s.view(sess)), nil
}
