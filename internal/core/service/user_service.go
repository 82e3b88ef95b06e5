package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/mern-eats/my-user-gateway/internal/core/domain"
	"github.com/mern-eats/my-user-gateway/internal/core/ports"
)

// MsgProfileUpdated is the success toast for UpdateMyUser.
const MsgProfileUpdated = "User profile updated!"

// UserService exposes the current user's profile operations on top of the
// remote user API, mapping outcomes to notifications and operation state.
type UserService struct {
	api      ports.UserAPI
	notifier ports.Notifier
	states   *StateTracker
	log      zerolog.Logger
	now      func() time.Time
}

func NewUserService(api ports.UserAPI, notifier ports.Notifier, states *StateTracker, log zerolog.Logger) *UserService {
	if states == nil {
		states = NewStateTracker(0)
	}
	return &UserService{api: api, notifier: notifier, states: states, log: log, now: time.Now}
}

// GetMyUser fetches the profile. Failures set the error state and raise one
// error notification; the error is still returned so the caller can render it.
func (s *UserService) GetMyUser(ctx context.Context, sessionID string) (*domain.User, error) {
	s.states.Begin(sessionID, domain.OpFetchCurrentUser)

	user, err := s.api.FetchCurrentUser(ctx)
	if err != nil {
		s.states.Fail(sessionID, domain.OpFetchCurrentUser, err)
		s.notify(ctx, sessionID, domain.NotificationError, userMessage(err))
		return nil, err
	}

	s.states.Succeed(sessionID, domain.OpFetchCurrentUser)
	return user, nil
}

// CreateMyUser creates the profile record. Errors propagate unchanged and
// produce no notification.
func (s *UserService) CreateMyUser(ctx context.Context, sessionID string, req domain.CreateUserRequest) error {
	s.states.Begin(sessionID, domain.OpCreateUser)

	if err := s.api.CreateUser(ctx, req); err != nil {
		s.states.Fail(sessionID, domain.OpCreateUser, err)
		return err
	}

	s.states.Succeed(sessionID, domain.OpCreateUser)
	return nil
}

// UpdateMyUser saves the profile and returns the server's echo of it. Success
// raises one success notification. Failure raises one error notification and
// then resets the operation back to idle.
func (s *UserService) UpdateMyUser(ctx context.Context, sessionID string, req domain.UpdateUserRequest) (*domain.User, error) {
	s.states.Begin(sessionID, domain.OpUpdateUser)

	user, err := s.api.UpdateUser(ctx, req)
	if err != nil {
		s.notify(ctx, sessionID, domain.NotificationError, userMessage(err))
		s.states.Reset(sessionID, domain.OpUpdateUser)
		return nil, err
	}

	s.states.Succeed(sessionID, domain.OpUpdateUser)
	s.notify(ctx, sessionID, domain.NotificationSuccess, MsgProfileUpdated)
	return user, nil
}

// States returns the per-operation state for a session.
func (s *UserService) States(sessionID string) map[string]OperationState {
	return s.states.Snapshot(sessionID)
}

// Forget clears all operation state of a session.
func (s *UserService) Forget(sessionID string) {
	s.states.Forget(sessionID)
}

func (s *UserService) notify(ctx context.Context, sessionID string, level domain.NotificationLevel, msg string) {
	n := domain.Notification{Level: level, Message: msg, CreatedAt: s.now().UTC()}
	if err := s.notifier.Notify(ctx, sessionID, n); err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID).Str("level", string(level)).Msg("failed to deliver notification")
	}
}

// userMessage is the text shown to the user for err. Remote failures carry
// their static per-operation message and a lost login reads "login required".
func userMessage(err error) string {
	if errors.Is(err, domain.ErrLoginRequired) {
		return domain.ErrLoginRequired.Error()
	}
	var rf *domain.RequestFailedError
	if errors.As(err, &rf) {
		return rf.Message
	}
	return err.Error()
}
