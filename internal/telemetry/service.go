package telemetry

import (
	"context"

	"codeberg.org/mutker/robotctl/internal/errors"
	"codeberg.org/mutker/robotctl/internal/logger"
	"github.com/google/uuid"
)

type service struct {
	repo    Repository
	session uuid.UUID
}

// No-op implementation
type noopRecorder struct {
	session uuid.UUID
}

// NewService opens the detection log. Every process run gets its own session
// id so events from different runs can be told apart.
func NewService(cfg Config, log logger.Logger) (Recorder, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	session := uuid.New()

	// If telemetry is disabled, return a no-op recorder
	if !cfg.Enabled {
		log.Debug().Msg("Telemetry disabled, using no-op recorder")
		return &noopRecorder{session: session}, nil
	}

	repo, err := NewRepository(cfg, log)
	if err != nil {
		log.Debug().Err(err).Msg("Failed to create telemetry repository")
		return nil, err
	}

	if err := repo.startSession(session); err != nil {
		repo.Close()
		return nil, err
	}

	log.Debug().
		Str("db_path", cfg.DBPath).
		Str("session", session.String()).
		Msg("Telemetry service initialized successfully")

	return &service{
		repo:    repo,
		session: session,
	}, nil
}

func (s *service) Record(ctx context.Context, event *DetectionEvent) error {
	errFactory := errors.New()

	if event == nil || len(event.Markers) == 0 {
		return errFactory.New(ErrInvalidEvent)
	}

	select {
	case <-ctx.Done():
		return errFactory.Wrap(ErrOperationTimeout, ctx.Err())
	default:
	}

	if event.Session == uuid.Nil {
		event.Session = s.session
	}
	if err := s.repo.Insert(event); err != nil {
		return errFactory.Wrap(ErrRecordEvent, err)
	}

	return nil
}

func (s *service) Session() uuid.UUID {
	return s.session
}

func (s *service) Close() error {
	if err := s.repo.Close(); err != nil {
		return errors.New().Wrap(ErrStorageClose, err)
	}

	return nil
}

func (*noopRecorder) Record(_ context.Context, _ *DetectionEvent) error {
	return nil
}

func (n *noopRecorder) Session() uuid.UUID {
	return n.session
}

func (*noopRecorder) Close() error {
	return nil
}
