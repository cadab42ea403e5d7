package logsink

import (
	"context"

	"nutrikid-care-access/internal/platform/logger"
	"nutrikid-care-access/internal/ports/notify"
)

// Sink loguea los eventos de transición en lugar de publicarlos.
// Es el default en dev, cuando no hay broker configurado.
type Sink struct {
	log logger.Logger
}

func New(log logger.Logger) *Sink {
	return &Sink{log: log}
}

func (s *Sink) Emit(ctx context.Context, e notify.Event) error {
	s.log.Info("grant event", map[string]any{
		"event":        e.Name,
		"grant_id":     e.GrantID,
		"clinician_id": e.ClinicianID,
		"guardian_id":  e.GuardianID,
		"profile_id":   e.ProfileID,
	})
	return nil
}
