package notify

import (
	"context"
	"time"
)

// Nombres de eventos de dominio emitidos en cada transición de un grant.
const (
	EventGrantRequested           = "grant.requested"
	EventGrantApproved            = "grant.approved"
	EventGrantRejected            = "grant.rejected"
	EventGrantRevoked             = "grant.revoked"
	EventGrantFullAccessRequested = "grant.full_access_requested"
)

// Event es el payload que viaja al sink. ProfileID puede venir vacío
// cuando el grant todavía es un open request sin perfil asignado.
type Event struct {
	Name        string    `json:"name"`
	GrantID     string    `json:"grant_id"`
	ClinicianID string    `json:"clinician_id"`
	GuardianID  string    `json:"guardian_id"`
	ProfileID   string    `json:"profile_id,omitempty"`
	Message     string    `json:"message,omitempty"`
	At          time.Time `json:"at"`
}

// Sink recibe eventos de transición. La entrega es fire-and-forget:
// un error del sink nunca revierte la mutación del grant.
type Sink interface {
	Emit(ctx context.Context, e Event) error
}
