package grants

import (
	"context"
	"errors"
	"strings"
	"time"

	"nutrikid-care-access/internal/platform/metrics"
	"nutrikid-care-access/internal/ports/notify"

	"github.com/google/uuid"
)

// Taxonomía de errores de negocio. Todos son terminales para el caller;
// el engine no reintenta nada por su cuenta.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrDuplicateGrant    = errors.New("duplicate grant")
	ErrUnknownGuardian   = errors.New("unknown guardian")
	ErrUnknownClinician  = errors.New("unknown clinician")
	ErrUnavailable       = errors.New("unavailable")
)

const (
	roleGuardian  = "guardian"
	roleClinician = "clinician"
)

// AccountDirectory evita importar el paquete accounts (rompe ciclos).
type AccountDirectory interface {
	GuardianByEmail(ctx context.Context, email string) (string, error)
	ClinicianByEmail(ctx context.Context, email string) (string, error)
	RoleOf(ctx context.Context, accountID string) (string, error)
}

// ProfileOwnerLookup evita importar el paquete profiles.
type ProfileOwnerLookup interface {
	OwnerOf(ctx context.Context, profileID string) (string, error)
}

type Service struct {
	repo          Repository
	directory     AccountDirectory
	profileOwners ProfileOwnerLookup
	sink          notify.Sink // puede ser nil (sin notificaciones)
	now           func() time.Time
}

func NewService(repo Repository, directory AccountDirectory, profileOwners ProfileOwnerLookup, sink notify.Sink) *Service {
	return &Service{
		repo:          repo,
		directory:     directory,
		profileOwners: profileOwners,
		sink:          sink,
		now:           time.Now,
	}
}

// RequestAccess crea un open request: el clínico pide acceso al guardián
// por email, sin elegir todavía un perfil. El grant queda pending con
// ProfileID nil hasta que el guardián lo apruebe sobre un perfil concreto.
func (s *Service) RequestAccess(ctx context.Context, clinicianID, guardianEmail, message string) (Grant, error) {
	clinicianID = strings.TrimSpace(clinicianID)
	guardianEmail = strings.TrimSpace(guardianEmail)

	if clinicianID == "" || guardianEmail == "" {
		return Grant{}, ErrInvalidInput
	}
	if err := s.requireRole(ctx, clinicianID, roleClinician); err != nil {
		return Grant{}, err
	}

	guardianID, err := s.directory.GuardianByEmail(ctx, guardianEmail)
	if err != nil || guardianID == "" {
		return Grant{}, ErrUnknownGuardian
	}

	// Un solo open request vivo por par (clínico, guardián). Los grants
	// terminales no bloquean: son historia, no lock.
	if _, err := s.repo.FindOpenRequest(ctx, clinicianID, guardianID); err == nil {
		return Grant{}, ErrDuplicateGrant
	}

	now := s.now()
	g := Grant{
		ID:          uuid.NewString(),
		ClinicianID: clinicianID,
		GuardianID:  guardianID,
		ProfileID:   nil,
		Status:      StatusPending,
		Message:     strings.TrimSpace(message),
		RequestedAt: now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, g); err != nil {
		return Grant{}, mapRepoErr(err)
	}

	s.emit(ctx, notify.EventGrantRequested, g, g.Message)
	return g, nil
}

// InviteClinician crea un grant pending iniciado por el guardián, ya
// ligado a un perfil. El nivel recién se asigna en el approve, para que
// ambos orígenes compartan un único paso de aprobación.
func (s *Service) InviteClinician(ctx context.Context, guardianID, clinicianEmail, profileID, message string) (Grant, error) {
	guardianID = strings.TrimSpace(guardianID)
	clinicianEmail = strings.TrimSpace(clinicianEmail)
	profileID = strings.TrimSpace(profileID)

	if guardianID == "" || clinicianEmail == "" || profileID == "" {
		return Grant{}, ErrInvalidInput
	}
	if err := s.requireRole(ctx, guardianID, roleGuardian); err != nil {
		return Grant{}, err
	}

	clinicianID, err := s.directory.ClinicianByEmail(ctx, clinicianEmail)
	if err != nil || clinicianID == "" {
		return Grant{}, ErrUnknownClinician
	}

	if err := s.requireProfileOwner(ctx, profileID, guardianID); err != nil {
		return Grant{}, err
	}

	if _, err := s.repo.FindActiveOrPending(ctx, clinicianID, profileID); err == nil {
		return Grant{}, ErrDuplicateGrant
	}

	now := s.now()
	g := Grant{
		ID:          uuid.NewString(),
		ClinicianID: clinicianID,
		GuardianID:  guardianID,
		ProfileID:   &profileID,
		Status:      StatusPending,
		Message:     strings.TrimSpace(message),
		RequestedAt: now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, g); err != nil {
		return Grant{}, mapRepoErr(err)
	}

	s.emit(ctx, notify.EventGrantRequested, g, g.Message)
	return g, nil
}

// Approve activa un grant pending (asignando nivel y, para open requests,
// ligando el perfil) o sube de restricted a full un grant ya active.
//
// Idempotente: re-aprobar con los mismos argumentos devuelve el grant sin
// error, para tolerar submits duplicados de la UI.
func (s *Service) Approve(ctx context.Context, actorGuardianID, grantID, profileID string, level Level) (Grant, error) {
	actorGuardianID = strings.TrimSpace(actorGuardianID)
	grantID = strings.TrimSpace(grantID)
	profileID = strings.TrimSpace(profileID)

	if actorGuardianID == "" || grantID == "" {
		return Grant{}, ErrInvalidInput
	}
	if level == "" {
		level = LevelRestricted
	}
	if level != LevelRestricted && level != LevelFull {
		return Grant{}, ErrInvalidInput
	}

	g, err := s.repo.GetByID(ctx, grantID)
	if err != nil {
		return Grant{}, ErrNotFound
	}
	if g.GuardianID != actorGuardianID {
		return Grant{}, ErrForbidden
	}

	switch g.Status {
	case StatusPending:
		return s.approvePending(ctx, actorGuardianID, g, profileID, level)

	case StatusActive:
		// Re-approve con el mismo nivel: no-op exitoso.
		if g.Level == level {
			return g, nil
		}
		// Upgrade restricted -> full; el downgrade no existe (revocar y
		// volver a invitar).
		if g.Level == LevelRestricted && level == LevelFull {
			if profileID != "" && profileID != g.ProfileRef() {
				return Grant{}, ErrInvalidInput
			}
			now := s.now()
			g.Level = LevelFull
			g.FullAccessRequested = false
			g.ResolvedAt = &now
			g.UpdatedAt = now

			if err := s.repo.Update(ctx, g, StatusActive); err != nil {
				return Grant{}, mapRepoErr(err)
			}
			s.emit(ctx, notify.EventGrantApproved, g, "")
			return g, nil
		}
		return Grant{}, ErrInvalidTransition

	default:
		return Grant{}, ErrInvalidTransition
	}
}

func (s *Service) approvePending(ctx context.Context, actorGuardianID string, g Grant, profileID string, level Level) (Grant, error) {
	if g.ProfileID == nil {
		// Open request: el approve es el que liga el perfil.
		if profileID == "" {
			return Grant{}, ErrInvalidInput
		}
		if err := s.requireProfileOwner(ctx, profileID, actorGuardianID); err != nil {
			return Grant{}, err
		}
		// La unicidad pasa de (clínico, guardián) a (clínico, perfil):
		// si otro grant vivo ya cubre el par, este approve no puede crear
		// un segundo.
		if other, err := s.repo.FindActiveOrPending(ctx, g.ClinicianID, profileID); err == nil && other.ID != g.ID {
			return Grant{}, ErrDuplicateGrant
		}
		g.ProfileID = &profileID
	} else if profileID != "" && profileID != g.ProfileRef() {
		return Grant{}, ErrInvalidInput
	}

	now := s.now()
	g.Status = StatusActive
	g.Level = level
	g.FullAccessRequested = false
	g.ResolvedAt = &now
	g.UpdatedAt = now

	if err := s.repo.Update(ctx, g, StatusPending); err != nil {
		return Grant{}, mapRepoErr(err)
	}

	s.emit(ctx, notify.EventGrantApproved, g, "")
	return g, nil
}

// Reject declina un request pending. Idempotente contra rejected.
// No sirve para cortar un grant active: eso es Revoke, y la distinción se
// conserva porque auditan distinto (declinar un pedido vs retirar
// confianza ya dada).
func (s *Service) Reject(ctx context.Context, actorGuardianID, grantID string) (Grant, error) {
	g, err := s.lookupForGuardian(ctx, actorGuardianID, grantID)
	if err != nil {
		return Grant{}, err
	}

	if g.Status == StatusRejected {
		return g, nil
	}
	if g.Status != StatusPending {
		return Grant{}, ErrInvalidTransition
	}

	now := s.now()
	g.Status = StatusRejected
	g.ResolvedAt = &now
	g.UpdatedAt = now

	if err := s.repo.Update(ctx, g, StatusPending); err != nil {
		return Grant{}, mapRepoErr(err)
	}

	s.emit(ctx, notify.EventGrantRejected, g, "")
	return g, nil
}

// Revoke retira un grant active. Idempotente contra revoked.
func (s *Service) Revoke(ctx context.Context, actorGuardianID, grantID string) (Grant, error) {
	g, err := s.lookupForGuardian(ctx, actorGuardianID, grantID)
	if err != nil {
		return Grant{}, err
	}

	if g.Status == StatusRevoked {
		return g, nil
	}
	if g.Status != StatusActive {
		return Grant{}, ErrInvalidTransition
	}

	now := s.now()
	g.Status = StatusRevoked
	g.Level = ""
	g.FullAccessRequested = false
	g.ResolvedAt = &now
	g.UpdatedAt = now

	if err := s.repo.Update(ctx, g, StatusActive); err != nil {
		return Grant{}, mapRepoErr(err)
	}

	s.emit(ctx, notify.EventGrantRevoked, g, "")
	return g, nil
}

// RequestFullAccess marca el pedido de upgrade del clínico sobre un grant
// active restricted. No cambia el nivel: el guardián tiene que aprobar de
// nuevo con level=full para concretarlo.
func (s *Service) RequestFullAccess(ctx context.Context, actorClinicianID, grantID, message string) (Grant, error) {
	actorClinicianID = strings.TrimSpace(actorClinicianID)
	grantID = strings.TrimSpace(grantID)

	if actorClinicianID == "" || grantID == "" {
		return Grant{}, ErrInvalidInput
	}

	g, err := s.repo.GetByID(ctx, grantID)
	if err != nil {
		return Grant{}, ErrNotFound
	}
	if g.ClinicianID != actorClinicianID {
		return Grant{}, ErrForbidden
	}
	if g.Status != StatusActive || g.Level != LevelRestricted {
		return Grant{}, ErrInvalidTransition
	}

	// Idempotente contra doble click
	if g.FullAccessRequested {
		return g, nil
	}

	g.FullAccessRequested = true
	g.ClinicianMessage = strings.TrimSpace(message)
	g.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, g, StatusActive); err != nil {
		return Grant{}, mapRepoErr(err)
	}

	s.emit(ctx, notify.EventGrantFullAccessRequested, g, g.ClinicianMessage)
	return g, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Grant, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Grant{}, ErrInvalidInput
	}
	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Grant{}, ErrNotFound
	}
	return g, nil
}

// ActiveGrant devuelve el grant active para el par, o ErrNotFound si no
// hay ninguno o si el que hay no está active. Es la consulta que usan el
// projector y el escalation gate: se relee en cada llamada, nunca se
// cachea.
func (s *Service) ActiveGrant(ctx context.Context, clinicianID, profileID string) (Grant, error) {
	clinicianID = strings.TrimSpace(clinicianID)
	profileID = strings.TrimSpace(profileID)

	if clinicianID == "" || profileID == "" {
		return Grant{}, ErrInvalidInput
	}

	g, err := s.repo.FindActiveOrPending(ctx, clinicianID, profileID)
	if err != nil {
		return Grant{}, ErrNotFound
	}
	if g.Status != StatusActive {
		return Grant{}, ErrNotFound
	}
	return g, nil
}

func (s *Service) ListPendingForGuardian(ctx context.Context, guardianID string) ([]Grant, error) {
	guardianID = strings.TrimSpace(guardianID)
	if guardianID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListPendingForGuardian(ctx, guardianID)
}

func (s *Service) ListActiveForClinician(ctx context.Context, clinicianID string) ([]Grant, error) {
	clinicianID = strings.TrimSpace(clinicianID)
	if clinicianID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListActiveForClinician(ctx, clinicianID)
}

func (s *Service) lookupForGuardian(ctx context.Context, actorGuardianID, grantID string) (Grant, error) {
	actorGuardianID = strings.TrimSpace(actorGuardianID)
	grantID = strings.TrimSpace(grantID)

	if actorGuardianID == "" || grantID == "" {
		return Grant{}, ErrInvalidInput
	}

	g, err := s.repo.GetByID(ctx, grantID)
	if err != nil {
		return Grant{}, ErrNotFound
	}
	if g.GuardianID != actorGuardianID {
		return Grant{}, ErrForbidden
	}
	return g, nil
}

func (s *Service) requireRole(ctx context.Context, accountID, role string) error {
	got, err := s.directory.RoleOf(ctx, accountID)
	if err != nil {
		return ErrNotFound
	}
	if got != role {
		return ErrForbidden
	}
	return nil
}

func (s *Service) requireProfileOwner(ctx context.Context, profileID, guardianID string) error {
	owner, err := s.profileOwners.OwnerOf(ctx, profileID)
	if err != nil || strings.TrimSpace(owner) == "" {
		return ErrNotFound
	}
	if owner != guardianID {
		return ErrForbidden
	}
	return nil
}

// emit publica el evento de dominio al sink. Fire-and-forget: un fallo de
// entrega jamás revierte la mutación que lo originó.
func (s *Service) emit(ctx context.Context, name string, g Grant, message string) {
	metrics.RecordGrantTransition(name)

	if s.sink == nil {
		return
	}
	_ = s.sink.Emit(ctx, notify.Event{
		Name:        name,
		GrantID:     g.ID,
		ClinicianID: g.ClinicianID,
		GuardianID:  g.GuardianID,
		ProfileID:   g.ProfileRef(),
		Message:     message,
		At:          s.now(),
	})
}

func mapRepoErr(err error) error {
	switch {
	case errors.Is(err, ErrRepoNotFound):
		return ErrNotFound
	case errors.Is(err, ErrRepoDuplicate):
		return ErrDuplicateGrant
	case errors.Is(err, ErrRepoConflict):
		// Perdimos un CAS: otra mutación tocó el grant primero. El caller
		// puede releer y reintentar; acá no reintentamos para no aplicar
		// una mutación dos veces.
		return ErrUnavailable
	default:
		return ErrUnavailable
	}
}
