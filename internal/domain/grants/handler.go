package grants

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"nutrikid-care-access/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/access", func(ar chi.Router) {
		// Clínico: open request por email del guardián
		ar.Post("/requests", requestAccessHandler(svc))
		// Guardián: pendientes que esperan su decisión
		ar.Get("/requests", listPendingHandler(svc))
		// Guardián: invitación directa sobre un perfil
		ar.Post("/invites", inviteClinicianHandler(svc))

		ar.Route("/grants/{grantID}", func(gr chi.Router) {
			gr.Post("/approve", approveHandler(svc))
			gr.Post("/reject", rejectHandler(svc))
			gr.Post("/revoke", revokeHandler(svc))
			gr.Post("/request-full", requestFullAccessHandler(svc))
		})
	})

	// Clínico: sus pacientes con grant activo
	r.Get("/me/patients", listActiveForClinicianHandler(svc))
}

type requestAccessRequest struct {
	GuardianEmail string `json:"guardian_email"`
	Message       string `json:"message"`
}

type inviteClinicianRequest struct {
	ClinicianEmail string `json:"clinician_email"`
	ProfileID      string `json:"profile_id"`
	Message        string `json:"message"`
}

type approveRequest struct {
	ProfileID string `json:"profile_id"` // requerido solo para open requests
	Level     Level  `json:"level" enums:"restricted,full"`
}

type requestFullRequest struct {
	Message string `json:"message"`
}

type grantResponse struct {
	ID                  string     `json:"id"`
	ClinicianID         string     `json:"clinician_id"`
	GuardianID          string     `json:"guardian_id"`
	ProfileID           string     `json:"profile_id,omitempty"`
	Status              Status     `json:"status"`
	Level               Level      `json:"level,omitempty"`
	FullAccessRequested bool       `json:"full_access_requested"`
	Message             string     `json:"message,omitempty"`
	ClinicianMessage    string     `json:"clinician_message,omitempty"`
	RequestedAt         time.Time  `json:"requested_at"`
	ResolvedAt          *time.Time `json:"resolved_at,omitempty"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// requestAccessHandler godoc
// @Summary Pedir acceso (open request)
// @Description El clínico pide acceso a un guardián por email, sin perfil todavía. El grant queda pending hasta el approve.
// @Tags access
// @Accept json
// @Produce json
// @Param payload body requestAccessRequest true "Email del guardián + mensaje opcional"
// @Success 201 {object} grantResponse
// @Failure 400 {string} string "invalid json / datos inválidos"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "el actor no es clínico"
// @Failure 404 {string} string "guardián desconocido"
// @Failure 409 {string} string "ya hay un request vivo para el par"
// @Router /access/requests [post]
func requestAccessHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req requestAccessRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		g, err := svc.RequestAccess(r.Context(), claims.UserID, req.GuardianEmail, req.Message)
		if err != nil {
			writeGrantError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toGrantResponse(g))
	}
}

// inviteClinicianHandler godoc
// @Summary Invitar clínico
// @Description El guardián invita a un clínico (por email) a un perfil propio. El nivel se decide recién al aprobar.
// @Tags access
// @Accept json
// @Produce json
// @Param payload body inviteClinicianRequest true "Email del clínico + perfil + mensaje opcional"
// @Success 201 {object} grantResponse
// @Failure 400 {string} string "invalid json / datos inválidos"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "el perfil no es del actor"
// @Failure 404 {string} string "clínico o perfil desconocido"
// @Failure 409 {string} string "ya hay un grant vivo para el par"
// @Router /access/invites [post]
func inviteClinicianHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req inviteClinicianRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		g, err := svc.InviteClinician(r.Context(), claims.UserID, req.ClinicianEmail, req.ProfileID, req.Message)
		if err != nil {
			writeGrantError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toGrantResponse(g))
	}
}

// approveHandler godoc
// @Summary Aprobar grant
// @Description Activa un grant pending con el nivel indicado (default restricted). Para open requests el body debe traer profile_id. Sobre un grant active restricted, level=full concreta el upgrade. Idempotente.
// @Tags access
// @Accept json
// @Produce json
// @Param grantID path string true "ID del grant"
// @Param payload body approveRequest false "Perfil (open requests) + nivel"
// @Success 200 {object} grantResponse
// @Failure 400 {string} string "datos inválidos"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "el actor no es el guardián del grant"
// @Failure 404 {string} string "grant o perfil desconocido"
// @Failure 409 {string} string "transición ilegal o par duplicado"
// @Router /access/grants/{grantID}/approve [post]
func approveHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req approveRequest
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid json", http.StatusBadRequest)
				return
			}
		}

		g, err := svc.Approve(r.Context(), claims.UserID, chi.URLParam(r, "grantID"), req.ProfileID, req.Level)
		if err != nil {
			writeGrantError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toGrantResponse(g))
	}
}

func rejectHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		g, err := svc.Reject(r.Context(), claims.UserID, chi.URLParam(r, "grantID"))
		if err != nil {
			writeGrantError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toGrantResponse(g))
	}
}

func revokeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		g, err := svc.Revoke(r.Context(), claims.UserID, chi.URLParam(r, "grantID"))
		if err != nil {
			writeGrantError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toGrantResponse(g))
	}
}

// requestFullAccessHandler godoc
// @Summary Pedir acceso full
// @Description El clínico del grant (active restricted) pide el upgrade. Marca full_access_requested; el nivel no cambia hasta que el guardián apruebe con level=full.
// @Tags access
// @Accept json
// @Produce json
// @Param grantID path string true "ID del grant"
// @Param payload body requestFullRequest true "Motivo del pedido"
// @Success 200 {object} grantResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "el actor no es el clínico del grant"
// @Failure 404 {string} string "grant desconocido"
// @Failure 409 {string} string "el grant no está active restricted"
// @Router /access/grants/{grantID}/request-full [post]
func requestFullAccessHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req requestFullRequest
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid json", http.StatusBadRequest)
				return
			}
		}

		g, err := svc.RequestFullAccess(r.Context(), claims.UserID, chi.URLParam(r, "grantID"), req.Message)
		if err != nil {
			writeGrantError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toGrantResponse(g))
	}
}

func listPendingHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListPendingForGuardian(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeGrantList(w, items)
	}
}

func listActiveForClinicianHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListActiveForClinician(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeGrantList(w, items)
	}
}

// writeGrantError mapea la taxonomía de errores del service a HTTP.
// Los kinds se preservan como strings distinguibles en el body.
func writeGrantError(w http.ResponseWriter, err error) {
	switch err {
	case ErrInvalidInput:
		http.Error(w, err.Error(), http.StatusBadRequest)
	case ErrForbidden:
		http.Error(w, err.Error(), http.StatusForbidden)
	case ErrNotFound, ErrUnknownGuardian, ErrUnknownClinician:
		http.Error(w, err.Error(), http.StatusNotFound)
	case ErrInvalidTransition, ErrDuplicateGrant:
		http.Error(w, err.Error(), http.StatusConflict)
	case ErrUnavailable:
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeGrantList(w http.ResponseWriter, items []Grant) {
	out := make([]grantResponse, 0, len(items))
	for _, g := range items {
		out = append(out, toGrantResponse(g))
	}
	writeJSON(w, http.StatusOK, out)
}

func toGrantResponse(g Grant) grantResponse {
	return grantResponse{
		ID:                  g.ID,
		ClinicianID:         g.ClinicianID,
		GuardianID:          g.GuardianID,
		ProfileID:           g.ProfileRef(),
		Status:              g.Status,
		Level:               g.Level,
		FullAccessRequested: g.FullAccessRequested,
		Message:             g.Message,
		ClinicianMessage:    g.ClinicianMessage,
		RequestedAt:         g.RequestedAt,
		ResolvedAt:          g.ResolvedAt,
		UpdatedAt:           g.UpdatedAt,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
