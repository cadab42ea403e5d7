package escalations

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"nutrikid-care-access/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// ProfileOwnerLookup evita importar el paquete profiles.
type ProfileOwnerLookup interface {
	OwnerOf(ctx context.Context, profileID string) (string, error)
}

func RegisterRoutes(r chi.Router, svc *Service, profileOwners ProfileOwnerLookup) {
	// Guardián (o el motor de riesgo actuando por él) levanta eventos
	r.Post("/profiles/{profileID}/escalations", raiseHandler(svc, profileOwners))

	// Clínico: eventos visibles + resolución
	r.Route("/escalations", func(er chi.Router) {
		er.Get("/", listVisibleHandler(svc))
		er.Post("/{eventID}/resolve", resolveHandler(svc))
	})
}

type raiseRequest struct {
	RiskLevel RiskLevel `json:"risk_level" enums:"LOW,MODERATE,HIGH"`
	Flags     []string  `json:"flags"`
	Analysis  string    `json:"analysis"`
}

type eventResponse struct {
	ID         string     `json:"id"`
	ProfileID  string     `json:"profile_id"`
	RiskLevel  RiskLevel  `json:"risk_level"`
	Flags      []string   `json:"flags,omitempty"`
	Analysis   string     `json:"analysis,omitempty"`
	Resolved   bool       `json:"resolved"`
	RaisedAt   time.Time  `json:"raised_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// raiseHandler godoc
// @Summary Levantar evento de riesgo
// @Description Registra un evento de riesgo para un perfil. Solo el guardián dueño.
// @Tags escalations
// @Accept json
// @Produce json
// @Param profileID path string true "ID del perfil"
// @Param payload body raiseRequest true "Nivel de riesgo + análisis"
// @Success 201 {object} eventResponse
// @Failure 400 {string} string "datos inválidos"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "profile not found"
// @Router /profiles/{profileID}/escalations [post]
func raiseHandler(svc *Service, profileOwners ProfileOwnerLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		profileID := chi.URLParam(r, "profileID")
		ownerID, err := profileOwners.OwnerOf(r.Context(), profileID)
		if err != nil || strings.TrimSpace(ownerID) == "" {
			http.Error(w, "profile not found", http.StatusNotFound)
			return
		}
		if ownerID != claims.UserID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		var req raiseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		e, err := svc.Raise(r.Context(), profileID, RaiseInput{
			RiskLevel: req.RiskLevel,
			Flags:     req.Flags,
			Analysis:  req.Analysis,
		})
		if err != nil {
			switch err {
			case ErrInvalidInput:
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusCreated, toEventResponse(e))
	}
}

// listVisibleHandler godoc
// @Summary Eventos de riesgo visibles
// @Description Lista los eventos sin resolver de perfiles con grant active del clínico autenticado. El chequeo de grant se rehace en cada llamada.
// @Tags escalations
// @Produce json
// @Success 200 {array} eventResponse
// @Failure 401 {string} string "unauthorized"
// @Router /escalations [get]
func listVisibleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListVisibleForClinician(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]eventResponse, 0, len(items))
		for _, e := range items {
			out = append(out, toEventResponse(e))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func resolveHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		e, err := svc.Resolve(r.Context(), claims.UserID, chi.URLParam(r, "eventID"))
		if err != nil {
			switch err {
			case ErrInvalidInput:
				http.Error(w, err.Error(), http.StatusBadRequest)
			case ErrForbidden:
				http.Error(w, "forbidden", http.StatusForbidden)
			case ErrNotFound:
				http.Error(w, "not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, toEventResponse(e))
	}
}

func toEventResponse(e Event) eventResponse {
	return eventResponse{
		ID:         e.ID,
		ProfileID:  e.ProfileID,
		RiskLevel:  e.RiskLevel,
		Flags:      e.Flags,
		Analysis:   e.Analysis,
		Resolved:   e.Resolved,
		RaisedAt:   e.RaisedAt,
		ResolvedAt: e.ResolvedAt,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
