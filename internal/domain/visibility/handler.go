package visibility

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"nutrikid-care-access/internal/domain/grants"
	"nutrikid-care-access/internal/domain/profiles"
	"nutrikid-care-access/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// NotesUpdater guarda la nota de consulta del clínico (profiles.Service).
type NotesUpdater interface {
	UpdateHealthNotes(ctx context.Context, profileID, notes string) (profiles.Profile, error)
}

func RegisterRoutes(r chi.Router, proj *Projector, grantsSvc GrantSource, notes NotesUpdater) {
	r.Route("/care/profiles/{profileID}", func(cr chi.Router) {
		cr.Get("/", projectHandler(proj))
		cr.Patch("/notes", updateNotesHandler(grantsSvc, notes))
	})
}

type updateNotesRequest struct {
	Notes string `json:"notes"`
}

// projectHandler godoc
// @Summary Vista del clínico sobre un perfil
// @Description Devuelve la vista autorizada según el grant vigente: no_access (uniforme, no confirma existencia), restricted o full. Se recalcula en cada llamada.
// @Tags care
// @Produce json
// @Param profileID path string true "ID del perfil"
// @Success 200 {object} View
// @Failure 401 {string} string "unauthorized"
// @Failure 503 {string} string "colaborador no disponible"
// @Router /care/profiles/{profileID} [get]
func projectHandler(proj *Projector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		v, err := proj.Project(r.Context(), claims.UserID, chi.URLParam(r, "profileID"))
		if err != nil {
			switch err {
			case ErrInvalidInput:
				http.Error(w, err.Error(), http.StatusBadRequest)
			case ErrUnavailable:
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, v)
	}
}

// updateNotesHandler exige grant active full: la nota de consulta es
// escritura clínica, no entra en el nivel restricted.
func updateNotesHandler(grantsSvc GrantSource, notes NotesUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		profileID := chi.URLParam(r, "profileID")

		g, err := grantsSvc.ActiveGrant(r.Context(), claims.UserID, profileID)
		if err != nil || g.Level != grants.LevelFull {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		var req updateNotesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Notes) == "" {
			http.Error(w, "notes required", http.StatusBadRequest)
			return
		}

		if _, err := notes.UpdateHealthNotes(r.Context(), profileID, req.Notes); err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
