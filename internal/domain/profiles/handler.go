package profiles

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"nutrikid-care-access/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	// Perfiles del guardián. Los clínicos nunca entran por acá:
	// su lectura pasa por el projector (/care/profiles/{id}).
	r.Route("/profiles", func(pr chi.Router) {
		pr.Post("/", createProfileHandler(svc))
		pr.Get("/", listProfilesHandler(svc))
		pr.Get("/{profileID}", getProfileHandler(svc))
	})
}

type createProfileRequest struct {
	Name               string   `json:"name"`
	Age                int      `json:"age"`
	Sex                Sex      `json:"sex" enums:"male,female,other"`
	HeightCM           float64  `json:"height_cm"`
	WeightKG           float64  `json:"weight_kg"`
	ActivityLevel      string   `json:"activity_level"` // opcional
	DietaryPreferences []string `json:"dietary_preferences"`
	Conditions         []string `json:"conditions"`
	Avatar             string   `json:"avatar"`
}

type profileResponse struct {
	ID                 string    `json:"id"`
	GuardianID         string    `json:"guardian_id"`
	Name               string    `json:"name"`
	Age                int       `json:"age"`
	Sex                Sex       `json:"sex"`
	HeightCM           float64   `json:"height_cm"`
	WeightKG           float64   `json:"weight_kg"`
	ActivityLevel      string    `json:"activity_level"`
	DietaryPreferences []string  `json:"dietary_preferences"`
	Conditions         []string  `json:"conditions"`
	Avatar             string    `json:"avatar"`
	HealthNotes        string    `json:"health_notes,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// createProfileHandler godoc
// @Summary Crear perfil de niño
// @Description Crea un perfil de salud. Solo guardianes; el perfil queda ligado al guardián autenticado.
// @Tags profiles
// @Accept json
// @Produce json
// @Param payload body createProfileRequest true "Datos del perfil"
// @Success 201 {object} profileResponse
// @Failure 400 {string} string "invalid json / datos inválidos"
// @Failure 401 {string} string "unauthorized"
// @Router /profiles [post]
func createProfileHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		p, err := svc.Create(r.Context(), claims.UserID, CreateInput{
			Name:               req.Name,
			Age:                req.Age,
			Sex:                req.Sex,
			HeightCM:           req.HeightCM,
			WeightKG:           req.WeightKG,
			ActivityLevel:      ActivityLevel(strings.TrimSpace(req.ActivityLevel)),
			DietaryPreferences: req.DietaryPreferences,
			Conditions:         req.Conditions,
			Avatar:             req.Avatar,
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

		writeJSON(w, http.StatusCreated, toProfileResponse(p))
	}
}

func listProfilesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByGuardian(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]profileResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toProfileResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getProfileHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		p, err := svc.GetByID(r.Context(), chi.URLParam(r, "profileID"))
		if err != nil {
			http.Error(w, "profile not found", http.StatusNotFound)
			return
		}

		// Lectura directa solo para el dueño
		if p.GuardianID != claims.UserID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		writeJSON(w, http.StatusOK, toProfileResponse(p))
	}
}

func toProfileResponse(p Profile) profileResponse {
	return profileResponse{
		ID:                 p.ID,
		GuardianID:         p.GuardianID,
		Name:               p.Name,
		Age:                p.Age,
		Sex:                p.Sex,
		HeightCM:           p.HeightCM,
		WeightKG:           p.WeightKG,
		ActivityLevel:      string(p.ActivityLevel),
		DietaryPreferences: p.DietaryPreferences,
		Conditions:         p.Conditions,
		Avatar:             p.Avatar,
		HealthNotes:        p.HealthNotes,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
