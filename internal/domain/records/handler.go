package records

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"nutrikid-care-access/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// ProfileOwnerLookup evita importar el paquete profiles (rompe ciclos).
type ProfileOwnerLookup interface {
	OwnerOf(ctx context.Context, profileID string) (string, error)
}

func RegisterRoutes(r chi.Router, svc *Service, profileOwners ProfileOwnerLookup) {
	// Solo el guardián dueño escribe/lee por acá. El clínico recibe
	// estos datos únicamente dentro del FullView del projector.
	r.Route("/profiles/{profileID}/meals", func(mr chi.Router) {
		mr.Post("/", logMealHandler(svc, profileOwners))
		mr.Get("/", listMealsHandler(svc, profileOwners))
	})

	r.Route("/profiles/{profileID}/growth", func(gr chi.Router) {
		gr.Post("/", recordGrowthHandler(svc, profileOwners))
		gr.Get("/", listGrowthHandler(svc, profileOwners))
	})
}

type logMealRequest struct {
	Date      string     `json:"date"` // RFC3339, opcional (default ahora)
	MealType  MealType   `json:"meal_type" enums:"breakfast,lunch,dinner,snack"`
	FoodItems []FoodItem `json:"food_items"`
	Notes     string     `json:"notes"`
}

type mealResponse struct {
	ID         string     `json:"id"`
	ProfileID  string     `json:"profile_id"`
	Date       time.Time  `json:"date"`
	MealType   MealType   `json:"meal_type"`
	FoodItems  []FoodItem `json:"food_items"`
	Notes      string     `json:"notes,omitempty"`
	RecordedAt time.Time  `json:"recorded_at"`
}

type recordGrowthRequest struct {
	HeightCM float64 `json:"height_cm"`
	WeightKG float64 `json:"weight_kg"`
	Notes    string  `json:"notes"`
}

type growthResponse struct {
	ID             string       `json:"id"`
	ProfileID      string       `json:"profile_id"`
	HeightCM       float64      `json:"height_cm"`
	WeightKG       float64      `json:"weight_kg"`
	BMI            float64      `json:"bmi"`
	RecordedByRole RecorderRole `json:"recorded_by_role"`
	Verified       bool         `json:"verified"`
	Notes          string       `json:"notes,omitempty"`
	RecordedAt     time.Time    `json:"recorded_at"`
}

// logMealHandler godoc
// @Summary Registrar comida
// @Description Registra una comida del perfil. Solo el guardián dueño.
// @Tags records
// @Accept json
// @Produce json
// @Param profileID path string true "ID del perfil"
// @Param payload body logMealRequest true "Comida; date en RFC3339"
// @Success 201 {object} mealResponse
// @Failure 400 {string} string "invalid json / datos inválidos"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "profile not found"
// @Router /profiles/{profileID}/meals [post]
func logMealHandler(svc *Service, profileOwners ProfileOwnerLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profileID, ok := requireOwner(w, r, profileOwners)
		if !ok {
			return
		}

		var req logMealRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var date time.Time
		if strings.TrimSpace(req.Date) != "" {
			t, err := time.Parse(time.RFC3339, req.Date)
			if err != nil {
				http.Error(w, "date must be RFC3339", http.StatusBadRequest)
				return
			}
			date = t
		}

		m, err := svc.LogMeal(r.Context(), profileID, LogMealInput{
			Date:      date,
			MealType:  req.MealType,
			FoodItems: req.FoodItems,
			Notes:     req.Notes,
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

		writeJSON(w, http.StatusCreated, toMealResponse(m))
	}
}

func listMealsHandler(svc *Service, profileOwners ProfileOwnerLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profileID, ok := requireOwner(w, r, profileOwners)
		if !ok {
			return
		}

		items, err := svc.ListMeals(r.Context(), profileID, parseListFilter(r))
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]mealResponse, 0, len(items))
		for _, m := range items {
			out = append(out, toMealResponse(m))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// recordGrowthHandler godoc
// @Summary Registrar medición de crecimiento
// @Description Registra altura/peso; el BMI se autocalcula. Solo el guardián dueño.
// @Tags records
// @Accept json
// @Produce json
// @Param profileID path string true "ID del perfil"
// @Param payload body recordGrowthRequest true "Medición"
// @Success 201 {object} growthResponse
// @Failure 400 {string} string "invalid json / datos inválidos"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "profile not found"
// @Router /profiles/{profileID}/growth [post]
func recordGrowthHandler(svc *Service, profileOwners ProfileOwnerLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := middleware.GetClaims(r.Context())

		profileID, ok := requireOwner(w, r, profileOwners)
		if !ok {
			return
		}

		var req recordGrowthRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		g, err := svc.RecordGrowth(r.Context(), profileID, RecordGrowthInput{
			HeightCM:       req.HeightCM,
			WeightKG:       req.WeightKG,
			RecordedByRole: RecorderGuardian,
			RecordedByID:   claims.UserID,
			Notes:          req.Notes,
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

		writeJSON(w, http.StatusCreated, toGrowthResponse(g))
	}
}

func listGrowthHandler(svc *Service, profileOwners ProfileOwnerLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profileID, ok := requireOwner(w, r, profileOwners)
		if !ok {
			return
		}

		items, err := svc.ListGrowth(r.Context(), profileID, parseListFilter(r))
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]growthResponse, 0, len(items))
		for _, g := range items {
			out = append(out, toGrowthResponse(g))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// requireOwner resuelve el perfil de la URL y exige que el usuario
// autenticado sea su guardián dueño.
func requireOwner(w http.ResponseWriter, r *http.Request, profileOwners ProfileOwnerLookup) (string, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return "", false
	}

	profileID := chi.URLParam(r, "profileID")
	ownerID, err := profileOwners.OwnerOf(r.Context(), profileID)
	if err != nil || strings.TrimSpace(ownerID) == "" {
		http.Error(w, "profile not found", http.StatusNotFound)
		return "", false
	}
	if ownerID != claims.UserID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return "", false
	}
	return profileID, true
}

func parseListFilter(r *http.Request) ListFilter {
	var f ListFilter

	if v := strings.TrimSpace(r.URL.Query().Get("from")); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.From = &t
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("to")); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.To = &t
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			f.Limit = n
		}
	}
	return f
}

func toMealResponse(m MealLog) mealResponse {
	return mealResponse{
		ID:         m.ID,
		ProfileID:  m.ProfileID,
		Date:       m.Date,
		MealType:   m.MealType,
		FoodItems:  m.FoodItems,
		Notes:      m.Notes,
		RecordedAt: m.RecordedAt,
	}
}

func toGrowthResponse(g GrowthRecord) growthResponse {
	return growthResponse{
		ID:             g.ID,
		ProfileID:      g.ProfileID,
		HeightCM:       g.HeightCM,
		WeightKG:       g.WeightKG,
		BMI:            g.BMI,
		RecordedByRole: g.RecordedByRole,
		Verified:       g.Verified,
		Notes:          g.Notes,
		RecordedAt:     g.RecordedAt,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
