package accounts

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/accounts", func(ar chi.Router) {
		ar.Post("/", registerAccountHandler(svc))
		ar.Get("/{accountID}", getAccountHandler(svc))
	})
}

type registerAccountRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role" enums:"guardian,clinician"`
}

type accountResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// registerAccountHandler godoc
// @Summary Registrar cuenta
// @Description Registra un guardián o un clínico. El rol es inmutable después de creado.
// @Tags accounts
// @Accept json
// @Produce json
// @Param payload body registerAccountRequest true "Datos de la cuenta"
// @Success 201 {object} accountResponse
// @Failure 400 {string} string "invalid json / datos inválidos"
// @Failure 409 {string} string "email ya registrado"
// @Router /accounts [post]
func registerAccountHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerAccountRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		a, err := svc.Register(r.Context(), RegisterInput{
			Email: req.Email,
			Name:  req.Name,
			Role:  req.Role,
		})
		if err != nil {
			switch err {
			case ErrInvalidInput:
				http.Error(w, err.Error(), http.StatusBadRequest)
			case ErrEmailTaken:
				http.Error(w, err.Error(), http.StatusConflict)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusCreated, toAccountResponse(a))
	}
}

func getAccountHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := svc.GetByID(r.Context(), chi.URLParam(r, "accountID"))
		if err != nil {
			switch err {
			case ErrInvalidInput:
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				http.Error(w, "not found", http.StatusNotFound)
			}
			return
		}
		writeJSON(w, http.StatusOK, toAccountResponse(a))
	}
}

func toAccountResponse(a Account) accountResponse {
	return accountResponse{
		ID:        a.ID,
		Email:     a.Email,
		Name:      a.Name,
		Role:      a.Role,
		CreatedAt: a.CreatedAt,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
