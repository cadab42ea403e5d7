package visibility

import (
	"context"
	"errors"
	"strings"

	"nutrikid-care-access/internal/domain/grants"
	"nutrikid-care-access/internal/domain/profiles"
	"nutrikid-care-access/internal/domain/records"
	"nutrikid-care-access/internal/platform/metrics"
	"nutrikid-care-access/internal/ports/analytics"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnavailable  = errors.New("unavailable")
)

// Las dependencias entran como interfaces chicas para poder testear el
// projector con fakes y, sobre todo, para probar que la vista restricted
// jamás toca meals/growth/analytics.

type GrantSource interface {
	ActiveGrant(ctx context.Context, clinicianID, profileID string) (grants.Grant, error)
}

type ProfileSource interface {
	GetByID(ctx context.Context, id string) (profiles.Profile, error)
}

type RecordSource interface {
	ListMeals(ctx context.Context, profileID string, filter records.ListFilter) ([]records.MealLog, error)
	ListGrowth(ctx context.Context, profileID string, filter records.ListFilter) ([]records.GrowthRecord, error)
}

// fullViewMealLimit acota cuántas comidas viajan en un FullView (las más
// recientes primero, igual que el timeline del guardián).
const fullViewMealLimit = 50

// Projector calcula la vista autorizada para un par (clínico, perfil).
// Es puro respecto de la autorización: nunca muta grants, y relee el
// estado del grant en cada llamada; un revoke se refleja en la próxima
// proyección sin ninguna ventana de cache.
type Projector struct {
	grants    GrantSource
	profiles  ProfileSource
	records   RecordSource
	analytics analytics.Resolver // puede ser nil (sin resumen nutricional)
}

func NewProjector(g GrantSource, p ProfileSource, r RecordSource, a analytics.Resolver) *Projector {
	return &Projector{
		grants:    g,
		profiles:  p,
		records:   r,
		analytics: a,
	}
}

// Project devuelve NoAccess, RestrictedView o FullView según el grant
// vigente. NoAccess no es un error: es la vista legítima de quien no
// tiene autorización, y no confirma siquiera que el perfil exista.
func (p *Projector) Project(ctx context.Context, clinicianID, profileID string) (View, error) {
	clinicianID = strings.TrimSpace(clinicianID)
	profileID = strings.TrimSpace(profileID)

	if clinicianID == "" || profileID == "" {
		return View{}, ErrInvalidInput
	}

	g, err := p.grants.ActiveGrant(ctx, clinicianID, profileID)
	if err != nil {
		// Sin grant active (incluye pending/rejected/revoked): nada.
		metrics.RecordProjection(string(KindNoAccess))
		return View{Kind: KindNoAccess}, nil
	}

	switch g.Level {
	case grants.LevelFull:
		return p.fullView(ctx, g, profileID)
	default:
		return p.restrictedView(ctx, g, profileID)
	}
}

func (p *Projector) restrictedView(ctx context.Context, g grants.Grant, profileID string) (View, error) {
	prof, err := p.profiles.GetByID(ctx, profileID)
	if err != nil {
		return View{}, ErrUnavailable
	}

	metrics.RecordProjection(string(KindRestricted))
	return View{
		Kind: KindRestricted,
		Card: &ProfileCard{
			ProfileID: prof.ID,
			Name:      prof.Name,
			AgeBand:   profiles.AgeBand(prof.Age),
			Sex:       string(prof.Sex),
			Avatar:    prof.Avatar,
		},
		ConsultationNote:    g.Message,
		FullAccessRequested: g.FullAccessRequested,
	}, nil
}

func (p *Projector) fullView(ctx context.Context, g grants.Grant, profileID string) (View, error) {
	prof, err := p.profiles.GetByID(ctx, profileID)
	if err != nil {
		return View{}, ErrUnavailable
	}

	meals, err := p.records.ListMeals(ctx, profileID, records.ListFilter{Limit: fullViewMealLimit})
	if err != nil {
		return View{}, ErrUnavailable
	}
	growth, err := p.records.ListGrowth(ctx, profileID, records.ListFilter{})
	if err != nil {
		return View{}, ErrUnavailable
	}

	// El resumen nutricional es enriquecimiento: si el resolver falla,
	// la vista sale sin él en vez de tirar todo abajo.
	var nutrition *analytics.Summary
	if p.analytics != nil {
		if sum, err := p.analytics.Summarize(ctx, profileID); err == nil {
			nutrition = &sum
		}
	}

	metrics.RecordProjection(string(KindFull))
	return View{
		Kind: KindFull,
		Card: &ProfileCard{
			ProfileID: prof.ID,
			Name:      prof.Name,
			AgeBand:   profiles.AgeBand(prof.Age),
			Sex:       string(prof.Sex),
			Avatar:    prof.Avatar,
		},
		ConsultationNote:    g.Message,
		FullAccessRequested: false,
		Profile: &FullProfile{
			ProfileID:          prof.ID,
			Name:               prof.Name,
			Age:                prof.Age,
			Sex:                string(prof.Sex),
			HeightCM:           prof.HeightCM,
			WeightKG:           prof.WeightKG,
			ActivityLevel:      string(prof.ActivityLevel),
			DietaryPreferences: prof.DietaryPreferences,
			Conditions:         prof.Conditions,
			Avatar:             prof.Avatar,
			HealthNotes:        prof.HealthNotes,
		},
		Meals:     meals,
		Growth:    growth,
		Nutrition: nutrition,
	}, nil
}
