package visibility

import (
	"context"
	"errors"
	"testing"
	"time"

	"nutrikid-care-access/internal/domain/grants"
	"nutrikid-care-access/internal/domain/profiles"
	"nutrikid-care-access/internal/domain/records"
	"nutrikid-care-access/internal/ports/analytics"
)

// -------------------------
// Fakes
// -------------------------

// testGrantSource sirve el grant directamente desde el struct: cada test
// controla el estado exacto que ve el projector.
type testGrantSource struct {
	grant grants.Grant
	err   error
}

func (s *testGrantSource) ActiveGrant(ctx context.Context, clinicianID, profileID string) (grants.Grant, error) {
	if s.err != nil {
		return grants.Grant{}, s.err
	}
	return s.grant, nil
}

type testProfileSource struct {
	profile profiles.Profile
	err     error
}

func (s *testProfileSource) GetByID(ctx context.Context, id string) (profiles.Profile, error) {
	if s.err != nil {
		return profiles.Profile{}, s.err
	}
	return s.profile, nil
}

// testRecordSource registra si fue consultado; la vista restricted (y la
// no_access) no deben tocarlo nunca.
type testRecordSource struct {
	t      *testing.T
	meals  []records.MealLog
	growth []records.GrowthRecord

	mealsErr error
	called   bool
}

func (s *testRecordSource) ListMeals(ctx context.Context, profileID string, filter records.ListFilter) ([]records.MealLog, error) {
	s.called = true
	if s.mealsErr != nil {
		return nil, s.mealsErr
	}
	return s.meals, nil
}

func (s *testRecordSource) ListGrowth(ctx context.Context, profileID string, filter records.ListFilter) ([]records.GrowthRecord, error) {
	s.called = true
	return s.growth, nil
}

type testResolver struct {
	summary analytics.Summary
	err     error
	called  bool
}

func (r *testResolver) Summarize(ctx context.Context, profileID string) (analytics.Summary, error) {
	r.called = true
	if r.err != nil {
		return analytics.Summary{}, r.err
	}
	return r.summary, nil
}

func testProfile() profiles.Profile {
	return profiles.Profile{
		ID:            "profile-1",
		GuardianID:    "guardian-1",
		Name:          "Mila",
		Age:           7,
		Sex:           profiles.SexFemale,
		HeightCM:      121,
		WeightKG:      23.5,
		ActivityLevel: profiles.ActivityModerate,
		Conditions:    []string{"celiac"},
		Avatar:        "panda",
		HealthNotes:   "control de hierro pendiente",
	}
}

func activeGrant(level grants.Level) grants.Grant {
	pid := "profile-1"
	return grants.Grant{
		ID:          "grant-1",
		ClinicianID: "clinician-1",
		GuardianID:  "guardian-1",
		ProfileID:   &pid,
		Status:      grants.StatusActive,
		Level:       level,
		Message:     "seguimiento de peso",
		RequestedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

// -------------------------
// Tests
// -------------------------

func TestProjector_NoAccess_IsUniformAndNotAnError(t *testing.T) {
	recs := &testRecordSource{t: t}
	res := &testResolver{}
	proj := NewProjector(
		&testGrantSource{err: grants.ErrNotFound},
		&testProfileSource{profile: testProfile()},
		recs,
		res,
	)

	view, err := proj.Project(context.Background(), "clinician-1", "profile-1")
	if err != nil {
		t.Fatalf("Project error: %v", err)
	}
	if view.Kind != KindNoAccess {
		t.Fatalf("expected no_access, got %s", view.Kind)
	}
	if view.Card != nil || view.Profile != nil || view.Meals != nil || view.Growth != nil {
		t.Fatalf("no_access view must carry no data, got %#v", view)
	}
	if recs.called {
		t.Fatalf("no_access projection must not touch records")
	}
	if res.called {
		t.Fatalf("no_access projection must not touch analytics")
	}
}

func TestProjector_Restricted_OnlyCardAndNote(t *testing.T) {
	recs := &testRecordSource{t: t}
	res := &testResolver{}
	g := activeGrant(grants.LevelRestricted)
	g.FullAccessRequested = true

	proj := NewProjector(
		&testGrantSource{grant: g},
		&testProfileSource{profile: testProfile()},
		recs,
		res,
	)

	view, err := proj.Project(context.Background(), "clinician-1", "profile-1")
	if err != nil {
		t.Fatalf("Project error: %v", err)
	}
	if view.Kind != KindRestricted {
		t.Fatalf("expected restricted, got %s", view.Kind)
	}
	if view.Card == nil {
		t.Fatalf("expected profile card")
	}
	if view.Card.AgeBand != "6-9" {
		t.Fatalf("expected age band 6-9 for age 7, got %s", view.Card.AgeBand)
	}
	if view.ConsultationNote != "seguimiento de peso" {
		t.Fatalf("expected consultation note from grant, got %q", view.ConsultationNote)
	}
	if !view.FullAccessRequested {
		t.Fatalf("expected FullAccessRequested surfaced on restricted view")
	}
	if view.Profile != nil {
		t.Fatalf("restricted view must not expose full profile")
	}
	if recs.called {
		t.Fatalf("restricted projection must not touch records")
	}
	if res.called {
		t.Fatalf("restricted projection must not touch analytics")
	}
}

func TestProjector_Full_CarriesRecordsAndSummary(t *testing.T) {
	recs := &testRecordSource{
		t:      t,
		meals:  []records.MealLog{{ID: "meal-1", ProfileID: "profile-1"}},
		growth: []records.GrowthRecord{{ID: "growth-1", ProfileID: "profile-1", BMI: 16.1}},
	}
	res := &testResolver{summary: analytics.Summary{ProfileID: "profile-1", MealsLast7Days: 4}}

	proj := NewProjector(
		&testGrantSource{grant: activeGrant(grants.LevelFull)},
		&testProfileSource{profile: testProfile()},
		recs,
		res,
	)

	view, err := proj.Project(context.Background(), "clinician-1", "profile-1")
	if err != nil {
		t.Fatalf("Project error: %v", err)
	}
	if view.Kind != KindFull {
		t.Fatalf("expected full, got %s", view.Kind)
	}
	if view.Profile == nil || view.Profile.Age != 7 || view.Profile.HealthNotes == "" {
		t.Fatalf("expected full profile with exact age and notes, got %#v", view.Profile)
	}
	if len(view.Meals) != 1 || len(view.Growth) != 1 {
		t.Fatalf("expected meals and growth in full view")
	}
	if view.Nutrition == nil || view.Nutrition.MealsLast7Days != 4 {
		t.Fatalf("expected nutrition summary, got %#v", view.Nutrition)
	}
}

func TestProjector_Full_AnalyticsFailureDegrades(t *testing.T) {
	recs := &testRecordSource{t: t}
	res := &testResolver{err: errors.New("nutri-ai down")}

	proj := NewProjector(
		&testGrantSource{grant: activeGrant(grants.LevelFull)},
		&testProfileSource{profile: testProfile()},
		recs,
		res,
	)

	view, err := proj.Project(context.Background(), "clinician-1", "profile-1")
	if err != nil {
		t.Fatalf("Project error: %v", err)
	}
	if view.Kind != KindFull {
		t.Fatalf("expected full view despite analytics failure, got %s", view.Kind)
	}
	if view.Nutrition != nil {
		t.Fatalf("expected nil nutrition on analytics failure")
	}
}

func TestProjector_Full_RecordsFailureIsUnavailable(t *testing.T) {
	recs := &testRecordSource{t: t, mealsErr: errors.New("db down")}

	proj := NewProjector(
		&testGrantSource{grant: activeGrant(grants.LevelFull)},
		&testProfileSource{profile: testProfile()},
		recs,
		&testResolver{},
	)

	_, err := proj.Project(context.Background(), "clinician-1", "profile-1")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestProjector_InvalidInput(t *testing.T) {
	proj := NewProjector(&testGrantSource{}, &testProfileSource{}, &testRecordSource{t: t}, nil)

	if _, err := proj.Project(context.Background(), "", "profile-1"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := proj.Project(context.Background(), "clinician-1", " "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
