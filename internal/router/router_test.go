package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"nutrikid-care-access/internal/router"
)

func TestHTTP_EndToEnd_CareAccessLifecycle(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	guardianID := registerAccount(t, ts.URL, "ana@example.com", "Ana", "guardian")
	clinicianID := registerAccount(t, ts.URL, "dr.paz@example.com", "Dra. Paz", "clinician")

	// 1) Guardián crea el perfil y registra una comida
	profileID := createProfile(t, ts.URL, guardianID, map[string]any{
		"name":      "Mila",
		"age":       7,
		"sex":       "female",
		"height_cm": 121.0,
		"weight_kg": 23.5,
	})
	{
		st, body := doReq(t, ts.URL, "POST", "/profiles/"+profileID+"/meals", guardianID, map[string]any{
			"meal_type": "lunch",
			"food_items": []map[string]any{
				{"name": "lentejas", "quantity": "1 cup", "calories": 230},
			},
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 log meal, got %d body=%s", st, string(body))
		}
	}

	// 2) Sin grant, el clínico recibe no_access (200, jamás 403/404)
	assertViewKind(t, ts.URL, clinicianID, profileID, "no_access")

	// 3) El clínico no puede leer el perfil por la ruta del guardián
	{
		st, _ := doReq(t, ts.URL, "GET", "/profiles/"+profileID, clinicianID, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 direct profile read by clinician, got %d", st)
		}
	}

	// 4) Open request del clínico por email del guardián
	grantID := requestAccess(t, ts.URL, clinicianID, "ana@example.com")

	// el request pending no abre nada
	assertViewKind(t, ts.URL, clinicianID, profileID, "no_access")

	// 5) El guardián lo ve en sus pendientes
	{
		st, body := doReq(t, ts.URL, "GET", "/access/requests", guardianID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 listing pending, got %d body=%s", st, string(body))
		}
		var items []map[string]any
		_ = json.Unmarshal(body, &items)
		if len(items) != 1 {
			t.Fatalf("expected 1 pending request, got %d body=%s", len(items), string(body))
		}
	}

	// 6) Approve liga el perfil y activa en restricted
	{
		st, body := doReq(t, ts.URL, "POST", "/access/grants/"+grantID+"/approve", guardianID, map[string]any{
			"profile_id": profileID,
			"level":      "restricted",
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 approve, got %d body=%s", st, string(body))
		}
		var g map[string]any
		_ = json.Unmarshal(body, &g)
		if g["status"] != "active" || g["level"] != "restricted" || g["profile_id"] != profileID {
			t.Fatalf("unexpected grant after approve: %s", string(body))
		}
	}

	// 7) Vista restricted: card con franja etaria, sin meals ni perfil completo
	{
		view := getView(t, ts.URL, clinicianID, profileID)
		if view.Kind != "restricted" {
			t.Fatalf("expected restricted view, got %s", view.Kind)
		}
		if view.Card == nil || view.Card.AgeBand != "6-9" {
			t.Fatalf("expected card with age band 6-9, got %#v", view.Card)
		}
		if view.Profile != nil || len(view.Meals) != 0 || len(view.Growth) != 0 {
			t.Fatalf("restricted view leaked data: %#v", view)
		}
	}

	// 8) La nota de consulta exige full
	{
		st, _ := doReq(t, ts.URL, "PATCH", "/care/profiles/"+profileID+"/notes", clinicianID, map[string]any{
			"notes": "revisar hierro",
		})
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 notes with restricted level, got %d", st)
		}
	}

	// 9) El clínico pide el upgrade; el guardián lo aprueba con level=full
	{
		st, body := doReq(t, ts.URL, "POST", "/access/grants/"+grantID+"/request-full", clinicianID, map[string]any{
			"message": "necesito el historial de crecimiento",
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 request-full, got %d body=%s", st, string(body))
		}
		var g map[string]any
		_ = json.Unmarshal(body, &g)
		if g["full_access_requested"] != true {
			t.Fatalf("expected full_access_requested=true, got %s", string(body))
		}
	}
	{
		st, body := doReq(t, ts.URL, "POST", "/access/grants/"+grantID+"/approve", guardianID, map[string]any{
			"level": "full",
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 upgrade approve, got %d body=%s", st, string(body))
		}
		var g map[string]any
		_ = json.Unmarshal(body, &g)
		if g["level"] != "full" || g["full_access_requested"] == true {
			t.Fatalf("expected full level with cleared flag, got %s", string(body))
		}
	}

	// 10) Vista full: perfil completo + timeline
	{
		view := getView(t, ts.URL, clinicianID, profileID)
		if view.Kind != "full" {
			t.Fatalf("expected full view, got %s", view.Kind)
		}
		if view.Profile == nil || view.Profile.Age != 7 {
			t.Fatalf("expected full profile with exact age, got %#v", view.Profile)
		}
		if len(view.Meals) != 1 {
			t.Fatalf("expected 1 meal in full view, got %d", len(view.Meals))
		}
	}

	// 11) Con full puede escribir la nota de consulta
	{
		st, body := doReq(t, ts.URL, "PATCH", "/care/profiles/"+profileID+"/notes", clinicianID, map[string]any{
			"notes": "revisar hierro",
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 notes with full level, got %d body=%s", st, string(body))
		}
	}

	// 12) El clínico aparece con el paciente en /me/patients
	{
		st, body := doReq(t, ts.URL, "GET", "/me/patients", clinicianID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 my patients, got %d body=%s", st, string(body))
		}
		var items []map[string]any
		_ = json.Unmarshal(body, &items)
		if len(items) != 1 {
			t.Fatalf("expected 1 active patient, got %d", len(items))
		}
	}

	// 13) Revoke corta el acceso en la lectura siguiente
	{
		st, body := doReq(t, ts.URL, "POST", "/access/grants/"+grantID+"/revoke", guardianID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 revoke, got %d body=%s", st, string(body))
		}
	}
	assertViewKind(t, ts.URL, clinicianID, profileID, "no_access")

	// 14) El grant revocado es historia: un request nuevo pasa
	newGrantID := requestAccess(t, ts.URL, clinicianID, "ana@example.com")
	if newGrantID == grantID {
		t.Fatalf("expected a fresh grant after revoke")
	}
}

func TestHTTP_EscalationGate_TracksGrantState(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	guardianID := registerAccount(t, ts.URL, "laura@example.com", "Laura", "guardian")
	clinicianID := registerAccount(t, ts.URL, "dr.rios@example.com", "Dr. Ríos", "clinician")

	profileID := createProfile(t, ts.URL, guardianID, map[string]any{
		"name":      "Benja",
		"age":       4,
		"sex":       "male",
		"height_cm": 99.0,
		"weight_kg": 13.2,
	})

	// Guardián levanta un evento de riesgo
	var eventID string
	{
		st, body := doReq(t, ts.URL, "POST", "/profiles/"+profileID+"/escalations", guardianID, map[string]any{
			"risk_level": "HIGH",
			"flags":      []string{"Potential Underweight (red flag)"},
			"analysis":   "BMI bajo para la edad",
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 raise escalation, got %d body=%s", st, string(body))
		}
		var resp struct {
			ID string `json:"id"`
		}
		_ = json.Unmarshal(body, &resp)
		eventID = resp.ID
	}

	// Sin grant, el clínico no lo ve y no puede resolverlo
	{
		st, body := doReq(t, ts.URL, "GET", "/escalations", clinicianID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 list escalations, got %d body=%s", st, string(body))
		}
		var items []map[string]any
		_ = json.Unmarshal(body, &items)
		if len(items) != 0 {
			t.Fatalf("expected no visible escalations without grant, got %d", len(items))
		}
	}
	{
		st, _ := doReq(t, ts.URL, "POST", "/escalations/"+eventID+"/resolve", clinicianID, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 resolve without grant, got %d", st)
		}
	}

	// Invitación directa del guardián + approve
	var grantID string
	{
		st, body := doReq(t, ts.URL, "POST", "/access/invites", guardianID, map[string]any{
			"clinician_email": "dr.rios@example.com",
			"profile_id":      profileID,
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 invite, got %d body=%s", st, string(body))
		}
		var resp struct {
			ID string `json:"id"`
		}
		_ = json.Unmarshal(body, &resp)
		grantID = resp.ID
	}
	{
		st, body := doReq(t, ts.URL, "POST", "/access/grants/"+grantID+"/approve", guardianID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 approve, got %d body=%s", st, string(body))
		}
	}

	// Con grant active el evento aparece y se puede resolver
	{
		st, body := doReq(t, ts.URL, "GET", "/escalations", clinicianID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 list escalations, got %d body=%s", st, string(body))
		}
		var items []map[string]any
		_ = json.Unmarshal(body, &items)
		if len(items) != 1 {
			t.Fatalf("expected 1 visible escalation, got %d body=%s", len(items), string(body))
		}
	}
	{
		st, body := doReq(t, ts.URL, "POST", "/escalations/"+eventID+"/resolve", clinicianID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 resolve, got %d body=%s", st, string(body))
		}
		var resp map[string]any
		_ = json.Unmarshal(body, &resp)
		if resp["resolved"] != true {
			t.Fatalf("expected resolved event, got %s", string(body))
		}
	}
}

func TestHTTP_AccessRequest_Validation(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	guardianID := registerAccount(t, ts.URL, "ana@example.com", "Ana", "guardian")
	clinicianID := registerAccount(t, ts.URL, "dr.paz@example.com", "Dra. Paz", "clinician")

	// guardián desconocido => 404
	{
		st, _ := doReq(t, ts.URL, "POST", "/access/requests", clinicianID, map[string]any{
			"guardian_email": "nadie@example.com",
		})
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 unknown guardian, got %d", st)
		}
	}

	// un guardián no puede iniciar open requests => 403
	{
		st, _ := doReq(t, ts.URL, "POST", "/access/requests", guardianID, map[string]any{
			"guardian_email": "ana@example.com",
		})
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 guardian as requester, got %d", st)
		}
	}

	// duplicado => 409
	requestAccess(t, ts.URL, clinicianID, "ana@example.com")
	{
		st, _ := doReq(t, ts.URL, "POST", "/access/requests", clinicianID, map[string]any{
			"guardian_email": "ana@example.com",
		})
		if st != http.StatusConflict {
			t.Fatalf("expected 409 duplicate request, got %d", st)
		}
	}

	// sin claims => 401
	{
		st, _ := doReq(t, ts.URL, "POST", "/access/requests", "", map[string]any{
			"guardian_email": "ana@example.com",
		})
		if st != http.StatusUnauthorized {
			t.Fatalf("expected 401 without claims, got %d", st)
		}
	}
}

// -------------------------
// Helpers
// -------------------------

type viewResponse struct {
	Kind string `json:"kind"`
	Card *struct {
		ProfileID string `json:"profile_id"`
		Name      string `json:"name"`
		AgeBand   string `json:"age_band"`
	} `json:"card"`
	Profile *struct {
		Age         int    `json:"age"`
		HealthNotes string `json:"health_notes"`
	} `json:"profile"`
	Meals  []map[string]any `json:"meals"`
	Growth []map[string]any `json:"growth"`
}

func registerAccount(t *testing.T, baseURL, email, name, role string) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/accounts", "", map[string]any{
		"email": email,
		"name":  name,
		"role":  role,
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 register account, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("register account: missing id body=%s", string(body))
	}
	return resp.ID
}

func createProfile(t *testing.T, baseURL, guardianID string, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/profiles", guardianID, payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create profile, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("create profile: missing id body=%s", string(body))
	}
	return resp.ID
}

func requestAccess(t *testing.T, baseURL, clinicianID, guardianEmail string) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/access/requests", clinicianID, map[string]any{
		"guardian_email": guardianEmail,
		"message":        "seguimiento nutricional",
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 request access, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("request access: missing id body=%s", string(body))
	}
	return resp.ID
}

func getView(t *testing.T, baseURL, clinicianID, profileID string) viewResponse {
	t.Helper()

	st, body := doReq(t, baseURL, "GET", "/care/profiles/"+profileID, clinicianID, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 care view, got %d body=%s", st, string(body))
	}

	var view viewResponse
	if err := json.Unmarshal(body, &view); err != nil {
		t.Fatalf("decode view: %v body=%s", err, string(body))
	}
	return view
}

func assertViewKind(t *testing.T, baseURL, clinicianID, profileID, want string) {
	t.Helper()

	view := getView(t, baseURL, clinicianID, profileID)
	if view.Kind != want {
		t.Fatalf("expected view kind %s, got %s", want, view.Kind)
	}
}

func doReq(t *testing.T, baseURL, method, path, debugUserID string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if debugUserID != "" {
		req.Header.Set("X-Debug-User-ID", debugUserID)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
