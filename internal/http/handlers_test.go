package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/outreach-tracker/internal/persistence/memory"
	"github.com/example/outreach-tracker/internal/testfixtures"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	store := memory.New()
	t.Cleanup(func() { _ = store.Close() })
	services := testfixtures.NewServiceFactory().NewServices(store)

	return NewRouter(RouterConfig{
		Companies:     NewCompanyHandler(services.Companies, services.People, nil),
		People:        NewPersonHandler(services.People, services.Attempts, nil),
		EmailAttempts: NewEmailAttemptHandler(services.Attempts, nil),
		Analytics:     NewAnalyticsHandler(services.Analytics, nil),
	})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

// seedAcme creates a company with one contact and returns their IDs.
func seedAcme(t *testing.T, h http.Handler) (companyID, personID string) {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/companies", `{"name":"Acme","website":"https://acme.example","companySize":"11-50"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	companyID = decode[companyResponse](t, rec).Company.ID

	rec = do(t, h, http.MethodPost, "/people", fmt.Sprintf(`{"companyId":%q,"name":"Ada","email":"ada@acme.example"}`, companyID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	personID = decode[personResponse](t, rec).Person.ID
	return companyID, personID
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestRouter(t), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("Content-Type"))
}

func TestCompanyHandlers_OutreachFlowKeepsAggregatesConsistent(t *testing.T) {
	h := newTestRouter(t)
	companyID, personID := seedAcme(t, h)

	for i, sent := range []string{"2024-07-20", "2024-07-31", "2024-07-25"} {
		body := fmt.Sprintf(`{"personId":%q,"attemptNumber":%d,"sentDate":%q,"subject":"Hello","openCount":1}`, personID, i+1, sent)
		rec := do(t, h, http.MethodPost, "/email-attempts", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Equal(t, companyID, decode[emailAttemptResponse](t, rec).EmailAttempt.CompanyID)
	}

	rec := do(t, h, http.MethodGet, "/companies/"+companyID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[companyDetailResponse](t, rec)

	assert.Equal(t, 3, detail.Company.TotalEmails)
	assert.Equal(t, 1, detail.Company.TotalPeople)
	assert.Equal(t, 1, detail.Company.OpenCount)
	assert.True(t, detail.Company.HasOpened)
	assert.False(t, detail.Company.HasResponded)
	require.NotNil(t, detail.Company.LastAttempt)
	assert.Equal(t, "2024-07-31", *detail.Company.LastAttempt)
	assert.Equal(t, 3, detail.Company.CurrentRound)
	require.Len(t, detail.People, 1)
	assert.Equal(t, 3, detail.People[0].Attempts)
	assert.Len(t, detail.EmailAttempts, 3)

	rec = do(t, h, http.MethodGet, "/companies/"+companyID+"/people", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[listPeopleResponse](t, rec).People, 1)

	rec = do(t, h, http.MethodGet, "/people/"+personID+"/email-attempts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[listEmailAttemptsResponse](t, rec).EmailAttempts, 3)
}

func TestCompanyHandlers_RejectDerivedFields(t *testing.T) {
	h := newTestRouter(t)
	companyID, personID := seedAcme(t, h)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		field  string
	}{
		{"company create with counter", http.MethodPost, "/companies", `{"name":"Globex","website":"https://globex.example","totalEmails":5}`, "totalEmails"},
		{"company patch with flag", http.MethodPatch, "/companies/" + companyID, `{"hasResponded":true}`, "hasResponded"},
		{"company patch with decision", http.MethodPatch, "/companies/" + companyID, `{"decision":"Yes"}`, "decision"},
		{"person patch moving company", http.MethodPatch, "/people/" + personID, `{"companyId":"elsewhere"}`, "companyId"},
		{"person create with attempts", http.MethodPost, "/people", fmt.Sprintf(`{"companyId":%q,"name":"Bob","email":"bob@acme.example","attempts":2}`, companyID), "attempts"},
		{"unknown field", http.MethodPost, "/companies", `{"name":"Globex","website":"https://globex.example","ceo":"Hank"}`, "ceo"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, tc.method, tc.path, tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			resp := decode[errorResponse](t, rec)
			assert.Equal(t, kindValidation, resp.Kind)
			assert.Contains(t, resp.Errors, tc.field)
		})
	}

	rec := do(t, h, http.MethodGet, "/companies/"+companyID, "")
	detail := decode[companyDetailResponse](t, rec)
	assert.Zero(t, detail.Company.TotalEmails)
	assert.False(t, detail.Company.HasResponded)
	assert.Nil(t, detail.Company.Decision)
}

func TestCompanyHandlers_PatchAndDecision(t *testing.T) {
	h := newTestRouter(t)
	companyID, _ := seedAcme(t, h)

	rec := do(t, h, http.MethodPatch, "/companies/"+companyID, `{"name":"Acme Corp","companySize":null}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	company := decode[companyResponse](t, rec).Company
	assert.Equal(t, "Acme Corp", company.Name)
	assert.Equal(t, "https://acme.example", company.Website)
	assert.Nil(t, company.CompanySize)

	rec = do(t, h, http.MethodPatch, "/companies/"+companyID, `{"companySize":"huge"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Errors, "companySize")

	rec = do(t, h, http.MethodPut, "/companies/"+companyID+"/decision", `{"decision":"Yes"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decided := decode[companyResponse](t, rec).Company
	require.NotNil(t, decided.Decision)
	assert.Equal(t, "Yes", *decided.Decision)
	assert.Equal(t, 1, decided.TotalPeople, "decision leaves aggregates untouched")

	rec = do(t, h, http.MethodPut, "/companies/"+companyID+"/decision", `{"decision":null}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode[companyResponse](t, rec).Company.Decision)

	rec = do(t, h, http.MethodPut, "/companies/"+companyID+"/decision", `{"decision":"Maybe"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Errors, "decision")

	rec = do(t, h, http.MethodPut, "/companies/"+companyID+"/decision", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompanyHandlers_ListPaginatesAndFilters(t *testing.T) {
	h := newTestRouter(t)
	for i := 1; i <= 25; i++ {
		rec := do(t, h, http.MethodPost, "/companies", fmt.Sprintf(`{"name":"Company %02d","website":"https://c%02d.example"}`, i, i))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := do(t, h, http.MethodGet, "/companies?page=3&pageSize=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[companyPageResponse](t, rec)
	assert.Equal(t, 25, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 3, page.Page)
	require.Len(t, page.Items, 5)
	assert.Equal(t, "Company 21", page.Items[0].Name)

	rec = do(t, h, http.MethodGet, "/companies?page=9&pageSize=10", "")
	assert.Equal(t, 3, decode[companyPageResponse](t, rec).Page, "out of range pages clamp to the last page")

	rec = do(t, h, http.MethodGet, "/companies?search=company%2007", "")
	page = decode[companyPageResponse](t, rec)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "Company 07", page.Items[0].Name)

	rec = do(t, h, http.MethodGet, "/companies?status=attempts-left", "")
	assert.Equal(t, 25, decode[companyPageResponse](t, rec).Total)

	for _, query := range []string{"status=bogus", "page=abc", "pageSize=101"} {
		rec = do(t, h, http.MethodGet, "/companies?"+query, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
		assert.Equal(t, kindValidation, decode[errorResponse](t, rec).Kind, query)
	}
}

func TestHandlers_ErrorStatusMapping(t *testing.T) {
	h := newTestRouter(t)
	companyID, personID := seedAcme(t, h)

	rec := do(t, h, http.MethodGet, "/companies/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, kindNotFound, decode[errorResponse](t, rec).Kind)

	rec = do(t, h, http.MethodPost, "/people", `{"companyId":"missing","name":"Bob","email":"bob@example.com"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, kindReferentialIntegrity, decode[errorResponse](t, rec).Kind)

	rec = do(t, h, http.MethodPost, "/email-attempts", fmt.Sprintf(`{"personId":%q,"companyId":"other","attemptNumber":1,"sentDate":"2024-07-20","subject":"Hi"}`, personID))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, "/email-attempts", fmt.Sprintf(`{"personId":%q,"attemptNumber":2,"sentDate":"2024-07-20","subject":"Hi"}`, personID))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Errors, "attemptNumber")

	rec = do(t, h, http.MethodPost, "/email-attempts", `{"personId":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, kindBadRequest, decode[errorResponse](t, rec).Kind)

	rec = do(t, h, http.MethodPost, "/email-attempts", `{"personId":"x","attemptNumber":"one"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Errors, "attemptNumber")

	rec = do(t, h, http.MethodPost, "/people", fmt.Sprintf(`{"companyId":%q,"name":"Bob","email":"not-an-email"}`, companyID))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "email must be a valid email address", decode[errorResponse](t, rec).Errors["email"])
}

func TestEmailAttemptHandlers_EngagementAndDelete(t *testing.T) {
	h := newTestRouter(t)
	companyID, personID := seedAcme(t, h)

	var attemptIDs []string
	for i := 1; i <= 2; i++ {
		rec := do(t, h, http.MethodPost, "/email-attempts", fmt.Sprintf(`{"personId":%q,"attemptNumber":%d,"sentDate":"2024-07-2%d","subject":"Hi"}`, personID, i, i))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		attemptIDs = append(attemptIDs, decode[emailAttemptResponse](t, rec).EmailAttempt.ID)
	}

	rec := do(t, h, http.MethodPost, "/email-attempts/"+attemptIDs[0]+"/engagement", `{"kind":"click"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decode[emailAttemptResponse](t, rec).EmailAttempt.ClickCount)

	rec = do(t, h, http.MethodPost, "/email-attempts/"+attemptIDs[1]+"/engagement", `{"kind":"response"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/email-attempts/"+attemptIDs[1]+"/engagement", `{"kind":"bounce"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/companies?status=responded", "")
	assert.Equal(t, 1, decode[companyPageResponse](t, rec).Total)

	rec = do(t, h, http.MethodDelete, "/email-attempts/"+attemptIDs[0], "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "only the latest attempt can be removed")

	rec = do(t, h, http.MethodDelete, "/email-attempts/"+attemptIDs[1], "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/email-attempts?companyId="+companyID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[listEmailAttemptsResponse](t, rec).EmailAttempts, 1)

	rec = do(t, h, http.MethodGet, "/email-attempts/"+attemptIDs[1], "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlers_DeleteCompanyCascades(t *testing.T) {
	h := newTestRouter(t)
	companyID, personID := seedAcme(t, h)
	rec := do(t, h, http.MethodPost, "/email-attempts", fmt.Sprintf(`{"personId":%q,"attemptNumber":1,"sentDate":"2024-07-20","subject":"Hi"}`, personID))
	require.Equal(t, http.StatusCreated, rec.Code)
	attemptID := decode[emailAttemptResponse](t, rec).EmailAttempt.ID

	rec = do(t, h, http.MethodDelete, "/companies/"+companyID, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/companies/"+companyID, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/people/"+personID, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/email-attempts/"+attemptID, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/companies/"+companyID, "").Code)
}

func TestPersonHandlers_UpdateAndList(t *testing.T) {
	h := newTestRouter(t)
	companyID, personID := seedAcme(t, h)

	rec := do(t, h, http.MethodPatch, "/people/"+personID, `{"position":"CTO","responded":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	person := decode[personResponse](t, rec).Person
	require.NotNil(t, person.Position)
	assert.Equal(t, "CTO", *person.Position)
	assert.True(t, person.Responded)

	rec = do(t, h, http.MethodGet, "/companies/"+companyID, "")
	assert.True(t, decode[companyDetailResponse](t, rec).Company.HasResponded)

	rec = do(t, h, http.MethodPatch, "/people/"+personID, `{"responded":null}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/people?companyId="+companyID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[listPeopleResponse](t, rec).People, 1)

	rec = do(t, h, http.MethodGet, "/people?companyId=missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodDelete, "/people/"+personID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/companies/"+companyID, "")
	assert.Zero(t, decode[companyDetailResponse](t, rec).Company.TotalPeople)
}

func TestAnalyticsHandler_Summary(t *testing.T) {
	h := newTestRouter(t)
	_, personID := seedAcme(t, h)
	rec := do(t, h, http.MethodPost, "/email-attempts", fmt.Sprintf(`{"personId":%q,"attemptNumber":1,"sentDate":"2024-07-20","subject":"Hi","openCount":2}`, personID))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodGet, "/analytics/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.EqualValues(t, 1, summary["totalCompanies"])
	assert.EqualValues(t, 1, summary["totalEmails"])
	assert.EqualValues(t, 100, summary["openRate"])
}

func TestRouter_CORSPreflight(t *testing.T) {
	h := NewRouter(RouterConfig{AllowedOrigins: []string{"http://localhost:3000"}})

	req := httptest.NewRequest(http.MethodOptions, "/companies", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)
}
