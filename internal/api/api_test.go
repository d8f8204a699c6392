package api

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/erazemk/inventar/internal/attach"
	"github.com/erazemk/inventar/internal/auth"
	"github.com/erazemk/inventar/internal/db"
	"github.com/erazemk/inventar/internal/i18n"
	"github.com/erazemk/inventar/internal/imaging"
	"github.com/erazemk/inventar/internal/metrics"
	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/sample"
	"github.com/erazemk/inventar/internal/session"
	"github.com/erazemk/inventar/internal/store"
)

const testJWTSecret = "test-secret"

type testEnv struct {
	server *httptest.Server
	store  *store.Store
	token  string
}

func newTestEnv(t *testing.T, loginRate int) *testEnv {
	t.Helper()
	st := store.New(db.NewTestDB(t))
	m := metrics.New()
	sess := session.New(st, i18n.New("en"),
		session.WithMetrics(m),
		session.WithImporter(attach.NewImporter(attach.WithTempDir(t.TempDir()))),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		sess.Run(ctx)
	}()

	thumbs, err := imaging.NewThumbnails(16)
	if err != nil {
		t.Fatalf("NewThumbnails: %v", err)
	}
	seed, err := sample.Default()
	if err != nil {
		t.Fatalf("sample.Default: %v", err)
	}

	router := NewRouter(Deps{
		Store:              st,
		Session:            sess,
		Tokens:             auth.NewTokens(testJWTSecret, 0),
		Thumbnails:         thumbs,
		Metrics:            m,
		Seed:               seed,
		Currency:           "€",
		Language:           "en",
		LoginRatePerMinute: loginRate,
	})
	server := httptest.NewServer(router)
	t.Cleanup(func() {
		server.Close()
		cancel()
		<-done
	})

	hash, _ := auth.HashPassword("password")
	if _, err := st.CreateUser(context.Background(), "owner", hash); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	return &testEnv{server: server, store: st}
}

func (e *testEnv) login(t *testing.T) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": "owner", "password": "password"})
	resp, err := http.Post(e.server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}

	var loginResp map[string]string
	json.NewDecoder(resp.Body).Decode(&loginResp)
	if loginResp["token"] == "" {
		t.Fatal("empty token from login")
	}
	return loginResp["token"]
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()
	e := newTestEnv(t, 0)
	e.token = e.login(t)
	return e
}

// do sends an authenticated JSON request and decodes the response into out
// when out is non-nil. It returns the status code.
func (e *testEnv) do(t *testing.T, method, path string, body, out any) int {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+e.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func (e *testEnv) createEntry(t *testing.T, path, name string) uuid.UUID {
	t.Helper()
	var entry model.CatalogEntry
	if code := e.do(t, "POST", path, map[string]string{"name": name}, &entry); code != http.StatusCreated {
		t.Fatalf("POST %s %q: expected 201, got %d", path, name, code)
	}
	return entry.ID
}

type refs struct {
	room, owner, brand, category uuid.UUID
}

func (e *testEnv) seedCatalogs(t *testing.T) refs {
	t.Helper()
	return refs{
		room:     e.createEntry(t, "/api/rooms", "Kitchen"),
		owner:    e.createEntry(t, "/api/owners", "Anna"),
		brand:    e.createEntry(t, "/api/brands", "Ikea"),
		category: e.createEntry(t, "/api/categories", "Furniture"),
	}
}

func (e *testEnv) createItem(t *testing.T, name string, r refs) *model.Item {
	t.Helper()
	in := model.ItemInput{Name: name, Price: 100, RoomID: r.room, OwnerID: r.owner, BrandID: r.brand, CategoryID: r.category}
	var it model.Item
	if code := e.do(t, "POST", "/api/items", in, &it); code != http.StatusCreated {
		t.Fatalf("POST /api/items: expected 201, got %d", code)
	}
	return &it
}

type projectionBody struct {
	Total    int `json:"total"`
	Sections []struct {
		Key   string       `json:"key"`
		Items []model.Item `json:"items"`
	} `json:"sections"`
	CountLabel string `json:"count_label"`
}

func TestLoginEndpoint(t *testing.T) {
	e := newTestEnv(t, 0)

	body, _ := json.Marshal(map[string]string{"username": "owner", "password": "wrong"})
	resp, _ := http.Post(e.server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	body, _ = json.Marshal(map[string]string{"username": "owner"})
	resp, _ = http.Post(e.server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for missing password, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLoginRateLimited(t *testing.T) {
	e := newTestEnv(t, 2)

	body, _ := json.Marshal(map[string]string{"username": "owner", "password": "wrong"})
	var last int
	for range 3 {
		resp, err := http.Post(e.server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
		if err != nil {
			t.Fatalf("login request: %v", err)
		}
		last = resp.StatusCode
		resp.Body.Close()
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("expected 429 after the burst is spent, got %d", last)
	}
}

func TestUnauthenticatedAccess(t *testing.T) {
	e := newTestEnv(t, 0)

	resp, _ := http.Get(e.server.URL + "/api/projection")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unauthenticated request, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLogoutRevokesToken(t *testing.T) {
	e := setupTestServer(t)

	if code := e.do(t, "GET", "/api/projection", nil, nil); code != http.StatusOK {
		t.Fatalf("expected 200 before logout, got %d", code)
	}
	if code := e.do(t, "POST", "/api/auth/logout", nil, nil); code != http.StatusNoContent {
		t.Fatalf("expected 204 from logout, got %d", code)
	}
	if code := e.do(t, "GET", "/api/projection", nil, nil); code != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", code)
	}
}

func TestChangePassword(t *testing.T) {
	e := setupTestServer(t)

	code := e.do(t, "PUT", "/api/auth/password", map[string]string{
		"current_password": "wrong", "new_password": "new-password",
	}, nil)
	if code != http.StatusUnauthorized {
		t.Errorf("expected 401 for wrong current password, got %d", code)
	}

	code = e.do(t, "PUT", "/api/auth/password", map[string]string{
		"current_password": "password", "new_password": "short",
	}, nil)
	if code != http.StatusBadRequest {
		t.Errorf("expected 400 for short password, got %d", code)
	}

	code = e.do(t, "PUT", "/api/auth/password", map[string]string{
		"current_password": "password", "new_password": "new-password",
	}, nil)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}

	user, _ := e.store.GetUserByUsername(context.Background(), "owner")
	if !auth.CheckPassword(user.PasswordHash, "new-password") {
		t.Error("expected the new password to be stored")
	}
}

func TestAddItemWithEmptyCatalogs(t *testing.T) {
	e := setupTestServer(t)

	var body catalogMissingResponse
	code := e.do(t, "POST", "/api/items", model.ItemInput{Name: "Lamp"}, &body)
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", code)
	}
	if len(body.Missing) != 4 {
		t.Errorf("expected all four catalogs missing, got %v", body.Missing)
	}
	if strings.Join(body.Actions, ",") != "dismiss,generate_sample_data" {
		t.Errorf("unexpected actions: %v", body.Actions)
	}
}

func TestItemsAPIFlow(t *testing.T) {
	e := setupTestServer(t)
	r := e.seedCatalogs(t)
	other := e.createEntry(t, "/api/owners", "Peter")

	lamp := e.createItem(t, "Lamp", r)
	chair := e.createItem(t, "Chair", r)

	var snap projectionBody
	if code := e.do(t, "GET", "/api/projection", nil, &snap); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if snap.Total != 2 || snap.CountLabel != "2 items" {
		t.Errorf("expected 2 items, got %d (%q)", snap.Total, snap.CountLabel)
	}

	// Moving the chair to another owner and filtering by it.
	in := chair.Input()
	in.OwnerID = other
	if code := e.do(t, "PUT", "/api/items/"+chair.ID.String(), in, nil); code != http.StatusOK {
		t.Fatalf("expected 200 from update, got %d", code)
	}
	if code := e.do(t, "PUT", "/api/filter", map[string]string{"owner": "Peter"}, &snap); code != http.StatusOK {
		t.Fatalf("expected 200 from filter, got %d", code)
	}
	if snap.Total != 1 || snap.Sections[0].Items[0].Name != "Chair" {
		t.Errorf("expected only Chair for Peter, got %+v", snap)
	}
	if code := e.do(t, "DELETE", "/api/filter", nil, &snap); code != http.StatusOK || snap.Total != 2 {
		t.Errorf("expected reset filter to show 2 items, got %d/%d", code, snap.Total)
	}

	var dup model.Item
	if code := e.do(t, "POST", "/api/items/"+lamp.ID.String()+"/duplicate", nil, &dup); code != http.StatusCreated {
		t.Fatalf("expected 201 from duplicate, got %d", code)
	}
	if dup.Name != "Lamp (copy)" {
		t.Errorf("expected duplicate name %q, got %q", "Lamp (copy)", dup.Name)
	}

	if code := e.do(t, "DELETE", "/api/items/"+lamp.ID.String(), nil, nil); code != http.StatusNoContent {
		t.Errorf("expected 204 from delete, got %d", code)
	}
	if code := e.do(t, "GET", "/api/items/"+lamp.ID.String(), nil, nil); code != http.StatusNotFound {
		t.Errorf("expected 404 for deleted item, got %d", code)
	}
	if code := e.do(t, "GET", "/api/items/not-a-uuid", nil, nil); code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed id, got %d", code)
	}
}

func TestCatalogConflicts(t *testing.T) {
	e := setupTestServer(t)
	r := e.seedCatalogs(t)
	e.createItem(t, "Lamp", r)

	if code := e.do(t, "POST", "/api/rooms", map[string]string{"name": "kitchen"}, nil); code != http.StatusConflict {
		t.Errorf("expected 409 for duplicate room name, got %d", code)
	}
	if code := e.do(t, "DELETE", "/api/rooms/"+r.room.String(), nil, nil); code != http.StatusConflict {
		t.Errorf("expected 409 for room in use, got %d", code)
	}
	if code := e.do(t, "POST", "/api/brands", map[string]string{"name": "  "}, nil); code != http.StatusBadRequest {
		t.Errorf("expected 400 for blank name, got %d", code)
	}

	var entries []model.CatalogEntry
	e.do(t, "GET", "/api/rooms", nil, &entries)
	if len(entries) != 1 || entries[0].Name != "Kitchen" {
		t.Errorf("unexpected rooms: %+v", entries)
	}

	var scopes session.ScopeOptions
	e.do(t, "GET", "/api/scopes", nil, &scopes)
	if strings.Join(scopes.Rooms, ",") != "All,Kitchen" {
		t.Errorf("unexpected room scopes: %v", scopes.Rooms)
	}
}

func TestSelectionFlow(t *testing.T) {
	e := setupTestServer(t)
	r := e.seedCatalogs(t)
	lamp := e.createItem(t, "Lamp", r)
	e.createItem(t, "Chair", r)

	if code := e.do(t, "POST", "/api/selection/"+lamp.ID.String(), nil, nil); code != http.StatusConflict {
		t.Errorf("expected 409 when toggling while browsing, got %d", code)
	}

	var view session.SelectionView
	e.do(t, "POST", "/api/selection", nil, &view)
	if view.State.String() != "selecting_for_delete" {
		t.Errorf("expected selecting state, got %v", view.State)
	}
	e.do(t, "POST", "/api/selection/"+lamp.ID.String(), nil, &view)
	if len(view.Selected) != 1 || view.Selected[0] != lamp.ID {
		t.Errorf("expected Lamp selected, got %v", view.Selected)
	}

	var res confirmResponse
	if code := e.do(t, "POST", "/api/selection/confirm", nil, &res); code != http.StatusOK {
		t.Fatalf("expected 200 from confirm, got %d", code)
	}
	if len(res.Deleted) != 1 || len(res.Failed) != 0 {
		t.Errorf("unexpected confirm result: %+v", res)
	}

	var snap projectionBody
	e.do(t, "GET", "/api/projection", nil, &snap)
	if snap.Total != 1 {
		t.Errorf("expected 1 item left, got %d", snap.Total)
	}
}

func TestSampleDataAndExport(t *testing.T) {
	e := setupTestServer(t)

	var sum sample.Summary
	if code := e.do(t, "POST", "/api/sample-data", nil, &sum); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if sum.Items != 6 {
		t.Errorf("expected 6 items created, got %d", sum.Items)
	}

	req, _ := http.NewRequest("GET", e.server.URL+"/api/export.csv", nil)
	req.Header.Set("Authorization", "Bearer "+e.token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("export request: %v", err)
	}
	defer resp.Body.Close()

	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/csv") {
		t.Errorf("unexpected content type %q", resp.Header.Get("Content-Type"))
	}
	records, err := csv.NewReader(resp.Body).ReadAll()
	if err != nil {
		t.Fatalf("reading CSV: %v", err)
	}
	if len(records) != 7 {
		t.Errorf("expected header and 6 rows, got %d records", len(records))
	}
}

func pngBody(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 400, 200))
	for x := range 400 {
		for y := range 200 {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding PNG: %v", err)
	}
	return buf.Bytes()
}

func TestAttachmentUploadAndThumbnail(t *testing.T) {
	e := setupTestServer(t)
	r := e.seedCatalogs(t)
	lamp := e.createItem(t, "Lamp", r)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("file", "photo.png")
	part.Write(pngBody(t))
	part, _ = mw.CreateFormFile("file", "notes.txt")
	part.Write([]byte("plain text"))
	mw.Close()

	req, _ := http.NewRequest("POST", e.server.URL+"/api/items/"+lamp.ID.String()+"/attachments", &body)
	req.Header.Set("Authorization", "Bearer "+e.token)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("upload request: %v", err)
	}
	var outcomes []session.Outcome
	json.NewDecoder(resp.Body).Decode(&outcomes)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	if outcomes[0].Error != "" || outcomes[0].Kind != attach.KindImage {
		t.Errorf("expected the image to be stored, got %+v", outcomes[0])
	}
	if outcomes[1].Error == "" {
		t.Error("expected the text file to be rejected")
	}

	req, _ = http.NewRequest("GET", e.server.URL+"/api/items/"+lamp.ID.String()+"/thumbnail", nil)
	req.Header.Set("Authorization", "Bearer "+e.token)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("thumbnail request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/jpeg" {
		t.Errorf("expected a JPEG thumbnail, got %d %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}

	if code := e.do(t, "GET", "/api/items/"+lamp.ID.String()+"/invoice", nil, nil); code != http.StatusNotFound {
		t.Errorf("expected 404 for missing invoice, got %d", code)
	}
}

func TestSettingsAndMetrics(t *testing.T) {
	e := setupTestServer(t)

	var settings settingsResponse
	e.do(t, "GET", "/api/settings", nil, &settings)
	if settings.Currency != "€" || settings.Language != "en" {
		t.Errorf("unexpected settings: %+v", settings)
	}

	resp, err := http.Get(e.server.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics request: %v", err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(data), `http_requests_total{method="GET",path="GET /api/settings",status="200"} 1`) {
		t.Errorf("expected the settings request to be counted, got:\n%s", data)
	}
}
