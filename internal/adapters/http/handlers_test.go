package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	handler "github.com/skyplanhq/skyplan/internal/adapters/http"
	"github.com/skyplanhq/skyplan/internal/core/domain"
	"github.com/skyplanhq/skyplan/internal/core/ports"
	"github.com/skyplanhq/skyplan/internal/core/usecases"
	"github.com/skyplanhq/skyplan/internal/pkg/progress"
)

// ---- Mock imagery collaborators ----

type mockMaps struct{}

func (mockMaps) WaypointMapURL(wp domain.Waypoint, label int) string {
	return fmt.Sprintf("https://maps.test/detail/%d", label)
}
func (mockMaps) OverviewMapURL(wps []domain.Waypoint) string {
	if len(wps) == 0 {
		return ""
	}
	return "https://maps.test/overview"
}

type mockImages struct {
	fetchFn func(ctx context.Context, url string) (string, error)
}

func (m *mockImages) FetchEncoded(ctx context.Context, url string) (string, error) {
	if m.fetchFn != nil {
		return m.fetchFn(ctx, url)
	}
	return "aGVsbG8=", nil
}

// mockBuilder accepts everything and emits a fixed payload.
type mockBuilder struct {
	pages int
}

func (b *mockBuilder) AddPage()                              { b.pages++ }
func (b *mockBuilder) EnsureSpace(float64)                   {}
func (b *mockBuilder) Title(string)                          {}
func (b *mockBuilder) Heading(string)                        {}
func (b *mockBuilder) Text(string)                           {}
func (b *mockBuilder) Spacer(float64)                        {}
func (b *mockBuilder) Table([]string, []float64, [][]string) {}
func (b *mockBuilder) Image(string, float64, float64) error  { return nil }
func (b *mockBuilder) PageCount() int                        { return b.pages }
func (b *mockBuilder) Output() ([]byte, error)               { return []byte("%PDF-1.4 test"), nil }

// ---- Test helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(opts ...func(*handler.Dependencies)) *handler.Dependencies {
	routes := usecases.NewRouteService()
	d := &handler.Dependencies{
		Plans: usecases.NewPlanService(routes, 100),
		Reports: usecases.NewReportService(mockMaps{}, &mockImages{},
			func() ports.DocumentBuilder { return &mockBuilder{} }, 100),
		Progress: progress.NewBroker(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func request(t *testing.T, app *fiber.App, method, target string, body interface{}) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, b
}

func createPlan(t *testing.T, app *fiber.App, title string) usecases.PlanView {
	t.Helper()
	status, body := request(t, app, "POST", "/v1/plans", map[string]string{"title": title})
	if status != 201 {
		t.Fatalf("create plan: expected 201, got %d: %s", status, body)
	}
	var plan usecases.PlanView
	if err := json.Unmarshal(body, &plan); err != nil {
		t.Fatalf("decode plan: %v", err)
	}
	return plan
}

func addWaypoint(t *testing.T, app *fiber.App, planID, name string, lat, lon float64) usecases.PlanView {
	t.Helper()
	status, body := request(t, app, "POST", "/v1/plans/"+planID+"/waypoints",
		map[string]interface{}{"name": name, "lat": lat, "lon": lon})
	if status != 201 {
		t.Fatalf("add waypoint: expected 201, got %d: %s", status, body)
	}
	var plan usecases.PlanView
	if err := json.Unmarshal(body, &plan); err != nil {
		t.Fatalf("decode plan: %v", err)
	}
	return plan
}

// ---- Plan handler tests ----

func TestCreatePlan_Returns201(t *testing.T) {
	app := setupApp(makeDeps())

	plan := createPlan(t, app, "Cross country")
	if plan.ID == "" {
		t.Error("expected a plan ID")
	}
	if plan.Title != "Cross country" {
		t.Errorf("expected title, got %q", plan.Title)
	}
	if len(plan.Waypoints) != 0 {
		t.Errorf("expected empty plan, got %d waypoints", len(plan.Waypoints))
	}
}

func TestGetPlan_NotFound(t *testing.T) {
	app := setupApp(makeDeps())

	status, body := request(t, app, "GET", "/v1/plans/nonexistent-id", nil)
	if status != 404 {
		t.Fatalf("expected 404, got %d", status)
	}

	var apiErr struct {
		Code string `json:"code"`
	}
	json.Unmarshal(body, &apiErr)
	if apiErr.Code != "not_found" {
		t.Errorf("expected not_found error, got %s", apiErr.Code)
	}
}

func TestDeletePlan_ThenGone(t *testing.T) {
	app := setupApp(makeDeps())
	plan := createPlan(t, app, "short lived")

	status, _ := request(t, app, "DELETE", "/v1/plans/"+plan.ID, nil)
	if status != 204 {
		t.Fatalf("expected 204, got %d", status)
	}

	status, _ = request(t, app, "GET", "/v1/plans/"+plan.ID, nil)
	if status != 404 {
		t.Fatalf("expected 404 after delete, got %d", status)
	}
}

func TestListPlans_Pagination(t *testing.T) {
	app := setupApp(makeDeps())
	for i := 0; i < 5; i++ {
		createPlan(t, app, fmt.Sprintf("plan %d", i))
	}

	status, body := request(t, app, "GET", "/v1/plans?offset=2&limit=2", nil)
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}

	var result struct {
		Data       []usecases.PlanView `json:"data"`
		Pagination struct {
			Offset int `json:"offset"`
			Limit  int `json:"limit"`
			Total  int `json:"total"`
		} `json:"pagination"`
	}
	json.Unmarshal(body, &result)
	if result.Pagination.Total != 5 {
		t.Errorf("expected total 5, got %d", result.Pagination.Total)
	}
	if len(result.Data) != 2 {
		t.Errorf("expected 2 plans in page, got %d", len(result.Data))
	}
	if result.Pagination.Offset != 2 {
		t.Errorf("expected offset 2, got %d", result.Pagination.Offset)
	}
}

func TestListPlans_LinkHeader(t *testing.T) {
	app := setupApp(makeDeps())
	for i := 0; i < 10; i++ {
		createPlan(t, app, fmt.Sprintf("plan %d", i))
	}

	req := httptest.NewRequest("GET", "/v1/plans?offset=0&limit=3", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	link := resp.Header.Get("Link")
	if link == "" {
		t.Fatal("expected Link header, got empty")
	}
	if !strings.Contains(link, `rel="next"`) {
		t.Errorf("expected next link, got %s", link)
	}
	if !strings.Contains(link, `rel="first"`) {
		t.Errorf("expected first link, got %s", link)
	}
	if !strings.Contains(link, `rel="last"`) {
		t.Errorf("expected last link, got %s", link)
	}
}

// ---- Waypoint handler tests ----

func TestAddWaypoint_LabelsFollowPosition(t *testing.T) {
	app := setupApp(makeDeps())
	plan := createPlan(t, app, "labels")

	addWaypoint(t, app, plan.ID, "Alpha", 59.9, 10.6)
	updated := addWaypoint(t, app, plan.ID, "Bravo", 60.2, 11.1)

	if len(updated.Waypoints) != 2 {
		t.Fatalf("expected 2 waypoints, got %d", len(updated.Waypoints))
	}
	if updated.Waypoints[0].Label != 1 || updated.Waypoints[1].Label != 2 {
		t.Errorf("expected labels 1,2 got %d,%d", updated.Waypoints[0].Label, updated.Waypoints[1].Label)
	}
	if len(updated.Route.Legs) != 1 {
		t.Errorf("expected 1 leg, got %d", len(updated.Route.Legs))
	}
}

func TestAddWaypoint_MissingCoords(t *testing.T) {
	app := setupApp(makeDeps())
	plan := createPlan(t, app, "bad input")

	status, body := request(t, app, "POST", "/v1/plans/"+plan.ID+"/waypoints",
		map[string]interface{}{"name": "NoCoords"})
	if status != 400 {
		t.Fatalf("expected 400, got %d: %s", status, body)
	}
}

func TestAddWaypoint_OutOfRangeCoords(t *testing.T) {
	app := setupApp(makeDeps())
	plan := createPlan(t, app, "bad coords")

	status, _ := request(t, app, "POST", "/v1/plans/"+plan.ID+"/waypoints",
		map[string]interface{}{"name": "Nowhere", "lat": 95.0, "lon": 10.0})
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
}

func TestMoveWaypoint_SwapsNeighbors(t *testing.T) {
	app := setupApp(makeDeps())
	plan := createPlan(t, app, "reorder")
	addWaypoint(t, app, plan.ID, "Alpha", 59.9, 10.6)
	updated := addWaypoint(t, app, plan.ID, "Bravo", 60.2, 11.1)
	wid := updated.Waypoints[1].ID

	status, body := request(t, app, "POST", "/v1/plans/"+plan.ID+"/waypoints/"+wid+"/move",
		map[string]int{"delta": -1})
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}

	var moved usecases.PlanView
	json.Unmarshal(body, &moved)
	if moved.Waypoints[0].Name != "Bravo" {
		t.Errorf("expected Bravo first, got %s", moved.Waypoints[0].Name)
	}
	if moved.Waypoints[0].Label != 1 {
		t.Errorf("labels must follow position, got %d", moved.Waypoints[0].Label)
	}
}

func TestMoveWaypoint_OutOfRangeIsNoOp(t *testing.T) {
	app := setupApp(makeDeps())
	plan := createPlan(t, app, "edge move")
	updated := addWaypoint(t, app, plan.ID, "Solo", 59.9, 10.6)
	wid := updated.Waypoints[0].ID

	status, body := request(t, app, "POST", "/v1/plans/"+plan.ID+"/waypoints/"+wid+"/move",
		map[string]int{"delta": -1})
	if status != 200 {
		t.Fatalf("expected 200 no-op, got %d", status)
	}

	var moved usecases.PlanView
	json.Unmarshal(body, &moved)
	if moved.Waypoints[0].Name != "Solo" {
		t.Errorf("expected order unchanged, got %s first", moved.Waypoints[0].Name)
	}
}

func TestUpdateWaypoint_Rename(t *testing.T) {
	app := setupApp(makeDeps())
	plan := createPlan(t, app, "rename")
	updated := addWaypoint(t, app, plan.ID, "Old Name", 59.9, 10.6)
	wid := updated.Waypoints[0].ID

	status, body := request(t, app, "PATCH", "/v1/plans/"+plan.ID+"/waypoints/"+wid,
		map[string]string{"name": "New Name"})
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}

	var renamed usecases.PlanView
	json.Unmarshal(body, &renamed)
	if renamed.Waypoints[0].Name != "New Name" {
		t.Errorf("expected New Name, got %s", renamed.Waypoints[0].Name)
	}
}

func TestUpdateWaypoint_RepositionRecomputesRoute(t *testing.T) {
	app := setupApp(makeDeps())
	plan := createPlan(t, app, "drag")
	addWaypoint(t, app, plan.ID, "Alpha", 59.9, 10.6)
	updated := addWaypoint(t, app, plan.ID, "Bravo", 60.2, 11.1)
	wid := updated.Waypoints[1].ID
	before := updated.Route.TotalDistanceNM

	status, body := request(t, app, "PATCH", "/v1/plans/"+plan.ID+"/waypoints/"+wid,
		map[string]float64{"lat": 61.0, "lon": 12.0})
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}

	var after usecases.PlanView
	json.Unmarshal(body, &after)
	if after.Route.TotalDistanceNM == before {
		t.Error("expected route distance to change after reposition")
	}
}

func TestUpdateWaypoint_LatWithoutLon(t *testing.T) {
	app := setupApp(makeDeps())
	plan := createPlan(t, app, "half coords")
	updated := addWaypoint(t, app, plan.ID, "Alpha", 59.9, 10.6)
	wid := updated.Waypoints[0].ID

	status, _ := request(t, app, "PATCH", "/v1/plans/"+plan.ID+"/waypoints/"+wid,
		map[string]float64{"lat": 61.0})
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
}

func TestUpdateWaypoint_EmptyBody(t *testing.T) {
	app := setupApp(makeDeps())
	plan := createPlan(t, app, "noop patch")
	updated := addWaypoint(t, app, plan.ID, "Alpha", 59.9, 10.6)
	wid := updated.Waypoints[0].ID

	status, _ := request(t, app, "PATCH", "/v1/plans/"+plan.ID+"/waypoints/"+wid,
		map[string]string{})
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
}

func TestRemoveWaypoint_Relabels(t *testing.T) {
	app := setupApp(makeDeps())
	plan := createPlan(t, app, "remove")
	first := addWaypoint(t, app, plan.ID, "Alpha", 59.9, 10.6)
	addWaypoint(t, app, plan.ID, "Bravo", 60.2, 11.1)
	addWaypoint(t, app, plan.ID, "Charlie", 60.5, 11.5)

	status, body := request(t, app, "DELETE",
		"/v1/plans/"+plan.ID+"/waypoints/"+first.Waypoints[0].ID, nil)
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}

	var after usecases.PlanView
	json.Unmarshal(body, &after)
	if len(after.Waypoints) != 2 {
		t.Fatalf("expected 2 waypoints, got %d", len(after.Waypoints))
	}
	if after.Waypoints[0].Name != "Bravo" || after.Waypoints[0].Label != 1 {
		t.Errorf("expected Bravo relabeled to 1, got %s label %d",
			after.Waypoints[0].Name, after.Waypoints[0].Label)
	}
}

func TestRemoveWaypoint_UnknownID(t *testing.T) {
	app := setupApp(makeDeps())
	plan := createPlan(t, app, "remove missing")

	status, _ := request(t, app, "DELETE", "/v1/plans/"+plan.ID+"/waypoints/no-such-id", nil)
	if status != 404 {
		t.Fatalf("expected 404, got %d", status)
	}
}

// ---- Route handler tests ----

func TestGetRoute_EmptyPlan(t *testing.T) {
	app := setupApp(makeDeps())
	plan := createPlan(t, app, "empty route")

	status, body := request(t, app, "GET", "/v1/plans/"+plan.ID+"/route", nil)
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}

	var route domain.Route
	json.Unmarshal(body, &route)
	if len(route.Legs) != 0 {
		t.Errorf("expected no legs, got %d", len(route.Legs))
	}
	if route.TotalDistanceNM != 0 {
		t.Errorf("expected zero distance, got %f", route.TotalDistanceNM)
	}
}

// ---- Export handler tests ----

func TestExportPlan_EmptyPlanRejected(t *testing.T) {
	app := setupApp(makeDeps())
	plan := createPlan(t, app, "empty export")

	status, body := request(t, app, "POST", "/v1/plans/"+plan.ID+"/export", nil)
	if status != 400 {
		t.Fatalf("expected 400, got %d: %s", status, body)
	}
}

func TestExportPlan_Success(t *testing.T) {
	app := setupApp(makeDeps())
	plan := createPlan(t, app, "export ok")
	addWaypoint(t, app, plan.ID, "Alpha", 59.9, 10.6)
	addWaypoint(t, app, plan.ID, "Bravo", 60.2, 11.1)

	req := httptest.NewRequest("POST", "/v1/plans/"+plan.ID+"/export", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("expected application/pdf, got %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "flight-plan-") {
		t.Errorf("expected attachment disposition, got %q", cd)
	}

	body, _ := io.ReadAll(resp.Body)
	if !bytes.HasPrefix(body, []byte("%PDF")) {
		t.Errorf("expected PDF payload, got %q", body[:min(len(body), 8)])
	}
}

func TestExportPlan_UpstreamFailureIs502(t *testing.T) {
	failing := &mockImages{
		fetchFn: func(ctx context.Context, url string) (string, error) {
			return "", &domain.FetchError{URL: url, StatusCode: 500, Status: "500 Internal Server Error"}
		},
	}
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Reports = usecases.NewReportService(mockMaps{}, failing,
			func() ports.DocumentBuilder { return &mockBuilder{} }, 100)
	})
	app := setupApp(deps)
	plan := createPlan(t, app, "export fail")
	addWaypoint(t, app, plan.ID, "Alpha", 59.9, 10.6)

	status, body := request(t, app, "POST", "/v1/plans/"+plan.ID+"/export", nil)
	if status != 502 {
		t.Fatalf("expected 502, got %d: %s", status, body)
	}

	var apiErr struct {
		Code string `json:"code"`
	}
	json.Unmarshal(body, &apiErr)
	if apiErr.Code != "bad_gateway" {
		t.Errorf("expected bad_gateway, got %s", apiErr.Code)
	}
}

// ---- Health handler tests ----

func TestHealth_Returns200(t *testing.T) {
	app := setupApp(makeDeps())

	status, body := request(t, app, "GET", "/v1/health", nil)
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}

	var result map[string]interface{}
	json.Unmarshal(body, &result)
	if result["status"] != "healthy" {
		t.Errorf("expected healthy status, got %v", result["status"])
	}
}

func TestReady_AllWired(t *testing.T) {
	app := setupApp(makeDeps())

	status, _ := request(t, app, "GET", "/v1/ready", nil)
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
}

func TestReady_MissingService(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Reports = nil
	})
	app := setupApp(deps)

	status, _ := request(t, app, "GET", "/v1/ready", nil)
	if status != 503 {
		t.Fatalf("expected 503, got %d", status)
	}
}

// ---- X-API-Version header ----

func TestAPIVersionHeader(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	v := resp.Header.Get("X-API-Version")
	if v != "1.0.0" {
		t.Errorf("expected X-API-Version 1.0.0, got %q", v)
	}
}

// TestAccessLogMiddleware verifies structured access logging is emitted.
func TestAccessLogMiddleware(t *testing.T) {
	app := fiber.New()

	// Register middleware
	app.Use(handler.AccessLogMiddleware())

	// Simple test route
	app.Get("/test", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
	})

	// Make request
	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", "test-req-123")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	// Verify response body
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "ok") {
		t.Errorf("expected response body to contain 'ok', got %s", string(body))
	}
}
