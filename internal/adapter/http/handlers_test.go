package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/depgraph-io/engine/internal/domain"
	"github.com/depgraph-io/engine/internal/domain/dependency"
	"github.com/depgraph-io/engine/internal/domain/workitem"
	"github.com/depgraph-io/engine/internal/middleware"
	"github.com/depgraph-io/engine/internal/port/eventbus"
	"github.com/depgraph-io/engine/internal/resilience"
	"github.com/depgraph-io/engine/internal/service"
)

type fakeEdgeStore struct {
	edges  map[string]*dependency.Edge
	create func(req dependency.CreateRequest) (*dependency.Edge, error)
}

func newFakeEdgeStore() *fakeEdgeStore {
	return &fakeEdgeStore{edges: map[string]*dependency.Edge{}}
}

func (f *fakeEdgeStore) List(_ context.Context, _ string) ([]dependency.Edge, error) {
	out := make([]dependency.Edge, 0, len(f.edges))
	for _, e := range f.edges {
		out = append(out, *e)
	}
	return out, nil
}

func (f *fakeEdgeStore) Get(_ context.Context, _, id string) (*dependency.Edge, error) {
	e, ok := f.edges[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return e, nil
}

func (f *fakeEdgeStore) Create(_ context.Context, tenantID, actorID string, req dependency.CreateRequest) (*dependency.Edge, error) {
	if f.create != nil {
		return f.create(req)
	}
	e := &dependency.Edge{ID: "e1", TenantID: tenantID, FromID: req.FromID, ToID: req.ToID, Type: req.Type, LagDays: req.LagDays, CreatedBy: actorID}
	f.edges[e.ID] = e
	return e, nil
}

func (f *fakeEdgeStore) Update(_ context.Context, _, id string, req dependency.UpdateRequest) (*dependency.Edge, error) {
	e, ok := f.edges[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if req.LagDays != nil {
		e.LagDays = *req.LagDays
	}
	return e, nil
}

func (f *fakeEdgeStore) Delete(_ context.Context, _, id string) error {
	if _, ok := f.edges[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.edges, id)
	return nil
}

type fakeWorkItemStore struct {
	items map[string]workitem.WorkItem
}

func (f *fakeWorkItemStore) List(_ context.Context, _ string) ([]workitem.WorkItem, error) {
	out := make([]workitem.WorkItem, 0, len(f.items))
	for _, it := range f.items {
		out = append(out, it)
	}
	return out, nil
}
func (f *fakeWorkItemStore) Get(_ context.Context, _, id string) (*workitem.WorkItem, error) {
	it, ok := f.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &it, nil
}
func (f *fakeWorkItemStore) Create(_ context.Context, _ string, _ workitem.CreateRequest) (*workitem.WorkItem, error) {
	return nil, nil
}
func (f *fakeWorkItemStore) Update(_ context.Context, _, _ string, _ workitem.UpdateRequest) (*workitem.WorkItem, error) {
	return nil, nil
}
func (f *fakeWorkItemStore) Delete(_ context.Context, _, _ string) error { return nil }

type noopBus struct{}

func (noopBus) Publish(context.Context, string, []byte) error                       { return nil }
func (noopBus) Subscribe(context.Context, string, eventbus.Handler) (func(), error) { return func() {}, nil }
func (noopBus) Drain() error                                                        { return nil }
func (noopBus) Close() error                                                        { return nil }
func (noopBus) IsConnected() bool                                                   { return true }

const (
	testWorkItemA = "11111111-1111-1111-1111-111111111111"
	testWorkItemB = "22222222-2222-2222-2222-222222222222"
	testMissingID = "99999999-9999-9999-9999-999999999999"
)

func newTestHandlers() (*Handlers, *fakeEdgeStore) {
	edgeStore := newFakeEdgeStore()
	itemStore := &fakeWorkItemStore{items: map[string]workitem.WorkItem{
		testWorkItemA: {ID: testWorkItemA, Type: workitem.TypeTask, Title: "a"},
		testWorkItemB: {ID: testWorkItemB, Type: workitem.TypeTask, Title: "b"},
	}}
	edgeSvc := service.NewEdgeService(edgeStore, noopBus{}, resilience.NewBreaker(5, 0))
	graphSvc := service.NewGraphService(itemStore, edgeStore, nil)
	return &Handlers{Edges: edgeSvc, Graph: graphSvc}, edgeStore
}

// withPrincipal runs the real tenant/principal middleware ahead of h so the
// handler under test sees the same context it would in production.
func withPrincipal(r *http.Request, tenantID, userID string, h http.HandlerFunc) http.Handler {
	r.Header.Set("X-Tenant-ID", tenantID)
	r.Header.Set("X-User-ID", userID)
	return middleware.TenantID(middleware.PrincipalFromHeaders(h))
}

func TestCreateDependency_MissingFields(t *testing.T) {
	h, _ := newTestHandlers()
	body := bytes.NewBufferString(`{"from_id":"a"}`)
	r := httptest.NewRequest(http.MethodPost, "/api/dependencies", body)
	w := httptest.NewRecorder()

	withPrincipal(r, "t1", "u1", h.createDependency).ServeHTTP(w, r)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateDependency_Success(t *testing.T) {
	h, _ := newTestHandlers()
	body := bytes.NewBufferString(`{"from_id":"` + testWorkItemA + `","to_id":"` + testWorkItemB + `","dependency_type":"finish_to_start"}`)
	r := httptest.NewRequest(http.MethodPost, "/api/dependencies", body)
	w := httptest.NewRecorder()

	withPrincipal(r, "t1", "u1", h.createDependency).ServeHTTP(w, r)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var got envelope
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !got.Success {
		t.Fatal("expected success=true")
	}
}

func TestCreateDependency_CycleRejected(t *testing.T) {
	h, store := newTestHandlers()
	store.create = func(req dependency.CreateRequest) (*dependency.Edge, error) {
		return nil, &domain.CycleError{From: req.FromID, To: req.ToID, Cycle: []string{req.ToID, req.FromID}}
	}
	body := bytes.NewBufferString(`{"from_id":"` + testWorkItemA + `","to_id":"` + testWorkItemB + `","dependency_type":"finish_to_start"}`)
	r := httptest.NewRequest(http.MethodPost, "/api/dependencies", body)
	w := httptest.NewRecorder()

	withPrincipal(r, "t1", "u1", h.createDependency).ServeHTTP(w, r)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
	var got envelope
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.Error != "CYCLE_DETECTED" {
		t.Fatalf("expected CYCLE_DETECTED, got %q", got.Error)
	}
}

func TestGetDependency_NotFound(t *testing.T) {
	h, _ := newTestHandlers()
	r := httptest.NewRequest(http.MethodGet, "/api/dependencies/"+testMissingID, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", testMissingID)
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	w := httptest.NewRecorder()

	withPrincipal(r, "t1", "u1", h.getDependency).ServeHTTP(w, r)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestGetGraph_ReturnsCPMResult(t *testing.T) {
	h, store := newTestHandlers()
	store.edges["e1"] = &dependency.Edge{ID: "e1", TenantID: "t1", FromID: testWorkItemA, ToID: testWorkItemB, Type: dependency.TypeFinishToStart}

	r := httptest.NewRequest(http.MethodGet, "/api/graph", nil)
	w := httptest.NewRecorder()

	withPrincipal(r, "t1", "u1", h.getGraph).ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var got struct {
		Success bool         `json:"success"`
		Data    service.Graph `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got.Data.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(got.Data.Nodes))
	}
}

