package pucs_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/factotum/internal/pucs"
	"github.com/JaimeStill/factotum/pkg/pagination"
)

type mockSystem struct {
	listFn     func(ctx context.Context, page pagination.PageRequest, filters pucs.Filters) (*pagination.PageResult[pucs.PUC], error)
	findFn     func(ctx context.Context, id uuid.UUID) (*pucs.PUC, error)
	createFn   func(ctx context.Context, cmd pucs.CreateCommand) (*pucs.PUC, error)
	updateFn   func(ctx context.Context, id uuid.UUID, cmd pucs.UpdateCommand) (*pucs.PUC, error)
	deleteFn   func(ctx context.Context, id uuid.UUID) error
	childrenFn func(ctx context.Context, id uuid.UUID) ([]pucs.PUC, error)
	productsFn func(ctx context.Context, id uuid.UUID, page pagination.PageRequest) (*pagination.PageResult[pucs.ProductSummary], error)
	treeFn     func(ctx context.Context) ([]*pucs.TreeNode, error)
	exportFn   func(ctx context.Context, w io.Writer) error
}

func (m *mockSystem) Handler() *pucs.Handler { return newTestHandler(m) }

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters pucs.Filters) (*pagination.PageResult[pucs.PUC], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) Find(ctx context.Context, id uuid.UUID) (*pucs.PUC, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) Create(ctx context.Context, cmd pucs.CreateCommand) (*pucs.PUC, error) {
	return m.createFn(ctx, cmd)
}

func (m *mockSystem) Update(ctx context.Context, id uuid.UUID, cmd pucs.UpdateCommand) (*pucs.PUC, error) {
	return m.updateFn(ctx, id, cmd)
}

func (m *mockSystem) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFn(ctx, id)
}

func (m *mockSystem) Children(ctx context.Context, id uuid.UUID) ([]pucs.PUC, error) {
	return m.childrenFn(ctx, id)
}

func (m *mockSystem) Products(ctx context.Context, id uuid.UUID, page pagination.PageRequest) (*pagination.PageResult[pucs.ProductSummary], error) {
	return m.productsFn(ctx, id, page)
}

func (m *mockSystem) Tree(ctx context.Context) ([]*pucs.TreeNode, error) {
	return m.treeFn(ctx)
}

func (m *mockSystem) InvalidateTree(context.Context) error { return nil }

func (m *mockSystem) Export(ctx context.Context, w io.Writer) error {
	return m.exportFn(ctx, w)
}

func newTestHandler(sys pucs.System) *pucs.Handler {
	return pucs.NewHandler(
		sys,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
	)
}

func setupMux(h *pucs.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	group := h.Routes()
	for _, route := range group.Routes {
		pattern := route.Method + " " + group.Prefix + route.Pattern
		mux.HandleFunc(pattern, route.Handler)
	}
	return mux
}

func TestHandlerList(t *testing.T) {
	p := puc("Home maintenance", "cleaning", "")
	var captured pucs.Filters
	sys := &mockSystem{
		listFn: func(_ context.Context, _ pagination.PageRequest, f pucs.Filters) (*pagination.PageResult[pucs.PUC], error) {
			captured = f
			result := pagination.NewPageResult([]pucs.PUC{p}, 1, 1, 20)
			return &result, nil
		},
	}
	mux := setupMux(newTestHandler(sys))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/pucs?kind=FO&gen_cat=Home+maintenance&level=2", nil)
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var result pagination.PageResult[pucs.PUC]
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(result.Data) != 1 || result.Data[0].ID != p.ID {
		t.Errorf("data = %+v, want single %v", result.Data, p.ID)
	}

	if captured.Kind == nil || *captured.Kind != pucs.KindFormulation {
		t.Errorf("kind filter = %v, want FO", captured.Kind)
	}
	if captured.GenCat == nil || *captured.GenCat != "Home maintenance" {
		t.Errorf("gen_cat filter = %v, want Home maintenance", captured.GenCat)
	}
	if captured.Level == nil || *captured.Level != pucs.LevelProductFamily {
		t.Errorf("level filter = %v, want 2", captured.Level)
	}
}

func TestHandlerFind(t *testing.T) {
	p := puc("Pet care", "", "")
	sys := &mockSystem{
		findFn: func(_ context.Context, id uuid.UUID) (*pucs.PUC, error) {
			if id != p.ID {
				return nil, pucs.ErrNotFound
			}
			return &p, nil
		},
	}
	mux := setupMux(newTestHandler(sys))

	tests := []struct {
		name string
		path string
		want int
	}{
		{"found", "/pucs/" + p.ID.String(), http.StatusOK},
		{"not found", "/pucs/" + uuid.New().String(), http.StatusNotFound},
		{"invalid uuid", "/pucs/not-a-uuid", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandlerKinds(t *testing.T) {
	mux := setupMux(newTestHandler(&mockSystem{}))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/pucs/kinds", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var kinds []pucs.KindInfo
	if err := json.NewDecoder(rec.Body).Decode(&kinds); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(kinds) != 4 {
		t.Errorf("kinds = %d, want 4", len(kinds))
	}
}

func TestHandlerCreate(t *testing.T) {
	t.Run("creates puc", func(t *testing.T) {
		var captured pucs.CreateCommand
		sys := &mockSystem{
			createFn: func(_ context.Context, cmd pucs.CreateCommand) (*pucs.PUC, error) {
				captured = cmd
				p := puc(cmd.GenCat, cmd.ProdFam, cmd.ProdType)
				return &p, nil
			},
		}
		mux := setupMux(newTestHandler(sys))

		body, _ := json.Marshal(pucs.CreateCommand{Kind: pucs.KindArticle, GenCat: "Sports equipment", ProdFam: "balls"})
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("POST", "/pucs", bytes.NewReader(body)))

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201", rec.Code)
		}
		if captured.GenCat != "Sports equipment" || captured.ProdFam != "balls" {
			t.Errorf("command = %+v", captured)
		}
	})

	errorTests := []struct {
		name string
		err  error
		want int
	}{
		{"duplicate", pucs.ErrDuplicate, http.StatusConflict},
		{"invalid hierarchy", pucs.ErrInvalidHierarchy, http.StatusBadRequest},
		{"missing gen_cat", pucs.ErrGenCatRequired, http.StatusBadRequest},
	}

	for _, tt := range errorTests {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{
				createFn: func(context.Context, pucs.CreateCommand) (*pucs.PUC, error) {
					return nil, tt.err
				},
			}
			mux := setupMux(newTestHandler(sys))

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("POST", "/pucs", bytes.NewReader([]byte(`{"gen_cat":"x"}`))))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}

	t.Run("invalid json returns 400", func(t *testing.T) {
		mux := setupMux(newTestHandler(&mockSystem{}))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("POST", "/pucs", bytes.NewReader([]byte("{"))))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestHandlerDelete(t *testing.T) {
	t.Run("no content", func(t *testing.T) {
		sys := &mockSystem{deleteFn: func(context.Context, uuid.UUID) error { return nil }}
		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("DELETE", "/pucs/"+uuid.NewString(), nil))
		if rec.Code != http.StatusNoContent {
			t.Errorf("status = %d, want 204", rec.Code)
		}
	})

	t.Run("in use returns 409", func(t *testing.T) {
		sys := &mockSystem{deleteFn: func(context.Context, uuid.UUID) error { return pucs.ErrInUse }}
		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("DELETE", "/pucs/"+uuid.NewString(), nil))
		if rec.Code != http.StatusConflict {
			t.Errorf("status = %d, want 409", rec.Code)
		}
	})
}

func TestHandlerTree(t *testing.T) {
	leaf := puc("Vehicle", "motor oil", "")
	sys := &mockSystem{
		treeFn: func(context.Context) ([]*pucs.TreeNode, error) {
			return pucs.BuildTree([]pucs.PUC{leaf}, map[uuid.UUID]int64{leaf.ID: 2}), nil
		},
	}
	mux := setupMux(newTestHandler(sys))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/pucs/tree", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var roots []pucs.TreeNode
	if err := json.NewDecoder(rec.Body).Decode(&roots); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(roots) != 1 || roots[0].CumulativeProductCount != 2 {
		t.Errorf("roots = %+v, want one root with cumulative count 2", roots)
	}
}

func TestHandlerExport(t *testing.T) {
	sys := &mockSystem{
		exportFn: func(_ context.Context, w io.Writer) error {
			return pucs.WriteWorkbook(w, []pucs.PUC{puc("Pet care", "", "")})
		},
	}
	mux := setupMux(newTestHandler(sys))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/pucs/export", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("content type = %q", ct)
	}
	if rec.Body.Len() == 0 {
		t.Error("empty workbook body")
	}
}

func TestHandlerChildren(t *testing.T) {
	child := puc("Pet care", "grooming", "")
	sys := &mockSystem{
		childrenFn: func(context.Context, uuid.UUID) ([]pucs.PUC, error) {
			return []pucs.PUC{child}, nil
		},
	}
	mux := setupMux(newTestHandler(sys))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/pucs/"+uuid.NewString()+"/children", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got []pucs.PUC
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].ProdFam != "grooming" {
		t.Errorf("children = %+v", got)
	}
}
