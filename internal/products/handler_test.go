package products_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/factotum/internal/classifications"
	"github.com/JaimeStill/factotum/internal/products"
	"github.com/JaimeStill/factotum/pkg/pagination"
)

type mockSystem struct {
	listFn            func(ctx context.Context, page pagination.PageRequest, filters products.Filters) (*pagination.PageResult[products.Product], error)
	findFn            func(ctx context.Context, id uuid.UUID) (*products.Product, error)
	createFn          func(ctx context.Context, cmd products.CreateCommand) (*products.Product, error)
	updateFn          func(ctx context.Context, id uuid.UUID, cmd products.UpdateCommand) (*products.Product, error)
	deleteFn          func(ctx context.Context, id uuid.UUID) error
	classificationsFn func(ctx context.Context, id uuid.UUID) ([]classifications.Classification, error)
}

func (m *mockSystem) Handler() *products.Handler {
	return products.NewHandler(m, slog.New(slog.NewTextHandler(io.Discard, nil)), pagination.Config{DefaultPageSize: 20, MaxPageSize: 100})
}

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters products.Filters) (*pagination.PageResult[products.Product], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) Find(ctx context.Context, id uuid.UUID) (*products.Product, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) Create(ctx context.Context, cmd products.CreateCommand) (*products.Product, error) {
	return m.createFn(ctx, cmd)
}

func (m *mockSystem) Update(ctx context.Context, id uuid.UUID, cmd products.UpdateCommand) (*products.Product, error) {
	return m.updateFn(ctx, id, cmd)
}

func (m *mockSystem) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFn(ctx, id)
}

func (m *mockSystem) Classifications(ctx context.Context, id uuid.UUID) ([]classifications.Classification, error) {
	return m.classificationsFn(ctx, id)
}

func setupMux(sys *mockSystem) *http.ServeMux {
	h := sys.Handler()
	mux := http.NewServeMux()
	group := h.Routes()
	for _, route := range group.Routes {
		pattern := route.Method + " " + group.Prefix + route.Pattern
		mux.HandleFunc(pattern, route.Handler)
	}
	return mux
}

func sampleProduct() products.Product {
	puc := uuid.MustParse("770e8400-e29b-41d4-a716-446655440000")
	return products.Product{
		ID:           uuid.MustParse("550e8400-e29b-41d4-a716-446655440000"),
		Title:        "Lemon dish soap",
		UPC:          "012345678905",
		Manufacturer: "Acme Household",
		BrandName:    "Acme",
		CreatedAt:    time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
		UpdatedAt:    time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
		UberPUCID:    &puc,
	}
}

func TestHandlerList(t *testing.T) {
	p := sampleProduct()
	var captured products.Filters
	sys := &mockSystem{
		listFn: func(_ context.Context, _ pagination.PageRequest, f products.Filters) (*pagination.PageResult[products.Product], error) {
			captured = f
			result := pagination.NewPageResult([]products.Product{p}, 1, 1, 20)
			return &result, nil
		},
	}
	mux := setupMux(sys)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/products?puc_id="+p.UberPUCID.String()+"&unclassified=false&brand_name=Acme", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if captured.PUCID == nil || *captured.PUCID != *p.UberPUCID {
		t.Errorf("puc filter = %v", captured.PUCID)
	}
	if captured.Unclassified == nil || *captured.Unclassified {
		t.Errorf("unclassified filter = %v, want false", captured.Unclassified)
	}
	if captured.BrandName == nil || *captured.BrandName != "Acme" {
		t.Errorf("brand filter = %v", captured.BrandName)
	}
}

func TestHandlerCreate(t *testing.T) {
	p := sampleProduct()

	t.Run("creates product", func(t *testing.T) {
		sys := &mockSystem{
			createFn: func(_ context.Context, cmd products.CreateCommand) (*products.Product, error) {
				if cmd.UPC != p.UPC {
					t.Errorf("upc = %q, want %q", cmd.UPC, p.UPC)
				}
				return &p, nil
			},
		}
		mux := setupMux(sys)

		body, _ := json.Marshal(products.CreateCommand{Title: p.Title, UPC: p.UPC})
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("POST", "/products", bytes.NewReader(body)))

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201", rec.Code)
		}
	})

	errorTests := []struct {
		name string
		err  error
		want int
	}{
		{"duplicate upc", products.ErrDuplicate, http.StatusConflict},
		{"missing title", products.ErrTitleRequired, http.StatusBadRequest},
		{"unknown document", products.ErrDocumentNotFound, http.StatusNotFound},
	}

	for _, tt := range errorTests {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{
				createFn: func(context.Context, products.CreateCommand) (*products.Product, error) {
					return nil, tt.err
				},
			}
			mux := setupMux(sys)

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("POST", "/products", bytes.NewReader([]byte(`{}`))))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandlerClassifications(t *testing.T) {
	p := sampleProduct()

	t.Run("returns links in priority order", func(t *testing.T) {
		sys := &mockSystem{
			classificationsFn: func(_ context.Context, id uuid.UUID) ([]classifications.Classification, error) {
				return []classifications.Classification{
					{ID: uuid.New(), ProductID: id, Method: classifications.MethodManual, MethodRank: 1, IsUberPUC: true},
					{ID: uuid.New(), ProductID: id, Method: classifications.MethodAutomatic, MethodRank: 5},
				}, nil
			},
		}
		mux := setupMux(sys)

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", "/products/"+p.ID.String()+"/classifications", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var got []classifications.Classification
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(got) != 2 || !got[0].IsUberPUC || got[0].Method != classifications.MethodManual {
			t.Errorf("links = %+v", got)
		}
	})

	t.Run("unknown product returns 404", func(t *testing.T) {
		sys := &mockSystem{
			classificationsFn: func(context.Context, uuid.UUID) ([]classifications.Classification, error) {
				return nil, products.ErrNotFound
			},
		}
		mux := setupMux(sys)

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", "/products/"+uuid.NewString()+"/classifications", nil))

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestHandlerDelete(t *testing.T) {
	tests := []struct {
		name string
		path string
		err  error
		want int
	}{
		{"deleted", "/products/" + uuid.NewString(), nil, http.StatusNoContent},
		{"not found", "/products/" + uuid.NewString(), products.ErrNotFound, http.StatusNotFound},
		{"invalid uuid", "/products/abc", nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{deleteFn: func(context.Context, uuid.UUID) error { return tt.err }}
			mux := setupMux(sys)

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("DELETE", tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
