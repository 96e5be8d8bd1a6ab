package classifications_test

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

	"github.com/JaimeStill/factotum/internal/classifications"
	"github.com/JaimeStill/factotum/pkg/pagination"
)

type mockSystem struct {
	listFn       func(ctx context.Context, page pagination.PageRequest, filters classifications.Filters) (*pagination.PageResult[classifications.Classification], error)
	findFn       func(ctx context.Context, id uuid.UUID) (*classifications.Classification, error)
	forProductFn func(ctx context.Context, productID uuid.UUID) ([]classifications.Classification, error)
	methodsFn    func(ctx context.Context) ([]classifications.Method, error)
	assignFn     func(ctx context.Context, cmd classifications.AssignCommand) (*classifications.Classification, error)
	bulkFn       func(ctx context.Context, cmd classifications.BulkAssignCommand) (*classifications.BulkResult, error)
	removeFn     func(ctx context.Context, id uuid.UUID) error
	recomputeFn  func(ctx context.Context) (*classifications.RecomputeResult, error)
	verifyFn     func(ctx context.Context) (*classifications.VerifyResult, error)
}

func (m *mockSystem) Handler() *classifications.Handler { return newTestHandler(m) }

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters classifications.Filters) (*pagination.PageResult[classifications.Classification], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) Find(ctx context.Context, id uuid.UUID) (*classifications.Classification, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) ForProduct(ctx context.Context, productID uuid.UUID) ([]classifications.Classification, error) {
	return m.forProductFn(ctx, productID)
}

func (m *mockSystem) Methods(ctx context.Context) ([]classifications.Method, error) {
	return m.methodsFn(ctx)
}

func (m *mockSystem) Assign(ctx context.Context, cmd classifications.AssignCommand) (*classifications.Classification, error) {
	return m.assignFn(ctx, cmd)
}

func (m *mockSystem) BulkAssign(ctx context.Context, cmd classifications.BulkAssignCommand) (*classifications.BulkResult, error) {
	return m.bulkFn(ctx, cmd)
}

func (m *mockSystem) Remove(ctx context.Context, id uuid.UUID) error {
	return m.removeFn(ctx, id)
}

func (m *mockSystem) Recompute(ctx context.Context) (*classifications.RecomputeResult, error) {
	return m.recomputeFn(ctx)
}

func (m *mockSystem) Verify(ctx context.Context) (*classifications.VerifyResult, error) {
	return m.verifyFn(ctx)
}

func newTestHandler(sys classifications.System) *classifications.Handler {
	return classifications.NewHandler(
		sys,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
	)
}

func setupMux(h *classifications.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	group := h.Routes()
	for _, route := range group.Routes {
		pattern := route.Method + " " + group.Prefix + route.Pattern
		mux.HandleFunc(pattern, route.Handler)
	}
	return mux
}

func TestHandlerList(t *testing.T) {
	product := uuid.New()
	c := link(product, classifications.MethodRule, 0)

	var captured classifications.Filters
	sys := &mockSystem{
		listFn: func(_ context.Context, _ pagination.PageRequest, f classifications.Filters) (*pagination.PageResult[classifications.Classification], error) {
			captured = f
			result := pagination.NewPageResult([]classifications.Classification{c}, 1, 1, 20)
			return &result, nil
		},
	}
	mux := setupMux(newTestHandler(sys))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/classifications?product_id="+product.String()+"&classification_method=RU&is_uber_puc=true", nil)
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if captured.ProductID == nil || *captured.ProductID != product {
		t.Errorf("product filter = %v, want %v", captured.ProductID, product)
	}
	if captured.Method == nil || *captured.Method != classifications.MethodRule {
		t.Errorf("method filter = %v, want RU", captured.Method)
	}
	if captured.IsUberPUC == nil || !*captured.IsUberPUC {
		t.Errorf("is_uber_puc filter = %v, want true", captured.IsUberPUC)
	}
}

func TestHandlerAssign(t *testing.T) {
	t.Run("returns resolved link", func(t *testing.T) {
		var captured classifications.AssignCommand
		sys := &mockSystem{
			assignFn: func(_ context.Context, cmd classifications.AssignCommand) (*classifications.Classification, error) {
				captured = cmd
				c := link(cmd.ProductID, cmd.Method, 0)
				c.PUCID = cmd.PUCID
				c.IsUberPUC = true
				return &c, nil
			},
		}
		mux := setupMux(newTestHandler(sys))

		cmd := classifications.AssignCommand{
			ProductID: uuid.New(),
			PUCID:     uuid.New(),
			Method:    classifications.MethodManual,
		}
		body, _ := json.Marshal(cmd)

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("POST", "/classifications", bytes.NewReader(body)))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if captured.ProductID != cmd.ProductID || captured.Method != classifications.MethodManual {
			t.Errorf("command = %+v, want %+v", captured, cmd)
		}

		var got classifications.Classification
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !got.IsUberPUC {
			t.Error("is_uber_puc = false, want true")
		}
	})

	errorTests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid method", classifications.ErrInvalidMethod, http.StatusBadRequest},
		{"invalid confidence", classifications.ErrInvalidConfidence, http.StatusBadRequest},
		{"missing reference", classifications.ErrReferenceNotFound, http.StatusNotFound},
	}

	for _, tt := range errorTests {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{
				assignFn: func(context.Context, classifications.AssignCommand) (*classifications.Classification, error) {
					return nil, tt.err
				},
			}
			mux := setupMux(newTestHandler(sys))

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("POST", "/classifications", bytes.NewReader([]byte(`{}`))))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandlerBulkAssign(t *testing.T) {
	sys := &mockSystem{
		bulkFn: func(_ context.Context, cmd classifications.BulkAssignCommand) (*classifications.BulkResult, error) {
			if err := cmd.Validate(); err != nil {
				return nil, err
			}
			return &classifications.BulkResult{
				Products:  len(cmd.ProductIDs),
				Assigned:  int64(len(cmd.ProductIDs)),
				Recompute: classifications.RecomputeResult{Flagged: int64(len(cmd.ProductIDs))},
			}, nil
		},
	}
	mux := setupMux(newTestHandler(sys))

	t.Run("assigns batch", func(t *testing.T) {
		body, _ := json.Marshal(classifications.BulkAssignCommand{
			PUCID:      uuid.New(),
			ProductIDs: []uuid.UUID{uuid.New(), uuid.New()},
			Method:     classifications.MethodBulk,
		})

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("POST", "/classifications/bulk", bytes.NewReader(body)))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var got classifications.BulkResult
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.Products != 2 || got.Recompute.Flagged != 2 {
			t.Errorf("result = %+v", got)
		}
	})

	t.Run("rejects non-batch method", func(t *testing.T) {
		body, _ := json.Marshal(classifications.BulkAssignCommand{
			PUCID:      uuid.New(),
			ProductIDs: []uuid.UUID{uuid.New()},
			Method:     classifications.MethodManual,
		})

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("POST", "/classifications/bulk", bytes.NewReader(body)))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestHandlerRemove(t *testing.T) {
	tests := []struct {
		name string
		path string
		err  error
		want int
	}{
		{"removed", "/classifications/" + uuid.NewString(), nil, http.StatusNoContent},
		{"not found", "/classifications/" + uuid.NewString(), classifications.ErrNotFound, http.StatusNotFound},
		{"invalid uuid", "/classifications/bad", nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{removeFn: func(context.Context, uuid.UUID) error { return tt.err }}
			mux := setupMux(newTestHandler(sys))

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("DELETE", tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandlerVerify(t *testing.T) {
	product := uuid.New()
	sys := &mockSystem{
		verifyFn: func(context.Context) (*classifications.VerifyResult, error) {
			return &classifications.VerifyResult{
				Products: 1,
				Links:    2,
				Mismatches: []classifications.Mismatch{
					{ProductID: product, Expected: uuid.New()},
				},
			}, nil
		},
	}
	mux := setupMux(newTestHandler(sys))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/classifications/verify", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got classifications.VerifyResult
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Mismatches) != 1 || got.Mismatches[0].ProductID != product {
		t.Errorf("mismatches = %+v", got.Mismatches)
	}
}

func TestHandlerMethods(t *testing.T) {
	sys := &mockSystem{
		methodsFn: func(context.Context) ([]classifications.Method, error) {
			return []classifications.Method{
				{Code: classifications.MethodManual, Name: "Manual", Rank: 1},
				{Code: classifications.MethodRule, Name: "Rule-based", Rank: 2},
			}, nil
		},
	}
	mux := setupMux(newTestHandler(sys))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/classifications/methods", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got []classifications.Method
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got[0].Rank != 1 {
		t.Errorf("methods = %+v", got)
	}
}
