package rules_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/factotum/internal/rules"
	"github.com/JaimeStill/factotum/pkg/pagination"
)

type mockSystem struct {
	listFn       func(ctx context.Context, page pagination.PageRequest, filters rules.Filters) (*pagination.PageResult[rules.Rule], error)
	findFn       func(ctx context.Context, id uuid.UUID) (*rules.Rule, error)
	createFn     func(ctx context.Context, cmd rules.CreateCommand) (*rules.Rule, error)
	updateFn     func(ctx context.Context, id uuid.UUID, cmd rules.UpdateCommand) (*rules.Rule, error)
	deleteFn     func(ctx context.Context, id uuid.UUID) error
	activateFn   func(ctx context.Context, id uuid.UUID) (*rules.Rule, error)
	deactivateFn func(ctx context.Context, id uuid.UUID) (*rules.Rule, error)
	importFn     func(ctx context.Context, f *rules.File) (*rules.ImportResult, error)
	applyFn      func(ctx context.Context) (*rules.ApplyResult, error)
}

func (m *mockSystem) Handler() *rules.Handler { return newTestHandler(m) }

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters rules.Filters) (*pagination.PageResult[rules.Rule], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) Find(ctx context.Context, id uuid.UUID) (*rules.Rule, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) Create(ctx context.Context, cmd rules.CreateCommand) (*rules.Rule, error) {
	return m.createFn(ctx, cmd)
}

func (m *mockSystem) Update(ctx context.Context, id uuid.UUID, cmd rules.UpdateCommand) (*rules.Rule, error) {
	return m.updateFn(ctx, id, cmd)
}

func (m *mockSystem) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFn(ctx, id)
}

func (m *mockSystem) Activate(ctx context.Context, id uuid.UUID) (*rules.Rule, error) {
	return m.activateFn(ctx, id)
}

func (m *mockSystem) Deactivate(ctx context.Context, id uuid.UUID) (*rules.Rule, error) {
	return m.deactivateFn(ctx, id)
}

func (m *mockSystem) Import(ctx context.Context, f *rules.File) (*rules.ImportResult, error) {
	return m.importFn(ctx, f)
}

func (m *mockSystem) Apply(ctx context.Context) (*rules.ApplyResult, error) {
	return m.applyFn(ctx)
}

func newTestHandler(sys rules.System) *rules.Handler {
	return rules.NewHandler(
		sys,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
	)
}

func setupMux(h *rules.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	group := h.Routes()
	for _, route := range group.Routes {
		pattern := route.Method + " " + group.Prefix + route.Pattern
		mux.HandleFunc(pattern, route.Handler)
	}
	return mux
}

func TestHandlerList(t *testing.T) {
	var captured rules.Filters
	sys := &mockSystem{
		listFn: func(_ context.Context, _ pagination.PageRequest, f rules.Filters) (*pagination.PageResult[rules.Rule], error) {
			captured = f
			result := pagination.NewPageResult([]rules.Rule{rule("soap", "soap", rules.FieldTitle)}, 1, 1, 20)
			return &result, nil
		},
	}
	mux := setupMux(newTestHandler(sys))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/rules?name=so&field=brand_name&active=true", nil)
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if captured.Name == nil || *captured.Name != "so" {
		t.Errorf("name filter = %v, want so", captured.Name)
	}
	if captured.Field == nil || *captured.Field != rules.FieldBrandName {
		t.Errorf("field filter = %v, want brand_name", captured.Field)
	}
	if captured.Active == nil || !*captured.Active {
		t.Errorf("active filter = %v, want true", captured.Active)
	}
}

func TestHandlerFields(t *testing.T) {
	mux := setupMux(newTestHandler(&mockSystem{}))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/rules/fields", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got []rules.Field
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("fields = %v, want 3 entries", got)
	}
}

func TestHandlerFind(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		sys := &mockSystem{
			findFn: func(context.Context, uuid.UUID) (*rules.Rule, error) {
				return nil, rules.ErrNotFound
			},
		}
		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", "/rules/"+uuid.NewString(), nil))

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("invalid id", func(t *testing.T) {
		mux := setupMux(newTestHandler(&mockSystem{}))

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", "/rules/not-a-uuid", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestHandlerCreate(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"created", nil, http.StatusCreated},
		{"invalid pattern", rules.ErrInvalidPattern, http.StatusBadRequest},
		{"duplicate", rules.ErrDuplicate, http.StatusConflict},
		{"missing puc", rules.ErrPUCNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured rules.CreateCommand
			sys := &mockSystem{
				createFn: func(_ context.Context, cmd rules.CreateCommand) (*rules.Rule, error) {
					captured = cmd
					if tt.err != nil {
						return nil, tt.err
					}
					r := rule(cmd.Name, cmd.Pattern, cmd.Field)
					return &r, nil
				},
			}
			mux := setupMux(newTestHandler(sys))

			body, _ := json.Marshal(rules.CreateCommand{
				Name:    "soap",
				PUCID:   uuid.New(),
				Pattern: "soap",
				Field:   rules.FieldTitle,
			})
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("POST", "/rules", bytes.NewReader(body)))

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if captured.Name != "soap" {
				t.Errorf("name = %q, want soap", captured.Name)
			}
		})
	}
}

func TestHandlerDelete(t *testing.T) {
	id := uuid.New()
	var deleted uuid.UUID
	sys := &mockSystem{
		deleteFn: func(_ context.Context, got uuid.UUID) error {
			deleted = got
			return nil
		},
	}
	mux := setupMux(newTestHandler(sys))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("DELETE", "/rules/"+id.String(), nil))

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if deleted != id {
		t.Errorf("deleted = %v, want %v", deleted, id)
	}
}

func TestHandlerActivate(t *testing.T) {
	id := uuid.New()
	sys := &mockSystem{
		activateFn: func(_ context.Context, got uuid.UUID) (*rules.Rule, error) {
			r := rule("soap", "soap", rules.FieldTitle)
			r.ID = got
			return &r, nil
		},
		deactivateFn: func(_ context.Context, got uuid.UUID) (*rules.Rule, error) {
			r := rule("soap", "soap", rules.FieldTitle)
			r.ID = got
			r.Active = false
			return &r, nil
		},
	}
	mux := setupMux(newTestHandler(sys))

	for path, want := range map[string]bool{"/activate": true, "/deactivate": false} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("POST", "/rules/"+id.String()+path, nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d, want 200", path, rec.Code)
		}

		var got rules.Rule
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.ID != id || got.Active != want {
			t.Errorf("%s = {%v %v}, want {%v %v}", path, got.ID, got.Active, id, want)
		}
	}
}

func TestHandlerImport(t *testing.T) {
	t.Run("parses yaml body", func(t *testing.T) {
		var imported *rules.File
		sys := &mockSystem{
			importFn: func(_ context.Context, f *rules.File) (*rules.ImportResult, error) {
				imported = f
				return &rules.ImportResult{Created: 1, Updated: 1}, nil
			},
		}
		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("POST", "/rules/import", strings.NewReader(ruleFile)))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if imported == nil || len(imported.Rules) != 2 {
			t.Fatalf("imported = %+v, want 2 rules", imported)
		}

		var got rules.ImportResult
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.Created != 1 || got.Updated != 1 {
			t.Errorf("result = %+v, want 1 created 1 updated", got)
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		sys := &mockSystem{
			importFn: func(context.Context, *rules.File) (*rules.ImportResult, error) {
				t.Fatal("import should not be called")
				return nil, nil
			},
		}
		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("POST", "/rules/import", strings.NewReader("rules:\n  - name: x\n")))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestHandlerApply(t *testing.T) {
	sys := &mockSystem{
		applyFn: func(context.Context) (*rules.ApplyResult, error) {
			return &rules.ApplyResult{Rules: 2, Evaluated: 10, Matched: 4, Assigned: 3, Unchanged: 1}, nil
		},
	}
	mux := setupMux(newTestHandler(sys))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/rules/apply", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got rules.ApplyResult
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Assigned != 3 || got.Unchanged != 1 {
		t.Errorf("result = %+v", got)
	}
}
