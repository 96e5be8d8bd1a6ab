package audit_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/factotum/internal/audit"
)

func TestDeclarations(t *testing.T) {
	decls := audit.Declarations()

	tables := make([]string, len(decls))
	for i, d := range decls {
		require.NoError(t, d.Validate(), d.Table)
		tables[i] = d.Table
	}
	assert.ElementsMatch(t, []string{"products", "product_to_puc", "pucs", "extracted_texts"}, tables)
}

func TestDeclarationValidate(t *testing.T) {
	valid := audit.Declaration{Table: "products", Key: "id", Fields: []string{"title"}}

	tests := []struct {
		name   string
		mutate func(d *audit.Declaration)
		err    error
	}{
		{"quoted table", func(d *audit.Declaration) { d.Table = `products"; DROP TABLE x; --` }, audit.ErrInvalidIdentifier},
		{"upper case", func(d *audit.Declaration) { d.Table = "Products" }, audit.ErrInvalidIdentifier},
		{"leading digit", func(d *audit.Declaration) { d.Key = "1id" }, audit.ErrInvalidIdentifier},
		{"empty key", func(d *audit.Declaration) { d.Key = "" }, audit.ErrInvalidIdentifier},
		{"bad field", func(d *audit.Declaration) { d.Fields = []string{"title", "brand name"} }, audit.ErrInvalidIdentifier},
		{"long table", func(d *audit.Declaration) { d.Table = strings.Repeat("t", 60) }, audit.ErrInvalidIdentifier},
		{"no fields", func(d *audit.Declaration) { d.Fields = nil }, audit.ErrNoFields},
	}

	require.NoError(t, valid.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := valid
			d.Fields = append([]string(nil), valid.Fields...)
			tt.mutate(&d)
			assert.ErrorIs(t, d.Validate(), tt.err)
		})
	}
}

func TestTriggerSQL(t *testing.T) {
	d := audit.Declaration{Table: "products", Key: "id", Fields: []string{"title", "upc"}}

	sql, err := audit.TriggerSQL(d)
	require.NoError(t, err)

	assert.Contains(t, sql, "CREATE OR REPLACE FUNCTION audit_products_fn() RETURNS trigger")
	assert.Contains(t, sql, "current_setting('factotum.actor', true)")
	assert.Contains(t, sql, "DROP TRIGGER IF EXISTS audit_products_trg ON products;")
	assert.Contains(t, sql, "CREATE TRIGGER audit_products_trg AFTER INSERT OR UPDATE OR DELETE ON products")
	assert.Contains(t, sql, "FOR EACH ROW EXECUTE FUNCTION audit_products_fn();")

	t.Run("insert logs non-null new values", func(t *testing.T) {
		assert.Contains(t, sql, "IF NEW.title IS NOT NULL THEN")
		assert.Contains(t, sql, "VALUES ('products', 'title', NEW.id::text, NULL, NEW.title::text, 'I', actor);")
	})

	t.Run("update logs distinct values", func(t *testing.T) {
		assert.Contains(t, sql, "IF NEW.upc IS DISTINCT FROM OLD.upc THEN")
		assert.Contains(t, sql, "VALUES ('products', 'upc', NEW.id::text, OLD.upc::text, NEW.upc::text, 'U', actor);")
	})

	t.Run("delete logs non-null old values", func(t *testing.T) {
		assert.Contains(t, sql, "IF OLD.title IS NOT NULL THEN")
		assert.Contains(t, sql, "VALUES ('products', 'title', OLD.id::text, OLD.title::text, NULL, 'D', actor);")
	})

	t.Run("one insert per field per operation", func(t *testing.T) {
		assert.Equal(t, 6, strings.Count(sql, "INSERT INTO audit_log"))
	})

	t.Run("rejects invalid identifiers before generating", func(t *testing.T) {
		_, err := audit.TriggerSQL(audit.Declaration{Table: "products", Key: "id", Fields: []string{"x'); --"}})
		assert.ErrorIs(t, err, audit.ErrInvalidIdentifier)
	})
}

func TestDropSQL(t *testing.T) {
	sql, err := audit.DropSQL(audit.Declaration{Table: "pucs", Key: "id", Fields: []string{"gen_cat"}})
	require.NoError(t, err)
	assert.Equal(t,
		"DROP TRIGGER IF EXISTS audit_pucs_trg ON pucs;\nDROP FUNCTION IF EXISTS audit_pucs_fn();\n",
		sql,
	)
}

func TestAction(t *testing.T) {
	for _, a := range []audit.Action{audit.ActionInsert, audit.ActionUpdate, audit.ActionDelete} {
		assert.True(t, a.Valid(), a)
	}
	assert.False(t, audit.Action("X").Valid())
}
