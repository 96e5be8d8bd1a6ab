package audit

import (
	"fmt"
	"strings"
)

// TriggerSQL generates the trigger function and row trigger for d. The
// statements can be re-run: the function is replaced and the trigger is
// dropped before it is created.
//
// Inserts log every non-null field, updates log fields that changed, and
// deletes log every non-null old value. user_id is read from the
// factotum.actor setting of the writing transaction.
func TriggerSQL(d Declaration) (string, error) {
	if err := d.Validate(); err != nil {
		return "", err
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "CREATE OR REPLACE FUNCTION %s() RETURNS trigger AS $audit$\n", d.FunctionName())
	sb.WriteString("DECLARE\n")
	sb.WriteString("  actor TEXT := COALESCE(current_setting('factotum.actor', true), '');\n")
	sb.WriteString("BEGIN\n")

	sb.WriteString("  IF TG_OP = 'INSERT' THEN\n")
	for _, f := range d.Fields {
		fmt.Fprintf(&sb, "    IF NEW.%s IS NOT NULL THEN\n", f)
		writeInsert(&sb, d, f, "NEW", "NULL", "NEW."+f+"::text", "I")
		sb.WriteString("    END IF;\n")
	}
	sb.WriteString("    RETURN NEW;\n")

	sb.WriteString("  ELSIF TG_OP = 'UPDATE' THEN\n")
	for _, f := range d.Fields {
		fmt.Fprintf(&sb, "    IF NEW.%s IS DISTINCT FROM OLD.%s THEN\n", f, f)
		writeInsert(&sb, d, f, "NEW", "OLD."+f+"::text", "NEW."+f+"::text", "U")
		sb.WriteString("    END IF;\n")
	}
	sb.WriteString("    RETURN NEW;\n")

	sb.WriteString("  ELSIF TG_OP = 'DELETE' THEN\n")
	for _, f := range d.Fields {
		fmt.Fprintf(&sb, "    IF OLD.%s IS NOT NULL THEN\n", f)
		writeInsert(&sb, d, f, "OLD", "OLD."+f+"::text", "NULL", "D")
		sb.WriteString("    END IF;\n")
	}
	sb.WriteString("    RETURN OLD;\n")

	sb.WriteString("  END IF;\n")
	sb.WriteString("  RETURN NULL;\n")
	sb.WriteString("END;\n")
	sb.WriteString("$audit$ LANGUAGE plpgsql;\n\n")

	fmt.Fprintf(&sb, "DROP TRIGGER IF EXISTS %s ON %s;\n", d.TriggerName(), d.Table)
	fmt.Fprintf(&sb, "CREATE TRIGGER %s AFTER INSERT OR UPDATE OR DELETE ON %s\n", d.TriggerName(), d.Table)
	fmt.Fprintf(&sb, "  FOR EACH ROW EXECUTE FUNCTION %s();\n", d.FunctionName())

	return sb.String(), nil
}

// DropSQL removes the trigger and function generated for d.
func DropSQL(d Declaration) (string, error) {
	if err := d.Validate(); err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"DROP TRIGGER IF EXISTS %s ON %s;\nDROP FUNCTION IF EXISTS %s();\n",
		d.TriggerName(), d.Table, d.FunctionName(),
	), nil
}

// record is NEW or OLD, whichever row still carries the key.
func writeInsert(sb *strings.Builder, d Declaration, field, record, oldValue, newValue, action string) {
	sb.WriteString("      INSERT INTO audit_log (model_name, field_name, rec_id, old_value, new_value, action, user_id)\n")
	fmt.Fprintf(sb, "      VALUES ('%s', '%s', %s.%s::text, %s, %s, '%s', actor);\n",
		d.Table, field, record, d.Key, oldValue, newValue, action)
}
