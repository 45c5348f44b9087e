package db

import "testing"

func TestSQLVerb(t *testing.T) {
	cases := map[string]string{
		"  select id from tasks": "SELECT",
		"\nUPDATE tasks SET x=1": "UPDATE",
		"":                       "UNKNOWN",
	}
	for sql, want := range cases {
		if got := sqlVerb(sql); got != want {
			t.Errorf("sqlVerb(%q) = %q, want %q", sql, got, want)
		}
	}
}

func TestTruncateSQL(t *testing.T) {
	got := truncateSQL("SELECT   *\n  FROM tasks", 200)
	if got != "SELECT * FROM tasks" {
		t.Errorf("expected whitespace to collapse, got %q", got)
	}
	if got := truncateSQL("SELECT 1234567890", 6); got != "SELECT..." {
		t.Errorf("expected truncation, got %q", got)
	}
}
