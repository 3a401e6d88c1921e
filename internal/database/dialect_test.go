package database

import (
	"strings"
	"testing"
)

func TestDialectSQLite(t *testing.T) {
	dialect := NewSQLiteDialect()

	t.Run("DriverName", func(t *testing.T) {
		if got := dialect.DriverName(); got != "sqlite3" {
			t.Errorf("DriverName() = %v, want %v", got, "sqlite3")
		}
	})

	t.Run("PureDriverName", func(t *testing.T) {
		if got := NewPureSQLiteDialect().DriverName(); got != "sqlite" {
			t.Errorf("DriverName() = %v, want %v", got, "sqlite")
		}
	})

	t.Run("DSN", func(t *testing.T) {
		if got := dialect.DSN(DialectConfig{Path: "family.db", URL: "ignored"}); got != "family.db" {
			t.Errorf("DSN() = %v, want family.db", got)
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		if got := dialect.MigrationsSubdir(); got != "sqlite" {
			t.Errorf("MigrationsSubdir() = %v, want %v", got, "sqlite")
		}
	})
}

func TestDialectPostgreSQL(t *testing.T) {
	dialect := NewPostgresDialect()

	t.Run("DriverName", func(t *testing.T) {
		if got := dialect.DriverName(); got != "postgres" {
			t.Errorf("DriverName() = %v, want %v", got, "postgres")
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		if got := dialect.MigrationsSubdir(); got != "postgres" {
			t.Errorf("MigrationsSubdir() = %v, want %v", got, "postgres")
		}
	})
}

func TestDialectMySQL(t *testing.T) {
	dialect := NewMySQLDialect()

	t.Run("DriverName", func(t *testing.T) {
		if got := dialect.DriverName(); got != "mysql" {
			t.Errorf("DriverName() = %v, want %v", got, "mysql")
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		if got := dialect.MigrationsSubdir(); got != "mysql" {
			t.Errorf("MigrationsSubdir() = %v, want %v", got, "mysql")
		}
	})
}

func TestUpsertSettings(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		contains string
		args     string
	}{
		{"SQLite", NewSQLiteDialect(), "ON CONFLICT (owner_id, name)", "VALUES (?, ?, ?)"},
		{"PostgreSQL", NewPostgresDialect(), "ON CONFLICT (owner_id, name)", "VALUES ($1, $2, $3)"},
		{"MySQL", NewMySQLDialect(), "ON DUPLICATE KEY UPDATE", "VALUES (?, ?, ?)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query := tt.dialect.RewriteQuery(tt.dialect.UpsertSettings())
			if !strings.Contains(query, tt.contains) {
				t.Errorf("UpsertSettings() = %q, want it to contain %q", query, tt.contains)
			}
			if !strings.Contains(query, tt.args) {
				t.Errorf("rewritten UpsertSettings() = %q, want it to contain %q", query, tt.args)
			}
		})
	}
}

func TestDialectFor(t *testing.T) {
	tests := []struct {
		input  string
		driver string
	}{
		{"", "sqlite3"},
		{"sqlite", "sqlite3"},
		{"SQLite3", "sqlite3"},
		{"sqlite-pure", "sqlite"},
		{"postgres", "postgres"},
		{"postgresql", "postgres"},
		{"mysql", "mysql"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			dialect, err := DialectFor(tt.input)
			if err != nil {
				t.Fatalf("DialectFor(%q) error = %v", tt.input, err)
			}
			if got := dialect.DriverName(); got != tt.driver {
				t.Errorf("DialectFor(%q) driver = %v, want %v", tt.input, got, tt.driver)
			}
		})
	}

	if _, err := DialectFor("oracle"); err == nil {
		t.Error("DialectFor(oracle) should fail")
	}
}

func TestRewriteQuery(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		query    string
		expected string
	}{
		{
			name:     "SQLite no change",
			dialect:  NewSQLiteDialect(),
			query:    "SELECT * FROM activities WHERE id = ?",
			expected: "SELECT * FROM activities WHERE id = ?",
		},
		{
			name:     "PostgreSQL single placeholder",
			dialect:  NewPostgresDialect(),
			query:    "SELECT * FROM activities WHERE id = ?",
			expected: "SELECT * FROM activities WHERE id = $1",
		},
		{
			name:     "PostgreSQL multiple placeholders",
			dialect:  NewPostgresDialect(),
			query:    "INSERT INTO family_members (name, role) VALUES (?, ?)",
			expected: "INSERT INTO family_members (name, role) VALUES ($1, $2)",
		},
		{
			name:     "MySQL no change",
			dialect:  NewMySQLDialect(),
			query:    "UPDATE family_members SET name = ?, role = ? WHERE id = ?",
			expected: "UPDATE family_members SET name = ?, role = ? WHERE id = ?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.RewriteQuery(tt.query); got != tt.expected {
				t.Errorf("RewriteQuery() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSplitStatements(t *testing.T) {
	content := `-- members
CREATE TABLE a (
    id TEXT
);

CREATE INDEX idx_a ON a(id);
-- trailing comment
`
	stmts := SplitStatements(content)
	if len(stmts) != 2 {
		t.Fatalf("SplitStatements() returned %d statements, want 2: %q", len(stmts), stmts)
	}
	if !strings.HasPrefix(stmts[0], "CREATE TABLE a (") || strings.HasSuffix(stmts[0], ";") {
		t.Errorf("first statement = %q", stmts[0])
	}
	if stmts[1] != "CREATE INDEX idx_a ON a(id)" {
		t.Errorf("second statement = %q", stmts[1])
	}
}
