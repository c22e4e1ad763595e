package database

import (
	"database/sql"
	stdlog "log"

	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

// InitDB opens the sqlite database and ensures the schema. It is fatal on
// failure: the service cannot run without its store.
func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	if logger.L != nil {
		logger.L.Info("Checking database migrations", "databasePath", databasePath)
	}
	migrateSymbolConfigTable()

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS symbol_configs (
		symbol TEXT PRIMARY KEY,
		config TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS operations (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		order_id TEXT,
		symbol TEXT NOT NULL,
		expiration TEXT,
		strike REAL,
		option_type TEXT,
		quantity REAL,
		price REAL,
		side TEXT,
		fee REAL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_operations_run_id ON operations(run_id);
	`

	_, err = DB.Exec(createTableStatement)
	if err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.")
	}
}

// migrateSymbolConfigTable adds the updated_at column to symbol_configs
// databases created before it existed.
func migrateSymbolConfigTable() {
	var tableName string
	err := DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='symbol_configs'").Scan(&tableName)
	if err != nil {
		if err == sql.ErrNoRows {
			return
		}
		if logger.L != nil {
			logger.L.Error("Error checking for 'symbol_configs' table", "error", err)
		}
		return
	}

	rows, err := DB.Query("PRAGMA table_info(symbol_configs)")
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error querying table schema for 'symbol_configs'", "error", err)
		}
		return
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk int
		var name, dataType string
		var notnullVal int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			if logger.L != nil {
				logger.L.Error("Error scanning table info for 'symbol_configs'", "error", err)
			}
			return
		}
		columnExists[name] = true
	}

	if !columnExists["updated_at"] {
		if _, err := DB.Exec("ALTER TABLE symbol_configs ADD COLUMN updated_at TIMESTAMP"); err != nil {
			if logger.L != nil {
				logger.L.Error("Error adding 'updated_at' column to 'symbol_configs'", "error", err)
			}
			return
		}
		if logger.L != nil {
			logger.L.Info("Added 'updated_at' column to 'symbol_configs' table.")
		}
	}
}
