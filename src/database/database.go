package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/lifetimeline/backend/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	if logger.L != nil {
		logger.L.Info("Checking database migrations", "databasePath", databasePath)
	} else {
		stdlog.Println("Checking database migrations for:", databasePath)
	}
	migrateEventsTable()

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS datasets (
		id TEXT PRIMARY KEY,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		event_count INTEGER NOT NULL DEFAULT 0,
		person_count INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		dataset_id TEXT NOT NULL,
		person_name TEXT NOT NULL,
		title TEXT NOT NULL,
		category TEXT,
		date_text TEXT,
		event_date TEXT NOT NULL,
		dependent_name TEXT,
		is_dependent BOOLEAN DEFAULT FALSE,
		cost TEXT,
		FOREIGN KEY(dataset_id) REFERENCES datasets(id)
	);

	CREATE TABLE IF NOT EXISTS people (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		dataset_id TEXT NOT NULL,
		full_name TEXT NOT NULL,
		given_name TEXT,
		family_name TEXT,
		sex_text TEXT,
		sex TEXT,
		birth_date TEXT,
		FOREIGN KEY(dataset_id) REFERENCES datasets(id),
		UNIQUE(dataset_id, full_name)
	);
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
	} else {
		stdlog.Println("Database tables ensured/created.")
	}
}

// migrateEventsTable adds columns introduced after the first release to an
// existing events table. The cost column arrived with the v3 export schema.
func migrateEventsTable() {
	var tableName string
	err := DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='events'").Scan(&tableName)
	if err != nil {
		if err == sql.ErrNoRows {
			return // table will be created with the full schema
		}
		if logger.L != nil {
			logger.L.Error("Error checking for 'events' table", "error", err)
		} else {
			stdlog.Printf("Error checking for 'events' table: %v", err)
		}
		return
	}

	rows, err := DB.Query("PRAGMA table_info(events)")
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error querying table schema for 'events'", "error", err)
		} else {
			stdlog.Printf("Error querying table schema for 'events': %v", err)
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
				logger.L.Error("Error scanning column info for 'events'", "error", err)
			} else {
				stdlog.Printf("Error scanning column info for 'events': %v", err)
			}
			return
		}
		columnExists[name] = true
	}
	if err = rows.Err(); err != nil {
		if logger.L != nil {
			logger.L.Error("Error iterating over column info for 'events'", "error", err)
		} else {
			stdlog.Printf("Error iterating over column info for 'events': %v", err)
		}
		return
	}

	if _, ok := columnExists["cost"]; !ok {
		if _, err := DB.Exec("ALTER TABLE events ADD COLUMN cost TEXT"); err != nil {
			logger.L.Error("Error adding 'cost' column to 'events' table", "error", err)
		} else {
			logger.L.Info("Added 'cost' column to 'events' table")
		}
	}
	if _, ok := columnExists["dependent_name"]; !ok {
		if _, err := DB.Exec("ALTER TABLE events ADD COLUMN dependent_name TEXT"); err != nil {
			logger.L.Error("Error adding 'dependent_name' column to 'events' table", "error", err)
		} else {
			logger.L.Info("Added 'dependent_name' column to 'events' table")
		}
	}
}
