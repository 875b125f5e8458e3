package history

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const (
	defaultDatabasePath = "data/history.db"
)

var (
	db *sql.DB
)

// InitDatabase opens the sample archive database and ensures the schema
// exists. An empty path uses the default location under data/.
func InitDatabase(path string) error {
	if path == "" {
		path = defaultDatabasePath
	}

	// Ensure data directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	var err error
	db, err = sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping history database: %w", err)
	}

	if err := createSchema(); err != nil {
		return fmt.Errorf("failed to create history schema: %w", err)
	}

	log.Println("History database initialized successfully")
	return nil
}

// createSchema creates the sample table if it doesn't exist
func createSchema() error {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='sample'").Scan(&count)
	if err == nil && count > 0 {
		log.Println("History schema already exists, checking for callsign column...")
		return ensureCallsignColumn()
	}

	log.Println("Initializing history schema...")

	schema := `
		CREATE TABLE sample (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			aircraft_hex TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			lat REAL NOT NULL,
			lon REAL NOT NULL,
			altitude REAL,
			ground_speed REAL,
			vertical_rate REAL,
			heading REAL,
			callsign TEXT
		);

		CREATE INDEX sample_hex_time_idx ON sample (aircraft_hex, timestamp);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	log.Println("History schema created successfully")
	return nil
}

// ensureCallsignColumn adds the callsign column to archives created before
// callsigns were recorded
func ensureCallsignColumn() error {
	var callsignExists bool
	rows, err := db.Query("PRAGMA table_info(sample)")
	if err != nil {
		return fmt.Errorf("failed to get sample table info: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, dataType string
		var notNull, pk int
		var dfltValue sql.NullString

		err := rows.Scan(&cid, &name, &dataType, &notNull, &dfltValue, &pk)
		if err != nil {
			return fmt.Errorf("failed to scan sample table info: %w", err)
		}

		if name == "callsign" {
			callsignExists = true
			break
		}
	}

	if callsignExists {
		return nil
	}

	log.Println("Adding callsign column to sample table...")

	if _, err := db.Exec("ALTER TABLE sample ADD COLUMN callsign TEXT"); err != nil {
		return fmt.Errorf("failed to add callsign column: %w", err)
	}

	log.Println("Sample table callsign column added successfully")
	return nil
}

// GetDatabase returns the archive database connection
func GetDatabase() *sql.DB {
	return db
}

// CloseDatabase closes the archive database connection
func CloseDatabase() error {
	if db != nil {
		return db.Close()
	}
	return nil
}
