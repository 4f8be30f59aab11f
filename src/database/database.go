package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/vendasbanco/src/logger"
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
	migrateAdjustedTable()

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		external_id TEXT NOT NULL UNIQUE,
		product_name TEXT NOT NULL,
		buyer_name TEXT NOT NULL,
		buyer_phone TEXT NOT NULL,
		buyer_email TEXT NOT NULL,
		amount REAL NOT NULL,
		approved_at INTEGER NOT NULL,
		status TEXT NOT NULL,
		payment_method TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS adjusted_transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		external_id TEXT NOT NULL UNIQUE,
		product_name TEXT NOT NULL,
		buyer_name TEXT NOT NULL,
		buyer_email TEXT NOT NULL,
		amount REAL NOT NULL,
		approved_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS payment_methods (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS mentors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		mentor_id INTEGER NOT NULL,
		FOREIGN KEY(mentor_id) REFERENCES mentors(id)
	);

	CREATE TABLE IF NOT EXISTS sync_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL UNIQUE,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		fetched INTEGER NOT NULL DEFAULT 0,
		inserted INTEGER NOT NULL DEFAULT 0,
		adjusted INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		message TEXT,
		started_at INTEGER NOT NULL,
		finished_at INTEGER
	);
	`

	_, err = DB.Exec(createTableStatement)
	if err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}

	seedPaymentMethods()

	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.")
	} else {
		stdlog.Println("Database tables ensured/created.")
	}
}

// migrateAdjustedTable adds the buyer_name column to adjusted_transactions
// for databases created before it existed.
func migrateAdjustedTable() {
	var tableName string
	err := DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='adjusted_transactions'").Scan(&tableName)
	if err != nil {
		if err == sql.ErrNoRows {
			if logger.L != nil {
				logger.L.Info("'adjusted_transactions' table does not exist, no migration needed as table will be created.")
			} else {
				stdlog.Println("'adjusted_transactions' table does not exist, no migration needed as table will be created.")
			}
			return
		}
		if logger.L != nil {
			logger.L.Error("Error checking for 'adjusted_transactions' table", "error", err)
		} else {
			stdlog.Printf("Error checking for 'adjusted_transactions' table: %v", err)
		}
		return
	}

	rows, err := DB.Query("PRAGMA table_info(adjusted_transactions)")
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error querying table schema for 'adjusted_transactions'", "error", err)
		} else {
			stdlog.Printf("Error querying table schema for 'adjusted_transactions': %v", err)
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
				logger.L.Error("Error scanning column info for 'adjusted_transactions'", "error", err)
			} else {
				stdlog.Printf("Error scanning column info for 'adjusted_transactions': %v", err)
			}
			return
		}
		columnExists[name] = true
	}
	if err = rows.Err(); err != nil {
		if logger.L != nil {
			logger.L.Error("Error iterating over column info for 'adjusted_transactions'", "error", err)
		} else {
			stdlog.Printf("Error iterating over column info for 'adjusted_transactions': %v", err)
		}
		return
	}

	if _, ok := columnExists["buyer_name"]; !ok {
		_, err := DB.Exec("ALTER TABLE adjusted_transactions ADD COLUMN buyer_name TEXT NOT NULL DEFAULT ''")
		if err != nil {
			logger.L.Error("Error adding 'buyer_name' column to 'adjusted_transactions' table", "error", err)
		} else {
			logger.L.Info("Added 'buyer_name' column to 'adjusted_transactions' table")
		}
	}
}

// seedPaymentMethods inserts the known upstream payment method codes.
// INSERT OR IGNORE keeps existing descriptions untouched.
func seedPaymentMethods() {
	methods := map[string]string{
		"CREDIT_CARD":          "Cartão de crédito",
		"BILLET":               "Boleto",
		"PIX":                  "PIX",
		"PAYPAL":               "PayPal",
		"GOOGLE_PAY":           "Google Pay",
		"SAMSUNG_PAY":          "Samsung Pay",
		"WALLET":               "Carteira digital",
		"DIRECT_BANK_TRANSFER": "Transferência bancária",
		"FINANCED_BILLET":      "Boleto parcelado",
		"HYBRID":               "Pagamento híbrido",
	}
	for code, description := range methods {
		if _, err := DB.Exec("INSERT OR IGNORE INTO payment_methods (code, description) VALUES (?, ?)", code, description); err != nil {
			if logger.L != nil {
				logger.L.Error("Error seeding payment method", "code", code, "error", err)
			} else {
				stdlog.Printf("Error seeding payment method %s: %v", code, err)
			}
		}
	}
}
