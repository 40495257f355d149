package db

import (
	"database/sql"
	"fmt"
	"log"

	"audioarchive/config"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

var DB *sql.DB

// ConnectDB establishes a connection to the database.
func ConnectDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = DB.Ping(); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to the database.")
	return nil
}

// InitDB initializes the database schema, creating tables if they don't
// exist. The users table is managed by GORM (see gorm.go); only the
// audio_files table is created here.
func InitDB() error {
	if err := createAudioFilesTable(); err != nil {
		return err
	}
	log.Println("Database initialization completed.")
	return nil
}

func createAudioFilesTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS audio_files (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		file_url VARCHAR(767) NOT NULL,
		duration INT NOT NULL,
		uploaded_by BIGINT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_audio_files_created_at (created_at),
		CONSTRAINT fk_audio_files_user FOREIGN KEY (uploaded_by) REFERENCES users(id)
	);
	`
	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create audio_files table: %w", err)
	}
	log.Println("audio_files table initialized successfully (or already exists).")
	return nil
}
