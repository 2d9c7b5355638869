package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"CyberDash/internal/utils"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultPath 默认数据库文件
const DefaultPath = "database/cybersec_tools.db"

type Database struct {
	db     *sql.DB
	path   string
	logger *utils.Logger
}

// Open 打开（必要时创建）SQLite 数据库并初始化表。path 为 ":memory:" 时使用内存库
func Open(dbPath string) (*Database, error) {
	logger := utils.NewLogger("store")

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("创建数据库目录失败: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	// 内存库每个连接都是独立的数据库
	db.SetMaxOpenConns(1)

	database := &Database{
		db:     db,
		path:   dbPath,
		logger: logger,
	}

	if err := database.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("初始化数据表失败: %w", err)
	}

	return database, nil
}

func (d *Database) initTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS activity_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT,
		module TEXT NOT NULL,
		action TEXT NOT NULL,
		input_data TEXT,
		result_summary TEXT,
		timestamp DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_activity_timestamp ON activity_logs(timestamp);

	CREATE TABLE IF NOT EXISTS network_scans (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT,
		scan_type TEXT NOT NULL,
		target TEXT NOT NULL,
		results TEXT,
		scan_time DATETIME NOT NULL
	);
	`

	_, err := d.db.Exec(schema)
	return err
}

// Get 读取键值，不存在时 ok 为 false
func (d *Database) Get(key string) (string, bool, error) {
	var value string
	err := d.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Put 整体覆盖键值
func (d *Database) Put(key, value string) error {
	_, err := d.db.Exec(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	return err
}

func (d *Database) Close() error {
	return d.db.Close()
}
