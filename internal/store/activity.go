package store

import (
	"time"
)

// ActivityEntry 活动日志记录
type ActivityEntry struct {
	ID            int64
	RunID         string
	Module        string
	Action        string
	InputData     string
	ResultSummary string
	Timestamp     time.Time
}

// ScanRecord 扫描结果记录
type ScanRecord struct {
	ID       int64
	RunID    string
	ScanType string
	Target   string
	Results  string
	ScanTime time.Time
}

// LogActivity 记录一条活动
func (d *Database) LogActivity(entry ActivityEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	_, err := d.db.Exec(`
		INSERT INTO activity_logs (run_id, module, action, input_data, result_summary, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.RunID, entry.Module, entry.Action, entry.InputData, entry.ResultSummary, entry.Timestamp,
	)
	return err
}

// RecentActivity 按时间倒序返回最近的活动
func (d *Database) RecentActivity(limit int) ([]ActivityEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.db.Query(`
		SELECT id, COALESCE(run_id, ''), module, action, COALESCE(input_data, ''),
		       COALESCE(result_summary, ''), timestamp
		FROM activity_logs
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ActivityEntry
	for rows.Next() {
		var e ActivityEntry
		if err := rows.Scan(&e.ID, &e.RunID, &e.Module, &e.Action, &e.InputData, &e.ResultSummary, &e.Timestamp); err != nil {
			d.logger.Debug("读取活动记录失败: %v", err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SaveScan 保存扫描结果（JSON）
func (d *Database) SaveScan(rec ScanRecord) error {
	if rec.ScanTime.IsZero() {
		rec.ScanTime = time.Now().UTC()
	}
	_, err := d.db.Exec(`
		INSERT INTO network_scans (run_id, scan_type, target, results, scan_time)
		VALUES (?, ?, ?, ?, ?)`,
		rec.RunID, rec.ScanType, rec.Target, rec.Results, rec.ScanTime,
	)
	return err
}

// RecentScans 指定类型的最近扫描，scanType 为空时返回全部
func (d *Database) RecentScans(scanType string, limit int) ([]ScanRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := d.db.Query(`
		SELECT id, COALESCE(run_id, ''), scan_type, target, COALESCE(results, ''), scan_time
		FROM network_scans
		WHERE ? = '' OR scan_type = ?
		ORDER BY scan_time DESC, id DESC
		LIMIT ?`, scanType, scanType, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ScanRecord
	for rows.Next() {
		var r ScanRecord
		if err := rows.Scan(&r.ID, &r.RunID, &r.ScanType, &r.Target, &r.Results, &r.ScanTime); err != nil {
			d.logger.Debug("读取扫描记录失败: %v", err)
			continue
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
