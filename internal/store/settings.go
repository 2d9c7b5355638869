package store

import (
	"encoding/json"
	"sync"

	"CyberDash/internal/model"
	"CyberDash/internal/utils"
)

// SettingsKey 设置在键值表中的键
const SettingsKey = "cyberToolsSettings"

// KV 键值存储
type KV interface {
	Get(key string) (string, bool, error)
	Put(key, value string) error
}

// SettingsStore 设置的整体读写
type SettingsStore struct {
	kv     KV
	logger *utils.Logger
}

func NewSettingsStore(kv KV) *SettingsStore {
	return &SettingsStore{kv: kv, logger: utils.NewLogger("settings")}
}

// Load 读取设置；不存在、读取失败或 JSON 损坏时返回默认值
func (s *SettingsStore) Load() model.Settings {
	raw, ok, err := s.kv.Get(SettingsKey)
	if err != nil {
		s.logger.Error("读取设置失败: %v", err)
		return model.DefaultSettings()
	}
	if !ok {
		return model.DefaultSettings()
	}

	var settings model.Settings
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		s.logger.Warn("设置数据损坏，使用默认值: %v", err)
		return model.DefaultSettings()
	}
	return settings
}

// Save 整体覆盖，不做合并
func (s *SettingsStore) Save(settings model.Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	return s.kv.Put(SettingsKey, string(data))
}

// MemoryKV 内存键值存储
type MemoryKV struct {
	mu   sync.Mutex
	data map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]string)}
}

func (m *MemoryKV) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryKV) Put(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}
