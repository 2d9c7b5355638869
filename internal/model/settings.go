package model

// DefaultRefreshInterval 自动刷新默认间隔（秒）
const DefaultRefreshInterval = 60

// API密钥提供方
const (
	ProviderShodan      = "shodanApi"
	ProviderIPInfo      = "ipinfoApi"
	ProviderHIBP        = "hibpApi"
	ProviderTwilioSID   = "twilioSid"
	ProviderTwilioToken = "twilioToken"
)

// Providers 设置页面上展示的密钥
var Providers = []string{ProviderShodan, ProviderIPInfo, ProviderHIBP, ProviderTwilioSID, ProviderTwilioToken}

// Settings 仪表盘设置，整体保存、整体读取
type Settings struct {
	APIKeys                map[string]string `json:"apiKeys"`
	SaveLogs               bool              `json:"saveLogs"`
	AutoRefresh            bool              `json:"autoRefresh"`
	RefreshIntervalSeconds int               `json:"refreshInterval"`
}

func DefaultSettings() Settings {
	return Settings{RefreshIntervalSeconds: DefaultRefreshInterval}
}

// APIKey 未设置时返回空串
func (s Settings) APIKey(provider string) string {
	if s.APIKeys == nil {
		return ""
	}
	return s.APIKeys[provider]
}
