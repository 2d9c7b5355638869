package model

import (
	"fmt"
	"strings"
)

// Tool 仪表盘上的查询工具
type Tool string

const (
	ToolIPInfo      Tool = "ipinfo"
	ToolPortScan    Tool = "portscan"
	ToolDNSResolve  Tool = "dns"
	ToolNetworkScan Tool = "network"
	ToolReverseIP   Tool = "reverseip"
)

// Tools 按页面顺序排列
var Tools = []Tool{ToolIPInfo, ToolPortScan, ToolDNSResolve, ToolNetworkScan, ToolReverseIP}

// ToolSpec 每个工具的固定属性
type ToolSpec struct {
	Region     string // 输出区域ID
	Route      string // 后端路由，IPInfo 为空（直接请求第三方）
	InputField string // 请求体中的主字段
	Label      string
	Missing    string // 主输入为空时的提示
	Failure    string // 后端返回非2xx时的提示
	Module     string // 活动日志中的模块名
}

var toolSpecs = map[Tool]ToolSpec{
	ToolIPInfo: {
		Region:     "ip-results",
		InputField: "ip",
		Label:      "IP Info",
		Missing:    "Veuillez entrer une adresse IP ou un nom de domaine",
		Failure:    "Erreur lors de la requête IP Info",
		Module:     "ip_analyzer",
	},
	ToolPortScan: {
		Region:     "scan-results",
		Route:      "/api/scan-ports",
		InputField: "ip",
		Label:      "Scan de ports",
		Missing:    "Veuillez entrer une adresse IP",
		Failure:    "Erreur lors du scan de ports",
		Module:     "port_scanner",
	},
	ToolDNSResolve: {
		Region:     "dns-results",
		Route:      "/api/resolve-dns",
		InputField: "domain",
		Label:      "Résolution DNS",
		Missing:    "Veuillez entrer un nom de domaine",
		Failure:    "Erreur lors de la résolution DNS",
		Module:     "dns_resolver",
	},
	ToolNetworkScan: {
		Region:     "network-results",
		Route:      "/api/scan-network",
		InputField: "range",
		Label:      "Scan réseau",
		Missing:    "Veuillez entrer une plage réseau",
		Failure:    "Erreur lors du scan réseau",
		Module:     "network_analyzer",
	},
	ToolReverseIP: {
		Region:     "reverse-results",
		Route:      "/api/reverse-ip",
		InputField: "ip",
		Label:      "Reverse IP",
		Missing:    "Veuillez entrer une adresse IP",
		Failure:    "Erreur lors de la recherche Reverse IP",
		Module:     "reverse_ip",
	},
}

// PortsOption 端口扫描的端口范围选项键
const PortsOption = "ports"

// MissingPortsMessage 端口范围为空时的提示
const MissingPortsMessage = "Veuillez spécifier les ports à scanner"

// ParseTool 解析工具名
func ParseTool(name string) (Tool, error) {
	t := Tool(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := toolSpecs[t]; !ok {
		return "", fmt.Errorf("未知的工具: %s", name)
	}
	return t, nil
}

func (t Tool) Spec() ToolSpec {
	return toolSpecs[t]
}

// UsesBackend 是否通过同源后端路由查询
func (t Tool) UsesBackend() bool {
	return toolSpecs[t].Route != ""
}

func (t Tool) String() string {
	return string(t)
}

// LookupRequest 一次查询请求，提交后不可变
type LookupRequest struct {
	Tool    Tool
	Input   string
	Options map[string]string
}

// Option 读取选项，不存在时返回空串
func (r LookupRequest) Option(key string) string {
	if r.Options == nil {
		return ""
	}
	return r.Options[key]
}

// Normalized 返回去除首尾空白后的副本
func (r LookupRequest) Normalized() LookupRequest {
	out := LookupRequest{Tool: r.Tool, Input: strings.TrimSpace(r.Input)}
	if len(r.Options) > 0 {
		out.Options = make(map[string]string, len(r.Options))
		for k, v := range r.Options {
			out.Options[k] = strings.TrimSpace(v)
		}
	}
	return out
}

// Result 各工具结果的公共接口
type Result interface {
	// Validate 检查主键字段是否存在
	Validate() error
	// Summary 活动日志中的结果摘要
	Summary() string
}

// IPInfo ipinfo.io 返回结构
type IPInfo struct {
	IP       string `json:"ip"`
	Hostname string `json:"hostname,omitempty"`
	City     string `json:"city,omitempty"`
	Region   string `json:"region,omitempty"`
	Country  string `json:"country,omitempty"`
	Loc      string `json:"loc,omitempty"`
	Org      string `json:"org,omitempty"`
	Postal   string `json:"postal,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

func (r *IPInfo) Validate() error {
	if r.IP == "" {
		return fmt.Errorf("champ ip manquant")
	}
	return nil
}

func (r *IPInfo) Summary() string {
	return fmt.Sprintf("%s %s", r.IP, r.Location())
}

// Location 城市、地区、国家中非空部分以逗号连接
func (r *IPInfo) Location() string {
	var parts []string
	for _, p := range []string{r.City, r.Region, r.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// PortStatus 单个端口状态
type PortStatus struct {
	Number  int    `json:"number"`
	Open    bool   `json:"open"`
	Service string `json:"service,omitempty"`
}

type PortScanResult struct {
	Ports []PortStatus `json:"ports"`
}

func (r *PortScanResult) Validate() error {
	if r.Ports == nil {
		return fmt.Errorf("champ ports manquant")
	}
	return nil
}

func (r *PortScanResult) Summary() string {
	open := 0
	for _, p := range r.Ports {
		if p.Open {
			open++
		}
	}
	return fmt.Sprintf("Ports ouverts trouvés: %d", open)
}

// DNSResult 各记录类型均为可选
type DNSResult struct {
	A    []string `json:"a,omitempty"`
	AAAA []string `json:"aaaa,omitempty"`
	MX   []string `json:"mx,omitempty"`
	NS   []string `json:"ns,omitempty"`
	TXT  []string `json:"txt,omitempty"`
}

func (r *DNSResult) Validate() error { return nil }

func (r *DNSResult) Summary() string {
	return fmt.Sprintf("A=%d AAAA=%d MX=%d NS=%d TXT=%d",
		len(r.A), len(r.AAAA), len(r.MX), len(r.NS), len(r.TXT))
}

// Device 局域网内发现的设备
type Device struct {
	IP       string `json:"ip"`
	MAC      string `json:"mac,omitempty"`
	Hostname string `json:"hostname,omitempty"`
	Vendor   string `json:"vendor,omitempty"`
}

type NetworkScanResult struct {
	Devices []Device `json:"devices"`
}

func (r *NetworkScanResult) Validate() error {
	if r.Devices == nil {
		return fmt.Errorf("champ devices manquant")
	}
	return nil
}

func (r *NetworkScanResult) Summary() string {
	return fmt.Sprintf("Appareils trouvés: %d", len(r.Devices))
}

type ReverseIPResult struct {
	Domains []string `json:"domains"`
}

func (r *ReverseIPResult) Validate() error {
	if r.Domains == nil {
		return fmt.Errorf("champ domains manquant")
	}
	return nil
}

func (r *ReverseIPResult) Summary() string {
	return fmt.Sprintf("%d domaines trouvés", len(r.Domains))
}

// NewResult 返回工具对应的空结果，用于解码
func NewResult(t Tool) Result {
	switch t {
	case ToolIPInfo:
		return &IPInfo{}
	case ToolPortScan:
		return &PortScanResult{}
	case ToolDNSResolve:
		return &DNSResult{}
	case ToolNetworkScan:
		return &NetworkScanResult{}
	case ToolReverseIP:
		return &ReverseIPResult{}
	}
	return nil
}
