package pipeline

import "CyberDash/internal/model"

// Fixtures 后端未连接时的演示数据来源
type Fixtures interface {
	// Demo 返回工具的演示结果；不提供时 ok 为 false
	Demo(tool model.Tool) (model.Result, bool)
}

// DemoFixtures 内置演示数据
type DemoFixtures struct{}

func (DemoFixtures) Demo(tool model.Tool) (model.Result, bool) {
	switch tool {
	case model.ToolPortScan:
		return &model.PortScanResult{Ports: []model.PortStatus{
			{Number: 22, Open: true, Service: model.ServiceName(22)},
			{Number: 80, Open: true, Service: model.ServiceName(80)},
			{Number: 443, Open: true, Service: model.ServiceName(443)},
			{Number: 3389, Open: false, Service: model.ServiceName(3389)},
		}}, true
	case model.ToolDNSResolve:
		return &model.DNSResult{
			A:    []string{"192.168.1.1", "192.168.1.2"},
			AAAA: []string{"2001:0db8:85a3:0000:0000:8a2e:0370:7334"},
			MX:   []string{"mail.example.com", "backup-mail.example.com"},
			NS:   []string{"ns1.example.com", "ns2.example.com"},
			TXT:  []string{"v=spf1 include:_spf.example.com ~all"},
		}, true
	case model.ToolNetworkScan:
		return &model.NetworkScanResult{Devices: []model.Device{
			{IP: "192.168.1.1", MAC: "00:1A:2B:3C:4D:5E", Hostname: "router.local", Vendor: "Cisco Systems"},
			{IP: "192.168.1.2", MAC: "11:22:33:44:55:66", Hostname: "desktop-pc.local", Vendor: "Dell Inc."},
			{IP: "192.168.1.3", MAC: "AA:BB:CC:DD:EE:FF", Hostname: "laptop.local", Vendor: "Apple Inc."},
			{IP: "192.168.1.4", MAC: "12:34:56:78:90:AB", Hostname: "smartphone.local", Vendor: "Samsung Electronics"},
		}}, true
	case model.ToolReverseIP:
		return &model.ReverseIPResult{Domains: []string{
			"example.com",
			"blog.example.com",
			"store.example.com",
			"api.example.com",
		}}, true
	}
	return nil, false
}

// NoFixtures 禁用演示回退
type NoFixtures struct{}

func (NoFixtures) Demo(model.Tool) (model.Result, bool) { return nil, false }
