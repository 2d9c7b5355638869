package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"CyberDash/internal/model"
)

type Parser struct {
	Options model.Options
	fs      *flag.FlagSet
}

func NewParser() *Parser {
	return &Parser{}
}

// Parse 解析 os.Args
func (p *Parser) Parse() error {
	return p.ParseArgs(os.Args[1:])
}

func (p *Parser) ParseArgs(args []string) error {
	var help bool

	p.fs = flag.NewFlagSet("CyberDash", flag.ContinueOnError)
	p.fs.SetOutput(io.Discard)

	p.fs.StringVar(&p.Options.ConfigFile, "config", "", "YAML配置文件")
	p.fs.StringVar(&p.Options.Listen, "listen", "", "仪表盘监听地址 (默认: 127.0.0.1:8080)")
	p.fs.StringVar(&p.Options.Backend, "backend", "", "后端地址 (默认: http://127.0.0.1:5000)")
	p.fs.StringVar(&p.Options.IPInfoURL, "ipinfo", "", "ipinfo 服务地址 (默认: https://ipinfo.io)")
	p.fs.StringVar(&p.Options.Database, "db", "", "SQLite数据库文件")
	p.fs.IntVar(&p.Options.Timeout, "timeout", -1, "出站调用超时(秒)，0 表示不设超时")
	p.fs.BoolVar(&p.Options.NoDemo, "no-demo", false, "后端未连接时不显示演示数据")
	p.fs.StringVar(&p.Options.LogLevel, "log-level", "", "日志级别 (debug, info, warn, error)")
	p.fs.BoolVar(&p.Options.Verbose, "verbose", false, "显示详细信息")

	p.fs.StringVar(&p.Options.Tool, "tool", "", "单次查询: ipinfo, portscan, dns, network, reverseip")
	p.fs.StringVar(&p.Options.Input, "input", "", "查询输入 (IP、域名或网段)")
	p.fs.StringVar(&p.Options.PortRange, "ports", "", "端口范围 (如: 1-1000,80,443)")
	p.fs.StringVar(&p.Options.OutputFile, "output", "", "输出文件")
	p.fs.StringVar(&p.Options.OutputFormat, "format", "text", "输出格式 (text, json, html)")
	p.fs.BoolVar(&help, "help", false, "显示帮助")

	if err := p.fs.Parse(args); err != nil {
		return err
	}

	if help {
		p.printHelp()
		os.Exit(0)
	}

	if p.Options.Tool != "" {
		if _, err := model.ParseTool(p.Options.Tool); err != nil {
			return err
		}
	}

	switch strings.ToLower(p.Options.OutputFormat) {
	case "text", "json", "html":
	default:
		return fmt.Errorf("不支持的输出格式: %s", p.Options.OutputFormat)
	}

	return nil
}

func (p *Parser) printHelp() {
	fmt.Println("CyberDash - 网络侦察仪表盘")
	fmt.Println("")
	fmt.Println("使用方法: CyberDash [选项]")
	fmt.Println("")
	fmt.Println("选项:")
	fmt.Println("  -config string    YAML配置文件")
	fmt.Println("  -listen string    仪表盘监听地址 (默认: 127.0.0.1:8080)")
	fmt.Println("  -backend string   后端地址 (默认: http://127.0.0.1:5000)")
	fmt.Println("  -ipinfo string    ipinfo 服务地址 (默认: https://ipinfo.io)")
	fmt.Println("  -db string        SQLite数据库文件 (默认: database/cybersec_tools.db)")
	fmt.Println("  -timeout int      出站调用超时(秒)，0 表示不设超时")
	fmt.Println("  -no-demo          后端未连接时不显示演示数据")
	fmt.Println("  -log-level string 日志级别")
	fmt.Println("  -verbose          显示详细信息")
	fmt.Println("")
	fmt.Println("单次查询:")
	fmt.Println("  -tool string      ipinfo, portscan, dns, network, reverseip")
	fmt.Println("  -input string     IP、域名或网段")
	fmt.Println("  -ports string     端口范围 (portscan)")
	fmt.Println("  -output string    输出文件")
	fmt.Println("  -format string    输出格式 (text, json, html) (默认: text)")
	fmt.Println("  -help             显示帮助")
	fmt.Println("")
	fmt.Println("示例:")
	fmt.Println("  CyberDash -listen 127.0.0.1:8080 -backend http://127.0.0.1:5000")
	fmt.Println("  CyberDash -tool dns -input example.com -format json")
	fmt.Println("  CyberDash -tool portscan -input 192.168.1.1 -ports 22,80,443")
}
