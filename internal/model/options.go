package model

// Options 命令行选项
type Options struct {
	ConfigFile string
	Listen     string
	Backend    string
	IPInfoURL  string
	Database   string
	Timeout    int // 秒，0 表示不设超时
	NoDemo     bool
	LogLevel   string
	Verbose    bool

	// 单次查询模式
	Tool         string
	Input        string
	PortRange    string
	OutputFile   string
	OutputFormat string // text, json, html
}

// OneShot 指定了工具时以单次查询模式运行
func (o Options) OneShot() bool {
	return o.Tool != ""
}
