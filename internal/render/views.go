package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"time"

	"github.com/dustin/go-humanize"

	"CyberDash/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Views 已解析的模板，可并发使用
type Views struct {
	tpl *template.Template
}

// View 传给工具结果模板的数据
type View struct {
	Input  string
	Ports  string
	Result model.Result
	Demo   bool
}

type dnsGroup struct {
	Title   string
	Records []string
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"dnsGroups": dnsGroups,
		"count": func(n int) string {
			return humanize.Comma(int64(n))
		},
		"ago": func(t time.Time) string {
			return humanize.Time(t)
		},
	}
}

func New() (*Views, error) {
	tpl, err := template.New("views").Funcs(funcMap()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("解析模板失败: %w", err)
	}
	return &Views{tpl: tpl}, nil
}

// MustNew 模板是内嵌的，解析失败只可能是构建问题
func MustNew() *Views {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

// Static 内嵌的样式和脚本
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

func (v *Views) Loading() template.HTML {
	out, _ := v.fragment("loading", nil)
	return out
}

// Error 错误横幅，消息会被转义
func (v *Views) Error(message string) template.HTML {
	out, err := v.fragment("error", message)
	if err != nil {
		return template.HTML(`<div class="error">Erreur</div>`)
	}
	return out
}

// Result 按工具名选择模板渲染结果。演示数据使用同一模板并附带演示提示
func (v *Views) Result(req model.LookupRequest, result model.Result, demo bool) (template.HTML, error) {
	if result == nil {
		return "", fmt.Errorf("résultat vide pour %s", req.Tool)
	}
	return v.fragment(string(req.Tool), View{
		Input:  req.Input,
		Ports:  req.Option(model.PortsOption),
		Result: result,
		Demo:   demo,
	})
}

// Page 渲染整页模板 ("page", "settings", "activity")
func (v *Views) Page(w io.Writer, name string, data interface{}) error {
	return v.tpl.ExecuteTemplate(w, name, data)
}

func (v *Views) fragment(name string, data interface{}) (template.HTML, error) {
	var buf bytes.Buffer
	if err := v.tpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("渲染 %s 失败: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}

func dnsGroups(r model.Result) []dnsGroup {
	d, ok := r.(*model.DNSResult)
	if !ok || d == nil {
		return nil
	}
	var groups []dnsGroup
	add := func(title string, records []string) {
		if len(records) > 0 {
			groups = append(groups, dnsGroup{Title: title, Records: records})
		}
	}
	add("Enregistrements A", d.A)
	add("Enregistrements AAAA (IPv6)", d.AAAA)
	add("Enregistrements MX", d.MX)
	add("Serveurs de noms (NS)", d.NS)
	add("Enregistrements TXT", d.TXT)
	return groups
}
