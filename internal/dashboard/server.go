package dashboard

import (
	"context"
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"CyberDash/internal/model"
	"CyberDash/internal/pipeline"
	"CyberDash/internal/render"
	"CyberDash/internal/store"
	"CyberDash/internal/utils"
)

const (
	// MaxRequestBodySize 表单和 JSON 请求体上限
	MaxRequestBodySize = 16 * 1024

	pageTitle = "Cybersecurity Dashboard"
)

// ActivityLog 活动日志的持久化
type ActivityLog interface {
	LogActivity(entry store.ActivityEntry) error
	SaveScan(rec store.ScanRecord) error
	RecentActivity(limit int) ([]store.ActivityEntry, error)
}

// Settings 设置的读写
type Settings interface {
	Load() model.Settings
	Save(model.Settings) error
}

type Server struct {
	pipeline *pipeline.Pipeline
	board    *pipeline.Board
	kit      pipeline.Toolkit
	views    *render.Views
	settings Settings
	activity ActivityLog
	logger   *utils.Logger
	mux      *http.ServeMux

	inflight sync.WaitGroup
}

// New activity 为 nil 时不记录活动
func New(p *pipeline.Pipeline, board *pipeline.Board, kit pipeline.Toolkit, views *render.Views,
	settings Settings, activity ActivityLog) *Server {
	s := &Server{
		pipeline: p,
		board:    board,
		kit:      kit,
		views:    views,
		settings: settings,
		activity: activity,
		logger:   utils.NewLogger("dashboard"),
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /api/panels/{tool}", s.handleSubmit)
	s.mux.HandleFunc("GET /api/panels/{tool}", s.handlePanel)
	s.mux.HandleFunc("POST /api/clipboard", s.handleClipboard)
	s.mux.HandleFunc("GET /settings", s.handleSettings)
	s.mux.HandleFunc("POST /settings", s.handleSaveSettings)
	s.mux.HandleFunc("GET /activity", s.handleActivity)
	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(render.Static()))))
}

// Handler 带安全头和请求体限制的根处理器
func (s *Server) Handler() http.Handler {
	return securityHeaders(limitBody(s.mux, MaxRequestBodySize))
}

// Wait 等待所有已提交的查询完成（关闭时和测试中使用）
func (s *Server) Wait() {
	s.inflight.Wait()
}

type panelView struct {
	Tool        model.Tool
	Label       string
	Region      string
	Placeholder string
	NeedsPorts  bool
	Content     template.HTML
}

type pageData struct {
	Title          string
	RefreshSeconds int
	Panels         []panelView
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	settings := s.settings.Load()
	data := pageData{Title: pageTitle}
	if settings.AutoRefresh {
		data.RefreshSeconds = settings.RefreshIntervalSeconds
		if data.RefreshSeconds <= 0 {
			data.RefreshSeconds = model.DefaultRefreshInterval
		}
	}

	for _, tool := range model.Tools {
		spec := tool.Spec()
		data.Panels = append(data.Panels, panelView{
			Tool:        tool,
			Label:       spec.Label,
			Region:      spec.Region,
			Placeholder: spec.InputField,
			NeedsPorts:  tool == model.ToolPortScan,
			Content:     s.board.Content(spec.Region),
		})
	}

	s.renderPage(w, "page", data)
}

type submitRequest struct {
	Input string `json:"input"`
	Ports string `json:"ports"`
}

// handleSubmit 校验并提交查询，立即返回区域当前内容（加载中或校验错误）
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	tool, err := model.ParseTool(r.PathValue("tool"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	var body submitRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseMultipartForm(MaxRequestBodySize); err != nil && err != http.ErrNotMultipart {
			http.Error(w, "Invalid form", http.StatusBadRequest)
			return
		}
		body.Input = r.FormValue("input")
		body.Ports = r.FormValue("ports")
	}

	req := model.LookupRequest{Tool: tool, Input: body.Input}
	if tool == model.ToolPortScan {
		req.Options = map[string]string{model.PortsOption: body.Ports}
	}

	// 查询独立于本次 HTTP 请求运行到结束
	out, done := s.pipeline.Submit(context.Background(), req)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		s.record(<-done)
	}()

	status := http.StatusAccepted
	if out.Kind == pipeline.OutcomeInvalid {
		status = http.StatusBadRequest
	}
	writeFragment(w, status, out.Generation, out.Content)
}

func (s *Server) handlePanel(w http.ResponseWriter, r *http.Request) {
	tool, err := model.ParseTool(r.PathValue("tool"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	content, gen := s.board.Region(tool.Spec().Region).Snapshot()
	writeFragment(w, http.StatusOK, gen, content)
}

type clipboardRequest struct {
	Text string `json:"text"`
}

type clipboardResponse struct {
	Message string `json:"message"`
}

// handleClipboard 复制失败只记录日志，返回 204
func (s *Server) handleClipboard(w http.ResponseWriter, r *http.Request) {
	var req clipboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	message, ok := s.kit.CopyToClipboard(req.Text)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, clipboardResponse{Message: message})
}

type providerKey struct {
	Provider string
	Value    string
}

type settingsPage struct {
	Title          string
	RefreshSeconds int
	Flash          string
	Keys           []providerKey
	Settings       model.Settings
}

func (s *Server) settingsData(settings model.Settings, flash string) settingsPage {
	data := settingsPage{Title: pageTitle, Flash: flash, Settings: settings}
	for _, p := range model.Providers {
		data.Keys = append(data.Keys, providerKey{Provider: p, Value: settings.APIKey(p)})
	}
	return data
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, "settings", s.settingsData(s.settings.Load(), ""))
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	settings := SettingsFromForm(r)
	if err := s.settings.Save(settings); err != nil {
		s.logger.Error("保存设置失败: %v", err)
		http.Error(w, "Failed to save settings", http.StatusInternalServerError)
		return
	}
	s.renderPage(w, "settings", s.settingsData(settings, "Paramètres enregistrés avec succès"))
}

// SettingsFromForm 从设置表单构造完整的设置（整体覆盖）
func SettingsFromForm(r *http.Request) model.Settings {
	settings := model.Settings{
		APIKeys:                make(map[string]string),
		SaveLogs:               r.FormValue("saveLogs") != "",
		AutoRefresh:            r.FormValue("autoRefresh") != "",
		RefreshIntervalSeconds: model.DefaultRefreshInterval,
	}
	for _, p := range model.Providers {
		if v := strings.TrimSpace(r.FormValue(p)); v != "" {
			settings.APIKeys[p] = v
		}
	}
	if n, err := strconv.Atoi(r.FormValue("refreshInterval")); err == nil && n > 0 {
		settings.RefreshIntervalSeconds = n
	}
	return settings
}

type activityPage struct {
	Title          string
	RefreshSeconds int
	SaveLogs       bool
	Entries        []store.ActivityEntry
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	data := activityPage{Title: pageTitle, SaveLogs: s.settings.Load().SaveLogs}
	if s.activity != nil {
		entries, err := s.activity.RecentActivity(50)
		if err != nil {
			s.logger.Error("读取活动日志失败: %v", err)
		}
		data.Entries = entries
	}
	s.renderPage(w, "activity", data)
}

func (s *Server) renderPage(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.views.Page(w, name, data); err != nil {
		s.logger.Error("渲染页面 %s 失败: %v", name, err)
	}
}

func writeFragment(w http.ResponseWriter, status int, gen uint64, content template.HTML) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Region-Generation", strconv.FormatUint(gen, 10))
	w.WriteHeader(status)
	w.Write([]byte(content))
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
