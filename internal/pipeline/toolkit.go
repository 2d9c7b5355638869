package pipeline

import (
	"html/template"

	"CyberDash/internal/model"
	"CyberDash/internal/render"
	"CyberDash/internal/utils"
)

// CopiedMessage 复制成功后的提示
const CopiedMessage = "Texte copié dans le presse-papier"

// Toolkit 流水线依赖的界面辅助操作
type Toolkit interface {
	// ShowLoading 进入加载状态，返回本次运行持有的代数
	ShowLoading(region string) uint64
	// ShowError 显示错误横幅。gen 为 0 时无条件替换（校验错误）
	ShowError(region string, gen uint64, message string) bool
	// Show 写入渲染好的内容，代数过期时返回 false
	Show(region string, gen uint64, content template.HTML) bool
	// GetAPIKey 从设置中读取密钥，未设置时返回空串
	GetAPIKey(provider string) string
	// CopyToClipboard 复制文本，返回给用户的提示；失败只记录日志
	CopyToClipboard(text string) (string, bool)
}

// SettingsLoader 只读的设置来源
type SettingsLoader interface {
	Load() model.Settings
}

// Clipboard 系统剪贴板写入函数
type Clipboard func(text string) error

type toolkit struct {
	board     *Board
	views     *render.Views
	settings  SettingsLoader
	clipboard Clipboard
	logger    *utils.Logger
}

// NewToolkit clipboard 为 nil 时复制操作总是失败
func NewToolkit(board *Board, views *render.Views, settings SettingsLoader, clipboard Clipboard) Toolkit {
	return &toolkit{
		board:     board,
		views:     views,
		settings:  settings,
		clipboard: clipboard,
		logger:    utils.NewLogger("toolkit"),
	}
}

func (t *toolkit) ShowLoading(region string) uint64 {
	return t.board.Region(region).Replace(t.views.Loading())
}

func (t *toolkit) ShowError(region string, gen uint64, message string) bool {
	banner := t.views.Error(message)
	if gen == 0 {
		t.board.Region(region).Replace(banner)
		return true
	}
	return t.board.Region(region).Commit(gen, banner)
}

func (t *toolkit) Show(region string, gen uint64, content template.HTML) bool {
	return t.board.Region(region).Commit(gen, content)
}

func (t *toolkit) GetAPIKey(provider string) string {
	if t.settings == nil {
		return ""
	}
	return t.settings.Load().APIKey(provider)
}

func (t *toolkit) CopyToClipboard(text string) (string, bool) {
	if t.clipboard == nil {
		t.logger.Error("Impossible de copier le texte: 剪贴板不可用")
		return "", false
	}
	if err := t.clipboard(text); err != nil {
		t.logger.Error("Impossible de copier le texte: %v", err)
		return "", false
	}
	return CopiedMessage, true
}
