package pipeline

import (
	"context"
	"errors"
	"fmt"
	"html/template"

	"github.com/google/uuid"

	"CyberDash/internal/model"
	"CyberDash/internal/render"
	"CyberDash/internal/transport"
	"CyberDash/internal/utils"
)

// Transport 出站调用
type Transport interface {
	FetchIPInfo(ctx context.Context, address, token string, out interface{}) error
	PostJSON(ctx context.Context, route string, body, out interface{}) error
}

type OutcomeKind int

const (
	OutcomeInvalid OutcomeKind = iota
	OutcomeSuccess
	OutcomeDemo
	OutcomeError
	// OutcomeStale 响应到达时区域已被更新的提交占用，结果被丢弃
	OutcomeStale
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeInvalid:
		return "invalid"
	case OutcomeSuccess:
		return "success"
	case OutcomeDemo:
		return "demo"
	case OutcomeError:
		return "error"
	case OutcomeStale:
		return "stale"
	}
	return "unknown"
}

// Outcome 一次运行的结果
type Outcome struct {
	RunID      string
	Request    model.LookupRequest
	Kind       OutcomeKind
	Result     model.Result
	Content    template.HTML
	Err        error
	Generation uint64
}

type Pipeline struct {
	transport Transport
	kit       Toolkit
	views     *render.Views
	fixtures  Fixtures
	logger    *utils.Logger
}

// New fixtures 为 nil 时不提供演示回退
func New(t Transport, kit Toolkit, views *render.Views, fixtures Fixtures) *Pipeline {
	if fixtures == nil {
		fixtures = NoFixtures{}
	}
	return &Pipeline{
		transport: t,
		kit:       kit,
		views:     views,
		fixtures:  fixtures,
		logger:    utils.NewLogger("pipeline"),
	}
}

// Run 校验输入、进入加载状态、发出一次调用，并把成功视图、演示数据或错误横幅之一写入工具的输出区域
func (p *Pipeline) Run(ctx context.Context, req model.LookupRequest) Outcome {
	out, ok := p.begin(req)
	if !ok {
		return out
	}
	return p.finish(ctx, out)
}

// Submit 同步完成校验和加载状态，查询在新的 goroutine 中完成。
// 返回的 Outcome 是提交时的状态（校验错误或加载中），最终结果从通道读取。
// 一旦提交就会运行到结束，不支持取消。
func (p *Pipeline) Submit(ctx context.Context, req model.LookupRequest) (Outcome, <-chan Outcome) {
	done := make(chan Outcome, 1)
	out, ok := p.begin(req)
	if !ok {
		done <- out
		close(done)
		return out, done
	}
	go func() {
		done <- p.finish(ctx, out)
		close(done)
	}()
	return out, done
}

func (p *Pipeline) begin(req model.LookupRequest) (Outcome, bool) {
	req = req.Normalized()
	spec := req.Tool.Spec()
	out := Outcome{RunID: uuid.New().String(), Request: req}

	if err := Validate(req); err != nil {
		p.logger.With("run", out.RunID).Debug("输入校验失败: %v", err)
		p.kit.ShowError(spec.Region, 0, err.Message)
		out.Kind = OutcomeInvalid
		out.Err = err
		out.Content = p.views.Error(err.Message)
		return out, false
	}

	out.Generation = p.kit.ShowLoading(spec.Region)
	out.Content = p.views.Loading()
	return out, true
}

func (p *Pipeline) finish(ctx context.Context, out Outcome) Outcome {
	req := out.Request
	spec := req.Tool.Spec()
	logger := p.logger.With("run", out.RunID).With("tool", req.Tool.String())
	logger.Info("开始查询: %s", req.Input)

	result, err := p.dispatch(ctx, req)
	switch {
	case err == nil:
		out.Kind = OutcomeSuccess
		out.Result = result
	case transport.IsUnavailable(err) && req.Tool.UsesBackend():
		demo, ok := p.fixtures.Demo(req.Tool)
		if !ok {
			out.Kind = OutcomeError
			out.Err = err
			break
		}
		logger.Warn("后端未连接，显示演示数据: %v", err)
		out.Kind = OutcomeDemo
		out.Result = demo
		out.Err = err
	default:
		out.Kind = OutcomeError
		out.Err = err
	}

	if out.Kind != OutcomeError {
		content, rerr := p.views.Result(req, out.Result, out.Kind == OutcomeDemo)
		if rerr != nil {
			out.Kind = OutcomeError
			out.Err = rerr
		} else {
			out.Content = content
		}
	}

	var committed bool
	if out.Kind == OutcomeError {
		message := failureMessage(req.Tool, out.Err)
		logger.Error("查询失败: %v", out.Err)
		out.Content = p.views.Error(message)
		committed = p.kit.ShowError(spec.Region, out.Generation, message)
	} else {
		committed = p.kit.Show(spec.Region, out.Generation, out.Content)
	}

	if !committed {
		logger.Debug("区域 %s 已有更新的提交，丢弃第 %d 代响应", spec.Region, out.Generation)
		out.Kind = OutcomeStale
	}
	return out
}

func (p *Pipeline) dispatch(ctx context.Context, req model.LookupRequest) (model.Result, error) {
	spec := req.Tool.Spec()
	result := model.NewResult(req.Tool)
	if result == nil {
		return nil, fmt.Errorf("outil inconnu: %s", req.Tool)
	}

	var err error
	route := spec.Route
	if req.Tool.UsesBackend() {
		err = p.transport.PostJSON(ctx, spec.Route, RequestBody(req), result)
	} else {
		route = "ipinfo"
		err = p.transport.FetchIPInfo(ctx, req.Input, p.kit.GetAPIKey(model.ProviderIPInfo), result)
	}
	if err != nil {
		return nil, err
	}
	if verr := result.Validate(); verr != nil {
		return nil, &transport.DecodeError{Route: route, Err: verr}
	}
	return result, nil
}

// RequestBody 后端请求体：{ip|domain|range}，端口扫描附带 ports
func RequestBody(req model.LookupRequest) map[string]string {
	body := map[string]string{req.Tool.Spec().InputField: req.Input}
	if req.Tool == model.ToolPortScan {
		body[model.PortsOption] = req.Option(model.PortsOption)
	}
	return body
}

func failureMessage(tool model.Tool, err error) string {
	spec := tool.Spec()
	var remote *transport.RemoteError
	var decode *transport.DecodeError
	switch {
	case errors.As(err, &remote):
		return fmt.Sprintf("%s (HTTP %d: %s)", spec.Failure, remote.StatusCode, remote.Message)
	case errors.As(err, &decode):
		return fmt.Sprintf("%s: réponse invalide", spec.Failure)
	case transport.IsUnavailable(err):
		return fmt.Sprintf("%s: service injoignable", spec.Failure)
	case err != nil:
		return err.Error()
	}
	return spec.Failure
}
