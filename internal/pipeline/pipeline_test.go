package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CyberDash/internal/model"
	"CyberDash/internal/render"
	"CyberDash/internal/transport"
)

// fakeTransport 按路由返回固定的 JSON 或错误。byInput 按主输入覆盖响应，
// gates 按调用序号阻塞调用直到通道关闭
type fakeTransport struct {
	mu        sync.Mutex
	responses map[string]string
	byInput   map[string]string
	errs      map[string]error
	gates     map[int]chan struct{}

	calls  []string
	bodies []interface{}
	tokens []string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		responses: make(map[string]string),
		byInput:   make(map[string]string),
		errs:      make(map[string]error),
		gates:     make(map[int]chan struct{}),
	}
}

func (f *fakeTransport) record(route string, body interface{}, token string) (int, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := len(f.calls)
	f.calls = append(f.calls, route)
	var input string
	if route == "ipinfo" {
		f.tokens = append(f.tokens, token)
		input = body.(string)
	} else {
		f.bodies = append(f.bodies, body)
		if m, ok := body.(map[string]string); ok {
			for _, k := range []string{"ip", "domain", "range"} {
				if m[k] != "" {
					input = m[k]
				}
			}
		}
	}
	return idx, input
}

func (f *fakeTransport) reply(route string, idx int, input string, out interface{}) error {
	f.mu.Lock()
	gate := f.gates[idx]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[route]; err != nil {
		return err
	}
	data, ok := f.byInput[input]
	if !ok {
		data = f.responses[route]
	}
	return json.Unmarshal([]byte(data), out)
}

func (f *fakeTransport) FetchIPInfo(ctx context.Context, address, token string, out interface{}) error {
	idx, _ := f.record("ipinfo", address, token)
	return f.reply("ipinfo", idx, address, out)
}

func (f *fakeTransport) PostJSON(ctx context.Context, route string, body, out interface{}) error {
	idx, input := f.record(route, body, "")
	return f.reply(route, idx, input, out)
}

func (f *fakeTransport) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type staticSettings model.Settings

func (s staticSettings) Load() model.Settings { return model.Settings(s) }

type harness struct {
	transport *fakeTransport
	board     *Board
	pipeline  *Pipeline
}

func newHarness(t *testing.T, fixtures Fixtures, settings model.Settings) *harness {
	t.Helper()
	views, err := render.New()
	require.NoError(t, err)

	ft := newFakeTransport()
	board := NewBoard()
	kit := NewToolkit(board, views, staticSettings(settings), nil)
	return &harness{
		transport: ft,
		board:     board,
		pipeline:  New(ft, kit, views, fixtures),
	}
}

func (h *harness) content(tool model.Tool) string {
	return string(h.board.Content(tool.Spec().Region))
}

func unavailable(route string) error {
	return &transport.UnavailableError{Route: route, Err: assert.AnError}
}

func TestValidationMakesNoCalls(t *testing.T) {
	h := newHarness(t, DemoFixtures{}, model.DefaultSettings())

	for _, tool := range model.Tools {
		t.Run(tool.String(), func(t *testing.T) {
			out := h.pipeline.Run(context.Background(), model.LookupRequest{Tool: tool, Input: "   "})
			assert.Equal(t, OutcomeInvalid, out.Kind)
			assert.Contains(t, h.content(tool), "Erreur:")
			assert.Contains(t, h.content(tool), tool.Spec().Missing)
		})
	}

	out := h.pipeline.Run(context.Background(), model.LookupRequest{Tool: model.ToolPortScan, Input: "10.0.0.1"})
	assert.Equal(t, OutcomeInvalid, out.Kind)
	assert.Contains(t, h.content(model.ToolPortScan), "Veuillez spécifier les ports à scanner")

	assert.Equal(t, 0, h.transport.callCount(), "校验失败时不应发出请求")
}

func TestIPInfoSuccess(t *testing.T) {
	settings := model.DefaultSettings()
	settings.APIKeys = map[string]string{model.ProviderIPInfo: "KEY"}
	h := newHarness(t, DemoFixtures{}, settings)
	h.transport.responses["ipinfo"] = `{"ip":"8.8.8.8","city":"Mountain View","region":"California","country":"US","org":"AS15169 Google LLC"}`

	out := h.pipeline.Run(context.Background(), model.LookupRequest{Tool: model.ToolIPInfo, Input: " 8.8.8.8 "})
	require.Equal(t, OutcomeSuccess, out.Kind)
	assert.Equal(t, []string{"KEY"}, h.transport.tokens)

	content := h.content(model.ToolIPInfo)
	assert.Contains(t, content, "Informations sur 8.8.8.8")
	assert.Contains(t, content, "Mountain View, California, US")
	assert.Contains(t, content, "AS15169 Google LLC")
	assert.Contains(t, content, `data-copy="8.8.8.8"`)
	assert.NotContains(t, content, "Hostname", "缺失的字段不应输出")
	assert.NotContains(t, content, "Code Postal")
	assert.NotContains(t, content, "Fuseau Horaire")
	assert.Equal(t, out.Content, h.board.Content(model.ToolIPInfo.Spec().Region))
}

func TestIPInfoNeverFallsBackToDemo(t *testing.T) {
	h := newHarness(t, DemoFixtures{}, model.DefaultSettings())
	h.transport.errs["ipinfo"] = unavailable("ipinfo")

	out := h.pipeline.Run(context.Background(), model.LookupRequest{Tool: model.ToolIPInfo, Input: "8.8.8.8"})
	assert.Equal(t, OutcomeError, out.Kind)

	content := h.content(model.ToolIPInfo)
	assert.Contains(t, content, "Erreur lors de la requête IP Info")
	assert.NotContains(t, content, "démonstration")
	assert.Equal(t, []string{""}, h.transport.tokens, "未设置密钥时不附带token")
}

func TestDemoFallback(t *testing.T) {
	tests := []struct {
		tool     model.Tool
		input    string
		ports    string
		contains []string
	}{
		{model.ToolPortScan, "192.168.1.1", "1-1000", []string{"(DÉMO)", "Ports scannés: 1-1000", "SSH", "HTTPS", "RDP", "Fermé"}},
		{model.ToolDNSResolve, "example.com", "", []string{"Enregistrements AAAA (IPv6)", "backup-mail.example.com", "v=spf1 include:_spf.example.com ~all"}},
		{model.ToolNetworkScan, "192.168.1.0/24", "", []string{"Appareils découverts: 4", "Samsung Electronics", "router.local"}},
		{model.ToolReverseIP, "93.184.216.34", "", []string{"Domaines trouvés: 4", "api.example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.tool.String(), func(t *testing.T) {
			h := newHarness(t, DemoFixtures{}, model.DefaultSettings())
			route := tt.tool.Spec().Route
			h.transport.errs[route] = unavailable(route)

			req := model.LookupRequest{Tool: tt.tool, Input: tt.input}
			if tt.ports != "" {
				req.Options = map[string]string{model.PortsOption: tt.ports}
			}
			out := h.pipeline.Run(context.Background(), req)
			require.Equal(t, OutcomeDemo, out.Kind)
			assert.True(t, transport.IsUnavailable(out.Err))

			content := h.content(tt.tool)
			assert.Contains(t, content, "Note: Ceci est une démonstration")
			for _, s := range tt.contains {
				assert.Contains(t, content, s)
			}
		})
	}
}

func TestRemoteErrorShowsBanner(t *testing.T) {
	h := newHarness(t, DemoFixtures{}, model.DefaultSettings())
	h.transport.errs["/api/scan-ports"] = &transport.RemoteError{
		Route: "/api/scan-ports", StatusCode: 500, Message: "Internal Server Error",
	}

	out := h.pipeline.Run(context.Background(), model.LookupRequest{
		Tool: model.ToolPortScan, Input: "10.0.0.1", Options: map[string]string{model.PortsOption: "22"},
	})
	assert.Equal(t, OutcomeError, out.Kind)

	content := h.content(model.ToolPortScan)
	assert.Contains(t, content, "Erreur lors du scan de ports (HTTP 500: Internal Server Error)")
	assert.NotContains(t, content, "démonstration", "非2xx响应不应显示演示数据")
}

func TestNoFixturesShowsBanner(t *testing.T) {
	h := newHarness(t, nil, model.DefaultSettings())
	h.transport.errs["/api/reverse-ip"] = unavailable("/api/reverse-ip")

	out := h.pipeline.Run(context.Background(), model.LookupRequest{Tool: model.ToolReverseIP, Input: "1.1.1.1"})
	assert.Equal(t, OutcomeError, out.Kind)
	assert.Contains(t, h.content(model.ToolReverseIP), "Erreur lors de la recherche Reverse IP: service injoignable")
}

func TestMissingPrimaryListIsDecodeError(t *testing.T) {
	h := newHarness(t, DemoFixtures{}, model.DefaultSettings())
	h.transport.responses["/api/scan-network"] = `{"status":"ok"}`

	out := h.pipeline.Run(context.Background(), model.LookupRequest{Tool: model.ToolNetworkScan, Input: "10.0.0.0/24"})
	assert.Equal(t, OutcomeError, out.Kind)

	var decode *transport.DecodeError
	assert.ErrorAs(t, out.Err, &decode)
	assert.Contains(t, h.content(model.ToolNetworkScan), "Erreur lors du scan réseau: réponse invalide")
}

func TestRequestBody(t *testing.T) {
	h := newHarness(t, DemoFixtures{}, model.DefaultSettings())
	h.transport.responses["/api/scan-ports"] = `{"ports":[]}`
	h.transport.responses["/api/resolve-dns"] = `{}`
	h.transport.responses["/api/scan-network"] = `{"devices":[]}`

	h.pipeline.Run(context.Background(), model.LookupRequest{
		Tool: model.ToolPortScan, Input: "10.0.0.1", Options: map[string]string{model.PortsOption: " 22,80 "},
	})
	h.pipeline.Run(context.Background(), model.LookupRequest{Tool: model.ToolDNSResolve, Input: "example.com"})
	h.pipeline.Run(context.Background(), model.LookupRequest{Tool: model.ToolNetworkScan, Input: "10.0.0.0/24"})

	require.Len(t, h.transport.bodies, 3)
	assert.Equal(t, map[string]string{"ip": "10.0.0.1", "ports": "22,80"}, h.transport.bodies[0])
	assert.Equal(t, map[string]string{"domain": "example.com"}, h.transport.bodies[1])
	assert.Equal(t, map[string]string{"range": "10.0.0.0/24"}, h.transport.bodies[2])
}

func TestEmptyResults(t *testing.T) {
	h := newHarness(t, DemoFixtures{}, model.DefaultSettings())
	h.transport.responses["/api/scan-ports"] = `{"ports":[]}`
	h.transport.responses["/api/scan-network"] = `{"devices":[]}`
	h.transport.responses["/api/reverse-ip"] = `{"domains":[]}`

	h.pipeline.Run(context.Background(), model.LookupRequest{
		Tool: model.ToolPortScan, Input: "10.0.0.1", Options: map[string]string{model.PortsOption: "22"},
	})
	h.pipeline.Run(context.Background(), model.LookupRequest{Tool: model.ToolNetworkScan, Input: "10.0.0.0/24"})
	h.pipeline.Run(context.Background(), model.LookupRequest{Tool: model.ToolReverseIP, Input: "1.1.1.1"})

	assert.Contains(t, h.content(model.ToolPortScan), "Aucun port ouvert trouvé")
	assert.Contains(t, h.content(model.ToolNetworkScan), "Aucun appareil découvert")
	assert.Contains(t, h.content(model.ToolReverseIP), "Aucun domaine trouvé pour cette adresse IP")
}

func TestRunIsIdempotent(t *testing.T) {
	h := newHarness(t, DemoFixtures{}, model.DefaultSettings())
	h.transport.responses["/api/resolve-dns"] = `{"a":["93.184.216.34"],"ns":["a.iana-servers.net"]}`

	req := model.LookupRequest{Tool: model.ToolDNSResolve, Input: "example.com"}
	first := h.pipeline.Run(context.Background(), req)
	second := h.pipeline.Run(context.Background(), req)

	assert.Equal(t, OutcomeSuccess, second.Kind)
	assert.Equal(t, first.Content, second.Content)
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Greater(t, second.Generation, first.Generation)
}

func TestValuesAreEscaped(t *testing.T) {
	h := newHarness(t, DemoFixtures{}, model.DefaultSettings())
	h.transport.responses["/api/resolve-dns"] = `{"txt":["<script>alert(1)</script>"]}`

	h.pipeline.Run(context.Background(), model.LookupRequest{Tool: model.ToolDNSResolve, Input: "<b>x</b>"})

	content := h.content(model.ToolDNSResolve)
	assert.NotContains(t, content, "<script>")
	assert.Contains(t, content, "&lt;script&gt;")
	assert.Contains(t, content, "&lt;b&gt;x&lt;/b&gt;")
	assert.NotContains(t, content, "Enregistrements A<", "空的记录组不应输出")
}

func TestLatestSubmissionWins(t *testing.T) {
	h := newHarness(t, DemoFixtures{}, model.DefaultSettings())
	gate := make(chan struct{})
	h.transport.gates[0] = gate
	h.transport.byInput["1.1.1.1"] = `{"domains":["slow.example.com"]}`
	h.transport.byInput["2.2.2.2"] = `{"domains":["fast.example.com"]}`

	first, firstDone := h.pipeline.Submit(context.Background(), model.LookupRequest{Tool: model.ToolReverseIP, Input: "1.1.1.1"})
	assert.Contains(t, string(first.Content), "Chargement en cours")
	assert.Contains(t, h.content(model.ToolReverseIP), "Chargement en cours")

	second := h.pipeline.Run(context.Background(), model.LookupRequest{Tool: model.ToolReverseIP, Input: "2.2.2.2"})
	require.Equal(t, OutcomeSuccess, second.Kind)
	assert.Greater(t, second.Generation, first.Generation)

	close(gate)
	stale := <-firstDone
	assert.Equal(t, OutcomeStale, stale.Kind)

	content := h.content(model.ToolReverseIP)
	assert.Contains(t, content, "fast.example.com")
	assert.NotContains(t, content, "slow.example.com")
}

func TestValidationErrorSupersedesInflight(t *testing.T) {
	h := newHarness(t, DemoFixtures{}, model.DefaultSettings())
	gate := make(chan struct{})
	h.transport.gates[0] = gate
	h.transport.responses["/api/scan-network"] = `{"devices":[{"ip":"10.0.0.5"}]}`

	_, done := h.pipeline.Submit(context.Background(), model.LookupRequest{Tool: model.ToolNetworkScan, Input: "10.0.0.0/24"})
	invalid := h.pipeline.Run(context.Background(), model.LookupRequest{Tool: model.ToolNetworkScan, Input: ""})
	assert.Equal(t, OutcomeInvalid, invalid.Kind)

	close(gate)
	assert.Equal(t, OutcomeStale, (<-done).Kind)
	assert.Contains(t, h.content(model.ToolNetworkScan), "Veuillez entrer une plage réseau")
}

func TestSubmitInvalidClosesChannel(t *testing.T) {
	h := newHarness(t, DemoFixtures{}, model.DefaultSettings())

	out, done := h.pipeline.Submit(context.Background(), model.LookupRequest{Tool: model.ToolDNSResolve})
	assert.Equal(t, OutcomeInvalid, out.Kind)

	final, ok := <-done
	require.True(t, ok)
	assert.Equal(t, OutcomeInvalid, final.Kind)
	_, ok = <-done
	assert.False(t, ok, "通道应已关闭")
}

func TestRegionsAreIndependent(t *testing.T) {
	h := newHarness(t, DemoFixtures{}, model.DefaultSettings())
	h.transport.responses["/api/reverse-ip"] = `{"domains":["example.org"]}`

	h.pipeline.Run(context.Background(), model.LookupRequest{Tool: model.ToolReverseIP, Input: "1.1.1.1"})
	h.pipeline.Run(context.Background(), model.LookupRequest{Tool: model.ToolDNSResolve, Input: ""})

	assert.Contains(t, h.content(model.ToolReverseIP), "example.org")
	assert.True(t, strings.Contains(h.content(model.ToolDNSResolve), "Veuillez entrer un nom de domaine"))
	assert.Empty(t, h.content(model.ToolIPInfo))
}

func TestFailureMessage(t *testing.T) {
	remote := &transport.RemoteError{Route: "/api/resolve-dns", StatusCode: 404, Message: "Not Found"}
	assert.Equal(t, "Erreur lors de la résolution DNS (HTTP 404: Not Found)", failureMessage(model.ToolDNSResolve, remote))

	decode := &transport.DecodeError{Route: "ipinfo", Err: assert.AnError}
	assert.Equal(t, "Erreur lors de la requête IP Info: réponse invalide", failureMessage(model.ToolIPInfo, decode))

	assert.Equal(t, "Erreur lors du scan réseau: service injoignable",
		failureMessage(model.ToolNetworkScan, unavailable("/api/scan-network")))
}
