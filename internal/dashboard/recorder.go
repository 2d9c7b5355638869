package dashboard

import (
	"encoding/json"

	"CyberDash/internal/model"
	"CyberDash/internal/pipeline"
	"CyberDash/internal/store"
)

// record 在设置开启 saveLogs 时记录一次完成的查询；扫描类工具另存结果
func (s *Server) record(out pipeline.Outcome) {
	if s.activity == nil || out.Kind == pipeline.OutcomeInvalid {
		return
	}
	if !s.settings.Load().SaveLogs {
		return
	}

	req := out.Request
	spec := req.Tool.Spec()
	entry := store.ActivityEntry{
		RunID:     out.RunID,
		Module:    spec.Module,
		Action:    actionName(out.Kind),
		InputData: inputData(req),
	}
	switch {
	case out.Result != nil:
		entry.ResultSummary = out.Result.Summary()
	case out.Err != nil:
		entry.ResultSummary = out.Err.Error()
	}

	if err := s.activity.LogActivity(entry); err != nil {
		s.logger.Error("记录活动失败: %v", err)
	}

	if out.Kind != pipeline.OutcomeSuccess {
		return
	}
	if req.Tool != model.ToolPortScan && req.Tool != model.ToolNetworkScan {
		return
	}
	results, err := json.Marshal(out.Result)
	if err != nil {
		s.logger.Error("编码扫描结果失败: %v", err)
		return
	}
	if err := s.activity.SaveScan(store.ScanRecord{
		RunID:    out.RunID,
		ScanType: string(req.Tool),
		Target:   req.Input,
		Results:  string(results),
	}); err != nil {
		s.logger.Error("保存扫描结果失败: %v", err)
	}
}

func actionName(kind pipeline.OutcomeKind) string {
	switch kind {
	case pipeline.OutcomeSuccess:
		return "lookup"
	case pipeline.OutcomeDemo:
		return "lookup_demo"
	case pipeline.OutcomeError:
		return "lookup_error"
	}
	return "lookup_" + kind.String()
}

func inputData(req model.LookupRequest) string {
	if ports := req.Option(model.PortsOption); ports != "" {
		return "IP: " + req.Input + ", Ports: " + ports
	}
	return req.Input
}
