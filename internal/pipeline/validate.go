package pipeline

import (
	"fmt"

	"CyberDash/internal/model"
)

// ValidationError 必填输入缺失，不会发出网络请求
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate 只检查必填字段是否为空，格式校验交给后端
func Validate(req model.LookupRequest) *ValidationError {
	req = req.Normalized()
	spec := req.Tool.Spec()
	if spec.Region == "" {
		return &ValidationError{Field: "tool", Message: fmt.Sprintf("Outil inconnu: %s", req.Tool)}
	}
	if req.Input == "" {
		return &ValidationError{Field: spec.InputField, Message: spec.Missing}
	}
	if req.Tool == model.ToolPortScan && req.Option(model.PortsOption) == "" {
		return &ValidationError{Field: model.PortsOption, Message: model.MissingPortsMessage}
	}
	return nil
}
