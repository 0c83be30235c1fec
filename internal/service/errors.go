package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// 错误分类，配合 errors.Is 使用
var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("not found")
	ErrAnalysisParse = errors.New("analysis response malformed")
	ErrGeneration    = errors.New("analysis generation failed")
	ErrDelivery      = errors.New("delivery failed")
	ErrStore         = errors.New("store unavailable")

	// ErrAnalysisUnavailable 未配置文本生成服务
	ErrAnalysisUnavailable = errors.New("analysis service not configured")
)

// ValidationError 输入不合法，Field 为出错字段
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError 记录不存在
type NotFoundError struct {
	Entity string
	ID     interface{}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// AnalysisParseError 模型输出不是约定的结构
type AnalysisParseError struct {
	Reason string
	// Raw 截断后的原始输出，便于排查
	Raw string
}

func (e *AnalysisParseError) Error() string {
	return "analysis response malformed: " + e.Reason
}

func (e *AnalysisParseError) Is(target error) bool { return target == ErrAnalysisParse }

// DeliveryError 通知发送失败，不影响已提交的周报
type DeliveryError struct {
	Channel string
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s delivery failed: %v", e.Channel, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

func (e *DeliveryError) Is(target error) bool { return target == ErrDelivery }

// StoreError 存储层失败
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStore }

// storeErr 把 gorm 错误转换为分类错误
func storeErr(op, entity string, id interface{}, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Entity: entity, ID: id}
	}
	return &StoreError{Op: op, Err: err}
}

// truncate 截断长文本用于日志和错误
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
