package order

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// Delimiter 入库 ingredients 字符串的分隔符，下游解析依赖它，不要随意修改。
	Delimiter = ", "
	// MaxIngredients 每杯建议的水果上限。
	MaxIngredients = 5
)

// CapMode 决定超过 MaxIngredients 时的行为。
type CapMode int

const (
	CapAdvisory CapMode = iota // 只提示，不拒绝
	CapEnforced                // 提交时拒绝
)

// 校验规则名，同时作为 API 返回里的 rule 字段。
const (
	RuleNameRequired      = "name_required"
	RuleSelectionRequired = "selection_required"
	RuleTooMany           = "too_many_ingredients"
)

// ValidationError 提交前校验失败，提交为 no-op。
type ValidationError struct {
	Rule    string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// IsValidation 区分业务校验失败与基础设施故障。
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// Normalize 去掉空白项和重复项，保留首次出现的顺序。
func Normalize(selection []string) []string {
	out := make([]string, 0, len(selection))
	seen := make(map[string]struct{}, len(selection))
	for _, s := range selection {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Compose 按选择顺序拼接 ingredients 字符串。
func Compose(selection []string) string {
	return strings.Join(selection, Delimiter)
}

// IsValid 名字（trim 后）非空且至少选了一种水果。
func IsValid(name string, selection []string) bool {
	return strings.TrimSpace(name) != "" && len(selection) > 0
}

// Validate 返回第一条不满足的规则；cap 只在 CapEnforced 下参与校验。
func Validate(name string, selection []string, mode CapMode) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Rule: RuleNameRequired, Message: "Please enter the name on your smoothie."}
	}
	if len(selection) == 0 {
		return &ValidationError{Rule: RuleSelectionRequired, Message: "Please select ingredients for your smoothie."}
	}
	if mode == CapEnforced && len(selection) > MaxIngredients {
		return &ValidationError{
			Rule:    RuleTooMany,
			Message: fmt.Sprintf("Please choose at most %d ingredients.", MaxIngredients),
		}
	}
	return nil
}

// CapWarning 超出上限时给出提示文案，否则返回空串。
func CapWarning(selection []string) string {
	if len(selection) <= MaxIngredients {
		return ""
	}
	return fmt.Sprintf("You picked %d ingredients; we recommend at most %d.", len(selection), MaxIngredients)
}
