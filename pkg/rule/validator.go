// Package rule 封装 go-playground/validator，统一使用 `rule` 结构体标签.
// 配置校验与 HTTP 请求校验共用同一个实例，并注册了 photovault 专用的规则：
//
//   - localname: 上传时的本地文件名，不含路径分隔符且不为 "." 或 ".."
//   - assetid:   正整数资产编号
package rule

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	inst *validator.Validate
	once sync.Once
)

// initValidator 尝试复用 gin 的 validator 引擎；若不可用则新建.
func initValidator() {
	if engine := binding.Validator.Engine(); engine != nil {
		if v, ok := engine.(*validator.Validate); ok {
			inst = v
		}
	}

	if inst == nil {
		inst = validator.New()
	}

	inst.SetTagName("rule")

	_ = inst.RegisterValidation("localname", validateLocalName)
	inst.RegisterAlias("assetid", "required,gt=0")
}

// validateLocalName 校验本地文件名只包含单个路径片段.
func validateLocalName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if name == "" || name == "." || name == ".." {
		return false
	}

	return !strings.ContainsAny(name, `/\`) && !strings.ContainsRune(name, 0)
}

// lazyInit 初始化全局 validator（幂等）.
func lazyInit() {
	once.Do(initValidator)
}

// Engine 返回全局 *validator.Validate，若未初始化则先初始化.
func Engine() *validator.Validate {
	lazyInit()

	return inst
}

// RegisterValidation 代理 RegisterValidation，确保已初始化.
func RegisterValidation(tag string, fn validator.Func, opts ...bool) error {
	lazyInit()

	return inst.RegisterValidation(tag, fn, opts...)
}

// ValidationErrors 是格式化后的验证错误字典，键为字段命名空间，值为可读错误信息.
type ValidationErrors map[string]string

// Error 以稳定顺序拼接所有字段错误.
func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, k := range slices.Sorted(maps.Keys(v)) {
		parts = append(parts, k+": "+v[k])
	}

	return strings.Join(parts, "; ")
}

// Errors 将 validator 返回的错误转换为 ValidationErrors；其他错误返回 nil.
func Errors(err error) ValidationErrors {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make(ValidationErrors, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("failed on %q", fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("failed on %q (%s)", fe.Tag(), fe.Param())
		}

		out[fe.Namespace()] = msg
	}

	return out
}

// ValidateStruct 对结构体执行完整校验，失败时返回 ValidationErrors.
func ValidateStruct(s any) error {
	lazyInit()

	if err := inst.Struct(s); err != nil {
		if verrs := Errors(err); verrs != nil {
			return verrs
		}

		return err
	}

	return nil
}

// ValidateVar 按规则对单个变量校验，例如: ValidateVar("abc", "required,localname").
func ValidateVar(field any, tag string) error {
	lazyInit()

	return inst.Var(field, tag)
}

// RegisterAlias 包装 RegisterAlias，便于注册别名规则.
func RegisterAlias(alias, rules string) {
	lazyInit()

	inst.RegisterAlias(alias, rules)
}
