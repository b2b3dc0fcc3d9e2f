package logic

import (
	"github.com/blues/ims/internal/apperr"
	"github.com/blues/ims/internal/model"
)

// Action 受参与模式约束的操作
type Action string

const (
	ActionSubmitBid        Action = "submit_bid"        // 提交投资出价
	ActionDirectContribute Action = "direct_contribute" // 无股权直接捐赠
	ActionValidate         Action = "validate"          // 支持背书
)

// Authorize 参与模式路由：三种模式是互斥的能力集合
// 纯决策函数，无副作用；模式枚举穷举匹配，新增模式时编译器不会放过遗漏的分支
func Authorize(mode model.ContributionMode, action Action) error {
	var allowed Action
	switch mode {
	case model.ModeInvesting:
		allowed = ActionSubmitBid
	case model.ModeDonating:
		allowed = ActionDirectContribute
	case model.ModeSupporting:
		allowed = ActionValidate
	default:
		return apperr.Unauthorizedf("未知的参与模式: %s", mode)
	}

	if action != allowed {
		return apperr.Unauthorizedf("参与模式 %s 不允许执行 %s 操作", mode, action)
	}
	return nil
}
