package apperr

import (
	"errors"
	"fmt"
)

// 错误类别哨兵，调用方用 errors.Is 区分处理策略
var (
	// ErrInvariant 状态规则被破坏（超额融资、股权超售、里程碑乱序等），不重试
	ErrInvariant = errors.New("invariant violation")
	// ErrUnauthorized 参与模式或投票权重不满足要求，不重试
	ErrUnauthorized = errors.New("authorization error")
	// ErrConflict 重复背书，面向用户的最终结果，不算系统错误
	ErrConflict = errors.New("validation conflict")
	// ErrNotFound 实体不存在或状态不符
	ErrNotFound = errors.New("not found")
	// ErrTransient 存储层基础设施错误，唯一允许调用方退避重试的类别
	ErrTransient = errors.New("transient store error")
)

// Invariantf 构造状态规则错误
func Invariantf(format string, args ...interface{}) error {
	return wrapf(ErrInvariant, format, args...)
}

// Unauthorizedf 构造权限错误
func Unauthorizedf(format string, args ...interface{}) error {
	return wrapf(ErrUnauthorized, format, args...)
}

// Conflictf 构造重复背书错误
func Conflictf(format string, args ...interface{}) error {
	return wrapf(ErrConflict, format, args...)
}

// NotFoundf 构造未找到错误
func NotFoundf(format string, args ...interface{}) error {
	return wrapf(ErrNotFound, format, args...)
}

// Transient 包装存储层错误
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrTransient, err)
}

func wrapf(kind error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}
