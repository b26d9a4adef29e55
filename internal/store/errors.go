package store

import (
	"errors"
)

// 错误分级：校验失败、目标不存在、唯一性竞争失败。
// 处理器按 errors.Is 映射到 400/404/409。
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)
