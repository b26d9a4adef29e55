package utils

import (
	"regexp"
	"strings"
)

// 用户名：字母开头，字母/数字/下划线，3-20 位
var usernameRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]{2,19}$`)

// ValidUsername 校验用户名格式
func ValidUsername(name string) bool {
	return usernameRe.MatchString(name)
}

// NormalizeUsername 唯一性按小写形式判定，大小写只是展示差异
func NormalizeUsername(name string) string {
	return strings.ToLower(name)
}
