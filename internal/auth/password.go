package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// PasswordCost 是注册时使用的 bcrypt 成本。
	PasswordCost = bcrypt.DefaultCost
	// MaxPasswordBytes 是 bcrypt 能接受的最大密码长度。
	MaxPasswordBytes = 72
)

// HashPassword 返回密码的 bcrypt 哈希。超过 72 字节的密码会被 bcrypt 拒绝。
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", fmt.Errorf("哈希密码失败: %w", err)
	}
	return string(hashed), nil
}

// CheckPasswordHash reports whether password matches the stored hash.
// 哈希格式错误也按不匹配处理。
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
