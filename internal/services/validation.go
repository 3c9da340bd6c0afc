package services

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// validate 是包内共享的校验器，validator.Validate 并发安全。
var validate = validator.New(validator.WithRequiredStructEnabled())

// fieldErrors 把 validator 的第一个失败字段映射成对应的业务错误。
// 未列出的字段返回 fallback。
func fieldErrors(err error, byField map[string]error, fallback error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fallback
	}
	for _, fe := range verrs {
		if mapped, ok := byField[fe.Field()+"."+fe.Tag()]; ok {
			return mapped
		}
		if mapped, ok := byField[fe.Field()]; ok {
			return mapped
		}
	}
	return fallback
}

func isValidEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}
