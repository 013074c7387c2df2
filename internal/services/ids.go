package services

import "github.com/google/uuid"

// ValidateID 校验资源 ID 格式，非法时返回带 msg 的 ValidationError
func ValidateID(id, msg string) error {
	if _, err := uuid.Parse(id); err != nil {
		return Validation(msg)
	}
	return nil
}
