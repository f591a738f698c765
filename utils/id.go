package utils

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateID 生成随机 UUID
func GenerateID() string {
	return uuid.NewString()
}

// GenerateFileName 生成基于时间戳的上传文件名，保留原扩展名
func GenerateFileName(original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	return fmt.Sprintf("%d%s", time.Now().UnixNano(), ext)
}
