package util

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"course_studio_backend/internal/model"
)

// ValidateMimeType 深度校验文件 MIME 类型
// allowedTypes: 允许的 MIME 前缀或完整类型，如 "image/", "video/", "application/pdf"
func ValidateMimeType(reader io.Reader, allowedTypes []string) (string, error) {
	buffer := make([]byte, 512)
	n, err := io.ReadFull(reader, buffer)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", err
	}

	// 检测 MIME 类型
	mimeType := http.DetectContentType(buffer[:n])

	for _, allowed := range allowedTypes {
		if strings.HasPrefix(mimeType, allowed) || mimeType == allowed {
			return mimeType, nil
		}
	}

	return mimeType, errors.New("invalid file type: " + mimeType)
}

// IsVideo 检测是否为视频
func IsVideo(mimeType string) bool {
	return strings.HasPrefix(mimeType, MimeVideo) || mimeType == "application/x-mpegURL"
}

// ResourceTypeForMime 上传文件对应的资源类型
func ResourceTypeForMime(mimeType string) model.ResourceType {
	switch {
	case IsVideo(mimeType):
		return model.ResourceVideo
	case mimeType == MimePDF:
		return model.ResourcePDF
	default:
		return model.ResourceReading
	}
}
