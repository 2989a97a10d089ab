package util

const ContextUserKey = "user"

const (
	StorageLocal  = "local"
	StorageMinio  = "minio"
	StorageOSS    = "oss"
	StorageMemory = "memory"
)

// 文件上传相关常量
const (
	MimeVideo = "video/"
	MimeImage = "image/"
	MimeText  = "text/"
	MimePDF   = "application/pdf"

	MaxUploadSize = 200 << 20
)

var (
	AllowedResourceMimes = []string{MimePDF, MimeVideo, MimeImage, MimeText}
)

// 生成接口名称，用于用量记录与指标标签
const (
	EndpointGenerateLesson      = "generate-lesson"
	EndpointGenerateQuiz        = "generate-quiz"
	EndpointGenerateSessionPlan = "generate-session-plan"
	EndpointGenerateTopics      = "generate-course-topics"
	EndpointVoiceAssistant      = "ai-voice-assistant"
)
