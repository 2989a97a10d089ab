package service

import (
	"context"
	"course_studio_backend/internal/util"
	"course_studio_backend/pkg/logger"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

const (
	// VoiceUnconfiguredReply 未配置 key 时给学生的提示
	VoiceUnconfiguredReply = "I need an OpenAI API key to help you with voice interactions. Please configure it in your project settings."
	// VoiceErrorReply 其它错误时的兜底回复
	VoiceErrorReply = "I apologize, but I encountered an error processing your request. Please try again or check your connection."
)

type VoiceRequest struct {
	Message        string `json:"message" validate:"required"`
	Context        string `json:"context"`
	LessonContent  string `json:"lessonContent"`
	AssessmentMode bool   `json:"assessmentMode"`
}

type EngagementLevel string

const (
	EngagementLow    EngagementLevel = "low"
	EngagementMedium EngagementLevel = "medium"
	EngagementHigh   EngagementLevel = "high"
)

// AssessmentFeedback 根据学生发言推断的学习状态
type AssessmentFeedback struct {
	UnderstoodConcept bool            `json:"understoodConcept"`
	EngagementLevel   EngagementLevel `json:"engagementLevel"`
	NeedsMorePractice bool            `json:"needsMorePractice"`
}

type VoiceResponse struct {
	Response   string              `json:"response"`
	Assessment *AssessmentFeedback `json:"assessment"`
}

// VoiceSettings 浏览器端语音识别与合成参数
type VoiceSettings struct {
	Recognition RecognitionSettings `json:"recognition"`
	Synthesis   SynthesisSettings   `json:"synthesis"`
}

type RecognitionSettings struct {
	Continuous     bool   `json:"continuous"`
	InterimResults bool   `json:"interimResults"`
	Lang           string `json:"lang"`
}

type SynthesisSettings struct {
	Rate   float64 `json:"rate"`
	Pitch  float64 `json:"pitch"`
	Volume float64 `json:"volume"`
}

var (
	confusionPattern  = regexp.MustCompile(`(?i)confused|don't understand|difficult|hard|lost`)
	confidencePattern = regexp.MustCompile(`(?i)understand|get it|makes sense|clear|easy`)
)

// 参与课时内容比对的前若干个词
const terminologyWindow = 20

type VoiceService struct {
	ai     *AIService
	budget *TokenBudget
}

func NewVoiceService(ai *AIService, budget *TokenBudget) *VoiceService {
	return &VoiceService{ai: ai, budget: budget}
}

func (s *VoiceService) Settings() VoiceSettings {
	return VoiceSettings{
		Recognition: RecognitionSettings{Continuous: false, InterimResults: false, Lang: "en-US"},
		Synthesis:   SynthesisSettings{Rate: 0.9, Pitch: 1, Volume: 1},
	}
}

// Respond 生成助教的一轮回复；未配置 key 返回 util.ErrAIUnconfigured
func (s *VoiceService) Respond(ctx context.Context, caller string, req *VoiceRequest) (*VoiceResponse, error) {
	if !s.ai.Configured() {
		logger.Log.Error("OpenAI API key not configured")
		return nil, util.ErrAIUnconfigured
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	logger.Log.Info("Voice assistant request",
		zap.String("caller", caller),
		zap.String("context", req.Context),
		zap.Bool("has_lesson_content", req.LessonContent != ""),
		zap.Bool("assessment_mode", req.AssessmentMode),
	)

	result, err := completeWithinBudget(ctx, s.ai, s.budget, caller, Completion{
		Endpoint:    util.EndpointVoiceAssistant,
		System:      buildVoiceSystemPrompt(req),
		User:        req.Message,
		Temperature: defaultTemperature,
		MaxTokens:   voiceMaxTokens,
	})
	if err != nil {
		return nil, err
	}

	resp := &VoiceResponse{Response: result.Content}
	if req.AssessmentMode {
		feedback := AssessLearning(req.Message, req.LessonContent)
		resp.Assessment = &feedback
	}
	return resp, nil
}

// AssessLearning 基于关键词、长度和术语使用的启发式评估
func AssessLearning(message, lessonContent string) AssessmentFeedback {
	messageLength := utf8.RuneCountInString(message)
	wordCount := len(strings.Split(message, " "))
	hasQuestions := strings.Contains(message, "?")
	showsConfusion := confusionPattern.MatchString(message)
	showsConfidence := confidencePattern.MatchString(message)
	usesTerminology := usesLessonTerminology(message, lessonContent)

	understood := false
	if showsConfidence && messageLength > 20 && !showsConfusion {
		understood = true
	} else if usesTerminology && wordCount > 5 && !showsConfusion {
		understood = true
	}

	engagement := EngagementMedium
	if wordCount > 15 || hasQuestions || showsConfidence {
		engagement = EngagementHigh
	} else if wordCount < 5 || messageLength < 15 {
		engagement = EngagementLow
	}

	return AssessmentFeedback{
		UnderstoodConcept: understood,
		EngagementLevel:   engagement,
		NeedsMorePractice: showsConfusion || !understood || messageLength < 20,
	}
}

func usesLessonTerminology(message, lessonContent string) bool {
	if lessonContent == "" {
		return false
	}

	words := strings.Split(lessonContent, " ")
	if len(words) > terminologyWindow {
		words = words[:terminologyWindow]
	}

	lower := strings.ToLower(message)
	for _, w := range words {
		// 连续空格产生的空词不计入
		if w == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(w)) {
			return true
		}
	}
	return false
}
