package service

import (
	"fmt"
	"time"
)

// 未配置 API Key 时返回的静态内容

const maxFallbackSessions = 100

const fallbackTopics = `Topic 1: Introduction and Fundamentals
Topic 2: Core Concepts and Principles
Topic 3: Basic Applications and Examples
Topic 4: Intermediate Techniques and Methods
Topic 5: Advanced Concepts and Theory
Topic 6: Practical Implementation and Case Studies
Topic 7: Real-world Applications and Projects
Topic 8: Assessment and Review

Note: These are sample topics. For customized, AI-generated topics based on your specific course requirements, please add an OpenAI API key to your project settings.`

func fallbackLesson(now time.Time) *LessonPlan {
	return &LessonPlan{
		ID:                fmt.Sprintf("lesson-%d", now.UnixMilli()),
		Title:             "Introduction to Machine Learning",
		EstimatedDuration: "2 hours",
		LearningObjectives: []string{
			"Understand the basic concepts of machine learning",
			"Differentiate between supervised and unsupervised learning",
			"Identify real-world applications of machine learning",
		},
		Resources: []GeneratedResource{
			{
				ID:       "res1",
				Type:     "video",
				Title:    "What is Machine Learning?",
				URL:      "https://example.com/video1",
				Duration: "15 min",
			},
		},
		Activities: []GeneratedActivity{
			{
				ID:            "act1",
				Type:          "reading",
				Title:         "Read Chapter 1: Introduction to ML",
				EstimatedTime: "30 min",
			},
		},
	}
}

func fallbackQuiz(now time.Time) *Quiz {
	return &Quiz{
		ID:                fmt.Sprintf("quiz-%d", now.UnixMilli()),
		Title:             "Machine Learning Basics Quiz",
		EstimatedDuration: "15 minutes",
		TotalPoints:       25,
		Questions: []QuizQuestion{
			{
				Type:     "multiple-choice",
				Question: "What is the primary goal of supervised learning?",
				Options: []string{
					"To find hidden patterns in data",
					"To predict outcomes based on labeled training data",
					"To reduce dimensionality of datasets",
					"To cluster similar data points",
				},
				CorrectAnswer: "1",
				BloomsLevel:   "Knowledge",
				Explanation:   "Supervised learning uses labeled training data to learn patterns and make predictions.",
			},
		},
	}
}

func fallbackSessionPlan(numberOfSessions int, sessionDuration string) *SessionPlan {
	if numberOfSessions < 0 {
		numberOfSessions = 0
	}
	if numberOfSessions > maxFallbackSessions {
		numberOfSessions = maxFallbackSessions
	}

	sessions := make([]SessionPlanItem, 0, numberOfSessions)
	for i := 1; i <= numberOfSessions; i++ {
		sessions = append(sessions, SessionPlanItem{
			SessionNo: i,
			Title:     fmt.Sprintf("Session %d: Introduction to Topic %d", i, i),
			Objectives: []string{
				fmt.Sprintf("Understand the basics of topic %d", i),
				"Apply concepts learned in previous sessions",
				"Prepare for upcoming advanced topics",
			},
			EstimatedDuration: sessionDuration,
		})
	}
	return &SessionPlan{Sessions: sessions}
}
