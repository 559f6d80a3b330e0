// internal/models/query_types.go
package models

import "strings"

// AudienceLevel describes the learner's educational stage.
type AudienceLevel string

const (
	LevelPreschool        AudienceLevel = "preschool"
	LevelElementarySchool AudienceLevel = "elementary-school"
	LevelMiddleSchool     AudienceLevel = "middle-school"
	LevelHighSchool       AudienceLevel = "high-school"
	LevelUndergraduate    AudienceLevel = "undergraduate"
	LevelGraduate         AudienceLevel = "graduate"
)

// DefaultLevel is used when no level or an unknown level is supplied.
const DefaultLevel = LevelHighSchool

// ParseLevel matches case-insensitively and falls back to DefaultLevel.
func ParseLevel(s string) AudienceLevel {
	switch l := AudienceLevel(strings.ToLower(strings.TrimSpace(s))); l {
	case LevelPreschool, LevelElementarySchool, LevelMiddleSchool, LevelHighSchool, LevelUndergraduate, LevelGraduate:
		return l
	}
	return DefaultLevel
}

// InteractionMode controls whether the tutor quizzes, converses or just answers.
type InteractionMode string

const (
	InteractionNone     InteractionMode = "none"
	InteractionConverse InteractionMode = "converse"
	InteractionQuiz     InteractionMode = "quiz"
	InteractionRandom   InteractionMode = "random"
)

// ParseInteraction is case-sensitive; anything unrecognized means answer only.
func ParseInteraction(s string) InteractionMode {
	switch m := InteractionMode(s); m {
	case InteractionConverse, InteractionQuiz, InteractionRandom:
		return m
	}
	return InteractionNone
}

// SearchQuery is one web search request.
type SearchQuery struct {
	Text       string `json:"q"`
	SafeSearch bool   `json:"safe"`
	Location   string `json:"gl"`
	Language   string `json:"hl"`
}
