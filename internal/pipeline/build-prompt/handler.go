// internal/pipeline/build-prompt/handler.go
package buildprompt

import (
	"context"
	"fmt"
	"strings"

	"explainer/internal/common/logger"
	"explainer/internal/models"
)

const TaskType = "build-prompt"

var levelDescriptions = map[models.AudienceLevel]string{
	models.LevelPreschool:        "The learner here is a preschool student of age between 3 and 6 years",
	models.LevelElementarySchool: "The learner here is a student of elementary school between the age of 6 and 12 years",
	models.LevelMiddleSchool:     "The learner here is a student of middle school between the age of 12 and 15 years",
	models.LevelHighSchool:       "The learner here is a student of high school between the age of 15 and 18 years",
	models.LevelUndergraduate:    "The learner here is an undergraduate student who has completed basic school education and is of the age more than 18 years",
	models.LevelGraduate:         "The learner here is an graduate student who has completed school and college and is of the age more than 21 years",
}

var interactionInstructions = map[models.InteractionMode]string{
	models.InteractionNone: "Do not quiz or ask any question. Only give your answer.",
	models.InteractionConverse: "Give options to explore more related topics in detail or offer to explore some of the areas " +
		"in your answer further. And then ask them what they want to learn about (in markdown numbers).",
	models.InteractionQuiz: "Based on your answer, ask a question from that content to test the knowledge of learner. " +
		"The answer must be within the response you have provided. If the age of the learner is more than 15 then you " +
		"will ask a difficult question. If the answer is correct then you will congraulate the learner of good understanding. " +
		"If the answer is incorrect then politely inform the learner about it and ask another question.",
	// the model itself picks the behaviour, so output varies between runs
	models.InteractionRandom: "You can choose to ask a simple question to test the knowledge of learner OR give more options " +
		"to explore details of related topics by listing them (in markdown numbers) OR you may choose to do nothing after " +
		"you have given your answer.",
}

const (
	personaTemplate = "You are a professional interactive personal tutor who is an expert at explaining topics to student " +
		"as a teacher. Given a topic and the information to teach, please educate the user about it, who is a student. " +
		"%s. %s Start by greeting the learner, giving them a short overview of the topic, and then ask them what they " +
		"want to learn about (in markdown numbers). Be interactive throughout the chat and quiz the user occasionally " +
		"after you teach them material. Do not quiz them in the first overview message and make the first message short " +
		"and concise."

	closingInstruction = "Please return answer in markdown. It is very important for my career that you follow these " +
		"instructions. Here is the topic to educate on:"
)

// LevelDescription maps a level tag to its learner sentence. Unknown tags get the high-school sentence.
func LevelDescription(level string) string {
	return levelDescriptions[models.ParseLevel(level)]
}

// InteractionInstruction maps an interaction tag to its behaviour sentence. Unknown tags mean answer only.
func InteractionInstruction(interaction string) string {
	return interactionInstructions[models.ParseInteraction(interaction)]
}

// Build assembles the system prompt. It is pure: equal inputs give byte-identical output.
func Build(contents []string, level, interaction string, maxSources int) string {
	if maxSources <= 0 {
		maxSources = DefaultMaxSources
	}
	if len(contents) > maxSources {
		contents = contents[:maxSources]
	}

	var b strings.Builder
	fmt.Fprintf(&b, personaTemplate, LevelDescription(level), InteractionInstruction(interaction))
	b.WriteString("\n\nRight now the information to teach the student is about ===\n\n<teaching_info>\n\n")
	for i, content := range contents {
		fmt.Fprintf(&b, "## Webpage #%d:\n %s \n\n", i, content)
	}
	b.WriteString("</teaching_info>\n\n===\n\n")
	b.WriteString(closingInstruction)
	return b.String()
}

type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	if config.MaxSources <= 0 {
		config.MaxSources = DefaultMaxSources
	}
	return &Handler{
		config: config,
		logger: log.WithFields(map[string]interface{}{"stage": TaskType}),
	}
}

func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	contents := make([]string, len(input.Sources))
	for i, s := range input.Sources {
		contents[i] = s.FullContent()
	}

	embedded := len(contents)
	if embedded > h.config.MaxSources {
		embedded = h.config.MaxSources
	}

	out := &Output{
		SystemPrompt:    Build(contents, input.Level, input.Interaction, h.config.MaxSources),
		EmbeddedSources: embedded,
		Level:           string(models.ParseLevel(input.Level)),
		Interaction:     string(models.ParseInteraction(input.Interaction)),
	}

	h.logger.Debug("system prompt built", map[string]interface{}{
		"sources":     len(contents),
		"embedded":    embedded,
		"level":       out.Level,
		"interaction": out.Interaction,
		"length":      len(out.SystemPrompt),
	})
	return out, nil
}
