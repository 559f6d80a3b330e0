// internal/pipeline/completion-stream/models.go
package completionstream

import "explainer/internal/models"

// Answer is the fold of a drained event stream.
type Answer struct {
	Text   string `json:"text"`
	Events int    `json:"events"`
}

func (a Answer) add(text string) Answer {
	return Answer{Text: a.Text + text, Events: a.Events + 1}
}

// Empty reports whether the stream carried no events at all.
func (a Answer) Empty() bool {
	return a.Events == 0
}

type completionRequest struct {
	Model    string        `json:"model"`
	Messages []models.Turn `json:"messages"`
	Stream   bool          `json:"stream"`
}

type completionChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func (c completionChunk) delta() string {
	if len(c.Choices) == 0 {
		return ""
	}
	return c.Choices[0].Delta.Content
}

// textEvent is the payload of every re-emitted event.
type textEvent struct {
	Text string `json:"text"`
}
