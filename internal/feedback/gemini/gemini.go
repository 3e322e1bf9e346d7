package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/chndnsingh1403/ai-speaking-trainer/internal/session"
	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// Coach turns a finished conversation transcript into learner feedback with
// the Gemini text API.
type Coach struct {
	client *genai.Client
	model  string
}

func NewCoach(apiKey, model string) (*Coach, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Coach{
		client: client,
		model:  model,
	}, nil
}

// Review generates Markdown feedback for the learner. Transient API failures
// are retried with exponential backoff before giving up.
func (c *Coach) Review(ctx context.Context, entries []session.Entry) (string, error) {
	if len(entries) == 0 {
		return "# Session Feedback\n\nNo conversation was recorded.", nil
	}

	prompt := buildPrompt(buildTranscript(entries))
	genModel := c.client.GenerativeModel(c.model)

	var feedback string
	operation := func() error {
		resp, err := genModel.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return err
		}
		if len(resp.Candidates) == 0 {
			return backoff.Permanent(fmt.Errorf("no feedback generated"))
		}

		var sb strings.Builder
		for _, part := range resp.Candidates[0].Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
		feedback = sb.String()
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return "", fmt.Errorf("failed to generate feedback: %w", err)
	}

	log.Info().
		Int("turns", len(entries)).
		Int("feedback_length", len(feedback)).
		Msg("Generated session feedback")

	return feedback, nil
}

func buildTranscript(entries []session.Entry) string {
	var sb strings.Builder
	for _, entry := range entries {
		speaker := "Learner"
		if entry.Role == session.RoleModel {
			speaker = "Tutor"
		}
		sb.WriteString(fmt.Sprintf("[%s] %s: %s\n",
			entry.Start.Format("15:04:05"), speaker, entry.Text))
	}
	return sb.String()
}

func buildPrompt(transcript string) string {
	return fmt.Sprintf(`You are an English-speaking coach reviewing a voice conversation between a learner and an AI tutor. Based only on the learner's lines, produce:

1) **Overall Impression** - two or three sentences on fluency and confidence
2) **Grammar** - recurring mistakes with corrected examples
3) **Vocabulary** - words or phrases the learner could upgrade, with suggestions
4) **Practice Points** - up to 5 concrete things to practise next session

Be encouraging but specific. Format the output as clean Markdown.

**TRANSCRIPT:**
%s

**FEEDBACK:**`, transcript)
}

func (c *Coach) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
