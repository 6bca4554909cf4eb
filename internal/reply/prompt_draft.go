package reply

import (
	"context"
	"fmt"
	"strings"

	"github.com/prperemyshlev/reply-assistant/internal/domain"
	"go.uber.org/zap"
)

// TextGenerator is a single system+user completion call
type TextGenerator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

const outputRules = `출력 규칙:
- 반드시 한국어로 작성하세요.
- 1~3문장으로 작성하세요.
- 마크다운, 목록, 이모지 나열 없이 댓글 본문만 출력하세요.`

// PromptDrafter generates drafts from an admin-authored operational prompt
type PromptDrafter struct {
	generator TextGenerator
	logger    *zap.Logger
	logIO     bool
}

// NewPromptDrafter creates a drafter. When logIO is set, the exact prompt and
// response are logged at info level.
func NewPromptDrafter(generator TextGenerator, logger *zap.Logger, logIO bool) *PromptDrafter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PromptDrafter{
		generator: generator,
		logger:    logger,
		logIO:     logIO,
	}
}

// SystemPrompt joins the operational prompt with the fixed output rules
func SystemPrompt(operationalPrompt string) string {
	return strings.TrimSpace(operationalPrompt) + "\n\n" + outputRules
}

// UserPrompt carries the classified intent and the original comment
func UserPrompt(commentText string, intent domain.Intent) string {
	return fmt.Sprintf("댓글 의도: %s\n원댓글: %s", intent, commentText)
}

// GenerateFromPrompt asks the generator for a reply. Errors from the generator
// are returned unchanged; an empty completion is an error.
func (d *PromptDrafter) GenerateFromPrompt(ctx context.Context, commentText string, intent domain.Intent, operationalPrompt string) (string, error) {
	systemPrompt := SystemPrompt(operationalPrompt)
	userPrompt := UserPrompt(commentText, intent)

	if d.logIO {
		d.logger.Info("prompt-io draft input",
			zap.String("intent", string(intent)),
			zap.String("system_prompt", systemPrompt),
			zap.String("user_prompt", userPrompt),
		)
	}

	text, err := d.generator.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("text generation returned an empty draft")
	}

	if d.logIO {
		d.logger.Info("prompt-io draft output", zap.String("draft", text))
	}

	return text, nil
}
