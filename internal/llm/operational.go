package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// operationalSystemPrompt instructs the model to write a reusable system
// prompt for one product's comment replies.
const operationalSystemPrompt = `너는 인스타그램 광고 댓글 응대용 시스템 프롬프트를 설계하는 전문가다.
사용자가 제공한 제품 정보를 바탕으로, 다른 AI가 댓글 답글 초안을 작성할 때 그대로 사용할 운영 프롬프트를 작성해라.

작성 규칙:
- 브랜드 담당자 역할, 말투, 답글 길이 기준을 명확히 정한다.
- 제품의 핵심 장점과 구매 안내 방식을 정리한다.
- 의도별(구매 문의, 제품 질문, 긍정 반응, 불만/리스크) 응대 원칙을 각각 적는다.
- 과장 광고, 의학적 효능 단정, 경쟁사 비방은 금지한다고 명시한다.
- 불만/리스크 댓글은 사과 후 담당자 확인을 안내하도록 한다.
- 출력은 아래 형식의 프롬프트 본문만 작성하고 다른 설명은 붙이지 않는다.

SYSTEM PROMPT TEMPLATE:
[역할]
[제품 핵심 정보]
[말투와 길이]
[의도별 응대 원칙]
[금지 사항]`

// OperationalPromptInput is the product information an admin supplies
type OperationalPromptInput struct {
	ProductName            string
	ProductInfo            string
	AudienceInfo           string
	AdditionalRequirements string
}

// ProductInformation renders the input as labelled lines, skipping empty optional fields
func ProductInformation(in OperationalPromptInput) string {
	lines := []string{
		"제품명: " + in.ProductName,
		"제품 정보: " + in.ProductInfo,
	}
	if in.AudienceInfo != "" {
		lines = append(lines, "타겟 고객 정보: "+in.AudienceInfo)
	}
	if in.AdditionalRequirements != "" {
		lines = append(lines, "추가 요구사항: "+in.AdditionalRequirements)
	}
	return strings.Join(lines, "\n")
}

// OperationalPromptGenerator asks the LLM to write an operational prompt
type OperationalPromptGenerator struct {
	generator Generator
	logger    *zap.Logger
	logIO     bool
}

// NewOperationalPromptGenerator creates a new generator
func NewOperationalPromptGenerator(generator Generator, logger *zap.Logger, logIO bool) *OperationalPromptGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OperationalPromptGenerator{
		generator: generator,
		logger:    logger,
		logIO:     logIO,
	}
}

// Generate returns the generated prompt body
func (g *OperationalPromptGenerator) Generate(ctx context.Context, in OperationalPromptInput) (string, error) {
	info := ProductInformation(in)

	if g.logIO {
		g.logger.Info("prompt-io operational-generation input",
			zap.String("system_prompt", operationalSystemPrompt),
			zap.String("product_information", info),
		)
	}

	text, err := g.generator.Generate(ctx, operationalSystemPrompt, info)
	if err != nil {
		return "", fmt.Errorf("operational prompt generation failed: %w", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyResponse
	}

	if g.logIO {
		g.logger.Info("prompt-io operational-generation output", zap.String("generated_prompt", text))
	}

	return text, nil
}
