package reply

import (
	"fmt"
	"strings"

	"github.com/prperemyshlev/reply-assistant/internal/domain"
)

// DraftContext is the subset of an ad context the templates interpolate
type DraftContext struct {
	ProductName      string
	USPText          string
	SalesLink        string
	DiscountCode     string
	RequiredKeywords []string
	BannedKeywords   []string
	ToneNotes        string
}

// ContextFrom copies the template fields out of a stored ad context
func ContextFrom(ac domain.AdContext) DraftContext {
	return DraftContext{
		ProductName:      ac.ProductName,
		USPText:          ac.USPText,
		SalesLink:        ac.SalesLink,
		DiscountCode:     ac.DiscountCode,
		RequiredKeywords: ac.RequiredKeywords,
		BannedKeywords:   ac.BannedKeywords,
		ToneNotes:        ac.ToneNotes,
	}
}

// GenerateDraft fills the Korean template for intent. The tone annotation and
// the original comment are appended and the whole text is sanitized.
func GenerateDraft(commentText string, intent domain.Intent, ctx DraftContext) string {
	var draft string

	switch intent {
	case domain.IntentLead:
		draft = fmt.Sprintf("문의 주셔서 감사해요. %s는 %s에 도움을 주는 제품이에요. 구매는 %s 에서 가능하고, 할인코드는 %s 입니다.%s",
			ctx.ProductName, ctx.USPText, ctx.SalesLink, ctx.DiscountCode, requiredKeywordsPhrase(ctx.RequiredKeywords))
	case domain.IntentQA:
		draft = fmt.Sprintf("좋은 질문 감사해요. %s는 %s 중심으로 안내드릴 수 있어요.%s 자세한 정보는 %s 에서 확인해 주세요.",
			ctx.ProductName, ctx.USPText, requiredKeywordsPhrase(ctx.RequiredKeywords), ctx.SalesLink)
	case domain.IntentReaction:
		draft = fmt.Sprintf("좋게 봐주셔서 감사해요. %s도 관심 가져주셔서 고마워요.", ctx.ProductName)
	default:
		draft = "불편을 드려 죄송해요. 해당 내용은 담당자와 확인해서 정확하게 다시 안내드릴게요."
	}

	withTone := fmt.Sprintf("%s (%s)\n원댓글: %s", draft, ctx.ToneNotes, commentText)
	return Sanitize(withTone, ctx.BannedKeywords)
}

func requiredKeywordsPhrase(keywords []string) string {
	filtered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			filtered = append(filtered, k)
		}
	}
	if len(filtered) == 0 {
		return ""
	}
	return fmt.Sprintf(" %s 포인트도 참고해 주세요.", strings.Join(filtered, ", "))
}
