package reply

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/prperemyshlev/reply-assistant/internal/domain"
	"gopkg.in/yaml.v3"
)

// Rules holds the keyword sets checked by the classifier.
// Evaluation order is fixed: risk, lead, reaction, then qa.
type Rules struct {
	Risk     []string `yaml:"risk"`
	Lead     []string `yaml:"lead"`
	Reaction []string `yaml:"reaction"`
}

// DefaultRules returns the built-in Korean keyword sets
func DefaultRules() Rules {
	return Rules{
		Risk:     []string{"환불", "트러블", "부작용", "늦", "불만", "별로"},
		Lead:     []string{"어디서", "구매", "할인", "코드", "링크", "가격"},
		Reaction: []string{"예뻐", "좋아", "대박", "최고", "사랑"},
	}
}

// LoadRules reads keyword sets from a YAML file.
// Sets missing from the file keep their defaults.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("failed to read intent rules: %w", err)
	}

	var loaded Rules
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return Rules{}, fmt.Errorf("failed to parse intent rules: %w", err)
	}

	if len(loaded.Risk) > 0 {
		rules.Risk = loaded.Risk
	}
	if len(loaded.Lead) > 0 {
		rules.Lead = loaded.Lead
	}
	if len(loaded.Reaction) > 0 {
		rules.Reaction = loaded.Reaction
	}

	return rules, nil
}

// Classifier maps comment text to an intent
type Classifier struct {
	risk     *regexp.Regexp
	lead     *regexp.Regexp
	reaction *regexp.Regexp
}

// NewClassifier compiles the keyword sets into alternation patterns
func NewClassifier(rules Rules) *Classifier {
	return &Classifier{
		risk:     compileKeywords(rules.Risk),
		lead:     compileKeywords(rules.Lead),
		reaction: compileKeywords(rules.Reaction),
	}
}

// Classify never fails; text matching no set is qa
func (c *Classifier) Classify(text string) domain.Intent {
	normalized := strings.ToLower(text)

	switch {
	case matches(c.risk, normalized):
		return domain.IntentRisk
	case matches(c.lead, normalized):
		return domain.IntentLead
	case matches(c.reaction, normalized):
		return domain.IntentReaction
	default:
		return domain.IntentQA
	}
}

var defaultClassifier = NewClassifier(DefaultRules())

// ClassifyIntent classifies with the default rules
func ClassifyIntent(text string) domain.Intent {
	return defaultClassifier.Classify(text)
}

func compileKeywords(keywords []string) *regexp.Regexp {
	quoted := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(k))
	}
	if len(quoted) == 0 {
		return nil
	}
	return regexp.MustCompile(strings.Join(quoted, "|"))
}

func matches(re *regexp.Regexp, text string) bool {
	return re != nil && re.MatchString(text)
}
