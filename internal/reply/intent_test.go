package reply

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prperemyshlev/reply-assistant/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		name string
		text string
		want domain.Intent
	}{
		{"risk delay and trouble", "배송이 너무 늦고 트러블 났어요", domain.IntentRisk},
		{"lead where to buy", "어디서 사요? 할인코드 있나요?", domain.IntentLead},
		{"lead price", "가격이 궁금해요", domain.IntentLead},
		{"reaction", "색감 너무 예뻐요", domain.IntentReaction},
		{"qa default", "민감성 피부도 써도 되나요?", domain.IntentQA},
		{"empty is qa", "", domain.IntentQA},
		{"risk beats lead", "환불 어디서 해요? 링크 주세요", domain.IntentRisk},
		{"risk beats reaction", "최고라더니 별로네요", domain.IntentRisk},
		{"lead beats reaction", "대박 구매 링크 주세요", domain.IntentLead},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyIntent(tt.text))
		})
	}
}

func TestClassifyIntent_RiskPriority(t *testing.T) {
	rules := DefaultRules()
	for _, risk := range rules.Risk {
		for _, other := range append(append([]string{}, rules.Lead...), rules.Reaction...) {
			text := other + " " + risk
			assert.Equal(t, domain.IntentRisk, ClassifyIntent(text), "text %q", text)
		}
	}
}

func TestClassifier_CaseInsensitive(t *testing.T) {
	c := NewClassifier(Rules{Lead: []string{"Discount"}, Risk: []string{"REFUND"}})

	assert.Equal(t, domain.IntentLead, c.Classify("any DISCOUNT code?"))
	assert.Equal(t, domain.IntentRisk, c.Classify("I want a refund"))
	assert.Equal(t, domain.IntentQA, c.Classify("hello"))
}

func TestClassifier_EscapesKeywords(t *testing.T) {
	c := NewClassifier(Rules{Lead: []string{"c++", "(price)"}})

	assert.Equal(t, domain.IntentLead, c.Classify("what about c++"))
	assert.Equal(t, domain.IntentLead, c.Classify("tell me (price)"))
	assert.Equal(t, domain.IntentQA, c.Classify("price"))
}

func TestLoadRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	content := "risk:\n  - refund\n  - broken\nlead:\n  - buy\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	rules, err := LoadRules(path)
	require.NoError(t, err)

	want := Rules{
		Risk:     []string{"refund", "broken"},
		Lead:     []string{"buy"},
		Reaction: DefaultRules().Reaction,
	}
	if diff := cmp.Diff(want, rules); diff != "" {
		t.Errorf("LoadRules mismatch (-want +got):\n%s", diff)
	}

	c := NewClassifier(rules)
	assert.Equal(t, domain.IntentRisk, c.Classify("it arrived broken, where to buy another"))
	assert.Equal(t, domain.IntentLead, c.Classify("where can I buy"))
}

func TestLoadRules_EmptyPathUsesDefaults(t *testing.T) {
	rules, err := LoadRules("")
	require.NoError(t, err)
	if diff := cmp.Diff(DefaultRules(), rules); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadRules_Errors(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("risk: [unterminated"), 0o600))
	_, err = LoadRules(path)
	assert.Error(t, err)
}
