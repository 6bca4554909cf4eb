package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/prperemyshlev/reply-assistant/internal/domain"
	"github.com/prperemyshlev/reply-assistant/internal/dto"
	"github.com/prperemyshlev/reply-assistant/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubWriter struct {
	body string
	err  error
	in   llm.OperationalPromptInput
}

func (w *stubWriter) Generate(_ context.Context, in llm.OperationalPromptInput) (string, error) {
	w.in = in
	return w.body, w.err
}

func TestTemplateLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.prompts.CreateTemplate(ctx, testAdmin, &dto.PromptTemplateRequest{Name: " ", ProductName: "p", PromptBody: "b"})
	assert.Equal(t, KindValidation, KindOf(err))

	tmpl, err := h.prompts.CreateTemplate(ctx, testAdmin, &dto.PromptTemplateRequest{
		Name:        " serum ",
		ProductName: "비타민C 세럼",
		PromptBody:  "너는 세럼 브랜드 담당자야.",
	})
	require.NoError(t, err)
	assert.Equal(t, "serum", tmpl.Name)
	assert.Equal(t, domain.TemplateActive, tmpl.Status)

	updated, err := h.prompts.UpdateTemplate(ctx, testAdmin, tmpl.ID, &dto.PromptTemplateRequest{
		Name:        "serum v2",
		ProductName: "비타민C 세럼",
		PromptBody:  "새 지침",
	})
	require.NoError(t, err)
	assert.Equal(t, "serum v2", updated.Name)

	_, err = h.prompts.UpdateTemplate(ctx, testAdmin, "missing", &dto.PromptTemplateRequest{Name: "n", ProductName: "p", PromptBody: "b"})
	assert.Equal(t, KindNotFound, KindOf(err))

	require.NoError(t, h.prompts.ArchiveTemplate(ctx, testAdmin, tmpl.ID))
	assert.Equal(t, KindNotFound, KindOf(h.prompts.ArchiveTemplate(ctx, testAdmin, "missing")))

	active, err := h.prompts.ListTemplates(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := h.prompts.ListTemplates(ctx, true)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, domain.TemplateArchived, all[0].Status)
	require.NotNil(t, all[0].ArchivedByAdminID)
	assert.Equal(t, testAdmin, *all[0].ArchivedByAdminID)
}

func TestGrantPrompt_IsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tmpl := h.assignedPrompt(t, "ig_123", "세럼", "p")

	granted, err := h.prompts.GrantPrompt(ctx, testAdmin, &dto.GrantPromptRequest{
		PromptTemplateID: tmpl.ID,
		IGUserIDs:        []string{"ig_123", " ig_123 "},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, granted)

	assignments, err := h.prompts.ListAssignments(ctx, "ig_123", "", false)
	require.NoError(t, err)
	assert.Len(t, assignments, 1)
}

func TestGrantPrompt_RevokeAndRegrant(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tmpl := h.assignedPrompt(t, "ig_123", "세럼", "p")
	assignments, err := h.prompts.ListAssignments(ctx, "ig_123", tmpl.ID, false)
	require.NoError(t, err)
	require.Len(t, assignments, 1)

	require.NoError(t, h.prompts.RevokeAssignment(ctx, testAdmin, assignments[0].ID))
	assert.Equal(t, KindNotFound, KindOf(h.prompts.RevokeAssignment(ctx, testAdmin, "missing")))

	available, err := h.prompts.AvailablePrompts(ctx, "ig_123")
	require.NoError(t, err)
	assert.Empty(t, available)

	_, err = h.prompts.AuthorizePrompt(ctx, "ig_123", tmpl.ID)
	assert.Equal(t, KindAuthorization, KindOf(err))

	revoked, err := h.prompts.ListAssignments(ctx, "ig_123", "", true)
	require.NoError(t, err)
	require.Len(t, revoked, 1)
	assert.Equal(t, domain.AssignmentRevoked, revoked[0].Status)

	_, err = h.prompts.GrantPrompt(ctx, testAdmin, &dto.GrantPromptRequest{
		PromptTemplateID: tmpl.ID,
		IGUserIDs:        []string{"ig_123"},
	})
	require.NoError(t, err)

	regranted, err := h.prompts.ListAssignments(ctx, "ig_123", "", true)
	require.NoError(t, err)
	require.Len(t, regranted, 1)
	assert.Equal(t, assignments[0].ID, regranted[0].ID)
	assert.Equal(t, domain.AssignmentActive, regranted[0].Status)
	assert.Nil(t, regranted[0].RevokedAt)
}

func TestGrantPrompt_ByUsername(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.link(t, testOperator, "ig_1", "brand_a")
	h.link(t, testOperator, "ig_2", "Brand_B")
	h.link(t, testOperator, "ig_3", "other")

	tmpl, err := h.prompts.CreateTemplate(ctx, testAdmin, &dto.PromptTemplateRequest{Name: "n", ProductName: "p", PromptBody: "b"})
	require.NoError(t, err)

	granted, err := h.prompts.GrantPrompt(ctx, testAdmin, &dto.GrantPromptRequest{
		PromptTemplateID: tmpl.ID,
		Usernames:        []string{"@brand_a", "BRAND_B", "brand_a", "nobody"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, granted)

	for _, target := range []string{"ig_1", "ig_2"} {
		_, err := h.prompts.AuthorizePrompt(ctx, target, tmpl.ID)
		assert.NoError(t, err, target)
	}
	_, err = h.prompts.AuthorizePrompt(ctx, "ig_3", tmpl.ID)
	assert.Equal(t, KindAuthorization, KindOf(err))

	_, err = h.prompts.GrantPrompt(ctx, testAdmin, &dto.GrantPromptRequest{
		PromptTemplateID: tmpl.ID,
		Usernames:        []string{"nobody"},
	})
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestGrantPrompt_Errors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	archived, err := h.prompts.CreateTemplate(ctx, testAdmin, &dto.PromptTemplateRequest{Name: "n", ProductName: "p", PromptBody: "b"})
	require.NoError(t, err)
	require.NoError(t, h.prompts.ArchiveTemplate(ctx, testAdmin, archived.ID))

	tests := []struct {
		name string
		req  dto.GrantPromptRequest
		want ErrorKind
	}{
		{"both target kinds", dto.GrantPromptRequest{PromptTemplateID: archived.ID, IGUserIDs: []string{"a"}, Usernames: []string{"b"}}, KindValidation},
		{"no targets", dto.GrantPromptRequest{PromptTemplateID: archived.ID}, KindValidation},
		{"unknown template", dto.GrantPromptRequest{PromptTemplateID: "missing", IGUserIDs: []string{"a"}}, KindNotFound},
		{"archived template", dto.GrantPromptRequest{PromptTemplateID: archived.ID, IGUserIDs: []string{"a"}}, KindConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.prompts.GrantPrompt(ctx, testAdmin, &tt.req)
			assert.Equal(t, tt.want, KindOf(err))
		})
	}
}

func TestArchivedTemplateIsNotAvailable(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tmpl := h.assignedPrompt(t, "ig_123", "세럼", "p")
	require.NoError(t, h.prompts.ArchiveTemplate(ctx, testAdmin, tmpl.ID))

	available, err := h.prompts.AvailablePrompts(ctx, "ig_123")
	require.NoError(t, err)
	assert.Empty(t, available)
}

func TestSuggestUsernames(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		h.link(t, testOperator, fmt.Sprintf("ig_%d", i), fmt.Sprintf("brand_%d", i))
	}
	h.link(t, testOperator, "ig_x", "other")

	short, err := h.prompts.SuggestUsernames(ctx, "@b")
	require.NoError(t, err)
	assert.NotNil(t, short)
	assert.Empty(t, short)

	suggestions, err := h.prompts.SuggestUsernames(ctx, " @BR")
	require.NoError(t, err)
	require.Len(t, suggestions, 8)
	assert.Equal(t, "brand_0", suggestions[0].Username)
}

func TestGenerateTemplate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	req := &dto.GeneratePromptRequest{
		Name:        "serum",
		ProductName: "비타민C 세럼",
		ProductInfo: "피부톤 개선",
	}

	_, err := h.prompts.GenerateTemplate(ctx, testAdmin, req)
	assert.Equal(t, KindConfiguration, KindOf(err))

	writer := &stubWriter{body: "너는 세럼 브랜드 담당자야."}
	prompts := NewPromptService(h.templates, h.assignments, h.accountRepo, writer, nil, nil)

	tmpl, err := prompts.GenerateTemplate(ctx, testAdmin, req)
	require.NoError(t, err)
	assert.Equal(t, "너는 세럼 브랜드 담당자야.", tmpl.PromptBody)
	assert.Equal(t, "비타민C 세럼", writer.in.ProductName)

	stored, err := h.templates.GetByID(ctx, tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, testAdmin, stored.UpdatedByAdminID)

	_, err = prompts.GenerateTemplate(ctx, testAdmin, &dto.GeneratePromptRequest{Name: "n"})
	assert.Equal(t, KindValidation, KindOf(err))

	writer.err = errUpstream
	_, err = prompts.GenerateTemplate(ctx, testAdmin, req)
	assert.Equal(t, KindExternalService, KindOf(err))
}
