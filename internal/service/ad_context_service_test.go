package service

import (
	"context"
	"testing"

	"github.com/prperemyshlev/reply-assistant/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdContextService(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	req := &dto.AdContextRequest{
		TargetIGUserID:   " ig_123 ",
		ProductName:      "비타민C 세럼",
		USPText:          "피부톤 개선",
		SalesLink:        "https://shop.example.com/serum",
		DiscountCode:     "WELCOME",
		RequiredKeywords: []string{" 저자극 ", ""},
		ToneNotes:        "친근하게",
	}
	ac, err := h.adContextSvc.Create(ctx, testAdmin, req)
	require.NoError(t, err)
	assert.Equal(t, "ig_123", ac.TargetIGUserID)
	assert.Equal(t, []string{"저자극"}, ac.RequiredKeywords)
	assert.Equal(t, []string{}, ac.BannedKeywords)
	assert.Equal(t, testAdmin, ac.UpdatedByAdminID)

	req.DiscountCode = "SAVE10"
	updated, err := h.adContextSvc.Update(ctx, "admin-2", ac.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", updated.DiscountCode)
	assert.Equal(t, "admin-2", updated.UpdatedByAdminID)

	_, err = h.adContextSvc.Update(ctx, testAdmin, "missing", req)
	assert.Equal(t, KindNotFound, KindOf(err))

	list, err := h.adContextSvc.List(ctx, "ig_123")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = h.adContextSvc.List(ctx, "ig_other")
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, h.adContextSvc.Delete(ctx, ac.ID))
	assert.Equal(t, KindNotFound, KindOf(h.adContextSvc.Delete(ctx, ac.ID)))
}

func TestAdContextService_Validation(t *testing.T) {
	h := newHarness(t)

	valid := func() dto.AdContextRequest {
		return dto.AdContextRequest{
			TargetIGUserID: "ig",
			ProductName:    "p",
			USPText:        "u",
			SalesLink:      "https://x.io",
			DiscountCode:   "SAVE10",
			ToneNotes:      "친근하게",
		}
	}

	tests := []struct {
		name   string
		mutate func(r *dto.AdContextRequest)
	}{
		{"missing target", func(r *dto.AdContextRequest) { r.TargetIGUserID = "" }},
		{"missing product", func(r *dto.AdContextRequest) { r.ProductName = "" }},
		{"missing usp", func(r *dto.AdContextRequest) { r.USPText = "" }},
		{"missing discount code", func(r *dto.AdContextRequest) { r.DiscountCode = "" }},
		{"blank discount code", func(r *dto.AdContextRequest) { r.DiscountCode = "   " }},
		{"missing tone notes", func(r *dto.AdContextRequest) { r.ToneNotes = "" }},
		{"blank tone notes", func(r *dto.AdContextRequest) { r.ToneNotes = "\t " }},
		{"relative link", func(r *dto.AdContextRequest) { r.SalesLink = "/shop" }},
		{"bad scheme", func(r *dto.AdContextRequest) { r.SalesLink = "ftp://x.io" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(&req)
			_, err := h.adContextSvc.Create(context.Background(), testAdmin, &req)
			assert.Equal(t, KindValidation, KindOf(err))
		})
	}
	assert.Empty(t, h.adContexts.items)
}
