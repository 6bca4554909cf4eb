package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prperemyshlev/reply-assistant/internal/domain"
	"github.com/prperemyshlev/reply-assistant/internal/instagram"
	"github.com/prperemyshlev/reply-assistant/internal/repository"
)

// clock hands out strictly increasing timestamps so recency ordering is deterministic
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *clock) next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type fakeAccountRepo struct {
	mu       sync.Mutex
	clock    *clock
	accounts map[string]*domain.InstagramAccount
}

func newFakeAccountRepo(c *clock) *fakeAccountRepo {
	return &fakeAccountRepo{clock: c, accounts: map[string]*domain.InstagramAccount{}}
}

func (r *fakeAccountRepo) ListByOperator(_ context.Context, operatorID string) ([]domain.InstagramAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []domain.InstagramAccount{}
	for _, a := range r.accounts {
		if a.OperatorID == operatorID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *fakeAccountRepo) GetByIGUserID(_ context.Context, igUserID string) (*domain.InstagramAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[igUserID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (r *fakeAccountRepo) Upsert(_ context.Context, account *domain.InstagramAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account.UpdatedAt = r.clock.next()
	if existing, ok := r.accounts[account.IGUserID]; ok {
		account.ID = existing.ID
		account.CreatedAt = existing.CreatedAt
		account.IsActive = existing.IsActive && existing.OperatorID == account.OperatorID
	} else {
		account.ID = uuid.New().String()
		account.CreatedAt = account.UpdatedAt
		account.IsActive = false
	}
	copied := *account
	r.accounts[account.IGUserID] = &copied
	return nil
}

func (r *fakeAccountRepo) SetActive(_ context.Context, operatorID, igUserID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	target, ok := r.accounts[igUserID]
	if !ok || target.OperatorID != operatorID {
		return repository.ErrNotFound
	}
	for _, a := range r.accounts {
		if a.OperatorID == operatorID {
			a.IsActive = a.IGUserID == igUserID
		}
	}
	return nil
}

func (r *fakeAccountRepo) FindByUsernames(_ context.Context, usernames []string) ([]domain.InstagramAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wanted := map[string]bool{}
	for _, u := range usernames {
		wanted[u] = true
	}
	out := []domain.InstagramAccount{}
	for _, a := range r.accounts {
		if wanted[strings.ToLower(a.Username)] {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r *fakeAccountRepo) SuggestUsernames(_ context.Context, prefix string, limit int) ([]domain.AccountSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []domain.AccountSummary{}
	for _, a := range r.accounts {
		if strings.HasPrefix(strings.ToLower(a.Username), prefix) {
			out = append(out, a.Summary())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeAdContextRepo struct {
	mu    sync.Mutex
	clock *clock
	items map[string]*domain.AdContext
}

func newFakeAdContextRepo(c *clock) *fakeAdContextRepo {
	return &fakeAdContextRepo{clock: c, items: map[string]*domain.AdContext{}}
}

func (r *fakeAdContextRepo) Create(_ context.Context, ac *domain.AdContext) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ac.ID = uuid.New().String()
	ac.CreatedAt = r.clock.next()
	ac.UpdatedAt = ac.CreatedAt
	copied := *ac
	r.items[ac.ID] = &copied
	return nil
}

func (r *fakeAdContextRepo) Update(_ context.Context, ac *domain.AdContext) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[ac.ID]
	if !ok {
		return repository.ErrNotFound
	}
	ac.CreatedAt = existing.CreatedAt
	ac.UpdatedAt = r.clock.next()
	copied := *ac
	r.items[ac.ID] = &copied
	return nil
}

func (r *fakeAdContextRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *fakeAdContextRepo) GetByID(_ context.Context, id string) (*domain.AdContext, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ac, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *ac
	return &copied, nil
}

func (r *fakeAdContextRepo) List(_ context.Context, filter repository.AdContextFilter) ([]domain.AdContext, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []domain.AdContext{}
	for _, ac := range r.items {
		if filter.TargetIGUserID == "" || ac.TargetIGUserID == filter.TargetIGUserID {
			out = append(out, *ac)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *fakeAdContextRepo) Latest(ctx context.Context, target, productName string) (*domain.AdContext, error) {
	all, _ := r.List(ctx, repository.AdContextFilter{TargetIGUserID: target})
	for _, ac := range all {
		if productName != "" && ac.ProductName == productName {
			return &ac, nil
		}
	}
	if len(all) == 0 {
		return nil, repository.ErrNotFound
	}
	return &all[0], nil
}

type fakeTemplateRepo struct {
	mu    sync.Mutex
	clock *clock
	items map[string]*domain.PromptTemplate
}

func newFakeTemplateRepo(c *clock) *fakeTemplateRepo {
	return &fakeTemplateRepo{clock: c, items: map[string]*domain.PromptTemplate{}}
}

func (r *fakeTemplateRepo) Create(_ context.Context, t *domain.PromptTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t.ID = uuid.New().String()
	if t.Status == "" {
		t.Status = domain.TemplateActive
	}
	t.CreatedAt = r.clock.next()
	t.UpdatedAt = t.CreatedAt
	copied := *t
	r.items[t.ID] = &copied
	return nil
}

func (r *fakeTemplateRepo) Update(_ context.Context, t *domain.PromptTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[t.ID]
	if !ok {
		return repository.ErrNotFound
	}
	t.Status = existing.Status
	t.CreatedAt = existing.CreatedAt
	t.UpdatedAt = r.clock.next()
	copied := *t
	r.items[t.ID] = &copied
	return nil
}

func (r *fakeTemplateRepo) GetByID(_ context.Context, id string) (*domain.PromptTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTemplateRepo) List(_ context.Context, includeArchived bool) ([]domain.PromptTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []domain.PromptTemplate{}
	for _, t := range r.items {
		if includeArchived || t.IsActive() {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *fakeTemplateRepo) Archive(_ context.Context, id, adminID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	t.Status = domain.TemplateArchived
	t.ArchivedAt = &at
	t.ArchivedByAdminID = &adminID
	return nil
}

type fakeAssignmentRepo struct {
	mu        sync.Mutex
	clock     *clock
	templates *fakeTemplateRepo
	items     map[string]*domain.PromptAssignment
}

func newFakeAssignmentRepo(c *clock, templates *fakeTemplateRepo) *fakeAssignmentRepo {
	return &fakeAssignmentRepo{clock: c, templates: templates, items: map[string]*domain.PromptAssignment{}}
}

func (r *fakeAssignmentRepo) Grant(ctx context.Context, targets []string, templateID, adminID string) (int, error) {
	if _, err := r.templates.GetByID(ctx, templateID); err != nil {
		return 0, repository.ErrInvalidReference
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, target := range targets {
		now := r.clock.next()
		var existing *domain.PromptAssignment
		for _, a := range r.items {
			if a.TargetIGUserID == target && a.PromptTemplateID == templateID {
				existing = a
			}
		}
		if existing != nil {
			existing.Status = domain.AssignmentActive
			existing.GrantedByAdminID = adminID
			existing.RevokedAt = nil
			existing.RevokedByAdminID = nil
			existing.UpdatedAt = now
			continue
		}
		a := &domain.PromptAssignment{
			ID:               uuid.New().String(),
			TargetIGUserID:   target,
			PromptTemplateID: templateID,
			GrantedByAdminID: adminID,
			Status:           domain.AssignmentActive,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		r.items[a.ID] = a
	}
	return len(targets), nil
}

func (r *fakeAssignmentRepo) Revoke(_ context.Context, id, adminID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.Status = domain.AssignmentRevoked
	a.RevokedAt = &at
	a.RevokedByAdminID = &adminID
	return nil
}

func (r *fakeAssignmentRepo) List(_ context.Context, filter repository.AssignmentFilter) ([]domain.PromptAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []domain.PromptAssignment{}
	for _, a := range r.items {
		if filter.TargetIGUserID != "" && a.TargetIGUserID != filter.TargetIGUserID {
			continue
		}
		if filter.PromptTemplateID != "" && a.PromptTemplateID != filter.PromptTemplateID {
			continue
		}
		if !filter.IncludeRevoked && !a.IsActive() {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *fakeAssignmentRepo) ListAvailable(ctx context.Context, target string) ([]domain.AssignedPrompt, error) {
	assignments, _ := r.List(ctx, repository.AssignmentFilter{TargetIGUserID: target})

	out := []domain.AssignedPrompt{}
	for _, a := range assignments {
		t, err := r.templates.GetByID(ctx, a.PromptTemplateID)
		if err != nil || !t.IsActive() {
			continue
		}
		out = append(out, domain.AssignedPrompt{Template: *t, Assignment: a})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Template.UpdatedAt.After(out[j].Template.UpdatedAt) })
	return out, nil
}

type fakeDraftRepo struct {
	mu    sync.Mutex
	clock *clock
	items map[string]*domain.ReplyDraft
}

func newFakeDraftRepo(c *clock) *fakeDraftRepo {
	return &fakeDraftRepo{clock: c, items: map[string]*domain.ReplyDraft{}}
}

func (r *fakeDraftRepo) Create(_ context.Context, d *domain.ReplyDraft) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d.ID = uuid.New().String()
	d.CreatedAt = r.clock.next()
	d.UpdatedAt = d.CreatedAt
	copied := *d
	r.items[d.ID] = &copied
	return nil
}

func (r *fakeDraftRepo) GetByID(_ context.Context, id string) (*domain.ReplyDraft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *d
	return &copied, nil
}

func (r *fakeDraftRepo) MarkPublished(_ context.Context, id, replyCommentID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	d.Status = domain.DraftStatusPublished
	d.PublishedReplyCommentID = &replyCommentID
	d.PublishedAt = &at
	d.ErrorMessage = nil
	return nil
}

func (r *fakeDraftRepo) MarkFailed(_ context.Context, id, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	d.ErrorMessage = &message
	return nil
}

func (r *fakeDraftRepo) ListByTarget(_ context.Context, target string, limit int) ([]domain.ReplyDraft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []domain.ReplyDraft{}
	for _, d := range r.items {
		if d.TargetIGUserID == target {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// fakeInstagram records calls and returns canned responses
type fakeInstagram struct {
	mu         sync.Mutex
	token       *instagram.AccessToken
	profile     *instagram.Profile
	posts       []instagram.Post
	comments    []instagram.Comment
	replyID     string
	publishErr  error
	exchangeErr error

	lastToken   string
	lastMessage string
	exchanges   int
}

func (f *fakeInstagram) AuthURL(state string) string {
	return "https://www.facebook.com/v23.0/dialog/oauth?state=" + state
}

func (f *fakeInstagram) ExchangeCode(_ context.Context, _ string) (*instagram.AccessToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exchanges++
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return f.token, nil
}

func (f *fakeInstagram) FetchProfile(_ context.Context, accessToken string) (*instagram.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastToken = accessToken
	return f.profile, nil
}

func (f *fakeInstagram) ListPosts(_ context.Context, _, accessToken string) ([]instagram.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastToken = accessToken
	return f.posts, nil
}

func (f *fakeInstagram) ListComments(_ context.Context, _, accessToken string) ([]instagram.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastToken = accessToken
	return f.comments, nil
}

func (f *fakeInstagram) PublishReply(_ context.Context, _, message, accessToken string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastToken = accessToken
	f.lastMessage = message
	if f.publishErr != nil {
		return "", f.publishErr
	}
	return f.replyID, nil
}

type memoryNonceStore struct {
	mu   sync.Mutex
	used map[string]time.Duration
}

func newMemoryNonceStore() *memoryNonceStore {
	return &memoryNonceStore{used: map[string]time.Duration{}}
}

func (m *memoryNonceStore) Consume(_ context.Context, nonce string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.used[nonce]; ok {
		return false, nil
	}
	m.used[nonce] = ttl
	return true, nil
}

// stubGenerator is an LLM that returns a fixed completion
type stubGenerator struct {
	mu    sync.Mutex
	text  string
	err   error
	calls int
}

func (s *stubGenerator) Generate(_ context.Context, _, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.text, s.err
}

var errUpstream = errors.New("upstream status 500")
