package repository

import (
	"github.com/prperemyshlev/reply-assistant/pkg/database"
)

// Repositories holds all repository interfaces
type Repositories struct {
	Account          AccountRepository
	AdContext        AdContextRepository
	PromptTemplate   PromptTemplateRepository
	PromptAssignment PromptAssignmentRepository
	Draft            DraftRepository
}

// NewRepositories creates all repositories
func NewRepositories(db *database.Postgres) *Repositories {
	return &Repositories{
		Account:          NewAccountRepository(db),
		AdContext:        NewAdContextRepository(db),
		PromptTemplate:   NewPromptTemplateRepository(db),
		PromptAssignment: NewPromptAssignmentRepository(db),
		Draft:            NewDraftRepository(db),
	}
}
