package repositories

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories groups all repository instances
type Repositories struct {
	StudentRepository   *StudentRepository
	CatalogRepository   *CatalogRepository
	ChoiceRepository    *ChoiceRepository
	AllotmentRepository *AllotmentRepository
	RoundRepository     *RoundRepository
}

// NewRepositories creates all repositories sharing one pool
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		StudentRepository:   NewStudentRepository(db),
		CatalogRepository:   NewCatalogRepository(db),
		ChoiceRepository:    NewChoiceRepository(db),
		AllotmentRepository: NewAllotmentRepository(db),
		RoundRepository:     NewRoundRepository(db),
	}
}
