package usecase

// Idempotence filters redelivered transport updates; an update id is
// handled the first time it is seen and skipped afterwards.
type Idempotence struct {
	repo idempotenceRepository
}

func NewIdempotence(repo idempotenceRepository) *Idempotence {
	return &Idempotence{
		repo: repo,
	}
}

func (u *Idempotence) Execute(id string) (bool, error) {
	return u.repo.MakeRecord(id)
}
