package app

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// FetchLimiter plafonne le nombre de requêtes simultanées vers l'API du guide,
// toutes stations confondues (la commande refresh les lance en parallèle).
type FetchLimiter struct {
	limit int
	sem   *semaphore.Weighted
}

func NewFetchLimiter(limit int) *FetchLimiter {
	if limit <= 0 {
		limit = 1
	}
	return &FetchLimiter{limit: limit, sem: semaphore.NewWeighted(int64(limit))}
}

func (l *FetchLimiter) Limit() int { return l.limit }

// Acquire respecte le contexte: l'attente compte dans le timeout du fetch.
func (l *FetchLimiter) Acquire(ctx context.Context) error {
	return l.sem.Acquire(ctx, 1)
}

func (l *FetchLimiter) Release() {
	l.sem.Release(1)
}
