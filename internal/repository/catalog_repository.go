package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/stemsi/etesthub-backend/internal/model"
	"github.com/stemsi/etesthub-backend/internal/remote"
)

// CatalogRepository reads exam and question reference data.
type CatalogRepository struct {
	client *remote.Client
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(client *remote.Client) *CatalogRepository {
	return &CatalogRepository{client: client}
}

// GetExam retrieves an exam by id.
func (r *CatalogRepository) GetExam(ctx context.Context, cred model.Credential, id string) (*model.Exam, error) {
	exam, err := r.client.GetExam(ctx, cred, id)
	return exam, fromRemote(err)
}

// questionFetchers bounds concurrent question requests per call.
const questionFetchers = 8

// GetQuestions retrieves questions by id, keyed by id. Missing questions are
// skipped. Requests run in parallel; the first failure is returned.
func (r *CatalogRepository) GetQuestions(ctx context.Context, cred model.Credential, ids []string) (map[string]*model.Question, error) {
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
		out      = make(map[string]*model.Question, len(ids))
		sem      = make(chan struct{}, questionFetchers)
	)

	for _, id := range ids {
		wg.Add(1)
		sem <- struct{}{}
		go func(id string) {
			defer func() {
				<-sem
				wg.Done()
			}()

			q, err := r.client.GetQuestion(ctx, cred, id)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				out[id] = q
			case fromRemote(err) == ErrNotFound:
			case firstErr == nil:
				firstErr = fmt.Errorf("get question %s: %w", id, err)
			}
		}(id)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}
