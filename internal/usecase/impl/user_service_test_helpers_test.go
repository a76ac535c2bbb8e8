package impl

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"identity/internal/domain/repository"
	mockRepo "identity/internal/mocks/repository"

	"github.com/stretchr/testify/mock"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// expectTx makes the transaction manager run fn against a factory that hands
// out txUserRepo, and return whatever fn returned.
func expectTx(t *testing.T, txManager *mockRepo.MockTransactionManager, txUserRepo repository.UserRepository) {
	t.Helper()

	txManager.EXPECT().
		Execute(mock.Anything, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(_ context.Context, fn func(repository.RepositoryFactory) error) error {
			factory := mockRepo.NewMockRepositoryFactory(t)
			factory.EXPECT().UserRepo().Return(txUserRepo)

			return fn(factory)
		})
}
