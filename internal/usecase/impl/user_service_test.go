package impl

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"identity/config"
	"identity/internal/domain/entity"
	domainerrors "identity/internal/domain/errors"
	"identity/internal/domain/repository"
	"identity/internal/domain/service"
	"identity/internal/infra/auth"
	mockRepo "identity/internal/mocks/repository"
	mockSvc "identity/internal/mocks/service"
	"identity/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// userServiceFixtures holds all test dependencies for user service tests.
type userServiceFixtures struct {
	service      usecase.UserUsecase
	txManager    *mockRepo.MockTransactionManager
	userRepo     *mockRepo.MockUserRepository
	hasher       *mockSvc.MockPasswordHasher
	tokenService *mockSvc.MockTokenService
	logs         *bytes.Buffer
}

func createTestUserService(t *testing.T) userServiceFixtures {
	txManager := mockRepo.NewMockTransactionManager(t)
	userRepo := mockRepo.NewMockUserRepository(t)
	hasher := mockSvc.NewMockPasswordHasher(t)
	tokenService := mockSvc.NewMockTokenService(t)
	logs := &bytes.Buffer{}

	svc := NewUserService(UserServiceParams{
		TxManager:    txManager,
		UserRepo:     userRepo,
		Hasher:       hasher,
		TokenService: tokenService,
		Logger:       slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
	})

	return userServiceFixtures{
		service:      svc,
		txManager:    txManager,
		userRepo:     userRepo,
		hasher:       hasher,
		tokenService: tokenService,
		logs:         logs,
	}
}

func TestUserService_Register_Success(t *testing.T) {
	f := createTestUserService(t)
	ctx := context.Background()
	input := usecase.RegisterInput{Email: " Alice@Example.com", Password: "Password123!"}

	f.userRepo.EXPECT().FindByEmail(ctx, "alice@example.com").Return(nil, repository.ErrUserNotFound)
	f.hasher.EXPECT().ValidatePasswordStrength(input.Password).Return(nil)
	f.hasher.EXPECT().Hash(ctx, input.Password).Return("hashed_password", nil)

	txUserRepo := mockRepo.NewMockUserRepository(t)
	txUserRepo.EXPECT().FindByEmail(ctx, "alice@example.com").Return(nil, repository.ErrUserNotFound)
	id := uuid.New()
	txUserRepo.EXPECT().
		Create(ctx, mock.AnythingOfType("*entity.User")).
		Run(func(_ context.Context, user *entity.User) {
			assert.Equal(t, "alice@example.com", user.Email)
			assert.Equal(t, "alice", user.Username)
			assert.Equal(t, "hashed_password", user.PasswordHash)
			user.ID = id
		}).
		Return(nil)
	expectTx(t, f.txManager, txUserRepo)

	f.tokenService.EXPECT().Issue(id.String()).Return("signed.jwt.token", nil)

	out, err := f.service.Register(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "signed.jwt.token", out.Token)
	assert.Equal(t, id, out.User.ID)
	assert.Equal(t, "alice", out.User.Username)
	assert.Contains(t, f.logs.String(), "Registration completed")
	assert.Contains(t, f.logs.String(), id.String())
	assert.NotContains(t, f.logs.String(), "alice@example.com")
}

func TestUserService_Register_KeepsExplicitUsername(t *testing.T) {
	f := createTestUserService(t)
	ctx := context.Background()
	input := usecase.RegisterInput{Email: "bob@example.com", Password: "pw", Username: "Bobby"}

	f.userRepo.EXPECT().FindByEmail(ctx, input.Email).Return(nil, repository.ErrUserNotFound)
	f.hasher.EXPECT().ValidatePasswordStrength(input.Password).Return(nil)
	f.hasher.EXPECT().Hash(ctx, input.Password).Return("h", nil)

	txUserRepo := mockRepo.NewMockUserRepository(t)
	txUserRepo.EXPECT().FindByEmail(ctx, input.Email).Return(nil, repository.ErrUserNotFound)
	txUserRepo.EXPECT().Create(ctx, mock.MatchedBy(func(u *entity.User) bool {
		return u.Username == "Bobby"
	})).Run(func(_ context.Context, u *entity.User) { u.ID = uuid.New() }).Return(nil)
	expectTx(t, f.txManager, txUserRepo)

	f.tokenService.EXPECT().Issue(mock.Anything).Return("tok", nil)

	out, err := f.service.Register(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "Bobby", out.User.Username)
}

func TestUserService_Register_DuplicateEmail(t *testing.T) {
	f := createTestUserService(t)
	ctx := context.Background()

	f.userRepo.EXPECT().FindByEmail(ctx, "taken@example.com").Return(&entity.User{ID: uuid.New()}, nil)

	out, err := f.service.Register(ctx, usecase.RegisterInput{Email: "taken@example.com", Password: "pw"})
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, domainerrors.ErrUserAlreadyExists))
}

func TestUserService_Register_DuplicateDetectedInTransaction(t *testing.T) {
	f := createTestUserService(t)
	ctx := context.Background()
	input := usecase.RegisterInput{Email: "race@example.com", Password: "pw"}

	f.userRepo.EXPECT().FindByEmail(ctx, input.Email).Return(nil, repository.ErrUserNotFound)
	f.hasher.EXPECT().ValidatePasswordStrength(input.Password).Return(nil)
	f.hasher.EXPECT().Hash(ctx, input.Password).Return("h", nil)

	txUserRepo := mockRepo.NewMockUserRepository(t)
	txUserRepo.EXPECT().FindByEmail(ctx, input.Email).Return(nil, repository.ErrUserNotFound)
	txUserRepo.EXPECT().Create(ctx, mock.Anything).
		Return(domainerrors.ErrUserAlreadyExists.WrapMessage("email already exists"))
	expectTx(t, f.txManager, txUserRepo)

	out, err := f.service.Register(ctx, input)
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, domainerrors.ErrUserAlreadyExists))
}

func TestUserService_Register_TransactionFailure(t *testing.T) {
	f := createTestUserService(t)
	ctx := context.Background()
	input := usecase.RegisterInput{Email: "tx@example.com", Password: "pw"}

	f.userRepo.EXPECT().FindByEmail(ctx, input.Email).Return(nil, repository.ErrUserNotFound)
	f.hasher.EXPECT().ValidatePasswordStrength(input.Password).Return(nil)
	f.hasher.EXPECT().Hash(ctx, input.Password).Return("h", nil)

	txUserRepo := mockRepo.NewMockUserRepository(t)
	txUserRepo.EXPECT().FindByEmail(ctx, input.Email).Return(nil, repository.ErrUserNotFound)
	txUserRepo.EXPECT().Create(ctx, mock.Anything).
		Return(domainerrors.NewDatabaseExecuteError(errors.New("connection reset"), "failed to create user"))
	expectTx(t, f.txManager, txUserRepo)

	out, err := f.service.Register(ctx, input)
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, domainerrors.ErrTransactionFailed))
	assert.NotContains(t, err.Error(), "connection reset")
	f.tokenService.AssertNotCalled(t, "Issue", mock.Anything)
}

func TestUserService_Register_WeakPassword(t *testing.T) {
	f := createTestUserService(t)
	ctx := context.Background()

	f.userRepo.EXPECT().FindByEmail(ctx, "a@example.com").Return(nil, repository.ErrUserNotFound)
	f.hasher.EXPECT().ValidatePasswordStrength("").
		Return(domainerrors.ErrPasswordStrength.WithDetails("password must not be empty"))

	out, err := f.service.Register(ctx, usecase.RegisterInput{Email: "a@example.com"})
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, domainerrors.ErrPasswordStrength))
}

func TestUserService_Register_EmptyEmail(t *testing.T) {
	f := createTestUserService(t)

	out, err := f.service.Register(context.Background(), usecase.RegisterInput{Email: "   ", Password: "pw"})
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, domainerrors.ErrValidationFailed))
}

func TestUserService_Register_HashFailure(t *testing.T) {
	f := createTestUserService(t)
	ctx := context.Background()

	f.userRepo.EXPECT().FindByEmail(ctx, "a@example.com").Return(nil, repository.ErrUserNotFound)
	f.hasher.EXPECT().ValidatePasswordStrength("pw").Return(nil)
	f.hasher.EXPECT().Hash(ctx, "pw").Return("", errors.New("pool closed"))

	out, err := f.service.Register(ctx, usecase.RegisterInput{Email: "a@example.com", Password: "pw"})
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, domainerrors.ErrPasswordHashFailed))
}

func TestUserService_Register_LookupFailure(t *testing.T) {
	f := createTestUserService(t)
	ctx := context.Background()

	f.userRepo.EXPECT().FindByEmail(ctx, "a@example.com").Return(nil, errors.New("db down"))

	out, err := f.service.Register(ctx, usecase.RegisterInput{Email: "a@example.com", Password: "pw"})
	assert.Nil(t, out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	assert.False(t, errors.Is(err, domainerrors.ErrUserAlreadyExists))
}

func TestUserService_Register_TokenFailure(t *testing.T) {
	f := createTestUserService(t)
	ctx := context.Background()

	f.userRepo.EXPECT().FindByEmail(ctx, "a@example.com").Return(nil, repository.ErrUserNotFound)
	f.hasher.EXPECT().ValidatePasswordStrength("pw").Return(nil)
	f.hasher.EXPECT().Hash(ctx, "pw").Return("h", nil)

	txUserRepo := mockRepo.NewMockUserRepository(t)
	txUserRepo.EXPECT().FindByEmail(ctx, "a@example.com").Return(nil, repository.ErrUserNotFound)
	txUserRepo.EXPECT().Create(ctx, mock.Anything).
		Run(func(_ context.Context, u *entity.User) { u.ID = uuid.New() }).Return(nil)
	expectTx(t, f.txManager, txUserRepo)

	f.tokenService.EXPECT().Issue(mock.Anything).Return("", errors.New("sign failed"))

	out, err := f.service.Register(ctx, usecase.RegisterInput{Email: "a@example.com", Password: "pw"})
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, domainerrors.ErrTokenIssueFailed))
}

func TestUserService_Login_Success(t *testing.T) {
	f := createTestUserService(t)
	ctx := context.Background()
	user := &entity.User{ID: uuid.New(), Email: "a@example.com", Username: "a", PasswordHash: "h"}

	f.userRepo.EXPECT().FindByEmail(ctx, "a@example.com").Return(user, nil)
	f.hasher.EXPECT().Verify(ctx, "pw", "h").Return(true)
	f.tokenService.EXPECT().Issue(user.ID.String()).Return("tok", nil)

	out, err := f.service.Login(ctx, usecase.LoginInput{Email: "A@example.com ", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "tok", out.Token)
	assert.Same(t, user, out.User)
}

func TestUserService_Login_WrongPassword(t *testing.T) {
	f := createTestUserService(t)
	ctx := context.Background()
	user := &entity.User{ID: uuid.New(), Email: "a@example.com", PasswordHash: "h"}

	f.userRepo.EXPECT().FindByEmail(ctx, "a@example.com").Return(user, nil)
	f.hasher.EXPECT().Verify(ctx, "wrong", "h").Return(false)

	out, err := f.service.Login(ctx, usecase.LoginInput{Email: "a@example.com", Password: "wrong"})
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, domainerrors.ErrInvalidCredentials))
	f.tokenService.AssertNotCalled(t, "Issue", mock.Anything)
}

func TestUserService_Login_UnknownEmail(t *testing.T) {
	f := createTestUserService(t)
	ctx := context.Background()

	f.userRepo.EXPECT().FindByEmail(ctx, "ghost@example.com").Return(nil, repository.ErrUserNotFound)
	f.hasher.EXPECT().Verify(ctx, "pw", "").Return(false).Once()

	out, err := f.service.Login(ctx, usecase.LoginInput{Email: "ghost@example.com", Password: "pw"})
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, domainerrors.ErrInvalidCredentials))
	f.tokenService.AssertNotCalled(t, "Issue", mock.Anything)
	assert.NotContains(t, f.logs.String(), "ghost@example.com")
}

func TestUserService_Login_LookupFailure(t *testing.T) {
	f := createTestUserService(t)
	ctx := context.Background()

	f.userRepo.EXPECT().FindByEmail(ctx, "a@example.com").Return(nil, errors.New("db down"))

	out, err := f.service.Login(ctx, usecase.LoginInput{Email: "a@example.com", Password: "pw"})
	assert.Nil(t, out)
	require.Error(t, err)
	assert.False(t, errors.Is(err, domainerrors.ErrInvalidCredentials))
}

func TestUserService_Authenticate(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	user := &entity.User{ID: id, Email: "a@example.com"}

	t.Run("valid token", func(t *testing.T) {
		f := createTestUserService(t)
		f.tokenService.EXPECT().Validate("tok").Return(&service.Claims{Subject: id.String()}, nil)
		f.userRepo.EXPECT().FindByID(ctx, id).Return(user, nil)

		got, err := f.service.Authenticate(ctx, "tok")
		require.NoError(t, err)
		assert.Same(t, user, got)
	})

	t.Run("invalid token", func(t *testing.T) {
		f := createTestUserService(t)
		f.tokenService.EXPECT().Validate("bad").
			Return(nil, &service.InvalidTokenError{Reason: service.ReasonSignature})

		got, err := f.service.Authenticate(ctx, "bad")
		assert.Nil(t, got)
		assert.True(t, errors.Is(err, domainerrors.ErrUnauthorized))
	})

	t.Run("subject is not a user id", func(t *testing.T) {
		f := createTestUserService(t)
		f.tokenService.EXPECT().Validate("tok").Return(&service.Claims{Subject: "not-a-uuid"}, nil)

		got, err := f.service.Authenticate(ctx, "tok")
		assert.Nil(t, got)
		assert.True(t, errors.Is(err, domainerrors.ErrUnauthorized))
	})

	t.Run("user deleted", func(t *testing.T) {
		f := createTestUserService(t)
		f.tokenService.EXPECT().Validate("tok").Return(&service.Claims{Subject: id.String()}, nil)
		f.userRepo.EXPECT().FindByID(ctx, id).Return(nil, repository.ErrUserNotFound)

		got, err := f.service.Authenticate(ctx, "tok")
		assert.Nil(t, got)
		assert.True(t, errors.Is(err, domainerrors.ErrUnauthorized))
	})
}

// TestUserService_RealCrypto runs register and login through the real bcrypt
// hasher and JWT service, with only storage mocked.
func TestUserService_RealCrypto(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		Secret: config.SecretConfig{Key: "integration_secret_key"},
		Token:  &config.TokenConfig{TTL: time.Hour},
	}
	tokens, err := auth.NewJWTService(cfg)
	require.NoError(t, err)
	hasher := auth.NewBcryptHasherWithCost(4)

	userRepo := mockRepo.NewMockUserRepository(t)
	txManager := mockRepo.NewMockTransactionManager(t)
	svc := NewUserService(UserServiceParams{
		TxManager:    txManager,
		UserRepo:     userRepo,
		Hasher:       hasher,
		TokenService: tokens,
		Logger:       newDiscardLogger(),
	})

	var stored *entity.User
	userRepo.EXPECT().FindByEmail(ctx, "carol@example.com").
		RunAndReturn(func(context.Context, string) (*entity.User, error) {
			if stored == nil {
				return nil, repository.ErrUserNotFound
			}

			return stored, nil
		})

	txUserRepo := mockRepo.NewMockUserRepository(t)
	txUserRepo.EXPECT().FindByEmail(ctx, "carol@example.com").Return(nil, repository.ErrUserNotFound)
	txUserRepo.EXPECT().Create(ctx, mock.Anything).
		Run(func(_ context.Context, u *entity.User) {
			u.ID = uuid.Must(uuid.NewV7())
			stored = u
		}).Return(nil)
	expectTx(t, txManager, txUserRepo)

	registered, err := svc.Register(ctx, usecase.RegisterInput{Email: "carol@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", stored.PasswordHash)

	claims, err := tokens.Validate(registered.Token)
	require.NoError(t, err)
	assert.Equal(t, stored.ID.String(), claims.Subject)
	assert.True(t, claims.ExpiresAt.After(claims.IssuedAt))

	loggedIn, err := svc.Login(ctx, usecase.LoginInput{Email: "carol@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	claims, err = tokens.Validate(loggedIn.Token)
	require.NoError(t, err)
	assert.Equal(t, stored.ID.String(), claims.Subject)

	denied, err := svc.Login(ctx, usecase.LoginInput{Email: "carol@example.com", Password: "wrong-pass"})
	assert.Nil(t, denied)
	assert.True(t, errors.Is(err, domainerrors.ErrInvalidCredentials))

	userRepo.EXPECT().FindByEmail(ctx, "nobody@example.com").Return(nil, repository.ErrUserNotFound)
	unknown, unknownErr := svc.Login(ctx, usecase.LoginInput{Email: "nobody@example.com", Password: "wrong-pass"})
	assert.Nil(t, unknown)
	assert.Equal(t, err, unknownErr)
}
