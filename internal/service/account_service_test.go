package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"mensa/internal/auth"
	"mensa/internal/database"
	"mensa/internal/models"
)

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendPasswordReset(ctx context.Context, email, token string) error {
	return m.Called(ctx, email, token).Error(0)
}

func newAccountService(repo Repository, mailer Mailer) *AccountService {
	logger := zerolog.New(io.Discard)
	svc := NewAccountService(repo, mailer, &logger)
	// bcrypt is deliberately slow; swap a cheap hash in for tests.
	svc.hash = func(p string) (string, error) { return "hashed:" + p, nil }
	svc.compare = func(hash, p string) bool { return hash == "hashed:"+p }
	return svc
}

func TestAccountService_Register(t *testing.T) {
	ctx := context.Background()
	uni := &models.University{ID: 1, IsActive: true}

	t.Run("Success", func(t *testing.T) {
		repo := new(mockRepo)
		svc := newAccountService(repo, new(mockMailer))

		repo.On("GetUniversity", ctx, int64(1)).Return(uni, nil).Once()
		repo.On("CreateUser", ctx, mock.Anything).Run(func(args mock.Arguments) {
			u := args.Get(1).(*models.User)
			assert.Equal(t, models.RoleStudent, u.Role)
			assert.Equal(t, models.ApprovalPending, u.Approval)
			assert.Equal(t, "hashed:password123", u.PasswordHash)
		}).Return(nil).Once()

		user, err := svc.Register(ctx, 1, "a@b.edu", "password123", "Anh", "B-204")
		require.NoError(t, err)
		assert.Equal(t, models.ApprovalPending, user.Approval)
		repo.AssertExpectations(t)
	})

	t.Run("ShortPassword", func(t *testing.T) {
		svc := newAccountService(new(mockRepo), new(mockMailer))
		_, err := svc.Register(ctx, 1, "a@b.edu", "short", "Anh", "")
		assert.Error(t, err)
	})

	t.Run("BadEmail", func(t *testing.T) {
		svc := newAccountService(new(mockRepo), new(mockMailer))
		_, err := svc.Register(ctx, 1, "not-an-email", "password123", "Anh", "")
		assert.Error(t, err)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		repo := new(mockRepo)
		svc := newAccountService(repo, new(mockMailer))

		repo.On("GetUniversity", ctx, int64(1)).Return(uni, nil).Once()
		repo.On("CreateUser", ctx, mock.Anything).Return(database.ErrDuplicateEmail).Once()

		_, err := svc.Register(ctx, 1, "a@b.edu", "password123", "Anh", "")
		assert.ErrorIs(t, err, database.ErrDuplicateEmail)
	})
}

func TestAccountService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo := new(mockRepo)
		svc := newAccountService(repo, new(mockMailer))
		repo.On("GetUserByEmail", ctx, "a@b.edu").Return(&models.User{ID: 1, PasswordHash: "hashed:pw12345678"}, nil).Once()

		user, err := svc.Login(ctx, "a@b.edu", "pw12345678")
		require.NoError(t, err)
		assert.Equal(t, int64(1), user.ID)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		repo := new(mockRepo)
		svc := newAccountService(repo, new(mockMailer))
		repo.On("GetUserByEmail", ctx, "a@b.edu").Return(&models.User{PasswordHash: "hashed:right"}, nil).Once()

		_, err := svc.Login(ctx, "a@b.edu", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("UnknownEmailSameError", func(t *testing.T) {
		repo := new(mockRepo)
		svc := newAccountService(repo, new(mockMailer))
		repo.On("GetUserByEmail", ctx, "nobody@b.edu").Return(nil, database.ErrNotFound).Once()

		_, err := svc.Login(ctx, "nobody@b.edu", "whatever")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestAccountService_PasswordReset(t *testing.T) {
	ctx := context.Background()

	t.Run("RequestStoresHashNotToken", func(t *testing.T) {
		repo := new(mockRepo)
		mailer := new(mockMailer)
		svc := newAccountService(repo, mailer)

		var storedHash, sentToken string
		repo.On("GetUserByEmail", ctx, "a@b.edu").Return(&models.User{ID: 1, Email: "a@b.edu"}, nil).Once()
		repo.On("CreatePasswordReset", ctx, mock.Anything).Run(func(args mock.Arguments) {
			storedHash = args.Get(1).(*models.PasswordReset).TokenHash
		}).Return(nil).Once()
		mailer.On("SendPasswordReset", ctx, "a@b.edu", mock.Anything).Run(func(args mock.Arguments) {
			sentToken = args.Get(2).(string)
		}).Return(nil).Once()

		require.NoError(t, svc.RequestPasswordReset(ctx, "a@b.edu"))
		assert.NotEmpty(t, sentToken)
		assert.NotEqual(t, sentToken, storedHash)
		assert.Equal(t, auth.HashToken(sentToken), storedHash)
	})

	t.Run("UnknownEmailSilent", func(t *testing.T) {
		repo := new(mockRepo)
		svc := newAccountService(repo, new(mockMailer))
		repo.On("GetUserByEmail", ctx, "nobody@b.edu").Return(nil, database.ErrNotFound).Once()

		assert.NoError(t, svc.RequestPasswordReset(ctx, "nobody@b.edu"))
		repo.AssertNotCalled(t, "CreatePasswordReset", mock.Anything, mock.Anything)
	})

	t.Run("MailFailureIsSwallowed", func(t *testing.T) {
		repo := new(mockRepo)
		mailer := new(mockMailer)
		svc := newAccountService(repo, mailer)

		repo.On("GetUserByEmail", ctx, "a@b.edu").Return(&models.User{ID: 1, Email: "a@b.edu"}, nil).Once()
		repo.On("CreatePasswordReset", ctx, mock.Anything).Return(nil).Once()
		mailer.On("SendPasswordReset", ctx, "a@b.edu", mock.Anything).Return(errors.New("smtp down")).Once()

		assert.NoError(t, svc.RequestPasswordReset(ctx, "a@b.edu"))
	})

	t.Run("ResetConsumesToken", func(t *testing.T) {
		repo := new(mockRepo)
		svc := newAccountService(repo, new(mockMailer))
		now := time.Now()
		svc.now = func() time.Time { return now }

		repo.On("ConsumePasswordReset", ctx, auth.HashToken("tok"), now).
			Return(&models.PasswordReset{ID: 1, UserID: 9}, nil).Once()
		repo.On("UpdatePassword", ctx, int64(9), "hashed:newpassword").Return(nil).Once()

		require.NoError(t, svc.ResetPassword(ctx, "tok", "newpassword"))
		repo.AssertExpectations(t)
	})

	t.Run("ExpiredToken", func(t *testing.T) {
		repo := new(mockRepo)
		svc := newAccountService(repo, new(mockMailer))
		repo.On("ConsumePasswordReset", ctx, mock.Anything, mock.Anything).Return(nil, database.ErrNotFound).Once()

		err := svc.ResetPassword(ctx, "stale", "newpassword")
		assert.Error(t, err)
		repo.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
	})
}
