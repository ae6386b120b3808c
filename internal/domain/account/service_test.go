package account

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/entity"
	"stockflow/internal/core/id"
	"stockflow/internal/core/tx"
	"stockflow/internal/domain/ledger"
)

type memRepo struct {
	rows map[id.ID]*Account
}

func newMemRepo() *memRepo {
	return &memRepo{rows: make(map[id.ID]*Account)}
}

func (m *memRepo) Create(ctx context.Context, a *Account) error {
	c := *a
	m.rows[a.ID] = &c
	return nil
}

func (m *memRepo) GetByID(ctx context.Context, accountID id.ID) (*Account, error) {
	a, ok := m.rows[accountID]
	if !ok {
		return nil, apperror.NewNotFound("account", accountID)
	}
	c := *a
	return &c, nil
}

func (m *memRepo) GetByEmail(ctx context.Context, email string) (*Account, error) {
	for _, a := range m.rows {
		if strings.EqualFold(a.Email, email) {
			c := *a
			return &c, nil
		}
	}
	return nil, apperror.NewNotFound("account", email)
}

func (m *memRepo) Exists(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	if err == nil {
		return true, nil
	}
	if apperror.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

func (m *memRepo) Update(ctx context.Context, a *Account) error {
	if _, ok := m.rows[a.ID]; !ok {
		return apperror.NewNotFound("account", a.ID)
	}
	c := *a
	m.rows[a.ID] = &c
	return nil
}

func (m *memRepo) Delete(ctx context.Context, accountID id.ID) error {
	delete(m.rows, accountID)
	return nil
}

func (m *memRepo) List(ctx context.Context, f Filter) ([]Account, error) {
	var out []Account
	for _, a := range m.rows {
		if f.Role != nil && a.Role != *f.Role {
			continue
		}
		if f.IsActive != nil && a.IsActive != *f.IsActive {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func newTestService(t *testing.T) (*Service, *memRepo, *ledger.Memory) {
	t.Helper()
	repo := newMemRepo()
	mem := ledger.NewMemory()
	mem.SeedCompany(entity.Company{BaseEntity: entity.NewBaseEntity(), Name: "Acme"})
	jwtSvc := NewJWTService(DefaultJWTConfig("test-secret"))
	svc := NewService(repo, mem, tx.Nop{}, jwtSvc, DefaultServiceConfig())
	return svc, repo, mem
}

func register(t *testing.T, svc *Service, email string, role Role) *Account {
	t.Helper()
	a, err := svc.Register(context.Background(), RegisterInput{
		Email:    email,
		Password: "correct-horse",
		Name:     "Jordan Reyes",
		Role:     role,
	})
	require.NoError(t, err)
	return a
}

func TestRegister(t *testing.T) {
	svc, repo, mem := newTestService(t)

	a := register(t, svc, "jordan@acme.test", RoleManager)

	stored, ok := repo.rows[a.ID]
	require.True(t, ok)
	assert.Equal(t, RoleManager, stored.Role)
	assert.True(t, stored.IsActive)
	assert.NotEqual(t, "correct-horse", stored.PasswordHash, "password stored hashed")
	assert.Equal(t, 1, mem.Company().TotalWorkers)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, mem := newTestService(t)
	register(t, svc, "jordan@acme.test", RoleRep)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "Jordan@acme.test",
		Password: "correct-horse",
		Name:     "Other",
		Role:     RoleRep,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeDuplicate))
	assert.Equal(t, 1, mem.Company().TotalWorkers)
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "a@b.test", Password: "short", Name: "X", Role: RoleRep})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation), "short password")

	_, err = svc.Register(ctx, RegisterInput{Email: "a@b.test", Password: "correct-horse", Name: "X", Role: Role("owner")})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation), "unknown role")
}

func TestLoginIssuesValidToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	a := register(t, svc, "jordan@acme.test", RoleAdmin)

	pair, logged, err := svc.Login(context.Background(), Credentials{Email: "jordan@acme.test", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, a.ID, logged.ID)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.NotNil(t, logged.LastLoginAt)

	jwtSvc := NewJWTService(DefaultJWTConfig("test-secret"))
	uc, err := jwtSvc.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, a.ID.String(), uc.UserID)
	assert.Equal(t, string(RoleAdmin), uc.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _ := newTestService(t)
	register(t, svc, "jordan@acme.test", RoleRep)

	_, _, err := svc.Login(context.Background(), Credentials{Email: "jordan@acme.test", Password: "nope"})
	assert.True(t, apperror.IsCode(err, apperror.CodeUnauthorized))
}

func TestLoginLockoutAfterRepeatedFailures(t *testing.T) {
	svc, repo, _ := newTestService(t)
	a := register(t, svc, "jordan@acme.test", RoleRep)
	ctx := context.Background()

	for i := 0; i < DefaultServiceConfig().MaxLoginAttempts; i++ {
		_, _, err := svc.Login(ctx, Credentials{Email: "jordan@acme.test", Password: "nope"})
		require.Error(t, err)
	}

	stored := repo.rows[a.ID]
	require.NotNil(t, stored.LockedUntil)
	assert.True(t, stored.LockedUntil.After(time.Now()))

	_, _, err := svc.Login(ctx, Credentials{Email: "jordan@acme.test", Password: "correct-horse"})
	assert.True(t, apperror.IsCode(err, apperror.CodeForbidden), "locked account refuses the right password too")
}

func TestDeactivateBlocksLogin(t *testing.T) {
	svc, _, _ := newTestService(t)
	a := register(t, svc, "jordan@acme.test", RoleRep)
	ctx := context.Background()

	require.NoError(t, svc.Deactivate(ctx, a.ID))

	_, _, err := svc.Login(ctx, Credentials{Email: "jordan@acme.test", Password: "correct-horse"})
	assert.True(t, apperror.IsCode(err, apperror.CodeForbidden))
}

func TestChangePassword(t *testing.T) {
	svc, _, _ := newTestService(t)
	a := register(t, svc, "jordan@acme.test", RoleManager)
	ctx := context.Background()

	err := svc.ChangePassword(ctx, a.ID, "wrong", "new-password-1")
	assert.True(t, apperror.IsCode(err, apperror.CodeUnauthorized))

	require.NoError(t, svc.ChangePassword(ctx, a.ID, "correct-horse", "new-password-1"))

	_, _, err = svc.Login(ctx, Credentials{Email: "jordan@acme.test", Password: "correct-horse"})
	require.Error(t, err)
	_, _, err = svc.Login(ctx, Credentials{Email: "jordan@acme.test", Password: "new-password-1"})
	require.NoError(t, err)
}

func TestDeleteDropsWorkerCounter(t *testing.T) {
	svc, repo, mem := newTestService(t)
	a := register(t, svc, "jordan@acme.test", RoleRep)

	require.NoError(t, svc.Delete(context.Background(), a.ID))
	_, ok := repo.rows[a.ID]
	assert.False(t, ok)
	assert.Equal(t, 0, mem.Company().TotalWorkers)

	err := svc.Delete(context.Background(), a.ID)
	assert.True(t, apperror.IsNotFound(err))
}
