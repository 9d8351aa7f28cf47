package adminsrv

import (
	"context"
	"testing"

	"github.com/Abraxas-365/craftable/errx"
	"github.com/arenalabs/tradearena/iam/admin"
	"github.com/arenalabs/tradearena/pkg/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Fakes
// ============================================================================

type fakeAdminRepo struct {
	byUsername map[string]*admin.Admin
}

func newFakeAdminRepo() *fakeAdminRepo {
	return &fakeAdminRepo{byUsername: make(map[string]*admin.Admin)}
}

func (r *fakeAdminRepo) Save(_ context.Context, a admin.Admin) error {
	copied := a
	r.byUsername[a.Username] = &copied
	return nil
}

func (r *fakeAdminRepo) FindByID(_ context.Context, id kernel.AdminID) (*admin.Admin, error) {
	for _, a := range r.byUsername {
		if a.ID == id {
			copied := *a
			return &copied, nil
		}
	}
	return nil, admin.ErrAdminNotFound()
}

func (r *fakeAdminRepo) FindByUsername(_ context.Context, username string) (*admin.Admin, error) {
	if a, ok := r.byUsername[username]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, admin.ErrAdminNotFound()
}

func (r *fakeAdminRepo) List(_ context.Context) ([]*admin.Admin, error) {
	list := make([]*admin.Admin, 0, len(r.byUsername))
	for _, a := range r.byUsername {
		list = append(list, a)
	}
	return list, nil
}

// fakePasswordService evita el costo de bcrypt en los tests
type fakePasswordService struct{}

func (fakePasswordService) HashPassword(password string) (string, error) {
	return "hashed:" + password, nil
}

func (fakePasswordService) VerifyPassword(hashedPassword, password string) bool {
	return hashedPassword == "hashed:"+password
}

// ============================================================================
// Tests
// ============================================================================

func newTestService() (*AdminService, *fakeAdminRepo) {
	repo := newFakeAdminRepo()
	return NewAdminService(repo, fakePasswordService{}), repo
}

func TestCreateAdmin(t *testing.T) {
	svc, repo := newTestService()

	created, err := svc.CreateAdmin(context.Background(), admin.CreateAdminRequest{
		Username: "root",
		Password: "correct-horse-battery",
	})

	require.NoError(t, err)
	assert.Equal(t, admin.AdminStatusActive, created.Status)
	assert.Equal(t, "hashed:correct-horse-battery", created.PasswordHash)
	assert.Contains(t, repo.byUsername, "root")
}

func TestCreateAdminDuplicateUsername(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.CreateAdmin(context.Background(), admin.CreateAdminRequest{Username: "root", Password: "secret-password-1"})
	require.NoError(t, err)

	_, err = svc.CreateAdmin(context.Background(), admin.CreateAdminRequest{Username: "root", Password: "secret-password-2"})
	require.Error(t, err)
	assert.True(t, errx.IsType(err, errx.TypeConflict))
}

func TestAuthenticate(t *testing.T) {
	svc, repo := newTestService()
	created, err := svc.CreateAdmin(context.Background(), admin.CreateAdminRequest{Username: "root", Password: "correct-horse-battery"})
	require.NoError(t, err)

	id, err := svc.Authenticate(context.Background(), "root", "correct-horse-battery")

	require.NoError(t, err)
	assert.Equal(t, created.ID, id)
	assert.NotNil(t, repo.byUsername["root"].LastLoginAt)
}

// Usuario desconocido y contraseña incorrecta fallan de forma indistinguible
func TestAuthenticateUniformFailures(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.CreateAdmin(context.Background(), admin.CreateAdminRequest{Username: "root", Password: "correct-horse-battery"})
	require.NoError(t, err)

	_, unknownErr := svc.Authenticate(context.Background(), "nobody", "correct-horse-battery")
	_, badPassErr := svc.Authenticate(context.Background(), "root", "wrong-password")

	require.Error(t, unknownErr)
	require.Error(t, badPassErr)
	assert.True(t, errx.IsType(unknownErr, errx.TypeAuthorization))
	assert.True(t, errx.IsType(badPassErr, errx.TypeAuthorization))
	assert.Equal(t, unknownErr.Error(), badPassErr.Error())
}

func TestAuthenticateDisabledAdmin(t *testing.T) {
	svc, repo := newTestService()
	_, err := svc.CreateAdmin(context.Background(), admin.CreateAdminRequest{Username: "root", Password: "correct-horse-battery"})
	require.NoError(t, err)
	repo.byUsername["root"].Status = admin.AdminStatusDisabled

	_, err = svc.Authenticate(context.Background(), "root", "correct-horse-battery")

	require.Error(t, err)
	assert.True(t, errx.IsType(err, errx.TypeBusiness))
}
