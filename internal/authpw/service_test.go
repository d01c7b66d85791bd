package authpw

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"swiftflow/api/internal/department"
	"swiftflow/api/internal/store"
)

type fakeUserStore struct {
	users map[string]store.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]store.User{}}
}

func (f *fakeUserStore) GetUserByUsername(_ context.Context, username string) (store.User, error) {
	u, ok := f.users[username]
	if !ok {
		return store.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (f *fakeUserStore) CreateUser(_ context.Context, u store.User) (store.User, error) {
	u.ID = int64(len(f.users) + 1)
	f.users[u.Username] = u
	return u, nil
}

func TestRegisterAndLogin(t *testing.T) {
	svc := NewService(newFakeUserStore())
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{
		Username:   "ravi",
		Password:   "workshop-pass",
		FullName:   "Ravi K",
		Department: department.Machining,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.PasswordHash == "workshop-pass" {
		t.Fatal("password stored in clear")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("workshop-pass")); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}

	got, err := svc.Login(ctx, "ravi", "workshop-pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got.Username != "ravi" || got.Department != department.Machining {
		t.Fatalf("user = %+v", got)
	}

	if _, err := svc.Login(ctx, "ravi", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(ctx, "nobody", "workshop-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(newFakeUserStore())
	ctx := context.Background()

	cases := []struct {
		name string
		req  RegisterRequest
	}{
		{name: "missing username", req: RegisterRequest{Password: "long-enough", Department: department.Design}},
		{name: "short password", req: RegisterRequest{Username: "a", Password: "short", Department: department.Design}},
		{name: "unknown department", req: RegisterRequest{Username: "a", Password: "long-enough", Department: "SHIPPING"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tc.req); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc := NewService(newFakeUserStore())
	ctx := context.Background()

	req := RegisterRequest{Username: "ravi", Password: "workshop-pass", Department: department.Machining}
	if _, err := svc.Register(ctx, req); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Register(ctx, req); err == nil {
		t.Fatal("expected duplicate username error")
	}
}

func TestLoginDisabledAccount(t *testing.T) {
	fs := newFakeUserStore()
	hash, _ := bcrypt.GenerateFromPassword([]byte("workshop-pass"), bcrypt.DefaultCost)
	fs.users["ravi"] = store.User{ID: 1, Username: "ravi", PasswordHash: string(hash), Department: department.Machining, Enabled: false}

	svc := NewService(fs)
	if _, err := svc.Login(context.Background(), "ravi", "workshop-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}
