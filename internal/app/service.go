package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"swiftflow/api/internal/auth"
	"swiftflow/api/internal/authpw"
	"swiftflow/api/internal/department"
	"swiftflow/api/internal/email"
	"swiftflow/api/internal/export"
	"swiftflow/api/internal/search"
	"swiftflow/api/internal/storage"
	"swiftflow/api/internal/store"
)

// Session is an authenticated caller.
type Session struct {
	Token        string
	RefreshToken string
	UserID       int64
	Username     string
	Department   department.Department
	JTI          string
	ExpiresAt    time.Time
}

// dataStore is the slice of Postgres storage the service depends on; tests
// substitute a fake.
type dataStore interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, u store.User) (store.User, error)
	GetUserByID(ctx context.Context, id int64) (store.User, error)
	GetUserByUsername(ctx context.Context, username string) (store.User, error)
	ListUsers(ctx context.Context) ([]store.User, error)
	UpdateUser(ctx context.Context, u store.User) error

	CreateOrder(ctx context.Context, o store.Order) (store.Order, error)
	GetOrder(ctx context.Context, id int64) (store.Order, error)
	ListOrders(ctx context.Context) ([]store.Order, error)
	UpdateOrderDepartment(ctx context.Context, id int64, dept department.Department) error
	UpdateStageProgress(ctx context.Context, id int64, stage department.Department, percent int) error
	DeleteOrder(ctx context.Context, id int64) error

	AppendStatus(ctx context.Context, st store.OrderStatus) (store.OrderStatus, error)
	ListStatuses(ctx context.Context, orderID int64) ([]store.OrderStatus, error)
	SendToInspection(ctx context.Context, orderID int64, mergedPayload string) (store.OrderStatus, error)

	AssignOrder(ctx context.Context, a store.OrderAssignment) error
	DeleteOrderAssignments(ctx context.Context, orderID int64, dept department.Department) error
	ListOrderAssignments(ctx context.Context, orderID int64) ([]store.OrderAssignment, error)
	ListAssignedOrderIDs(ctx context.Context, userID int64, dept department.Department) ([]int64, error)

	CreateMachine(ctx context.Context, name string) (store.Machine, error)
	GetMachine(ctx context.Context, id int64) (store.Machine, error)
	ListMachines(ctx context.Context) ([]store.Machine, error)

	AddBaseSelections(ctx context.Context, orderID int64, pdfType, scope string, rowKeys []string, createdBy *int64) (int, error)
	ListBaseSelectionKeys(ctx context.Context, orderID int64, pdfType, scope string) ([]string, error)
	AddRowAssignments(ctx context.Context, assignments []store.RowAssignment) error
	ListRowAssignments(ctx context.Context, orderID int64, pdfType, scope string) ([]store.RowAssignment, error)
	ListRowAssignmentKeysForUser(ctx context.Context, orderID int64, pdfType, scope string, userID int64) ([]string, error)

	RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error
	IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// SessionStore holds refresh sessions (Redis in production, Postgres as
// fallback).
type SessionStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash string, user store.User, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

type Service struct {
	store    dataStore
	sessions SessionStore
	authpw   *authpw.Service

	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration

	email     *email.Service
	search    *search.Service
	storage   *storage.Service
	export    *export.Service
	extractor export.RowExtractor
}

type ServiceOptions struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Email      *email.Service
	Search     *search.Service
	Storage    *storage.Service
	Export     *export.Service
	// Extractor parses nesting documents into rows; optional. The report
	// falls back to it when the ledger carries no stored selectedItems.
	Extractor export.RowExtractor
}

func NewService(store dataStore, sessions SessionStore, authpwSvc *authpw.Service, opts ServiceOptions) *Service {
	return &Service{
		store:      store,
		sessions:   sessions,
		authpw:     authpwSvc,
		secret:     opts.Secret,
		accessTTL:  opts.AccessTTL,
		refreshTTL: opts.RefreshTTL,
		email:      opts.Email,
		search:     opts.Search,
		storage:    opts.Storage,
		export:     opts.Export,
		extractor:  opts.Extractor,
	}
}

func (s *Service) AuthPasswordService() *authpw.Service {
	return s.authpw
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Login exchanges credentials for an access/refresh token pair.
func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	user, err := s.authpw.Login(ctx, username, password)
	if err != nil {
		return Session{}, domainError(http.StatusUnauthorized, "UNAUTHORIZED", "Invalid username or password", nil)
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	jti := randomToken(16)
	expiresAt := time.Now().Add(s.accessTTL)

	token, err := auth.IssueToken(s.secret, auth.Claims{
		Sub:        user.ID,
		Username:   user.Username,
		Department: string(user.Department),
		JTI:        jti,
		Exp:        expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, fmt.Errorf("issue access token: %w", err)
	}

	refreshToken := randomToken(32)
	refreshExpiry := time.Now().Add(s.refreshTTL)
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refreshToken), user, refreshExpiry); err != nil {
		return Session{}, fmt.Errorf("save refresh session: %w", err)
	}

	return Session{
		Token:        token,
		RefreshToken: refreshToken,
		UserID:       user.ID,
		Username:     user.Username,
		Department:   user.Department,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

// Refresh rotates the refresh token and issues a new access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	if refreshToken == "" {
		return Session{}, auth.ErrInvalidToken
	}
	hash := auth.HashToken(refreshToken)
	user, err := s.sessions.LookupRefreshSession(ctx, hash)
	if err != nil {
		return Session{}, auth.ErrInvalidToken
	}
	if err := s.sessions.RevokeRefreshSession(ctx, hash); err != nil {
		return Session{}, fmt.Errorf("rotate refresh session: %w", err)
	}
	return s.issueSession(ctx, user)
}

// Logout revokes the access token (by JTI) and the refresh session.
func (s *Service) Logout(ctx context.Context, session Session, refreshToken string) error {
	if session.JTI != "" {
		if err := s.store.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt); err != nil {
			return err
		}
	}
	if refreshToken != "" {
		return s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	return nil
}

// SessionFromToken parses and validates a bearer token, rejecting revoked
// JTIs.
func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken(s.secret, token)
	if err != nil {
		return Session{}, err
	}
	if revoked, err := s.store.IsAccessTokenRevoked(ctx, claims.JTI); err != nil {
		return Session{}, err
	} else if revoked {
		return Session{}, auth.ErrInvalidToken
	}
	dept, ok := department.Parse(claims.Department)
	if !ok {
		return Session{}, auth.ErrInvalidToken
	}
	return Session{
		Token:      token,
		UserID:     claims.Sub,
		Username:   claims.Username,
		Department: dept,
		JTI:        claims.JTI,
		ExpiresAt:  time.Unix(claims.Exp, 0),
	}, nil
}

func randomToken(n int) string {
	buf := make([]byte, n)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
