// Package user implements the user service rules: field validation, blank-name
// normalization, and the directed friendship relation.
package user

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/avolkov/filmoteka/internal/catalog"
	"github.com/avolkov/filmoteka/internal/errs"
	"github.com/avolkov/filmoteka/internal/service/refs"
)

type Repo interface {
	GetUser(ctx context.Context, id int64) (catalog.User, error)
	ListUsers(ctx context.Context) ([]catalog.User, error)
	Friends(ctx context.Context, userID int64) ([]catalog.User, error)
	CommonFriends(ctx context.Context, userID, otherID int64) ([]catalog.User, error)
}

type Writer interface {
	CreateUser(ctx context.Context, u catalog.User) (catalog.User, error)
	UpdateUser(ctx context.Context, u catalog.User) (catalog.User, error)
	AddFriend(ctx context.Context, userID, friendID int64) error
	RemoveFriend(ctx context.Context, userID, friendID int64) error
}

type Service interface {
	Validate(u catalog.User) error
	Create(ctx context.Context, u catalog.User) (catalog.User, error)
	Update(ctx context.Context, u catalog.User) (catalog.User, error)
	Get(ctx context.Context, id int64) (catalog.User, error)
	List(ctx context.Context) ([]catalog.User, error)
	AddFriend(ctx context.Context, userID, friendID int64) error
	RemoveFriend(ctx context.Context, userID, friendID int64) error
	Friends(ctx context.Context, userID int64) ([]catalog.User, error)
	CommonFriends(ctx context.Context, userID, otherID int64) ([]catalog.User, error)
}

type service struct {
	repo   Repo
	writer Writer
	refs   *refs.Validator
}

func New(repo Repo, writer Writer, validator *refs.Validator) Service {
	return &service{repo: repo, writer: writer, refs: validator}
}

// Validate checks the scalar invariants of a user. Name is not checked here:
// a blank name is legal input and is replaced by the login before persistence.
func (s *service) Validate(u catalog.User) error {
	if strings.TrimSpace(u.Email) == "" {
		return fmt.Errorf("%w: email must not be blank", errs.ErrInvalid)
	}
	if !strings.Contains(u.Email, "@") {
		return fmt.Errorf("%w: email must contain @", errs.ErrInvalid)
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return fmt.Errorf("%w: malformed email", errs.ErrInvalid)
	}
	if strings.TrimSpace(u.Login) == "" {
		return fmt.Errorf("%w: login must not be blank", errs.ErrInvalid)
	}
	if strings.ContainsFunc(u.Login, unicode.IsSpace) {
		return fmt.Errorf("%w: login must not contain whitespace", errs.ErrInvalid)
	}
	if u.Birthday.After(time.Now()) {
		return fmt.Errorf("%w: birthday must not be in the future", errs.ErrInvalid)
	}
	return nil
}

// Create validates, normalizes the name from the login, and persists.
func (s *service) Create(ctx context.Context, u catalog.User) (catalog.User, error) {
	if err := s.Validate(u); err != nil {
		return catalog.User{}, err
	}
	return s.writer.CreateUser(ctx, u.Normalized())
}

// Update replaces the scalar fields of an existing user. Friendships are not altered.
func (s *service) Update(ctx context.Context, u catalog.User) (catalog.User, error) {
	if u.ID <= 0 {
		return catalog.User{}, fmt.Errorf("%w: user id must be positive", errs.ErrInvalid)
	}
	if err := s.Validate(u); err != nil {
		return catalog.User{}, err
	}
	if _, err := s.repo.GetUser(ctx, u.ID); err != nil {
		return catalog.User{}, err
	}
	return s.writer.UpdateUser(ctx, u.Normalized())
}

func (s *service) Get(ctx context.Context, id int64) (catalog.User, error) {
	return s.repo.GetUser(ctx, id)
}

func (s *service) List(ctx context.Context) ([]catalog.User, error) {
	return s.repo.ListUsers(ctx)
}

// AddFriend inserts the directed edge userID -> friendID. Idempotent; no
// reverse edge is created.
func (s *service) AddFriend(ctx context.Context, userID, friendID int64) error {
	if err := s.refs.User(ctx, userID); err != nil {
		return err
	}
	if err := s.refs.User(ctx, friendID); err != nil {
		return err
	}
	return s.writer.AddFriend(ctx, userID, friendID)
}

// RemoveFriend deletes the directed edge; an absent edge is a no-op.
func (s *service) RemoveFriend(ctx context.Context, userID, friendID int64) error {
	if err := s.refs.User(ctx, userID); err != nil {
		return err
	}
	if err := s.refs.User(ctx, friendID); err != nil {
		return err
	}
	return s.writer.RemoveFriend(ctx, userID, friendID)
}

// Friends returns the targets of the user's outgoing friendship edges.
func (s *service) Friends(ctx context.Context, userID int64) ([]catalog.User, error) {
	if err := s.refs.User(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.Friends(ctx, userID)
}

// CommonFriends returns the users befriended by both userID and otherID.
func (s *service) CommonFriends(ctx context.Context, userID, otherID int64) ([]catalog.User, error) {
	if err := s.refs.User(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.refs.User(ctx, otherID); err != nil {
		return nil, err
	}
	return s.repo.CommonFriends(ctx, userID, otherID)
}
