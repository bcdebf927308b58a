package app

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/km-arc/go-composer/framework/config"
	"github.com/km-arc/go-composer/framework/core"
	gohttp "github.com/km-arc/go-composer/framework/http"
	"github.com/km-arc/go-composer/framework/http/validation"
)

// ErrUserNotFound is returned by UserService lookups.
var ErrUserNotFound = errors.New("user not found")

type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CreateUser is the body of POST /api/users.
type CreateUser struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Age   int    `json:"age"`
}

func (CreateUser) Rules() validation.Rules {
	return validation.Rules{
		"name":  "required|min:2|max:100",
		"email": "required|email",
		"age":   "required|numeric|gte:18",
	}
}

// ── UserService ───────────────────────────────────────────────────────────────

// UserService is an in-memory user store that announces new users to
// subscribers.
type UserService struct {
	log *zap.Logger

	mu     sync.RWMutex
	users  []User
	nextID int
	subs   map[chan User]struct{}
}

func NewUserService(log *zap.Logger) *UserService {
	return &UserService{log: log, nextID: 1, subs: make(map[chan User]struct{})}
}

func (s *UserService) All() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]User{}, s.users...)
}

func (s *UserService) Find(id int) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (s *UserService) Create(name, email string) User {
	s.mu.Lock()
	u := User{ID: s.nextID, Name: name, Email: email}
	s.nextID++
	s.users = append(s.users, u)
	for ch := range s.subs {
		select {
		case ch <- u:
		default: // slow subscriber
		}
	}
	s.mu.Unlock()

	s.log.Info("user created", zap.Int("id", u.ID), zap.String("email", u.Email))
	return u
}

// Subscribe returns a channel of created users, closed once ctx is done.
func (s *UserService) Subscribe(ctx context.Context) <-chan User {
	ch := make(chan User, 16)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, ch)
		close(ch)
		s.mu.Unlock()
	}()
	return ch
}

// ── UsersController ───────────────────────────────────────────────────────────

type UsersController struct {
	users *UserService
}

func NewUsersController(users *UserService) *UsersController {
	return &UsersController{users: users}
}

func (c *UsersController) List() []User { return c.users.All() }

func (c *UsersController) Show(id string) (User, error) {
	n, err := strconv.Atoi(id)
	if err != nil {
		return User{}, gohttp.Abort(http.StatusBadRequest, "id must be a number")
	}
	return c.users.Find(n)
}

func (c *UsersController) Create(in CreateUser) gohttp.Responder {
	return gohttp.Created(c.users.Create(in.Name, in.Email))
}

// Events streams created users until the client goes away.
func (c *UsersController) Events(w core.SSEWriter, ctx core.Context) <-chan core.SSEMessage {
	out := make(chan core.SSEMessage)
	go func() {
		defer close(out)
		for u := range c.users.Subscribe(ctx) {
			select {
			case out <- core.SSEMessage{Event: "user.created", ID: strconv.Itoa(u.ID), Data: u}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// ── Guard and error handler ───────────────────────────────────────────────────

// AuthGuard admits requests carrying the API_TOKEN bearer token.
type AuthGuard struct {
	token string
}

func NewAuthGuard() *AuthGuard {
	return &AuthGuard{token: config.Get("API_TOKEN", "secret")}
}

func (g *AuthGuard) CanActivate(ctx core.Context) (bool, error) {
	c, ok := gohttp.FromContext(ctx)
	if !ok {
		return false, nil
	}
	return c.Request().BearerToken() == g.token, nil
}

// usersErrors turns domain errors into HTTP errors.
func usersErrors(err error, ctx core.Context) (any, error) {
	if errors.Is(err, ErrUserNotFound) {
		return nil, gohttp.Abort(http.StatusNotFound, err.Error())
	}
	return nil, err
}
