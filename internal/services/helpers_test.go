package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/isdelr/projecthub-be/internal/database"
	"github.com/isdelr/projecthub-be/internal/models"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	db       *sql.DB
	clock    *fakeClock
	events   *EventService
	users    *UserService
	projects *ProjectService
	comments *CommentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))

	clock := &fakeClock{t: time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)}
	events := NewEventService(db)
	events.now = clock.Now
	users := NewUserService(db, events, bcrypt.MinCost)
	users.now = clock.Now
	projects := NewProjectService(db, events)
	projects.now = clock.Now
	comments := NewCommentService(db, projects, events)
	comments.now = clock.Now

	return &fixture{db: db, clock: clock, events: events, users: users, projects: projects, comments: comments}
}

func (f *fixture) signup(t *testing.T, name string) models.User {
	t.Helper()
	user, err := f.users.Signup(context.Background(), models.SignupInput{
		Email:     strings.ToLower(name) + "@example.com",
		Password:  "password1",
		FirstName: name,
		LastName:  "Tester",
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) createProject(t *testing.T, owner models.User, title string) models.Project {
	t.Helper()
	p, err := f.projects.CreateProject(context.Background(), owner.ID, models.ProjectInput{
		Title:       title,
		Description: "About " + title,
	})
	require.NoError(t, err)
	return p
}

func strPtr(s string) *string { return &s }
