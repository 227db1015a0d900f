package user

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/felixgeelhaar/mentora/adapter/cli"
	"github.com/felixgeelhaar/mentora/internal/identity/domain"
	"github.com/felixgeelhaar/mentora/internal/identity/infrastructure/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	addFirstName, addLastName, addEmail, addRole, addMentor = "", "", "", string(domain.RoleMentee), ""

	var out bytes.Buffer
	Cmd.SetOut(&out)
	Cmd.SetErr(io.Discard)
	Cmd.SetArgs(args)
	err := Cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestUserCommands(t *testing.T) {
	repo := persistence.NewInMemoryUserRepository()
	cli.SetApp(cli.NewApp(nil, nil, nil, nil, repo, nil))
	t.Cleanup(func() { cli.SetApp(nil) })
	ctx := context.Background()

	_, err := run(t, "add", "--first", "Grace", "--last", "Hopper", "--email", "grace@example.com", "--role", "mentor")
	require.NoError(t, err)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	mentor := users[0]
	assert.Equal(t, domain.RoleMentor, mentor.Role())

	_, err = run(t, "add", "--first", "Linus", "--last", "Student", "--email", "linus@example.com",
		"--mentor", mentor.ID().String())
	require.NoError(t, err)

	out, err := run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Users (2)")
	assert.Contains(t, out, "Mentor: "+mentor.ID().String())

	t.Run("mentor must exist", func(t *testing.T) {
		_, err := run(t, "add", "--first", "Ken", "--last", "Student", "--email", "ken@example.com",
			"--mentor", "00000000-0000-0000-0000-000000000042")
		assert.ErrorContains(t, err, "not found")
	})

	t.Run("invalid email", func(t *testing.T) {
		_, err := run(t, "add", "--first", "Ken", "--last", "Student", "--email", "ken")
		assert.ErrorIs(t, err, domain.ErrInvalidEmail)
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := run(t, "add", "--first", "Ken", "--last", "Student", "--email", "ken@example.com", "--role", "Owner")
		assert.ErrorIs(t, err, domain.ErrUnknownRole)
	})
}
