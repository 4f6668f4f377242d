package profile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mxschmitt/db-profile-resolver/internal/profile"
)

func TestEnvFromList(t *testing.T) {
	env := profile.EnvFromList([]string{
		"DATABASE_URL=mysql://u:p=q@h/d",
		"EMPTY=",
		"NOEQUALS",
		"=value",
		"DB_HOST=first",
		"DB_HOST=second",
	})

	assert.Equal(t, "mysql://u:p=q@h/d", env["DATABASE_URL"])
	assert.Equal(t, "second", env["DB_HOST"])
	assert.False(t, env.IsSet("EMPTY"))
	assert.NotContains(t, env, "NOEQUALS")
	assert.NotContains(t, env, "")
}

func TestEnv_Get(t *testing.T) {
	env := profile.Env{"MYSQLHOST": "", "DB_HOST": "generic"}

	value, key := env.Get("MYSQLHOST", "DB_HOST")
	assert.Equal(t, "generic", value)
	assert.Equal(t, "DB_HOST", key)

	value, key = env.Get("MISSING")
	assert.Empty(t, value)
	assert.Empty(t, key)
}

func TestEnvFromOS(t *testing.T) {
	t.Setenv("MYSQLHOST", "from-os")
	assert.Equal(t, "from-os", profile.EnvFromOS().Value("MYSQLHOST"))
}
