package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	c, err := Parse()
	require.NoError(t, err)

	require.Equal(t, "sqlite3", c.DbDriver)
	require.Equal(t, 100, c.DailyLimit)
	require.Equal(t, "*/5 * * * *", c.CronSchedule)
	require.True(t, c.Enabled)
	require.Equal(t, 30*time.Second, c.SendTimeout)
	require.Equal(t, "noop", c.Transport)
	require.Equal(t, time.UTC, c.Location())
}

func TestParse_Env(t *testing.T) {
	t.Setenv("BREVQ_DAILY_LIMIT", "5")
	t.Setenv("BREVQ_ENABLED", "false")
	t.Setenv("BREVQ_SEND_TIMEOUT", "2s")
	t.Setenv("BREVQ_TIMEZONE", "Europe/Stockholm")

	c, err := Parse()
	require.NoError(t, err)

	require.Equal(t, 5, c.DailyLimit)
	require.False(t, c.Enabled)
	require.Equal(t, 2*time.Second, c.SendTimeout)
	require.Equal(t, "Europe/Stockholm", c.Location().String())
}

func TestLocation_Unknown(t *testing.T) {
	c := Config{TimeZone: "Nowhere/Atlantis"}
	require.Equal(t, time.UTC, c.Location())
}
