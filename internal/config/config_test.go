package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "auth:\n  secret: s3cret\ndatabase:\n  driver: sqlite\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Same(t, cfg, GlobalConfig)

	require.Equal(t, 8080, cfg.Server.HTTPPort)
	require.Equal(t, 30*time.Second, cfg.Presence.OnlineWindow)
	require.Equal(t, 20*time.Second, cfg.Presence.HeartbeatInterval)
	require.Equal(t, 2*time.Second, cfg.Typing.Window)
	require.Equal(t, 4000, cfg.Message.MaxLength)
	require.Equal(t, 2, cfg.Conversation.MinGroupSize)
	require.Equal(t, "parley:", cfg.Redis.KeyPrefix)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "auth:\n  secret: s3cret\nserver:\n  http_port: 9000\n")
	t.Setenv("PARLEY_SERVER_HTTP_PORT", "9100")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 9100, cfg.Server.HTTPPort)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	path := writeConfig(t, "auth:\n  secret: s3cret\ndatabase:\n  driver: oracle\n")

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRequiresSecret(t *testing.T) {
	path := writeConfig(t, "database:\n  driver: sqlite\n")

	_, err := Load(path)
	require.ErrorContains(t, err, "auth.secret")
}

func TestDSN(t *testing.T) {
	mysql := DatabaseConfig{Driver: DriverMySQL, User: "u", Password: "p", Host: "db", Port: 3306, Name: "parley", Charset: "utf8mb4"}
	require.Equal(t, "u:p@tcp(db:3306)/parley?charset=utf8mb4&parseTime=True&loc=Local", mysql.DSN())

	pg := DatabaseConfig{Driver: DriverPostgres, User: "u", Password: "p", Host: "db", Port: 5432, Name: "parley", SSLMode: "disable"}
	require.Equal(t, "host=db port=5432 user=u password=p dbname=parley sslmode=disable", pg.DSN())

	lite := DatabaseConfig{Driver: DriverSQLite, Path: "/tmp/x.db"}
	require.Contains(t, lite.DSN(), "/tmp/x.db?_pragma=busy_timeout(5000)")
}
