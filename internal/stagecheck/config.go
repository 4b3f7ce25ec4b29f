package stagecheck

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"stagecheck/internal/platform/config"

	"go.uber.org/zap/zapcore"
)

// Side names one of the two databases being compared.
type Side string

const (
	Production Side = "prod"
	Staging    Side = "stg"
)

// Sides returns both sides in the order a check opens and queries them.
func Sides() []Side { return []Side{Production, Staging} }

// Environment variables read by LoadConfig.
const (
	EnvUser           = "DB_USER"
	EnvPassword       = "DB_PASS"
	EnvProdName       = "DB_PROD_NAME"
	EnvStagingName    = "DB_STG_NAME"
	EnvSocketDir      = "DB_SOCKET_DIR"
	EnvConnectionName = "CLOUD_SQL_CONNECTION_NAME"
)

const (
	DefaultSocketDir = "/cloudsql"
	postgresPort     = 5432
)

// ConnectionConfig holds the connection parameters for one side.
type ConnectionConfig struct {
	Side      Side   `json:"side"`
	User      string `json:"user"`
	Password  string `json:"-"`
	Database  string `json:"database"`
	SocketDir string `json:"socket_dir"`
	// Instance is the Cloud SQL instance connection name,
	// "<project>:<region>:<instance>".
	Instance string `json:"instance"`
}

func databaseEnv(side Side) (string, error) {
	switch side {
	case Production:
		return EnvProdName, nil
	case Staging:
		return EnvStagingName, nil
	default:
		return "", fmt.Errorf("%w: unknown side %q", ErrConfig, side)
	}
}

// LoadConfig reads the connection parameters for side from the environment.
// User, password, socket dir and instance are shared by both sides; the
// database name comes from DB_PROD_NAME or DB_STG_NAME.
func LoadConfig(side Side) (ConnectionConfig, error) {
	dbEnv, err := databaseEnv(side)
	if err != nil {
		return ConnectionConfig{}, err
	}

	var errs []error
	require := func(k string) string {
		v, err := config.Require(k)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}

	cfg := ConnectionConfig{
		Side:      side,
		User:      require(EnvUser),
		Password:  require(EnvPassword),
		Database:  require(dbEnv),
		SocketDir: config.Getenv(EnvSocketDir, DefaultSocketDir),
		Instance:  require(EnvConnectionName),
	}
	if len(errs) > 0 {
		return ConnectionConfig{}, fmt.Errorf("%w: %s: %w", ErrConfig, side, errors.Join(errs...))
	}
	return cfg, nil
}

// LoadConfigs loads both sides. It fails before anything dials if either
// side is incomplete.
func LoadConfigs() (map[Side]ConnectionConfig, error) {
	sides := Sides()
	out := make(map[Side]ConnectionConfig, len(sides))
	for _, side := range sides {
		cfg, err := LoadConfig(side)
		if err != nil {
			return nil, err
		}
		out[side] = cfg
	}
	return out, nil
}

// socketHost is the directory holding the instance's unix socket.
func (c ConnectionConfig) socketHost() string {
	return path.Join(c.SocketDir, c.Instance)
}

// SocketPath returns the unix socket file, {socket_dir}/{instance}/.s.PGSQL.5432.
func (c ConnectionConfig) SocketPath() string {
	return fmt.Sprintf("%s/.s.PGSQL.%d", c.socketHost(), postgresPort)
}

// DSN returns a keyword/value connection string. pgx treats an absolute host
// as a socket directory and dials .s.PGSQL.<port> inside it.
func (c ConnectionConfig) DSN() string {
	kv := []string{
		"host=" + quoteDSN(c.socketHost()),
		fmt.Sprintf("port=%d", postgresPort),
		"user=" + quoteDSN(c.User),
		"password=" + quoteDSN(c.Password),
		"dbname=" + quoteDSN(c.Database),
	}
	return strings.Join(kv, " ")
}

var dsnQuoter = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func quoteDSN(v string) string {
	return "'" + dsnQuoter.Replace(v) + "'"
}

// String never includes the password.
func (c ConnectionConfig) String() string {
	return fmt.Sprintf("%s: user=%s dbname=%s socket=%s", c.Side, c.User, c.Database, c.SocketPath())
}

// MarshalLogObject lets the config be logged with zap.Object without the password.
func (c ConnectionConfig) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("side", string(c.Side))
	enc.AddString("user", c.User)
	enc.AddString("database", c.Database)
	enc.AddString("socket", c.SocketPath())
	return nil
}
