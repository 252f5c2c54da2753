package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"github.com/pathfinder-edu/pathfinder-api/pkg/config"
	appErrors "github.com/pathfinder-edu/pathfinder-api/pkg/errors"
)

// Cassandra owns the single shared session to the wide-column store. The
// session is created lazily on first use under a mutex; a failed attempt is
// never cached, so the next caller retries connection and provisioning from
// scratch.
type Cassandra struct {
	cfg    config.CassandraConfig
	logger *zap.Logger

	mu      sync.Mutex
	session *gocql.Session
}

// New constructs a Cassandra manager without connecting.
func New(cfg config.CassandraConfig, logger *zap.Logger) *Cassandra {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cassandra{cfg: cfg, logger: logger}
}

// Session returns the shared session, creating and provisioning it on first
// call. Keyspace and table creation is idempotent (IF NOT EXISTS throughout),
// so concurrent first-callers serialized by the mutex cannot corrupt the
// schema.
func (c *Cassandra) Session() (*gocql.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		return c.session, nil
	}

	session, err := c.connect()
	if err != nil {
		c.logger.Error("cassandra connect failed",
			zap.String("host", c.cfg.Host),
			zap.Int("port", c.cfg.Port),
			zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to connect to storage")
	}

	if err := c.provision(session); err != nil {
		session.Close()
		c.logger.Error("schema provisioning failed", zap.String("keyspace", c.cfg.Keyspace), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to provision storage schema")
	}

	c.logger.Info("connected to cassandra",
		zap.String("host", c.cfg.Host),
		zap.String("keyspace", c.cfg.Keyspace))
	c.session = session
	return c.session, nil
}

// Query binds a statement with arguments and the caller's context. The
// request timeout is fixed at the cluster level.
func (c *Cassandra) Query(ctx context.Context, stmt string, args ...interface{}) (*gocql.Query, error) {
	session, err := c.Session()
	if err != nil {
		return nil, err
	}
	return session.Query(stmt, args...).WithContext(ctx), nil
}

// Ping reports storage reachability without throwing. It runs a trivial
// system metadata query.
func (c *Cassandra) Ping(ctx context.Context) bool {
	q, err := c.Query(ctx, "SELECT release_version FROM system.local")
	if err != nil {
		return false
	}
	var version string
	if err := q.Scan(&version); err != nil {
		c.logger.Warn("storage ping failed", zap.Error(err))
		return false
	}
	return true
}

// Close releases the held session if present. Safe to call repeatedly and
// when no session exists.
func (c *Cassandra) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		c.session.Close()
		c.session = nil
		c.logger.Info("cassandra connection closed")
	}
}

// Table qualifies a table name with the configured keyspace.
func (c *Cassandra) Table(name string) string {
	return c.cfg.Keyspace + "." + name
}

func (c *Cassandra) connect() (*gocql.Session, error) {
	cluster := gocql.NewCluster(c.cfg.Host)
	cluster.Port = c.cfg.Port
	cluster.ProtoVersion = 4
	cluster.ConnectTimeout = c.cfg.Timeout
	cluster.Timeout = c.cfg.Timeout
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(
		gocql.DCAwareRoundRobinPolicy(c.cfg.Datacenter))

	// Credentials are applied only when both are present; absence of either
	// disables authentication rather than failing.
	if c.cfg.Username != "" && c.cfg.Password != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: c.cfg.Username,
			Password: c.cfg.Password,
		}
	}

	return cluster.CreateSession()
}

func (c *Cassandra) provision(session *gocql.Session) error {
	for _, stmt := range SchemaStatements(c.cfg.Keyspace) {
		if err := session.Query(stmt).Exec(); err != nil {
			return fmt.Errorf("execute %q: %w", firstWords(stmt), err)
		}
	}
	return nil
}

// SchemaStatements returns the full idempotent bootstrap DDL for the given
// keyspace: keyspace, the four tables, and the secondary indexes used by the
// repositories. Table and column names are the on-disk contract and must not
// change.
func SchemaStatements(keyspace string) []string {
	return []string{
		fmt.Sprintf(`CREATE KEYSPACE IF NOT EXISTS %s
			WITH replication = {'class': 'SimpleStrategy', 'replication_factor': 1}`, keyspace),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.students (
			id UUID PRIMARY KEY,
			student_id TEXT,
			name TEXT,
			email TEXT,
			password_hash TEXT,
			gpa DOUBLE,
			semester INT,
			created_at TIMESTAMP,
			updated_at TIMESTAMP
		)`, keyspace),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.courses (
			id UUID PRIMARY KEY,
			course_code TEXT,
			course_name TEXT,
			credits INT,
			difficulty DOUBLE,
			prerequisites LIST<TEXT>,
			description TEXT,
			created_at TIMESTAMP
		)`, keyspace),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.enrollments (
			id UUID PRIMARY KEY,
			student_id UUID,
			course_id UUID,
			semester INT,
			grade TEXT,
			status TEXT,
			attendance_rate DOUBLE,
			enrolled_at TIMESTAMP,
			completed_at TIMESTAMP
		)`, keyspace),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.risk_predictions (
			id UUID PRIMARY KEY,
			student_id UUID,
			course_id UUID,
			risk_level TEXT,
			confidence DOUBLE,
			factors MAP<TEXT, DOUBLE>,
			recommendations LIST<TEXT>,
			predicted_grade TEXT,
			created_at TIMESTAMP
		)`, keyspace),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS students_email_idx ON %s.students (email)", keyspace),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS students_student_id_idx ON %s.students (student_id)", keyspace),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS courses_course_code_idx ON %s.courses (course_code)", keyspace),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS enrollments_student_id_idx ON %s.enrollments (student_id)", keyspace),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS risk_predictions_student_id_idx ON %s.risk_predictions (student_id)", keyspace),
	}
}

func firstWords(stmt string) string {
	if len(stmt) > 48 {
		return stmt[:48]
	}
	return stmt
}
