package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"wordcheck.org/internal/auth"
)

// EnvConfigPath names an explicit YAML config file.
const EnvConfigPath = "WORDCHECK_CONFIG"

var ErrInvalid = errors.New("config: invalid")

// Stub configures the offline login gateway.
type Stub struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Email    string `yaml:"email"`
}

// SessionStore selects where the console keeps its token.
type SessionStore struct {
	Backend       string `yaml:"backend"` // file | redis
	Path          string `yaml:"path"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisPrefix   string `yaml:"redis_prefix"`
}

// Console is the configuration of cmd/wordcheck.
type Console struct {
	APIBaseURL string        `yaml:"api_base_url"`
	Timeout    time.Duration `yaml:"timeout"`
	AuthMode   string        `yaml:"auth_mode"` // stub | api, required
	JWTSecret  string        `yaml:"jwt_secret"`
	HealthAddr string        `yaml:"health_addr"`
	Stub       Stub          `yaml:"stub"`
	Session    SessionStore  `yaml:"session"`
}

// RecordStore selects the mock server's record backend.
type RecordStore struct {
	Backend     string `yaml:"backend"` // file | postgres
	Path        string `yaml:"path"`
	DSN         string `yaml:"dsn"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

// BlobStore selects where uploaded documents go.
type BlobStore struct {
	Backend   string `yaml:"backend"` // dir | minio
	Dir       string `yaml:"dir"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// Admin is the user seeded into an empty users collection.
type Admin struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Email    string `yaml:"email"`
}

// Server is the configuration of cmd/mockapi.
type Server struct {
	Addr              string        `yaml:"addr"`
	GRPCAddr          string        `yaml:"grpc_addr"`
	JWTSecret         string        `yaml:"jwt_secret"`
	TokenTTL          time.Duration `yaml:"token_ttl"`
	LoginRatePerMin   int           `yaml:"login_rate_per_min"`
	MaxUploadBytes    int64         `yaml:"max_upload_bytes"`
	CORSOrigins       []string      `yaml:"cors_origins"`
	ReadinessInterval time.Duration `yaml:"readiness_interval"`
	Records           RecordStore   `yaml:"records"`
	Blobs             BlobStore     `yaml:"blobs"`
	Admin             Admin         `yaml:"admin"`
}

type file struct {
	Console *Console `yaml:"console"`
	Server  *Server  `yaml:"server"`
}

// DefaultConsole has every field set except AuthMode, which must be chosen.
func DefaultConsole() Console {
	return Console{
		APIBaseURL: "http://localhost:3001/api",
		Timeout:    30 * time.Second,
		JWTSecret:  "wordcheck-dev-secret",
		HealthAddr: "localhost:3002",
		Stub:       Stub{Username: "admin", Password: "password", Email: "admin@example.com"},
		Session:    SessionStore{Backend: "file", RedisAddr: "localhost:6379", RedisPrefix: "wordcheck:session:"},
	}
}

func DefaultServer() Server {
	return Server{
		Addr:              ":3001",
		GRPCAddr:          ":3002",
		JWTSecret:         "wordcheck-dev-secret",
		TokenTTL:          24 * time.Hour,
		LoginRatePerMin:   30,
		MaxUploadBytes:    10 << 20,
		CORSOrigins:       []string{"http://localhost:3000", "http://localhost:5173"},
		ReadinessInterval: 10 * time.Second,
		Records:           RecordStore{Backend: "file", Path: "db.json"},
		Blobs:             BlobStore{Backend: "dir", Dir: "uploads", Bucket: "wordcheck"},
		Admin:             Admin{Username: "admin", Password: "password", Email: "admin@example.com"},
	}
}

// Lookup reads one environment variable.
type Lookup func(key string) (string, bool)

// LoadDotEnv loads .env from the working directory when present. Variables
// already set in the environment win.
func LoadDotEnv() {
	_ = godotenv.Load()
}

// LoadConsole applies defaults, the YAML file, .env and WORDCHECK_* variables
// in that order, then validates.
func LoadConsole() (Console, error) {
	LoadDotEnv()
	return loadConsole(os.LookupEnv)
}

// LoadServer is LoadConsole for the mock API server.
func LoadServer() (Server, error) {
	LoadDotEnv()
	return loadServer(os.LookupEnv)
}

func loadConsole(env Lookup) (Console, error) {
	cfg := DefaultConsole()
	f := file{Console: &cfg}
	if err := readFile(env, &f); err != nil {
		return Console{}, err
	}
	if err := applyConsoleEnv(&cfg, env); err != nil {
		return Console{}, err
	}
	return cfg, cfg.Validate()
}

func loadServer(env Lookup) (Server, error) {
	cfg := DefaultServer()
	f := file{Server: &cfg}
	if err := readFile(env, &f); err != nil {
		return Server{}, err
	}
	if err := applyServerEnv(&cfg, env); err != nil {
		return Server{}, err
	}
	return cfg, cfg.Validate()
}

// readFile decodes the YAML file over the defaults already in f. A missing
// default file is fine; a missing explicit file is an error.
func readFile(env Lookup, f *file) error {
	path, explicit := env(EnvConfigPath)
	if !explicit || path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil
		}
		path = filepath.Join(dir, "wordcheck", "config.yaml")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, f); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyConsoleEnv(c *Console, env Lookup) error {
	str(env, "WORDCHECK_API_URL", &c.APIBaseURL)
	str(env, "WORDCHECK_AUTH_MODE", &c.AuthMode)
	str(env, "WORDCHECK_JWT_SECRET", &c.JWTSecret)
	str(env, "WORDCHECK_HEALTH_ADDR", &c.HealthAddr)
	str(env, "WORDCHECK_STUB_USERNAME", &c.Stub.Username)
	str(env, "WORDCHECK_STUB_PASSWORD", &c.Stub.Password)
	str(env, "WORDCHECK_STUB_EMAIL", &c.Stub.Email)
	str(env, "WORDCHECK_SESSION_BACKEND", &c.Session.Backend)
	str(env, "WORDCHECK_SESSION_PATH", &c.Session.Path)
	str(env, "WORDCHECK_REDIS_ADDR", &c.Session.RedisAddr)
	str(env, "WORDCHECK_REDIS_PASSWORD", &c.Session.RedisPassword)
	str(env, "WORDCHECK_REDIS_PREFIX", &c.Session.RedisPrefix)
	return errors.Join(
		duration(env, "WORDCHECK_TIMEOUT", &c.Timeout),
		integer(env, "WORDCHECK_REDIS_DB", &c.Session.RedisDB),
	)
}

func applyServerEnv(s *Server, env Lookup) error {
	str(env, "WORDCHECK_ADDR", &s.Addr)
	str(env, "WORDCHECK_GRPC_ADDR", &s.GRPCAddr)
	str(env, "WORDCHECK_JWT_SECRET", &s.JWTSecret)
	str(env, "WORDCHECK_RECORDS", &s.Records.Backend)
	str(env, "WORDCHECK_DB_PATH", &s.Records.Path)
	str(env, "WORDCHECK_PG_DSN", &s.Records.DSN)
	str(env, "WORDCHECK_BLOBS", &s.Blobs.Backend)
	str(env, "WORDCHECK_UPLOAD_DIR", &s.Blobs.Dir)
	str(env, "WORDCHECK_MINIO_ENDPOINT", &s.Blobs.Endpoint)
	str(env, "WORDCHECK_MINIO_ACCESS_KEY", &s.Blobs.AccessKey)
	str(env, "WORDCHECK_MINIO_SECRET_KEY", &s.Blobs.SecretKey)
	str(env, "WORDCHECK_MINIO_BUCKET", &s.Blobs.Bucket)
	str(env, "WORDCHECK_ADMIN_USERNAME", &s.Admin.Username)
	str(env, "WORDCHECK_ADMIN_PASSWORD", &s.Admin.Password)
	str(env, "WORDCHECK_ADMIN_EMAIL", &s.Admin.Email)
	if v, ok := env("WORDCHECK_CORS_ORIGINS"); ok {
		s.CORSOrigins = splitList(v)
	}
	return errors.Join(
		duration(env, "WORDCHECK_TOKEN_TTL", &s.TokenTTL),
		duration(env, "WORDCHECK_READINESS_INTERVAL", &s.ReadinessInterval),
		integer(env, "WORDCHECK_LOGIN_RATE", &s.LoginRatePerMin),
		boolean(env, "WORDCHECK_PG_AUTO_MIGRATE", &s.Records.AutoMigrate),
		boolean(env, "WORDCHECK_MINIO_USE_SSL", &s.Blobs.UseSSL),
	)
}

// Validate checks that the console can start. auth_mode has no default.
func (c Console) Validate() error {
	var errs []error
	mode, modeErr := c.Mode()
	if strings.TrimSpace(c.AuthMode) == "" {
		errs = append(errs, fmt.Errorf("%w: auth_mode is required (stub or api)", ErrInvalid))
	} else if modeErr != nil {
		errs = append(errs, fmt.Errorf("%w: %v", ErrInvalid, modeErr))
	}
	if strings.TrimSpace(c.APIBaseURL) == "" {
		errs = append(errs, fmt.Errorf("%w: api_base_url is required", ErrInvalid))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: timeout must be positive", ErrInvalid))
	}
	if mode == auth.ModeStub && (c.Stub.Username == "" || c.Stub.Password == "" || c.JWTSecret == "") {
		errs = append(errs, fmt.Errorf("%w: stub mode needs stub.username, stub.password and jwt_secret", ErrInvalid))
	}
	switch c.Session.Backend {
	case "file", "":
	case "redis":
		if c.Session.RedisAddr == "" {
			errs = append(errs, fmt.Errorf("%w: session.redis_addr is required", ErrInvalid))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: unknown session backend %q", ErrInvalid, c.Session.Backend))
	}
	return errors.Join(errs...)
}

// Mode parses AuthMode.
func (c Console) Mode() (auth.Mode, error) {
	return auth.ParseMode(c.AuthMode)
}

func (s Server) Validate() error {
	var errs []error
	if s.Addr == "" {
		errs = append(errs, fmt.Errorf("%w: addr is required", ErrInvalid))
	}
	if s.JWTSecret == "" {
		errs = append(errs, fmt.Errorf("%w: jwt_secret is required", ErrInvalid))
	}
	if s.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("%w: token_ttl must be positive", ErrInvalid))
	}
	switch s.Records.Backend {
	case "file":
	case "postgres":
		if s.Records.DSN == "" {
			errs = append(errs, fmt.Errorf("%w: records.dsn is required for postgres", ErrInvalid))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: unknown records backend %q", ErrInvalid, s.Records.Backend))
	}
	switch s.Blobs.Backend {
	case "dir":
		if s.Blobs.Dir == "" {
			errs = append(errs, fmt.Errorf("%w: blobs.dir is required", ErrInvalid))
		}
	case "minio":
		if s.Blobs.Endpoint == "" || s.Blobs.Bucket == "" {
			errs = append(errs, fmt.Errorf("%w: blobs.endpoint and blobs.bucket are required for minio", ErrInvalid))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: unknown blobs backend %q", ErrInvalid, s.Blobs.Backend))
	}
	if s.Admin.Username == "" || s.Admin.Password == "" {
		errs = append(errs, fmt.Errorf("%w: admin.username and admin.password are required", ErrInvalid))
	}
	return errors.Join(errs...)
}

func str(env Lookup, key string, dst *string) {
	if v, ok := env(key); ok {
		*dst = strings.TrimSpace(v)
	}
}

func duration(env Lookup, key string, dst *time.Duration) error {
	v, ok := env(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalid, key, err)
	}
	*dst = d
	return nil
}

func integer(env Lookup, key string, dst *int) error {
	v, ok := env(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalid, key, err)
	}
	*dst = n
	return nil
}

func boolean(env Lookup, key string, dst *bool) error {
	v, ok := env(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalid, key, err)
	}
	*dst = b
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
