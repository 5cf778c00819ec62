package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/slighter12/go-lib/database/postgres"
	"github.com/spf13/pflag"
)

const (
	defaultPath               = "."
	defaultMaxRequestBodySize = "2MB"
	defaultAccessTokenTTL     = 15 * time.Minute
	defaultRefreshTokenTTL    = 30 * 24 * time.Hour
	defaultConnectRetries     = 5
	minSecretKeyLength        = 32
)

const (
	EnvDevelop    = "development"
	EnvStaging    = "staging"
	EnvProduction = "production"
)

const (
	HasherArgon2id = "argon2id"
	HasherBcrypt   = "bcrypt"
)

const (
	RefreshStorePostgres = "postgres"
	RefreshStoreRedis    = "redis"
)

const (
	LockModeWait   = "wait"
	LockModeNoWait = "nowait"
	LockModeSkip   = "skip"
)

const (
	PubSubProviderNoop   = "noop"
	PubSubProviderLocal  = "local"
	PubSubProviderGoogle = "google"
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port               int    `json:"port" yaml:"port"`
		MaxRequestBodySize string `json:"maxRequestBodySize" yaml:"maxRequestBodySize"`
		Timeouts           struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	Worker *WorkerConfig `json:"worker" yaml:"worker"`

	Postgres *postgres.DBConn `json:"postgres" yaml:"postgres" mapstructure:"postgres"`

	Database DatabaseConfig `json:"database" yaml:"database"`

	SecretKey struct {
		Access string `json:"access" yaml:"access"`
	} `json:"secretKey" yaml:"secretKey"`

	Auth *AuthConfig `json:"auth" yaml:"auth"`

	Redis *RedisConfig `json:"redis" yaml:"redis"`

	// Storage configuration for uploaded resumes
	Storage *StorageConfig `json:"storage" yaml:"storage"`

	// PubSub configuration for event publishing
	PubSub *PubSubConfig `json:"pubsub" yaml:"pubsub"`

	// Notification configuration for lead assignment mails
	Notification *NotificationConfig `json:"notification" yaml:"notification"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// WorkerConfig defines the push worker listener
type WorkerConfig struct {
	Port           int  `json:"port" yaml:"port"`
	VerifyPushAuth bool `json:"verifyPushAuth" yaml:"verifyPushAuth"`
}

// DatabaseConfig holds behaviour that is not part of the connection itself
type DatabaseConfig struct {
	// LockMode selects how concurrent refresh token redemptions meet: wait, nowait or skip
	LockMode       string `json:"lockMode" yaml:"lockMode"`
	ConnectRetries uint64 `json:"connectRetries" yaml:"connectRetries"`
	MigrateOnStart bool   `json:"migrateOnStart" yaml:"migrateOnStart"`
}

// AuthConfig defines authentication-related configuration
type AuthConfig struct {
	Issuer          string        `json:"issuer" yaml:"issuer"`
	AccessTokenTTL  time.Duration `json:"accessTokenTTL" yaml:"accessTokenTTL"`
	RefreshTokenTTL time.Duration `json:"refreshTokenTTL" yaml:"refreshTokenTTL"`
	Hasher          string        `json:"hasher" yaml:"hasher"`
	BcryptCost      int           `json:"bcryptCost" yaml:"bcryptCost"`
	Argon2          Argon2Config  `json:"argon2" yaml:"argon2"`
	RefreshStore    string        `json:"refreshStore" yaml:"refreshStore"`
}

// Argon2Config mirrors the argon2id cost parameters
type Argon2Config struct {
	Memory      uint32 `json:"memory" yaml:"memory"`
	Iterations  uint32 `json:"iterations" yaml:"iterations"`
	Parallelism uint8  `json:"parallelism" yaml:"parallelism"`
	SaltLength  uint32 `json:"saltLength" yaml:"saltLength"`
	KeyLength   uint32 `json:"keyLength" yaml:"keyLength"`
}

type RedisConfig struct {
	Addr      string `json:"addr" yaml:"addr"`
	Password  string `json:"password" yaml:"password"`
	DB        int    `json:"db" yaml:"db"`
	KeyPrefix string `json:"keyPrefix" yaml:"keyPrefix"`
}

// StorageConfig points at a gocloud blob bucket, e.g. file:///var/resumes or s3://bucket?region=us-east-1
type StorageConfig struct {
	BucketURL string `json:"bucketUrl" yaml:"bucketUrl"`
}

// PubSubConfig defines Pub/Sub configuration for event publishing
type PubSubConfig struct {
	// Provider type: "noop", "local" for local HTTP or "google" for Google Pub/Sub
	Provider string `json:"provider" yaml:"provider"`

	// Google Cloud project ID (for google provider)
	ProjectID string `json:"projectId" yaml:"projectId"`

	// Pub/Sub topic ID (for google provider)
	TopicID string `json:"topicId" yaml:"topicId"`

	// Local HTTP endpoint for development (for local provider)
	LocalEndpoint string `json:"localEndpoint" yaml:"localEndpoint"`
}

type NotificationConfig struct {
	EmailEnabled bool       `json:"emailEnabled" yaml:"emailEnabled"`
	SMTP         SMTPConfig `json:"smtp" yaml:"smtp"`
}

type SMTPConfig struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	UserName string `json:"userName" yaml:"userName"`
	Password string `json:"password" yaml:"password"`
	From     string `json:"from" yaml:"from"`
}

// ConfigFileFlag names the CLI flag that points at an explicit config file.
const ConfigFileFlag = "config"

// flagKeys maps CLI flag names to config keys.
var flagKeys = map[string]string{
	"log-level":   "env.log.level",
	"http-port":   "http.port",
	"worker-port": "worker.port",
}

// LoadWithEnv loads .yaml files through koanf.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	return LoadWithFlags[T](currEnv, nil, configPath...)
}

// LoadWithFlags loads .yaml files through koanf, then env variables, then changed CLI flags.
func LoadWithFlags[T any](currEnv string, flags *pflag.FlagSet, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	explicit := os.Getenv("LEADINTAKE_CONFIG")
	if flags != nil {
		if f := flags.Lookup(ConfigFileFlag); f != nil && f.Changed {
			explicit = f.Value.String()
		}
	}

	configFile, err := findConfigFile(currEnv, explicit, configPath...)
	if err != nil {
		return nil, err
	}

	// Load YAML config file
	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	// Load environment variables
	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			// POSTGRES_SSLMODE -> postgres.sslMode (not postgres.sslmode)
			key := canonicalizeEnvKey(k, existingConfigMap)

			return key, v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", koanfInstance, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}

			return key, posflag.FlagVal(flags, f)
		})
		if err := koanfInstance.Load(provider, nil); err != nil {
			return nil, errors.Wrap(err, "load flags failed")
		}
	}

	// Unmarshal into the config struct (case-insensitive to match env vars)
	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

func findConfigFile(currEnv, explicit string, configPath ...string) (string, error) {
	// An explicit file wins over the search path
	if explicit != "" {
		return explicit, nil
	}

	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return "", errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			searchPaths = append(searchPaths, filepath.Join(pwd, path))
		}
	}

	for _, path := range searchPaths {
		candidate := filepath.Join(path, currEnv+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", errors.Errorf("config file %s.yaml not found in any search path", currEnv)
}

// New loads the process-wide configuration without CLI overrides.
func New() (*Config, error) {
	return NewWithFlags(nil)
}

// NewWithFlags loads the process-wide configuration, applying changed flags from the given set.
func NewWithFlags(flags *pflag.FlagSet) (*Config, error) {
	cfg, err := LoadWithFlags[Config]("config", flags, "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	if cfg.Postgres != nil {
		// POSTGRES_REPLICAS_0_HOST, POSTGRES_REPLICAS_0_PORT, ...
		if replicas := buildReplicasFromEnv(); len(replicas) > 0 {
			cfg.Postgres.Replicas = replicas
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.HTTP.MaxRequestBodySize) == "" {
		c.HTTP.MaxRequestBodySize = defaultMaxRequestBodySize
	}
	if c.Env.Env == "" {
		c.Env.Env = EnvDevelop
	}
	if c.Env.ServiceName == "" {
		c.Env.ServiceName = "leadintake"
	}
	if c.Worker == nil {
		c.Worker = &WorkerConfig{Port: 8081}
	}
	if c.Database.LockMode == "" {
		c.Database.LockMode = LockModeWait
	}
	if c.Database.ConnectRetries == 0 {
		c.Database.ConnectRetries = defaultConnectRetries
	}
	if c.Auth == nil {
		c.Auth = &AuthConfig{}
	}
	if c.Auth.AccessTokenTTL <= 0 {
		c.Auth.AccessTokenTTL = defaultAccessTokenTTL
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		c.Auth.RefreshTokenTTL = defaultRefreshTokenTTL
	}
	if c.Auth.Hasher == "" {
		c.Auth.Hasher = HasherArgon2id
	}
	if c.Auth.RefreshStore == "" {
		c.Auth.RefreshStore = RefreshStorePostgres
	}
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = c.Env.ServiceName
	}
	if c.Storage == nil {
		c.Storage = &StorageConfig{BucketURL: "mem://"}
	}
	if c.PubSub == nil {
		c.PubSub = &PubSubConfig{Provider: PubSubProviderNoop}
	}
	if c.Notification == nil {
		c.Notification = &NotificationConfig{}
	}
}

// Validate rejects configurations the service cannot safely run with.
func (c *Config) Validate() error {
	if c.SecretKey.Access == "" {
		return errors.New("secretKey.access is required")
	}
	if c.Env.Env != EnvDevelop && len(c.SecretKey.Access) < minSecretKeyLength {
		return errors.Errorf("secretKey.access must be at least %d bytes outside %s", minSecretKeyLength, EnvDevelop)
	}

	switch c.Auth.Hasher {
	case HasherArgon2id, HasherBcrypt:
	default:
		return errors.Errorf("unsupported auth.hasher %q", c.Auth.Hasher)
	}

	switch c.Auth.RefreshStore {
	case RefreshStorePostgres:
	case RefreshStoreRedis:
		if c.Redis == nil || c.Redis.Addr == "" {
			return errors.New("redis.addr is required when auth.refreshStore is redis")
		}
	default:
		return errors.Errorf("unsupported auth.refreshStore %q", c.Auth.RefreshStore)
	}

	switch c.Database.LockMode {
	case LockModeWait, LockModeNoWait, LockModeSkip:
	default:
		return errors.Errorf("unsupported database.lockMode %q", c.Database.LockMode)
	}

	return nil
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}

// buildReplicasFromEnv builds the replicas slice from environment variables.
// Format: POSTGRES_REPLICAS_{index}_{HOST|PORT|USERNAME|PASSWORD}
func buildReplicasFromEnv() []postgres.ConnectionConfig {
	var replicas []postgres.ConnectionConfig

	for i := 0; ; i++ {
		prefix := "POSTGRES_REPLICAS_" + strconv.Itoa(i) + "_"

		host := os.Getenv(prefix + "HOST")
		port := os.Getenv(prefix + "PORT")
		if host == "" || port == "" {
			break
		}

		replicas = append(replicas, postgres.ConnectionConfig{
			Host:     host,
			Port:     port,
			UserName: os.Getenv(prefix + "USERNAME"),
			Password: os.Getenv(prefix + "PASSWORD"),
		})
	}

	return replicas
}
