package config

import (
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	defaultPath          = "."
	defaultTokenLength   = 12
	defaultShift         = 3
	defaultCooldown      = 120
	defaultExpiredTime   = 300
	defaultRotation      = 86400
	defaultSweepInterval = 60
	defaultKeyDir        = "keys"

	// defaultObfuscationTable contains neither '=' nor '_'; those collide
	// with the padding sentinel and are rejected by validation.
	defaultObfuscationTable = "jQNHxo9a1zVG8dFcyb27XmiwOl0WULnkPsBKqEAZYfer3t5RMDSCJhgvu4pT-.*~"
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port int `json:"port" yaml:"port"`
	} `json:"http" yaml:"http"`

	MySQL *MySQLConfig `json:"mysql" yaml:"mysql" validate:"required"`

	AuthLink *AuthLinkConfig `json:"authLink" yaml:"authLink" validate:"required"`

	// QRCode configuration for issued-link QR codes
	QRCode *QRCodeConfig `json:"qrcode" yaml:"qrcode"`
}

// QRCodeConfig defines QR code generation configuration
type QRCodeConfig struct {
	Size                 int    `json:"size" yaml:"size"`
	ErrorCorrectionLevel string `json:"errorCorrectionLevel" yaml:"errorCorrectionLevel"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// MySQLConfig defines the MySQL connection parameters for the record store.
type MySQLConfig struct {
	Host         string `json:"host" yaml:"host" validate:"required"`
	Port         int    `json:"port" yaml:"port" validate:"required"`
	UserName     string `json:"userName" yaml:"userName" validate:"required"`
	Password     string `json:"password" yaml:"password"`
	Database     string `json:"database" yaml:"database" validate:"required"`
	TableName    string `json:"tableName" yaml:"tableName" validate:"required"`
	MaxOpenConns int    `json:"maxOpenConns" yaml:"maxOpenConns"`
	MaxIdleConns int    `json:"maxIdleConns" yaml:"maxIdleConns"`
}

// AuthLinkConfig holds the issuance protocol settings.
type AuthLinkConfig struct {
	// Salt is the shared secret mixed into the payload hash. Verifiers must
	// hold the same value.
	Salt string `json:"salt" yaml:"salt" validate:"required"`

	// TokenLength is the number of characters in a generated token.
	TokenLength int `json:"tokenLength" yaml:"tokenLength" validate:"min=1"`

	// Endpoint is the external URL template; {data}, {hash} and {token} are
	// substituted at issuance.
	Endpoint string `json:"endpoint" yaml:"endpoint" validate:"required"`

	// Cooldown is the minimum interval in seconds between issuances for the
	// same subject/action pair.
	Cooldown int `json:"cooldown" yaml:"cooldown" validate:"min=0"`

	// ExpiredTime is the lifetime of an issued link in seconds.
	ExpiredTime int `json:"expiredTime" yaml:"expiredTime" validate:"min=1"`

	// Actions is the allow-list of issuable actions.
	Actions []string `json:"actions" yaml:"actions" validate:"required,min=1"`

	// Codec selects the payload transport: "obfuscate" (rotating substitution)
	// or "rsa" (asymmetric encryption).
	Codec string `json:"codec" yaml:"codec" validate:"oneof=obfuscate rsa"`

	// Base64Shift is the cyclic shift applied over the base64 alphabet. Nil
	// means unset; an explicit 0 disables the shift.
	Base64Shift *int `json:"base64Shift" yaml:"base64Shift"`

	// Base64ObfuscationTable is the disguised target alphabet. 62 to 64
	// characters; positions past its end keep the standard character. It must
	// not contain '=' or '_': '_' is the padding sentinel and either one
	// corrupts decoding by colliding with the sentinel mapping.
	Base64ObfuscationTable string `json:"base64ObfuscationTable" yaml:"base64ObfuscationTable" validate:"min=62,max=64,excludesall==_"`

	// RotationTimestamp is the substitution-table rotation period in seconds.
	RotationTimestamp int `json:"rotationTimestamp" yaml:"rotationTimestamp" validate:"min=1"`

	// KeyDir is the directory holding the public/private key files for the
	// asymmetric codec.
	KeyDir string `json:"keyDir" yaml:"keyDir"`

	// SweepInterval is the cadence in seconds of the expired-record sweeper.
	SweepInterval int `json:"sweepInterval" yaml:"sweepInterval" validate:"min=1"`
}

// LoadWithEnv loads .yaml files through koanf.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	// Build list of paths to search for config file
	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			abs := filepath.Join(pwd, path)
			searchPaths = append(searchPaths, abs)
		}
	}

	// Try to find and load the config file
	var configFile string
	var found bool
	for _, path := range searchPaths {
		candidate := filepath.Join(path, currEnv+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
			found = true

			break
		}
	}

	if !found {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	// Load YAML config file
	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	// Load environment variables
	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			// Convert ENV_VAR_NAME to path and align each segment with existing YAML keys.
			// Example: MYSQL_TABLENAME -> mysql.tableName (not mysql.tablename)
			key := canonicalizeEnvKey(k, existingConfigMap)

			return key, v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	// Unmarshal into the config struct (case-insensitive to match env vars)
	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			MatchName: func(mapKey, fieldName string) bool {
				// Case-insensitive matching for env var overrides
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

func New() (*Config, error) {
	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := validator.New().Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.AuthLink == nil {
		return
	}
	if cfg.AuthLink.TokenLength == 0 {
		cfg.AuthLink.TokenLength = defaultTokenLength
	}
	if cfg.AuthLink.Base64Shift == nil {
		shift := defaultShift
		cfg.AuthLink.Base64Shift = &shift
	}
	if cfg.AuthLink.Base64ObfuscationTable == "" {
		cfg.AuthLink.Base64ObfuscationTable = defaultObfuscationTable
	}
	if cfg.AuthLink.Cooldown == 0 {
		cfg.AuthLink.Cooldown = defaultCooldown
	}
	if cfg.AuthLink.ExpiredTime == 0 {
		cfg.AuthLink.ExpiredTime = defaultExpiredTime
	}
	if cfg.AuthLink.RotationTimestamp == 0 {
		cfg.AuthLink.RotationTimestamp = defaultRotation
	}
	if cfg.AuthLink.SweepInterval == 0 {
		cfg.AuthLink.SweepInterval = defaultSweepInterval
	}
	if cfg.AuthLink.Codec == "" {
		cfg.AuthLink.Codec = "obfuscate"
	}
	if cfg.AuthLink.KeyDir == "" {
		cfg.AuthLink.KeyDir = defaultKeyDir
	}
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
