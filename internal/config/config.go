package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr string
	LogLevel string

	PostgresDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	UploadsRoot string
	RosterPath  string

	FabricChannel   string
	FabricChaincode string
	IssuerOrg       string
	SignerOrg       string
	TokenTTLMinutes int

	AkademikGatewayURL  string
	AkademikAdminUser   string
	AkademikAdminSecret string
	RektorGatewayURL    string
	RektorAdminUser     string
	RektorAdminSecret   string

	ClusterAPIURL         string
	ClusterFallbackAPIURL string
	ClusterUsername       string
	ClusterPassword       string
	IPFSGatewayURL        string
}

// OrgGateway binds one ledger organization to its REST gateway and the
// administrative identity enrolled at start-up.
type OrgGateway struct {
	Name        string
	GatewayURL  string
	AdminUser   string
	AdminSecret string
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:              addr,
		LogLevel:              envDefault("LOG_LEVEL", "info"),
		PostgresDSN:           os.Getenv("POSTGRES_DSN"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               envIntDefault("REDIS_DB", 0),
		UploadsRoot:           envDefault("UPLOADS_ROOT", "uploads"),
		RosterPath:            os.Getenv("ROSTER_PATH"),
		FabricChannel:         envDefault("FABRIC_CHANNEL", "ijazah-channel"),
		FabricChaincode:       envDefault("FABRIC_CHAINCODE", "ijazah-contract"),
		IssuerOrg:             envDefault("ISSUER_ORG", "akademik"),
		SignerOrg:             envDefault("SIGNER_ORG", "rektor"),
		TokenTTLMinutes:       envIntDefault("TOKEN_TTL_MINUTES", 60),
		AkademikGatewayURL:    os.Getenv("FABRIC_GATEWAY_AKADEMIK_URL"),
		AkademikAdminUser:     envDefault("FABRIC_ADMIN_AKADEMIK_USER", "admin"),
		AkademikAdminSecret:   os.Getenv("FABRIC_ADMIN_AKADEMIK_SECRET"),
		RektorGatewayURL:      os.Getenv("FABRIC_GATEWAY_REKTOR_URL"),
		RektorAdminUser:       envDefault("FABRIC_ADMIN_REKTOR_USER", "admin"),
		RektorAdminSecret:     os.Getenv("FABRIC_ADMIN_REKTOR_SECRET"),
		ClusterAPIURL:         os.Getenv("CLUSTER_API_URL"),
		ClusterFallbackAPIURL: os.Getenv("CLUSTER_FALLBACK_API_URL"),
		ClusterUsername:       os.Getenv("CLUSTER_USERNAME"),
		ClusterPassword:       os.Getenv("CLUSTER_PASSWORD"),
		IPFSGatewayURL:        envDefault("IPFS_GATEWAY_URL", "https://ipfs.io"),
	}
}

// FabricOrganizations lists the configured organizations; entries with
// no gateway URL are skipped so a single-org deployment still starts.
func (c Config) FabricOrganizations() []OrgGateway {
	orgs := make([]OrgGateway, 0, 2)
	if c.AkademikGatewayURL != "" {
		orgs = append(orgs, OrgGateway{
			Name:        c.IssuerOrg,
			GatewayURL:  c.AkademikGatewayURL,
			AdminUser:   c.AkademikAdminUser,
			AdminSecret: c.AkademikAdminSecret,
		})
	}
	if c.RektorGatewayURL != "" {
		orgs = append(orgs, OrgGateway{
			Name:        c.SignerOrg,
			GatewayURL:  c.RektorGatewayURL,
			AdminUser:   c.RektorAdminUser,
			AdminSecret: c.RektorAdminSecret,
		})
	}
	return orgs
}

func (c Config) TokenTTL() time.Duration {
	if c.TokenTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.TokenTTLMinutes) * time.Minute
}

func envDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func envIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed < 0 {
		return def
	}
	return parsed
}
