package models

type Config struct {
	Warehouse Warehouse    `yaml:"warehouse"`
	Cache     CacheConfig  `yaml:"cache"`
	Log       LogConfig    `yaml:"log"`
	Output    OutputConfig `yaml:"output"`
}

// Warehouse describes how to reach the payments warehouse. Password holds
// plaintext, ENC[...] or keyring:<account>; Account, Warehouse and Role
// only apply to Snowflake. Timeout and ConnMaxLifetime are durations
// such as "30s" or "5m".
type Warehouse struct {
	Driver          string            `yaml:"driver"`
	Host            string            `yaml:"host"`
	Port            int               `yaml:"port"`
	Username        string            `yaml:"username"`
	Password        string            `yaml:"password"`
	Database        string            `yaml:"database"`
	Schema          string            `yaml:"schema"`
	Account         string            `yaml:"account"`
	Warehouse       string            `yaml:"warehouse"`
	Role            string            `yaml:"role"`
	Timeout         string            `yaml:"timeout"`
	MaxOpenConns    int               `yaml:"max_open_conns"`
	MaxIdleConns    int               `yaml:"max_idle_conns"`
	ConnMaxLifetime string            `yaml:"conn_max_lifetime"`
	Params          map[string]string `yaml:"params,omitempty"`
}

// CacheConfig controls the catalog result cache
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	// Token versions cached results; "auto" fingerprints the store
	Token string `yaml:"token"`
	// TTL empty means entries live until the process exits
	TTL        string `yaml:"ttl"`
	MaxEntries int    `yaml:"max_entries"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

type OutputConfig struct {
	Format string `yaml:"format"` // table, json or csv
}
