package config

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/mendnet/mend/src/common"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// Default filenames.
const (
	// DefaultBadgerFile is the default name of the folder containing the Badger
	// database
	DefaultBadgerFile = "badger_db"

	// DefaultDeedFile is the default name of the file where mend seed writes
	// the authentication values of a freshly minted vault.
	DefaultDeedFile = "deed.json"
)

// Default configuration values.
const (
	DefaultLogLevel      = "debug"
	DefaultBindAddr      = "127.0.0.1:1337"
	DefaultServiceAddr   = "127.0.0.1:8000"
	DefaultTCPTimeout    = 1000 * time.Millisecond
	DefaultHealTimeout   = 32 * time.Second
	DefaultMaxPool       = 2
	DefaultStore         = false
	DefaultPoolSize      = 512
	DefaultTicketTTL     = 300 * time.Second
	DefaultTicketCap     = 4096
	DefaultFlushInterval = 1000 * time.Millisecond
)

// Config contains all the configuration properties of a mend node.
type Config struct {
	// DataDir is the top-level directory containing mend configuration and
	// data
	DataDir string `mapstructure:"datadir"`

	// LogLevel determines the chattiness of the log output.
	LogLevel string `mapstructure:"log"`

	// BindAddr is the local address:port where this node answers coin
	// operations and talks to other nodes. In some cases, there may be a
	// routable address that cannot be bound. Use AdvertiseAddr to advertise a
	// different address to support this.
	BindAddr string `mapstructure:"listen"`

	// AdvertiseAddr is used to change the address that we advertise to other
	// nodes.
	AdvertiseAddr string `mapstructure:"advertise"`

	// Index is this node's position in the peer set. It doubles as the offset
	// of this node's entry in the ticket list of a recovery request, and as
	// the prefix byte of every authentication value this node derives.
	Index int `mapstructure:"index"`

	// NoService disables the HTTP API service.
	NoService bool `mapstructure:"no-service"`

	// ServiceAddr is the address:port of the optional HTTP service. If not
	// specified, and "no-service" is not set, the API handlers are registered
	// with the DefaultServerMux of the http package. It is possible that
	// another server in the same process is simultaneously using the
	// DefaultServerMux. In which case, the handlers will be accessible from
	// both servers.
	ServiceAddr string `mapstructure:"service-listen"`

	// MaxPool controls how many connections are pooled per target in the
	// inter-node RPC routines.
	MaxPool int `mapstructure:"max-pool"`

	// TCPTimeout is the timeout of plain RPC connections.
	TCPTimeout time.Duration `mapstructure:"timeout"`

	// HealTimeout bounds each validation call of a recovery fan-out. A peer
	// that has not answered within this delay contributes no votes.
	HealTimeout time.Duration `mapstructure:"heal-timeout"`

	// TicketTTL is how long an issued ticket can be validated before its slot
	// is recycled.
	TicketTTL time.Duration `mapstructure:"ticket-ttl"`

	// PoolSize is the number of ticket slots. The pool is allocated once at
	// startup and never resized.
	PoolSize int `mapstructure:"pool-size"`

	// TicketCap is the maximum number of coins a single ticket vouches for.
	TicketCap int `mapstructure:"ticket-cap"`

	// FlushInterval is the period of the background loop that writes dirty
	// vault records to disk. It is only relevant with Store enabled.
	FlushInterval time.Duration `mapstructure:"flush-interval"`

	// Store activates persistent storage of the vault.
	Store bool `mapstructure:"store"`

	// DatabaseDir is the directory containing database files.
	DatabaseDir string `mapstructure:"db"`

	// Moniker defines the friendly name of this node
	Moniker string `mapstructure:"moniker"`

	logger *logrus.Logger
}

// NewDefaultConfig returns a config object with default values.
func NewDefaultConfig() *Config {
	config := &Config{
		DataDir:       DefaultDataDir(),
		LogLevel:      DefaultLogLevel,
		BindAddr:      DefaultBindAddr,
		ServiceAddr:   DefaultServiceAddr,
		MaxPool:       DefaultMaxPool,
		TCPTimeout:    DefaultTCPTimeout,
		HealTimeout:   DefaultHealTimeout,
		TicketTTL:     DefaultTicketTTL,
		PoolSize:      DefaultPoolSize,
		TicketCap:     DefaultTicketCap,
		FlushInterval: DefaultFlushInterval,
		Store:         DefaultStore,
		DatabaseDir:   DefaultDatabaseDir(),
	}

	return config
}

// NewTestConfig returns a config object with default values and a special
// logger for debugging tests.
func NewTestConfig(t testing.TB) *Config {
	config := NewDefaultConfig()
	config.logger = common.NewTestLogger(t)
	return config
}

// SetDataDir sets the top-level mend directory, and updates the database
// directory if it is currently set to the default value. If the database
// directory is not currently the default, it means the user has explicitly
// set it to something else, so avoid changing it again here.
func (c *Config) SetDataDir(dataDir string) {
	c.DataDir = dataDir
	if c.DatabaseDir == DefaultDatabaseDir() {
		c.DatabaseDir = filepath.Join(dataDir, DefaultBadgerFile)
	}
}

// DeedFile returns the full path of the file where mend seed records the
// authentication values of a minted vault.
func (c *Config) DeedFile() string {
	return filepath.Join(c.DataDir, DefaultDeedFile)
}

// Logger returns a formatted logrus Entry, with prefix set to "mend".
func (c *Config) Logger() *logrus.Entry {
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.Level = LogLevel(c.LogLevel)
		c.logger.Formatter = new(prefixed.TextFormatter)
	}
	return c.logger.WithField("prefix", "mend")
}

// DefaultDatabaseDir returns the default path for the badger database files.
func DefaultDatabaseDir() string {
	return filepath.Join(DefaultDataDir(), DefaultBadgerFile)
}

// DefaultDataDir return the default directory name for top-level mend config
// based on the underlying OS, attempting to respect conventions.
func DefaultDataDir() string {
	// Try to place the data folder in the user's home dir
	home := HomeDir()
	if home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, ".Mend")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "Mend")
		} else {
			return filepath.Join(home, ".mend")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

// HomeDir returns the user's home directory.
func HomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

// LogLevel parses a string into a Logrus log level.
func LogLevel(l string) logrus.Level {
	switch l {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.DebugLevel
	}
}
