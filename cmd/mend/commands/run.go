package commands

import (
	"os"

	"github.com/mendnet/mend/src/mend"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var fileLog bool

//NewRunCmd returns the command that starts a mend node
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run node",
		PreRunE: loadConfig,
		RunE:    runMend,
	}
	AddRunFlags(cmd)
	return cmd
}

/*******************************************************************************
* RUN
*******************************************************************************/

func runMend(cmd *cobra.Command, args []string) error {
	engine := mend.NewMend(_config)

	if err := engine.Init(); err != nil {
		_config.Logger().Error("Cannot initialize engine:", err)
		return err
	}

	engine.Run()

	return nil
}

/*******************************************************************************
* CONFIG
*******************************************************************************/

//AddRunFlags adds flags to the Run command
func AddRunFlags(cmd *cobra.Command) {

	cmd.Flags().String("datadir", _config.DataDir, "Top-level directory for configuration and data")
	cmd.Flags().String("log", _config.LogLevel, "debug, info, warn, error, fatal, panic")
	cmd.Flags().String("moniker", _config.Moniker, "Optional name")
	cmd.Flags().IntP("index", "i", _config.Index, "Index of this node in peers.json")
	cmd.Flags().BoolVar(&fileLog, "file-log", false, "Also write info and debug logs to files")

	// Network
	cmd.Flags().StringP("listen", "l", _config.BindAddr, "Listen IP:Port for mend node")
	cmd.Flags().StringP("advertise", "a", _config.AdvertiseAddr, "Advertise IP:Port for mend node")
	cmd.Flags().DurationP("timeout", "t", _config.TCPTimeout, "TCP Timeout")
	cmd.Flags().Duration("heal-timeout", _config.HealTimeout, "Timeout for ticket validations during recovery")
	cmd.Flags().Int("max-pool", _config.MaxPool, "Connection pool size max")

	// Service
	cmd.Flags().StringP("service-listen", "s", _config.ServiceAddr, "Listen IP:Port for HTTP service")
	cmd.Flags().Bool("no-service", _config.NoService, "Disable the HTTP service")

	// Store
	cmd.Flags().Bool("store", _config.Store, "Use badgerDB instead of in-mem DB")
	cmd.Flags().String("db", _config.DatabaseDir, "Database directory")
	cmd.Flags().Duration("flush-interval", _config.FlushInterval, "Time between vault flushes")

	// Tickets
	cmd.Flags().Int("pool-size", _config.PoolSize, "Number of ticket slots")
	cmd.Flags().Int("ticket-cap", _config.TicketCap, "Max coins per ticket")
	cmd.Flags().Duration("ticket-ttl", _config.TicketTTL, "Ticket lifetime")
}

func loadConfig(cmd *cobra.Command, args []string) error {

	err := bindFlagsLoadViper(cmd)
	if err != nil {
		return err
	}

	// If --datadir was explicitely set, but not --db, this will update the
	// default database dir to be inside the new datadir
	_config.SetDataDir(_config.DataDir)

	if fileLog {
		addFileLogging(_config.Logger().Logger)
	}

	logFields := logrus.Fields{
		"DataDir":       _config.DataDir,
		"BindAddr":      _config.BindAddr,
		"AdvertiseAddr": _config.AdvertiseAddr,
		"ServiceAddr":   _config.ServiceAddr,
		"NoService":     _config.NoService,
		"Index":         _config.Index,
		"MaxPool":       _config.MaxPool,
		"Store":         _config.Store,
		"LogLevel":      _config.LogLevel,
		"Moniker":       _config.Moniker,
		"TCPTimeout":    _config.TCPTimeout,
		"HealTimeout":   _config.HealTimeout,
		"TicketTTL":     _config.TicketTTL,
		"PoolSize":      _config.PoolSize,
		"TicketCap":     _config.TicketCap,
		"FlushInterval": _config.FlushInterval,
	}

	if _config.Store {
		logFields["DatabaseDir"] = _config.DatabaseDir
	}

	_config.Logger().WithFields(logFields).Debug("RUN")

	return nil
}

// Bind all flags and read the config into viper
func bindFlagsLoadViper(cmd *cobra.Command) error {
	// Register flags with viper. Include flags from this command and all other
	// persistent flags from the parent
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// first unmarshal to read from CLI flags
	if err := viper.Unmarshal(_config); err != nil {
		return err
	}

	// look for config file in [datadir]/mend.toml (.json, .yaml also work)
	viper.SetConfigName("mend")          // name of config file (without extension)
	viper.AddConfigPath(_config.DataDir) // search root directory

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		_config.Logger().Debugf("Using config file: %s", viper.ConfigFileUsed())
	} else if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		_config.Logger().Debugf("No config file found in: %s", _config.DataDir)
	} else {
		return err
	}

	// second unmarshal to read from config file
	return viper.Unmarshal(_config)
}

// addFileLogging tees info and debug lines into files next to the process.
func addFileLogging(logger *logrus.Logger) {
	pathMap := lfshook.PathMap{}

	if _, err := os.OpenFile("mend_info.log", os.O_CREATE|os.O_WRONLY, 0666); err != nil {
		logger.Info("Failed to open mend_info.log file, using default stderr")
	} else {
		pathMap[logrus.InfoLevel] = "mend_info.log"
	}

	if _, err := os.OpenFile("mend_debug.log", os.O_CREATE|os.O_WRONLY, 0666); err != nil {
		logger.Info("Failed to open mend_debug.log file, using default stderr")
	} else {
		pathMap[logrus.DebugLevel] = "mend_debug.log"
	}

	logger.Hooks.Add(lfshook.NewHook(
		pathMap,
		&logrus.TextFormatter{},
	))
}
