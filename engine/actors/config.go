package actors

import (
	"os"
	"time"

	"github.com/spf13/viper"
	"keyledger/engine/library"
)

// InitConfig sets up our Viper config object
func InitConfig(config *viper.Viper) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		library.LogCLI(err.Error(), 0)
	}
	config.SetDefault("rootDir", homeDir+"/keyledger/")
	config.SetConfigType("yaml")
	config.SetConfigFile(config.GetString("rootDir") + "config.yaml")
	err = config.ReadInConfig()
	if err != nil {
		library.LogCLI(err.Error(), 4)
	}
	SetDefaults(config)
	// Create our working directory and config file if not exist
	initRootDir(config)
	touch(config.GetString("rootDir") + "config.yaml")
	err = config.WriteConfig()
	if err != nil {
		library.LogCLI(err.Error(), 0)
	}
	library.SetLogLevel(config.GetInt("logLevel"))
}

// SetDefaults fills in every setting the service reads.
func SetDefaults(config *viper.Viper) {
	config.SetDefault("flatFileDir", "data/")
	config.SetDefault("logLevel", 4)
	config.SetDefault("serviceID", "keyledger-service")
	config.SetDefault("httpAddr", "0.0.0.0:8080")
	config.SetDefault("maxBodyBytes", int64(1<<20))
	// every call to the prover is bounded by this
	config.SetDefault("ledgerTimeout", "5s")
	config.SetDefault("batchInterval", "250ms")
	config.SetDefault("queryConcurrency", 8)
	config.SetDefault("cliListener", false)
}

func initRootDir(conf *viper.Viper) {
	_, err := os.Stat(conf.GetString("rootDir"))
	if os.IsNotExist(err) {
		err = os.MkdirAll(conf.GetString("rootDir"), 0755)
		if err != nil {
			library.LogCLI(err, 0)
		}
	}
}

func touch(path string) {
	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		f, err := os.Create(path)
		if err != nil {
			library.LogCLI(err, 0)
			return
		}
		f.Close()
	}
}

var conf *viper.Viper

func MakeOrGetConfig() *viper.Viper {
	if conf == nil {
		conf = viper.New()
		SetDefaults(conf)
	}
	return conf
}

func SetConfig(config *viper.Viper) {
	conf = config
}

// Settings is the typed view of the config the rest of the service consumes.
type Settings struct {
	ServiceID        string
	HTTPAddr         string
	MaxBodyBytes     int64
	LedgerTimeout    time.Duration
	BatchInterval    time.Duration
	QueryConcurrency int
	CLIListener      bool
}

func CurrentSettings() Settings {
	c := MakeOrGetConfig()
	return Settings{
		ServiceID:        c.GetString("serviceID"),
		HTTPAddr:         c.GetString("httpAddr"),
		MaxBodyBytes:     c.GetInt64("maxBodyBytes"),
		LedgerTimeout:    c.GetDuration("ledgerTimeout"),
		BatchInterval:    c.GetDuration("batchInterval"),
		QueryConcurrency: c.GetInt("queryConcurrency"),
		CLIListener:      c.GetBool("cliListener"),
	}
}
