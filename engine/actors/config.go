package actors

import (
	"os"
	"strings"

	"github.com/spf13/viper"

	"bountyboard/engine/library"
)

// ProgramID is mixed into every custody derivation so that addresses derived by this engine can never
// collide with addresses derived by another program from the same seeds.
var ProgramID library.Account = library.Sha256Sum("bountyboard/escrow-program/v1")

// ReplayPrevention is the replay hash expected on the first event signed by any account.
const ReplayPrevention string = "24c30ad7f036ed49379b5d1209836d1ff6795adb34da2d3e4cabc47dc9dfef21"

// GenesisAccount describes a token account seeded into the ledger on first run.
type GenesisAccount struct {
	Address library.Account `mapstructure:"address"`
	Owner   library.Account `mapstructure:"owner"`
	Mint    library.Account `mapstructure:"mint"`
	Balance uint64          `mapstructure:"balance"`
}

// InitConfig sets up our Viper config object
func InitConfig(config *viper.Viper) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		library.LogCLI(err.Error(), 0)
	}
	config.SetEnvPrefix("bountyboard")
	config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	config.AutomaticEnv()
	config.SetDefault("rootDir", homeDir+"/bountyboard/")
	config.SetConfigType("yaml")
	config.SetConfigFile(config.GetString("rootDir") + "config.yaml")
	err = config.ReadInConfig()
	if err != nil {
		library.LogCLI(err.Error(), 4)
	}
	config.SetDefault("firstRun", true)
	config.SetDefault("flatFileDir", "data/")
	config.SetDefault("logLevel", 4)
	// memory, flatfile or postgres
	config.SetDefault("store", "flatfile")
	config.SetDefault("postgresDSN", "host=localhost user=bountyboard dbname=bountyboard port=5432 sslmode=disable")
	// system or blocks
	config.SetDefault("clock", "system")
	config.SetDefault("blockOracles", []string{})
	// relays the engine fetches operation events and block headers from on startup
	config.SetDefault("relays", []string{})
	config.SetDefault("inbox", config.GetString("rootDir")+"inbox.jsonl")
	config.SetDefault("genesisAccounts", []map[string]any{})
	library.SetLogLevel(config.GetInt("logLevel"))
	// Create our working directory and config file if not exist
	initRootDir(config)
	Touch(config.GetString("rootDir") + "config.yaml")
	err = config.WriteConfig()
	if err != nil {
		library.LogCLI(err.Error(), 1)
	}
}

// GenesisAccounts returns the token accounts configured under genesisAccounts.
func GenesisAccounts(config *viper.Viper) ([]GenesisAccount, error) {
	var accounts []GenesisAccount
	if err := config.UnmarshalKey("genesisAccounts", &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
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

// Touch creates the file if it does not exist.
func Touch(path string) {
	f, err := os.OpenFile(path, os.O_RDONLY|os.O_CREATE, 0644)
	if err != nil {
		library.LogCLI(err.Error(), 1)
		return
	}
	f.Close()
}

var conf *viper.Viper

func MakeOrGetConfig() *viper.Viper {
	return conf
}

func SetConfig(config *viper.Viper) {
	conf = config
}
