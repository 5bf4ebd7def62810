package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const configFileEnvName = "CART_CONFIG_FILE"

type pricing struct {
	TaxRate     string `mapstructure:"tax_rate"`
	Currency    string `mapstructure:"currency"`
	PackageName string `mapstructure:"package_name"`
	OmanPackage string `mapstructure:"oman_package"`
}

type storage struct {
	RetryAttempts int `mapstructure:"retry_attempts"`
}

type Config struct {
	LogLevel       slog.Level `mapstructure:"log_level"`
	HTTPServerAddr string     `mapstructure:"http_server_addr"`
	SQLDB          string     `mapstructure:"sql_db"`
	Pricing        pricing    `mapstructure:"pricing"`
	Storage        storage    `mapstructure:"storage"`
}

func Load() Config {
	cfg, err := LoadFile(getConfigFilepath())
	if err != nil {
		die(err)
	}
	return cfg
}

// LoadFile reads the YAML config at path on top of the defaults.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, err
	}

	var cfg Config
	hooks := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	))
	if err := v.UnmarshalExact(&cfg, hooks); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "INFO")
	v.SetDefault("http_server_addr", ":8080")
	v.SetDefault("pricing.tax_rate", "0.05")
	v.SetDefault("pricing.currency", "")
	v.SetDefault("pricing.package_name", "")
	v.SetDefault("pricing.oman_package", "")
	v.SetDefault("storage.retry_attempts", 3)
}

func getConfigFilepath() string {
	cmdLine := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	arg := cmdLine.String("config", "/config.yaml", "config file")
	_ = cmdLine.Parse(os.Args[1:])
	env, ok := os.LookupEnv(configFileEnvName)
	if ok {
		return env
	}
	return *arg
}

func die(err error) {
	fmt.Printf("failed to load config file: %v\n", err)
	os.Exit(2)
}

func (c Config) Print() {
	template := `
	General:
	LogLevel=%q
	HTTPServerAddr=%q

	Pricing:
	TaxRate=%q
	Currency=%q
	PackageName=%q
	OmanPackage=%q

	Storage:
	RetryAttempts=%d

`
	fmt.Println("Loaded config:")
	fmt.Printf(
		strings.TrimLeft(template, "\n"),
		c.LogLevel,
		c.HTTPServerAddr,
		c.Pricing.TaxRate,
		c.Pricing.Currency,
		c.Pricing.PackageName,
		c.Pricing.OmanPackage,
		c.Storage.RetryAttempts,
	)
}
