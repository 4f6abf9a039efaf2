package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var conf *Conf

type Conf struct {
	App struct {
		Version string `toml:"version"`
		Title   string `toml:"title"`
	} `toml:"app"`
	Output struct {
		Directory      string `toml:"directory"`
		LogDir         string `toml:"logDir"`
		LogMaxSize     int    `toml:"logMaxSize"`
		LogMaxBackups  int    `toml:"logMaxBackups"`
		OutputTerminal bool   `toml:"outputTerminal"`
		Template       string `toml:"template"`
	} `toml:"output"`
	Task struct {
		Workers       int `toml:"workers"`
		MipmapWorkers int `toml:"mipmapWorkers"`
	} `toml:"task"`
	BreakPoint struct {
		SaveFilePath string `toml:"saveFilePath"`
	} `toml:"breakPoint"`
	Background struct {
		Image string `toml:"image"`
		Color string `toml:"color"`
	} `toml:"background"`
	View struct {
		Width    int     `toml:"width"`
		Height   int     `toml:"height"`
		Pixelize float64 `toml:"pixelize"`
	} `toml:"view"`
	Export struct {
		Colorspace       string `toml:"colorspace"`
		Compression      string `toml:"compression"`
		TilesPerCallback int    `toml:"tilesPerCallback"`
		ThumbSize        int    `toml:"thumbSize"`
	} `toml:"export"`
}

// InitConf reads the config file, .env and TILECANVAS_ environment
// variables, in increasing priority. A missing file leaves the defaults.
func InitConf(cfgFile string) {
	if cfgFile == "" {
		cfgFile = "conf/conf.toml"
	}
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "read .env error, details: %s\n", err)
	}

	viper.SetDefault("app.version", "v0.1.0")
	viper.SetDefault("app.title", "tilecanvas")
	viper.SetDefault("output.directory", "output")
	viper.SetDefault("output.logMaxSize", 10)
	viper.SetDefault("output.logMaxBackups", 5)
	viper.SetDefault("output.outputTerminal", true)
	viper.SetDefault("output.template", "{name}.{ext}")
	viper.SetDefault("task.workers", 4)
	viper.SetDefault("task.mipmapWorkers", 0)
	viper.SetDefault("breakPoint.saveFilePath", "breakpoint")
	viper.SetDefault("background.color", "#ffffff")
	viper.SetDefault("view.width", 800)
	viper.SetDefault("view.height", 600)
	viper.SetDefault("view.pixelize", 1.5)
	viper.SetDefault("export.colorspace", "srgb")
	viper.SetDefault("export.compression", "default")
	viper.SetDefault("export.tilesPerCallback", 256)
	viper.SetDefault("export.thumbSize", 256)

	viper.SetEnvPrefix("TILECANVAS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "config file(%s) not exist, using defaults\n", cfgFile)
	} else {
		viper.SetConfigType("toml")
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "read config file(%s) error, details: %s\n", viper.ConfigFileUsed(), err)
		}
	}

	if err := viper.Unmarshal(&conf); err != nil {
		fmt.Fprintf(os.Stderr, "parse config error, details: %s\n", err)
		os.Exit(1)
	}
}

// dumpConf logs the effective configuration once the logger exists.
func dumpConf() {
	log.Debugf("config:\n%s", spew.Sdump(conf))
}
