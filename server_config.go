package medocr

import (
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	defaultHttpPort        = 5000
	defaultDownloadTimeout = 10 * time.Second
	defaultMaxImageBytes   = 20 << 20
	defaultMaxImagePixels  = 1 << 28
)

type ServerConfig struct {
	HttpPort        uint
	Debug           bool
	DownloadTimeout time.Duration
	MaxImageBytes   int64
	MaxImagePixels  int64
	MaxImageSide    int
	Engine          EngineConfig
}

func DefaultServerConfig() ServerConfig {

	serverConfig := ServerConfig{
		HttpPort:        defaultHttpPort,
		Debug:           false,
		DownloadTimeout: defaultDownloadTimeout,
		MaxImageBytes:   defaultMaxImageBytes,
		MaxImagePixels:  defaultMaxImagePixels,
		MaxImageSide:    0,
		Engine:          DefaultEngineConfig(),
	}
	return serverConfig

}

type FlagFunction func()

func NoOpFlagFunction() FlagFunction {
	return func() {}
}

// DefaultConfigFlagsOverride loads .env if present, reads the environment and
// lets the command line override it. Extra flags of the calling binary are
// registered by flagFunction before parsing.
func DefaultConfigFlagsOverride(flagFunction FlagFunction) (ServerConfig, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("component", "OCR_CONFIG").Msg(".env file could not be loaded")
	}

	flagFunction()
	return serverConfigFromFlagSet(flag.CommandLine, os.Args[1:])
}

func serverConfigFromFlagSet(fs *flag.FlagSet, args []string) (ServerConfig, error) {
	serverConfig, err := serverConfigFromEnv(DefaultServerConfig())
	if err != nil {
		return serverConfig, err
	}

	var lang string
	fs.UintVar(
		&serverConfig.HttpPort,
		"http_port",
		serverConfig.HttpPort,
		"The http port to listen on, eg, 5000",
	)
	fs.BoolVar(
		&serverConfig.Debug,
		"debug",
		serverConfig.Debug,
		"sets debug flag, program will print more messages",
	)
	fs.DurationVar(
		&serverConfig.DownloadTimeout,
		"download_timeout",
		serverConfig.DownloadTimeout,
		"timeout for downloading the image behind imageUrl",
	)
	fs.Int64Var(
		&serverConfig.MaxImageBytes,
		"max_image_bytes",
		serverConfig.MaxImageBytes,
		"largest image body accepted, in bytes",
	)
	fs.Int64Var(
		&serverConfig.MaxImagePixels,
		"max_image_pixels",
		serverConfig.MaxImagePixels,
		"largest decoded image accepted, width times height",
	)
	fs.IntVar(
		&serverConfig.MaxImageSide,
		"max_image_side",
		serverConfig.MaxImageSide,
		"downscale images whose longer side exceeds this many pixels, 0 disables it",
	)
	registerEngineFlags(fs, &serverConfig.Engine, &lang)

	if err := fs.Parse(args); err != nil {
		return serverConfig, err
	}
	if lang != "" {
		serverConfig.Engine.Languages = splitLanguages(lang)
	}

	return serverConfig, serverConfig.validate()
}

func serverConfigFromEnv(serverConfig ServerConfig) (ServerConfig, error) {
	if port := getEnv("PORT", ""); port != "" {
		p, err := strconv.ParseUint(port, 10, 16)
		if err != nil {
			return serverConfig, errors.Wrapf(err, "PORT must be a port number, got %q", port)
		}
		serverConfig.HttpPort = uint(p)
	}
	serverConfig.Debug = getBoolEnv("DEBUG", serverConfig.Debug)

	engineConfig, err := engineConfigFromEnv(serverConfig.Engine)
	if err != nil {
		return serverConfig, err
	}
	serverConfig.Engine = engineConfig
	return serverConfig, nil
}

func (c ServerConfig) validate() error {
	if c.HttpPort == 0 || c.HttpPort > 65535 {
		return errors.Errorf("http_port out of range: %d", c.HttpPort)
	}
	if c.DownloadTimeout <= 0 {
		return errors.New("download_timeout must be positive")
	}
	if c.MaxImageBytes <= 0 {
		return errors.New("max_image_bytes must be positive")
	}
	if c.MaxImagePixels <= 0 {
		return errors.New("max_image_pixels must be positive")
	}
	if c.MaxImageSide < 0 {
		return errors.New("max_image_side must not be negative")
	}
	return c.Engine.validate()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
