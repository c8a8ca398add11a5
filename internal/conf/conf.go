package conf

import (
	"os"

	"github.com/golang/glog"
	"gopkg.in/yaml.v3"
)

const (
	devModeEnv      = "GO_ENV"
	configFileEnv   = "LIBRAPAY_CONFIG_FILE"
	platformRootEnv = "PLATFORM_ROOT_URL"
	callbackBaseEnv = "LIBRAPAY_CALLBACK_BASE_URL"
)

type config struct {
	DevMode bool

	// PlatformRootURL is where declined or invalid synchronous callbacks
	// redirect the user to.
	PlatformRootURL string `yaml:"platformRootUrl"`

	// CallbackBaseURL is the externally reachable base under which the
	// /process endpoint is exposed; it is embedded into BACKREF.
	CallbackBaseURL string `yaml:"callbackBaseUrl"`
}

var Config config

func Init() {
	initFromEnv()
	initFromFile()

	if Config.PlatformRootURL == "" {
		Config.PlatformRootURL = "http://localhost"
	}
	if Config.CallbackBaseURL == "" {
		Config.CallbackBaseURL = Config.PlatformRootURL + "/librapay/v1"
	}

	glog.Infof("Config.DevMode:%t Config.PlatformRootURL:%s", Config.DevMode, Config.PlatformRootURL)
}

func initFromEnv() {
	env := os.Getenv(devModeEnv)
	Config.DevMode = env == "development" || env == "dev"
	Config.PlatformRootURL = os.Getenv(platformRootEnv)
	Config.CallbackBaseURL = os.Getenv(callbackBaseEnv)
}

// initFromFile overlays values from an optional YAML file. Env values win.
func initFromFile() {
	path := os.Getenv(configFileEnv)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		glog.Warningf("read config file %s err:%s", path, err.Error())
		return
	}

	var fromFile config
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		glog.Warningf("parse config file %s err:%s", path, err.Error())
		return
	}

	if Config.PlatformRootURL == "" {
		Config.PlatformRootURL = fromFile.PlatformRootURL
	}
	if Config.CallbackBaseURL == "" {
		Config.CallbackBaseURL = fromFile.CallbackBaseURL
	}
}

func GetDevMode() bool {
	return Config.DevMode
}

func GetPlatformRootURL() string {
	return Config.PlatformRootURL
}

func GetCallbackBaseURL() string {
	return Config.CallbackBaseURL
}
