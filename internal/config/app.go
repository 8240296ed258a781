package config

type AppConfig struct {
	Server ServerConfig
	Engine EngineConfig
	Log    LogConfig
	Notify NotifyConfig
}

func LoadApp() (AppConfig, error) {
	logCfg, err := LoadLog()
	if err != nil {
		return AppConfig{}, err
	}
	serverCfg, err := LoadServer()
	if err != nil {
		return AppConfig{}, err
	}
	engineCfg, err := LoadEngine()
	if err != nil {
		return AppConfig{}, err
	}
	notifyCfg, err := LoadNotify()
	if err != nil {
		return AppConfig{}, err
	}
	return AppConfig{
		Server: serverCfg,
		Engine: engineCfg,
		Log:    logCfg,
		Notify: notifyCfg,
	}, nil
}
