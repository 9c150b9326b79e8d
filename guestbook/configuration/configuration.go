package configuration

type Configuration struct {
	HttpAddr   string `usage:"HTTP listen address"`
	PublicDir  string `usage:"directory served by the archive endpoint"`
	RedisAddr  string `usage:"redis address for session storage, empty keeps sessions in memory"`
	ShowConfig bool   `usage:"print effective config"`
	Version    bool   `usage:"show version and exit"`
}

func Default() Configuration {
	return Configuration{
		HttpAddr:  ":8080",
		PublicDir: "public",
	}
}
