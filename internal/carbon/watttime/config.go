package watttime

// Config contains WattTime provider configuration. Missing credentials
// are a normal configuration: the provider is simply not used.
type Config struct {
	Username string `env:"WATT_TIME_USERNAME"`
	Password string `env:"WATT_TIME_PASSWORD"`
	BaseURL  string `env:"WATT_TIME_BASE_URL" envDefault:"https://api2.watttime.org"`
	Timeout  int    `env:"WATT_TIME_TIMEOUT"  envDefault:"5"`
}
