package electricitymaps

// Config contains ElectricityMaps provider configuration. An empty
// Token is a normal configuration: the provider is simply not used.
type Config struct {
	Token   string `env:"ELECTRICITY_MAPS_TOKEN"`
	BaseURL string `env:"ELECTRICITY_MAPS_BASE_URL" envDefault:"https://api.electricitymap.org"`
	Timeout int    `env:"ELECTRICITY_MAPS_TIMEOUT"  envDefault:"5"`
}
