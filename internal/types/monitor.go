package types

// Options of the checks, decoded from MonitorTask.Options. Fields hold the
// defaults before decoding.

type EdenOptions struct {
	AppName    string `mapstructure:"appname"`
	PublicURL  string `mapstructure:"public_url"`
	Timeout    int    `mapstructure:"timeout"`     // seconds
	LatencyMax int    `mapstructure:"latency_max"` // milliseconds
}

func DefaultEdenOptions() EdenOptions {
	return EdenOptions{
		AppName:    "eden",
		Timeout:    60,
		LatencyMax: 2000,
	}
}

type EmailOptions struct {
	To      string `mapstructure:"to"`
	Subject string `mapstructure:"subject"`
	Message string `mapstructure:"message"`
	ReplyTo string `mapstructure:"reply_to"`
	Wait    int    `mapstructure:"wait"`    // minutes before checking for the reply
	Timeout int    `mapstructure:"timeout"` // seconds allowed for the send
}

func DefaultEmailOptions() EmailOptions {
	return EmailOptions{Wait: 60, Timeout: 60}
}

type PingOptions struct {
	Timeout int `mapstructure:"timeout"` // seconds
}

func DefaultPingOptions() PingOptions {
	return PingOptions{Timeout: 60}
}

type DNSConfig struct {
	Domain     string `mapstructure:"domain"`
	RecordType string `mapstructure:"record_type"` // A, AAAA, CNAME, MX, TXT, NS
	Expected   string `mapstructure:"expected"`    // Expected IP/value (optional)
	Timeout    int    `mapstructure:"timeout"`     // Timeout in seconds
}

type DatabaseConfig struct {
	Type     string `mapstructure:"type"` // "mysql", "postgres"
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Timeout  int    `mapstructure:"timeout"`
	SSLMode  string `mapstructure:"ssl_mode"` // For postgres
}
