package config

const (
	defaultInputDir          = "~/Documents/autoname/inbox"
	defaultOutputDir         = "~/Documents/autoname/filed"
	defaultStateDir          = "~/.local/share/autoname"
	defaultExtension         = ".pdf"
	defaultQueueCapacity     = 100
	defaultSyphtBaseURL      = "https://api.sypht.com"
	defaultSyphtAuthURL      = "https://auth.sypht.com"
	defaultSyphtAudience     = "https://api.sypht.com"
	defaultSyphtFieldSet     = "document"
	defaultABRBaseURL        = "https://abr.business.gov.au/abrxmlsearch/AbrXmlSearch.asmx"
	defaultABRRequestsPerSec = 2.0
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultLogFile           = "~/.local/share/autoname/autoname.log"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InputDir:  defaultInputDir,
			OutputDir: defaultOutputDir,
			StateDir:  defaultStateDir,
		},
		Intake: Intake{
			Extensions:    []string{defaultExtension},
			QueueCapacity: defaultQueueCapacity,
		},
		Sypht: Sypht{
			BaseURL:   defaultSyphtBaseURL,
			AuthURL:   defaultSyphtAuthURL,
			Audience:  defaultSyphtAudience,
			FieldSets: []string{defaultSyphtFieldSet},
		},
		ABR: ABR{
			BaseURL:           defaultABRBaseURL,
			RequestsPerSecond: defaultABRRequestsPerSec,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
			File:   defaultLogFile,
		},
		History: History{
			Enabled: true,
		},
	}
}
