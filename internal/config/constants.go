package config

import "time"

const (
	AppName = "swlic"

	// EnvPrefix namespaces every environment variable, e.g. SWLIC_SERVER_PORT
	EnvPrefix = "SWLIC"

	DefaultPort      = 3000
	DefaultAuthUser  = "admin"
	DefaultAuthRealm = "SWLic"
	DefaultLogFile   = "logs/swlic.log"

	DefaultLoginURL        = "https://activate.solidworks.com/manager/Login.aspx"
	DefaultCredentialsFile = "credentials.txt"
	DefaultStepTimeout     = 10 * time.Second
	DefaultLookupTimeout   = 90 * time.Second
	DefaultMaxSessions     = 2

	DefaultServicePackFile = "configs/servicepacks.yaml"
)

// Service pack table sources
const (
	ServicePackSourceFile   = "file"
	ServicePackSourceSheets = "sheets"
)
