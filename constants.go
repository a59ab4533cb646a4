package vnft

import "time"

const DefaultTick = 5 * time.Second
const DefaultHttpWaitTime = 10 * time.Second

const (
	Env_StudioApiUrl  = "STUDIO_API_URL"
	Env_StudioApiKey  = "STUDIO_API_KEY"
	Env_LitGatewayUrl = "LIT_GATEWAY_URL"
	Env_AuthSigFile   = "AUTH_SIG_FILE"
	Env_LogLevel      = "LOG_LEVEL"
)

const DefaultStudioApiUrl = "https://livepeer.studio/api"
