package models

const AlertTitle = "VOD Gate Alert"

const (
	AlertDesc_LitConnectFailed = "Lit Network Connection"
)

const (
	AlertFmt_LitConnectFailed string = "Failed connecting to the Lit network, no further gating attempts are possible until restart:\n%s"
)
