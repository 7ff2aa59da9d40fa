package models

// AccountRole separates the master account from its copy accounts.
type AccountRole string

const (
	RoleMaster   AccountRole = "master"
	RoleFollower AccountRole = "follower"
)

// ConnState — connection lifecycle of one brokerage session.
type ConnState int32

const (
	ConnDisconnected ConnState = iota
	ConnConnected
	ConnFailed
)

func (s ConnState) String() string {
	switch s {
	case ConnConnected:
		return "connected"
	case ConnFailed:
		return "failed"
	default:
		return "disconnected"
	}
}

// Account — static configuration of one brokerage account.
// CredentialsRef is an opaque reference resolved by the trading service,
// credentials themselves never enter this process's config.
type Account struct {
	ID             string      `yaml:"id" json:"id"`
	Name           string      `yaml:"name" json:"name"`
	Role           AccountRole `yaml:"role" json:"role"`
	CredentialsRef string      `yaml:"credentials_ref" json:"-"`

	// RiskPerTrade — fraction of equity lost if the stop is hit, e.g. 0.01 => 1%.
	RiskPerTrade float64 `yaml:"risk_per_trade" json:"risk_per_trade"`
}

// AccountInfo — balance snapshot returned by the trading service.
type AccountInfo struct {
	Balance  float64
	Equity   float64
	Currency string
	Leverage int
}
