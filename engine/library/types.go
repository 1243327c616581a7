package library

// Wallet is the service's own signing identity.
type Wallet struct {
	PrivateKey string
	SeedWords  string
	Account    Account
}

// Account is the caller-chosen identifier of an account.
type Account = string

type Sha256 = string
