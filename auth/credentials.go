package auth

import "github.com/viant/scy/cred"

// Credentials represents login credentials. They are only sent with the login request and never stored.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CredentialsFromBasic creates credentials from a scy basic secret
func CredentialsFromBasic(basic *cred.Basic) *Credentials {
	if basic == nil {
		return nil
	}
	return &Credentials{Username: basic.Username, Password: basic.Password}
}
