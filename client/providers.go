package client

// Providers bundles the clients an application needs.
type Providers struct {
	Client *Client
	Auth   *AuthClient
}

// NewProviders fails with ErrMissingURL when cfg carries no URL, so
// callers see the misconfiguration at startup rather than on first use.
func NewProviders(cfg *Config) (*Providers, error) {
	if cfg == nil {
		return nil, ErrMissingURL
	}

	c, err := New(cfg.URL, WithTimeout(cfg.Timeout))
	if err != nil {
		return nil, err
	}
	return &Providers{Client: c, Auth: NewAuthClient(c)}, nil
}
