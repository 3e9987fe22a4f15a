package domain

// Domain contains the values exchanged with the remote item server.

// Item is a product as presented by the remote server. Price is a whole amount with no minor unit.
type Item struct {
	Title string `json:"title"`
	Price int64  `json:"price"`
}

// Credential is the user payload sent as an outbound request body.
type Credential struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Redacted returns a copy safe for logging.
func (c Credential) Redacted() Credential {
	if c.Password != "" {
		c.Password = "***"
	}
	return c
}
