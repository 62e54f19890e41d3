package dining

import "log/slog"

// Credential is a student's single sign-on login.
type Credential struct {
	Identifier string
	Secret     string
}

func (c Credential) String() string {
	return c.Identifier + ":****"
}

func (c Credential) LogValue() slog.Value {
	return slog.GroupValue(slog.String("identifier", c.Identifier))
}
