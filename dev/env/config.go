package devenv

// DiningTestConfig is read from <dev_state>/dining_config.json5, it holds
// the credentials used by tests that talk to the real portal.
type DiningTestConfig struct {
	SsoBaseUrl    string `json:"sso_base_url"`
	DiningBaseUrl string `json:"dining_base_url"`
	Username      string `json:"username"`
	Password      string `json:"password"`
	PlaceId       string `json:"place_id"`
}
