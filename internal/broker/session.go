package broker

// Session carries the header values every authenticated SmartAPI request
// needs. Login itself happens outside this module; the caller supplies the
// API key and bearer token and the session is threaded explicitly through
// every component that talks to the broker, never held as a global.
type Session struct {
	APIKey    string
	AuthToken string

	// The API requires client network identity headers; the desktop client
	// sends loopback placeholders.
	ClientLocalIP  string
	ClientPublicIP string
	MACAddress     string
}

// IsAuthenticated reports whether the session carries a bearer token.
func (s Session) IsAuthenticated() bool {
	return s.APIKey != "" && s.AuthToken != ""
}

// Headers builds the header name->value mapping attached to each outbound
// request.
func (s Session) Headers() map[string]string {
	localIP := s.ClientLocalIP
	if localIP == "" {
		localIP = "127.0.0.1"
	}
	publicIP := s.ClientPublicIP
	if publicIP == "" {
		publicIP = "127.0.0.1"
	}
	mac := s.MACAddress
	if mac == "" {
		mac = "00-00-00-00-00-00"
	}

	h := map[string]string{
		"Content-Type":     "application/json",
		"Accept":           "application/json",
		"X-UserType":       "USER",
		"X-SourceID":       "WEB",
		"X-ClientLocalIP":  localIP,
		"X-ClientPublicIP": publicIP,
		"X-MACAddress":     mac,
		"X-PrivateKey":     s.APIKey,
	}
	if s.AuthToken != "" {
		h["Authorization"] = "Bearer " + s.AuthToken
	}
	return h
}
