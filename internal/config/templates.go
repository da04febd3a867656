package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Angel Options Configuration

[pricing]
# Annualized risk-free rate used by the valuation model
risk_free_rate = 0.07
# Annualized volatility assumption for theoretical pricing
model_volatility = 0.18
# Newton-Raphson iterations for the implied volatility solver
iv_iterations = 5

[chain]
# Underlying selected at startup: NIFTY, BANKNIFTY, FINNIFTY, SENSEX
default_underlying = "NIFTY"
# Watchlist kept in the instrument cache; stock names enable OPTSTK chains
# underlyings = ["NIFTY", "BANKNIFTY", "RELIANCE"]
# Strikes shown on each side of at-the-money
strike_radius = 10
# Flag a strike when theoretical value exceeds the live premium by this much (INR)
discount_alert_threshold = 5.0

[polling]
# Refresh cycle period (e.g., "10s", "15s")
interval = "15s"
# Tokens per market quote call
chunk_size = 20
# Pause between sequential quote chunks (e.g., "100ms")
chunk_delay = "0s"
# Fetch quote chunks concurrently instead of sequentially
parallel_quotes = false

[cache]
# How long a downloaded scrip master stays usable
max_age = "12h"
# Override the cache file location (defaults to the config directory)
# path = "/var/cache/angel-options/scrip_master.json"

[ui]
# Enable colored output
color_enabled = true
# Time format for chain timestamps
time_format = "15:04:05"
`

const credentialsTemplate = `# Angel Options Credentials
# WARNING: Keep this file secure! Do not commit to version control.
# The auth token is the SmartAPI session JWT produced by your login flow.

[angel]
api_key = ""
auth_token = ""
client_local_ip = ""
client_public_ip = ""
mac_address = ""
`

func createTemplateConfig(configDir, name string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name+".toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return fmt.Errorf("config file not found, created template at %s", path)
}

func createTemplateCredentials(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "credentials.toml")
	// Use restricted permissions for credentials file
	if err := os.WriteFile(path, []byte(credentialsTemplate), 0600); err != nil {
		return fmt.Errorf("writing credentials template: %w", err)
	}

	return fmt.Errorf("credentials file not found, created template at %s", path)
}
