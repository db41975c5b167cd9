package rti

import (
	"fmt"
	"os"
)

// Credentials are born at Client construction and never mutated.
type Credentials struct {
	User        string
	Password    string
	SystemName  string
	GatewayName string
	AppName     string
	AppVersion  string
}

// LoadCredentialsFromEnv reads the variables a Rithmic deployment
// conventionally publishes: RITHMIC_USER, RITHMIC_PASSWORD,
// RITHMIC_SYSTEM_NAME, RITHMIC_GATEWAY_NAME. Passing test=true reads the
// _TEST-suffixed variants instead, for pointing at an alternate
// environment. This is a convenience constructor outside the tested
// core; callers embedding rti in a language without environment access
// should construct Credentials directly.
func LoadCredentialsFromEnv(test bool) (Credentials, error) {
	suffix := ""
	if test {
		suffix = "_TEST"
	}

	get := func(name string) (string, error) {
		key := name + suffix
		v := os.Getenv(key)
		if v == "" {
			return "", fmt.Errorf("rti: missing required environment variable %s", key)
		}
		return v, nil
	}

	user, err := get("RITHMIC_USER")
	if err != nil {
		return Credentials{}, err
	}
	password, err := get("RITHMIC_PASSWORD")
	if err != nil {
		return Credentials{}, err
	}
	systemName, err := get("RITHMIC_SYSTEM_NAME")
	if err != nil {
		return Credentials{}, err
	}
	gatewayName, err := get("RITHMIC_GATEWAY_NAME")
	if err != nil {
		return Credentials{}, err
	}

	return Credentials{
		User:        user,
		Password:    password,
		SystemName:  systemName,
		GatewayName: gatewayName,
		AppName:     "rti-go",
		AppVersion:  "dev",
	}, nil
}
