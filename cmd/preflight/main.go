// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"
	"strings"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	sid := strings.TrimSpace(os.Getenv("TWILIO_ACCOUNT_SID"))
	token := strings.TrimSpace(os.Getenv("TWILIO_AUTH_TOKEN"))
	from := strings.TrimSpace(os.Getenv("TWILIO_FROM_NUMBER"))
	baseURL := strings.TrimSpace(os.Getenv("PUBLIC_BASE_URL"))
	deviceKeys := strings.TrimSpace(os.Getenv("DEVICE_API_KEYS"))
	adminKeys := strings.TrimSpace(os.Getenv("ADMIN_API_KEYS"))
	apiAddr := strings.TrimSpace(os.Getenv("ADDR"))
	db := strings.TrimSpace(os.Getenv("DATABASE_URL"))

	if sid == "" || token == "" {
		warn("TWILIO_ACCOUNT_SID/TWILIO_AUTH_TOKEN empty — messages go to the log, webhook verification will reject everything.")
	} else {
		ok("Twilio credentials present")
		if from == "" {
			fail("TWILIO_FROM_NUMBER is empty (sends will be refused by Twilio).")
		}
		if !strings.HasPrefix(from, "+") {
			warn("TWILIO_FROM_NUMBER should be E.164, e.g. +15550001234")
		}
		if baseURL == "" {
			warn("PUBLIC_BASE_URL empty — webhook signatures will be checked against the Host header; set it if you run behind a proxy.")
		} else {
			ok("PUBLIC_BASE_URL=" + baseURL)
		}
	}

	if deviceKeys == "" {
		warn("DEVICE_API_KEYS empty — telemetry endpoint is open (dev mode).")
	}
	if adminKeys == "" {
		warn("ADMIN_API_KEYS empty — admin endpoints are open (dev mode).")
	}

	// Normalize and sanity-check lists (no spaces around commas).
	for name, v := range map[string]string{"DEVICE_API_KEYS": deviceKeys, "ADMIN_API_KEYS": adminKeys} {
		if strings.Contains(v, " ") {
			warn(name + " contains spaces; use comma-separated with no spaces, e.g. key1,key2")
		}
	}

	if apiAddr == "" {
		warn("ADDR is empty; default in your app may be used.")
	} else {
		ok("ADDR=" + apiAddr)
	}

	if db == "" {
		warn("DATABASE_URL empty — API will use in-memory stores unless overridden at runtime.")
	} else {
		ok("DATABASE_URL present")
	}

	ok("preflight passed")
}
