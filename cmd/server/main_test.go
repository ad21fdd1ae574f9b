package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"bitsafe.io/advisor-api/internal/alerts"
)

func TestAlertsCommandPrintsFeed(t *testing.T) {
	t.Setenv("INFERENCE_PROVIDER", "huggingface")
	t.Setenv("CONFIG_PATH", "")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"alerts"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	var got []alerts.Alert
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not an alert list: %v\n%s", err, out.String())
	}
	if len(got) == 0 || len(got) > alerts.MaxAlerts {
		t.Fatalf("unexpected alert count %d", len(got))
	}
}

func TestAlertsCommandRejectsBadConfig(t *testing.T) {
	t.Setenv("INFERENCE_PROVIDER", "nope")

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"alerts"})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected config error")
	}
}
