package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectEntity(t *testing.T) {
	tests := []struct {
		question string
		want     bool
		match    string
	}{
		{"what did 192.168.1.20 connect to?", true, "192.168.1.20"},
		{"was powershell.exe spawned by winword?", true, "powershell.exe"},
		{"list logons on dc01.corp.local", true, "dc01.corp.local"},
		{"what happened in logon id 0x3e7a1", true, "logon id 0x3e7a1"},
		{`show events for ACME\jdoe`, true, `ACME\jdoe`},
		{"activity from fe80::1ff:fe23:4567:890a last night", true, "fe80::1ff:fe23:4567:890a"},
		{"what did user daryl do yesterday", true, "user daryl"},
		{"failed logins on host WS-042", true, "host WS-042"},
		{"show techniques under Initial Access", false, ""},
		{"which user accounts are usually targeted by brute force?", false, ""},
		{"how do attackers abuse user execution?", false, ""},
		{"what's the weather today?", false, ""},
		{"logons on fileserver.corp.acme.com", true, "fileserver.corp.acme.com"},
		{"what did user 'svc' touch?", true, "user 'svc'"},
		{"processes started by account svc_backup", true, "account svc_backup"},
		{"What attacks steal user passwords?", false, ""},
		{"Which techniques target the host firewall?", false, ""},
		{"How do attackers abuse server misconfiguration?", false, ""},
		{"What is a machine learning evasion attack?", false, ""},
		{"Explain account takeover techniques", false, ""},
		{"Summarize the APT29 report at mitre.org", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			got, match := DetectEntity(tt.question)
			assert.Equal(t, tt.want, got)
			if tt.want {
				assert.Equal(t, tt.match, match)
			}
		})
	}
}
