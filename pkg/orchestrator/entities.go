package orchestrator

import (
	"net/netip"
	"regexp"
	"strings"
)

var (
	ipv4Pattern    = regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4]\d|1?\d?\d)\.){3}(?:25[0-5]|2[0-4]\d|1?\d?\d)\b`)
	dottedPattern  = regexp.MustCompile(`(?i)\b[a-z0-9](?:[a-z0-9-]*[a-z0-9])?(?:\.[a-z0-9](?:[a-z0-9-]*[a-z0-9])?)+\b`)
	processPattern = regexp.MustCompile(`(?i)\b[\w-]+(?:\.[\w-]+)*\.(?:exe|dll|ps1|bat|cmd|vbs|scr|sys)\b`)
	sessionPattern = regexp.MustCompile(`(?i)\b(?:session|logon|login)[\s_-]*id\b\s*[:=#]?\s*[\w-]+|\b0x[0-9a-f]{4,}\b`)
	accountPattern = regexp.MustCompile(`\b[A-Za-z0-9_-]+\\[A-Za-z0-9._$-]+`)
	phrasePattern  = regexp.MustCompile(`(?i)\b(?:user|username|account|host|hostname|server|workstation|computer|machine)\s+([A-Za-z0-9._$\\-]+)`)
	quotedPattern  = regexp.MustCompile(`(?i)\b(?:user|username|account|host|hostname|server|workstation|computer|machine)\s+(?:'[^'\s]+'|"[^"\s]+")`)
)

// Internal suffixes name a host at any depth. Public ones only count with a
// host label in front of the registered domain (dc01.corp.example.com, not
// mitre.org).
var (
	internalTLDs = map[string]bool{
		"local": true, "lan": true, "corp": true, "internal": true, "intranet": true,
		"localdomain": true, "domain": true, "home": true, "ad": true,
	}
	publicTLDs = map[string]bool{
		"com": true, "net": true, "org": true, "io": true, "gov": true, "edu": true, "mil": true,
	}
)

// commonNouns are words that follow "user"/"host"/"machine" in general
// questions without naming anything.
var commonNouns = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "of": true, "in": true, "on": true,
	"to": true, "for": true, "with": true, "is": true, "are": true, "was": true, "were": true, "be": true,
	"that": true, "which": true, "who": true, "can": true, "may": true, "by": true, "from": true,
	"account": true, "accounts": true, "name": true, "names": true, "login": true, "logins": true,
	"logon": true, "logons": true, "credentials": true, "credential": true, "privileges": true,
	"privilege": true, "activity": true, "activities": true, "behavior": true, "behaviour": true,
	"data": true, "input": true, "access": true, "accesses": true, "side": true, "software": true,
	"systems": true, "system": true, "level": true, "mode": true, "based": true,
	"password": true, "passwords": true, "firewall": true, "firewalls": true, "takeover": true,
	"takeovers": true, "agent": true, "agents": true, "group": true, "groups": true, "rights": true,
	"permissions": true, "permission": true, "session": true, "sessions": true, "profile": true,
	"profiles": true, "directory": true, "directories": true, "config": true, "configs": true,
	"logs": true, "log": true, "events": true, "event": true, "process": true, "processes": true,
	"memory": true, "security": true, "artifacts": true, "artifact": true, "attack": true,
	"attacks": true, "token": true, "tokens": true, "hash": true, "hashes": true, "key": true,
	"keys": true, "file": true, "files": true, "share": true, "shares": true, "role": true,
	"roles": true, "policy": true, "policies": true, "traffic": true, "port": true, "ports": true,
	"service": true, "services": true, "header": true, "headers": true, "lockout": true,
	"lockouts": true, "hijack": true, "hijacks": true, "compromise": true, "compromises": true,
	"persistence": true, "certificate": true, "certificates": true,
	"interface": true, "interfaces": true, "settings": true, "state": true,
	"vulnerabilities": true, "exploits": true, "exploit": true, "malware": true, "ransomware": true,
	"threats": true, "threat": true, "records": true, "record": true, "type": true, "types": true,
	"hardening": true, "artefacts": true, "inventory": true, "clicks": true,
}

// Derived nouns (misconfiguration, learning, enumeration, identity) are never
// account or host names.
var nounSuffixes = []string{"tion", "sion", "ment", "ness", "ing", "ity", "ance", "ence", "ware", "ship"}

// DetectEntity reports whether question names a specific log entity: an IP
// address, host name, process image, session or logon id, a DOMAIN\user
// account, or a "user X" / "host X" phrase where X looks like an
// identifier. The second return value is the first match.
func DetectEntity(question string) (bool, string) {
	for _, p := range []*regexp.Regexp{ipv4Pattern, processPattern, sessionPattern, accountPattern} {
		if m := p.FindString(question); m != "" {
			return true, m
		}
	}

	if m := findHostName(question); m != "" {
		return true, m
	}
	if m := findIPv6(question); m != "" {
		return true, m
	}

	if m := quotedPattern.FindString(question); m != "" {
		return true, m
	}
	for _, sub := range phrasePattern.FindAllStringSubmatch(question, -1) {
		if isIdentifier(sub[1]) {
			return true, strings.TrimRight(sub[0], ".-")
		}
	}

	return false, ""
}

// isIdentifier accepts tokens that carry identifier syntax (digits, a
// backslash, $, an inner dot, underscore or hyphen) and plain words that are
// neither common nouns nor derived nouns.
func isIdentifier(token string) bool {
	token = strings.Trim(token, ".-")
	if token == "" {
		return false
	}
	if strings.ContainsAny(token, `0123456789\$._-`) {
		return true
	}

	word := strings.ToLower(token)
	if commonNouns[word] {
		return false
	}
	for _, suffix := range nounSuffixes {
		if strings.HasSuffix(word, suffix) && len(word) > len(suffix)+2 {
			return false
		}
	}
	return true
}

func findHostName(question string) string {
	for _, m := range dottedPattern.FindAllString(question, -1) {
		labels := strings.Split(strings.ToLower(m), ".")
		tld := labels[len(labels)-1]
		switch {
		case internalTLDs[tld]:
			return m
		case publicTLDs[tld] && len(labels) >= 3:
			return m
		}
	}
	return ""
}

func findIPv6(question string) string {
	for _, tok := range strings.Fields(question) {
		tok = strings.Trim(tok, ",;()[]'\"?!")
		if strings.Count(tok, ":") < 2 {
			continue
		}
		if addr, err := netip.ParseAddr(tok); err == nil && addr.Is6() {
			return tok
		}
	}
	return ""
}
