// Package safety classifies shell commands into risk tiers before execution.
//
// Classification is purely string-based: no I/O, no hidden state. The
// classifier defaults to Safe and escalates only on recognized risk
// signatures, so it can run before anything touches the system. Dangerous
// always wins over Moderate, and a Dangerous command is never auto-executed
// regardless of configuration.
package safety

import (
	"regexp"
	"strings"
)

// Verdict is the risk tier assigned to a command.
type Verdict string

const (
	VerdictSafe      Verdict = "safe"
	VerdictModerate  Verdict = "moderate"
	VerdictDangerous Verdict = "dangerous"
)

// RequiresApproval reports whether human approval is needed before
// executing a command with this verdict. Moderate commands can be
// auto-approved by configuration; Dangerous never can.
func (v Verdict) RequiresApproval(autoApproveModerate bool) bool {
	switch v {
	case VerdictDangerous:
		return true
	case VerdictModerate:
		return !autoApproveModerate
	default:
		return false
	}
}

// Classification carries the verdict plus the risk signatures that fired,
// for surfacing to the approval prompt.
type Classification struct {
	Verdict  Verdict
	Warnings []string
}

// riskPattern pairs a compiled pattern with its tier and a human-readable
// description of the risk.
type riskPattern struct {
	re     *regexp.Regexp
	tier   Verdict
	reason string
}

// Classifier matches commands against a fixed table of risk indicators.
// It is immutable after construction and safe for concurrent use.
type Classifier struct {
	patterns []riskPattern
}

// dangerous and moderate pattern tables. Order matters only for the
// reported warnings; any dangerous hit outranks every moderate hit.
var dangerousPatterns = []struct{ pattern, reason string }{
	{`(?i)\brm\s+(-[a-z]*\s+)*(-rf|-fr|-r\s+-f|-f\s+-r)\b.*(\s/\s*$|\s/\s|\s/[*]|\s~|\s\$HOME|\s\*)`, "recursive force-delete of root, home, or wildcard"},
	{`(?i)\brm\s+-rf?\s+/(\s|$)`, "recursive delete of filesystem root"},
	{`(?i)\bdd\s+if=`, "raw disk copy"},
	{`(?i)\bmkfs(\.[a-z0-9]+)?\b`, "filesystem format"},
	{`>\s*/dev/(sd|hd|nvme|vd)[a-z]`, "write to raw block device"},
	{`:\(\)\s*\{\s*:\|\s*:\s*&\s*\}\s*;\s*:`, "fork bomb"},
	{`(?i)\bchmod\s+(-[a-z]+\s+)*777\s+/(\s|$)`, "world-writable root"},
	{`(?i)\b(chmod|chown)\s+(-[a-z]*r[a-z]*)\s+.*\s/(\s|$)`, "recursive permission change on root"},
	{`(?i)\b(curl|wget)\b[^|;&]*\|\s*(sudo\s+)?(ba|z|da)?sh\b`, "network download piped to shell"},
	{`(?i)\b(shutdown|reboot|halt|poweroff)\b`, "system power control"},
	{`(?i)\bkill\s+(-9\s+)?1\b`, "kill init process"},
	{`(?i)>\s*/etc/(passwd|shadow|sudoers)`, "overwrite system credential file"},
	{`(?i)\biptables\s+(-[a-z]+\s+)*(-F|--flush)`, "flush firewall rules"},
}

var moderatePatterns = []struct{ pattern, reason string }{
	{`(?i)\brm\s+(-[a-z]+\s+)*\S`, "file deletion"},
	{`(?i)\bmv\s+.*\s+/dev/null`, "move to /dev/null"},
	{`(?i)\bsudo\b`, "privilege escalation"},
	{`(?i)\bchmod\b`, "permission change"},
	{`(?i)\bchown\b`, "ownership change"},
	{`(?i)\b(apt|apt-get|yum|dnf|pacman|brew)\s+(install|remove|purge|upgrade)\b`, "package management"},
	{`(?i)\bpip3?\s+(install|uninstall)\b`, "python package management"},
	{`(?i)\bnpm\s+(install|uninstall|update)\s+(-g|--global)\b`, "global npm package change"},
	{`(?i)\bgit\s+push\s+.*(-f\b|--force)`, "force push"},
	{`(?i)\bgit\s+(reset\s+--hard|clean\s+-[a-z]*f)`, "destructive git operation"},
	{`(?i)\bsystemctl\s+(stop|disable|mask)\b`, "service shutdown"},
	{`(?i)\b(truncate|shred)\b`, "file content destruction"},
	{`(?i)\bcrontab\s+(-r|-e)\b`, "crontab modification"},
}

// NewClassifier compiles the risk pattern table. The tables are
// static, so a pattern that fails to compile is a programming error
// and panics rather than silently weakening the gate.
func NewClassifier() *Classifier {
	c := &Classifier{}
	for _, p := range dangerousPatterns {
		c.patterns = append(c.patterns, riskPattern{re: regexp.MustCompile(p.pattern), tier: VerdictDangerous, reason: p.reason})
	}
	for _, p := range moderatePatterns {
		c.patterns = append(c.patterns, riskPattern{re: regexp.MustCompile(p.pattern), tier: VerdictModerate, reason: p.reason})
	}
	return c
}

// Classify assigns a risk tier to a command string. Same input always
// yields the same verdict.
func (c *Classifier) Classify(command string) Classification {
	command = strings.TrimSpace(command)
	if command == "" {
		return Classification{Verdict: VerdictSafe}
	}

	result := Classification{Verdict: VerdictSafe}
	for _, p := range c.patterns {
		if !p.re.MatchString(command) {
			continue
		}
		result.Warnings = append(result.Warnings, p.reason)
		// Dangerous outranks Moderate; first dangerous hit settles the tier.
		if p.tier == VerdictDangerous {
			result.Verdict = VerdictDangerous
		} else if result.Verdict == VerdictSafe {
			result.Verdict = VerdictModerate
		}
	}
	return result
}

var defaultClassifier = NewClassifier()

// Classify assigns a risk tier using the default pattern table.
func Classify(command string) Classification {
	return defaultClassifier.Classify(command)
}
