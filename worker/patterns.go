package worker

import (
	"regexp"
	"strings"

	"github.com/relaykit/mediator/domain"
)

// pattern is one entry in the ordered confirmation recognizer list
// (§4.1). extract pulls the kind-specific field out of the match; re
// must have a capture group whenever extract reads m[1].
type pattern struct {
	kind    domain.ConfirmationKind
	re      *regexp.Regexp
	extract func(m []string) map[string]string
}

// patterns is authoritative and ordered; the first match wins. Order
// encodes the tie-break rule: file_delete > file_write > command_execute
// > package_install > generic_yes_no > unknown.
var patterns = []pattern{
	{
		kind: domain.KindFileDelete,
		re:   regexp.MustCompile(`(?i)(?:delete|remove)\s+(?:file\s+)?['"]?([^\s'"?]+)['"]?`),
		extract: func(m []string) map[string]string {
			return map[string]string{"file": m[1]}
		},
	},
	{
		kind: domain.KindFileWrite,
		re:   regexp.MustCompile(`(?i)(?:write\s+to\s+file|create\s+file|overwrite)\s*['"]?([^\s'"?]+)['"]?`),
		extract: func(m []string) map[string]string {
			return map[string]string{"file": m[1]}
		},
	},
	{
		kind: domain.KindCommandExecute,
		re:   regexp.MustCompile(`(?i)(?:execute\s+command|run)\s*:?\s*['"]?([^'"\n]+?)['"]?\s*\??\s*$`),
		extract: func(m []string) map[string]string {
			return map[string]string{"command": strings.TrimSpace(m[1])}
		},
	},
	{
		kind: domain.KindPackageInstall,
		re:   regexp.MustCompile(`(?i)(?:install\s+package|pip\s+install|npm\s+install)\s+([^\s?]+)`),
		extract: func(m []string) map[string]string {
			return map[string]string{"package": m[1]}
		},
	},
	{
		kind: domain.KindGenericYesNo,
		re:   regexp.MustCompile(`(?i)(?:continue|approve|proceed)\s*\?\s*\(?\s*y(?:es)?\s*/\s*n(?:o)?\s*\)?`),
		extract: func(m []string) map[string]string {
			return map[string]string{}
		},
	},
	{
		kind: domain.KindUnknown,
		re:   regexp.MustCompile(`(?i)[^?\n]*\?\s*\(?\s*y(?:es)?\s*/\s*n(?:o)?\s*\)?\s*$`),
		extract: func(m []string) map[string]string {
			return map[string]string{}
		},
	},
}

// recognize scans buf for the highest-priority matching pattern. Returns
// ok=false if nothing matched. The returned prompt text is the full
// match, used verbatim as ConfirmationRequest.RawPrompt.
func recognize(buf []byte) (kind domain.ConfirmationKind, prompt string, details map[string]string, ok bool) {
	s := string(buf)
	for _, p := range patterns {
		loc := p.re.FindStringSubmatch(s)
		if loc == nil {
			continue
		}
		full := p.re.FindString(s)
		return p.kind, strings.TrimSpace(full), p.extract(loc), true
	}
	return domain.KindUnknown, "", nil, false
}
