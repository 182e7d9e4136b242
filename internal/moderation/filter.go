package moderation

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/npepeverse/pepebot/internal/config"
)

// Reason explains why a message was classified as spam.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonForbiddenKeyword Reason = "forbidden_keyword"
	ReasonUnknownLink      Reason = "unknown_link"
	ReasonForeignAddress   Reason = "foreign_address"
	ReasonEVMAddress       Reason = "evm_address"
)

// Verdict is the result of Classify.
type Verdict struct {
	Spam   bool
	Reason Reason
	Match  string // the keyword, host or address that triggered it
}

var (
	urlRe = regexp.MustCompile(`(?i)\bhttps?://([^\s/?#<>"']+)`)

	bareDomainRe = regexp.MustCompile(`(?i)\b((?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)+` +
		`(?:com|net|org|io|xyz|fun|app|me|co|gg|so|ly|finance|money|top|site|online|club|info|biz|` +
		`live|vip|pro|link|click|ru|cn|tk|ml|ga|cf|gq|cc|ws|sh|ai|dev|exchange|to|tv|us|uk|news|` +
		`store|shop|space|website|tech|world|bet|casino|claims|gift|airdrop))\b`)

	base58Re = regexp.MustCompile(`\b[1-9A-HJ-NP-Za-km-z]{32,44}\b`)
	evmRe    = regexp.MustCompile(`(?i)\b0x[0-9a-f]{40}\b`)
)

// Filter classifies group messages as spam. It is immutable after construction
// and safe for concurrent use.
type Filter struct {
	forbidden  []string
	allowed    []string
	ownAddress string
}

// NewFilter builds a Filter from config. Hosts of the project's own links are
// always allowed.
func NewFilter(mod config.ModerationConfig, project config.ProjectConfig) *Filter {
	f := &Filter{ownAddress: project.ContractAddress}
	for _, kw := range mod.ForbiddenKeywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			f.forbidden = append(f.forbidden, kw)
		}
	}
	for _, d := range mod.AllowedDomains {
		if d = normalizeHost(d); d != "" {
			f.allowed = append(f.allowed, d)
		}
	}
	for _, link := range []string{project.Website, project.Telegram, project.Twitter, project.BuyLink()} {
		if u, err := url.Parse(link); err == nil && u.Host != "" {
			f.allowed = append(f.allowed, normalizeHost(u.Host))
		}
	}
	return f
}

// Classify checks, in order: forbidden keywords, unknown links, foreign base58
// addresses and EVM addresses. The first hit wins.
func (f *Filter) Classify(text string) Verdict {
	lower := strings.ToLower(text)

	for _, kw := range f.forbidden {
		if strings.Contains(lower, kw) {
			return Verdict{Spam: true, Reason: ReasonForbiddenKeyword, Match: kw}
		}
	}

	if host, ok := f.unknownLink(text); ok {
		return Verdict{Spam: true, Reason: ReasonUnknownLink, Match: host}
	}

	for _, addr := range base58Re.FindAllString(text, -1) {
		if addr != f.ownAddress {
			return Verdict{Spam: true, Reason: ReasonForeignAddress, Match: addr}
		}
	}

	if m := evmRe.FindString(text); m != "" {
		return Verdict{Spam: true, Reason: ReasonEVMAddress, Match: m}
	}

	return Verdict{}
}

// unknownLink returns the first host not on the allow-list. Text mentioning
// "http" without any parsable host counts as unknown.
func (f *Filter) unknownLink(text string) (string, bool) {
	hosts := make([]string, 0, 2)
	for _, m := range urlRe.FindAllStringSubmatch(text, -1) {
		hosts = append(hosts, m[1])
	}
	if len(hosts) == 0 && strings.Contains(strings.ToLower(text), "http") {
		return "http", true
	}
	for _, m := range bareDomainRe.FindAllStringSubmatch(text, -1) {
		hosts = append(hosts, m[1])
	}
	for _, h := range hosts {
		h = normalizeHost(h)
		if !f.hostAllowed(h) {
			return h, true
		}
	}
	return "", false
}

func (f *Filter) hostAllowed(host string) bool {
	if host == "" {
		return false
	}
	for _, d := range f.allowed {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// normalizeHost lowercases and strips userinfo, port, trailing dot and "www.".
func normalizeHost(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	if i := strings.LastIndex(h, "@"); i >= 0 {
		h = h[i+1:]
	}
	if i := strings.IndexByte(h, ':'); i >= 0 {
		h = h[:i]
	}
	h = strings.TrimSuffix(h, ".")
	return strings.TrimPrefix(h, "www.")
}
