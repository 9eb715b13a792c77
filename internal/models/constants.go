// Package models contains wire types and constants for the AI Copilot backend API.
package models

// DefaultBaseURL is used when neither the environment nor the config file set one.
const DefaultBaseURL = "http://localhost:8000"

// Endpoint paths relative to the base address
const (
	PathChat            = "/api/chat"
	PathHealth          = "/api/health"
	PathLegalContract   = "/api/usecases/legal-contract"
	PathMarketingPost   = "/api/usecases/marketing-post"
	PathFinanceReport   = "/api/usecases/finance-report"
	PathSummary         = "/api/usecases/summary"
	PathCompanyCard     = "/api/usecases/company-card"
	PathTaxConsultation = "/api/usecases/tax-consultation"
)

// Mode selects the assistant persona the backend uses for a chat turn.
type Mode string

// Chat modes understood by the backend
const (
	ModeGeneral   Mode = "general"
	ModeLegal     Mode = "legal"
	ModeMarketing Mode = "marketing"
	ModeFinance   Mode = "finance"
	ModeSummary   Mode = "summary"
)

// DefaultMode is sent when the user has not picked one
const DefaultMode = ModeGeneral

// ModeInfo describes a chat mode for menus and help output
type ModeInfo struct {
	Mode  Mode
	Label string
}

// Modes lists every chat mode in display order
var Modes = []ModeInfo{
	{ModeGeneral, "Общий"},
	{ModeLegal, "Юридический"},
	{ModeMarketing, "Маркетинг"},
	{ModeFinance, "Финансы"},
	{ModeSummary, "Резюме"},
}

// ParseMode returns the Mode named by s and whether it is known
func ParseMode(s string) (Mode, bool) {
	for _, info := range Modes {
		if string(info.Mode) == s {
			return info.Mode, true
		}
	}
	return "", false
}

// ModeLabel returns the human label for m, or m itself when unknown
func ModeLabel(m Mode) string {
	for _, info := range Modes {
		if info.Mode == m {
			return info.Label
		}
	}
	return string(m)
}

// DefaultHeaders returns the headers sent with every request
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
		"User-Agent":   "bizcopilot-cli",
	}
}
