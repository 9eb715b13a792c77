package models

import "encoding/json"

// LegalContractRequest is the body of POST /api/usecases/legal-contract
type LegalContractRequest struct {
	ContractType   string `json:"contract_type"`
	Parties        string `json:"parties"`
	Subject        string `json:"subject"`
	Amount         string `json:"amount,omitempty"`
	AdditionalInfo string `json:"additional_info,omitempty"`
}

// LegalContractResponse is the answer of the legal-contract use case
type LegalContractResponse struct {
	ContractText string   `json:"contract_text"`
	Warnings     []string `json:"warnings"`
}

// MarketingPostRequest is the body of POST /api/usecases/marketing-post
type MarketingPostRequest struct {
	BusinessDescription string `json:"business_description"`
	PromotionGoal       string `json:"promotion_goal"`
	Platform            string `json:"platform"`
	TargetAudience      string `json:"target_audience,omitempty"`
	Tone                string `json:"tone,omitempty"`
}

// MarketingPostResponse is the answer of the marketing-post use case
type MarketingPostResponse struct {
	Posts []string `json:"posts"`
}

// FinanceReportRequest is the body of POST /api/usecases/finance-report.
// SalesData and ExpensesData always hold a JSON object when set.
type FinanceReportRequest struct {
	SalesData    json.RawMessage `json:"sales_data,omitempty"`
	ExpensesData json.RawMessage `json:"expenses_data,omitempty"`
	Period       string          `json:"period,omitempty"`
	Questions    string          `json:"questions,omitempty"`
}

// FinanceReportResponse is the answer of the finance-report use case
type FinanceReportResponse struct {
	Analysis        string   `json:"analysis"`
	Recommendations []string `json:"recommendations"`
	Warnings        []string `json:"warnings"`
}

// SummaryRequest is the body of POST /api/usecases/summary
type SummaryRequest struct {
	Text        string `json:"text"`
	SummaryType string `json:"summary_type,omitempty"`
}

// SummaryResponse is the answer of the summary use case
type SummaryResponse struct {
	Summary   string   `json:"summary"`
	Tasks     []string `json:"tasks"`
	NextSteps []string `json:"next_steps"`
}

// CompanyCardRequest is the body of POST /api/usecases/company-card
type CompanyCardRequest struct {
	INN            string `json:"inn,omitempty"`
	CompanyName    string `json:"company_name,omitempty"`
	Address        string `json:"address,omitempty"`
	AdditionalInfo string `json:"additional_info,omitempty"`
}

// CompanyCardResponse is the answer of the company-card use case
type CompanyCardResponse struct {
	CardText        string          `json:"card_text"`
	StructuredData  json.RawMessage `json:"structured_data,omitempty"`
	Recommendations []string        `json:"recommendations"`
}

// TaxConsultationRequest is the body of POST /api/usecases/tax-consultation.
// Revenue is a pointer so that an absent value is omitted rather than sent as 0.
type TaxConsultationRequest struct {
	Question          string   `json:"question"`
	BusinessType      string   `json:"business_type,omitempty"`
	TaxRegime         string   `json:"tax_regime,omitempty"`
	Revenue           *float64 `json:"revenue,omitempty"`
	AdditionalContext string   `json:"additional_context,omitempty"`
}

// TaxConsultationResponse is the answer of the tax-consultation use case
type TaxConsultationResponse struct {
	Answer       string          `json:"answer"`
	Calculations json.RawMessage `json:"calculations,omitempty"`
	Warnings     []string        `json:"warnings"`
}
