// Package actions implements the quick-action forms: a fixed catalog of
// structured requests, each performing one round trip independent of the chat.
package actions

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/bizcopilot/copilot/internal/models"
)

// Kind names a quick action
type Kind string

const (
	KindContract Kind = "contract"
	KindPost     Kind = "post"
	KindFinance  Kind = "finance"
	KindSummary  Kind = "summary"
	KindCompany  Kind = "company"
	KindTaxes    Kind = "taxes"
)

// Poster is the part of the gateway quick actions need
type Poster interface {
	PostJSON(ctx context.Context, path string, request, response any) error
}

// Choice is one allowed value of a select field
type Choice struct {
	Value string
	Label string
}

// Field describes one form input
type Field struct {
	Name        string
	Label       string
	Placeholder string
	Required    bool
	Multiline   bool
	Choices     []Choice
	Default     string
}

// Values holds raw form input keyed by field name
type Values map[string]string

// present returns the value of name, or "" when it is blank after trimming
func (v Values) present(name string) string {
	s := v[name]
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return s
}

// Action is one catalog entry
type Action struct {
	Kind   Kind
	Title  string
	Icon   string
	Submit string
	Path   string
	Fields []Field

	run func(ctx context.Context, client Poster, values Values) (string, error)
}

// Defaults returns the initial form values
func (a Action) Defaults() Values {
	values := make(Values, len(a.Fields))
	for _, f := range a.Fields {
		values[f.Name] = f.Default
	}
	return values
}

// Validate checks required fields and choice values
func (a Action) Validate(values Values) error {
	verr := &ValidationError{Kind: a.Kind}
	for _, f := range a.Fields {
		v := values.present(f.Name)
		if f.Required && v == "" {
			verr.Missing = append(verr.Missing, f.Label)
			continue
		}
		if v != "" && len(f.Choices) > 0 && !hasChoice(f.Choices, v) {
			verr.Invalid = append(verr.Invalid, f.Label)
		}
	}
	if len(verr.Missing) == 0 && len(verr.Invalid) == 0 {
		return nil
	}
	return verr
}

// Run validates values and performs the round trip, returning the display text
func (a Action) Run(ctx context.Context, client Poster, values Values) (string, error) {
	if err := a.Validate(values); err != nil {
		return "", err
	}
	return a.run(ctx, client, values)
}

func hasChoice(choices []Choice, v string) bool {
	for _, c := range choices {
		if c.Value == v {
			return true
		}
	}
	return false
}

// ValidationError lists fields that block a submission
type ValidationError struct {
	Kind    Kind
	Missing []string
	Invalid []string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "заполните обязательные поля: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "недопустимое значение: "+strings.Join(e.Invalid, ", "))
	}
	return strings.Join(parts, "; ")
}

// entry binds a typed request builder and response projection into an Action
func entry[Req, Resp any](a Action, build func(Values) Req, project func(*Resp) string) Action {
	a.run = func(ctx context.Context, client Poster, values Values) (string, error) {
		var resp Resp
		if err := client.PostJSON(ctx, a.Path, build(values), &resp); err != nil {
			return "", err
		}
		return project(&resp), nil
	}
	return a
}

var catalog = []Action{
	entry(Action{
		Kind:   KindContract,
		Title:  "Составить договор",
		Icon:   "📄",
		Submit: "Создать",
		Path:   models.PathLegalContract,
		Fields: []Field{
			{Name: "contract_type", Label: "Тип договора", Placeholder: "аренда, услуги, поставка...", Required: true},
			{Name: "parties", Label: "Стороны договора", Required: true},
			{Name: "subject", Label: "Предмет договора", Required: true, Multiline: true},
			{Name: "amount", Label: "Сумма/цена", Placeholder: "опционально"},
			{Name: "additional_info", Label: "Дополнительная информация", Multiline: true},
		},
	}, buildContract, func(r *models.LegalContractResponse) string {
		return r.ContractText
	}),

	entry(Action{
		Kind:   KindPost,
		Title:  "Создать промо-пост",
		Icon:   "📢",
		Submit: "Создать",
		Path:   models.PathMarketingPost,
		Fields: []Field{
			{Name: "business_description", Label: "Описание бизнеса", Required: true, Multiline: true},
			{Name: "promotion_goal", Label: "Цель промоакции", Required: true, Multiline: true},
			{Name: "platform", Label: "Платформа", Default: "general", Choices: []Choice{
				{"general", "Общая"},
				{"instagram", "Instagram"},
				{"vk", "ВКонтакте"},
				{"telegram", "Telegram"},
			}},
			{Name: "target_audience", Label: "Целевая аудитория", Placeholder: "опционально"},
			{Name: "tone", Label: "Тон", Default: "friendly", Choices: []Choice{
				{"friendly", "Дружелюбный"},
				{"professional", "Деловой"},
				{"casual", "Неформальный"},
			}},
		},
	}, buildPost, func(r *models.MarketingPostResponse) string {
		return strings.Join(r.Posts, "\n\n---\n\n")
	}),

	entry(Action{
		Kind:   KindFinance,
		Title:  "Финансовый отчёт",
		Icon:   "💰",
		Submit: "Проанализировать",
		Path:   models.PathFinanceReport,
		Fields: []Field{
			{Name: "sales_data", Label: "Данные по продажам", Placeholder: "JSON или текст", Multiline: true},
			{Name: "expenses_data", Label: "Данные по расходам", Placeholder: "JSON или текст", Multiline: true},
			{Name: "period", Label: "Период", Placeholder: "опционально"},
			{Name: "questions", Label: "Конкретные вопросы", Placeholder: "опционально", Multiline: true},
		},
	}, buildFinance, func(r *models.FinanceReportResponse) string {
		return r.Analysis + "\n\nРекомендации:\n" + strings.Join(r.Recommendations, "\n")
	}),

	entry(Action{
		Kind:   KindSummary,
		Title:  "Резюме текста",
		Icon:   "📝",
		Submit: "Резюмировать",
		Path:   models.PathSummary,
		Fields: []Field{
			{Name: "text", Label: "Текст", Placeholder: "Вставьте текст для резюмирования...", Required: true, Multiline: true},
			{Name: "summary_type", Label: "Тип резюме", Choices: []Choice{
				{"general", "Общее"},
				{"tasks", "Задачи"},
				{"next_steps", "Следующие шаги"},
			}},
		},
	}, buildSummary, func(r *models.SummaryResponse) string {
		return r.Summary + "\n\nЗадачи:\n" + strings.Join(r.Tasks, "\n")
	}),

	entry(Action{
		Kind:   KindCompany,
		Title:  "Карточка компании",
		Icon:   "🏢",
		Submit: "Создать карточку",
		Path:   models.PathCompanyCard,
		Fields: []Field{
			{Name: "inn", Label: "ИНН", Placeholder: "опционально"},
			{Name: "company_name", Label: "Название компании", Required: true},
			{Name: "address", Label: "Адрес", Placeholder: "опционально"},
			{Name: "additional_info", Label: "Дополнительная информация", Placeholder: "ОКВЭД, вид деятельности, контакты и т.д.", Multiline: true},
		},
	}, buildCompany, func(r *models.CompanyCardResponse) string {
		return r.CardText + "\n\nРекомендации:\n" + strings.Join(r.Recommendations, "\n")
	}),

	entry(Action{
		Kind:   KindTaxes,
		Title:  "Консультация по налогам",
		Icon:   "📊",
		Submit: "Получить консультацию",
		Path:   models.PathTaxConsultation,
		Fields: []Field{
			{Name: "question", Label: "Ваш вопрос о налогах", Required: true, Multiline: true},
			{Name: "business_type", Label: "Тип бизнеса", Choices: []Choice{
				{"ИП", "ИП"},
				{"ООО", "ООО"},
			}},
			{Name: "tax_regime", Label: "Налоговый режим", Choices: []Choice{
				{"УСН", "УСН"},
				{"ОСН", "ОСН"},
				{"ПСН", "ПСН"},
				{"ЕНВД", "ЕНВД"},
			}},
			{Name: "revenue", Label: "Выручка в рублях", Placeholder: "опционально, для расчётов"},
			{Name: "additional_context", Label: "Дополнительный контекст", Placeholder: "опционально", Multiline: true},
		},
	}, buildTaxes, func(r *models.TaxConsultationResponse) string {
		return r.Answer + "\n\n" + strings.Join(r.Warnings, "\n")
	}),
}

// Catalog returns every quick action in display order
func Catalog() []Action {
	out := make([]Action, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the action of kind
func Lookup(kind Kind) (Action, bool) {
	for _, a := range catalog {
		if a.Kind == kind {
			return a, true
		}
	}
	return Action{}, false
}

func buildContract(v Values) models.LegalContractRequest {
	return models.LegalContractRequest{
		ContractType:   v["contract_type"],
		Parties:        v["parties"],
		Subject:        v["subject"],
		Amount:         v.present("amount"),
		AdditionalInfo: v.present("additional_info"),
	}
}

func buildPost(v Values) models.MarketingPostRequest {
	platform := v.present("platform")
	if platform == "" {
		platform = "general"
	}
	return models.MarketingPostRequest{
		BusinessDescription: v["business_description"],
		PromotionGoal:       v["promotion_goal"],
		Platform:            platform,
		TargetAudience:      v.present("target_audience"),
		Tone:                v.present("tone"),
	}
}

func buildFinance(v Values) models.FinanceReportRequest {
	return models.FinanceReportRequest{
		SalesData:    FinanceRecord(v["sales_data"]),
		ExpensesData: FinanceRecord(v["expenses_data"]),
		Period:       v.present("period"),
		Questions:    v.present("questions"),
	}
}

func buildSummary(v Values) models.SummaryRequest {
	return models.SummaryRequest{
		Text:        v["text"],
		SummaryType: v.present("summary_type"),
	}
}

func buildCompany(v Values) models.CompanyCardRequest {
	return models.CompanyCardRequest{
		INN:            v.present("inn"),
		CompanyName:    v.present("company_name"),
		Address:        v.present("address"),
		AdditionalInfo: v.present("additional_info"),
	}
}

func buildTaxes(v Values) models.TaxConsultationRequest {
	return models.TaxConsultationRequest{
		Question:          v["question"],
		BusinessType:      v.present("business_type"),
		TaxRegime:         v.present("tax_regime"),
		Revenue:           ParseRevenue(v["revenue"]),
		AdditionalContext: v.present("additional_context"),
	}
}

// FinanceRecord turns free text into the object sent for sales or expenses.
// A JSON object is sent as is, anything else is wrapped as {"description": text}.
// Blank text yields nil, which is omitted from the request.
func FinanceRecord(text string) json.RawMessage {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if gjson.Valid(text) && gjson.Parse(text).IsObject() {
		return json.RawMessage(text)
	}
	data, err := json.Marshal(map[string]string{"description": text})
	if err != nil {
		return nil
	}
	return data
}

// ParseRevenue parses a revenue amount. Blank, unparsable and non-finite
// input yields nil.
func ParseRevenue(text string) *float64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return nil
	}
	return &f
}

// String implements fmt.Stringer for flag help
func (k Kind) String() string {
	return string(k)
}
