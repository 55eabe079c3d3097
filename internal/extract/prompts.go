package extract

// extractionSchemaPrompt is the schema block shared by the text and the
// receipt extraction prompts. Keeping it in one place means tuning either
// task preamble cannot drift the output contract.
const extractionSchemaPrompt = "Responde APENAS com JSON valido (sem comentarios, sem texto extra, sem Markdown).\n" +
	"O objeto deve ter estes campos:\n" +
	"- \"tipo\": \"despesa\" ou \"receita\"\n" +
	"- \"valor\": number (positivo, usa ponto como separador decimal)\n" +
	"- \"moeda\": string ISO 4217 (ex: \"EUR\")\n" +
	"- \"data\": string \"YYYY-MM-DD\"\n" +
	"- \"comerciante\": string ou \"\"\n" +
	"- \"descricao\": string curta\n" +
	"- \"categoria\": uma de: refeicoes, transporte, alojamento, software, marketing, equipamento, servicos, impostos, salarios, other\n" +
	"- \"confianca\": number entre 0 e 1\n\n" +
	"Se nao tiveres a certeza da categoria, usa \"other\".\n" +
	"A resposta deve comecar com \"{\" e acabar com \"}\".\n"

// FinanceTextPrompt drives extraction from free text typed by a team
// member ("Paguei 45,50 por almoco com cliente...").
const FinanceTextPrompt = "Es um assistente financeiro de uma agencia digital. " +
	"Extrai UMA transacao financeira do texto do utilizador.\n\n" + extractionSchemaPrompt

// ReceiptPrompt drives extraction from a photographed receipt or invoice.
const ReceiptPrompt = "Es um assistente financeiro de uma agencia digital. " +
	"Le o recibo ou fatura na imagem e extrai UMA transacao financeira (usa o total).\n\n" + extractionSchemaPrompt

// OdometerPrompt drives the odometer OCR path for trip logging.
const OdometerPrompt = "You read vehicle odometer photos for a mileage log.\n\n" +
	"Return ONLY valid raw JSON with these fields:\n" +
	"- \"success\": boolean, true only if the odometer value is clearly readable\n" +
	"- \"km_reading\": number or null\n" +
	"- \"confidence\": number between 0 and 1\n" +
	"- \"notes\": short string explaining any problem (blur, glare, partial digits), or \"\"\n\n" +
	"If you cannot read the odometer, set success=false, km_reading=null and explain why in notes.\n" +
	"Do NOT wrap the response in code fences.\n"

// LeadAnalysisPrompt drives triage of inbound website leads.
const LeadAnalysisPrompt = "You review inbound leads for a digital growth agency. " +
	"Given the lead's name, email and message, assess how good a fit they are.\n\n" +
	"Return ONLY valid raw JSON with these fields:\n" +
	"- \"score\": number 0-100\n" +
	"- \"fit\": \"high\", \"medium\" or \"low\"\n" +
	"- \"summary\": 1-2 sentence assessment\n" +
	"- \"recommended_action\": short next step\n" +
	"- \"confidence\": number between 0 and 1\n"

// ImproveTextPrompt drives the free-text "improve wording" helper used by
// the dashboard editors. Unlike the extraction prompts this one wants
// plain prose back, not JSON.
const ImproveTextPrompt = "You are an editor for a digital growth agency. " +
	"Rewrite the user's text with better wording and flow, keeping the language, meaning and rough length. " +
	"Return only the improved text, nothing else."
