package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/genai"
)

// ModelClient is the narrow interface the analyze handler depends on. Tests
// substitute a fake that counts calls; production uses GeminiClient.
type ModelClient interface {
	AnalyzeChart(ctx context.Context, image []byte, mimeType string) (*Result, error)
}

const systemInstruction = `Você é o NexusTrade AI, um analista financeiro sênior especializado em Price Action, Análise Técnica Institucional e Smart Money Concepts.

SEUS OBJETIVOS:
1. Validar se a imagem é um gráfico financeiro legítimo.
2. Identificar padrões gráficos de alta probabilidade.
3. Fornecer um veredito claro (COMPRA/VENDA) baseado em lógica técnica.

REGRAS DE VALIDAÇÃO (OBRIGATÓRIAS):
- Se a imagem NÃO for um gráfico financeiro (ex: foto de pessoa, paisagem, objeto, meme), retorne signal="NEUTRAL" e reasoning="ERRO: A imagem não é um gráfico de trading válido.".
- Você DEVE analisar SOMENTE prints de gráfico da corretora TrionBroker (plataforma TrionBroker / trionbroker.io / interface com texto "TrionBroker").
- Se a imagem for de outra corretora/plataforma (ex: IQ Option, Quotex, Binomo, Olymp Trade, MetaTrader/TradingView, Binance etc) OU se não for possível confirmar que é TrionBroker, retorne signal="NEUTRAL" e reasoning começando com "ERRO:".`

const userPrompt = `Primeiro, confirme visualmente se este print é da corretora TrionBroker.
- Se NÃO for TrionBroker, ou se houver dúvida, retorne imediatamente signal="NEUTRAL" e reasoning começando com "ERRO:" conforme as regras.
- Preencha o campo booleano isSourcePlatform: true somente se for claramente TrionBroker; caso contrário false.

Se for TrionBroker, analise este gráfico e forneça:
- Sinal (BUY, SELL, NEUTRAL, HOLD)
- Padrão Técnico (ex: Bandeira, OCO, Martelo, Pivô)
- Tendência (Alta, Baixa, Lateral)
- Explicação técnica detalhada (reasoning) em português, citando gatilhos de entrada.
- Níveis de Suporte e Resistência.

Responda estritamente em JSON conforme o schema.`

// responseSchema constrains the model output. Violations surface as
// ErrUpstream after parsing, not as retries.
var responseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"isSourcePlatform": {Type: genai.TypeBoolean},
		"signal": {
			Type: genai.TypeString,
			Enum: []string{"BUY", "SELL", "NEUTRAL", "HOLD"},
		},
		"pattern":          {Type: genai.TypeString},
		"trend":            {Type: genai.TypeString},
		"riskReward":       {Type: genai.TypeString},
		"reasoning":        {Type: genai.TypeString},
		"supportLevels":    {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"resistanceLevels": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"confidence":       {Type: genai.TypeNumber},
	},
	Required: []string{"isSourcePlatform", "signal", "pattern", "trend", "reasoning"},
}

// GeminiClient calls the Gemini API with the fixed instruction, prompt, and
// response schema. One blocking call per request, wrapped in a deadline so a
// hung upstream cannot hold the request open; no internal retry.
type GeminiClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiClient builds a client against the public Gemini API.
func NewGeminiClient(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("analyzer: init gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: model, timeout: timeout}, nil
}

// AnalyzeChart sends the image and returns the sanitized verdict. The
// source-platform gate is the caller's job: this method reports what the
// model said, after schema enforcement.
func (g *GeminiClient) AnalyzeChart(ctx context.Context, image []byte, mimeType string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(image, mimeType),
			genai.NewPartFromText(userPrompt),
		}, genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    responseSchema,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("%w: empty response", ErrUpstream)
	}

	var result Result
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("%w: unparseable response: %v", ErrUpstream, err)
	}
	if err := result.Sanitize(); err != nil {
		return nil, err
	}
	return &result, nil
}
