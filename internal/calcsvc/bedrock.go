package calcsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"report-converter/internal/calc"
)

const (
	defaultMaxTokens = 1024
	maxRetryAttempts = 3
	baseRetryDelay   = 1 * time.Second
)

const systemPrompt = `You translate report calculations into DAX measure expressions.
Reply with a single minified JSON object and nothing else.`

// BedrockConfig configures the Bedrock generator.
type BedrockConfig struct {
	ModelID   string // Bedrock model ID (required)
	Region    string // AWS region (required)
	Profile   string // AWS credential profile (optional)
	MaxTokens int
	// RetryDelay is the first backoff delay after throttling.
	RetryDelay time.Duration
}

// BedrockAPI abstracts the Bedrock Converse call for testing.
type BedrockAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockGenerator asks a Bedrock model for each measure expression.
type BedrockGenerator struct {
	api        BedrockAPI
	modelID    string
	maxTokens  int
	retryDelay time.Duration
}

// NewBedrockGenerator creates a generator using the standard AWS credential
// chain.
func NewBedrockGenerator(ctx context.Context, cfg BedrockConfig) (*BedrockGenerator, error) {
	if cfg.ModelID == "" {
		return nil, fmt.Errorf("%w: model ID is required", ErrGeneration)
	}

	if cfg.Region == "" {
		return nil, fmt.Errorf("%w: region is required", ErrGeneration)
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: loading AWS config: %v", ErrGeneration, err)
	}

	return NewBedrockGeneratorWithAPI(bedrockruntime.NewFromConfig(awsCfg), cfg), nil
}

// NewBedrockGeneratorWithAPI creates a generator around a pre-configured API.
func NewBedrockGeneratorWithAPI(api BedrockAPI, cfg BedrockConfig) *BedrockGenerator {
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	retryDelay := cfg.RetryDelay
	if retryDelay == 0 {
		retryDelay = baseRetryDelay
	}

	return &BedrockGenerator{
		api:        api,
		modelID:    cfg.ModelID,
		maxTokens:  maxTokens,
		retryDelay: retryDelay,
	}
}

// Generate implements Generator.
func (g *BedrockGenerator) Generate(ctx context.Context, req calc.Request) (calc.Result, error) {
	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(g.modelID),
		System: []brtypes.SystemContentBlock{
			&brtypes.SystemContentBlockMemberText{Value: systemPrompt},
		},
		Messages: []brtypes.Message{
			{
				Role: brtypes.ConversationRoleUser,
				Content: []brtypes.ContentBlock{
					&brtypes.ContentBlockMemberText{Value: buildPrompt(req)},
				},
			},
		},
		InferenceConfig: &brtypes.InferenceConfiguration{
			MaxTokens: aws.Int32(int32(g.maxTokens)),
		},
	}

	text, err := g.converseWithRetry(ctx, input)
	if err != nil {
		return calc.Result{}, err
	}

	res, err := parseReply(text)
	if err != nil {
		return calc.Result{}, fmt.Errorf("%w: %s: %v", ErrGeneration, req.MeasureID, err)
	}

	res.MeasureID = req.MeasureID

	return res, nil
}

func (g *BedrockGenerator) converseWithRetry(ctx context.Context, input *bedrockruntime.ConverseInput) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= maxRetryAttempts; attempt++ {
		if attempt > 0 {
			delay := g.retryDelay * time.Duration(math.Pow(2, float64(attempt-1)))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", fmt.Errorf("%w: context cancelled during retry: %v", ErrGeneration, ctx.Err())
			}
		}

		out, err := g.api.Converse(ctx, input)
		if err != nil {
			var throttle *brtypes.ThrottlingException
			if errors.As(err, &throttle) {
				lastErr = err
				continue
			}

			return "", g.classifyError(err)
		}

		return replyText(out)
	}

	return "", fmt.Errorf("%w: rate limited after %d retries: %v", ErrGeneration, maxRetryAttempts, lastErr)
}

func (g *BedrockGenerator) classifyError(err error) error {
	var accessDenied *brtypes.AccessDeniedException
	if errors.As(err, &accessDenied) {
		return fmt.Errorf("%w: credential or permission issue: %v", ErrGeneration, err)
	}

	var notFound *brtypes.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return fmt.Errorf("%w: model not found: %s", ErrGeneration, g.modelID)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: request timed out: %w", ErrGeneration, err)
	}

	return fmt.Errorf("%w: %v", ErrGeneration, err)
}

func replyText(out *bedrockruntime.ConverseOutput) (string, error) {
	if out == nil {
		return "", fmt.Errorf("%w: empty response", ErrGeneration)
	}

	msg, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return "", fmt.Errorf("%w: response carries no message", ErrGeneration)
	}

	var b strings.Builder

	for _, block := range msg.Value.Content {
		if text, ok := block.(*brtypes.ContentBlockMemberText); ok {
			b.WriteString(text.Value)
		}
	}

	if strings.TrimSpace(b.String()) == "" {
		return "", fmt.Errorf("%w: response has no text", ErrGeneration)
	}

	return b.String(), nil
}

func buildPrompt(req calc.Request) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Power BI column: %s\n", req.TargetRef())
	fmt.Fprintf(&b, "Desired aggregation: %s\n", calc.AggregationFunction(req.Aggregation))

	if req.SourceExpression != "" {
		fmt.Fprintf(&b, "Original calculation: %s\n", req.SourceExpression)
	}

	b.WriteString("\nReturn a JSON object with two keys:\n")
	b.WriteString(`1. "measure": the DAX expression of the measure, without a measure name` + "\n")
	fmt.Fprintf(&b, `2. "dataType": one of %s`+"\n", strings.Join(dataTypeOptions, ", "))
	b.WriteString("\nExample output:\n")
	b.WriteString(`{"measure":"SUM('Sales'[Sales Amount])","dataType":"decimal number"}`)

	return b.String()
}

var dataTypeOptions = []string{
	calc.TypeText,
	calc.TypeWholeNumber,
	calc.TypeDecimal,
	calc.TypeDateTime,
	"date",
	"time",
	calc.TypeBoolean,
	calc.TypeFixedDecimal,
	calc.TypeBinary,
}

type reply struct {
	Measure  string `json:"measure"`
	DataType string `json:"dataType"`
}

// parseReply extracts the JSON answer, tolerating markdown code fences.
func parseReply(text string) (calc.Result, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var r reply
	if err := json.Unmarshal([]byte(cleaned), &r); err != nil {
		return calc.Result{}, fmt.Errorf("decoding reply: %w", err)
	}

	if strings.TrimSpace(r.Measure) == "" {
		return calc.Result{}, errors.New("reply has no measure")
	}

	dataType := strings.ToLower(strings.TrimSpace(r.DataType))
	if !calc.IsDataType(dataType) {
		dataType = calc.TypeText
	}

	return calc.Result{Expression: strings.TrimSpace(r.Measure), DataType: dataType}, nil
}
