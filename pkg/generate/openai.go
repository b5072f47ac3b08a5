package generate

import (
	"context"
	"encoding/base64"

	"github.com/charmbracelet/log"
	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/matzehuels/campaignkit/pkg/design"
	"github.com/matzehuels/campaignkit/pkg/errors"
)

// Default OpenAI models.
const (
	DefaultOpenAIModel      = "gpt-4o-mini"
	DefaultOpenAIImageModel = "dall-e-3"
)

// OpenAI generates through the OpenAI API.
type OpenAI struct {
	client     openai.Client
	model      string
	imageModel string
	logger     *log.Logger
}

// NewOpenAI creates an OpenAI generator. cfg.APIKey is required.
func NewOpenAI(cfg Config, logger *log.Logger) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "OpenAI API key is required (set OPENAI_API_KEY)")
	}
	if logger == nil {
		logger = log.Default()
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	o := &OpenAI{
		client:     openai.NewClient(opts...),
		model:      cfg.Model,
		imageModel: cfg.ImageModel,
		logger:     logger,
	}
	if o.model == "" {
		o.model = DefaultOpenAIModel
	}
	if o.imageModel == "" {
		o.imageModel = DefaultOpenAIImageModel
	}
	return o, nil
}

// Name implements Generator.
func (o *OpenAI) Name() string { return "openai/" + o.model }

// Copy implements Generator.
func (o *OpenAI) Copy(ctx context.Context, req CopyRequest) (Copy, error) {
	if err := req.Validate(); err != nil {
		return Copy{}, err
	}
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(copySystemPrompt),
			openai.UserMessage(copyPrompt(req)),
		},
	})
	if err != nil {
		return Copy{}, serviceError("OpenAI", err)
	}
	if len(resp.Choices) == 0 {
		return Copy{}, errors.New(errors.ErrCodeAIService, "OpenAI returned no choices")
	}
	return ParseCopy(resp.Choices[0].Message.Content)
}

// Image implements Generator. Reference images are not supported by the
// generation endpoint and are ignored.
func (o *OpenAI) Image(ctx context.Context, req ImageRequest) (design.Asset, error) {
	if err := req.Validate(); err != nil {
		return design.Asset{}, err
	}
	if req.Reference != nil && !req.Reference.Empty() {
		o.logger.Debug("openai image generation ignores the reference image")
	}
	resp, err := o.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         imagePrompt(req),
		Model:          openai.ImageModel(o.imageModel),
		ResponseFormat: openai.ImageGenerateParamsResponseFormatB64JSON,
		Size:           openAISize(req.Aspect),
	})
	if err != nil {
		return design.Asset{}, serviceError("OpenAI", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return design.Asset{}, errors.New(errors.ErrCodeAIService, "OpenAI returned no image")
	}
	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return design.Asset{}, errors.Wrap(errors.ErrCodeAIService, err, "decode OpenAI image")
	}
	return design.NewAsset(data, "openai:"+o.imageModel), nil
}

func openAISize(aspect string) openai.ImageGenerateParamsSize {
	switch aspect {
	case AspectLandscape:
		return openai.ImageGenerateParamsSize1792x1024
	case AspectPortrait:
		return openai.ImageGenerateParamsSize1024x1792
	}
	return openai.ImageGenerateParamsSize1024x1024
}

var _ Generator = (*OpenAI)(nil)
