package generate

import (
	"context"

	"google.golang.org/genai"

	"github.com/matzehuels/campaignkit/pkg/design"
	"github.com/matzehuels/campaignkit/pkg/errors"
)

// Default Gemini models.
const (
	DefaultGeminiModel      = "gemini-2.5-flash"
	DefaultGeminiImageModel = "gemini-2.5-flash-image"
)

// Gemini generates through the Gemini API.
type Gemini struct {
	client     *genai.Client
	model      string
	imageModel string
}

// NewGemini creates a Gemini generator. cfg.APIKey is required.
func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "Gemini API key is required (set GEMINI_API_KEY)")
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.BaseURL
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeAIService, err, "create Gemini client")
	}
	g := &Gemini{client: client, model: cfg.Model, imageModel: cfg.ImageModel}
	if g.model == "" {
		g.model = DefaultGeminiModel
	}
	if g.imageModel == "" {
		g.imageModel = DefaultGeminiImageModel
	}
	return g, nil
}

// Name implements Generator.
func (g *Gemini) Name() string { return "gemini/" + g.model }

// Copy implements Generator.
func (g *Gemini) Copy(ctx context.Context, req CopyRequest) (Copy, error) {
	if err := req.Validate(); err != nil {
		return Copy{}, err
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		genai.Text(copyPrompt(req)),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(copySystemPrompt, genai.RoleUser),
			ResponseMIMEType:  "application/json",
		},
	)
	if err != nil {
		return Copy{}, serviceError("Gemini", err)
	}
	return ParseCopy(resp.Text())
}

// Image implements Generator. The first inline image part of the reply is returned.
func (g *Gemini) Image(ctx context.Context, req ImageRequest) (design.Asset, error) {
	if err := req.Validate(); err != nil {
		return design.Asset{}, err
	}
	parts := []*genai.Part{genai.NewPartFromText(imagePrompt(req))}
	if ref := req.Reference; ref != nil && !ref.Empty() {
		parts = append(parts, genai.NewPartFromBytes(ref.Data, ref.MIMEType))
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.imageModel,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		&genai.GenerateContentConfig{ResponseModalities: []string{"IMAGE", "TEXT"}},
	)
	if err != nil {
		return design.Asset{}, serviceError("Gemini", err)
	}
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				a := design.NewAsset(part.InlineData.Data, "gemini:"+g.imageModel)
				return a, nil
			}
		}
	}
	return design.Asset{}, errors.New(errors.ErrCodeAIService, "Gemini returned no image")
}

var _ Generator = (*Gemini)(nil)
