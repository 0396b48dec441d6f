package imagegen

import (
	"context"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/janhq/notes-mcp/internal/utils/platformerrors"
)

const (
	MinSteps     = 4
	MaxSteps     = 8
	DefaultSteps = 4
)

// Generator is a text-to-image model endpoint returning raw image bytes.
type Generator interface {
	GenerateImage(ctx context.Context, prompt string, steps int) ([]byte, error)
}

// Image is a generated image ready to be returned as MCP image content.
type Image struct {
	Data     []byte
	MIMEType string
	Prompt   string
	Steps    int
}

// Service validates prompts and step counts before calling the generator.
type Service struct {
	generator Generator
}

// NewService creates the image generation service.
func NewService(generator Generator) *Service {
	return &Service{generator: generator}
}

// Generate renders the prompt. steps=0 uses the default.
func (s *Service) Generate(ctx context.Context, prompt string, steps int) (*Image, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "prompt is required", nil, "")
	}
	if steps == 0 {
		steps = DefaultSteps
	}
	if steps < MinSteps || steps > MaxSteps {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("steps must be between %d and %d", MinSteps, MaxSteps), nil, "")
	}

	data, err := s.generator.GenerateImage(ctx, prompt, steps)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal, "image generation failed", err, "")
	}
	if len(data) == 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal, "image generation returned no data", nil, "")
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal,
			fmt.Sprintf("image generation returned %s instead of an image", mt.String()), nil, "")
	}

	return &Image{
		Data:     data,
		MIMEType: mt.String(),
		Prompt:   prompt,
		Steps:    steps,
	}, nil
}
