package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/janhq/notes-mcp/internal/domain/identity"
	"github.com/janhq/notes-mcp/internal/domain/imagegen"
)

// GenerateImageArgs defines the arguments for the generateImage tool
type GenerateImageArgs struct {
	Prompt string `json:"prompt" jsonschema_description:"Description of the image to generate"`
	Steps  int    `json:"steps,omitempty" jsonschema:"minimum=4,maximum=8,default=4" jsonschema_description:"Diffusion steps; more steps take longer"`
}

// ImageMCP exposes text-to-image generation as an MCP tool
type ImageMCP struct {
	images *imagegen.Service
}

// NewImageMCP creates the image tool
func NewImageMCP(images *imagegen.Service) *ImageMCP {
	return &ImageMCP{images: images}
}

// RegisterTools registers generateImage
func (i *ImageMCP) RegisterTools(server *mcp.Server, rt *ToolRuntime) {
	addTool(server, rt, &mcp.Tool{
		Name:        "generateImage",
		Description: "Generate an image from a text prompt.",
		InputSchema: inputSchema(GenerateImageArgs{}),
	}, i.generateImage)
}

func (i *ImageMCP) generateImage(ctx context.Context, _ *identity.User, in GenerateImageArgs) (*toolOutput, error) {
	img, err := i.images.Generate(ctx, in.Prompt, in.Steps)
	if err != nil {
		return nil, err
	}
	return &toolOutput{
		payload: map[string]any{
			"prompt":     img.Prompt,
			"steps":      img.Steps,
			"mime_type":  img.MIMEType,
			"size_bytes": len(img.Data),
		},
		content: []mcp.Content{&mcp.ImageContent{Data: img.Data, MIMEType: img.MIMEType}},
	}, nil
}
