package imagegen

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/notes-mcp/internal/utils/platformerrors"
)

// minimal PNG header is enough for content sniffing
var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

type fakeGenerator struct {
	data      []byte
	err       error
	lastSteps int
}

func (f *fakeGenerator) GenerateImage(_ context.Context, _ string, steps int) ([]byte, error) {
	f.lastSteps = steps
	return f.data, f.err
}

func TestGenerate(t *testing.T) {
	gen := &fakeGenerator{data: pngBytes}
	svc := NewService(gen)

	img, err := svc.Generate(context.Background(), " a red fox ", 0)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType)
	assert.Equal(t, DefaultSteps, gen.lastSteps)
	assert.Equal(t, "a red fox", img.Prompt)
}

func TestGenerateValidation(t *testing.T) {
	svc := NewService(&fakeGenerator{data: pngBytes})
	ctx := context.Background()

	for _, steps := range []int{3, 9, -1} {
		_, err := svc.Generate(ctx, "fox", steps)
		assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation), "steps=%d", steps)
	}
	_, err := svc.Generate(ctx, "", 4)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))
}

func TestGenerateUpstreamFailures(t *testing.T) {
	ctx := context.Background()

	_, err := NewService(&fakeGenerator{err: errors.New("429")}).Generate(ctx, "fox", 4)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeExternal))

	_, err = NewService(&fakeGenerator{data: []byte("{\"error\":\"nope\"}")}).Generate(ctx, "fox", 4)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeExternal))
}
