package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeModels struct {
	model  string
	prompt string
	resp   *genai.GenerateContentResponse
	err    error
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	return f.resp, f.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: genai.NewContentFromText(text, genai.RoleModel),
		}},
	}
}

func TestCompleteReturnsCandidateText(t *testing.T) {
	fake := &fakeModels{resp: textResponse("- Run listening sessions\n")}
	client := newWithModels(fake, "")

	out, err := client.Complete(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "- Run listening sessions", out)
	assert.Equal(t, defaultModel, fake.model)
	assert.Equal(t, "prompt", fake.prompt)
}

func TestCompleteErrors(t *testing.T) {
	client := newWithModels(&fakeModels{err: errors.New("quota")}, "gemini-pro")
	_, err := client.Complete(context.Background(), "prompt")
	assert.ErrorContains(t, err, "quota")

	client = newWithModels(&fakeModels{resp: textResponse("   ")}, "gemini-pro")
	_, err = client.Complete(context.Background(), "prompt")
	assert.Error(t, err)
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), "", "")
	assert.Error(t, err)
}
