package config

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSSM struct {
	values  map[string]string
	err     error
	batches [][]string
}

func (f *fakeSSM) GetParameters(_ context.Context, in *ssm.GetParametersInput, _ ...func(*ssm.Options)) (*ssm.GetParametersOutput, error) {
	f.batches = append(f.batches, in.Names)
	if f.err != nil {
		return nil, f.err
	}
	out := &ssm.GetParametersOutput{}
	for _, name := range in.Names {
		if v, ok := f.values[name]; ok {
			out.Parameters = append(out.Parameters, ssmtypes.Parameter{Name: aws.String(name), Value: aws.String(v)})
		} else {
			out.InvalidParameters = append(out.InvalidParameters, name)
		}
	}
	return out, nil
}

func TestSSMProvider_SatisfiesSecretProvider(t *testing.T) {
	var _ SecretProvider = (*SSMProvider)(nil)
}

func TestSSMProvider_GetParametersBatch(t *testing.T) {
	fake := &fakeSSM{values: map[string]string{
		"/prod/raceweather/discord/webhooks": "https://discord.com/api/webhooks/1/a",
	}}
	p := newSSMProviderWithClient("us-east-1", fake)

	got, err := p.GetParametersBatch(context.Background(), []string{"/prod/raceweather/discord/webhooks"})
	require.NoError(t, err)
	assert.Equal(t, "https://discord.com/api/webhooks/1/a", got["/prod/raceweather/discord/webhooks"])
}

func TestSSMProvider_BatchesOfTen(t *testing.T) {
	values := make(map[string]string)
	keys := make([]string, 0, 23)
	for i := 0; i < 23; i++ {
		k := "/p/" + string(rune('a'+i))
		keys = append(keys, k)
		values[k] = "v"
	}
	fake := &fakeSSM{values: values}

	got, err := newSSMProviderWithClient("us-east-1", fake).GetParametersBatch(context.Background(), keys)
	require.NoError(t, err)
	assert.Len(t, got, 23)
	require.Len(t, fake.batches, 3)
	assert.Len(t, fake.batches[0], 10)
	assert.Len(t, fake.batches[2], 3)
}

func TestSSMProvider_InvalidParameterFails(t *testing.T) {
	fake := &fakeSSM{values: map[string]string{}}
	_, err := newSSMProviderWithClient("us-east-1", fake).GetParametersBatch(context.Background(), []string{"/missing"})
	assert.ErrorContains(t, err, "not found")
}

func TestSSMProvider_ClientError(t *testing.T) {
	fake := &fakeSSM{err: errors.New("throttled")}
	_, err := newSSMProviderWithClient("us-east-1", fake).GetParametersBatch(context.Background(), []string{"/x"})
	assert.ErrorContains(t, err, "throttled")
}

func TestSSMProvider_EmptyKeys(t *testing.T) {
	p := NewSSMProvider("us-east-1", "")
	got, err := p.GetParametersBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSSMProvider_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fake := &fakeSSM{values: map[string]string{"/x": "v"}}
	_, err := newSSMProviderWithClient("us-east-1", fake).GetParametersBatch(ctx, []string{"/x"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fake.batches)
}
