package config

import (
	"context"
	"os"
)

// SecretProvider resolves secret values by key. SSMProvider reads AWS SSM
// Parameter Store; EnvVarProvider reads the process environment.
type SecretProvider interface {
	// GetParametersBatch returns key -> plaintext for every key it could resolve.
	GetParametersBatch(ctx context.Context, keys []string) (map[string]string, error)
}

// ProviderFromEnv picks the SecretProvider for the process. SECRET_PROVIDER=env
// resolves _SSM_PARAM pointers from other environment variables, which is how
// docker-compose setups fake Parameter Store; anything else uses SSM in
// AWS_REGION, honouring AWS_ENDPOINT_URL for LocalStack.
func ProviderFromEnv() SecretProvider {
	if os.Getenv("SECRET_PROVIDER") == "env" {
		return NewEnvVarProvider()
	}
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-1"
	}
	return NewSSMProvider(region, os.Getenv("AWS_ENDPOINT_URL"))
}
