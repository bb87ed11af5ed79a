// Package secrets reads gateway credentials from a centralized parameter store.
package secrets

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ParameterStore fetches named parameters in a single batched call.
// Names absent from the store are simply missing from the returned map.
type ParameterStore interface {
	GetParameters(ctx context.Context, names []string) (map[string]string, error)
}

// SSMAPI is the subset of the SSM client used by SSMStore
type SSMAPI interface {
	GetParameters(ctx context.Context, params *ssm.GetParametersInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersOutput, error)
}

// SSMStore reads parameters from AWS Systems Manager Parameter Store
type SSMStore struct {
	client         SSMAPI
	withDecryption bool
}

// NewSSMStore wraps an SSM client
func NewSSMStore(client SSMAPI, withDecryption bool) *SSMStore {
	return &SSMStore{client: client, withDecryption: withDecryption}
}

// NewSSMStoreFromRegion loads the default AWS configuration for region and builds an SSMStore
func NewSSMStoreFromRegion(ctx context.Context, region string, withDecryption bool) (*SSMStore, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return NewSSMStore(ssm.NewFromConfig(cfg), withDecryption), nil
}

// GetParameters implements ParameterStore
func (s *SSMStore) GetParameters(ctx context.Context, names []string) (map[string]string, error) {
	out, err := s.client.GetParameters(ctx, &ssm.GetParametersInput{
		Names:          names,
		WithDecryption: aws.Bool(s.withDecryption),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get parameters: %w", err)
	}

	values := make(map[string]string, len(out.Parameters))
	for _, p := range out.Parameters {
		values[aws.ToString(p.Name)] = aws.ToString(p.Value)
	}
	return values, nil
}

// StaticStore serves parameters from memory. Useful for local runs and tests.
type StaticStore map[string]string

// GetParameters implements ParameterStore
func (s StaticStore) GetParameters(_ context.Context, names []string) (map[string]string, error) {
	values := make(map[string]string, len(names))
	for _, name := range names {
		if value, ok := s[name]; ok {
			values[name] = value
		}
	}
	return values, nil
}
