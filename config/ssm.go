package config

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// getParameterStoreValue reads a parameter from AWS SSM Parameter Store.
// It returns "" when the parameter cannot be read.
func getParameterStoreValue(parameterName string, decrypt bool) string {
	baseCtx := context.Background()
	ctxWithTimeout, cancel := context.WithTimeout(baseCtx, 5*time.Second)
	defer cancel()

	cfg, err := config.LoadDefaultConfig(ctxWithTimeout)
	if err != nil {
		return ""
	}

	client := ssm.NewFromConfig(cfg)

	input := &ssm.GetParameterInput{
		Name:           &parameterName,
		WithDecryption: &decrypt,
	}

	result, err := client.GetParameter(ctxWithTimeout, input)
	if err != nil {
		return ""
	}

	if result.Parameter == nil || result.Parameter.Value == nil {
		return ""
	}

	return *result.Parameter.Value
}

// APIToken returns the configured Finnhub token. In prod an empty token is
// looked up in Parameter Store.
func (f FinnhubConfig) APIToken(env string) string {
	if f.Token == "" && env == "prod" {
		return getParameterStoreValue("STOCKCHART_FINNHUB_TOKEN", true)
	}
	return f.Token
}
