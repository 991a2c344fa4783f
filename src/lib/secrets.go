package lib

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

type SecretsAPI interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// qrSecretDocument is the JSON stored in the QR signing secret.
type qrSecretDocument struct {
	Current  string   `json:"current"`
	Previous []string `json:"previous"`
	Legacy   string   `json:"legacy"`
}

// LoadQRSecrets reads the ticket signing secrets from Secrets Manager and
// returns them in verification order: current, previous, legacy.
func LoadQRSecrets(ctx context.Context, client SecretsAPI, secretID string) ([]string, error) {
	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		return nil, fmt.Errorf("read secret %s: %w", secretID, err)
	}
	var doc qrSecretDocument
	if err := json.Unmarshal([]byte(aws.ToString(out.SecretString)), &doc); err != nil {
		return nil, fmt.Errorf("decode secret %s: %w", secretID, err)
	}
	if doc.Current == "" {
		return nil, errors.New("qr signing secret has no current value")
	}
	secrets := []string{doc.Current}
	for _, p := range doc.Previous {
		if p != "" {
			secrets = append(secrets, p)
		}
	}
	if doc.Legacy != "" {
		secrets = append(secrets, doc.Legacy)
	}
	return secrets, nil
}
