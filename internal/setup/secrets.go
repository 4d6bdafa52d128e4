package setup

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/shaiso/Vitrina/internal/domain"
)

const passwordBytes = 32

// GeneratePassword возвращает случайный пароль (32 байта, base64).
func GeneratePassword() (string, error) {
	buf := make([]byte, passwordBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// NewDeployParams генерирует секреты и собирает параметры развёртывания.
func NewDeployParams(namespace, storeName, hostname string) (domain.DeployParams, error) {
	params := domain.DeployParams{
		Namespace: namespace,
		StoreName: storeName,
		Hostname:  hostname,
	}
	for _, dst := range []*string{&params.MySQLPassword, &params.MySQLRootPassword, &params.AdminPassword} {
		pw, err := GeneratePassword()
		if err != nil {
			return domain.DeployParams{}, err
		}
		*dst = pw
	}
	return params, nil
}
