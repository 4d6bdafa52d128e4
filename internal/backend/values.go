package backend

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/shaiso/Vitrina/internal/domain"
)

// Values — значения Helm chart.
type Values map[string]any

// StoreValues собирает значения chart для магазина.
// Вложенные секции — обычные map[string]any: Helm сливает только их.
func StoreValues(p domain.DeployParams) Values {
	return Values{
		"storeId":   p.Namespace,
		"storeName": p.StoreName,
		"namespace": p.Namespace,
		"mysql": map[string]any{
			"password":     p.MySQLPassword,
			"rootPassword": p.MySQLRootPassword,
		},
		"wordpress": map[string]any{
			"adminPassword": p.AdminPassword,
		},
		"ingress": map[string]any{
			"host": p.Hostname,
		},
	}
}

// Redacted возвращает копию без секретов (для логов).
func (v Values) Redacted() Values {
	out := make(Values, len(v))
	for k, val := range v {
		if nested, ok := val.(map[string]any); ok {
			masked := make(map[string]any, len(nested))
			for nk, nv := range nested {
				if isSecretKey(nk) {
					masked[nk] = "***"
					continue
				}
				masked[nk] = nv
			}
			out[k] = masked
			continue
		}
		out[k] = val
	}
	return out
}

func isSecretKey(key string) bool {
	switch key {
	case "password", "rootPassword", "adminPassword":
		return true
	default:
		return false
	}
}

// ToYAML сериализует значения в YAML.
func (v Values) ToYAML() ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)

	if err := encoder.Encode(v); err != nil {
		return nil, fmt.Errorf("encode values: %w", err)
	}
	return buf.Bytes(), nil
}
