package backend

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/Vitrina/internal/domain"
)

func testParams() domain.DeployParams {
	return domain.DeployParams{
		Namespace:         "store-1a2b3c4d",
		StoreName:         "Demo Shop",
		Hostname:          "store-1a2b3c4d.10.0.0.1.nip.io",
		MySQLPassword:     "db-secret",
		MySQLRootPassword: "root-secret",
		AdminPassword:     "admin-secret",
	}
}

func TestStoreValues(t *testing.T) {
	v := StoreValues(testParams())

	assert.Equal(t, "store-1a2b3c4d", v["storeId"])
	assert.Equal(t, "Demo Shop", v["storeName"])

	mysql, ok := v["mysql"].(map[string]any)
	require.True(t, ok, "nested sections must be plain maps")
	assert.Equal(t, "db-secret", mysql["password"])
	assert.Equal(t, "root-secret", mysql["rootPassword"])

	ingress := v["ingress"].(map[string]any)
	assert.Equal(t, "store-1a2b3c4d.10.0.0.1.nip.io", ingress["host"])
}

func TestValues_RedactedYAML(t *testing.T) {
	v := StoreValues(testParams())

	out, err := v.Redacted().ToYAML()
	require.NoError(t, err)

	s := string(out)
	assert.Contains(t, s, "storeName: Demo Shop")
	assert.False(t, strings.Contains(s, "db-secret"))
	assert.False(t, strings.Contains(s, "admin-secret"))

	// исходные значения не затронуты
	assert.Equal(t, "db-secret", v["mysql"].(map[string]any)["password"])
}
