package backend

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"helm.sh/helm/v3/pkg/action"
	"helm.sh/helm/v3/pkg/chart"
	"helm.sh/helm/v3/pkg/chartutil"
	kubefake "helm.sh/helm/v3/pkg/kube/fake"
	"helm.sh/helm/v3/pkg/release"
	"helm.sh/helm/v3/pkg/storage"
	"helm.sh/helm/v3/pkg/storage/driver"
	helmtime "helm.sh/helm/v3/pkg/time"
)

// memoryHelm возвращает Helm поверх хранилища release в памяти.
func memoryHelm(t *testing.T) (*Helm, *action.Configuration) {
	t.Helper()

	cfg := &action.Configuration{
		Releases:     storage.Init(driver.NewMemory()),
		KubeClient:   &kubefake.PrintingKubeClient{Out: io.Discard},
		Capabilities: chartutil.DefaultCapabilities,
		Log:          func(string, ...interface{}) {},
	}
	h := NewHelm(nil, "", time.Minute, nil)
	h.newConfig = func(string) (*action.Configuration, error) { return cfg, nil }
	return h, cfg
}

func seedRelease(t *testing.T, cfg *action.Configuration, name string, revision int, deployed helmtime.Time) {
	t.Helper()

	require.NoError(t, cfg.Releases.Create(&release.Release{
		Name:      name,
		Namespace: name,
		Version:   revision,
		Info: &release.Info{
			Status:        release.StatusDeployed,
			FirstDeployed: deployed,
			LastDeployed:  deployed,
		},
	}))
}

// --- Status Tests ---

func TestHelmStatus_PresentRelease(t *testing.T) {
	h, cfg := memoryHelm(t)
	deployed := helmtime.Now()
	seedRelease(t, cfg, "store-a", 2, deployed)

	rec, err := h.Status("store-a", "store-a")
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, "store-a", rec.Release)
	assert.Equal(t, "store-a", rec.Namespace)
	assert.Equal(t, 2, rec.Revision)
	assert.Equal(t, release.StatusDeployed.String(), rec.Status)
	assert.WithinDuration(t, deployed.Time, rec.Updated, time.Second)
}

func TestHelmStatus_MissingRelease(t *testing.T) {
	h, _ := memoryHelm(t)

	rec, err := h.Status("store-missing", "store-missing")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

// --- Uninstall Tests ---

func TestHelmUninstall_MissingRelease(t *testing.T) {
	h, _ := memoryHelm(t)

	assert.NoError(t, h.Uninstall("store-missing", "store-missing"))
}

func TestHelmUninstall_RemovesRelease(t *testing.T) {
	h, cfg := memoryHelm(t)
	seedRelease(t, cfg, "store-a", 1, helmtime.Now())

	require.NoError(t, h.Uninstall("store-a", "store-a"))

	rec, err := h.Status("store-a", "store-a")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

// --- Install Tests ---

func TestHelmInstall_RecordsRelease(t *testing.T) {
	h, _ := memoryHelm(t)
	h.chart = &chart.Chart{Metadata: &chart.Metadata{
		APIVersion: chart.APIVersionV2,
		Name:       "woocommerce-store",
		Version:    "0.1.0",
	}}

	err := h.Install(context.Background(), "store-b", "store-b", Values{"storeName": "Shop"})
	require.NoError(t, err)

	rec, err := h.Status("store-b", "store-b")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 1, rec.Revision)
	assert.Equal(t, release.StatusDeployed.String(), rec.Status)
}
