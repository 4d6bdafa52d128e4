package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"helm.sh/helm/v3/pkg/action"
	"helm.sh/helm/v3/pkg/chart"
	"helm.sh/helm/v3/pkg/chart/loader"
	"helm.sh/helm/v3/pkg/storage/driver"
	"k8s.io/client-go/rest"

	"github.com/shaiso/Vitrina/internal/domain"
)

const helmDriver = "secret"

// Helm — операции с Helm release магазинов.
// Release живёт в namespace магазина и называется так же, как namespace.
type Helm struct {
	restConfig     *rest.Config
	chartPath      string
	installTimeout time.Duration
	logger         *slog.Logger

	// newConfig строит action.Configuration для namespace.
	newConfig func(namespace string) (*action.Configuration, error)

	// chart загружается один раз при первом развёртывании.
	mu    sync.Mutex
	chart *chart.Chart
}

// NewHelm создаёт Helm-клиент.
func NewHelm(restConfig *rest.Config, chartPath string, installTimeout time.Duration, logger *slog.Logger) *Helm {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Helm{
		restConfig:     restConfig,
		chartPath:      chartPath,
		installTimeout: installTimeout,
		logger:         logger,
	}
	h.newConfig = h.actionConfig
	return h
}

func (h *Helm) actionConfig(namespace string) (*action.Configuration, error) {
	cfg := new(action.Configuration)
	getter := newRESTClientGetter(h.restConfig, namespace)
	debug := func(format string, v ...interface{}) {
		h.logger.Debug(fmt.Sprintf(format, v...), "namespace", namespace)
	}
	if err := cfg.Init(getter, namespace, helmDriver, debug); err != nil {
		return nil, fmt.Errorf("%w: init helm config: %v", ErrBackendCall, err)
	}
	return cfg, nil
}

func (h *Helm) loadChart() (*chart.Chart, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.chart != nil {
		return h.chart, nil
	}
	c, err := loader.Load(h.chartPath)
	if err != nil {
		return nil, fmt.Errorf("%w: load chart %s: %v", ErrBackendCall, h.chartPath, err)
	}
	h.chart = c
	return c, nil
}

// Install устанавливает release магазина, создавая namespace.
func (h *Helm) Install(ctx context.Context, release, namespace string, values Values) error {
	cfg, err := h.newConfig(namespace)
	if err != nil {
		return err
	}
	c, err := h.loadChart()
	if err != nil {
		return err
	}

	if dump, err := values.Redacted().ToYAML(); err == nil {
		h.logger.Debug("helm install values", "release", release, "values", string(dump))
	}

	install := action.NewInstall(cfg)
	install.ReleaseName = release
	install.Namespace = namespace
	install.CreateNamespace = true
	install.Timeout = h.installTimeout

	if _, err := install.RunWithContext(ctx, c, values); err != nil {
		return fmt.Errorf("%w: helm install %s: %v", ErrBackendCall, release, err)
	}
	h.logger.Info("helm release installed", "release", release, "namespace", namespace)
	return nil
}

// Uninstall удаляет release. Отсутствующий release не считается ошибкой.
func (h *Helm) Uninstall(release, namespace string) error {
	cfg, err := h.newConfig(namespace)
	if err != nil {
		return err
	}

	uninstall := action.NewUninstall(cfg)
	uninstall.Timeout = 5 * time.Minute
	if _, err := uninstall.Run(release); err != nil {
		if errors.Is(err, driver.ErrReleaseNotFound) {
			return nil
		}
		return fmt.Errorf("%w: helm uninstall %s: %v", ErrBackendCall, release, err)
	}
	h.logger.Info("helm release uninstalled", "release", release, "namespace", namespace)
	return nil
}

// Status возвращает сведения о release или nil, если release нет.
func (h *Helm) Status(release, namespace string) (*domain.DeploymentRecord, error) {
	cfg, err := h.newConfig(namespace)
	if err != nil {
		return nil, err
	}

	rel, err := action.NewStatus(cfg).Run(release)
	if errors.Is(err, driver.ErrReleaseNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: helm status %s: %v", ErrBackendCall, release, err)
	}

	rec := &domain.DeploymentRecord{
		Release:   rel.Name,
		Namespace: rel.Namespace,
		Revision:  rel.Version,
	}
	if rel.Info != nil {
		rec.Status = rel.Info.Status.String()
		rec.Updated = rel.Info.LastDeployed.Time
	}
	return rec, nil
}
