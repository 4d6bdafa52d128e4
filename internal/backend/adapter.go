// Package backend реализует операции над инфраструктурой магазина:
// Helm release, ожидание готовности, exec в pod, удаление namespace.
package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/shaiso/Vitrina/internal/domain"
)

// Config — конфигурация Adapter.
type Config struct {
	// KubeconfigPath — путь к kubeconfig. Пусто — in-cluster конфигурация.
	KubeconfigPath string

	// ChartPath — путь к chart магазина.
	ChartPath string

	// InstallTimeout — таймаут helm install.
	InstallTimeout time.Duration

	Kube   KubeConfig
	Logger *slog.Logger
}

// Adapter объединяет Helm и Kubernetes API в одну реализацию backend.
type Adapter struct {
	helm   *Helm
	kube   *Kube
	logger *slog.Logger
}

// New создаёт Adapter по kubeconfig.
func New(cfg Config) (*Adapter, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.InstallTimeout == 0 {
		cfg.InstallTimeout = 5 * time.Minute
	}
	if cfg.Kube.Logger == nil {
		cfg.Kube.Logger = cfg.Logger
	}

	restConfig, err := clientcmd.BuildConfigFromFlags("", cfg.KubeconfigPath)
	if err != nil {
		return nil, fmt.Errorf("build rest config: %w", err)
	}
	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("create clientset: %w", err)
	}

	return NewAdapter(
		NewHelm(restConfig, cfg.ChartPath, cfg.InstallTimeout, cfg.Logger),
		NewKube(clientset, restConfig, cfg.Kube),
		cfg.Logger,
	), nil
}

// NewAdapter собирает Adapter из готовых клиентов.
func NewAdapter(helm *Helm, kube *Kube, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{helm: helm, kube: kube, logger: logger}
}

// Deploy устанавливает release магазина.
func (a *Adapter) Deploy(ctx context.Context, params domain.DeployParams) error {
	return a.helm.Install(ctx, params.Namespace, params.Namespace, StoreValues(params))
}

// WaitReady ждёт готовности Deployment.
func (a *Adapter) WaitReady(ctx context.Context, namespace, component string, timeout time.Duration) error {
	return a.kube.WaitReady(ctx, namespace, component, timeout)
}

// LocateExecutionTarget возвращает имя работающего pod.
func (a *Adapter) LocateExecutionTarget(ctx context.Context, namespace string) (string, error) {
	return a.kube.LocatePod(ctx, namespace)
}

// ExecCommand выполняет команду в pod.
func (a *Adapter) ExecCommand(ctx context.Context, namespace, target, command string) (string, error) {
	return a.kube.Exec(ctx, namespace, target, command)
}

// Delete — штатное удаление: helm uninstall, затем namespace.
// Ошибка uninstall только логируется, namespace удаляется всегда.
func (a *Adapter) Delete(ctx context.Context, namespace string) error {
	if a.helm != nil {
		if err := a.helm.Uninstall(namespace, namespace); err != nil {
			a.logger.Warn("helm uninstall failed, deleting namespace", "namespace", namespace, "error", err)
		}
	}
	return a.kube.DeleteNamespace(ctx, namespace)
}

// ForceDeleteResources удаляет namespace без Helm.
func (a *Adapter) ForceDeleteResources(ctx context.Context, namespace string) error {
	return a.kube.DeleteNamespace(ctx, namespace)
}

// GetDeploymentRecord возвращает сведения о release или nil.
func (a *Adapter) GetDeploymentRecord(ctx context.Context, namespace string) (*domain.DeploymentRecord, error) {
	if a.helm == nil {
		return nil, nil
	}
	return a.helm.Status(namespace, namespace)
}
