package backend

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/remotecommand"
)

// KubeConfig — параметры работы с Kubernetes API.
type KubeConfig struct {
	// PollInterval — период опроса готовности Deployment.
	PollInterval time.Duration

	// LocateAttempts и LocateInterval — поиск работающего pod.
	LocateAttempts int
	LocateInterval time.Duration

	// PodSelector — label selector pod'а для команд.
	PodSelector string

	// Container — контейнер, в котором выполняются команды.
	Container string

	Logger *slog.Logger
}

func (c *KubeConfig) setDefaults() {
	if c.PollInterval == 0 {
		c.PollInterval = 5 * time.Second
	}
	if c.LocateAttempts == 0 {
		c.LocateAttempts = 20
	}
	if c.LocateInterval == 0 {
		c.LocateInterval = 3 * time.Second
	}
	if c.PodSelector == "" {
		c.PodSelector = "app=woocommerce"
	}
	if c.Container == "" {
		c.Container = "wordpress"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Kube — обёртка над clientset для операций магазина.
type Kube struct {
	clientset  kubernetes.Interface
	restConfig *rest.Config
	cfg        KubeConfig
}

// NewKube создаёт Kube. restConfig нужен только для exec.
func NewKube(clientset kubernetes.Interface, restConfig *rest.Config, cfg KubeConfig) *Kube {
	cfg.setDefaults()
	return &Kube{clientset: clientset, restConfig: restConfig, cfg: cfg}
}

// WaitReady ждёт, пока readyReplicas Deployment не достигнет желаемого
// числа реплик (по умолчанию 1). Отсутствующий Deployment — повод ждать.
func (k *Kube) WaitReady(ctx context.Context, namespace, name string, timeout time.Duration) error {
	logger := k.cfg.Logger.With("namespace", namespace, "deployment", name)

	err := wait.PollUntilContextTimeout(ctx, k.cfg.PollInterval, timeout, true, func(ctx context.Context) (bool, error) {
		dep, err := k.clientset.AppsV1().Deployments(namespace).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			logger.Debug("waiting for deployment to exist", "error", err)
			return false, nil
		}

		desired := int32(1)
		if dep.Spec.Replicas != nil {
			desired = *dep.Spec.Replicas
		}
		ready := dep.Status.ReadyReplicas
		logger.Debug("deployment readiness", "ready", ready, "desired", desired)
		return ready >= desired, nil
	})
	if err == nil {
		logger.Info("deployment ready")
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("%w: deployment %s in %s after %s", ErrReadinessTimeout, name, namespace, timeout)
}

// LocatePod ищет работающий pod по селектору с ограниченным числом попыток.
func (k *Kube) LocatePod(ctx context.Context, namespace string) (string, error) {
	logger := k.cfg.Logger.With("namespace", namespace, "selector", k.cfg.PodSelector)

	for attempt := 1; attempt <= k.cfg.LocateAttempts; attempt++ {
		pods, err := k.clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
			LabelSelector: k.cfg.PodSelector,
		})
		if err != nil {
			logger.Debug("list pods failed", "attempt", attempt, "error", err)
		} else {
			for _, pod := range pods.Items {
				if pod.Status.Phase == corev1.PodRunning {
					logger.Info("found running pod", "pod", pod.Name)
					return pod.Name, nil
				}
			}
		}

		if attempt == k.cfg.LocateAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(k.cfg.LocateInterval):
		}
	}
	return "", fmt.Errorf("%w: no running pod for %s in %s", ErrExecutionTargetNotFound, k.cfg.PodSelector, namespace)
}

// Exec выполняет команду через /bin/sh -c в контейнере pod'а.
// Возвращает stdout; при ошибке в текст включается stderr.
func (k *Kube) Exec(ctx context.Context, namespace, pod, command string) (string, error) {
	if k.restConfig == nil {
		return "", fmt.Errorf("%w: exec requires rest config", ErrBackendCall)
	}

	req := k.clientset.CoreV1().RESTClient().Post().
		Resource("pods").
		Namespace(namespace).
		Name(pod).
		SubResource("exec").
		VersionedParams(&corev1.PodExecOptions{
			Container: k.cfg.Container,
			Command:   []string{"/bin/sh", "-c", command},
			Stdout:    true,
			Stderr:    true,
		}, scheme.ParameterCodec)

	executor, err := remotecommand.NewSPDYExecutor(k.restConfig, "POST", req.URL())
	if err != nil {
		return "", fmt.Errorf("%w: create executor: %v", ErrBackendCall, err)
	}

	var stdout, stderr bytes.Buffer
	err = executor.StreamWithContext(ctx, remotecommand.StreamOptions{
		Stdout: &stdout,
		Stderr: &stderr,
	})
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return stdout.String(), fmt.Errorf("%w: %s", ErrCommandFailed, truncate(msg, 500))
	}
	return stdout.String(), nil
}

// DeleteNamespace удаляет namespace. Отсутствующий namespace — не ошибка.
func (k *Kube) DeleteNamespace(ctx context.Context, namespace string) error {
	err := k.clientset.CoreV1().Namespaces().Delete(ctx, namespace, metav1.DeleteOptions{})
	if apierrors.IsNotFound(err) {
		k.cfg.Logger.Debug("namespace already absent", "namespace", namespace)
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: delete namespace %s: %v", ErrBackendCall, namespace, err)
	}
	k.cfg.Logger.Info("namespace deleted", "namespace", namespace)
	return nil
}

// truncate обрезает s до n байт по границе руны.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
