package domain

import "time"

// Типы событий журнала.
const (
	EventAdmissionAccepted = "admission_accepted"
	EventAdmissionRejected = "admission_rejected"
	EventQueued            = "queued"
	EventDequeued          = "dequeued"

	EventProvisioningStarted  = "provisioning_started"
	EventHelmDeploy           = "helm_deploy"
	EventMySQLWait            = "mysql_wait"
	EventWordPressWait        = "wordpress_wait"
	EventWordPressInitWait    = "wordpress_init_wait"
	EventIngressCreate        = "ingress_create"
	EventLocateTarget         = "locate_target"
	EventWooCommerceInit      = "woocommerce_init"
	EventWooCommerceConfig    = "woocommerce_config"
	EventWooCommerceWarning   = "woocommerce_config_warning"
	EventWooCommerceDone      = "woocommerce_configured"
	EventProvisioningComplete = "provisioning_complete"
	EventProvisioningFailed   = "provisioning_failed"
	EventProvisioningTimeout  = "provisioning_timeout"

	EventCleanupStarted = "cleanup_started"
	EventCleanupFailed  = "cleanup_failed"

	EventDeletionStarted  = "deletion_started"
	EventDeletionMethod   = "deletion_method"
	EventDeletionComplete = "deletion_complete"
	EventDeletionFailed   = "deletion_failed"

	EventSystemRecovery = "system_recovery"
)

// Event — неизменяемая запись журнала аудита.
type Event struct {
	// ID — порядковый номер записи в БД.
	ID int64 `json:"id"`

	// TaskID — магазин, к которому относится событие.
	TaskID string `json:"store_id"`

	// Type — тип события (см. константы Event*).
	Type string `json:"event_type"`

	Message  string   `json:"message"`
	Severity Severity `json:"severity"`

	// StoreName — имя магазина (заполняется только в ListRecent).
	StoreName string `json:"store_name,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
