package domain

import "time"

// DeployParams — параметры развёртывания инфраструктуры магазина.
type DeployParams struct {
	Namespace string
	StoreName string
	Hostname  string

	// Секреты генерируются заново для каждой задачи.
	MySQLPassword     string
	MySQLRootPassword string
	AdminPassword     string
}

// DeploymentRecord — сведения о существующем Helm release.
type DeploymentRecord struct {
	Release   string
	Namespace string
	Revision  int
	Status    string
	Updated   time.Time
}

// Component — компонент, готовности которого ждёт workflow.
type Component struct {
	// Name — имя Deployment.
	Name string

	// Event — тип события, записываемого перед ожиданием.
	Event string

	// Timeout — собственный бюджет ожидания компонента.
	Timeout time.Duration
}
