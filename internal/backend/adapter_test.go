package backend

import (
	"github.com/shaiso/Vitrina/internal/orchestrator"
)

var _ orchestrator.Backend = (*Adapter)(nil)
