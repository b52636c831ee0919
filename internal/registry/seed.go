package registry

import (
	"github.com/dvloznov/property-registry/internal/domain"
)

// Fixed seed dataset used when the local store holds no snapshot for a
// collection, and after a factory reset. The administrator account is
// the only way into a freshly provisioned portal.

const (
	seedAdminID  = "seed-admin"
	seedAdminNIC = "00000-0000000-0"
)

func seedOwners() []domain.Owner {
	nicKey := domain.NormalizeNIC(seedAdminNIC)
	return []domain.Owner{
		{
			ID:         seedAdminID,
			NIC:        seedAdminNIC,
			NICKey:     nicKey,
			Name:       "Administrator",
			Email:      "admin@registry.local",
			Role:       domain.RoleAdmin,
			Status:     domain.StatusActive,
			SecretHash: domain.DefaultSecretHash(),
		},
	}
}

func seedFiles() []domain.PropertyFile {
	return []domain.PropertyFile{}
}

func seedNotices() []domain.Notice {
	return []domain.Notice{}
}

func seedMessages() []domain.Message {
	return []domain.Message{}
}
