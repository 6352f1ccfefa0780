package userdb

import (
	"fmt"

	"github.com/workden/workden/business/domain/userbus"
	"github.com/workden/workden/business/sdk/order"
)

var orderByFields = map[string]string{
	userbus.OrderByID:      "u.user_id",
	userbus.OrderByName:    "u.name",
	userbus.OrderByEmail:   "u.email",
	userbus.OrderByType:    "u.user_type",
	userbus.OrderByEnabled: "u.enabled",
}

func orderByClause(orderBy order.By) (string, error) {
	by, exists := orderByFields[orderBy.Field]
	if !exists {
		return "", fmt.Errorf("field %q does not exist", orderBy.Field)
	}

	return " ORDER BY " + by + " " + orderBy.Direction, nil
}
