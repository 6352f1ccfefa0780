package userapp

import (
	"github.com/workden/workden/business/domain/userbus"
)

var orderByFields = map[string]string{
	"user_id":  userbus.OrderByID,
	"name":     userbus.OrderByName,
	"email":    userbus.OrderByEmail,
	"userType": userbus.OrderByType,
	"enabled":  userbus.OrderByEnabled,
}
