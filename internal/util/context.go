package util

import (
	"github.com/gin-gonic/gin"

	"github.com/grad-lab/capstone-backend/dao/model"
	"github.com/grad-lab/capstone-backend/pkg/workflow"
)

const (
	UserIDKey    = "x-user-id"
	UsernameKey  = "x-user-name"
	RoleKey      = "x-role"
	FacultyIDKey = "x-faculty-id"
)

func SetJWTContext(c *gin.Context, msg JWTMessage) {
	c.Set(UserIDKey, msg.UserID)
	c.Set(UsernameKey, msg.Username)
	c.Set(RoleKey, msg.Role)
	c.Set(FacultyIDKey, msg.FacultyID)
}

func GetToken(ctx *gin.Context) JWTMessage {
	var msg JWTMessage
	msg.UserID = ctx.GetUint(UserIDKey)
	msg.Username = ctx.GetString(UsernameKey)
	msg.FacultyID = ctx.GetUint(FacultyIDKey)

	role, _ := ctx.Get(RoleKey)
	if r, ok := role.(model.Role); ok {
		msg.Role = r
	}
	return msg
}

// GetPrincipal builds the explicit caller identity the workflow engine takes.
func GetPrincipal(ctx *gin.Context) workflow.Principal {
	msg := GetToken(ctx)
	return workflow.Principal{
		UserID:    msg.UserID,
		Username:  msg.Username,
		Role:      msg.Role,
		FacultyID: msg.FacultyID,
	}
}
