package handler

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/grad-lab/capstone-backend/pkg/alert"
	"github.com/grad-lab/capstone-backend/pkg/filestore"
)

// RegisterConfig carries the dependencies managers may capture.
type RegisterConfig struct {
	DB        *gorm.DB
	Mailer    alert.Mailer
	FileStore *filestore.Client
}

type Manager interface {
	GetName() string
	RegisterPublic(group *gin.RouterGroup)
	RegisterProtected(group *gin.RouterGroup)
	RegisterAdmin(group *gin.RouterGroup)
}

type RegisterFunc func(config *RegisterConfig) Manager

// Registers collects manager constructors; each handler file appends its own
// in init().
var Registers []RegisterFunc
