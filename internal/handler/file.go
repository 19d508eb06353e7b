package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/grad-lab/capstone-backend/dao/model"
	"github.com/grad-lab/capstone-backend/internal/resputil"
	"github.com/grad-lab/capstone-backend/internal/util"
	"github.com/grad-lab/capstone-backend/pkg/apperror"
	"github.com/grad-lab/capstone-backend/pkg/filestore"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewFileMgr)
}

// FileMgr tracks metadata for documents kept in the external storage
// service. Uploads go directly to storage; this handler issues IDs and
// records what was uploaded.
type FileMgr struct {
	name  string
	db    *gorm.DB
	store *filestore.Client
}

func NewFileMgr(conf *RegisterConfig) Manager {
	return &FileMgr{
		name:  "files",
		db:    conf.DB,
		store: conf.FileStore,
	}
}

func (mgr *FileMgr) GetName() string { return mgr.name }

func (mgr *FileMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *FileMgr) RegisterProtected(g *gin.RouterGroup) {
	g.POST("/id", mgr.IssueID)
	g.POST("", mgr.RegisterFile)
	g.GET("", mgr.ListMyFiles)
}

func (mgr *FileMgr) RegisterAdmin(_ *gin.RouterGroup) {}

type FileIDResp struct {
	StorageID string `json:"storageID"`
}

// IssueID godoc
//
//	@Summary		Issue a storage ID for an upcoming upload
//	@Tags			File
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[FileIDResp]	"storage id"
//	@Router			/v1/files/id [post]
func (mgr *FileMgr) IssueID(c *gin.Context) {
	resputil.Success(c, FileIDResp{StorageID: mgr.store.NewID()})
}

type RegisterFileReq struct {
	StorageID string `json:"storageID" binding:"required"`
	Name      string `json:"name" binding:"required"`
	SizeBytes int64  `json:"sizeBytes"`
	ProjectID *uint  `json:"projectID"`
}

type FileResp struct {
	ID        uint      `json:"id"`
	StorageID string    `json:"storageID"`
	Name      string    `json:"name"`
	SizeBytes int64     `json:"sizeBytes"`
	OwnerID   uint      `json:"ownerID"`
	ProjectID *uint     `json:"projectID"`
	CreatedAt time.Time `json:"createdAt"`
}

func toFileResp(f *model.ProjectFile) FileResp {
	return FileResp{
		ID:        f.ID,
		StorageID: f.StorageID,
		Name:      f.Name,
		SizeBytes: f.SizeBytes,
		OwnerID:   f.OwnerID,
		ProjectID: f.ProjectID,
		CreatedAt: f.CreatedAt,
	}
}

// RegisterFile godoc
//
//	@Summary		Record an uploaded document
//	@Description	Verifies the storage ID against the storage service before saving metadata
//	@Tags			File
//	@Accept			json
//	@Produce		json
//	@Security		Bearer
//	@Param			body	body		RegisterFileReq	true	"file metadata"
//	@Success		200		{object}	resputil.Response[FileResp]	"recorded file"
//	@Failure		404		{object}	resputil.Response[any]	"storage id unknown"
//	@Router			/v1/files [post]
func (mgr *FileMgr) RegisterFile(c *gin.Context) {
	var req RegisterFileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, "invalid request parameters")
		return
	}
	token := util.GetToken(c)

	if err := mgr.store.Stat(c, req.StorageID); err != nil {
		resputil.WrapServiceError(c, err)
		return
	}

	f := model.ProjectFile{
		StorageID: req.StorageID,
		Name:      req.Name,
		SizeBytes: req.SizeBytes,
		OwnerID:   token.UserID,
		ProjectID: req.ProjectID,
	}
	if err := mgr.db.WithContext(c).Create(&f).Error; err != nil {
		klog.Errorf("failed to record file %s: %v", req.StorageID, err)
		resputil.WrapServiceError(c, apperror.Conflict("storage id %s is already recorded", req.StorageID))
		return
	}
	resputil.Success(c, toFileResp(&f))
}

// ListMyFiles godoc
//
//	@Summary		Files the caller uploaded
//	@Tags			File
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[[]FileResp]	"files"
//	@Router			/v1/files [get]
func (mgr *FileMgr) ListMyFiles(c *gin.Context) {
	token := util.GetToken(c)

	var files []model.ProjectFile
	err := mgr.db.WithContext(c).
		Where("owner_id = ?", token.UserID).
		Order("created_at DESC").
		Find(&files).Error
	if err != nil {
		resputil.Error(c, "failed to list files", resputil.NotSpecified)
		return
	}
	resputil.Success(c, lo.Map(files, func(f model.ProjectFile, _ int) FileResp {
		return toFileResp(&f)
	}))
}
