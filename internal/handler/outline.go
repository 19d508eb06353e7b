package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/grad-lab/capstone-backend/dao/model"
	"github.com/grad-lab/capstone-backend/internal/resputil"
	"github.com/grad-lab/capstone-backend/internal/util"
	"github.com/grad-lab/capstone-backend/pkg/alert"
	"github.com/grad-lab/capstone-backend/pkg/apperror"
	"github.com/grad-lab/capstone-backend/pkg/workflow"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewOutlineMgr)
}

// OutlineMgr serves outline reads and reviews addressed by outline id.
// Students edit outlines through the proposal routes; advisors review here.
type OutlineMgr struct {
	name   string
	db     *gorm.DB
	mailer alert.Mailer
}

func NewOutlineMgr(conf *RegisterConfig) Manager {
	return &OutlineMgr{
		name:   "outlines",
		db:     conf.DB,
		mailer: conf.Mailer,
	}
}

func (mgr *OutlineMgr) GetName() string { return mgr.name }

func (mgr *OutlineMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *OutlineMgr) RegisterProtected(g *gin.RouterGroup) {
	g.GET("/:id", mgr.GetOutline)
	g.POST("/:id/review", mgr.ReviewOutline)
}

func (mgr *OutlineMgr) RegisterAdmin(_ *gin.RouterGroup) {}

type OutlineIDReq struct {
	ID uint `uri:"id" binding:"required"`
}

// GetOutline godoc
//
//	@Summary		Get one outline by id
//	@Tags			Outline
//	@Produce		json
//	@Security		Bearer
//	@Param			id	path		int	true	"outline id"
//	@Success		200	{object}	resputil.Response[OutlineResp]	"outline"
//	@Failure		404	{object}	resputil.Response[any]	"not found"
//	@Router			/v1/outlines/{id} [get]
func (mgr *OutlineMgr) GetOutline(c *gin.Context) {
	var uri OutlineIDReq
	if err := c.ShouldBindUri(&uri); err != nil {
		resputil.BadRequestError(c, "invalid request parameters")
		return
	}

	var o model.ProposalOutline
	if err := mgr.db.WithContext(c).First(&o, uri.ID).Error; err != nil {
		resputil.WrapServiceError(c, apperror.NotFound("outline %d not found", uri.ID))
		return
	}
	resputil.Success(c, OutlineResp{
		ID:              o.ID,
		Introduction:    o.Introduction,
		Objectives:      o.Objectives,
		Methodology:     o.Methodology,
		ExpectedResults: o.ExpectedResults,
		FileID:          o.FileID,
		Status:          o.Status,
	})
}

// ReviewOutline godoc
//
//	@Summary		Advisor verdict on a submitted outline
//	@Description	Approve, request changes, or reject; the parent project moves on the same edge
//	@Tags			Outline
//	@Accept			json
//	@Produce		json
//	@Security		Bearer
//	@Param			id		path		int			true	"outline id"
//	@Param			body	body		ReviewReq	true	"decision"
//	@Success		200		{object}	resputil.Response[ProposalResp]	"updated proposal"
//	@Failure		422		{object}	resputil.Response[any]	"outline not pending review"
//	@Router			/v1/outlines/{id}/review [post]
func (mgr *OutlineMgr) ReviewOutline(c *gin.Context) {
	var uri OutlineIDReq
	if err := c.ShouldBindUri(&uri); err != nil {
		resputil.BadRequestError(c, "invalid request parameters")
		return
	}
	var req ReviewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, "invalid request parameters")
		return
	}
	pr := util.GetPrincipal(c)

	var p model.ProposedProject
	var res *workflow.Result
	err := mgr.db.WithContext(c).Transaction(func(tx *gorm.DB) error {
		var o model.ProposalOutline
		if err := tx.First(&o, uri.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("outline %d not found", uri.ID)
			}
			return err
		}
		if err := tx.Preload("Members.User").Preload("Outline").First(&p, o.ProjectID).Error; err != nil {
			return err
		}
		if p.Version != req.Version {
			return apperror.Conflict("proposal %d was modified concurrently, refetch and retry", p.ID)
		}
		var opErr error
		res, opErr = workflow.ReviewOutline(&p, pr, req.Decision, req.Comment)
		if opErr != nil {
			return opErr
		}
		return saveProposalTx(tx, &p, req.Version, res)
	})
	if err != nil {
		if apperror.KindOf(err) == 0 {
			klog.Errorf("outline review failed, outlineID: %d, userID: %d, err: %v", uri.ID, pr.UserID, err)
		}
		resputil.WrapServiceError(c, err)
		return
	}

	notifyStudents(mgr.mailer, &p, res)
	resputil.Success(c, toProposalResp(&p))
}
