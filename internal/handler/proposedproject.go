package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
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
	Registers = append(Registers, NewProposalMgr)
}

type ProposalMgr struct {
	name   string
	db     *gorm.DB
	mailer alert.Mailer
}

func NewProposalMgr(conf *RegisterConfig) Manager {
	return &ProposalMgr{
		name:   "proposals",
		db:     conf.DB,
		mailer: conf.Mailer,
	}
}

func (mgr *ProposalMgr) GetName() string { return mgr.name }

func (mgr *ProposalMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *ProposalMgr) RegisterProtected(g *gin.RouterGroup) {
	g.POST("", mgr.CreateProposal)
	g.GET("", mgr.ListMyProposals)
	g.GET("/:id", mgr.GetProposal)
	g.GET("/:id/history", mgr.GetHistory)

	g.PUT("/:id/topic", mgr.SubmitTopic)
	g.POST("/:id/topic/review", mgr.ReviewTopic)
	g.PUT("/:id/outline", mgr.SubmitOutline)
	g.POST("/:id/head-request", mgr.RequestHeadReview)
	g.POST("/:id/head-review", mgr.HeadReview)
	g.POST("/:id/approval", mgr.FinalApproval)

	g.POST("/:id/members", mgr.AddMember)
	g.DELETE("/:id/members/:userID", mgr.RemoveMember)

	g.GET("/:id/comments", mgr.ListComments)
	g.POST("/:id/comments", mgr.AddComment)
}

func (mgr *ProposalMgr) RegisterAdmin(g *gin.RouterGroup) {
	g.GET("", mgr.ListAllProposals)
}

type ProposalIDReq struct {
	ID uint `uri:"id" binding:"required"`
}

type MemberResp struct {
	UserID  uint             `json:"userID"`
	User    model.UserInfo   `json:"user"`
	Role    model.MemberRole `json:"role"`
	IsOwner bool             `json:"isOwner"`
}

type OutlineResp struct {
	ID              uint                `json:"id"`
	Introduction    string              `json:"introduction"`
	Objectives      string              `json:"objectives"`
	Methodology     string              `json:"methodology"`
	ExpectedResults string              `json:"expectedResults"`
	FileID          *string             `json:"fileID"`
	Status          model.OutlineStatus `json:"status"`
}

type ProposalResp struct {
	ID               uint                        `json:"id"`
	Title            string                      `json:"title"`
	Description      string                      `json:"description"`
	Status           model.ProposedProjectStatus `json:"status"`
	Version          uint                        `json:"version"`
	ProposalDeadline *time.Time                  `json:"proposalDeadline"`
	TopicLockDate    *time.Time                  `json:"topicLockDate"`
	ApprovedAt       *time.Time                  `json:"approvedAt"`
	ApprovedByID     *uint                       `json:"approvedByID"`
	CreatedAt        time.Time                   `json:"createdAt"`
	Members          []MemberResp                `json:"members"`
	Outline          *OutlineResp                `json:"outline,omitempty"`
}

func toProposalResp(p *model.ProposedProject) ProposalResp {
	resp := ProposalResp{
		ID:               p.ID,
		Title:            p.Title,
		Description:      p.Description,
		Status:           p.Status,
		Version:          p.Version,
		ProposalDeadline: p.ProposalDeadline,
		TopicLockDate:    p.TopicLockDate,
		ApprovedAt:       p.ApprovedAt,
		ApprovedByID:     p.ApprovedByID,
		CreatedAt:        p.CreatedAt,
		Members: lo.Map(p.Members, func(m model.ProposedProjectMember, _ int) MemberResp {
			return MemberResp{
				UserID:  m.UserID,
				User:    m.User.Info(),
				Role:    m.Role,
				IsOwner: m.IsOwner,
			}
		}),
	}
	if p.Outline != nil {
		resp.Outline = &OutlineResp{
			ID:              p.Outline.ID,
			Introduction:    p.Outline.Introduction,
			Objectives:      p.Outline.Objectives,
			Methodology:     p.Outline.Methodology,
			ExpectedResults: p.Outline.ExpectedResults,
			FileID:          p.Outline.FileID,
			Status:          p.Outline.Status,
		}
	}
	return resp
}

type CreateProposalReq struct {
	Title            string     `json:"title" binding:"required"`
	Description      string     `json:"description"`
	AdvisorID        uint       `json:"advisorID" binding:"required"`
	ProposalDeadline *time.Time `json:"proposalDeadline"`
	TopicLockDate    *time.Time `json:"topicLockDate"`
}

// CreateProposal godoc
//
//	@Summary		Create a proposed project
//	@Description	Creates the proposal in TOPIC_SUBMISSION_PENDING with the caller as owner
//	@Tags			Proposal
//	@Accept			json
//	@Produce		json
//	@Security		Bearer
//	@Param			body	body		CreateProposalReq	true	"proposal"
//	@Success		200		{object}	resputil.Response[ProposalResp]	"created proposal"
//	@Failure		400		{object}	resputil.Response[any]	"invalid request"
//	@Router			/v1/proposals [post]
func (mgr *ProposalMgr) CreateProposal(c *gin.Context) {
	var req CreateProposalReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, "invalid request parameters")
		return
	}
	token := util.GetToken(c)
	if token.Role != model.RoleStudent {
		resputil.WrapServiceError(c, apperror.Forbidden("only students create proposals"))
		return
	}

	var advisor model.User
	if err := mgr.db.WithContext(c).First(&advisor, req.AdvisorID).Error; err != nil {
		resputil.WrapServiceError(c, apperror.NotFound("advisor %d not found", req.AdvisorID))
		return
	}
	if advisor.Role < model.RoleFaculty {
		resputil.WrapServiceError(c, apperror.Validation("user %d is not a faculty member", req.AdvisorID))
		return
	}

	p := model.ProposedProject{
		Title:            req.Title,
		Description:      req.Description,
		Status:           model.StatusTopicSubmissionPending,
		FacultyID:        advisor.FacultyID,
		ProposalDeadline: req.ProposalDeadline,
		TopicLockDate:    req.TopicLockDate,
		Version:          1,
		Members: []model.ProposedProjectMember{
			{UserID: token.UserID, Role: model.MemberRoleStudent, IsOwner: true},
			{UserID: req.AdvisorID, Role: model.MemberRoleAdvisor},
		},
	}
	if err := mgr.db.WithContext(c).Create(&p).Error; err != nil {
		klog.Errorf("failed to create proposal, userID: %d, err: %v", token.UserID, err)
		resputil.Error(c, "failed to create proposal", resputil.NotSpecified)
		return
	}
	resputil.Success(c, toProposalResp(&p))
}

// ListMyProposals godoc
//
//	@Summary		List proposals the caller participates in
//	@Tags			Proposal
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[[]ProposalResp]	"proposals"
//	@Router			/v1/proposals [get]
func (mgr *ProposalMgr) ListMyProposals(c *gin.Context) {
	token := util.GetToken(c)

	var projects []model.ProposedProject
	err := mgr.db.WithContext(c).
		Preload("Members.User").
		Preload("Outline").
		Joins("JOIN proposed_project_members m ON m.project_id = proposed_projects.id AND m.user_id = ? AND m.deleted_at IS NULL", token.UserID).
		Order("proposed_projects.created_at DESC").
		Find(&projects).Error
	if err != nil {
		klog.Errorf("failed to list proposals, userID: %d, err: %v", token.UserID, err)
		resputil.Error(c, "failed to list proposals", resputil.NotSpecified)
		return
	}

	resputil.Success(c, lo.Map(projects, func(p model.ProposedProject, _ int) ProposalResp {
		return toProposalResp(&p)
	}))
}

// ListAllProposals godoc
//
//	@Summary		List every proposal (admin)
//	@Tags			Proposal
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[[]ProposalResp]	"proposals"
//	@Router			/v1/admin/proposals [get]
func (mgr *ProposalMgr) ListAllProposals(c *gin.Context) {
	var projects []model.ProposedProject
	err := mgr.db.WithContext(c).
		Preload("Members.User").
		Preload("Outline").
		Order("created_at DESC").
		Find(&projects).Error
	if err != nil {
		resputil.Error(c, "failed to list proposals", resputil.NotSpecified)
		return
	}
	resputil.Success(c, lo.Map(projects, func(p model.ProposedProject, _ int) ProposalResp {
		return toProposalResp(&p)
	}))
}

// GetProposal godoc
//
//	@Summary		Get one proposal
//	@Tags			Proposal
//	@Produce		json
//	@Security		Bearer
//	@Param			id	path		int	true	"proposal id"
//	@Success		200	{object}	resputil.Response[ProposalResp]	"proposal"
//	@Failure		404	{object}	resputil.Response[any]	"not found"
//	@Router			/v1/proposals/{id} [get]
func (mgr *ProposalMgr) GetProposal(c *gin.Context) {
	var uri ProposalIDReq
	if err := c.ShouldBindUri(&uri); err != nil {
		resputil.BadRequestError(c, "invalid request parameters")
		return
	}
	pr := util.GetPrincipal(c)

	p, err := mgr.loadProposal(c, uri.ID)
	if err != nil {
		resputil.WrapServiceError(c, err)
		return
	}
	// Participants and faculty leadership may view; others may not.
	if !pr.IsHead() {
		if _, member := lo.Find(p.Members, func(m model.ProposedProjectMember) bool {
			return m.UserID == pr.UserID
		}); !member {
			resputil.WrapServiceError(c, apperror.Forbidden("not a member of this project"))
			return
		}
	}
	resputil.Success(c, toProposalResp(p))
}

type HistoryResp struct {
	ID        uint                        `json:"id"`
	OldStatus model.ProposedProjectStatus `json:"oldStatus"`
	NewStatus model.ProposedProjectStatus `json:"newStatus"`
	ActorID   uint                        `json:"actorID"`
	Decision  string                      `json:"decision"`
	Comment   string                      `json:"comment"`
	CreatedAt time.Time                   `json:"createdAt"`
}

// GetHistory godoc
//
//	@Summary		Status transition audit trail of a proposal
//	@Tags			Proposal
//	@Produce		json
//	@Security		Bearer
//	@Param			id	path		int	true	"proposal id"
//	@Success		200	{object}	resputil.Response[[]HistoryResp]	"history"
//	@Router			/v1/proposals/{id}/history [get]
func (mgr *ProposalMgr) GetHistory(c *gin.Context) {
	var uri ProposalIDReq
	if err := c.ShouldBindUri(&uri); err != nil {
		resputil.BadRequestError(c, "invalid request parameters")
		return
	}

	var rows []model.ProposedProjectStatusHistory
	err := mgr.db.WithContext(c).
		Where("project_id = ?", uri.ID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		resputil.Error(c, "failed to load history", resputil.NotSpecified)
		return
	}

	resputil.Success(c, lo.Map(rows, func(h model.ProposedProjectStatusHistory, _ int) HistoryResp {
		detail := h.Detail.Data()
		return HistoryResp{
			ID:        h.ID,
			OldStatus: h.OldStatus,
			NewStatus: h.NewStatus,
			ActorID:   h.ActorID,
			Decision:  detail.Decision,
			Comment:   detail.Comment,
			CreatedAt: h.CreatedAt,
		}
	}))
}

type SubmitTopicReq struct {
	Title           string `json:"title" binding:"required"`
	Description     string `json:"description"`
	SubmitToAdvisor bool   `json:"submitToAdvisor"`
	Version         uint   `json:"version" binding:"required"`
}

// SubmitTopic godoc
//
//	@Summary		Save the topic, optionally submitting it for advisor review
//	@Tags			Proposal
//	@Accept			json
//	@Produce		json
//	@Security		Bearer
//	@Param			id		path		int				true	"proposal id"
//	@Param			body	body		SubmitTopicReq	true	"topic"
//	@Success		200		{object}	resputil.Response[ProposalResp]	"updated proposal"
//	@Failure		409		{object}	resputil.Response[any]	"version conflict"
//	@Failure		422		{object}	resputil.Response[any]	"illegal transition"
//	@Router			/v1/proposals/{id}/topic [put]
func (mgr *ProposalMgr) SubmitTopic(c *gin.Context) {
	var req SubmitTopicReq
	mgr.runWorkflowOp(c, func(p *model.ProposedProject, pr workflow.Principal) (*workflow.Result, error) {
		return workflow.SubmitTopic(p, pr, workflow.SubmitTopicInput{
			Title:           req.Title,
			Description:     req.Description,
			SubmitToAdvisor: req.SubmitToAdvisor,
		})
	}, func() (uint, error) {
		if err := c.ShouldBindJSON(&req); err != nil {
			return 0, err
		}
		return req.Version, nil
	})
}

type ReviewReq struct {
	Decision workflow.Decision `json:"decision" binding:"required"`
	Comment  string            `json:"comment"`
	Version  uint              `json:"version" binding:"required"`
}

// ReviewTopic godoc
//
//	@Summary		Advisor verdict on a submitted topic
//	@Tags			Proposal
//	@Accept			json
//	@Produce		json
//	@Security		Bearer
//	@Param			id		path		int			true	"proposal id"
//	@Param			body	body		ReviewReq	true	"decision"
//	@Success		200		{object}	resputil.Response[ProposalResp]	"updated proposal"
//	@Failure		422		{object}	resputil.Response[any]	"illegal transition"
//	@Router			/v1/proposals/{id}/topic/review [post]
func (mgr *ProposalMgr) ReviewTopic(c *gin.Context) {
	var req ReviewReq
	mgr.runWorkflowOp(c, func(p *model.ProposedProject, pr workflow.Principal) (*workflow.Result, error) {
		return workflow.ReviewTopic(p, pr, req.Decision, req.Comment)
	}, func() (uint, error) {
		if err := c.ShouldBindJSON(&req); err != nil {
			return 0, err
		}
		return req.Version, nil
	})
}

type SubmitOutlineReq struct {
	Introduction    string  `json:"introduction"`
	Objectives      string  `json:"objectives"`
	Methodology     string  `json:"methodology"`
	ExpectedResults string  `json:"expectedResults"`
	FileID          *string `json:"fileID"`
	SubmitForReview bool    `json:"submitForReview"`
	Version         uint    `json:"version" binding:"required"`
}

// SubmitOutline godoc
//
//	@Summary		Create or update the proposal outline
//	@Description	Draft saves keep the outline in DRAFT; submitting for review moves the project to advisor review
//	@Tags			Proposal
//	@Accept			json
//	@Produce		json
//	@Security		Bearer
//	@Param			id		path		int					true	"proposal id"
//	@Param			body	body		SubmitOutlineReq	true	"outline"
//	@Success		200		{object}	resputil.Response[ProposalResp]	"updated proposal"
//	@Failure		400		{object}	resputil.Response[any]	"missing required field"
//	@Router			/v1/proposals/{id}/outline [put]
func (mgr *ProposalMgr) SubmitOutline(c *gin.Context) {
	var req SubmitOutlineReq
	mgr.runWorkflowOp(c, func(p *model.ProposedProject, pr workflow.Principal) (*workflow.Result, error) {
		return workflow.SubmitOutline(p, pr, workflow.SubmitOutlineInput{
			Introduction:    req.Introduction,
			Objectives:      req.Objectives,
			Methodology:     req.Methodology,
			ExpectedResults: req.ExpectedResults,
			FileID:          req.FileID,
			SubmitForReview: req.SubmitForReview,
		})
	}, func() (uint, error) {
		if err := c.ShouldBindJSON(&req); err != nil {
			return 0, err
		}
		return req.Version, nil
	})
}

type VersionReq struct {
	Version uint `json:"version" binding:"required"`
}

// RequestHeadReview godoc
//
//	@Summary		Send an outline-approved proposal to the department head
//	@Tags			Proposal
//	@Accept			json
//	@Produce		json
//	@Security		Bearer
//	@Param			id		path		int			true	"proposal id"
//	@Param			body	body		VersionReq	true	"version"
//	@Success		200		{object}	resputil.Response[ProposalResp]	"updated proposal"
//	@Router			/v1/proposals/{id}/head-request [post]
func (mgr *ProposalMgr) RequestHeadReview(c *gin.Context) {
	var req VersionReq
	mgr.runWorkflowOp(c, func(p *model.ProposedProject, pr workflow.Principal) (*workflow.Result, error) {
		return workflow.RequestHeadReview(p, pr)
	}, func() (uint, error) {
		if err := c.ShouldBindJSON(&req); err != nil {
			return 0, err
		}
		return req.Version, nil
	})
}

// HeadReview godoc
//
//	@Summary		Department head requests changes or rejects
//	@Tags			Proposal
//	@Accept			json
//	@Produce		json
//	@Security		Bearer
//	@Param			id		path		int			true	"proposal id"
//	@Param			body	body		ReviewReq	true	"decision"
//	@Success		200		{object}	resputil.Response[ProposalResp]	"updated proposal"
//	@Failure		403		{object}	resputil.Response[any]	"not the department head"
//	@Router			/v1/proposals/{id}/head-review [post]
func (mgr *ProposalMgr) HeadReview(c *gin.Context) {
	var req ReviewReq
	mgr.runWorkflowOp(c, func(p *model.ProposedProject, pr workflow.Principal) (*workflow.Result, error) {
		return workflow.DepartmentHeadReview(p, pr, req.Decision, req.Comment)
	}, func() (uint, error) {
		if err := c.ShouldBindJSON(&req); err != nil {
			return 0, err
		}
		return req.Version, nil
	})
}

type FinalApprovalReq struct {
	Comment string `json:"comment"`
	Version uint   `json:"version" binding:"required"`
}

// FinalApproval godoc
//
//	@Summary		Department head gives the terminal approval
//	@Description	Stamps approvedAt/approvedBy and locks the outline; cannot be repeated
//	@Tags			Proposal
//	@Accept			json
//	@Produce		json
//	@Security		Bearer
//	@Param			id		path		int					true	"proposal id"
//	@Param			body	body		FinalApprovalReq	true	"optional comment"
//	@Success		200		{object}	resputil.Response[ProposalResp]	"approved proposal"
//	@Failure		422		{object}	resputil.Response[any]	"already approved"
//	@Router			/v1/proposals/{id}/approval [post]
func (mgr *ProposalMgr) FinalApproval(c *gin.Context) {
	var req FinalApprovalReq
	mgr.runWorkflowOp(c, func(p *model.ProposedProject, pr workflow.Principal) (*workflow.Result, error) {
		return workflow.FinalApproval(p, pr, req.Comment)
	}, func() (uint, error) {
		if err := c.ShouldBindJSON(&req); err != nil {
			return 0, err
		}
		return req.Version, nil
	})
}

// runWorkflowOp is the shared transition skeleton: bind, load inside a
// transaction, run the engine, persist with the optimistic version check,
// then notify participants outside the transaction.
func (mgr *ProposalMgr) runWorkflowOp(
	c *gin.Context,
	op func(p *model.ProposedProject, pr workflow.Principal) (*workflow.Result, error),
	bind func() (uint, error),
) {
	var uri ProposalIDReq
	if err := c.ShouldBindUri(&uri); err != nil {
		resputil.BadRequestError(c, "invalid request parameters")
		return
	}
	readVersion, err := bind()
	if err != nil {
		resputil.BadRequestError(c, "invalid request parameters")
		return
	}
	pr := util.GetPrincipal(c)

	var p model.ProposedProject
	var res *workflow.Result
	err = mgr.db.WithContext(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Members.User").Preload("Outline").First(&p, uri.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("proposal %d not found", uri.ID)
			}
			return err
		}
		if p.Version != readVersion {
			return apperror.Conflict("proposal %d was modified concurrently, refetch and retry", uri.ID)
		}
		var opErr error
		res, opErr = op(&p, pr)
		if opErr != nil {
			return opErr
		}
		return saveProposalTx(tx, &p, readVersion, res)
	})
	if err != nil {
		if apperror.KindOf(err) == 0 {
			klog.Errorf("workflow op failed, projectID: %d, userID: %d, err: %v", uri.ID, pr.UserID, err)
		}
		resputil.WrapServiceError(c, err)
		return
	}

	notifyStudents(mgr.mailer, &p, res)
	resputil.Success(c, toProposalResp(&p))
}

// saveProposalTx writes the mutated proposal with an optimistic version
// bump, plus the outline and audit records, all in the caller's transaction.
func saveProposalTx(tx *gorm.DB, p *model.ProposedProject, readVersion uint, res *workflow.Result) error {
	updates := map[string]any{
		"title":          p.Title,
		"description":    p.Description,
		"status":         p.Status,
		"approved_at":    p.ApprovedAt,
		"approved_by_id": p.ApprovedByID,
		"version":        readVersion + 1,
	}
	r := tx.Model(&model.ProposedProject{}).
		Where("id = ? AND version = ?", p.ID, readVersion).
		Updates(updates)
	if r.Error != nil {
		return r.Error
	}
	if r.RowsAffected == 0 {
		return apperror.Conflict("proposal %d was modified concurrently, refetch and retry", p.ID)
	}
	p.Version = readVersion + 1

	if p.Outline != nil {
		if err := tx.Save(p.Outline).Error; err != nil {
			return err
		}
	}
	if res == nil {
		return nil
	}
	for i := range res.History {
		if err := tx.Create(&res.History[i]).Error; err != nil {
			return err
		}
	}
	if res.Comment != nil {
		if err := tx.Create(res.Comment).Error; err != nil {
			return err
		}
	}
	return nil
}

// notifyStudents mails the student members about a review outcome.
// Best-effort only; the transition already committed.
func notifyStudents(mailer alert.Mailer, p *model.ProposedProject, res *workflow.Result) {
	if res == nil || len(res.History) == 0 {
		return
	}
	last := res.History[len(res.History)-1]
	detail := last.Detail.Data()
	if detail.Decision == "" || detail.Decision == "draft" || detail.Decision == "submit" {
		return
	}

	subject := "Capstone proposal update: " + p.Title
	body := "Your proposal moved to status " + string(last.NewStatus) + "."
	if detail.Comment != "" {
		body += "\nReviewer comment: " + detail.Comment
	}
	for i := range p.Members {
		m := &p.Members[i]
		if m.Role != model.MemberRoleStudent {
			continue
		}
		attrs := m.User.Attributes.Data()
		if attrs.Email == nil {
			continue
		}
		go func(email string) {
			if err := mailer.SendMessageTo(context.Background(), email, subject, body); err != nil {
				klog.Warningf("failed to notify %s: %v", email, err)
			}
		}(*attrs.Email)
	}
}

type MemberReq struct {
	UserID uint             `json:"userID" binding:"required"`
	Role   model.MemberRole `json:"role"`
}

// AddMember godoc
//
//	@Summary		Add a member to the proposal
//	@Tags			Proposal
//	@Accept			json
//	@Produce		json
//	@Security		Bearer
//	@Param			id		path		int			true	"proposal id"
//	@Param			body	body		MemberReq	true	"member"
//	@Success		200		{object}	resputil.Response[ProposalResp]	"updated proposal"
//	@Failure		400		{object}	resputil.Response[any]	"already a member"
//	@Router			/v1/proposals/{id}/members [post]
func (mgr *ProposalMgr) AddMember(c *gin.Context) {
	var uri ProposalIDReq
	if err := c.ShouldBindUri(&uri); err != nil {
		resputil.BadRequestError(c, "invalid request parameters")
		return
	}
	var req MemberReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, "invalid request parameters")
		return
	}
	pr := util.GetPrincipal(c)

	err := mgr.db.WithContext(c).Transaction(func(tx *gorm.DB) error {
		p, err := loadProposalTx(tx, uri.ID)
		if err != nil {
			return err
		}
		member, err := workflow.ManageMember(p, pr, workflow.MemberAdd, req.UserID, req.Role)
		if err != nil {
			return err
		}
		return tx.Create(member).Error
	})
	if err != nil {
		resputil.WrapServiceError(c, err)
		return
	}

	p, err := mgr.loadProposal(c, uri.ID)
	if err != nil {
		resputil.WrapServiceError(c, err)
		return
	}
	resputil.Success(c, toProposalResp(p))
}

type MemberURIReq struct {
	ID     uint `uri:"id" binding:"required"`
	UserID uint `uri:"userID" binding:"required"`
}

// RemoveMember godoc
//
//	@Summary		Remove a member from the proposal
//	@Tags			Proposal
//	@Produce		json
//	@Security		Bearer
//	@Param			id		path		int	true	"proposal id"
//	@Param			userID	path		int	true	"member user id"
//	@Success		200		{object}	resputil.Response[string]	"removed"
//	@Failure		400		{object}	resputil.Response[any]	"not a member"
//	@Router			/v1/proposals/{id}/members/{userID} [delete]
func (mgr *ProposalMgr) RemoveMember(c *gin.Context) {
	var uri MemberURIReq
	if err := c.ShouldBindUri(&uri); err != nil {
		resputil.BadRequestError(c, "invalid request parameters")
		return
	}
	pr := util.GetPrincipal(c)

	err := mgr.db.WithContext(c).Transaction(func(tx *gorm.DB) error {
		p, err := loadProposalTx(tx, uri.ID)
		if err != nil {
			return err
		}
		member, err := workflow.ManageMember(p, pr, workflow.MemberRemove, uri.UserID, "")
		if err != nil {
			return err
		}
		return tx.Delete(&model.ProposedProjectMember{}, member.ID).Error
	})
	if err != nil {
		resputil.WrapServiceError(c, err)
		return
	}
	resputil.Success(c, "member removed")
}

type CommentReq struct {
	Content string `json:"content" binding:"required"`
}

type CommentResp struct {
	ID        uint           `json:"id"`
	Author    model.UserInfo `json:"author"`
	Content   string         `json:"content"`
	CreatedAt time.Time      `json:"createdAt"`
}

// ListComments godoc
//
//	@Summary		Comments of a proposal, oldest first
//	@Tags			Proposal
//	@Produce		json
//	@Security		Bearer
//	@Param			id	path		int	true	"proposal id"
//	@Success		200	{object}	resputil.Response[[]CommentResp]	"comments"
//	@Router			/v1/proposals/{id}/comments [get]
func (mgr *ProposalMgr) ListComments(c *gin.Context) {
	var uri ProposalIDReq
	if err := c.ShouldBindUri(&uri); err != nil {
		resputil.BadRequestError(c, "invalid request parameters")
		return
	}

	var comments []model.ProposedProjectComment
	err := mgr.db.WithContext(c).
		Preload("Author").
		Where("project_id = ?", uri.ID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		resputil.Error(c, "failed to list comments", resputil.NotSpecified)
		return
	}

	resputil.Success(c, lo.Map(comments, func(cm model.ProposedProjectComment, _ int) CommentResp {
		return CommentResp{
			ID:        cm.ID,
			Author:    cm.Author.Info(),
			Content:   cm.Content,
			CreatedAt: cm.CreatedAt,
		}
	}))
}

// AddComment godoc
//
//	@Summary		Append a comment to the proposal discussion
//	@Tags			Proposal
//	@Accept			json
//	@Produce		json
//	@Security		Bearer
//	@Param			id		path		int			true	"proposal id"
//	@Param			body	body		CommentReq	true	"comment"
//	@Success		200		{object}	resputil.Response[CommentResp]	"created comment"
//	@Failure		400		{object}	resputil.Response[any]	"empty content"
//	@Router			/v1/proposals/{id}/comments [post]
func (mgr *ProposalMgr) AddComment(c *gin.Context) {
	var uri ProposalIDReq
	if err := c.ShouldBindUri(&uri); err != nil {
		resputil.BadRequestError(c, "invalid request parameters")
		return
	}
	var req CommentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, "invalid request parameters")
		return
	}
	pr := util.GetPrincipal(c)

	p, err := mgr.loadProposal(c, uri.ID)
	if err != nil {
		resputil.WrapServiceError(c, err)
		return
	}
	comment, err := workflow.AddComment(p, pr, req.Content)
	if err != nil {
		resputil.WrapServiceError(c, err)
		return
	}
	if err := mgr.db.WithContext(c).Create(comment).Error; err != nil {
		resputil.Error(c, "failed to create comment", resputil.NotSpecified)
		return
	}
	resputil.Success(c, CommentResp{
		ID:        comment.ID,
		Author:    model.UserInfo{ID: pr.UserID, Username: pr.Username},
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
	})
}

func (mgr *ProposalMgr) loadProposal(c *gin.Context, id uint) (*model.ProposedProject, error) {
	return loadProposalTx(mgr.db.WithContext(c), id)
}

func loadProposalTx(tx *gorm.DB, id uint) (*model.ProposedProject, error) {
	var p model.ProposedProject
	if err := tx.Preload("Members.User").Preload("Outline").First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("proposal %d not found", id)
		}
		return nil, err
	}
	return &p, nil
}
