package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"k8s.io/klog/v2"

	"github.com/grad-lab/capstone-backend/dao/model"
	"github.com/grad-lab/capstone-backend/internal/resputil"
	"github.com/grad-lab/capstone-backend/internal/util"
	"github.com/grad-lab/capstone-backend/pkg/apperror"
	"github.com/grad-lab/capstone-backend/pkg/grading"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewEvaluationMgr)
}

type EvaluationMgr struct {
	name string
	db   *gorm.DB
}

func NewEvaluationMgr(conf *RegisterConfig) Manager {
	return &EvaluationMgr{
		name: "evaluations",
		db:   conf.DB,
	}
}

func (mgr *EvaluationMgr) GetName() string { return mgr.name }

func (mgr *EvaluationMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *EvaluationMgr) RegisterProtected(g *gin.RouterGroup) {
	g.POST("", mgr.CreateEvaluation)
	g.GET("/:id", mgr.GetEvaluation)
	g.POST("/:id/scores", mgr.SubmitScore)
	g.PUT("/:id/finalize", mgr.Finalize)
}

func (mgr *EvaluationMgr) RegisterAdmin(g *gin.RouterGroup) {
	g.GET("", mgr.ListEvaluations)
}

type EvaluationIDReq struct {
	ID uint `uri:"id" binding:"required"`
}

type CommitteeSeatReq struct {
	FacultyID uint                    `json:"facultyID" binding:"required"`
	Position  model.CommitteePosition `json:"position"`
}

type CreateEvaluationReq struct {
	ProjectID       uint               `json:"projectID" binding:"required"`
	AdvisorWeight   float64            `json:"advisorWeight" binding:"min=0,max=1"`
	CommitteeWeight float64            `json:"committeeWeight" binding:"min=0,max=1"`
	Committee       []CommitteeSeatReq `json:"committee" binding:"required,min=1"`
}

type ScoreResp struct {
	ID        uint                `json:"id"`
	Evaluator model.UserInfo      `json:"evaluator"`
	Role      model.EvaluatorRole `json:"role"`
	Score     float64             `json:"score"`
	Comment   string              `json:"comment"`
	CreatedAt time.Time           `json:"createdAt"`
}

type CommitteeSeatResp struct {
	FacultyID uint                    `json:"facultyID"`
	Faculty   model.UserInfo          `json:"faculty"`
	Position  model.CommitteePosition `json:"position"`
}

type EvaluationResp struct {
	ID              uint                   `json:"id"`
	ProjectID       uint                   `json:"projectID"`
	Status          model.EvaluationStatus `json:"status"`
	AdvisorWeight   float64                `json:"advisorWeight"`
	CommitteeWeight float64                `json:"committeeWeight"`
	AdvisorAverage  *float64               `json:"advisorAverage"`
	CommitteeAvg    *float64               `json:"committeeAverage"`
	ProjectedScore  *float64               `json:"projectedScore"`
	FinalScore      *float64               `json:"finalScore"`
	FinalizedAt     *time.Time             `json:"finalizedAt"`
	FinalizedByID   *uint                  `json:"finalizedByID"`
	Scores          []ScoreResp            `json:"scores"`
	Committee       []CommitteeSeatResp    `json:"committee"`
}

func toEvaluationResp(e *model.ProjectEvaluation) EvaluationResp {
	advisorAvg := grading.RoleAverage(e.Scores, model.EvaluatorRoleAdvisor)
	committeeAvg := grading.RoleAverage(e.Scores, model.EvaluatorRoleCommittee)
	return EvaluationResp{
		ID:              e.ID,
		ProjectID:       e.ProjectID,
		Status:          e.Status,
		AdvisorWeight:   e.AdvisorWeight,
		CommitteeWeight: e.CommitteeWeight,
		AdvisorAverage:  advisorAvg,
		CommitteeAvg:    committeeAvg,
		ProjectedScore:  grading.ProjectedFinalScore(advisorAvg, committeeAvg, e.AdvisorWeight, e.CommitteeWeight),
		FinalScore:      e.FinalScore,
		FinalizedAt:     e.FinalizedAt,
		FinalizedByID:   e.FinalizedByID,
		Scores: lo.Map(e.Scores, func(s model.EvaluationScore, _ int) ScoreResp {
			return ScoreResp{
				ID:        s.ID,
				Evaluator: s.Evaluator.Info(),
				Role:      s.Role,
				Score:     s.Score,
				Comment:   s.Comment,
				CreatedAt: s.CreatedAt,
			}
		}),
		Committee: lo.Map(e.Committee, func(m model.CommitteeMember, _ int) CommitteeSeatResp {
			return CommitteeSeatResp{
				FacultyID: m.FacultyID,
				Faculty:   m.Faculty.Info(),
				Position:  m.Position,
			}
		}),
	}
}

// CreateEvaluation godoc
//
//	@Summary		Open a defense evaluation for an approved project
//	@Description	Sets the role weights and seats the committee; one evaluation per project
//	@Tags			Evaluation
//	@Accept			json
//	@Produce		json
//	@Security		Bearer
//	@Param			body	body		CreateEvaluationReq	true	"evaluation"
//	@Success		200		{object}	resputil.Response[EvaluationResp]	"created evaluation"
//	@Failure		403		{object}	resputil.Response[any]	"not faculty leadership"
//	@Failure		422		{object}	resputil.Response[any]	"project not approved"
//	@Router			/v1/evaluations [post]
func (mgr *EvaluationMgr) CreateEvaluation(c *gin.Context) {
	var req CreateEvaluationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, "invalid request parameters")
		return
	}
	pr := util.GetPrincipal(c)
	if !pr.IsHead() {
		resputil.WrapServiceError(c, apperror.Forbidden("only faculty leadership can open evaluations"))
		return
	}
	if err := grading.ValidateWeights(req.AdvisorWeight, req.CommitteeWeight); err != nil {
		resputil.WrapServiceError(c, err)
		return
	}

	var e model.ProjectEvaluation
	err := mgr.db.WithContext(c).Transaction(func(tx *gorm.DB) error {
		var p model.ProposedProject
		if err := tx.First(&p, req.ProjectID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("proposal %d not found", req.ProjectID)
			}
			return err
		}
		if p.Status != model.StatusApprovedByHead {
			return apperror.InvalidState("proposal %d is not approved for defense (status %s)", p.ID, p.Status)
		}
		var count int64
		if err := tx.Model(&model.ProjectEvaluation{}).Where("project_id = ?", p.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperror.Conflict("proposal %d already has an evaluation", p.ID)
		}

		e = model.ProjectEvaluation{
			ProjectID:       p.ID,
			Status:          model.EvaluationPending,
			AdvisorWeight:   req.AdvisorWeight,
			CommitteeWeight: req.CommitteeWeight,
			Committee: lo.Map(req.Committee, func(seat CommitteeSeatReq, _ int) model.CommitteeMember {
				pos := seat.Position
				if pos == "" {
					pos = model.CommitteeMemberPos
				}
				return model.CommitteeMember{FacultyID: seat.FacultyID, Position: pos}
			}),
		}
		return tx.Create(&e).Error
	})
	if err != nil {
		if apperror.KindOf(err) == 0 {
			klog.Errorf("failed to create evaluation, projectID: %d, err: %v", req.ProjectID, err)
		}
		resputil.WrapServiceError(c, err)
		return
	}
	resputil.Success(c, toEvaluationResp(&e))
}

// GetEvaluation godoc
//
//	@Summary		Get an evaluation with averages and the projected score
//	@Tags			Evaluation
//	@Produce		json
//	@Security		Bearer
//	@Param			id	path		int	true	"evaluation id"
//	@Success		200	{object}	resputil.Response[EvaluationResp]	"evaluation"
//	@Failure		404	{object}	resputil.Response[any]	"not found"
//	@Router			/v1/evaluations/{id} [get]
func (mgr *EvaluationMgr) GetEvaluation(c *gin.Context) {
	var uri EvaluationIDReq
	if err := c.ShouldBindUri(&uri); err != nil {
		resputil.BadRequestError(c, "invalid request parameters")
		return
	}

	e, err := mgr.loadEvaluation(mgr.db.WithContext(c), uri.ID)
	if err != nil {
		resputil.WrapServiceError(c, err)
		return
	}
	resputil.Success(c, toEvaluationResp(e))
}

// ListEvaluations godoc
//
//	@Summary		List every evaluation (admin)
//	@Tags			Evaluation
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[[]EvaluationResp]	"evaluations"
//	@Router			/v1/admin/evaluations [get]
func (mgr *EvaluationMgr) ListEvaluations(c *gin.Context) {
	var evals []model.ProjectEvaluation
	err := mgr.db.WithContext(c).
		Preload("Scores.Evaluator").
		Preload("Committee.Faculty").
		Order("created_at DESC").
		Find(&evals).Error
	if err != nil {
		resputil.Error(c, "failed to list evaluations", resputil.NotSpecified)
		return
	}
	resputil.Success(c, lo.Map(evals, func(e model.ProjectEvaluation, _ int) EvaluationResp {
		return toEvaluationResp(&e)
	}))
}

type SubmitScoreReq struct {
	Score   float64 `json:"score" binding:"min=0,max=10"`
	Comment string  `json:"comment"`
}

// SubmitScore godoc
//
//	@Summary		Submit or revise the caller's score
//	@Description	The evaluator role is derived from project membership and committee seats, never from the request
//	@Tags			Evaluation
//	@Accept			json
//	@Produce		json
//	@Security		Bearer
//	@Param			id		path		int				true	"evaluation id"
//	@Param			body	body		SubmitScoreReq	true	"score"
//	@Success		200		{object}	resputil.Response[EvaluationResp]	"evaluation with the new score"
//	@Failure		403		{object}	resputil.Response[any]	"not an evaluator"
//	@Failure		422		{object}	resputil.Response[any]	"already finalized"
//	@Router			/v1/evaluations/{id}/scores [post]
func (mgr *EvaluationMgr) SubmitScore(c *gin.Context) {
	var uri EvaluationIDReq
	if err := c.ShouldBindUri(&uri); err != nil {
		resputil.BadRequestError(c, "invalid request parameters")
		return
	}
	var req SubmitScoreReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, "invalid request parameters")
		return
	}
	if err := grading.ValidateScore(req.Score); err != nil {
		resputil.WrapServiceError(c, err)
		return
	}
	pr := util.GetPrincipal(c)

	err := mgr.db.WithContext(c).Transaction(func(tx *gorm.DB) error {
		e, err := mgr.loadEvaluation(tx, uri.ID)
		if err != nil {
			return err
		}
		if e.Status == model.EvaluationEvaluated {
			return apperror.InvalidState("evaluation %d is finalized, scores are immutable", e.ID)
		}
		role, err := evaluatorRoleOf(tx, e, pr.UserID)
		if err != nil {
			return err
		}

		// The unique index on (evaluation_id, evaluator_id) turns a
		// concurrent duplicate insert into an update of the same row.
		score := model.EvaluationScore{
			EvaluationID: e.ID,
			EvaluatorID:  pr.UserID,
			Role:         role,
			Score:        req.Score,
			Comment:      req.Comment,
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "evaluation_id"}, {Name: "evaluator_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"score", "comment", "role", "updated_at"}),
		}).Create(&score).Error
	})
	if err != nil {
		if apperror.KindOf(err) == 0 {
			klog.Errorf("failed to submit score, evaluationID: %d, userID: %d, err: %v", uri.ID, pr.UserID, err)
		}
		resputil.WrapServiceError(c, err)
		return
	}

	e, err := mgr.loadEvaluation(mgr.db.WithContext(c), uri.ID)
	if err != nil {
		resputil.WrapServiceError(c, err)
		return
	}
	resputil.Success(c, toEvaluationResp(e))
}

// Finalize godoc
//
//	@Summary		Compute and lock the weighted final score
//	@Description	One-way: a finalized evaluation rejects further scores and repeated finalization
//	@Tags			Evaluation
//	@Produce		json
//	@Security		Bearer
//	@Param			id	path		int	true	"evaluation id"
//	@Success		200	{object}	resputil.Response[EvaluationResp]	"finalized evaluation"
//	@Failure		403	{object}	resputil.Response[any]	"not faculty leadership"
//	@Failure		422	{object}	resputil.Response[any]	"already finalized or no scores"
//	@Router			/v1/evaluations/{id}/finalize [put]
func (mgr *EvaluationMgr) Finalize(c *gin.Context) {
	var uri EvaluationIDReq
	if err := c.ShouldBindUri(&uri); err != nil {
		resputil.BadRequestError(c, "invalid request parameters")
		return
	}
	pr := util.GetPrincipal(c)
	if !pr.IsHead() {
		resputil.WrapServiceError(c, apperror.Forbidden("only faculty leadership can finalize an evaluation"))
		return
	}

	var e *model.ProjectEvaluation
	err := mgr.db.WithContext(c).Transaction(func(tx *gorm.DB) error {
		var err error
		e, err = mgr.loadEvaluation(tx, uri.ID)
		if err != nil {
			return err
		}
		if e.Status == model.EvaluationEvaluated {
			return apperror.InvalidState("evaluation %d is already finalized", e.ID)
		}
		if len(e.Scores) == 0 {
			return apperror.InvalidState("evaluation %d has no scores to finalize", e.ID)
		}
		if err := grading.ValidateWeights(e.AdvisorWeight, e.CommitteeWeight); err != nil {
			return err
		}

		advisorAvg := grading.RoleAverage(e.Scores, model.EvaluatorRoleAdvisor)
		committeeAvg := grading.RoleAverage(e.Scores, model.EvaluatorRoleCommittee)
		final := grading.FinalScore(advisorAvg, committeeAvg, e.AdvisorWeight, e.CommitteeWeight)
		now := time.Now()

		// Status guard in the WHERE clause makes double finalization lose
		// the race instead of overwriting the first result.
		r := tx.Model(&model.ProjectEvaluation{}).
			Where("id = ? AND status = ?", e.ID, model.EvaluationPending).
			Updates(map[string]any{
				"status":          model.EvaluationEvaluated,
				"final_score":     final,
				"finalized_at":    now,
				"finalized_by_id": pr.UserID,
			})
		if r.Error != nil {
			return r.Error
		}
		if r.RowsAffected == 0 {
			return apperror.InvalidState("evaluation %d is already finalized", e.ID)
		}
		e.Status = model.EvaluationEvaluated
		e.FinalScore = &final
		e.FinalizedAt = &now
		e.FinalizedByID = &pr.UserID
		return nil
	})
	if err != nil {
		if apperror.KindOf(err) == 0 {
			klog.Errorf("failed to finalize evaluation, evaluationID: %d, err: %v", uri.ID, err)
		}
		resputil.WrapServiceError(c, err)
		return
	}
	resputil.Success(c, toEvaluationResp(e))
}

func (mgr *EvaluationMgr) loadEvaluation(tx *gorm.DB, id uint) (*model.ProjectEvaluation, error) {
	var e model.ProjectEvaluation
	err := tx.Preload("Scores.Evaluator").Preload("Committee.Faculty").First(&e, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("evaluation %d not found", id)
		}
		return nil, err
	}
	return &e, nil
}

// evaluatorRoleOf derives the caller's scoring role: the project advisor
// scores as ADVISOR, committee seats score as COMMITTEE, everyone else is
// rejected.
func evaluatorRoleOf(tx *gorm.DB, e *model.ProjectEvaluation, userID uint) (model.EvaluatorRole, error) {
	for i := range e.Committee {
		if e.Committee[i].FacultyID == userID {
			return model.EvaluatorRoleCommittee, nil
		}
	}
	var count int64
	err := tx.Model(&model.ProposedProjectMember{}).
		Where("project_id = ? AND user_id = ? AND role = ?", e.ProjectID, userID, model.MemberRoleAdvisor).
		Count(&count).Error
	if err != nil {
		return "", err
	}
	if count > 0 {
		return model.EvaluatorRoleAdvisor, nil
	}
	return "", apperror.Forbidden("user %d is not an evaluator of this defense", userID)
}
